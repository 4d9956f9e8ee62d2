package engine

import (
	"context"
	"fmt"
)

// RodFetchFunc loads and extracts a page in the browser. It is injected from
// main.go because scraper imports engine.
type RodFetchFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the browser tier of the dispatcher.
type RodEngine struct {
	fetchFunc RodFetchFunc
}

// NewRodEngine creates a RodEngine around the scraper's browser fetch.
func NewRodEngine(fetchFunc RodFetchFunc) *RodEngine {
	return &RodEngine{fetchFunc: fetchFunc}
}

func (e *RodEngine) Name() string { return NameRod }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", NameRod)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	result, err := e.fetchFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NameRod, err)
	}
	result.EngineName = NameRod
	return result, nil
}
