package scraper

import (
	"time"

	"github.com/use-agent/prodex/engine"
	"github.com/use-agent/prodex/models"
)

// Result is the outcome of one extraction, whichever engine served it.
type Result struct {
	Record models.ProductRecord

	// Strategy is the platform strategy that ran.
	Strategy string

	// FinalURL is the page location after redirects.
	FinalURL string

	// EngineUsed is "rod" or "http".
	EngineUsed string

	NavigationTime time.Duration
	ExtractionTime time.Duration
}

func fromFetch(r *engine.FetchResult) *Result {
	return &Result{
		Record:         r.Record,
		Strategy:       r.Strategy,
		FinalURL:       r.FinalURL,
		EngineUsed:     r.EngineName,
		NavigationTime: r.NavigationTime,
		ExtractionTime: r.ExtractionTime,
	}
}

func (r *Result) toFetch() *engine.FetchResult {
	return &engine.FetchResult{
		Record:         r.Record,
		Strategy:       r.Strategy,
		FinalURL:       r.FinalURL,
		EngineName:     r.EngineUsed,
		NavigationTime: r.NavigationTime,
		ExtractionTime: r.ExtractionTime,
	}
}
