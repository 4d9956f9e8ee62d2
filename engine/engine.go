// Package engine races page loaders for the auto and http fetch modes.
//
// The HTTP engine parses the raw response into a static document and runs
// the extractor on it. The browser engine is a callback into the scraper.
// The dispatcher starts the cheap engine first and escalates to the browser
// after a delay, remembering per domain which engine last produced a
// complete product.
package engine

import (
	"context"
	"time"

	"github.com/use-agent/prodex/models"
)

// Engine names.
const (
	NameHTTP = "http"
	NameRod  = "rod"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http", "rod").
	Name() string

	// Fetch loads the page and extracts its product.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to load a product page.
type FetchRequest struct {
	URL       string
	StoreType string
	Timeout   time.Duration
	Stealth   bool
	BlockAds  bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	Record models.ProductRecord

	// Strategy names the platform strategy that ran.
	Strategy string

	FinalURL       string
	StatusCode     int
	EngineName     string
	NavigationTime time.Duration
	ExtractionTime time.Duration
}
