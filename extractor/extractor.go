// Package extractor turns a loaded product page into a ProductRecord.
//
// A platform strategy is chosen from the store-type hint and the page URL.
// Each strategy runs ordered probe cascades per field (runtime objects,
// analytics data layers, selector lists, text patterns) and keeps the first
// usable value. Missing fields are not errors.
package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/use-agent/prodex/models"
)

// ErrInvalidPage is wrapped by the error Extract returns when the page
// handle cannot be used.
var ErrInvalidPage = errors.New("invalid page handle")

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	Logger *slog.Logger

	// RevealWait bounds the wait for description content after clicking a
	// description tab. Default: 1s.
	RevealWait time.Duration

	// LazyDescriptionWait bounds the wait for a lazily rendered marketplace
	// description. Default: 2s.
	LazyDescriptionWait time.Duration

	// PollInterval is how often waits re-check the page. Default: 100ms.
	PollInterval time.Duration
}

// Engine runs strategies. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	log                 *slog.Logger
	revealWait          time.Duration
	lazyDescriptionWait time.Duration
	pollInterval        time.Duration
}

var defaultEngine = New(Options{})

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		log:                 opts.Logger,
		revealWait:          opts.RevealWait,
		lazyDescriptionWait: opts.LazyDescriptionWait,
		pollInterval:        opts.PollInterval,
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.revealWait <= 0 {
		e.revealWait = time.Second
	}
	if e.lazyDescriptionWait <= 0 {
		e.lazyDescriptionWait = 2 * time.Second
	}
	if e.pollInterval <= 0 {
		e.pollInterval = 100 * time.Millisecond
	}
	return e
}

// Extract runs the default engine. See Engine.Extract.
func Extract(ctx context.Context, page Page, sourceURL, hint string) (models.ProductRecord, error) {
	return defaultEngine.Extract(ctx, page, sourceURL, hint)
}

// Extract reads a product from page, which must already be loaded.
// sourceURL resolves relative image references and drives platform
// detection; hint is an optional store type.
//
// The only error is ErrInvalidPage, wrapped in a *models.ScrapeError. It is
// returned when page is nil or cannot report its location, and when ctx is
// already done. Fields that could not be found are left empty.
func (e *Engine) Extract(ctx context.Context, page Page, sourceURL, hint string) (models.ProductRecord, error) {
	if page == nil {
		return models.EmptyRecord(), invalidPage("page handle is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return models.EmptyRecord(), invalidPage("context done before extraction", err)
	}
	liveURL, err := page.URL(ctx)
	if err != nil {
		return models.EmptyRecord(), invalidPage("page is not usable", err)
	}

	strategy := e.Choose(hint, sourceURL, liveURL)
	e.log.Info("strategy selected", "strategy", strategy.Name(), "url", sourceURL, "hint", hint)

	start := time.Now()
	rec := strategy.extract(ctx, e, page, sourceURL)
	e.log.Info("product extracted",
		"strategy", strategy.Name(),
		"url", sourceURL,
		"has_title", rec.Title != "",
		"has_price", rec.Price != "",
		"has_description", rec.Description != "",
		"images", len(rec.Images),
		"elapsed", time.Since(start),
	)
	return rec, nil
}

// Choose resolves the strategy for a page. It is Select, except that when
// the source URL names no platform and the page ended up elsewhere (a
// redirect to a platform domain), the live location is consulted.
func (e *Engine) Choose(hint, sourceURL, liveURL string) Strategy {
	s := Select(hint, sourceURL)
	if s.platform != PlatformGeneric || liveURL == "" || liveURL == sourceURL {
		return s
	}
	if _, ok := ParsePlatform(hint); ok {
		return s
	}
	return StrategyFor(DetectPlatform(liveURL))
}

func invalidPage(msg string, cause error) error {
	return models.NewScrapeError(models.ErrCodeInvalidPage, msg, errors.Join(ErrInvalidPage, cause))
}
