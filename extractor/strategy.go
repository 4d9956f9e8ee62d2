package extractor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/prodex/models"
)

// Strategy is the extraction plan for one platform. The set of strategies
// is closed; obtain one from Select or StrategyFor.
type Strategy struct {
	platform Platform

	price           Cascade[string]
	title           Cascade[string]
	description     Cascade[string]
	descriptionHTML Cascade[string]
	images          Cascade[[]string]

	// followUps run after the combined pass, in order.
	followUps []followUp
}

// followUp is a platform-specific step that may fill fields the cascades
// left empty.
type followUp func(ctx context.Context, e *Engine, p Page, sourceURL string, f *fields, log *slog.Logger)

// fields holds raw values before finalization.
type fields struct {
	title           string
	price           string
	description     string
	descriptionHTML string
	images          []string
}

// section is a description found together with its markup.
type section struct {
	Text string
	HTML string
}

func (s section) IsEmpty() bool { return strings.TrimSpace(s.Text) == "" }

// StrategyFor returns the strategy for p.
func StrategyFor(p Platform) Strategy {
	switch p {
	case PlatformVTEX:
		return vtexStrategy
	case PlatformMarketplace:
		return marketplaceStrategy
	default:
		return genericStrategy
	}
}

// Platform reports which platform s targets.
func (s Strategy) Platform() Platform { return s.platform }

// Name is the platform name, as reported in API responses.
func (s Strategy) Name() string { return s.platform.String() }

// Extract runs s against p with the default engine settings.
func (s Strategy) Extract(ctx context.Context, p Page, sourceURL string) models.ProductRecord {
	return s.extract(ctx, defaultEngine, p, sourceURL)
}

func (s Strategy) extract(ctx context.Context, e *Engine, p Page, sourceURL string) models.ProductRecord {
	log := e.log.With("strategy", s.Name(), "url", sourceURL)

	var f fields
	f.price = s.price.Run(ctx, p, log)
	f.title = s.title.Run(ctx, p, log)
	f.description = s.description.Run(ctx, p, log)
	f.descriptionHTML = s.descriptionHTML.Run(ctx, p, log)
	f.images = s.images.Run(ctx, p, log)

	for _, step := range s.followUps {
		step(ctx, e, p, sourceURL, &f, log)
	}
	if strings.TrimSpace(f.description) == "" {
		e.revealDescription(ctx, p, &f, log)
	}
	return finalize(f, sourceURL)
}

var (
	revealTabSelector = `[data-tab="description"], .description-tab, #tab-description, [data-target="#description"]`

	revealedDescription = NewCascade("description", KindHTML,
		sectionProbes(".product-description", "#description", ".description-content", ".tab-content")...)
)

// revealDescription clicks the first description tab, if the page has one,
// and waits for description content to appear.
func (e *Engine) revealDescription(ctx context.Context, p Page, f *fields, log *slog.Logger) {
	tabs, err := p.Query(ctx, revealTabSelector)
	if err != nil || len(tabs) == 0 {
		return
	}
	if err := p.Click(ctx, revealTabSelector); err != nil {
		log.Debug("description tab click failed", "error", err)
		return
	}

	var found section
	waitFor(ctx, e.revealWait, e.pollInterval, func() bool {
		found = revealedDescription.Run(ctx, p, log)
		return !found.IsEmpty()
	})
	if found.IsEmpty() {
		log.Debug("description tab revealed nothing")
		return
	}
	f.description = strings.TrimSpace(found.Text)
	f.descriptionHTML = found.HTML
}
