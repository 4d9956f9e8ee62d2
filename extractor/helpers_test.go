package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ysmood/gson"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine() *Engine {
	return New(Options{
		Logger:              quietLogger(),
		RevealWait:          50 * time.Millisecond,
		LazyDescriptionWait: 50 * time.Millisecond,
		PollInterval:        5 * time.Millisecond,
	})
}

func mustDocument(t *testing.T, html, pageURL string, opts ...DocumentOption) *Document {
	t.Helper()
	doc, err := NewDocument(html, pageURL, opts...)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

var errInjected = errors.New("injected failure")

// failingPage wraps a Page and fails selected operations.
type failingPage struct {
	Page
	failURL     bool
	failGlobals bool
	failLeaves  bool
	// failQuery fails any query whose selector contains one of these.
	failQuery []string
}

func (f *failingPage) URL(ctx context.Context) (string, error) {
	if f.failURL {
		return "", errInjected
	}
	return f.Page.URL(ctx)
}

func (f *failingPage) Global(ctx context.Context, name string) (gson.JSON, error) {
	if f.failGlobals {
		return gson.New(nil), errInjected
	}
	return f.Page.Global(ctx, name)
}

func (f *failingPage) LeafTexts(ctx context.Context) ([]string, error) {
	if f.failLeaves {
		return nil, errInjected
	}
	return f.Page.LeafTexts(ctx)
}

func (f *failingPage) Query(ctx context.Context, selector string) ([]Element, error) {
	for _, s := range f.failQuery {
		if strings.Contains(selector, s) {
			return nil, errInjected
		}
	}
	return f.Page.Query(ctx, selector)
}

// runtimeWithPrice builds a render runtime object carrying one offer.
func runtimeWithPrice(price any) map[string]any {
	return map[string]any{
		"route": map[string]any{
			"product": map[string]any{
				"items": []any{
					map[string]any{
						"sellers": []any{
							map[string]any{
								"commertialOffer": map[string]any{"Price": price},
							},
						},
					},
				},
			},
		},
	}
}
