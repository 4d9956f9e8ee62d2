package extractor

import (
	"context"

	"github.com/ysmood/gson"
)

// Element is a snapshot of one DOM element taken at query time.
type Element struct {
	// Text is the element's textContent, untrimmed.
	Text string
	// HTML is the element's innerHTML.
	HTML string
	// Src is the element's src property. Empty for elements without one.
	Src   string
	Attrs map[string]string
}

// Attr returns the named attribute or "".
func (e Element) Attr(name string) string {
	return e.Attrs[name]
}

// Page is the view of a loaded document that the strategies probe.
//
// Implementations only read from and interact with a page that the caller
// has already navigated. The engine never navigates or closes a Page.
type Page interface {
	// Global returns window[name] as JSON, or a null JSON when unset.
	Global(ctx context.Context, name string) (gson.JSON, error)

	// Query returns snapshots of every element matching selector in
	// document order.
	Query(ctx context.Context, selector string) ([]Element, error)

	// LeafTexts returns the trimmed, non-empty text of every element in
	// the body that has no element children.
	LeafTexts(ctx context.Context) ([]string, error)

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// ScrollIntoView scrolls the first element matching selector into view.
	ScrollIntoView(ctx context.Context, selector string) error

	// URL returns the page's current location. An error means the page
	// is no longer usable.
	URL(ctx context.Context) (string, error)
}
