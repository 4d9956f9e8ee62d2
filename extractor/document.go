package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ysmood/gson"
)

// ErrNoElement is returned by Click and ScrollIntoView when nothing matches.
var ErrNoElement = errors.New("no element matches selector")

var (
	// assignRe finds `name = {` and `window.name = [` in inline scripts.
	assignRe = regexp.MustCompile(`(?:^|[^\w$.])(?:window\.)?([A-Za-z_$][\w$]*)\s*=\s*[\[{]`)
	// pushRe finds `name.push({` in inline scripts.
	pushRe = regexp.MustCompile(`(?:^|[^\w$.])(?:window\.)?([A-Za-z_$][\w$]*)\.push\(\s*\{`)
)

// Document is a Page backed by static HTML. Globals are recovered from
// inline script assignments whose right-hand side is valid JSON.
//
// A Document is not safe for concurrent use.
type Document struct {
	doc      *goquery.Document
	url      string
	globals  map[string]any
	onClick  []interaction
	onScroll []interaction
}

type interaction struct {
	selector string
	fn       func(root *goquery.Selection)
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithGlobal sets window[name] to v, replacing any value parsed from scripts.
func WithGlobal(name string, v any) DocumentOption {
	return func(d *Document) { d.globals[name] = v }
}

// OnClick registers fn to run against the document root when an element
// matching selector is clicked. It lets static documents model content
// revealed by interaction.
func OnClick(selector string, fn func(root *goquery.Selection)) DocumentOption {
	return func(d *Document) { d.onClick = append(d.onClick, interaction{selector, fn}) }
}

// OnScrollIntoView is OnClick for ScrollIntoView.
func OnScrollIntoView(selector string, fn func(root *goquery.Selection)) DocumentOption {
	return func(d *Document) { d.onScroll = append(d.onScroll, interaction{selector, fn}) }
}

// NewDocument parses rawHTML as the page located at pageURL.
func NewDocument(rawHTML, pageURL string, opts ...DocumentOption) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	d := &Document{doc: doc, url: pageURL, globals: make(map[string]any)}
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		d.collectGlobals(s.Text())
	})
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Document) collectGlobals(script string) {
	for _, m := range assignRe.FindAllStringSubmatchIndex(script, -1) {
		name := script[m[2]:m[3]]
		if _, ok := d.globals[name]; ok {
			continue
		}
		if v, ok := decodeJSONAt(script, m[1]-1); ok {
			d.globals[name] = v
		}
	}
	for _, m := range pushRe.FindAllStringSubmatchIndex(script, -1) {
		name := script[m[2]:m[3]]
		v, ok := decodeJSONAt(script, m[1]-1)
		if !ok {
			continue
		}
		list, _ := d.globals[name].([]any)
		d.globals[name] = append(list, v)
	}
}

func decodeJSONAt(s string, start int) (any, bool) {
	var v any
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Global implements Page.
func (d *Document) Global(ctx context.Context, name string) (gson.JSON, error) {
	if err := ctx.Err(); err != nil {
		return gson.New(nil), err
	}
	return gson.New(d.globals[name]), nil
}

// Query implements Page.
func (d *Document) Query(ctx context.Context, selector string) ([]Element, error) {
	matches, err := d.find(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, snapshot(s))
	})
	return out, nil
}

// LeafTexts implements Page.
func (d *Document) LeafTexts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	d.doc.Find("body *").Not("script, style, noscript, template").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out, nil
}

// Click implements Page.
func (d *Document) Click(ctx context.Context, selector string) error {
	return d.interact(ctx, selector, d.onClick)
}

// ScrollIntoView implements Page.
func (d *Document) ScrollIntoView(ctx context.Context, selector string) error {
	return d.interact(ctx, selector, d.onScroll)
}

// URL implements Page.
func (d *Document) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.url, nil
}

// HTML renders the current document, including changes made by
// interactions.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.Selection)
}

func (d *Document) interact(ctx context.Context, selector string, handlers []interaction) error {
	matches, err := d.find(ctx, selector)
	if err != nil {
		return err
	}
	target := matches.First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrNoElement, selector)
	}
	for _, h := range handlers {
		if target.Is(h.selector) {
			h.fn(d.doc.Selection)
		}
	}
	return nil
}

func (d *Document) find(ctx context.Context, selector string) (*goquery.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return d.doc.FindMatcher(m), nil
}

func snapshot(s *goquery.Selection) Element {
	inner, _ := s.Html()
	el := Element{Text: s.Text(), HTML: inner, Attrs: make(map[string]string)}
	if n := s.Get(0); n != nil {
		for _, a := range n.Attr {
			el.Attrs[a.Key] = a.Val
		}
	}
	switch goquery.NodeName(s) {
	case "img", "source", "iframe", "script", "video", "audio":
		el.Src = el.Attrs["src"]
	}
	return el
}

var _ Page = (*Document)(nil)
