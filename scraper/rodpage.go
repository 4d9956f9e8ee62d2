package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/prodex/extractor"
	"github.com/ysmood/gson"
)

// RodPage exposes a navigated rod page to the extractor. Every call binds
// its own context to the page, so one RodPage can serve a whole extraction.
type RodPage struct {
	page          *rod.Page
	actionTimeout time.Duration
}

// NewRodPage wraps page. actionTimeout bounds each Click and ScrollIntoView.
func NewRodPage(page *rod.Page, actionTimeout time.Duration) *RodPage {
	if actionTimeout <= 0 {
		actionTimeout = 10 * time.Second
	}
	return &RodPage{page: page, actionTimeout: actionTimeout}
}

const globalJS = `(name) => {
	const v = window[name];
	if (v === undefined || v === null) return null;
	try { return JSON.parse(JSON.stringify(v)); } catch (e) { return null; }
}`

// Global implements extractor.Page. Values that cannot be serialized
// (cycles, functions) read as null.
func (r *RodPage) Global(ctx context.Context, name string) (gson.JSON, error) {
	res, err := r.page.Context(ctx).Eval(globalJS, name)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

const queryJS = `(sel) => Array.from(document.querySelectorAll(sel)).map((el) => {
	const attrs = {};
	for (const a of el.attributes) attrs[a.name] = a.value;
	return {
		text: el.textContent || '',
		html: el.innerHTML || '',
		src: typeof el.src === 'string' ? el.src : '',
		attrs: attrs,
	};
})`

type elementSnapshot struct {
	Text  string            `json:"text"`
	HTML  string            `json:"html"`
	Src   string            `json:"src"`
	Attrs map[string]string `json:"attrs"`
}

// Query implements extractor.Page.
func (r *RodPage) Query(ctx context.Context, selector string) ([]extractor.Element, error) {
	res, err := r.page.Context(ctx).Eval(queryJS, selector)
	if err != nil {
		return nil, err
	}
	var snaps []elementSnapshot
	if err := decodeValue(res.Value, &snaps); err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}
	out := make([]extractor.Element, len(snaps))
	for i, s := range snaps {
		out[i] = extractor.Element{Text: s.Text, HTML: s.HTML, Src: s.Src, Attrs: s.Attrs}
	}
	return out, nil
}

const leafTextsJS = `() => {
	const out = [];
	for (const el of document.querySelectorAll('body *')) {
		if (el.children.length !== 0) continue;
		if (['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE'].includes(el.tagName)) continue;
		const t = (el.textContent || '').trim();
		if (t) out.push(t);
	}
	return out;
}`

// LeafTexts implements extractor.Page.
func (r *RodPage) LeafTexts(ctx context.Context) ([]string, error) {
	res, err := r.page.Context(ctx).Eval(leafTextsJS)
	if err != nil {
		return nil, err
	}
	var texts []string
	if err := decodeValue(res.Value, &texts); err != nil {
		return nil, fmt.Errorf("decode leaf texts: %w", err)
	}
	return texts, nil
}

// Click implements extractor.Page.
func (r *RodPage) Click(ctx context.Context, selector string) error {
	return r.withElement(ctx, selector, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// ScrollIntoView implements extractor.Page.
func (r *RodPage) ScrollIntoView(ctx context.Context, selector string) error {
	return r.withElement(ctx, selector, func(el *rod.Element) error {
		return el.ScrollIntoView()
	})
}

// URL implements extractor.Page.
func (r *RodPage) URL(ctx context.Context) (string, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// withElement runs fn on the first match of selector under the action
// timeout. A missing element is an error rather than a wait.
func (r *RodPage) withElement(ctx context.Context, selector string, fn func(*rod.Element) error) error {
	actionCtx, cancel := context.WithTimeout(ctx, r.actionTimeout)
	defer cancel()

	has, el, err := r.page.Context(actionCtx).Has(selector)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: %q", extractor.ErrNoElement, selector)
	}
	return fn(el)
}

func decodeValue(v gson.JSON, dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

var _ extractor.Page = (*RodPage)(nil)
