package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// textProbes reads the trimmed text of the first element matching each
// selector, one probe per selector.
func textProbes(selectors ...string) []Probe[string] {
	probes := make([]Probe[string], 0, len(selectors))
	for _, sel := range selectors {
		probes = append(probes, Probe[string]{
			Name: "text:" + sel,
			Run: func(ctx context.Context, p Page) (string, error) {
				el, ok, err := first(ctx, p, sel)
				if !ok {
					return "", err
				}
				return strings.TrimSpace(el.Text), nil
			},
		})
	}
	return probes
}

// htmlProbes reads the inner HTML of the first element matching each
// selector whose text is not blank.
func htmlProbes(selectors ...string) []Probe[string] {
	probes := make([]Probe[string], 0, len(selectors))
	for _, sel := range selectors {
		probes = append(probes, Probe[string]{
			Name: "html:" + sel,
			Run: func(ctx context.Context, p Page) (string, error) {
				el, ok, err := first(ctx, p, sel)
				if !ok || strings.TrimSpace(el.Text) == "" {
					return "", err
				}
				return strings.TrimSpace(el.HTML), nil
			},
		})
	}
	return probes
}

// sectionProbes reads text and markup of the first element matching each
// selector together.
func sectionProbes(selectors ...string) []Probe[section] {
	probes := make([]Probe[section], 0, len(selectors))
	for _, sel := range selectors {
		probes = append(probes, Probe[section]{
			Name: "section:" + sel,
			Run: func(ctx context.Context, p Page) (section, error) {
				el, ok, err := first(ctx, p, sel)
				if !ok {
					return section{}, err
				}
				return section{Text: strings.TrimSpace(el.Text), HTML: strings.TrimSpace(el.HTML)}, nil
			},
		})
	}
	return probes
}

// imageProbes collects image references from every element matching each
// selector. The first selector producing at least one reference wins.
func imageProbes(selectors ...string) []Probe[[]string] {
	probes := make([]Probe[[]string], 0, len(selectors))
	for _, sel := range selectors {
		probes = append(probes, Probe[[]string]{
			Name: "images:" + sel,
			Run: func(ctx context.Context, p Page) ([]string, error) {
				els, err := p.Query(ctx, sel)
				if err != nil {
					return nil, err
				}
				var refs []string
				for _, el := range els {
					ref := imageRef(el)
					if ref == "" || strings.Contains(ref, "data:image") {
						continue
					}
					refs = append(refs, ref)
				}
				return refs, nil
			},
		})
	}
	return probes
}

func imageRef(el Element) string {
	for _, v := range []string{el.Src, el.Attr("data-src"), el.Attr("data-lazy-src"), el.Attr("data-original")} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// attrPriceProbe reads price attributes: data-price, then the content
// attribute, then the element text.
func attrPriceProbe() Probe[string] {
	const sel = `[data-price], [itemprop="price"]`
	return Probe[string]{
		Name: "attr:price",
		Run: func(ctx context.Context, p Page) (string, error) {
			els, err := p.Query(ctx, sel)
			if err != nil {
				return "", err
			}
			for _, el := range els {
				for _, v := range []string{el.Attr("data-price"), el.Attr("content"), el.Text} {
					if v = strings.TrimSpace(v); v != "" {
						return v, nil
					}
				}
			}
			return "", nil
		},
	}
}

// currencyRe matches a currency-prefixed amount in visible text.
var currencyRe = regexp.MustCompile(`(?i)(?:R\$|US\$|\$|€|£)\s*\d+[.,]?\d*`)

// leafPriceProbe scans leaf texts for a currency-prefixed amount and returns
// the text from the currency symbol on.
func leafPriceProbe() Probe[string] {
	return Probe[string]{
		Name: "leaf:currency",
		Run: func(ctx context.Context, p Page) (string, error) {
			texts, err := p.LeafTexts(ctx)
			if err != nil {
				return "", err
			}
			for _, t := range texts {
				if loc := currencyRe.FindStringIndex(t); loc != nil {
					return t[loc[0]:], nil
				}
			}
			return "", nil
		},
	}
}

// globalValue reads window[name] and walks path through it.
func globalValue(ctx context.Context, p Page, name string, path ...any) (any, error) {
	j, err := p.Global(ctx, name)
	if err != nil {
		return nil, err
	}
	return dig(j.Val(), path...), nil
}

// dig walks maps by string key and slices by int index. It returns nil
// when any step is missing.
func dig(v any, path ...any) any {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[key]
		case int:
			s, ok := v.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil
			}
			v = s[key]
		default:
			return nil
		}
	}
	return v
}

// scalar renders a JSON leaf as a string. Zero numbers and non-scalars
// render as "".
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	}
	return ""
}

// stripTags returns the text content of an HTML fragment.
func stripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

func first(ctx context.Context, p Page, selector string) (Element, bool, error) {
	els, err := p.Query(ctx, selector)
	if err != nil || len(els) == 0 {
		return Element{}, false, err
	}
	return els[0], true, nil
}

var (
	tabHeadingRe = regexp.MustCompile(`(?i)descri[çc][ãa]o|detalhes|sobre|description`)

	tabContainers = ".tab-content, .product-tabs, .product-details"
	tabPanes      = ".tab, .tab-pane, .panel"
	tabHeadings   = "h2, h3, .title, .tab-title"
	tabContents   = ".content, .tab-content, .panel-content"
)

// tabDescription finds a tab pane whose heading names the description and
// returns its content.
func tabDescription(ctx context.Context, p Page) (section, error) {
	containers, err := p.Query(ctx, tabContainers)
	if err != nil {
		return section{}, err
	}
	for _, c := range containers {
		frag, err := goquery.NewDocumentFromReader(strings.NewReader(c.HTML))
		if err != nil {
			continue
		}
		var found section
		frag.Find(tabPanes).EachWithBreak(func(_ int, pane *goquery.Selection) bool {
			heading := pane.Find(tabHeadings).First()
			if heading.Length() == 0 || !tabHeadingRe.MatchString(heading.Text()) {
				return true
			}
			content := pane.Find(tabContents).First()
			if content.Length() == 0 {
				return true
			}
			inner, _ := content.Html()
			found = section{Text: strings.TrimSpace(content.Text()), HTML: strings.TrimSpace(inner)}
			return found.IsEmpty()
		})
		if !found.IsEmpty() {
			return found, nil
		}
	}
	return section{}, nil
}

// textOf and htmlOf project a section probe onto one of its halves.
func textOf(probes ...Probe[section]) []Probe[string] {
	return project(probes, func(s section) string { return s.Text })
}

func htmlOf(probes ...Probe[section]) []Probe[string] {
	return project(probes, func(s section) string {
		if s.IsEmpty() {
			return ""
		}
		return s.HTML
	})
}

func project(probes []Probe[section], pick func(section) string) []Probe[string] {
	out := make([]Probe[string], 0, len(probes))
	for _, pr := range probes {
		out = append(out, Probe[string]{
			Name: pr.Name,
			Run: func(ctx context.Context, p Page) (string, error) {
				s, err := pr.Run(ctx, p)
				if err != nil {
					return "", err
				}
				return pick(s), nil
			},
		})
	}
	return out
}
