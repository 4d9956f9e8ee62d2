package extractor

import (
	"context"
	"strings"
)

var vtexStrategy = Strategy{
	platform:        PlatformVTEX,
	price:           NewCascade("price", KindText, vtexPriceProbes()...),
	title:           NewCascade("title", KindText, textProbes(genericTitleSelectors[:7]...)...),
	description:     NewCascade("description", KindText, textOf(vtexDescriptionProbes()...)...),
	descriptionHTML: NewCascade("descriptionHtml", KindHTML, htmlOf(vtexDescriptionProbes()...)...),
	images:          NewCascade("images", KindImages, imageProbes(genericImageSelectors[:7]...)...),
}

var vtexPriceSelectors = []string{
	".vtex-product-price-1-x-sellingPrice .vtex-product-price-1-x-currencyContainer",
	".vtex-product-price-1-x-sellingPriceValue",
	".vtex-store-components-3-x-price_sellingPrice",
	".vtex-product-price-1-x-sellingPrice",
	".price-best-price",
	".skuBestPrice",
	"#product-price .skuBestPrice",
	".productPrice .skuBestPrice",
	".valor-por .skuPrice",
	".preco-a-vista .skuPrice",
}

// vtexFallbackPriceSelectors is the price list of the combined field pass,
// used when the dedicated price probes come up empty.
var vtexFallbackPriceSelectors = []string{
	".product-price .best-price",
	".product-price .price",
	".price-box .price",
	".product__price",
	"[data-price]",
	`[itemprop="price"]`,
	".price",
}

var vtexDescriptionSelectors = append(genericDescriptionSelectors[:6:6],
	".vtex-store-components-3-x-productDescriptionText",
	".vtex-store-components-3-x-productDescription",
	".vtex-product-description-0-x-container",
	".vtex-product-description-0-x-content",
	".vtex-product-description-0-x-text",
	".vtex-product-summary-2-x-description",
	".productDescription",
	".product-specification",
	".product-specification-content",
	".product-details-content",
	".tab-content",
	".product-info",
	".product-details-wrapper",
)

func vtexPriceProbes() []Probe[string] {
	probes := []Probe[string]{
		{Name: "runtime:price", Run: vtexRuntimePrice},
		{Name: "dataLayer:price", Run: dataLayerPrice},
	}
	probes = append(probes, textProbes(vtexPriceSelectors...)...)
	probes = append(probes, attrPriceProbe(), leafPriceProbe())
	return append(probes, textProbes(vtexFallbackPriceSelectors...)...)
}

func vtexDescriptionProbes() []Probe[section] {
	probes := []Probe[section]{
		{Name: "runtime:description", Run: vtexRuntimeDescription},
		{Name: "dataLayer:description", Run: dataLayerDescription},
		{Name: "attr:description", Run: attrDescription},
		{Name: "tabs:description", Run: tabDescription},
	}
	return append(probes, sectionProbes(vtexDescriptionSelectors...)...)
}

// vtexRuntimePrice reads the first seller's offer from the render runtime.
func vtexRuntimePrice(ctx context.Context, p Page) (string, error) {
	v, err := globalValue(ctx, p, "__RUNTIME__",
		"route", "product", "items", 0, "sellers", 0, "commertialOffer", "Price")
	if err != nil {
		return "", err
	}
	return scalar(v), nil
}

func vtexRuntimeDescription(ctx context.Context, p Page) (section, error) {
	v, err := globalValue(ctx, p, "__RUNTIME__", "route", "product", "description")
	if err != nil {
		return section{}, err
	}
	return markupSection(scalar(v)), nil
}

var (
	dataLayerPriceEvents       = []string{"productView", "productDetail", "productImpression"}
	dataLayerDescriptionEvents = []string{"productView", "productDetail"}
)

// dataLayerPrice reads the product price pushed for analytics.
func dataLayerPrice(ctx context.Context, p Page) (string, error) {
	entry, err := dataLayerEntry(ctx, p, dataLayerPriceEvents)
	if err != nil || entry == nil {
		return "", err
	}
	if v := scalar(dig(entry, "ecommerce", "detail", "products", 0, "price")); v != "" {
		return v, nil
	}
	return scalar(dig(entry, "ecommerce", "impressions", 0, "price")), nil
}

func dataLayerDescription(ctx context.Context, p Page) (section, error) {
	entry, err := dataLayerEntry(ctx, p, dataLayerDescriptionEvents)
	if err != nil || entry == nil {
		return section{}, err
	}
	return markupSection(scalar(dig(entry, "ecommerce", "detail", "products", 0, "description"))), nil
}

// dataLayerEntry returns the first dataLayer entry whose event is one of
// events.
func dataLayerEntry(ctx context.Context, p Page, events []string) (any, error) {
	v, err := globalValue(ctx, p, "dataLayer")
	if err != nil {
		return nil, err
	}
	entries, _ := v.([]any)
	for _, entry := range entries {
		event, _ := dig(entry, "event").(string)
		for _, want := range events {
			if event == want {
				return entry, nil
			}
		}
	}
	return nil, nil
}

// attrDescription reads elements that declare themselves as the
// description through attributes.
func attrDescription(ctx context.Context, p Page) (section, error) {
	els, err := p.Query(ctx, `[data-specification="description"], [data-attribute="description"], [itemprop="description"]`)
	if err != nil {
		return section{}, err
	}
	for _, el := range els {
		s := section{Text: strings.TrimSpace(el.Text), HTML: strings.TrimSpace(el.HTML)}
		if s.Text == "" {
			s.Text = strings.TrimSpace(el.Attr("content"))
		}
		if !s.IsEmpty() {
			return s, nil
		}
	}
	return section{}, nil
}

// markupSection pairs a possibly-HTML description with its plain text.
func markupSection(desc string) section {
	if desc == "" {
		return section{}
	}
	return section{Text: stripTags(desc), HTML: desc}
}
