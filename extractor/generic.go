package extractor

var genericStrategy = Strategy{
	platform:        PlatformGeneric,
	price:           NewCascade("price", KindText, genericPriceProbes()...),
	title:           NewCascade("title", KindText, textProbes(genericTitleSelectors...)...),
	description:     NewCascade("description", KindText, textProbes(genericDescriptionSelectors...)...),
	descriptionHTML: NewCascade("descriptionHtml", KindHTML, htmlProbes(genericDescriptionSelectors...)...),
	images:          NewCascade("images", KindImages, imageProbes(genericImageSelectors...)...),
}

// Selector lists cover common themes and store builders (Shopify, Magento,
// WooCommerce, Nuvemshop and the like). Order is priority.
var (
	genericTitleSelectors = []string{
		"h1",
		"h1.product-name",
		".product-title",
		".product-name",
		`[itemprop="name"]`,
		".product__title",
		".product-single__title",
		".product-info h1",
		".product-detail h1",
		".product-essential h1",
	}

	genericPriceSelectors = []string{
		".product-price .price",
		".product-price .current-price",
		".product-price .sale-price",
		".price-box .price",
		".price-box .special-price",
		".product__price",
		".product-single__price",
		"[data-price]",
		`[itemprop="price"]`,
		"[data-product-price]",
		".price",
		".product-info .price",
		".product-essential .price",
		".product-price",
		".regular-price",
		".special-price",
	}

	genericDescriptionSelectors = []string{
		".product-description",
		".product__description",
		`[itemprop="description"]`,
		".description",
		"#description",
		".product-details",
		".product-info-main .description",
		".product-info-main .value",
		".product-info .description",
		".product-essential .description",
		".tab-content",
		".product-info",
		".product-details-wrapper",
	}

	genericImageSelectors = []string{
		".product-image img",
		".product-gallery img",
		".product__image img",
		`[itemprop="image"]`,
		".product-image-gallery img",
		".product-images img",
		".swiper-slide img",
		".gallery-image",
		".product-image",
		".product-photo-img",
		".slick-slide img",
		".carousel-item img",
	}
)

func genericPriceProbes() []Probe[string] {
	return append(textProbes(genericPriceSelectors...), attrPriceProbe(), leafPriceProbe())
}
