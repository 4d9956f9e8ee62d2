package extractor

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

var marketplaceStrategy = Strategy{
	platform:        PlatformMarketplace,
	price:           NewCascade("price", KindText, marketplacePriceProbes()...),
	title:           NewCascade("title", KindText, textProbes(marketplaceTitleSelectors...)...),
	description:     NewCascade("description", KindText, textProbes(marketplaceDescriptionSelectors...)...),
	descriptionHTML: NewCascade("descriptionHtml", KindHTML, htmlProbes(marketplaceDescriptionSelectors...)...),
	images:          NewCascade("images", KindImages, marketplaceImageProbes()...),
	followUps:       []followUp{loadLazyDescription},
}

var (
	marketplaceTitleSelectors = []string{
		".ui-pdp-title",
		".item-title h1",
		".item-title",
		"h1.ui-pdp-title",
	}
	marketplacePriceSelectors = []string{
		".ui-pdp-price__second-line .andes-money-amount__fraction",
		".price-tag-fraction",
		".ui-pdp-price__part .andes-money-amount__fraction",
		".ui-pdp-container .andes-money-amount__fraction",
	}
	marketplaceDescriptionSelectors = []string{
		".ui-pdp-description__content",
		".item-description .content",
		"#description .content",
		".description-content",
	}
	marketplaceGallerySelectors = []string{
		".ui-pdp-gallery__figure img",
		".ui-pdp-image",
		".ui-pdp-thumbnail__image",
		".slick-slide img",
	}
)

const (
	fractionSelector = ".ui-pdp-price__second-line .andes-money-amount__fraction"
	centsSelector    = ".ui-pdp-price__second-line .andes-money-amount__cents"
)

func marketplacePriceProbes() []Probe[string] {
	probes := []Probe[string]{{Name: "price:fraction+cents", Run: splitPrice}}
	return append(probes, textProbes(marketplacePriceSelectors...)...)
}

// splitPrice joins the integer and cents parts the listing renders in
// separate elements. Thousands dots in the integer part are dropped.
func splitPrice(ctx context.Context, p Page) (string, error) {
	frac, ok, err := first(ctx, p, fractionSelector)
	if !ok {
		return "", err
	}
	whole := strings.ReplaceAll(strings.TrimSpace(frac.Text), ".", "")
	if whole == "" {
		return "", nil
	}
	cents, ok, err := first(ctx, p, centsSelector)
	if err != nil {
		return "", err
	}
	if ok {
		if c := strings.TrimSpace(cents.Text); c != "" {
			return whole + "," + c, nil
		}
	}
	return whole, nil
}

func marketplaceImageProbes() []Probe[[]string] {
	probes := []Probe[[]string]{{Name: "script:pictures", Run: scriptPictures}}
	for _, sel := range marketplaceGallerySelectors {
		probes = append(probes, Probe[[]string]{
			Name: "gallery:" + sel,
			Run: func(ctx context.Context, p Page) ([]string, error) {
				return galleryImages(ctx, p, sel)
			},
		})
	}
	return probes
}

var (
	pictureRe  = regexp.MustCompile(`"picture"\s*:\s*"([^"]+)"`)
	sizeCodeRe = regexp.MustCompile(`(?i)-[A-Z]\.(jpg|png|jpeg)`)
)

// scriptPictures reads picture URLs from the inline state script that
// carries the gallery.
func scriptPictures(ctx context.Context, p Page) ([]string, error) {
	scripts, err := p.Query(ctx, "script")
	if err != nil {
		return nil, err
	}
	for _, s := range scripts {
		if !strings.Contains(s.Text, `"thumbnail":`) {
			continue
		}
		var refs []string
		for _, m := range pictureRe.FindAllStringSubmatch(s.Text, -1) {
			ref := strings.ReplaceAll(m[1], `\/`, "/")
			refs = append(refs, highResolution(ref))
		}
		if len(refs) > 0 {
			return refs, nil
		}
	}
	return nil, nil
}

func galleryImages(ctx context.Context, p Page, selector string) ([]string, error) {
	els, err := p.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var refs []string
	for _, el := range els {
		ref := ""
		for _, v := range []string{el.Attr("data-zoom"), el.Attr("src"), el.Attr("data-src")} {
			if v = strings.TrimSpace(v); v != "" {
				ref = v
				break
			}
		}
		if ref == "" || strings.Contains(ref, "data:image") {
			continue
		}
		ref = highResolution(ref)
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

// highResolution rewrites the first size code suffix (-I.jpg, -W.png, ...)
// to the original-size variant.
func highResolution(ref string) string {
	loc := sizeCodeRe.FindStringSubmatchIndex(ref)
	if loc == nil {
		return ref
	}
	return ref[:loc[0]] + "-O." + ref[loc[2]:loc[3]] + ref[loc[1]:]
}

var (
	itemIDURLRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)MLB-?(\d+)`),
		regexp.MustCompile(`/p/([^?/]+)`),
	}
	itemIDScriptRe = regexp.MustCompile(`"item_id"\s*:\s*"([^"]+)"`)

	lazyDescriptionSection = ".ui-pdp-description"
	lazyDescriptionContent = NewCascade("description", KindHTML, sectionProbes(".ui-pdp-description__content")...)
)

// minDescriptionLen is the length below which a listing description is
// treated as a placeholder.
const minDescriptionLen = 10

// loadLazyDescription loads the description block, which listings render
// only once it scrolls into view.
func loadLazyDescription(ctx context.Context, e *Engine, p Page, sourceURL string, f *fields, log *slog.Logger) {
	if len([]rune(strings.TrimSpace(f.description))) >= minDescriptionLen {
		return
	}
	id := itemID(ctx, p, sourceURL)
	if id == "" {
		log.Debug("no item id, skipping lazy description")
		return
	}
	log.Debug("loading lazy description", "item_id", id)

	if err := p.ScrollIntoView(ctx, lazyDescriptionSection); err != nil {
		log.Debug("description section scroll failed", "error", err)
	}
	var found section
	waitFor(ctx, e.lazyDescriptionWait, e.pollInterval, func() bool {
		found = lazyDescriptionContent.Run(ctx, p, log)
		return !found.IsEmpty()
	})
	if found.IsEmpty() {
		return
	}
	f.description = found.Text
	f.descriptionHTML = found.HTML
}

func itemID(ctx context.Context, p Page, sourceURL string) string {
	for _, re := range itemIDURLRes {
		if m := re.FindStringSubmatch(sourceURL); m != nil {
			return m[1]
		}
	}
	scripts, err := p.Query(ctx, "script")
	if err != nil {
		return ""
	}
	for _, s := range scripts {
		if m := itemIDScriptRe.FindStringSubmatch(s.Text); m != nil {
			return m[1]
		}
	}
	return ""
}
