package extractor

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const listingURL = "https://produto.mercadolivre.com.br/MLB-123456789-tenis-corrida-_JM"

func TestMarketplace_SplitPrice(t *testing.T) {
	html := `<html><body>
<h1 class="ui-pdp-title">Tenis Corrida</h1>
<div class="ui-pdp-price__second-line">
  <span class="andes-money-amount__fraction">1.299</span>
  <span class="andes-money-amount__cents">90</span>
</div>
</body></html>`
	doc := mustDocument(t, html, listingURL)

	rec, err := testEngine().Extract(context.Background(), doc, listingURL, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Price != "1299.90" {
		t.Errorf("price = %q, want 1299.90", rec.Price)
	}
	if rec.Title != "Tenis Corrida" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestMarketplace_FractionWithoutCents(t *testing.T) {
	html := `<div class="ui-pdp-price__second-line"><span class="andes-money-amount__fraction">2.450</span></div>`
	doc := mustDocument(t, html, listingURL)

	got, err := splitPrice(context.Background(), doc)
	if err != nil {
		t.Fatalf("splitPrice: %v", err)
	}
	if got != "2450" {
		t.Errorf("got %q, want 2450", got)
	}
}

func TestMarketplace_ScriptPictures(t *testing.T) {
	html := `<html><body>
<script type="application/json">{"pictures":[{"thumbnail":"t1"}],"gallery":[{"picture":"https:\/\/http2.mlstatic.com\/D_NQ_NP_111-MLB9_012024-F.jpg"},{"picture":"https://http2.mlstatic.com/D_NQ_NP_222-W.png"}]}</script>
<figure class="ui-pdp-gallery__figure"><img src="https://http2.mlstatic.com/fallback-I.jpg"></figure>
</body></html>`
	doc := mustDocument(t, html, listingURL)

	rec, err := testEngine().Extract(context.Background(), doc, listingURL, "marketplace")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{
		"https://http2.mlstatic.com/D_NQ_NP_111-MLB9_012024-O.jpg",
		"https://http2.mlstatic.com/D_NQ_NP_222-O.png",
	}
	if !reflect.DeepEqual(rec.Images, want) {
		t.Errorf("images = %v, want %v", rec.Images, want)
	}
}

func TestMarketplace_GalleryFallback(t *testing.T) {
	html := `<html><body>
<figure class="ui-pdp-gallery__figure"><img data-zoom="https://http2.mlstatic.com/a-F.jpg" src="https://http2.mlstatic.com/a-I.jpg"></figure>
<figure class="ui-pdp-gallery__figure"><img src="https://http2.mlstatic.com/a-I.jpg"></figure>
<figure class="ui-pdp-gallery__figure"><img src="data:image/png;base64,AAAA" data-src="/b.jpg"></figure>
</body></html>`
	doc := mustDocument(t, html, listingURL)

	got, err := galleryImages(context.Background(), doc, ".ui-pdp-gallery__figure img")
	if err != nil {
		t.Fatalf("galleryImages: %v", err)
	}
	want := []string{"https://http2.mlstatic.com/a-O.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("gallery = %v, want %v", got, want)
	}
}

func TestHighResolution(t *testing.T) {
	tests := map[string]string{
		"https://x/D_NQ_NP_1-I.jpg":   "https://x/D_NQ_NP_1-O.jpg",
		"https://x/D_NQ_NP_1-v.jpeg":  "https://x/D_NQ_NP_1-O.jpeg",
		"https://x/a-F.png?v=1":       "https://x/a-O.png?v=1",
		"https://x/a-F.webp":          "https://x/a-F.webp",
		"https://x/a-F.jpg/b-F.jpg":   "https://x/a-O.jpg/b-F.jpg",
	}
	for in, want := range tests {
		if got := highResolution(in); got != want {
			t.Errorf("highResolution(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMarketplace_LazyDescription(t *testing.T) {
	html := `<html><body>
<h1 class="ui-pdp-title">Tenis</h1>
<div class="ui-pdp-description"></div>
</body></html>`
	scrolled := false
	doc := mustDocument(t, html, listingURL,
		OnScrollIntoView(".ui-pdp-description", func(root *goquery.Selection) {
			scrolled = true
			root.Find(".ui-pdp-description").SetHtml(`<p class="ui-pdp-description__content">Comfortable running shoe</p>`)
		}))

	rec, err := testEngine().Extract(context.Background(), doc, listingURL, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !scrolled {
		t.Fatal("description section was not scrolled into view")
	}
	if rec.Description != "Comfortable running shoe" {
		t.Errorf("description = %q", rec.Description)
	}
	if !strings.Contains(rec.DescriptionHTML, "Comfortable running shoe") {
		t.Errorf("descriptionHtml = %q", rec.DescriptionHTML)
	}
}

func TestMarketplace_LazyDescriptionNeedsItemID(t *testing.T) {
	html := `<html><body><div class="ui-pdp-description"></div></body></html>`
	scrolled := false
	doc := mustDocument(t, html, "https://www.mercadolivre.com.br/ofertas",
		OnScrollIntoView(".ui-pdp-description", func(*goquery.Selection) { scrolled = true }))

	if _, err := testEngine().Extract(context.Background(), doc, "https://www.mercadolivre.com.br/ofertas", ""); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if scrolled {
		t.Error("scrolled without an item id")
	}
}

func TestMarketplace_LazyDescriptionSkippedWhenPresent(t *testing.T) {
	html := `<html><body>
<div class="ui-pdp-description"><p class="ui-pdp-description__content">Full description already rendered</p></div>
</body></html>`
	scrolled := false
	doc := mustDocument(t, html, listingURL,
		OnScrollIntoView(".ui-pdp-description", func(*goquery.Selection) { scrolled = true }))

	rec, err := testEngine().Extract(context.Background(), doc, listingURL, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if scrolled {
		t.Error("scrolled although description was present")
	}
	if rec.Description != "Full description already rendered" {
		t.Errorf("description = %q", rec.Description)
	}
}

func TestItemID(t *testing.T) {
	ctx := context.Background()
	script := mustDocument(t, `<script>{"item_id":"MLB77"}</script>`, "https://www.mercadolivre.com.br/x")
	empty := mustDocument(t, `<p>nothing</p>`, "https://www.mercadolivre.com.br/x")

	tests := []struct {
		name string
		page Page
		url  string
		want string
	}{
		{"listing url", empty, listingURL, "123456789"},
		{"catalog url", empty, "https://www.mercadolivre.com.br/tenis/p/MLB19384?pdp=1", "19384"},
		{"catalog path without prefix", empty, "https://www.mercadolivre.com.br/tenis/p/XYZ12", "XYZ12"},
		{"script", script, "https://www.mercadolivre.com.br/x", "MLB77"},
		{"none", empty, "https://www.mercadolivre.com.br/x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := itemID(ctx, tt.page, tt.url); got != tt.want {
				t.Errorf("itemID = %q, want %q", got, tt.want)
			}
		})
	}
}
