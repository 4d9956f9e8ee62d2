package extractor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const documentHTML = `<html><head>
<script>
window.__RUNTIME__ = {"route": {"product": {"productName": "Tenis"}}};
window.dataLayer = window.dataLayer || [];
dataLayer.push({"event": "pageView"});
dataLayer.push({"event": "productDetail", "ecommerce": {"detail": {"products": [{"price": 89.9}]}}});
</script>
</head><body>
<ul>
  <li class="item" data-sku="1">One</li>
  <li class="item" data-sku="2">Two <b>bold</b></li>
</ul>
<img class="photo" src="/a.jpg" alt="A">
<script>var ignored = "R$ 1,00";</script>
<button class="open">Open</button>
<div class="panel"></div>
</body></html>`

func TestDocument_Globals(t *testing.T) {
	ctx := context.Background()
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p")

	name, err := globalValue(ctx, doc, "__RUNTIME__", "route", "product", "productName")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if name != "Tenis" {
		t.Errorf("runtime productName = %v, want Tenis", name)
	}

	price, err := globalValue(ctx, doc, "dataLayer", 1, "ecommerce", "detail", "products", 0, "price")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if price != 89.9 {
		t.Errorf("dataLayer price = %v, want 89.9", price)
	}

	missing, err := doc.Global(ctx, "nope")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if missing.Val() != nil {
		t.Errorf("missing global = %v, want nil", missing.Val())
	}
}

func TestDocument_WithGlobalOverridesScripts(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p",
		WithGlobal("__RUNTIME__", map[string]any{"route": "replaced"}))

	v, err := globalValue(context.Background(), doc, "__RUNTIME__", "route")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if v != "replaced" {
		t.Errorf("route = %v, want replaced", v)
	}
}

func TestDocument_QueryOrderAndSnapshot(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p")

	els, err := doc.Query(context.Background(), "li.item, img.photo")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(els) != 3 {
		t.Fatalf("got %d elements, want 3", len(els))
	}
	if els[0].Attr("data-sku") != "1" || els[1].Attr("data-sku") != "2" {
		t.Errorf("elements out of document order: %+v", els)
	}
	if els[1].Text != "Two bold" {
		t.Errorf("text = %q, want %q", els[1].Text, "Two bold")
	}
	if els[1].HTML != "Two <b>bold</b>" {
		t.Errorf("html = %q", els[1].HTML)
	}
	if els[2].Src != "/a.jpg" {
		t.Errorf("img src = %q, want /a.jpg", els[2].Src)
	}
	if els[0].Src != "" {
		t.Errorf("li src = %q, want empty", els[0].Src)
	}
}

func TestDocument_InvalidSelector(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p")
	if _, err := doc.Query(context.Background(), "li[["); err == nil {
		t.Error("expected error for invalid selector")
	}
}

func TestDocument_LeafTextsSkipScripts(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p")

	texts, err := doc.LeafTexts(context.Background())
	if err != nil {
		t.Fatalf("LeafTexts: %v", err)
	}
	want := []string{"One", "bold", "Open"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("LeafTexts = %q, want %q", texts, want)
	}
}

func TestDocument_ClickRunsHandler(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p",
		OnClick(".open", func(root *goquery.Selection) {
			root.Find(".panel").SetHtml("<p>Shown</p>")
		}))
	ctx := context.Background()

	if err := doc.Click(ctx, "button.open"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	els, err := doc.Query(ctx, ".panel p")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(els) != 1 || els[0].Text != "Shown" {
		t.Errorf("panel after click = %+v", els)
	}
}

func TestDocument_ClickMissing(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p")
	err := doc.Click(context.Background(), ".absent")
	if !errors.Is(err, ErrNoElement) {
		t.Errorf("Click(.absent) error = %v, want ErrNoElement", err)
	}
}

func TestDocument_CanceledContext(t *testing.T) {
	doc := mustDocument(t, documentHTML, "https://shop.example.com/p")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := doc.URL(ctx); err == nil {
		t.Error("URL on canceled context should fail")
	}
	if _, err := doc.Query(ctx, "li"); err == nil {
		t.Error("Query on canceled context should fail")
	}
}
