package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/prodex/extractor"
	"github.com/use-agent/prodex/models"
)

const productPage = `<html><head><title>Cadeira</title></head><body>
<div class="product-info">
  <h1 class="product-title">Cadeira de Escritorio Ergonomica</h1>
  <div class="price-box"><span class="price">R$ 1.299,90</span></div>
  <div class="product-description"><p>Cadeira com apoio lombar ajustavel, bracos 3D,
  base cromada e rodizios em nylon. Suporta ate 120 kg. Garantia de 12 meses contra
  defeitos de fabricacao. Acompanha manual de montagem e todas as ferragens.</p>
  <p>Dimensoes: 65 x 60 x 120 cm. Revestimento em tela mesh respiravel e espuma injetada de alta densidade.</p></div>
</div>
<div class="product-gallery"><img src="/img/cadeira.jpg"></div>
</body></html>`

func testHTTPEngine(client *http.Client) *HTTPEngine {
	ext := extractor.New(extractor.Options{
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		RevealWait:          10 * time.Millisecond,
		LazyDescriptionWait: 10 * time.Millisecond,
		PollInterval:        time.Millisecond,
	})
	return newHTTPEngine(client, ext, "", 5*time.Second)
}

func TestHTTPEngine_Fetch(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, productPage)
	}))
	defer srv.Close()

	res, err := testHTTPEngine(srv.Client()).Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/cadeira"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.EngineName != NameHTTP || res.Strategy != "generic" || res.StatusCode != http.StatusOK {
		t.Errorf("result meta = %q/%q/%d", res.EngineName, res.Strategy, res.StatusCode)
	}
	if res.Record.Title != "Cadeira de Escritorio Ergonomica" {
		t.Errorf("title = %q", res.Record.Title)
	}
	if res.Record.Price != "1299.90" {
		t.Errorf("price = %q, want 1299.90", res.Record.Price)
	}
	if len(res.Record.Images) != 1 || res.Record.Images[0] != srv.URL+"/img/cadeira.jpg" {
		t.Errorf("images = %v", res.Record.Images)
	}
	if !strings.Contains(gotUA, "Chrome") || !strings.HasPrefix(gotLang, "pt-BR") {
		t.Errorf("headers: UA %q, Accept-Language %q", gotUA, gotLang)
	}
}

func TestHTTPEngine_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantBrowser bool
		wantCode    string
	}{
		{"spa shell", 200, "text/html", `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`, true, ""},
		{"no price", 200, "text/html", strings.Replace(productPage, "R$ 1.299,90", "Consulte", 1), true, ""},
		{"not found", 404, "text/html", productPage, false, models.ErrCodeNavigation},
		{"json", 200, "application/json", `{"ok":true}`, false, models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := testHTTPEngine(srv.Client()).Fetch(context.Background(), &FetchRequest{URL: srv.URL})
			if err == nil {
				t.Fatal("Fetch succeeded, want error")
			}
			if tt.wantBrowser && !errors.Is(err, ErrNeedsBrowser) {
				t.Errorf("err = %v, want ErrNeedsBrowser", err)
			}
			if tt.wantCode != "" {
				if got := models.CodeOf(err); got != tt.wantCode {
					t.Errorf("err = %v, want code %s", err, tt.wantCode)
				}
			}
		})
	}
}

func TestNeedsBrowser(t *testing.T) {
	long := strings.Repeat("texto visivel do produto ", 30)
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"little text", `<html><body><p>Oi</p></body></html>`, true},
		{"rendered page", `<html><body><p>` + long + `</p></body></html>`, false},
		{"empty next root", `<html><body><div id="__next"></div><p>` + long + `</p></body></html>`, true},
		{"noscript warning", `<html><body><noscript>Please enable JavaScript</noscript><p>` + long + `</p></body></html>`, true},
		{"text inside script ignored", `<html><body><script>var x = "` + long + `";</script></body></html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsBrowser([]byte(tt.body)); got != tt.want {
				t.Errorf("needsBrowser = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHTMLContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"TEXT/HTML", true},
		{"application/json", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ct, func(t *testing.T) {
			if got := isHTMLContentType(tt.ct); got != tt.want {
				t.Errorf("isHTMLContentType(%q) = %v, want %v", tt.ct, got, tt.want)
			}
		})
	}
}
