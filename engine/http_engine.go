package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/prodex/extractor"
	"github.com/use-agent/prodex/models"
	"golang.org/x/net/html"
)

// ErrNeedsBrowser is returned when the static HTML cannot yield a product:
// a script-rendered shell, or a page missing its title or price. The
// dispatcher treats it as a normal failure and lets the browser tier win.
var ErrNeedsBrowser = errors.New("page needs a browser")

// HTTPEngine loads pages over plain HTTP with a Chrome TLS fingerprint and
// extracts from the static markup. No script runs, so description tabs and
// lazy sections stay unrevealed.
type HTTPEngine struct {
	client    *http.Client
	extractor *extractor.Engine
	userAgent string
	timeout   time.Duration
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls conn.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine. timeout bounds each fetch on top of
// the request's own deadline; zero leaves only the request deadline.
func NewHTTPEngine(ext *extractor.Engine, userAgent string, timeout time.Duration) *HTTPEngine {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return newHTTPEngine(&http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}, ext, userAgent, timeout)
}

func newHTTPEngine(client *http.Client, ext *extractor.Engine, userAgent string, timeout time.Duration) *HTTPEngine {
	if ext == nil {
		ext = extractor.New(extractor.Options{})
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	}
	return &HTTPEngine{client: client, extractor: ext, userAgent: userAgent, timeout: timeout}
}

func (e *HTTPEngine) Name() string { return NameHTTP }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	navStart := time.Now()
	body, status, finalURL, err := e.get(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "http fetch timed out", err)
		}
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "http fetch failed", err)
	}
	navTime := time.Since(navStart)

	extStart := time.Now()
	res, err := e.extract(ctx, body, req, finalURL)
	if err != nil {
		return nil, err
	}
	res.StatusCode = status
	res.NavigationTime = navTime
	res.ExtractionTime = time.Since(extStart)
	return res, nil
}

func (e *HTTPEngine) get(ctx context.Context, rawURL string) ([]byte, int, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("http_engine: build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	httpReq.Header.Set("Accept-Encoding", "identity")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, 0, "", fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, 0, "", fmt.Errorf("http_engine: read body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, resp.StatusCode, "", fmt.Errorf("http_engine: non-html or error status %d (content-type: %s)", resp.StatusCode, ct)
	}
	return body, resp.StatusCode, resp.Request.URL.String(), nil
}

// extract runs the extractor over a fetched body. Only a record with both
// a title and a price is accepted.
func (e *HTTPEngine) extract(ctx context.Context, body []byte, req *FetchRequest, finalURL string) (*FetchResult, error) {
	if needsBrowser(body) {
		return nil, fmt.Errorf("http_engine: script-rendered shell at %s: %w", finalURL, ErrNeedsBrowser)
	}
	doc, err := extractor.NewDocument(string(body), finalURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "http body is not parseable html", err)
	}
	rec, err := e.extractor.Extract(ctx, doc, req.URL, req.StoreType)
	if err != nil {
		return nil, err
	}
	if rec.Title == "" || rec.Price == "" {
		return nil, fmt.Errorf("http_engine: static html has no title or price at %s: %w", finalURL, ErrNeedsBrowser)
	}
	return &FetchResult{
		Record:     rec,
		Strategy:   e.extractor.Choose(req.StoreType, req.URL, finalURL).Name(),
		FinalURL:   finalURL,
		EngineName: NameHTTP,
	}, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

var (
	reNoscript  = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|ative|habilite|turn on|requires?)\s+(o\s+)?javascript`)
	reEmptyRoot = regexp.MustCompile(`<div id="(root|app|__next|render-store\.[\w.-]*)">\s*</div>`)
)

// needsBrowser reports whether the body looks like a shell that scripts
// fill in after load.
func needsBrowser(body []byte) bool {
	text := visibleText(body)
	if len(text) < 200 {
		return true
	}
	lower := strings.ToLower(string(body))
	if reEmptyRoot.MatchString(lower) || reNoscript.MatchString(lower) {
		return true
	}
	return strings.Count(lower, "<script") > 10 && len(text) < 500
}

// visibleText is the text under <body>, outside script, style and noscript.
func visibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(buf.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skip++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if inBody && skip == 0 {
				if t := strings.TrimSpace(string(tokenizer.Text())); t != "" {
					buf.WriteString(t)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
