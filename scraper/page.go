package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/prodex/engine"
	"github.com/use-agent/prodex/models"
	"github.com/ysmood/gson"
)

// DoExtract loads req.URL with the requested fetch mode and extracts the
// product.
//
// "browser" goes straight to a pooled tab. "http" and "auto" go through the
// dispatcher when one is set, and fall back to the browser otherwise.
func (s *Scraper) DoExtract(ctx context.Context, req *models.ExtractRequest) (*Result, error) {
	r := *req
	if r.StoreType == "" {
		r.StoreType = s.extractCfg.DefaultStoreType
	}

	timeout := s.timeoutFor(&r)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.FetchMode == models.FetchModeBrowser || r.FetchMode == "" || s.dispatcher == nil {
		if r.FetchMode != models.FetchModeBrowser && r.FetchMode != "" {
			slog.Debug("multi-engine disabled, using browser", "url", r.URL, "fetch_mode", r.FetchMode)
		}
		return s.doExtractRod(ctx, &r)
	}

	fr := &engine.FetchRequest{
		URL:       r.URL,
		StoreType: r.StoreType,
		Timeout:   timeout,
		Stealth:   r.Stealth,
		BlockAds:  r.BlockAds,
	}
	var (
		res *engine.FetchResult
		err error
	)
	if r.FetchMode == models.FetchModeHTTP {
		res, err = s.dispatcher.Use(ctx, engine.NameHTTP, fr)
	} else {
		res, err = s.dispatcher.Dispatch(ctx, fr)
	}
	if err != nil {
		return nil, err
	}
	return fromFetch(res), nil
}

// FetchRod serves the dispatcher's browser tier. It never re-enters the
// dispatcher.
func (s *Scraper) FetchRod(ctx context.Context, fr *engine.FetchRequest) (*engine.FetchResult, error) {
	req := &models.ExtractRequest{
		URL:       fr.URL,
		StoreType: fr.StoreType,
		FetchMode: models.FetchModeBrowser,
		Stealth:   fr.Stealth,
		BlockAds:  fr.BlockAds,
	}
	res, err := s.doExtractRod(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.toFetch(), nil
}

func (s *Scraper) timeoutFor(req *models.ExtractRequest) time.Duration {
	timeout := time.Duration(req.Timeout) * time.Second
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if s.scraperCfg.MaxTimeout > 0 && timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	return timeout
}

// doExtractRod runs one extraction in a pooled tab.
//
//  1. Acquire a tab (the caller's ctx carries the deadline)
//  2. DEFER: about:blank + return to pool, or close it when it is worn out
//  3. Stealth script and resource blocking, both before navigation
//  4. Navigate, then wait for the DOM to settle
//  5. Extract against the live page
//
// The deferred cleanup uses the page without the request context so it
// still runs after the deadline has passed.
func (s *Scraper) doExtractRod(ctx context.Context, req *models.ExtractRequest) (_ *Result, err error) {
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, getErr := s.pagePool.Get(s.newPage)
	if getErr != nil {
		s.pagePool.Put(nil)
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", getErr)
	}
	defer func() {
		if s.tabs.record(page, err == nil) {
			slog.Info("retiring tab", "last_error", err)
			_ = page.Close()
			s.pagePool.Put(nil)
			return
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	if req.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if u, err := url.Parse(req.URL); err == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	if router := mountBlocker(page, newBlocker(s.scraperCfg.BlockedResourceTypes, req.BlockAds)); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	navStart := time.Now()
	if err := p.Timeout(s.scraperCfg.NavigationTimeout).Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	// WaitRequestIdle conflicts with request hijacking, so settle on the DOM.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "page did not settle before the deadline")
		}
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	if req.RemoveOverlays {
		removeOverlays(p)
	}
	navTime := time.Since(navStart)

	extStart := time.Now()
	rec, err := s.extractor.Extract(ctx, NewRodPage(page, s.scraperCfg.ActionTimeout), req.URL, req.StoreType)
	if err != nil {
		return nil, err
	}
	extTime := time.Since(extStart)

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &Result{
		Record:         rec,
		Strategy:       s.extractor.Choose(req.StoreType, req.URL, finalURL).Name(),
		FinalURL:       finalURL,
		EngineUsed:     engine.NameRod,
		NavigationTime: navTime,
		ExtractionTime: extTime,
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// removeOverlays deletes fixed consent banners and modal overlays that
// would swallow clicks on description tabs.
func removeOverlays(p *rod.Page) {
	const js = `() => {
		const selectors = [
			'[class*="cookie"]', '[id*="cookie"]',
			'[class*="consent"]', '[id*="consent"]',
			'[class*="overlay"]', '[id*="overlay"]',
			'[class*="popup"]', '[id*="popup"]',
			'[class*="modal"]', '[class*="lgpd"]',
		];
		for (const sel of selectors) {
			document.querySelectorAll(sel).forEach((el) => {
				const pos = window.getComputedStyle(el).position;
				if (pos === 'fixed' || pos === 'sticky') el.remove();
			});
		}
		document.documentElement.style.overflow = '';
		document.body.style.overflow = '';
	}`
	_, _ = p.Eval(js)
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
