// Package scraper owns the headless browser. It loads product pages in
// pooled tabs and hands them to the extractor.
package scraper

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/prodex/config"
	"github.com/use-agent/prodex/engine"
	"github.com/use-agent/prodex/extractor"
	"github.com/use-agent/prodex/models"
)

// Scraper manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	browserPID  int
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	extractCfg  config.ExtractConfig
	extractor   *extractor.Engine
	dispatcher  *engine.Dispatcher
	activePages atomic.Int32
	tabs        *tabTracker[*rod.Page]
}

// launchFlags hide the automation markers storefront bot checks look for
// and keep background tabs from being throttled.
var launchFlags = map[flags.Flag][]string{
	"disable-blink-features":              {"AutomationControlled"},
	"disable-features":                    {"TranslateUI"},
	"disable-popup-blocking":              nil,
	"disable-renderer-backgrounding":      nil,
	"disable-background-timer-throttling": nil,
	"disable-dev-shm-usage":               nil,
	"disable-extensions":                  nil,
	"no-first-run":                        nil,
	"lang":                                {"pt-BR"},
}

// NewScraper launches the browser and creates the page pool. ext may be
// nil, in which case an engine with default settings is used.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, extractCfg config.ExtractConfig, ext *extractor.Engine) (*Scraper, error) {
	l, controlURL, err := launch(browserCfg)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	slog.Info("browser ready", "pid", l.PID(), "maxPages", browserCfg.MaxPages)

	if ext == nil {
		ext = extractor.New(extractor.Options{Logger: slog.Default()})
	}
	return &Scraper{
		browser:    browser,
		browserPID: l.PID(),
		pagePool:   rod.NewPagePool(browserCfg.MaxPages),
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		extractCfg: extractCfg,
		extractor:  ext,
		tabs:       newTabTracker[*rod.Page](),
	}, nil
}

func launch(cfg config.BrowserConfig) (*launcher.Launcher, string, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}
	l.Delete("enable-automation")
	for name, values := range launchFlags {
		l.Set(name, values...)
	}

	u, err := l.Launch()
	return l, u, err
}

// SetDispatcher enables the http and auto fetch modes. Without a
// dispatcher every request is served by the browser.
func (s *Scraper) SetDispatcher(d *engine.Dispatcher) {
	s.dispatcher = d
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
		BrowserPID:  s.browserPID,
	}
}

// MaxPages is the page pool capacity.
func (s *Scraper) MaxPages() int { return s.browserCfg.MaxPages }

// Close drains the page pool and kills the browser process.
func (s *Scraper) Close() {
	s.pagePool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("browser closed")
}

// newPage opens a tab with the configured identity. Pooled tabs keep it
// across requests.
func (s *Scraper) newPage() (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	if ua := s.browserCfg.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		}); err != nil {
			_ = page.Close()
			return nil, err
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.browserCfg.ViewportWidth,
		Height:            s.browserCfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}
