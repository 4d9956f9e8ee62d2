package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Extract   ExtractConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Engine    EngineConfig
	Batch     BatchConfig
	Cache     CacheConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// DefaultProxy is the proxy URL for all browser and HTTP traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent is sent by every pooled page.
	UserAgent string

	// ViewportWidth and ViewportHeight size every pooled page.
	ViewportWidth  int // default: 1280
	ViewportHeight int // default: 800
}

// ScraperConfig controls page loading.
type ScraperConfig struct {
	// DefaultTimeout applies when a request sets none.
	DefaultTimeout time.Duration // default: 60s

	// MaxTimeout caps the timeout a client may ask for.
	MaxTimeout time.Duration // default: 120s

	// NavigationTimeout bounds page.Navigate alone.
	NavigationTimeout time.Duration // default: 30s

	// ActionTimeout bounds a single click or scroll.
	ActionTimeout time.Duration // default: 10s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ExtractConfig tunes the extraction engine.
type ExtractConfig struct {
	// RevealWait bounds the wait after clicking a description tab.
	RevealWait time.Duration // default: 1s

	// LazyDescriptionWait bounds the wait for a lazily loaded description.
	LazyDescriptionWait time.Duration // default: 2s

	// PollInterval is how often those waits re-check the page.
	PollInterval time.Duration // default: 100ms

	// DefaultStoreType is used when a request carries no store_type.
	DefaultStoreType string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// EngineConfig controls the fetch-mode dispatcher used by fetch_mode=auto.
type EngineConfig struct {
	// EnableMultiEngine toggles the HTTP engine and the auto dispatcher.
	// When off, every request is served by the browser.
	EnableMultiEngine bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 3s]

	// HTTPTimeout is the deadline for the plain HTTP engine.
	HTTPTimeout time.Duration // default: 10s

	// DomainMemoryTTL is how long a domain keeps its winning engine.
	DomainMemoryTTL time.Duration // default: 24h
}

// BatchConfig controls batch extraction jobs.
type BatchConfig struct {
	// Concurrency is the number of URLs extracted at once per job.
	// Zero means the browser page pool size.
	Concurrency int

	// JobTTL is how long finished jobs stay queryable.
	JobTTL time.Duration // default: 1h
}

// CacheConfig controls the in-memory response cache.
type CacheConfig struct {
	// MaxEntries bounds the number of cached responses.
	MaxEntries int // default: 1000

	// MaxAge is the hard expiry, whatever max_age a request asks for.
	MaxAge time.Duration // default: 1h
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: envOr("PRODEX_HOST", "0.0.0.0"),
			Port: envIntOr("PRODEX_PORT", 8080),
			Mode: envOr("PRODEX_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("PRODEX_HEADLESS", true),
			MaxPages:       envIntOr("PRODEX_MAX_PAGES", 10),
			DefaultProxy:   os.Getenv("PRODEX_PROXY"),
			NoSandbox:      envBoolOr("PRODEX_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("PRODEX_BROWSER_BIN"),
			UserAgent:      envOr("PRODEX_USER_AGENT", DefaultUserAgent),
			ViewportWidth:  envIntOr("PRODEX_VIEWPORT_WIDTH", 1280),
			ViewportHeight: envIntOr("PRODEX_VIEWPORT_HEIGHT", 800),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:    envDurationOr("PRODEX_DEFAULT_TIMEOUT", 60*time.Second),
			MaxTimeout:        envDurationOr("PRODEX_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("PRODEX_NAV_TIMEOUT", 30*time.Second),
			ActionTimeout:     envDurationOr("PRODEX_ACTION_TIMEOUT", 10*time.Second),
			BlockedResourceTypes: envSliceOr("PRODEX_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Extract: ExtractConfig{
			RevealWait:          envDurationOr("PRODEX_REVEAL_WAIT", time.Second),
			LazyDescriptionWait: envDurationOr("PRODEX_LAZY_DESCRIPTION_WAIT", 2*time.Second),
			PollInterval:        envDurationOr("PRODEX_POLL_INTERVAL", 100*time.Millisecond),
			DefaultStoreType:    os.Getenv("PRODEX_DEFAULT_STORE_TYPE"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRODEX_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PRODEX_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRODEX_RATE_RPS", 2.0),
			Burst:             envIntOr("PRODEX_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("PRODEX_LOG_LEVEL", "info"),
			Format: envOr("PRODEX_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("PRODEX_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("PRODEX_ESCALATION_DELAYS", []time.Duration{0, 3 * time.Second}),
			HTTPTimeout:       envDurationOr("PRODEX_HTTP_TIMEOUT", 10*time.Second),
			DomainMemoryTTL:   envDurationOr("PRODEX_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("PRODEX_BATCH_CONCURRENCY", 0),
			JobTTL:      envDurationOr("PRODEX_BATCH_JOB_TTL", time.Hour),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRODEX_CACHE_MAX_ENTRIES", 1000),
			MaxAge:     envDurationOr("PRODEX_CACHE_MAX_AGE", time.Hour),
		},
	}
}

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return splitList(v, fallback, func(s string) (string, bool) { return s, true })
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		return splitList(v, fallback, func(s string) (time.Duration, bool) {
			d, err := time.ParseDuration(s)
			return d, err == nil
		})
	}
	return fallback
}

// splitList parses a comma-separated list, skipping blank and unparseable
// items. It returns fallback when nothing survives.
func splitList[T any](v string, fallback []T, parse func(string) (T, bool)) []T {
	parts := strings.Split(v, ",")
	out := make([]T, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		if item, ok := parse(trimmed); ok {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
