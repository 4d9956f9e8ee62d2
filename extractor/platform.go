package extractor

import (
	"net/url"
	"strings"
)

// Platform identifies the storefront family a strategy targets.
type Platform int

const (
	PlatformGeneric Platform = iota
	PlatformVTEX
	PlatformMarketplace
)

func (p Platform) String() string {
	switch p {
	case PlatformVTEX:
		return "vtex"
	case PlatformMarketplace:
		return "marketplace"
	default:
		return "generic"
	}
}

// ParsePlatform maps a store-type hint to a platform. ok is false for
// blank or unknown hints.
func ParsePlatform(hint string) (p Platform, ok bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "vtex":
		return PlatformVTEX, true
	case "mercadolivre", "mercadolibre", "marketplace":
		return PlatformMarketplace, true
	case "generic":
		return PlatformGeneric, true
	}
	return PlatformGeneric, false
}

// DetectPlatform guesses the platform from identifying substrings of rawURL.
func DetectPlatform(rawURL string) Platform {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "vtex"):
		return PlatformVTEX
	case strings.Contains(lower, "mercadolivre"), strings.Contains(lower, "mercadolibre"):
		return PlatformMarketplace
	}
	if u, err := url.Parse(lower); err == nil {
		host := u.Hostname()
		if host == "ml.com" || strings.HasSuffix(host, ".ml.com") {
			return PlatformMarketplace
		}
	}
	return PlatformGeneric
}

// Select picks the strategy for a page. A known hint wins over the URL;
// otherwise the URL decides, and anything unrecognized gets the generic
// strategy.
func Select(hint, rawURL string) Strategy {
	if p, ok := ParsePlatform(hint); ok {
		return StrategyFor(p)
	}
	return StrategyFor(DetectPlatform(rawURL))
}
