package models

// Fetch modes accepted by ExtractRequest.FetchMode.
const (
	FetchModeAuto    = "auto"
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the product page to extract. Required.
	URL string `json:"url" binding:"required,url"`

	// StoreType is an optional platform hint ("vtex", "mercadolivre",
	// "marketplace", "generic"). Unknown values fall back to URL detection.
	StoreType string `json:"store_type,omitempty"`

	// FetchMode selects how the page is loaded.
	// "browser" (default): headless Chrome.
	// "http": plain HTTP with a Chrome TLS fingerprint, no JS.
	// "auto": race HTTP and browser with staged escalation.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// Timeout is the budget in seconds for loading and extraction.
	// Default: 60. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth injects anti-detection scripts before navigation.
	Stealth bool `json:"stealth,omitempty"`

	// BlockAds aborts requests to known ad and tracker hosts.
	BlockAds bool `json:"block_ads,omitempty"`

	// RemoveOverlays deletes fixed cookie banners and modals after load so
	// they cannot intercept tab clicks.
	RemoveOverlays bool `json:"remove_overlays,omitempty"`

	// MaxAge serves a cached response up to this many seconds old.
	// Zero always extracts fresh.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=86400"`

	// IncludeMarkdown adds a markdown rendering of the description.
	IncludeMarkdown bool `json:"include_markdown,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 60
	}
	if r.FetchMode == "" {
		r.FetchMode = FetchModeBrowser
	}
}
