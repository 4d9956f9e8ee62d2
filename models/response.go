package models

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	Success bool `json:"success"`

	// SourceURL is the URL the caller asked for.
	SourceURL string `json:"source_url"`

	// FinalURL is the page location after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// Strategy names the platform strategy that ran
	// ("vtex", "marketplace" or "generic").
	Strategy string `json:"strategy,omitempty"`

	// EngineUsed is the fetch engine that produced the record
	// ("http" or "rod").
	EngineUsed string `json:"engine_used,omitempty"`

	Product *ProductRecord `json:"product,omitempty"`

	// DescriptionMarkdown is set only when include_markdown was requested.
	DescriptionMarkdown string `json:"description_markdown,omitempty"`

	Timing TimingInfo `json:"timing"`

	// CacheStatus is "hit" or "miss" when max_age was requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`

	// NavigationMs covers fetching or navigating and waiting for the DOM.
	NavigationMs int64 `json:"navigation_ms"`

	// ExtractionMs covers the field cascades.
	ExtractionMs int64 `json:"extraction_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
	BrowserPID  int `json:"browser_pid"`
}
