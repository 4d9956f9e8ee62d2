package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodex/cache"
	"github.com/use-agent/prodex/cleaner"
	"github.com/use-agent/prodex/models"
	"github.com/use-agent/prodex/scraper"
)

// Extractor loads a page and extracts its product. *scraper.Scraper
// implements it.
type Extractor interface {
	DoExtract(ctx context.Context, req *models.ExtractRequest) (*scraper.Result, error)
}

// Extract returns a handler for POST /api/v1/extract.
//
//  1. Bind and validate, apply defaults.
//  2. Serve from cache when max_age allows.
//  3. Extractor.DoExtract: load the page, run the strategy.
//  4. Optionally render the description as Markdown.
//  5. Fill timing, cache, respond.
func Extract(ex Extractor, md *cleaner.Markdown, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		maxAge := time.Duration(req.MaxAge) * time.Second
		key := cache.Key(req.URL, req.StoreType, req.FetchMode)
		if cached, hit := cc.Get(key, maxAge); hit {
			if !req.IncludeMarkdown {
				cached.DescriptionMarkdown = ""
			} else if cached.DescriptionMarkdown == "" {
				cached.DescriptionMarkdown = markdownFor(md, cached.Product, cached.FinalURL, req.URL)
			}
			cached.CacheStatus = "hit"
			cached.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
			c.JSON(http.StatusOK, cached)
			return
		}

		resp := extractOne(c.Request.Context(), ex, md, &req)
		resp.Timing.TotalMs = time.Since(start).Milliseconds()
		if maxAge > 0 {
			cc.Set(key, resp)
			resp.CacheStatus = "miss"
		}
		c.JSON(statusOf(resp), resp)
	}
}

// extractOne runs one request to completion. Failures are reported in the
// response, never returned.
func extractOne(ctx context.Context, ex Extractor, md *cleaner.Markdown, req *models.ExtractRequest) *models.ExtractResponse {
	start := time.Now()
	result, err := ex.DoExtract(ctx, req)
	if err != nil {
		slog.Warn("extraction failed", "url", req.URL, "error", err)
		return &models.ExtractResponse{
			Success:   false,
			SourceURL: req.URL,
			Error:     toScrapeError(err).ToDetail(),
			Timing:    models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
	}

	rec := result.Record
	resp := &models.ExtractResponse{
		Success:    true,
		SourceURL:  req.URL,
		FinalURL:   result.FinalURL,
		Strategy:   result.Strategy,
		EngineUsed: result.EngineUsed,
		Product:    &rec,
		Timing: models.TimingInfo{
			NavigationMs: result.NavigationTime.Milliseconds(),
			ExtractionMs: result.ExtractionTime.Milliseconds(),
		},
	}
	if req.IncludeMarkdown {
		resp.DescriptionMarkdown = markdownFor(md, &rec, result.FinalURL, req.URL)
	}
	resp.Timing.TotalMs = time.Since(start).Milliseconds()
	return resp
}

func markdownFor(md *cleaner.Markdown, rec *models.ProductRecord, pageURL, sourceURL string) string {
	if md == nil || rec == nil {
		return ""
	}
	out, err := md.ToMarkdown(rec.DescriptionHTML, pageURL)
	if err != nil {
		slog.Warn("description markdown failed", "url", sourceURL, "error", err)
	}
	return out
}

// toScrapeError finds the ScrapeError in err's chain, or wraps err as an
// internal error.
func toScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, "extraction timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

func statusOf(resp *models.ExtractResponse) int {
	if resp.Success || resp.Error == nil {
		return http.StatusOK
	}
	return mapErrorToStatus(resp.Error.Code)
}

// respondError writes a structured JSON error with the status for its code.
func respondError(c *gin.Context, code, msg string) {
	c.JSON(mapErrorToStatus(code), models.ExtractResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: msg},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
