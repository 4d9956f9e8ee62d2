package models

import (
	"errors"
	"fmt"
)

// Error codes carried by ScrapeError and returned in API responses.
const (
	// Request level.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeNotFound     = "NOT_FOUND"

	// Fetch level.
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"

	// Extraction was handed a page it cannot read.
	ErrCodeInvalidPage = "INVALID_PAGE"

	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError pairs an error code with a human message and the cause.
type ScrapeError struct {
	Code    string
	Message string
	Err     error
}

// NewScrapeError creates a ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

func (e *ScrapeError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// Is matches any *ScrapeError with the same code, so
// errors.Is(err, &ScrapeError{Code: ErrCodeTimeout}) tests the category.
func (e *ScrapeError) Is(target error) bool {
	t, ok := target.(*ScrapeError)
	return ok && t.Code == e.Code
}

// ToDetail returns the API form. The cause stays internal.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
