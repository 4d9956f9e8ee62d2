// Package webhook posts signed batch notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// EventBatchCompleted fires once every item of a batch has finished.
const EventBatchCompleted = "batch.completed"

// SignatureHeader carries "sha256=<hex hmac of body>" when a secret is set.
const SignatureHeader = "X-Prodex-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Sender delivers events. The zero value is not usable; use New.
type Sender struct {
	client *http.Client
	delays []time.Duration
}

// New creates a Sender that retries after 1s, 5s and 30s.
func New() *Sender {
	return &Sender{
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is a valid signature of body. Receivers
// use it with the secret they registered.
func Verify(secret string, body []byte, header string) bool {
	return hmac.Equal([]byte(header), []byte(Sign(secret, body)))
}

// StatusError is returned when the endpoint answers with an error status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook: endpoint returned status %d", e.Code)
}

// retryable reports whether another attempt may succeed. Client errors
// other than 408 and 429 mean the endpoint rejected the event itself.
func retryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	switch {
	case se.Code == http.StatusRequestTimeout, se.Code == http.StatusTooManyRequests:
		return true
	case se.Code < 500:
		return false
	}
	return true
}

// Deliver sends event once, signed when secret is non-empty.
func (s *Sender) Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Prodex-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// DeliverAsync delivers event in the background. Failed attempts are
// retried on the sender's schedule unless the endpoint rejected the event
// outright. The returned channel receives the final error (nil on
// success) and is then closed.
func (s *Sender) DeliverAsync(url, secret string, event *Event) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.deliverWithRetry(url, secret, event)
	}()
	return done
}

func (s *Sender) deliverWithRetry(url, secret string, event *Event) error {
	log := slog.With("url", url, "event", event.Type, "job_id", event.JobID)

	var err error
	for i, delay := range s.delays {
		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
		err = s.Deliver(ctx, url, secret, event)
		cancel()

		if err == nil {
			log.Info("webhook delivered", "attempt", i+1)
			return nil
		}
		if !retryable(err) {
			log.Warn("webhook rejected", "attempt", i+1, "error", err)
			return err
		}
		log.Warn("webhook attempt failed", "attempt", i+1, "error", err)
	}
	log.Error("webhook retries exhausted", "attempts", len(s.delays))
	return err
}
