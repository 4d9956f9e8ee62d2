package models

import (
	"sync"
	"time"
)

// Batch job states.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// BatchRequest is the payload for POST /api/v1/batch/extract.
type BatchRequest struct {
	// URLs is the list of product pages. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=50,dive,url"`

	// Options are applied to every URL in the batch.
	Options BatchOptions `json:"options"`

	// WebhookURL receives a batch.completed event when the job finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook payload with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchOptions are the shared extraction settings of a batch.
type BatchOptions struct {
	StoreType       string `json:"store_type,omitempty"`
	FetchMode       string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`
	Timeout         int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
	Stealth         bool   `json:"stealth,omitempty"`
	BlockAds        bool   `json:"block_ads,omitempty"`
	RemoveOverlays  bool   `json:"remove_overlays,omitempty"`
	IncludeMarkdown bool   `json:"include_markdown,omitempty"`
}

// Request builds the single-URL request for one batch item.
func (o BatchOptions) Request(url string) *ExtractRequest {
	req := &ExtractRequest{
		URL:             url,
		StoreType:       o.StoreType,
		FetchMode:       o.FetchMode,
		Timeout:         o.Timeout,
		Stealth:         o.Stealth,
		BlockAds:        o.BlockAds,
		RemoveOverlays:  o.RemoveOverlays,
		IncludeMarkdown: o.IncludeMarkdown,
	}
	req.Defaults()
	return req
}

// BatchResponse is the immediate response for POST /api/v1/batch/extract.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*ExtractResponse `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch. Results are indexed by the
// position of the URL in the request. It is safe for concurrent use.
type BatchJob struct {
	ID        string
	Total     int
	CreatedAt time.Time

	mu        sync.Mutex
	status    string
	completed int
	results   []*ExtractResponse
}

// NewBatchJob creates a job in the processing state.
func NewBatchJob(id string, total int) *BatchJob {
	return &BatchJob{
		ID:        id,
		Total:     total,
		CreatedAt: time.Now(),
		status:    BatchProcessing,
		results:   make([]*ExtractResponse, total),
	}
}

// Record stores the result for item i.
func (j *BatchJob) Record(i int, resp *ExtractResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if i < 0 || i >= len(j.results) || j.results[i] != nil {
		return
	}
	j.results[i] = resp
	j.completed++
}

// Finish derives the terminal status from the recorded results.
func (j *BatchJob) Finish() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	failed := 0
	for _, r := range j.results {
		if r == nil || !r.Success {
			failed++
		}
	}
	switch {
	case failed == 0:
		j.status = BatchCompleted
	case failed == len(j.results):
		j.status = BatchFailed
	default:
		j.status = BatchPartial
	}
	return j.status
}

// Status returns a consistent snapshot of the job.
func (j *BatchJob) Status() *BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	results := make([]*ExtractResponse, 0, j.completed)
	for _, r := range j.results {
		if r != nil {
			results = append(results, r)
		}
	}
	return &BatchStatusResponse{
		ID:        j.ID,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.Total,
		Results:   results,
	}
}
