package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/prodex/cleaner"
	"github.com/use-agent/prodex/models"
	"github.com/use-agent/prodex/webhook"
	"golang.org/x/sync/errgroup"
)

// BatchStore holds in-flight and finished batch jobs. Jobs older than the
// TTL are dropped by a background sweep.
type BatchStore struct {
	jobs sync.Map // id -> *models.BatchJob
	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

// NewBatchStore starts the sweep. Call Stop to end it.
func NewBatchStore(ttl time.Duration) *BatchStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &BatchStore{ttl: ttl, done: make(chan struct{})}
	go s.sweepLoop(5 * time.Minute)
	return s
}

func (s *BatchStore) put(job *models.BatchJob) { s.jobs.Store(job.ID, job) }

func (s *BatchStore) get(id string) (*models.BatchJob, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*models.BatchJob), true
}

func (s *BatchStore) sweep(now time.Time) {
	cutoff := now.Add(-s.ttl)
	s.jobs.Range(func(key, value any) bool {
		if value.(*models.BatchJob).CreatedAt.Before(cutoff) {
			s.jobs.Delete(key)
		}
		return true
	})
}

func (s *BatchStore) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// Stop ends the sweep.
func (s *BatchStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

// BatchRunner extracts every URL of a batch with bounded concurrency.
type BatchRunner struct {
	Extractor   Extractor
	Markdown    *cleaner.Markdown
	Store       *BatchStore
	Webhooks    *webhook.Sender
	Concurrency int
}

// PostBatch returns a handler for POST /api/v1/batch/extract. It registers
// the job, starts it in the background and answers immediately.
func PostBatch(r *BatchRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.ErrCodeInvalidInput, err.Error())
			return
		}

		job := models.NewBatchJob(uuid.NewString(), len(req.URLs))
		r.Store.put(job)
		go r.run(job, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: models.BatchProcessing,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.get(c.Param("id"))
		if !ok {
			respondError(c, models.ErrCodeNotFound, "batch job not found")
			return
		}
		c.JSON(http.StatusOK, job.Status())
	}
}

// run extracts the job's URLs and fires the completion webhook. Each item
// has its own deadline from its request timeout.
func (r *BatchRunner) run(job *models.BatchJob, req models.BatchRequest) {
	limit := r.Concurrency
	if limit <= 0 {
		limit = 5
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range req.URLs {
		g.Go(func() error {
			start := time.Now()
			resp := extractOne(context.Background(), r.Extractor, r.Markdown, req.Options.Request(u))
			resp.Timing.TotalMs = time.Since(start).Milliseconds()
			job.Record(i, resp)
			return nil
		})
	}
	_ = g.Wait()

	status := job.Finish()
	slog.Info("batch finished", "id", job.ID, "status", status, "total", job.Total)

	if req.WebhookURL != "" && r.Webhooks != nil {
		r.Webhooks.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      job.Status(),
		})
	}
}
