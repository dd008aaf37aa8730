package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/apkscout/models"
	"github.com/use-agent/apkscout/output"
	"github.com/use-agent/apkscout/resolver"
	"github.com/use-agent/apkscout/webhook"
)

// batchJob guards a models.BatchJob shared by the runner and readers.
type batchJob struct {
	mu  sync.Mutex
	job models.BatchJob
}

func (b *batchJob) snapshot() models.BatchStatusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.BatchStatusResponse{
		ID:        b.job.ID,
		Status:    b.job.Status,
		Completed: b.job.Completed,
		Total:     b.job.Total,
		Results:   b.job.Results,
		Error:     b.job.Error,
	}
}

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

func init() {
	// Expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				b := value.(*batchJob)
				b.mu.Lock()
				expired := b.job.CreatedAt < cutoff
				b.mu.Unlock()
				if expired {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// BatchOptions configures the batch runner.
type BatchOptions struct {
	// Workers bounds the queries resolved concurrently.
	Workers int
	// OutputFile, when set, receives every resolved entry of a batch.
	OutputFile string
	// Notifier delivers completion events for jobs with a webhook URL.
	Notifier *webhook.Notifier
}

// PostBatch returns a handler for POST /api/v1/batch/resolve.
// It validates the request, registers a job, and resolves it in the
// background.
func PostBatch(o *resolver.Orchestrator, opts BatchOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + uuid.NewString()
		b := &batchJob{job: models.BatchJob{
			ID:            jobID,
			Status:        "processing",
			Total:         len(req.Queries),
			Results:       make([]*models.BatchItem, 0, len(req.Queries)),
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}}
		batchStore.Store(jobID, b)

		go runBatch(o, opts, b, req.Queries)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.Queries),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := batchStore.Load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, val.(*batchJob).snapshot())
	}
}

// runBatch resolves every query of a job and records the outcome.
func runBatch(o *resolver.Orchestrator, opts BatchOptions, b *batchJob, queries []string) {
	results, stats, runErr := o.ResolveAll(context.Background(), queries, opts.Workers)

	items := make([]*models.BatchItem, len(results))
	var entries []*models.ResolvedEntry
	for i, r := range results {
		items[i] = &models.BatchItem{Query: r.Query, Entry: r.Entry}
		if r.Err != nil {
			items[i].Error = models.AsResolveError(r.Err).ToDetail()
		}
		if r.Entry != nil {
			entries = append(entries, r.Entry)
		}
	}

	if opts.OutputFile != "" && len(entries) > 0 {
		if err := output.WriteJSON(opts.OutputFile, entries); err != nil {
			slog.Error("batch output write failed", "id", b.job.ID, "file", opts.OutputFile, "error", err)
		}
	}

	b.mu.Lock()
	b.job.Results = items
	b.job.Completed = len(items)
	switch {
	case runErr != nil || stats.Failed == stats.Queries:
		b.job.Status = "failed"
	case stats.Failed > 0:
		b.job.Status = "partial"
	default:
		b.job.Status = "completed"
	}
	if runErr != nil {
		b.job.Error = models.AsResolveError(runErr).ToDetail()
	}
	job := b.job
	b.mu.Unlock()

	slog.Info("batch job finished",
		"id", job.ID,
		"status", job.Status,
		"complete", stats.Complete,
		"partial", stats.Partial,
		"absent", stats.Absent,
		"failed", stats.Failed,
		"total", job.Total,
	)

	if job.WebhookURL != "" && opts.Notifier != nil {
		opts.Notifier.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data: models.BatchStatusResponse{
				ID:        job.ID,
				Status:    job.Status,
				Completed: job.Completed,
				Total:     job.Total,
				Results:   job.Results,
				Error:     job.Error,
			},
		})
	}
}
