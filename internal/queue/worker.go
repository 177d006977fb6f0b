package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/zombar/citeaudit/internal/auditor"
	"github.com/zombar/citeaudit/internal/models"
	"github.com/zombar/citeaudit/pkg/metrics"
)

// retryDelays is the backoff between audit attempts; the last value
// repeats
var retryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
}

// DocumentStore is the part of the database the worker needs
type DocumentStore interface {
	GetDocument(id string) (*models.Document, error)
	UpdateStatus(id, status string) error
}

// Worker wraps the Asynq server for processing tasks
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	store       DocumentStore
	auditor     *auditor.Auditor
	metrics     *metrics.AuditMetrics
	concurrency int
	logger      *slog.Logger
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a new queue worker. auditMetrics may be nil.
func NewWorker(
	cfg WorkerConfig,
	store DocumentStore,
	a *auditor.Auditor,
	auditMetrics *metrics.AuditMetrics,
) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	w := &Worker{
		mux:         asynq.NewServeMux(),
		store:       store,
		auditor:     a,
		metrics:     auditMetrics,
		concurrency: cfg.Concurrency,
		logger:      slog.Default(),
	}

	w.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueAudits: 1,
		},
		RetryDelayFunc:  w.getRetryDelayFunc(),
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.handleError),
	})

	w.registerHandlers()

	return w
}

// registerHandlers registers all task handlers with the worker
func (w *Worker) registerHandlers() {
	w.mux.HandleFunc(TypeAuditDocument, w.handleAuditDocument)
}

// Start starts the worker to begin processing tasks
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker",
		"concurrency", w.concurrency,
		"queue", QueueAudits,
	)

	// Run blocks until shutdown
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}

// Server returns the underlying Asynq server (for testing)
func (w *Worker) Server() *asynq.Server {
	return w.server
}

func (w *Worker) getRetryDelayFunc() asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		if n < len(retryDelays) {
			return retryDelays[n]
		}
		return retryDelays[len(retryDelays)-1]
	}
}

// handleError logs failed attempts and marks the document failed once no
// retries remain
func (w *Worker) handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	w.logger.Error("task processing error",
		"task_type", task.Type(),
		"error", err,
		"retry_count", retried,
		"max_retries", maxRetry,
	)

	if retried < maxRetry || task.Type() != TypeAuditDocument {
		return
	}

	payload, perr := decodeAuditPayload(task)
	if perr != nil {
		return
	}
	if w.metrics != nil {
		w.metrics.AuditFailed(auditSourceWorker)
	}
	if uerr := w.store.UpdateStatus(payload.DocumentID, models.StatusFailed); uerr != nil {
		w.logger.Error("failed to mark document failed", "document_id", payload.DocumentID, "error", uerr)
	}
}
