package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeAuditDocument = "citeaudit:audit_document"
)

// QueueAudits is the asynq queue audit tasks are placed on
const QueueAudits = "audits"

// AuditDocumentPayload represents the payload for a stored document audit
type AuditDocumentPayload struct {
	DocumentID string `json:"document_id"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// enqueuer is the part of asynq.Client the queue client uses
type enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client enqueuer
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	return &Client{
		client: asynq.NewClient(redisOpt),
	}
}

// EnqueueAuditDocument enqueues an audit of a stored document. The task ID
// is the document ID, so a document has at most one pending audit.
func (c *Client) EnqueueAuditDocument(ctx context.Context, documentID string) (string, error) {
	task, opts, err := newAuditDocumentTask(ctx, documentID)
	if err != nil {
		return "", err
	}

	info, err := c.client.Enqueue(task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue audit document task: %w", err)
	}

	return info.ID, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}

func newAuditDocumentTask(ctx context.Context, documentID string) (*asynq.Task, []asynq.Option, error) {
	payload := AuditDocumentPayload{
		DocumentID: documentID,
		EnqueuedAt: time.Now().UnixNano(),
	}

	// Carry the caller's trace so the worker span joins it
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeAuditDocument),
			attribute.String("task.id", documentID),
			attribute.String("document.id", documentID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAuditDocument, payloadBytes, asynq.TaskID(documentID))

	opts := []asynq.Option{
		asynq.MaxRetry(len(retryDelays)),
		asynq.Timeout(time.Minute),
		asynq.Queue(QueueAudits),
		asynq.Retention(24 * time.Hour),
	}

	return task, opts, nil
}
