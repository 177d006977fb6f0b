package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/citeaudit/internal/database"
	"github.com/zombar/citeaudit/internal/models"
)

const auditSourceWorker = "worker"

func decodeAuditPayload(t *asynq.Task) (AuditDocumentPayload, error) {
	var payload AuditDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("invalid task payload: %w", err)
	}
	if payload.DocumentID == "" {
		return payload, fmt.Errorf("invalid task payload: missing document_id")
	}
	return payload, nil
}

// remoteContext rebuilds the enqueuer's span context from the payload
func remoteContext(ctx context.Context, payload AuditDocumentPayload) context.Context {
	if payload.TraceID == "" || payload.SpanID == "" {
		return ctx
	}
	traceID, err := trace.TraceIDFromHex(payload.TraceID)
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(payload.SpanID)
	if err != nil {
		return ctx
	}

	remote := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, remote)
}

// handleAuditDocument audits a stored document. The report itself is not
// kept: running it warms the metrics cache and moves the document to
// audited.
func (w *Worker) handleAuditDocument(ctx context.Context, t *asynq.Task) error {
	payload, err := decodeAuditPayload(t)
	if err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var queueWait time.Duration
	if payload.EnqueuedAt > 0 {
		queueWait = time.Since(time.Unix(0, payload.EnqueuedAt))
	}

	ctx, span := otel.Tracer("citeaudit").Start(remoteContext(ctx, payload), "asynq.task.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task.type", TypeAuditDocument),
			attribute.String("document.id", payload.DocumentID),
			attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		),
	)
	defer span.End()

	w.logger.InfoContext(ctx, "auditing document",
		"document_id", payload.DocumentID,
		"queue_wait_seconds", queueWait.Seconds(),
	)

	doc, err := w.store.GetDocument(payload.DocumentID)
	if errors.Is(err, database.ErrNotFound) {
		// deleted while queued
		w.logger.Warn("document no longer exists, dropping task", "document_id", payload.DocumentID)
		span.AddEvent("document_missing")
		return fmt.Errorf("document %s: %w", payload.DocumentID, asynq.SkipRetry)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to load document: %w", err)
	}

	start := time.Now()
	report := w.auditor.Audit(*doc)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.Int("citations.count", len(report.Citations)),
		attribute.Int("red_flags.count", len(report.RedFlags)),
		attribute.Float64("quality.overall", report.Quality.OverallQuality),
	)
	if w.metrics != nil {
		w.metrics.ObserveAudit(auditSourceWorker, report, elapsed)
	}

	if err := w.store.UpdateStatus(doc.ID, models.StatusAudited); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update document status: %w", err)
	}

	w.logger.InfoContext(ctx, "document audited",
		"document_id", doc.ID,
		"citations", len(report.Citations),
		"red_flags", len(report.RedFlags),
		"overall_quality", report.Quality.OverallQuality,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}
