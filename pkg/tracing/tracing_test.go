package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestIDsWithoutSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))
	assert.Empty(t, SpanIDFromContext(ctx))
}

func TestStartSpanAndAttributes(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, span := StartSpan(context.Background(), "audit", attribute.Int("citations", 3))
	assert.Len(t, TraceIDFromContext(ctx), 32)
	assert.Len(t, SpanIDFromContext(ctx), 16)

	SetSpanAttributes(ctx, attribute.String("document.id", "doc-1"))
	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "audit", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(3), attrs["citations"].AsInt64())
	assert.Equal(t, "doc-1", attrs["document.id"].AsString())
}

func TestHTTPMiddleware(t *testing.T) {
	exporter := setupTestTracer(t)

	var traceID string
	h := HTTPMiddleware("citeaudit")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, traceID)
	require.Len(t, exporter.GetSpans(), 1)
	assert.Equal(t, traceID, exporter.GetSpans()[0].SpanContext.TraceID().String())
}
