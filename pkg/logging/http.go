// Package logging provides slog helpers for HTTP services
package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zombar/citeaudit/pkg/tracing"
)

// statusRecorder captures the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// HTTPLoggingMiddleware logs one structured record per request. It must
// wrap the tracing middleware for trace IDs to be present.
func HTTPLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(r.Context(), level, "http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", rec.status),
				slog.Int64("bytes", rec.bytesWritten),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("trace_id", tracing.TraceIDFromContext(r.Context())),
				slog.String("span_id", tracing.SpanIDFromContext(r.Context())),
			)
		})
	}
}

// HTTPErrorLogger logs a failed request together with its cause
func HTTPErrorLogger(logger *slog.Logger, statusCode int, err error, r *http.Request) {
	logger.LogAttrs(r.Context(), slog.LevelError, "http_error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("trace_id", tracing.TraceIDFromContext(r.Context())),
		slog.String("span_id", tracing.SpanIDFromContext(r.Context())),
	)
}
