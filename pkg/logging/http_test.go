package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	return rec
}

func TestHTTPLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"not found", http.StatusNotFound, "INFO"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			h := HTTPLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/audit?debug=1", nil)
			h.ServeHTTP(httptest.NewRecorder(), req)

			rec := decodeRecord(t, &buf)
			if rec["msg"] != "http_request" {
				t.Errorf("msg = %v, want http_request", rec["msg"])
			}
			if rec["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", rec["level"], tt.wantLevel)
			}
			if rec["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", rec["status"], tt.status)
			}
			if rec["bytes"] != float64(4) {
				t.Errorf("bytes = %v, want 4", rec["bytes"])
			}
			if rec["path"] != "/api/audit" || rec["query"] != "debug=1" {
				t.Errorf("unexpected path/query: %v %v", rec["path"], rec["query"])
			}
		})
	}
}

func TestHTTPErrorLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil)
	HTTPErrorLogger(logger, http.StatusInternalServerError, errors.New("db down"), req)

	rec := decodeRecord(t, &buf)
	if rec["error"] != "db down" {
		t.Errorf("error = %v, want db down", rec["error"])
	}
	if rec["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", rec["level"])
	}
}
