package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/citeaudit/internal/auditor"
	"github.com/zombar/citeaudit/internal/database"
	"github.com/zombar/citeaudit/internal/models"
	"github.com/zombar/citeaudit/internal/report"
	"github.com/zombar/citeaudit/pkg/logging"
	"github.com/zombar/citeaudit/pkg/metrics"
	"github.com/zombar/citeaudit/pkg/tracing"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 5 << 20

const auditSourceAPI = "api"

// requestTimeout bounds store round trips; a var so tests can shorten it
var requestTimeout = 30 * time.Second

// Store is the document persistence the API needs
type Store interface {
	SaveDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)
	ListDocuments(limit, offset int) ([]*models.Document, error)
	DeleteDocument(id string) error
	UpdateStatus(id, status string) error
}

// QueueClient enqueues background audits
type QueueClient interface {
	EnqueueAuditDocument(ctx context.Context, documentID string) (string, error)
}

// Handler handles HTTP requests
type Handler struct {
	store       Store
	auditor     *auditor.Auditor
	queueClient QueueClient
	metrics     *metrics.AuditMetrics
	logger      *slog.Logger
	mux         *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics.
// Without a queue client, stored documents are audited inline.
// auditMetrics may be nil.
func NewHandler(store Store, a *auditor.Auditor, queueClient QueueClient, auditMetrics *metrics.AuditMetrics) http.Handler {
	h := &Handler{
		store:       store,
		auditor:     a,
		queueClient: queueClient,
		metrics:     auditMetrics,
		logger:      slog.Default(),
		mux:         http.NewServeMux(),
	}

	h.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/health", h.handleHealth)
	h.mux.HandleFunc("/api/extract", h.handleExtract)
	h.mux.HandleFunc("/api/audit", h.handleAudit)
	h.mux.HandleFunc("/api/documents", h.handleDocuments)
	h.mux.HandleFunc("/api/documents/", h.handleDocumentOperations)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}

type textRequest struct {
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Text      string `json:"text"`
}

// decodeTextRequest reads a JSON body with a required text field
func decodeTextRequest(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return req, false
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return req, false
	}

	tracing.SetSpanAttributes(r.Context(), attribute.Int("text.length", len(req.Text)))
	return req, true
}

// handleExtract returns the citations found in the posted text
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeTextRequest(w, r)
	if !ok {
		return
	}

	_, span := tracing.StartSpan(r.Context(), "citeaudit.extract")
	citations := h.auditor.Extractor().Extract(req.Text)
	span.SetAttributes(attribute.Int("citations.count", len(citations)))
	span.End()

	respondJSON(w, map[string]any{
		"count":     len(citations),
		"citations": citations,
	}, http.StatusOK)
}

// handleAudit audits the posted text without storing it
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeTextRequest(w, r)
	if !ok {
		return
	}

	rep := h.audit(r.Context(), models.Document{
		Title:     req.Title,
		SourceURL: req.SourceURL,
		Text:      req.Text,
	})
	h.respondReport(w, r, rep)
}

// handleDocuments stores a document or lists stored documents
func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createDocument(w, r)
	case http.MethodGet:
		h.listDocuments(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTextRequest(w, r)
	if !ok {
		return
	}

	doc := &models.Document{
		ID:        uuid.New().String(),
		Title:     req.Title,
		SourceURL: req.SourceURL,
		Text:      req.Text,
		Status:    models.StatusQueued,
	}
	tracing.SetSpanAttributes(r.Context(), attribute.String("document.id", doc.ID))

	if _, err := await(func() (struct{}, error) { return struct{}{}, h.store.SaveDocument(doc) }); err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	if h.queueClient != nil {
		taskID, err := h.queueClient.EnqueueAuditDocument(r.Context(), doc.ID)
		if err != nil {
			logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
			// no worker will ever pick this document up
			if _, uerr := await(func() (struct{}, error) {
				return struct{}{}, h.store.UpdateStatus(doc.ID, models.StatusFailed)
			}); uerr != nil {
				h.logger.Error("failed to mark document failed", "document_id", doc.ID, "error", uerr)
			}
			respondError(w, "Failed to enqueue audit", http.StatusInternalServerError)
			return
		}

		respondJSON(w, map[string]any{
			"document_id": doc.ID,
			"task_id":     taskID,
			"status":      models.StatusQueued,
			"message":     "Audit queued for processing",
		}, http.StatusAccepted)
		return
	}

	// no queue configured: audit now
	rep := h.audit(r.Context(), *doc)
	if _, err := await(func() (struct{}, error) {
		return struct{}{}, h.store.UpdateStatus(doc.ID, models.StatusAudited)
	}); err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, map[string]any{
		"document_id": doc.ID,
		"status":      models.StatusAudited,
		"report":      rep,
	}, http.StatusCreated)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 10
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 100 {
			respondError(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = l
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil || o < 0 {
			respondError(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		offset = o
	}

	docs, err := await(func() ([]*models.Document, error) { return h.store.ListDocuments(limit, offset) })
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, docs, http.StatusOK)
}

// handleDocumentOperations serves /api/documents/{id}[/audit|/graph]
func (h *Handler) handleDocumentOperations(w http.ResponseWriter, r *http.Request) {
	id, action, _ := strings.Cut(r.URL.Path[len("/api/documents/"):], "/")
	if id == "" {
		respondError(w, "Document ID is required", http.StatusBadRequest)
		return
	}
	tracing.SetSpanAttributes(r.Context(), attribute.String("document.id", id))

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.getDocument(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.deleteDocument(w, r, id)
	case action == "audit" && r.Method == http.MethodGet:
		h.auditDocument(w, r, id)
	case action == "graph" && r.Method == http.MethodGet:
		h.documentGraph(w, r, id)
	case action == "" || action == "audit" || action == "graph":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		respondError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := await(func() (*models.Document, error) { return h.store.GetDocument(id) })
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, doc, http.StatusOK)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := await(func() (struct{}, error) { return struct{}{}, h.store.DeleteDocument(id) }); err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, map[string]string{"message": "Document deleted successfully"}, http.StatusOK)
}

// auditDocument recomputes the audit of a stored document
func (h *Handler) auditDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := await(func() (*models.Document, error) { return h.store.GetDocument(id) })
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	h.respondReport(w, r, h.audit(r.Context(), *doc))
}

// documentGraph returns the citation graph of a stored document
func (h *Handler) documentGraph(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := await(func() (*models.Document, error) { return h.store.GetDocument(id) })
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	citations := h.auditor.Extractor().Extract(doc.Text)
	graph := auditor.BuildGraph(doc.ID, doc.Title, citations)

	respondJSON(w, map[string]any{
		"graph":    graph,
		"stats":    auditor.Stats(graph),
		"clusters": auditor.SourceClusters(graph),
	}, http.StatusOK)
}

// audit runs a traced, measured audit
func (h *Handler) audit(ctx context.Context, doc models.Document) models.AuditReport {
	_, span := tracing.StartSpan(ctx, "citeaudit.audit",
		attribute.Int("text.length", len(doc.Text)))
	defer span.End()

	start := time.Now()
	rep := h.auditor.Audit(doc)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("document.id", rep.DocumentID),
		attribute.Int("citations.count", len(rep.Citations)),
		attribute.Int("red_flags.count", len(rep.RedFlags)),
		attribute.Float64("quality.overall", rep.Quality.OverallQuality),
	)
	if h.metrics != nil {
		h.metrics.ObserveAudit(auditSourceAPI, rep, elapsed)
	}
	return rep
}

// respondReport writes rep as JSON, or as markdown with ?format=markdown
func (h *Handler) respondReport(w http.ResponseWriter, r *http.Request, rep models.AuditReport) {
	format := r.URL.Query().Get("format")
	if format == "" || format == report.FormatJSON {
		respondJSON(w, rep, http.StatusOK)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, rep); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errRequestTimeout):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	default:
		tracing.RecordError(r.Context(), err)
		logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

var errRequestTimeout = errors.New("request timeout")

// await runs fn in a goroutine and gives up after requestTimeout
func await[T any](fn func() (T, error)) (T, error) {
	resultChan := make(chan T, 1)
	errorChan := make(chan error, 1)

	go func() {
		v, err := fn()
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- v
	}()

	select {
	case v := <-resultChan:
		return v, nil
	case err := <-errorChan:
		var zero T
		return zero, err
	case <-time.After(requestTimeout):
		var zero T
		return zero, errRequestTimeout
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, map[string]string{"error": message}, statusCode)
}
