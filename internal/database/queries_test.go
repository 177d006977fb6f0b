package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zombar/citeaudit/internal/models"
)

func createTestDocument(id string, createdAt time.Time) *models.Document {
	return &models.Document{
		ID:        id,
		Title:     "Warming trends",
		SourceURL: "https://example.com/articles/" + id,
		Text:      "See [NASA](https://climate.nasa.gov/) and https://www.ipcc.ch/report/ar6/",
		CreatedAt: createdAt,
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	db := setupSQLiteDB(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := createTestDocument("doc-1", created)
	if err := db.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}
	if doc.Status != models.StatusQueued {
		t.Errorf("default status = %q, want %q", doc.Status, models.StatusQueued)
	}

	got, err := db.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}

	if got.Title != doc.Title || got.SourceURL != doc.SourceURL || got.Text != doc.Text {
		t.Errorf("document mismatch: got %+v, want %+v", got, doc)
	}
	if got.Status != models.StatusQueued {
		t.Errorf("status = %q, want queued", got.Status)
	}
	if got.AuditedAt != nil {
		t.Errorf("audited_at = %v, want nil", got.AuditedAt)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

func TestSaveDocumentRequiresID(t *testing.T) {
	db := setupSQLiteDB(t)

	if err := db.SaveDocument(&models.Document{Text: "body"}); err == nil {
		t.Error("Expected error for document without id")
	}
}

func TestSaveDocumentDuplicate(t *testing.T) {
	db := setupSQLiteDB(t)

	if err := db.SaveDocument(createTestDocument("dup", time.Now())); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := db.SaveDocument(createTestDocument("dup", time.Now())); err == nil {
		t.Error("Expected error on duplicate id")
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	db := setupSQLiteDB(t)

	_, err := db.GetDocument("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDocuments(t *testing.T) {
	db := setupSQLiteDB(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		doc := createTestDocument(fmt.Sprintf("doc-%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := db.SaveDocument(doc); err != nil {
			t.Fatalf("SaveDocument failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		limit   int
		offset  int
		wantIDs []string
	}{
		{"first page", 2, 0, []string{"doc-4", "doc-3"}},
		{"second page", 2, 2, []string{"doc-2", "doc-1"}},
		{"tail", 10, 4, []string{"doc-0"}},
		{"past end", 10, 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := db.ListDocuments(tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("ListDocuments failed: %v", err)
			}
			if len(docs) != len(tt.wantIDs) {
				t.Fatalf("got %d documents, want %d", len(docs), len(tt.wantIDs))
			}
			for i, doc := range docs {
				if doc.ID != tt.wantIDs[i] {
					t.Errorf("docs[%d] = %q, want %q", i, doc.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	db := setupSQLiteDB(t)

	if err := db.SaveDocument(createTestDocument("doc-1", time.Now().UTC())); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	if err := db.UpdateStatus("doc-1", models.StatusAudited); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, err := db.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Status != models.StatusAudited {
		t.Errorf("status = %q, want audited", got.Status)
	}
	if got.AuditedAt == nil {
		t.Fatal("audited_at not set")
	}
	auditedAt := *got.AuditedAt

	// a later failure keeps the last successful audit time
	if err := db.UpdateStatus("doc-1", models.StatusFailed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ = db.GetDocument("doc-1")
	if got.Status != models.StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.AuditedAt == nil || !got.AuditedAt.Equal(auditedAt) {
		t.Errorf("audited_at = %v, want %v", got.AuditedAt, auditedAt)
	}

	if err := db.UpdateStatus("missing", models.StatusAudited); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := setupSQLiteDB(t)

	if err := db.SaveDocument(createTestDocument("doc-1", time.Now().UTC())); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	if err := db.DeleteDocument("doc-1"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if _, err := db.GetDocument("doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("document still present after delete: %v", err)
	}
	if err := db.DeleteDocument("doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCountByStatus(t *testing.T) {
	db := setupSQLiteDB(t)

	for i, status := range []string{models.StatusQueued, models.StatusQueued, models.StatusAudited} {
		doc := createTestDocument(fmt.Sprintf("doc-%d", i), time.Now().UTC())
		doc.Status = status
		if err := db.SaveDocument(doc); err != nil {
			t.Fatalf("SaveDocument failed: %v", err)
		}
	}

	counts, err := db.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[models.StatusQueued] != 2 || counts[models.StatusAudited] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
