package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zombar/citeaudit/internal/models"
)

const documentColumns = "id, title, source_url, body, status, audited_at, created_at, updated_at"

// SaveDocument inserts a new document. Missing timestamps and status are
// filled in on doc.
func (db *DB) SaveDocument(doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if doc.Status == "" {
		doc.Status = models.StatusQueued
	}

	_, err := db.conn.Exec(db.rebind(`
		INSERT INTO documents (id, title, source_url, body, status, audited_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`), doc.ID, doc.Title, doc.SourceURL, doc.Text, doc.Status, nullTime(doc.AuditedAt), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// GetDocument retrieves a document by ID
func (db *DB) GetDocument(id string) (*models.Document, error) {
	row := db.conn.QueryRow(db.rebind("SELECT "+documentColumns+" FROM documents WHERE id = $1"), id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListDocuments retrieves documents newest first
func (db *DB) ListDocuments(limit, offset int) ([]*models.Document, error) {
	rows, err := db.conn.Query(db.rebind(`
		SELECT `+documentColumns+`
		FROM documents
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// UpdateStatus sets the audit status of a document. Moving to audited
// also stamps audited_at.
func (db *DB) UpdateStatus(id, status string) error {
	now := time.Now().UTC()

	var auditedAt *time.Time
	if status == models.StatusAudited {
		auditedAt = &now
	}

	result, err := db.conn.Exec(db.rebind(`
		UPDATE documents
		SET status = $1, audited_at = COALESCE($2, audited_at), updated_at = $3
		WHERE id = $4
	`), status, nullTime(auditedAt), now, id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	return expectOneRow(result)
}

// DeleteDocument deletes a document by ID
func (db *DB) DeleteDocument(id string) error {
	result, err := db.conn.Exec(db.rebind("DELETE FROM documents WHERE id = $1"), id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return expectOneRow(result)
}

// CountByStatus returns the number of documents per status
func (db *DB) CountByStatus() (map[string]int, error) {
	rows, err := db.conn.Query("SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*models.Document, error) {
	var (
		doc       models.Document
		auditedAt sql.NullTime
	)

	err := s.Scan(&doc.ID, &doc.Title, &doc.SourceURL, &doc.Text, &doc.Status,
		&auditedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if auditedAt.Valid {
		t := auditedAt.Time
		doc.AuditedAt = &t
	}
	return &doc, nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
