// Package repository provides persistence for uploaded applicant documents.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document types accepted by the admissions workflow.
const (
	TypePassport    = "passport"
	TypeCertificate = "certificate"
)

var ErrNotFound = errors.New("document not found")

// Document is one stored file. An applicant holds at most one document per
// type; re-uploads replace the row.
type Document struct {
	ApplicantID uuid.UUID
	Type        string
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	Link        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert stores a document, replacing any previous upload of the same type.
func (r *Repository) Upsert(ctx context.Context, d Document) error {
	query := `
		INSERT INTO documents (
			applicant_id, doc_type, file_key, file_name, content_type, size_bytes, link
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (applicant_id, doc_type) DO UPDATE SET
			file_key = EXCLUDED.file_key,
			file_name = EXCLUDED.file_name,
			content_type = EXCLUDED.content_type,
			size_bytes = EXCLUDED.size_bytes,
			link = EXCLUDED.link,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		d.ApplicantID, d.Type, d.FileKey, d.FileName, d.ContentType, d.SizeBytes, d.Link,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Get returns one document by type.
func (r *Repository) Get(ctx context.Context, applicantID uuid.UUID, docType string) (Document, error) {
	query := `
		SELECT applicant_id, doc_type, file_key, file_name, content_type, size_bytes, link, created_at, updated_at
		FROM documents
		WHERE applicant_id = $1 AND doc_type = $2`

	var d Document
	err := r.pool.QueryRow(ctx, query, applicantID, docType).Scan(
		&d.ApplicantID, &d.Type, &d.FileKey, &d.FileName, &d.ContentType,
		&d.SizeBytes, &d.Link, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// List returns all documents for an applicant.
func (r *Repository) List(ctx context.Context, applicantID uuid.UUID) ([]Document, error) {
	query := `
		SELECT applicant_id, doc_type, file_key, file_name, content_type, size_bytes, link, created_at, updated_at
		FROM documents
		WHERE applicant_id = $1
		ORDER BY doc_type`

	rows, err := r.pool.Query(ctx, query, applicantID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(
			&d.ApplicantID, &d.Type, &d.FileKey, &d.FileName, &d.ContentType,
			&d.SizeBytes, &d.Link, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
