// Package repository persists the link between applicants and their CRM
// records. Rows are written once per applicant and never deleted; absence of a
// row means the initial sync has not happened yet.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead record not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LeadRecord is the durable mapping from an applicant to the CRM contact and
// deal created for them. The snapshots hold the last payload sent for each
// entity, kept for reconciliation and debugging.
type LeadRecord struct {
	ApplicantID     uuid.UUID
	ContactID       int64
	LeadID          int64
	PhoneNumber     string
	ContactSnapshot []byte
	LeadSnapshot    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UpsertParams carries a full record state. Nil snapshots leave the stored
// snapshot untouched.
type UpsertParams struct {
	ApplicantID     uuid.UUID
	ContactID       int64
	LeadID          int64
	PhoneNumber     string
	ContactSnapshot []byte
	LeadSnapshot    []byte
}

func (r *Repository) Get(ctx context.Context, applicantID uuid.UUID) (LeadRecord, error) {
	var rec LeadRecord
	err := r.pool.QueryRow(ctx, `
		SELECT applicant_id, contact_id, lead_id, phone_number, contact_snapshot, lead_snapshot, created_at, updated_at
		FROM lead_records
		WHERE applicant_id = $1
	`, applicantID).Scan(
		&rec.ApplicantID, &rec.ContactID, &rec.LeadID, &rec.PhoneNumber,
		&rec.ContactSnapshot, &rec.LeadSnapshot, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeadRecord{}, ErrNotFound
	}
	return rec, err
}

func (r *Repository) Upsert(ctx context.Context, params UpsertParams) (LeadRecord, error) {
	var rec LeadRecord
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_records (applicant_id, contact_id, lead_id, phone_number, contact_snapshot, lead_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (applicant_id) DO UPDATE SET
			contact_id = EXCLUDED.contact_id,
			lead_id = EXCLUDED.lead_id,
			phone_number = EXCLUDED.phone_number,
			contact_snapshot = COALESCE(EXCLUDED.contact_snapshot, lead_records.contact_snapshot),
			lead_snapshot = COALESCE(EXCLUDED.lead_snapshot, lead_records.lead_snapshot),
			updated_at = now()
		RETURNING applicant_id, contact_id, lead_id, phone_number, contact_snapshot, lead_snapshot, created_at, updated_at
	`,
		params.ApplicantID, params.ContactID, params.LeadID, params.PhoneNumber,
		params.ContactSnapshot, params.LeadSnapshot,
	).Scan(
		&rec.ApplicantID, &rec.ContactID, &rec.LeadID, &rec.PhoneNumber,
		&rec.ContactSnapshot, &rec.LeadSnapshot, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return LeadRecord{}, err
	}

	return rec, nil
}

// UpdateContactSnapshot replaces only the contact snapshot of an existing record.
func (r *Repository) UpdateContactSnapshot(ctx context.Context, applicantID uuid.UUID, snapshot []byte) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE lead_records SET contact_snapshot = $2, updated_at = now()
		WHERE applicant_id = $1
	`, applicantID, snapshot)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLeadSnapshot replaces only the deal snapshot of an existing record.
func (r *Repository) UpdateLeadSnapshot(ctx context.Context, applicantID uuid.UUID, snapshot []byte) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE lead_records SET lead_snapshot = $2, updated_at = now()
		WHERE applicant_id = $1
	`, applicantID, snapshot)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
