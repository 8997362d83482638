// Package repository persists applicant accounts and SMS verification codes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound    = errors.New("applicant not found")
	ErrCodeInvalid = errors.New("verification code invalid")
)

type Applicant struct {
	ID            uuid.UUID
	PhoneNumber   string
	PasswordHash  string
	PhoneVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateApplicant(ctx context.Context, phone, passwordHash string) (Applicant, error) {
	var a Applicant
	err := r.pool.QueryRow(ctx, `
		INSERT INTO applicants (phone_number, password_hash)
		VALUES ($1, $2)
		RETURNING id, phone_number, password_hash, phone_verified, created_at, updated_at
	`, phone, passwordHash).Scan(
		&a.ID, &a.PhoneNumber, &a.PasswordHash, &a.PhoneVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return Applicant{}, err
	}
	return a, nil
}

func (r *Repository) GetByPhone(ctx context.Context, phone string) (Applicant, error) {
	var a Applicant
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone_number, password_hash, phone_verified, created_at, updated_at
		FROM applicants WHERE phone_number = $1
	`, phone).Scan(
		&a.ID, &a.PhoneNumber, &a.PasswordHash, &a.PhoneVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Applicant{}, ErrNotFound
	}
	return a, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Applicant, error) {
	var a Applicant
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone_number, password_hash, phone_verified, created_at, updated_at
		FROM applicants WHERE id = $1
	`, id).Scan(
		&a.ID, &a.PhoneNumber, &a.PasswordHash, &a.PhoneVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Applicant{}, ErrNotFound
	}
	return a, err
}

func (r *Repository) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE applicants SET phone_verified = true, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE applicants SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSMSCode stores a hashed one-time code, invalidating earlier unused
// codes for the same applicant.
func (r *Repository) CreateSMSCode(ctx context.Context, applicantID uuid.UUID, codeHash string, expiresAt time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE sms_codes SET used_at = now()
		WHERE applicant_id = $1 AND used_at IS NULL
	`, applicantID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sms_codes (applicant_id, code_hash, expires_at)
		VALUES ($1, $2, $3)
	`, applicantID, codeHash, expiresAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ConsumeSMSCode validates and burns a one-time code in a single statement.
func (r *Repository) ConsumeSMSCode(ctx context.Context, applicantID uuid.UUID, codeHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE sms_codes SET used_at = now()
		WHERE applicant_id = $1 AND code_hash = $2 AND used_at IS NULL AND expires_at > now()
	`, applicantID, codeHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCodeInvalid
	}
	return nil
}
