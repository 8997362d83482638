// Package repository provides persistence for passport data and applications.
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

// Application lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrWrongStatus = errors.New("application is not in the required status")
)

// Passport holds the captured identity fields for one applicant.
type Passport struct {
	ApplicantID          uuid.UUID
	FirstName            string
	LastName             string
	MiddleName           *string
	PassportSeriesNumber string
	JSHSHIR              string
	BirthDate            string
	Gender               string
	Country              *string
	Region               *string
	District             *string
	Address              *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Application is the applicant's program selection and its lifecycle state.
type Application struct {
	ApplicantID      uuid.UUID
	AdmissionNumber  int64
	Status           string
	StudyLanguage    string
	StudyType        string
	StudyForm        string
	StudyDirectionID int64
	StudyDirection   string
	ContractPrice    int64
	EducationEndDate *string
	CertificateLink  *string
	PassportLink     *string
	FinalizedAt      *time.Time
	DecidedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AdminApplication is an application joined with applicant identity for the
// admissions office listing.
type AdminApplication struct {
	Application
	PhoneNumber string
	FirstName   *string
	LastName    *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertPassport stores or replaces the applicant's passport data.
func (r *Repository) UpsertPassport(ctx context.Context, p Passport) error {
	query := `
		INSERT INTO passport_data (
			applicant_id, first_name, last_name, middle_name,
			passport_series_number, jshshir, birth_date, gender,
			country, region, district, address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (applicant_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			middle_name = EXCLUDED.middle_name,
			passport_series_number = EXCLUDED.passport_series_number,
			jshshir = EXCLUDED.jshshir,
			birth_date = EXCLUDED.birth_date,
			gender = EXCLUDED.gender,
			country = EXCLUDED.country,
			region = EXCLUDED.region,
			district = EXCLUDED.district,
			address = EXCLUDED.address,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		p.ApplicantID, p.FirstName, p.LastName, p.MiddleName,
		p.PassportSeriesNumber, p.JSHSHIR, p.BirthDate, p.Gender,
		p.Country, p.Region, p.District, p.Address,
	)
	if err != nil {
		return fmt.Errorf("upsert passport: %w", err)
	}
	return nil
}

// GetPassport returns the applicant's passport data.
func (r *Repository) GetPassport(ctx context.Context, applicantID uuid.UUID) (Passport, error) {
	query := `
		SELECT applicant_id, first_name, last_name, middle_name,
			passport_series_number, jshshir, to_char(birth_date, 'YYYY-MM-DD'), gender,
			country, region, district, address, created_at, updated_at
		FROM passport_data
		WHERE applicant_id = $1`

	var p Passport
	err := r.pool.QueryRow(ctx, query, applicantID).Scan(
		&p.ApplicantID, &p.FirstName, &p.LastName, &p.MiddleName,
		&p.PassportSeriesNumber, &p.JSHSHIR, &p.BirthDate, &p.Gender,
		&p.Country, &p.Region, &p.District, &p.Address, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Passport{}, ErrNotFound
	}
	if err != nil {
		return Passport{}, fmt.Errorf("get passport: %w", err)
	}
	return p, nil
}

// UpsertStudyInfo stores the program selection while the application is still
// a draft. Returns ErrWrongStatus once the application has been finalized.
func (r *Repository) UpsertStudyInfo(ctx context.Context, a Application) error {
	query := `
		INSERT INTO applications (
			applicant_id, status, study_language, study_type, study_form,
			study_direction_id, study_direction, contract_price,
			education_end_date, certificate_link, passport_link
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (applicant_id) DO UPDATE SET
			study_language = EXCLUDED.study_language,
			study_type = EXCLUDED.study_type,
			study_form = EXCLUDED.study_form,
			study_direction_id = EXCLUDED.study_direction_id,
			study_direction = EXCLUDED.study_direction,
			contract_price = EXCLUDED.contract_price,
			education_end_date = EXCLUDED.education_end_date,
			certificate_link = EXCLUDED.certificate_link,
			passport_link = EXCLUDED.passport_link,
			updated_at = now()
		WHERE applications.status = $2`

	tag, err := r.pool.Exec(ctx, query,
		a.ApplicantID, StatusDraft, a.StudyLanguage, a.StudyType, a.StudyForm,
		a.StudyDirectionID, a.StudyDirection, a.ContractPrice,
		a.EducationEndDate, a.CertificateLink, a.PassportLink,
	)
	if err != nil {
		return fmt.Errorf("upsert study info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongStatus
	}
	return nil
}

// GetApplication returns the applicant's application.
func (r *Repository) GetApplication(ctx context.Context, applicantID uuid.UUID) (Application, error) {
	query := `
		SELECT applicant_id, admission_number, status, study_language, study_type, study_form,
			study_direction_id, study_direction, contract_price,
			to_char(education_end_date, 'YYYY-MM-DD'), certificate_link, passport_link,
			finalized_at, decided_at, created_at, updated_at
		FROM applications
		WHERE applicant_id = $1`

	var a Application
	err := r.pool.QueryRow(ctx, query, applicantID).Scan(
		&a.ApplicantID, &a.AdmissionNumber, &a.Status, &a.StudyLanguage, &a.StudyType, &a.StudyForm,
		&a.StudyDirectionID, &a.StudyDirection, &a.ContractPrice,
		&a.EducationEndDate, &a.CertificateLink, &a.PassportLink,
		&a.FinalizedAt, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// MarkFinalized moves a draft application to submitted.
func (r *Repository) MarkFinalized(ctx context.Context, applicantID uuid.UUID) error {
	query := `
		UPDATE applications
		SET status = $2, finalized_at = now(), updated_at = now()
		WHERE applicant_id = $1 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, applicantID, StatusSubmitted, StatusDraft)
	if err != nil {
		return fmt.Errorf("mark finalized: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongStatus
	}
	return nil
}

// MarkDecided moves a submitted application to its terminal status.
func (r *Repository) MarkDecided(ctx context.Context, applicantID uuid.UUID, status string) error {
	query := `
		UPDATE applications
		SET status = $2, decided_at = now(), updated_at = now()
		WHERE applicant_id = $1 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, applicantID, status, StatusSubmitted)
	if err != nil {
		return fmt.Errorf("mark decided: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongStatus
	}
	return nil
}

// ListByStatus returns applications in a status with applicant identity, for
// the admissions office.
func (r *Repository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]AdminApplication, error) {
	query := `
		SELECT a.applicant_id, a.admission_number, a.status, a.study_language, a.study_type, a.study_form,
			a.study_direction_id, a.study_direction, a.contract_price,
			to_char(a.education_end_date, 'YYYY-MM-DD'), a.certificate_link, a.passport_link,
			a.finalized_at, a.decided_at, a.created_at, a.updated_at,
			u.phone_number, p.first_name, p.last_name
		FROM applications a
		JOIN applicants u ON u.id = a.applicant_id
		LEFT JOIN passport_data p ON p.applicant_id = a.applicant_id
		WHERE a.status = $1
		ORDER BY a.updated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []AdminApplication
	for rows.Next() {
		var a AdminApplication
		if err := rows.Scan(
			&a.ApplicantID, &a.AdmissionNumber, &a.Status, &a.StudyLanguage, &a.StudyType, &a.StudyForm,
			&a.StudyDirectionID, &a.StudyDirection, &a.ContractPrice,
			&a.EducationEndDate, &a.CertificateLink, &a.PassportLink,
			&a.FinalizedAt, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt,
			&a.PhoneNumber, &a.FirstName, &a.LastName,
		); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
