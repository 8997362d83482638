// Package repository provides persistence for admissions reference data.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a study direction does not exist.
var ErrNotFound = errors.New("study direction not found")

// StudyDirection is a degree program an applicant can apply to. ContractPrice
// is the yearly tuition in UZS.
type StudyDirection struct {
	ID            int64
	Name          string
	ContractPrice int64
	Active        bool
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListStudyDirections returns active directions ordered by name.
func (r *Repository) ListStudyDirections(ctx context.Context) ([]StudyDirection, error) {
	query := `
		SELECT id, name, contract_price, active
		FROM study_directions
		WHERE active
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list study directions: %w", err)
	}
	defer rows.Close()

	var directions []StudyDirection
	for rows.Next() {
		var d StudyDirection
		if err := rows.Scan(&d.ID, &d.Name, &d.ContractPrice, &d.Active); err != nil {
			return nil, fmt.Errorf("scan study direction: %w", err)
		}
		directions = append(directions, d)
	}
	return directions, rows.Err()
}

// GetStudyDirection returns a direction by id, active or not.
func (r *Repository) GetStudyDirection(ctx context.Context, id int64) (StudyDirection, error) {
	query := `
		SELECT id, name, contract_price, active
		FROM study_directions
		WHERE id = $1`

	var d StudyDirection
	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.ContractPrice, &d.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return StudyDirection{}, ErrNotFound
	}
	if err != nil {
		return StudyDirection{}, fmt.Errorf("get study direction: %w", err)
	}
	return d, nil
}

// CreateStudyDirection inserts a direction and returns it with its id.
func (r *Repository) CreateStudyDirection(ctx context.Context, name string, contractPrice int64) (StudyDirection, error) {
	query := `
		INSERT INTO study_directions (name, contract_price, active)
		VALUES ($1, $2, true)
		RETURNING id, name, contract_price, active`

	var d StudyDirection
	err := r.pool.QueryRow(ctx, query, name, contractPrice).Scan(&d.ID, &d.Name, &d.ContractPrice, &d.Active)
	if err != nil {
		return StudyDirection{}, fmt.Errorf("create study direction: %w", err)
	}
	return d, nil
}

// UpdateStudyDirection patches price and active flag. Nil fields keep the
// stored value.
func (r *Repository) UpdateStudyDirection(ctx context.Context, id int64, contractPrice *int64, active *bool) (StudyDirection, error) {
	query := `
		UPDATE study_directions
		SET contract_price = COALESCE($2, contract_price),
			active = COALESCE($3, active),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, contract_price, active`

	var d StudyDirection
	err := r.pool.QueryRow(ctx, query, id, contractPrice, active).Scan(&d.ID, &d.Name, &d.ContractPrice, &d.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return StudyDirection{}, ErrNotFound
	}
	if err != nil {
		return StudyDirection{}, fmt.Errorf("update study direction: %w", err)
	}
	return d, nil
}
