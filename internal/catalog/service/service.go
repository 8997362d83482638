// Package service implements the admissions reference data operations.
package service

import (
	"context"
	"errors"

	"qabul_backend/internal/catalog/repository"
	"qabul_backend/internal/catalog/transport"
	"qabul_backend/platform/apperr"
)

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository.
type Store interface {
	ListStudyDirections(ctx context.Context) ([]repository.StudyDirection, error)
	GetStudyDirection(ctx context.Context, id int64) (repository.StudyDirection, error)
	CreateStudyDirection(ctx context.Context, name string, contractPrice int64) (repository.StudyDirection, error)
	UpdateStudyDirection(ctx context.Context, id int64, contractPrice *int64, active *bool) (repository.StudyDirection, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// References returns everything a program-selection form needs in one shot.
func (s *Service) References(ctx context.Context) (transport.ReferenceResponse, error) {
	directions, err := s.store.ListStudyDirections(ctx)
	if err != nil {
		return transport.ReferenceResponse{}, err
	}

	resp := transport.ReferenceResponse{
		StudyLanguages:  transport.StudyLanguages,
		StudyTypes:      transport.StudyTypes,
		StudyForms:      transport.StudyForms,
		StudyDirections: make([]transport.StudyDirectionResponse, 0, len(directions)),
	}
	for _, d := range directions {
		resp.StudyDirections = append(resp.StudyDirections, toResponse(d))
	}
	return resp, nil
}

// StudyDirection returns a single direction, including inactive ones so that
// already-submitted applications keep resolving.
func (s *Service) StudyDirection(ctx context.Context, id int64) (repository.StudyDirection, error) {
	direction, err := s.store.GetStudyDirection(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.StudyDirection{}, apperr.NotFound("study direction not found")
	}
	return direction, err
}

func (s *Service) CreateStudyDirection(ctx context.Context, req transport.CreateStudyDirectionRequest) (transport.StudyDirectionResponse, error) {
	direction, err := s.store.CreateStudyDirection(ctx, req.Name, req.ContractPrice)
	if err != nil {
		return transport.StudyDirectionResponse{}, err
	}
	return toResponse(direction), nil
}

func (s *Service) UpdateStudyDirection(ctx context.Context, id int64, req transport.UpdateStudyDirectionRequest) (transport.StudyDirectionResponse, error) {
	direction, err := s.store.UpdateStudyDirection(ctx, id, req.ContractPrice, req.Active)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.StudyDirectionResponse{}, apperr.NotFound("study direction not found")
	}
	if err != nil {
		return transport.StudyDirectionResponse{}, err
	}
	return toResponse(direction), nil
}

func toResponse(d repository.StudyDirection) transport.StudyDirectionResponse {
	return transport.StudyDirectionResponse{
		ID:            d.ID,
		Name:          d.Name,
		ContractPrice: d.ContractPrice,
		Active:        d.Active,
	}
}
