// Package service implements the admissions application workflow: passport
// capture, program selection, finalization and the admissions decision.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"qabul_backend/internal/applicants/repository"
	"qabul_backend/internal/applicants/transport"
	catalogrepo "qabul_backend/internal/catalog/repository"
	"qabul_backend/internal/events"
	"qabul_backend/platform/apperr"
	"qabul_backend/platform/logger"
	"qabul_backend/platform/sanitize"
)

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository.
type Store interface {
	UpsertPassport(ctx context.Context, p repository.Passport) error
	GetPassport(ctx context.Context, applicantID uuid.UUID) (repository.Passport, error)
	UpsertStudyInfo(ctx context.Context, a repository.Application) error
	GetApplication(ctx context.Context, applicantID uuid.UUID) (repository.Application, error)
	MarkFinalized(ctx context.Context, applicantID uuid.UUID) error
	MarkDecided(ctx context.Context, applicantID uuid.UUID, status string) error
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]repository.AdminApplication, error)
}

// Directions resolves study directions. Satisfied by the catalog service.
type Directions interface {
	StudyDirection(ctx context.Context, id int64) (catalogrepo.StudyDirection, error)
}

type Service struct {
	store      Store
	directions Directions
	bus        events.Bus
	log        *logger.Logger
}

func New(store Store, directions Directions, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, directions: directions, bus: bus, log: log}
}

// SubmitPassport stores the applicant's identity fields and announces the
// verified identity. Resubmission overwrites the stored data.
func (s *Service) SubmitPassport(ctx context.Context, applicantID uuid.UUID, req transport.PassportRequest) (transport.PassportResponse, error) {
	req.FirstName = sanitize.Text(req.FirstName)
	req.LastName = sanitize.Text(req.LastName)
	req.MiddleName = sanitize.Text(req.MiddleName)
	req.Country = sanitize.Text(req.Country)
	req.Region = sanitize.Text(req.Region)
	req.District = sanitize.Text(req.District)
	req.Address = sanitize.Text(req.Address)

	p := repository.Passport{
		ApplicantID:          applicantID,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		MiddleName:           optional(req.MiddleName),
		PassportSeriesNumber: req.PassportSeriesNumber,
		JSHSHIR:              req.JSHSHIR,
		BirthDate:            req.BirthDate,
		Gender:               req.Gender,
		Country:              optional(req.Country),
		Region:               optional(req.Region),
		District:             optional(req.District),
		Address:              optional(req.Address),
	}

	if err := s.store.UpsertPassport(ctx, p); err != nil {
		return transport.PassportResponse{}, err
	}

	s.bus.Publish(ctx, events.IdentityVerified{
		BaseEvent:   events.NewBaseEvent(),
		ApplicantID: applicantID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		MiddleName:  req.MiddleName,
		BirthDate:   req.BirthDate,
		Gender:      req.Gender,
		Country:     req.Country,
		Region:      req.Region,
		District:    req.District,
		Address:     req.Address,
	})

	return passportResponse(p), nil
}

func (s *Service) GetPassport(ctx context.Context, applicantID uuid.UUID) (transport.PassportResponse, error) {
	p, err := s.store.GetPassport(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.PassportResponse{}, apperr.NotFound("passport data not found")
	}
	if err != nil {
		return transport.PassportResponse{}, err
	}
	return passportResponse(p), nil
}

// SaveStudyInfo stores the program selection. The contract price is
// snapshotted from the chosen direction so later catalog edits do not change
// an applicant's price.
func (s *Service) SaveStudyInfo(ctx context.Context, applicantID uuid.UUID, req transport.StudyInfoRequest) (transport.ApplicationResponse, error) {
	direction, err := s.directions.StudyDirection(ctx, req.StudyDirectionID)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}
	if !direction.Active {
		return transport.ApplicationResponse{}, apperr.Validation("study direction is not accepting applications")
	}

	app := repository.Application{
		ApplicantID:      applicantID,
		StudyLanguage:    req.StudyLanguage,
		StudyType:        req.StudyType,
		StudyForm:        req.StudyForm,
		StudyDirectionID: direction.ID,
		StudyDirection:   direction.Name,
		ContractPrice:    direction.ContractPrice,
		EducationEndDate: optional(req.EducationEndDate),
		CertificateLink:  optional(req.CertificateLink),
		PassportLink:     optional(req.PassportLink),
	}

	err = s.store.UpsertStudyInfo(ctx, app)
	if errors.Is(err, repository.ErrWrongStatus) {
		return transport.ApplicationResponse{}, apperr.Conflict("application has already been submitted")
	}
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	return s.GetApplication(ctx, applicantID)
}

func (s *Service) GetApplication(ctx context.Context, applicantID uuid.UUID) (transport.ApplicationResponse, error) {
	app, err := s.store.GetApplication(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ApplicationResponse{}, apperr.NotFound("application not found")
	}
	if err != nil {
		return transport.ApplicationResponse{}, err
	}
	return applicationResponse(app), nil
}

// Finalize submits the application. Requires stored passport data and a
// program selection; announces the finalized application with its price.
func (s *Service) Finalize(ctx context.Context, applicantID uuid.UUID) (transport.ApplicationResponse, error) {
	if _, err := s.store.GetPassport(ctx, applicantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ApplicationResponse{}, apperr.Validation("passport data must be submitted first")
		}
		return transport.ApplicationResponse{}, err
	}

	app, err := s.store.GetApplication(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ApplicationResponse{}, apperr.Validation("study information must be submitted first")
	}
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	err = s.store.MarkFinalized(ctx, applicantID)
	if errors.Is(err, repository.ErrWrongStatus) {
		return transport.ApplicationResponse{}, apperr.Conflict("application has already been submitted")
	}
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	s.bus.Publish(ctx, events.ApplicationFinalized{
		BaseEvent:        events.NewBaseEvent(),
		ApplicantID:      applicantID,
		AdmissionNumber:  app.AdmissionNumber,
		StudyLanguage:    app.StudyLanguage,
		StudyType:        app.StudyType,
		StudyForm:        app.StudyForm,
		StudyDirection:   app.StudyDirection,
		EducationEndDate: deref(app.EducationEndDate),
		CertificateLink:  deref(app.CertificateLink),
		PassportLink:     deref(app.PassportLink),
		Price:            app.ContractPrice,
	})

	return s.GetApplication(ctx, applicantID)
}

// Decide records the admissions decision on a submitted application.
func (s *Service) Decide(ctx context.Context, applicantID uuid.UUID, decision string) (transport.ApplicationResponse, error) {
	var status string
	switch decision {
	case repository.StatusAccepted, repository.StatusRejected:
		status = decision
	default:
		return transport.ApplicationResponse{}, apperr.Validation("decision must be accepted or rejected")
	}

	err := s.store.MarkDecided(ctx, applicantID, status)
	if errors.Is(err, repository.ErrWrongStatus) {
		return transport.ApplicationResponse{}, apperr.Conflict("application is not awaiting a decision")
	}
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	s.bus.Publish(ctx, events.DecisionIssued{
		BaseEvent:   events.NewBaseEvent(),
		ApplicantID: applicantID,
		Accepted:    status == repository.StatusAccepted,
	})

	return s.GetApplication(ctx, applicantID)
}

// ListApplications returns applications in a status for the admissions office.
func (s *Service) ListApplications(ctx context.Context, status string, limit, offset int) ([]transport.AdminApplicationResponse, error) {
	switch status {
	case repository.StatusDraft, repository.StatusSubmitted, repository.StatusAccepted, repository.StatusRejected:
	default:
		return nil, apperr.Validation("unknown application status")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	apps, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]transport.AdminApplicationResponse, 0, len(apps))
	for _, a := range apps {
		resp := transport.AdminApplicationResponse{
			ApplicantID:         a.ApplicantID.String(),
			PhoneNumber:         a.PhoneNumber,
			ApplicationResponse: applicationResponse(a.Application),
		}
		if a.LastName != nil || a.FirstName != nil {
			resp.FullName = deref(a.LastName) + " " + deref(a.FirstName)
		}
		out = append(out, resp)
	}
	return out, nil
}

func passportResponse(p repository.Passport) transport.PassportResponse {
	return transport.PassportResponse{
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		MiddleName:           deref(p.MiddleName),
		PassportSeriesNumber: p.PassportSeriesNumber,
		JSHSHIR:              p.JSHSHIR,
		BirthDate:            p.BirthDate,
		Gender:               p.Gender,
		Country:              deref(p.Country),
		Region:               deref(p.Region),
		District:             deref(p.District),
		Address:              deref(p.Address),
	}
}

func applicationResponse(a repository.Application) transport.ApplicationResponse {
	resp := transport.ApplicationResponse{
		AdmissionNumber:  a.AdmissionNumber,
		Status:           a.Status,
		StudyLanguage:    a.StudyLanguage,
		StudyType:        a.StudyType,
		StudyForm:        a.StudyForm,
		StudyDirectionID: a.StudyDirectionID,
		StudyDirection:   a.StudyDirection,
		EducationEndDate: deref(a.EducationEndDate),
		CertificateLink:  deref(a.CertificateLink),
		PassportLink:     deref(a.PassportLink),
		ContractPrice:    a.ContractPrice,
	}
	if a.FinalizedAt != nil {
		resp.FinalizedAt = a.FinalizedAt.Format(time.RFC3339)
	}
	if a.DecidedAt != nil {
		resp.DecidedAt = a.DecidedAt.Format(time.RFC3339)
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
