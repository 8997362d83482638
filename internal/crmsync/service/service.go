// Package service orchestrates lead synchronization with the external CRM.
// Every operation is written to degrade gracefully: a CRM outage or a missing
// sync record logs and skips rather than failing the admissions workflow.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"qabul_backend/internal/crm"
	"qabul_backend/internal/crmsync/payload"
	"qabul_backend/internal/crmsync/pipeline"
	"qabul_backend/internal/crmsync/repository"
	"qabul_backend/internal/crmsync/transport"
	"qabul_backend/platform/logger"
)

// Tags attached to CRM entities created by this service, matching the labels
// the admissions team filters on in the CRM.
const (
	tagNewLead      = "Qabul sayt - Yangi Lead"
	tagPassportData = "Qabul sayt - Passport Ma'lumotlari"
)

// Gateway is the subset of CRM operations the sync service needs.
// Satisfied by *crm.Client.
type Gateway interface {
	SearchContacts(ctx context.Context, query string) ([]crm.Entity, error)
	CreateContact(ctx context.Context, req crm.ContactRequest) (crm.Entity, error)
	UpdateContact(ctx context.Context, contactID int64, req crm.ContactRequest) error
	CreateLead(ctx context.Context, req crm.LeadRequest) (crm.Entity, error)
	UpdateLead(ctx context.Context, leadID int64, req crm.LeadRequest) error
}

// Store persists applicant to CRM record links. Satisfied by *repository.Repository.
type Store interface {
	Get(ctx context.Context, applicantID uuid.UUID) (repository.LeadRecord, error)
	Upsert(ctx context.Context, params repository.UpsertParams) (repository.LeadRecord, error)
	UpdateContactSnapshot(ctx context.Context, applicantID uuid.UUID, snapshot []byte) error
	UpdateLeadSnapshot(ctx context.Context, applicantID uuid.UUID, snapshot []byte) error
}

// Service drives the lead lifecycle in the CRM. A nil *Service is a valid
// disabled integration: every method becomes a logged no-op.
type Service struct {
	gateway Gateway
	store   Store
	builder *payload.Builder
	stages  *pipeline.Table
	log     *logger.Logger
}

func New(gateway Gateway, store Store, builder *payload.Builder, stages *pipeline.Table, log *logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		store:   store,
		builder: builder,
		stages:  stages,
		log:     log,
	}
}

// CreateInitialLead ensures the applicant has a contact and a deal in the CRM.
// It is idempotent: a previously synced applicant returns the stored ids, and
// an existing contact with the same phone is reused instead of duplicated.
// CRM failures return an error so the caller can retry later; a failure to
// persist the link after the CRM entities exist is logged but not returned,
// because the next attempt recovers the contact through the phone search.
func (s *Service) CreateInitialLead(ctx context.Context, applicantID uuid.UUID, phone string) (*transport.InitialLead, error) {
	if s == nil {
		return nil, nil
	}

	if rec, err := s.store.Get(ctx, applicantID); err == nil {
		return &transport.InitialLead{ContactID: rec.ContactID, LeadID: rec.LeadID, IsNew: false}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.log.DatabaseError("crmsync.get_record", err)
		return nil, err
	}

	contactFields := s.builder.ContactFields(ctx, payload.ContactRecord{Phone: &phone})
	contactReq := crm.ContactRequest{
		Name:         fmt.Sprintf("Unknown User (%s)", phone),
		CustomFields: contactFields,
	}

	contactID, err := s.findOrCreateContact(ctx, phone, contactReq)
	if err != nil {
		return nil, err
	}

	target, _ := s.stages.Lookup(pipeline.StageFirstContact)
	leadReq := crm.LeadRequest{
		Name:       fmt.Sprintf("Yangi Lead - %s", phone),
		PipelineID: target.PipelineID,
		StatusID:   target.StatusID,
		Embedded: &crm.LeadEmbedded{
			Contacts: []crm.EntityRef{{ID: contactID}},
			Tags:     []crm.Tag{{Name: tagNewLead}},
		},
	}
	lead, err := s.gateway.CreateLead(ctx, leadReq)
	if err != nil {
		s.log.CRMError("create_lead", err)
		return nil, err
	}

	contactSnap, _ := json.Marshal(contactReq)
	leadSnap, _ := json.Marshal(leadReq)
	if _, err := s.store.Upsert(ctx, repository.UpsertParams{
		ApplicantID:     applicantID,
		ContactID:       contactID,
		LeadID:          lead.ID,
		PhoneNumber:     phone,
		ContactSnapshot: contactSnap,
		LeadSnapshot:    leadSnap,
	}); err != nil {
		// The CRM side is done; losing the link only costs a redundant phone
		// search on the next attempt.
		s.log.DatabaseError("crmsync.upsert_record", err)
	}

	return &transport.InitialLead{ContactID: contactID, LeadID: lead.ID, IsNew: true}, nil
}

// LinkIdentity patches the applicant's CRM contact with verified passport
// data. An applicant without a sync record is skipped.
func (s *Service) LinkIdentity(ctx context.Context, rec transport.PersonalRecord) error {
	if s == nil {
		return nil
	}

	stored, err := s.store.Get(ctx, rec.ApplicantID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.SyncSkipped("link_identity", rec.ApplicantID.String())
		return nil
	}
	if err != nil {
		s.log.DatabaseError("crmsync.get_record", err)
		return err
	}

	req := crm.ContactRequest{
		Name: strings.ToUpper(strings.TrimSpace(rec.LastName + " " + rec.FirstName)),
		CustomFields: s.builder.ContactFields(ctx, payload.ContactRecord{
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			MiddleName: rec.MiddleName,
			BirthDate:  rec.BirthDate,
			Gender:     rec.Gender,
			Country:    rec.Country,
			Region:     rec.Region,
			District:   rec.District,
			Address:    rec.Address,
		}),
	}
	if err := s.gateway.UpdateContact(ctx, stored.ContactID, req); err != nil {
		s.log.CRMError("update_contact", err)
		return err
	}

	if err := s.gateway.UpdateLead(ctx, stored.LeadID, crm.LeadRequest{
		Embedded: &crm.LeadEmbedded{Tags: []crm.Tag{{Name: tagPassportData}}},
	}); err != nil {
		// Tagging is cosmetic; the contact patch already landed.
		s.log.CRMError("tag_lead", err)
	}

	snapshot, _ := json.Marshal(req)
	if err := s.store.UpdateContactSnapshot(ctx, rec.ApplicantID, snapshot); err != nil {
		s.log.DatabaseError("crmsync.contact_snapshot", err)
	}

	return nil
}

// Finalize writes the applicant's program selection to the deal and moves it
// to the accepted stage. The two CRM calls are independent: a
// failure of one does not roll back the other, and both failures are reported.
func (s *Service) Finalize(ctx context.Context, sel transport.ProgramSelection) error {
	if s == nil {
		return nil
	}

	stored, err := s.store.Get(ctx, sel.ApplicantID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.SyncSkipped("finalize", sel.ApplicantID.String())
		return nil
	}
	if err != nil {
		s.log.DatabaseError("crmsync.get_record", err)
		return err
	}

	patchReq := crm.LeadRequest{
		Price: sel.Price,
		CustomFields: s.builder.DealFields(ctx, payload.DealRecord{
			StudyLanguage:    sel.StudyLanguage,
			StudyType:        sel.StudyType,
			StudyForm:        sel.StudyForm,
			StudyDirection:   sel.StudyDirection,
			EducationEndDate: sel.EducationEndDate,
			AdmissionNumber:  sel.AdmissionNumber,
			CertificateLink:  sel.CertificateLink,
			PassportLink:     sel.PassportLink,
		}),
	}
	patchErr := s.gateway.UpdateLead(ctx, stored.LeadID, patchReq)
	if patchErr != nil {
		s.log.CRMError("finalize_patch", patchErr)
	} else {
		snapshot, _ := json.Marshal(patchReq)
		if err := s.store.UpdateLeadSnapshot(ctx, sel.ApplicantID, snapshot); err != nil {
			s.log.DatabaseError("crmsync.lead_snapshot", err)
		}
	}

	stageErr := s.moveToStage(ctx, stored.LeadID, pipeline.StageAccepted)

	return errors.Join(patchErr, stageErr)
}

// TransitionStage moves the applicant's deal to the terminal stage matching
// the admission decision.
func (s *Service) TransitionStage(ctx context.Context, applicantID uuid.UUID, outcome transport.Outcome) error {
	if s == nil {
		return nil
	}

	stored, err := s.store.Get(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.SyncSkipped("transition_stage", applicantID.String())
		return nil
	}
	if err != nil {
		s.log.DatabaseError("crmsync.get_record", err)
		return err
	}

	stage := pipeline.StageRejected
	if outcome == transport.OutcomeAccepted {
		stage = pipeline.StageAccepted
	}

	return s.moveToStage(ctx, stored.LeadID, stage)
}

func (s *Service) findOrCreateContact(ctx context.Context, phone string, req crm.ContactRequest) (int64, error) {
	matches, err := s.gateway.SearchContacts(ctx, phone)
	if err != nil {
		s.log.CRMError("search_contacts", err)
		return 0, err
	}

	switch {
	case len(matches) == 0:
		contact, err := s.gateway.CreateContact(ctx, req)
		if err != nil {
			s.log.CRMError("create_contact", err)
			return 0, err
		}
		return contact.ID, nil
	case len(matches) > 1:
		s.log.Warn("multiple contacts matched phone, using first",
			"phone", phone,
			"matches", len(matches),
			"contact_id", matches[0].ID,
		)
	}

	return matches[0].ID, nil
}

func (s *Service) moveToStage(ctx context.Context, leadID int64, stage pipeline.Stage) error {
	target, ok := s.stages.Lookup(stage)
	if !ok {
		return fmt.Errorf("stage %q not configured", stage)
	}
	if err := s.gateway.UpdateLead(ctx, leadID, crm.LeadRequest{
		PipelineID: target.PipelineID,
		StatusID:   target.StatusID,
	}); err != nil {
		s.log.CRMError("move_stage", err)
		return err
	}
	return nil
}
