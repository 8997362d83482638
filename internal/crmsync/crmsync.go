// Package crmsync keeps the admissions workflow mirrored into the external
// CRM: one contact and one deal per applicant, advanced through the pipeline
// as the application progresses.
package crmsync

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"qabul_backend/internal/crmsync/payload"
	"qabul_backend/internal/crmsync/transport"
	"qabul_backend/internal/events"
)

// LeadSyncer is the synchronization contract exposed to the rest of the
// application. Implemented by the module's service; consumers never talk to
// the CRM client directly.
type LeadSyncer interface {
	CreateInitialLead(ctx context.Context, applicantID uuid.UUID, phone string) (*transport.InitialLead, error)
	LinkIdentity(ctx context.Context, rec transport.PersonalRecord) error
	Finalize(ctx context.Context, sel transport.ProgramSelection) error
	TransitionStage(ctx context.Context, applicantID uuid.UUID, outcome transport.Outcome) error
}

// Operation names used when a failed sync is handed to the retry queue.
const (
	OpCreateInitialLead = "crmsync:create_initial_lead"
	OpLinkIdentity      = "crmsync:link_identity"
	OpFinalize          = "crmsync:finalize"
	OpTransitionStage   = "crmsync:transition_stage"
)

// Enqueuer defers a failed sync operation for later execution. Implemented by
// the sync queue client; a nil Enqueuer means failures are logged and dropped.
type Enqueuer interface {
	EnqueueRetry(ctx context.Context, operation string, payload []byte) error
}

// PersonalRecordFrom converts an identity event into the sync record shape.
// Shared between the live event handler and the deferred retry worker.
func PersonalRecordFrom(e events.IdentityVerified) transport.PersonalRecord {
	return transport.PersonalRecord{
		ApplicantID: e.ApplicantID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		MiddleName:  optional(e.MiddleName),
		BirthDate:   optional(e.BirthDate),
		Gender:      optional(genderCode(e.Gender)),
		Country:     optional(e.Country),
		Region:      optional(e.Region),
		District:    optional(e.District),
		Address:     optional(e.Address),
	}
}

// ProgramSelectionFrom converts a finalization event into the sync record shape.
func ProgramSelectionFrom(e events.ApplicationFinalized) transport.ProgramSelection {
	price := e.Price
	sel := transport.ProgramSelection{
		ApplicantID:      e.ApplicantID,
		StudyLanguage:    optional(languageCode(e.StudyLanguage)),
		StudyType:        optional(e.StudyType),
		StudyForm:        optional(e.StudyForm),
		StudyDirection:   optional(e.StudyDirection),
		EducationEndDate: e.EducationEndDate,
		CertificateLink:  optional(e.CertificateLink),
		PassportLink:     optional(e.PassportLink),
		// Zero is a legitimate price for grant-funded applications, so it is
		// sent rather than omitted.
		Price: &price,
	}
	if e.AdmissionNumber > 0 {
		sel.AdmissionNumber = optional(strconv.FormatInt(e.AdmissionNumber, 10))
	}
	return sel
}

// genderCode maps the domain gender to the enum value the CRM schema uses.
// Values already in CRM form pass through unchanged.
func genderCode(gender string) string {
	switch gender {
	case "male":
		return payload.GenderMale
	case "female":
		return payload.GenderFemale
	default:
		return gender
	}
}

// languageCode maps a study language to its CRM enum value.
func languageCode(language string) string {
	switch language {
	case "uzbek":
		return payload.LanguageUzbek
	case "russian":
		return payload.LanguageRussian
	case "english":
		return payload.LanguageEnglish
	default:
		return language
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
