// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"qabul_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Admissions Milestone Events
// =============================================================================
// These are the four milestones at which the admissions workflow hands state
// to the CRM sync layer. Subscribers must absorb their own failures: a CRM
// outage never propagates back into the publishing workflow.

// ApplicantRegistered is published when a new applicant completes
// phone-verified registration.
type ApplicantRegistered struct {
	BaseEvent
	ApplicantID uuid.UUID `json:"applicantId"`
	PhoneNumber string    `json:"phoneNumber"`
}

func (e ApplicantRegistered) EventName() string { return "admissions.applicant.registered" }

// IdentityVerified is published when an applicant's passport data has been
// captured and verified.
type IdentityVerified struct {
	BaseEvent
	ApplicantID uuid.UUID `json:"applicantId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	MiddleName  string    `json:"middleName,omitempty"`
	BirthDate   string    `json:"birthDate,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Country     string    `json:"country,omitempty"`
	Region      string    `json:"region,omitempty"`
	District    string    `json:"district,omitempty"`
	Address     string    `json:"address,omitempty"`
}

func (e IdentityVerified) EventName() string { return "admissions.identity.verified" }

// ApplicationFinalized is published when an applicant completes program
// selection and the contract price is fixed.
type ApplicationFinalized struct {
	BaseEvent
	ApplicantID      uuid.UUID `json:"applicantId"`
	AdmissionNumber  int64     `json:"admissionNumber"`
	StudyLanguage    string    `json:"studyLanguage,omitempty"`
	StudyType        string    `json:"studyType,omitempty"`
	StudyForm        string    `json:"studyForm,omitempty"`
	StudyDirection   string    `json:"studyDirection,omitempty"`
	EducationEndDate string    `json:"educationEndDate,omitempty"`
	CertificateLink  string    `json:"certificateLink,omitempty"`
	PassportLink     string    `json:"passportLink,omitempty"`
	Price            int64     `json:"price"`
}

func (e ApplicationFinalized) EventName() string { return "admissions.application.finalized" }

// DecisionIssued is published when the admissions committee accepts or
// rejects an application.
type DecisionIssued struct {
	BaseEvent
	ApplicantID uuid.UUID `json:"applicantId"`
	Accepted    bool      `json:"accepted"`
}

func (e DecisionIssued) EventName() string { return "admissions.decision.issued" }
