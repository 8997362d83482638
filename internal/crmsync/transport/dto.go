// Package transport defines the request and result shapes of the CRM sync
// service, decoupled from both HTTP handlers and the CRM wire format.
package transport

import "github.com/google/uuid"

// InitialLead is the result of the first sync for an applicant.
type InitialLead struct {
	ContactID int64 `json:"contact_id"`
	LeadID    int64 `json:"lead_id"`
	IsNew     bool  `json:"is_new"`
}

// PersonalRecord carries verified identity data for the contact update.
// Optional attributes are pointers so absent values stay out of the payload.
type PersonalRecord struct {
	ApplicantID uuid.UUID
	FirstName   string
	LastName    string
	MiddleName  *string
	BirthDate   *string
	Gender      *string
	Country     *string
	Region      *string
	District    *string
	Address     *string
}

// ProgramSelection carries the applicant's study choices for the deal update.
type ProgramSelection struct {
	ApplicantID      uuid.UUID
	StudyLanguage    *string
	StudyType        *string
	StudyForm        *string
	StudyDirection   *string
	EducationEndDate string
	AdmissionNumber  *string
	CertificateLink  *string
	PassportLink     *string
	Price            *int64
}

// Outcome is the admission decision driving the terminal stage transition.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)
