// Package transport defines the applicants API request and response shapes.
package transport

type PassportRequest struct {
	FirstName            string `json:"firstName" validate:"required,min=2,max=100"`
	LastName             string `json:"lastName" validate:"required,min=2,max=100"`
	MiddleName           string `json:"middleName" validate:"omitempty,max=100"`
	PassportSeriesNumber string `json:"passportSeriesNumber" validate:"required,len=9,alphanum"`
	JSHSHIR              string `json:"jshshir" validate:"required,len=14,numeric"`
	BirthDate            string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Gender               string `json:"gender" validate:"required,oneof=male female"`
	Country              string `json:"country" validate:"omitempty,max=100"`
	Region               string `json:"region" validate:"omitempty,max=100"`
	District             string `json:"district" validate:"omitempty,max=100"`
	Address              string `json:"address" validate:"omitempty,max=255"`
}

type PassportResponse struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	MiddleName           string `json:"middleName,omitempty"`
	PassportSeriesNumber string `json:"passportSeriesNumber"`
	JSHSHIR              string `json:"jshshir"`
	BirthDate            string `json:"birthDate"`
	Gender               string `json:"gender"`
	Country              string `json:"country,omitempty"`
	Region               string `json:"region,omitempty"`
	District             string `json:"district,omitempty"`
	Address              string `json:"address,omitempty"`
}

type StudyInfoRequest struct {
	StudyLanguage    string `json:"studyLanguage" validate:"required,oneof=uzbek russian english"`
	StudyType        string `json:"studyType" validate:"required,oneof=bachelor master"`
	StudyForm        string `json:"studyForm" validate:"required,oneof=full_time part_time evening distance"`
	StudyDirectionID int64  `json:"studyDirectionId" validate:"required,gt=0"`
	EducationEndDate string `json:"educationEndDate" validate:"omitempty,datetime=2006-01-02"`
	CertificateLink  string `json:"certificateLink" validate:"omitempty,url,max=1024"`
	PassportLink     string `json:"passportLink" validate:"omitempty,url,max=1024"`
}

type ApplicationResponse struct {
	AdmissionNumber  int64  `json:"admissionNumber,omitempty"`
	Status           string `json:"status"`
	StudyLanguage    string `json:"studyLanguage,omitempty"`
	StudyType        string `json:"studyType,omitempty"`
	StudyForm        string `json:"studyForm,omitempty"`
	StudyDirectionID int64  `json:"studyDirectionId,omitempty"`
	StudyDirection   string `json:"studyDirection,omitempty"`
	EducationEndDate string `json:"educationEndDate,omitempty"`
	CertificateLink  string `json:"certificateLink,omitempty"`
	PassportLink     string `json:"passportLink,omitempty"`
	ContractPrice    int64  `json:"contractPrice,omitempty"`
	FinalizedAt      string `json:"finalizedAt,omitempty"`
	DecidedAt        string `json:"decidedAt,omitempty"`
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

type AdminApplicationResponse struct {
	ApplicantID string `json:"applicantId"`
	PhoneNumber string `json:"phoneNumber"`
	FullName    string `json:"fullName,omitempty"`
	ApplicationResponse
}
