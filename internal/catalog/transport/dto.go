// Package transport defines the catalog API request and response shapes.
package transport

// Study languages, types and forms accepted by the admissions API. Fixed
// enumerations, not reference tables.
var (
	StudyLanguages = []string{"uzbek", "russian", "english"}
	StudyTypes     = []string{"bachelor", "master"}
	StudyForms     = []string{"full_time", "part_time", "evening", "distance"}
)

type StudyDirectionResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContractPrice int64  `json:"contractPrice"`
	Active        bool   `json:"active"`
}

type CreateStudyDirectionRequest struct {
	Name          string `json:"name" validate:"required,min=3,max=255"`
	ContractPrice int64  `json:"contractPrice" validate:"required,gt=0"`
}

type UpdateStudyDirectionRequest struct {
	ContractPrice *int64 `json:"contractPrice" validate:"omitempty,gt=0"`
	Active        *bool  `json:"active"`
}

type ReferenceResponse struct {
	StudyLanguages  []string                 `json:"studyLanguages"`
	StudyTypes      []string                 `json:"studyTypes"`
	StudyForms      []string                 `json:"studyForms"`
	StudyDirections []StudyDirectionResponse `json:"studyDirections"`
}
