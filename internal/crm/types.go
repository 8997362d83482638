// Package crm provides the HTTP client for the external amoCRM-style API.
// This is the only package that performs network I/O against the CRM.
package crm

import "fmt"

// Built-in field codes. Phone and email are provider built-ins addressed by a
// symbolic code; every other field uses a numeric id discovered at runtime.
const (
	FieldCodePhone = "PHONE"
	FieldCodeEmail = "EMAIL"
)

// TransportError describes a failed CRM request: network failure, timeout or
// a non-2xx HTTP status. Status is zero when no response was received.
type TransportError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("crm: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("crm: %s %s: %s", e.Method, e.Path, e.Detail)
}

// FieldEntry is a single value inside a custom field payload.
type FieldEntry struct {
	Value any `json:"value"`
}

// FieldValue is one entry of a custom_fields_values payload. Exactly one of
// FieldID or FieldCode is set.
type FieldValue struct {
	FieldID   int64        `json:"field_id,omitempty"`
	FieldCode string       `json:"field_code,omitempty"`
	Values    []FieldEntry `json:"values"`
}

// NewFieldValue builds a numeric-id field entry.
func NewFieldValue(fieldID int64, value any) FieldValue {
	return FieldValue{FieldID: fieldID, Values: []FieldEntry{{Value: value}}}
}

// NewCodeFieldValue builds a field entry addressed by symbolic code.
func NewCodeFieldValue(code string, value any) FieldValue {
	return FieldValue{FieldCode: code, Values: []FieldEntry{{Value: value}}}
}

// Entity is the id/name projection of a CRM contact or deal.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EntityRef links a deal to a contact inside an _embedded block.
type EntityRef struct {
	ID int64 `json:"id"`
}

// Tag is a traceability tag attached to a deal.
type Tag struct {
	Name string `json:"name"`
}

// CustomField is one entry of the provider's custom-field schema.
type CustomField struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Status is one status of a pipeline.
type Status struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ContactRequest is the mutable part of a contact create/patch call.
type ContactRequest struct {
	Name         string       `json:"name,omitempty"`
	CustomFields []FieldValue `json:"custom_fields_values,omitempty"`
}

// LeadEmbedded carries linked contacts and tags on a deal mutation.
type LeadEmbedded struct {
	Contacts []EntityRef `json:"contacts,omitempty"`
	Tags     []Tag       `json:"tags,omitempty"`
}

// LeadRequest is the mutable part of a deal create/patch call.
type LeadRequest struct {
	Name         string        `json:"name,omitempty"`
	Price        *int64        `json:"price,omitempty"`
	PipelineID   int64         `json:"pipeline_id,omitempty"`
	StatusID     int64         `json:"status_id,omitempty"`
	CustomFields []FieldValue  `json:"custom_fields_values,omitempty"`
	Embedded     *LeadEmbedded `json:"_embedded,omitempty"`
}

// envelope is the provider's standard response wrapper. List results are
// nested under _embedded keyed by entity type.
type envelope struct {
	Embedded embedded `json:"_embedded"`
}

type embedded struct {
	Contacts     []Entity      `json:"contacts"`
	Leads        []Entity      `json:"leads"`
	Statuses     []Status      `json:"statuses"`
	CustomFields []CustomField `json:"custom_fields"`
}
