// Package payload converts typed applicant records into the CRM's
// custom_fields_values shape, applying the omission and formatting rules of
// the provider's configured schema.
package payload

import (
	"context"

	"qabul_backend/internal/crm"
	"qabul_backend/internal/crmsync/schema"
)

// Gender values as the CRM schema expects them.
const (
	GenderMale   = "1"
	GenderFemale = "2"
)

// Education language values as the CRM schema expects them.
const (
	LanguageUzbek   = "1"
	LanguageRussian = "2"
	LanguageEnglish = "3"
)

// Contact field names as configured in the provider's schema. These are
// interop constants: they must match the CRM account's custom-field names.
const (
	contactFieldFirstName  = "ism"
	contactFieldLastName   = "familya"
	contactFieldMiddleName = "ota ismi"
	contactFieldPosition   = "должность"
	contactFieldBirthDate  = "tug'ilgan kuni"
	contactFieldGender     = "jinsi"
	contactFieldCountry    = "country"
	contactFieldRegion     = "region"
	contactFieldDistrict   = "district"
	contactFieldAddress    = "manzil"
)

// Deal field names as configured in the provider's schema.
const (
	dealFieldStudyLanguage  = "talim tili"
	dealFieldStudyType      = "talim turi"
	dealFieldStudyForm      = "talim shakli"
	dealFieldStudyDirection = "talim yo'nalishi"
	dealFieldEndDate        = "o'rta talim tugatgan yili"
	dealFieldAdmissionID    = "admission id"
	dealFieldCertificate    = "certificate fayl"
	dealFieldPassportFile   = "pasport fayl"
)

// emptyDateSentinel is what an unset date serializes to. The exact string is
// required for interoperability with the provider's date parsing.
const emptyDateSentinel = "0000-00-00"

// ContactRecord is the typed input for a contact payload. Optional fields are
// pointers; nil or empty values are omitted from the payload.
type ContactRecord struct {
	FirstName  string
	LastName   string
	Phone      *string
	Email      *string
	MiddleName *string
	Position   *string
	BirthDate  *string
	Gender     *string
	Country    *string
	Region     *string
	District   *string
	Address    *string
}

// DealRecord is the typed input for a deal payload.
type DealRecord struct {
	StudyLanguage    *string
	StudyType        *string
	StudyForm        *string
	StudyDirection   *string
	EducationEndDate string
	AdmissionNumber  *string
	CertificateLink  *string
	PassportLink     *string
}

// Resolver maps field names to provider field ids. Satisfied by *schema.Registry.
type Resolver interface {
	Resolve(ctx context.Context, kind schema.Kind, name string) (int64, bool)
}

// Builder assembles custom-field payloads against a resolved schema.
type Builder struct {
	resolver   Resolver
	timeOffset string
}

// NewBuilder creates a payload builder. timeOffset is the local UTC offset
// appended to date values, e.g. "+05:00".
func NewBuilder(resolver Resolver, timeOffset string) *Builder {
	if timeOffset == "" {
		timeOffset = "+05:00"
	}
	return &Builder{resolver: resolver, timeOffset: timeOffset}
}

// ContactFields builds the contact payload. Phone and email are addressed by
// fixed symbolic codes (provider built-ins); all other fields go through the
// schema registry and are silently dropped when unresolved or empty.
func (b *Builder) ContactFields(ctx context.Context, rec ContactRecord) []crm.FieldValue {
	var fields []crm.FieldValue

	if v := deref(rec.Phone); v != "" {
		fields = append(fields, crm.NewCodeFieldValue(crm.FieldCodePhone, v))
	}
	if v := deref(rec.Email); v != "" {
		fields = append(fields, crm.NewCodeFieldValue(crm.FieldCodeEmail, v))
	}

	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldFirstName, rec.FirstName)
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldLastName, rec.LastName)
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldMiddleName, deref(rec.MiddleName))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldPosition, deref(rec.Position))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldBirthDate, deref(rec.BirthDate))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldGender, deref(rec.Gender))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldCountry, deref(rec.Country))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldRegion, deref(rec.Region))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldDistrict, deref(rec.District))
	fields = b.appendResolved(ctx, fields, schema.KindContact, contactFieldAddress, deref(rec.Address))

	return fields
}

// DealFields builds the deal payload. The education end date is always
// formatted, an unset date deliberately serializing to the zero-date sentinel
// rather than being omitted.
func (b *Builder) DealFields(ctx context.Context, rec DealRecord) []crm.FieldValue {
	var fields []crm.FieldValue

	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldStudyLanguage, deref(rec.StudyLanguage))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldStudyType, deref(rec.StudyType))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldStudyForm, deref(rec.StudyForm))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldStudyDirection, deref(rec.StudyDirection))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldEndDate, b.FormatDate(rec.EducationEndDate))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldAdmissionID, deref(rec.AdmissionNumber))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldCertificate, deref(rec.CertificateLink))
	fields = b.appendResolved(ctx, fields, schema.KindDeal, dealFieldPassportFile, deref(rec.PassportLink))

	return fields
}

// FormatDate renders an ISO date as the provider's midnight timestamp. The
// empty string maps to the zero-date sentinel, not to omission.
func (b *Builder) FormatDate(isoDate string) string {
	if isoDate == "" {
		isoDate = emptyDateSentinel
	}
	return isoDate + "T00:00:00" + b.timeOffset
}

func (b *Builder) appendResolved(ctx context.Context, fields []crm.FieldValue, kind schema.Kind, name, value string) []crm.FieldValue {
	if value == "" {
		return fields
	}
	id, ok := b.resolver.Resolve(ctx, kind, name)
	if !ok {
		// Lenient by contract: a schema without this field means the account
		// does not track it, not that the sync failed.
		return fields
	}
	return append(fields, crm.NewFieldValue(id, value))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
