package payload

import (
	"context"
	"testing"

	"qabul_backend/internal/crm"
	"qabul_backend/internal/crmsync/schema"
)

type fakeResolver struct {
	fields map[schema.Kind]map[string]int64
}

func (f *fakeResolver) Resolve(_ context.Context, kind schema.Kind, name string) (int64, bool) {
	id, ok := f.fields[kind][name]
	return id, ok
}

func fullContactResolver() *fakeResolver {
	return &fakeResolver{fields: map[schema.Kind]map[string]int64{
		schema.KindContact: {
			"ism":            101,
			"familya":        102,
			"ota ismi":       103,
			"должность":      104,
			"tug'ilgan kuni": 105,
			"jinsi":          106,
			"country":        107,
			"region":         108,
			"district":       109,
			"manzil":         110,
		},
		schema.KindDeal: {
			"talim tili":                201,
			"talim turi":                202,
			"talim shakli":              203,
			"talim yo'nalishi":          204,
			"o'rta talim tugatgan yili": 205,
			"admission id":              206,
			"certificate fayl":          207,
			"pasport fayl":              208,
		},
	}}
}

func ptr(s string) *string { return &s }

func findByID(fields []crm.FieldValue, id int64) (crm.FieldValue, bool) {
	for _, f := range fields {
		if f.FieldID == id {
			return f, true
		}
	}
	return crm.FieldValue{}, false
}

func findByCode(fields []crm.FieldValue, code string) (crm.FieldValue, bool) {
	for _, f := range fields {
		if f.FieldCode == code {
			return f, true
		}
	}
	return crm.FieldValue{}, false
}

func TestContactFields_PhoneAndEmailUseCodes(t *testing.T) {
	b := NewBuilder(fullContactResolver(), "+05:00")

	fields := b.ContactFields(context.Background(), ContactRecord{
		Phone: ptr("+998901234567"),
		Email: ptr("ali@example.com"),
	})

	phone, ok := findByCode(fields, crm.FieldCodePhone)
	if !ok {
		t.Fatal("expected phone field")
	}
	if phone.FieldID != 0 {
		t.Errorf("phone field must not carry a numeric id, got %d", phone.FieldID)
	}
	if got := phone.Values[0].Value; got != "+998901234567" {
		t.Errorf("phone value = %v", got)
	}
	if _, ok := findByCode(fields, crm.FieldCodeEmail); !ok {
		t.Error("expected email field")
	}
}

func TestContactFields_OmitsEmptyAndUnresolved(t *testing.T) {
	// district is deliberately absent from the resolver.
	r := fullContactResolver()
	delete(r.fields[schema.KindContact], "district")
	b := NewBuilder(r, "+05:00")

	fields := b.ContactFields(context.Background(), ContactRecord{
		FirstName: "Ali",
		LastName:  "Valiyev",
		District:  ptr("Chilonzor"),
		Address:   ptr(""),
		Region:    nil,
	})

	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d: %+v", len(fields), fields)
	}
	if _, ok := findByID(fields, 101); !ok {
		t.Error("expected first name field 101")
	}
	if _, ok := findByID(fields, 109); ok {
		t.Error("unresolved district must be omitted")
	}
	if _, ok := findByID(fields, 110); ok {
		t.Error("empty address must be omitted")
	}
}

func TestDealFields_DateNormalization(t *testing.T) {
	b := NewBuilder(fullContactResolver(), "+05:00")

	fields := b.DealFields(context.Background(), DealRecord{EducationEndDate: "2023-06-15"})

	f, ok := findByID(fields, 205)
	if !ok {
		t.Fatal("expected end date field")
	}
	if got := f.Values[0].Value; got != "2023-06-15T00:00:00+05:00" {
		t.Errorf("date = %v", got)
	}
}

func TestDealFields_EmptyDateSentinel(t *testing.T) {
	b := NewBuilder(fullContactResolver(), "+05:00")

	fields := b.DealFields(context.Background(), DealRecord{})

	if len(fields) != 1 {
		t.Fatalf("expected only the date sentinel, got %d fields", len(fields))
	}
	if got := fields[0].Values[0].Value; got != "0000-00-00T00:00:00+05:00" {
		t.Errorf("empty date = %v", got)
	}
}

func TestDealFields_CustomOffset(t *testing.T) {
	b := NewBuilder(fullContactResolver(), "+03:00")

	if got := b.FormatDate("2024-01-02"); got != "2024-01-02T00:00:00+03:00" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestDealFields_AllResolved(t *testing.T) {
	b := NewBuilder(fullContactResolver(), "+05:00")

	fields := b.DealFields(context.Background(), DealRecord{
		StudyLanguage:    ptr(LanguageUzbek),
		StudyType:        ptr("Bakalavr"),
		StudyForm:        ptr("Kunduzgi"),
		StudyDirection:   ptr("Dasturiy injiniring"),
		EducationEndDate: "2022-05-30",
		AdmissionNumber:  ptr("QB-1042"),
		CertificateLink:  ptr("https://files.example.com/cert.pdf"),
		PassportLink:     ptr("https://files.example.com/passport.pdf"),
	})

	if len(fields) != 8 {
		t.Fatalf("expected 8 fields, got %d", len(fields))
	}
	if f, _ := findByID(fields, 201); f.Values[0].Value != "1" {
		t.Errorf("study language = %v", f.Values[0].Value)
	}
}
