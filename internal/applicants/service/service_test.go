package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"qabul_backend/internal/applicants/repository"
	"qabul_backend/internal/applicants/transport"
	catalogrepo "qabul_backend/internal/catalog/repository"
	"qabul_backend/internal/events"
	"qabul_backend/platform/apperr"
	"qabul_backend/platform/logger"
)

type fakeStore struct {
	passports           map[uuid.UUID]repository.Passport
	applications        map[uuid.UUID]repository.Application
	nextAdmissionNumber int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		passports:           make(map[uuid.UUID]repository.Passport),
		applications:        make(map[uuid.UUID]repository.Application),
		nextAdmissionNumber: 1001,
	}
}

func (f *fakeStore) UpsertPassport(_ context.Context, p repository.Passport) error {
	f.passports[p.ApplicantID] = p
	return nil
}

func (f *fakeStore) GetPassport(_ context.Context, id uuid.UUID) (repository.Passport, error) {
	p, ok := f.passports[id]
	if !ok {
		return repository.Passport{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) UpsertStudyInfo(_ context.Context, a repository.Application) error {
	if existing, ok := f.applications[a.ApplicantID]; ok {
		if existing.Status != repository.StatusDraft {
			return repository.ErrWrongStatus
		}
		a.AdmissionNumber = existing.AdmissionNumber
	} else {
		a.AdmissionNumber = f.nextAdmissionNumber
		f.nextAdmissionNumber++
	}
	a.Status = repository.StatusDraft
	f.applications[a.ApplicantID] = a
	return nil
}

func (f *fakeStore) GetApplication(_ context.Context, id uuid.UUID) (repository.Application, error) {
	a, ok := f.applications[id]
	if !ok {
		return repository.Application{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) MarkFinalized(_ context.Context, id uuid.UUID) error {
	a, ok := f.applications[id]
	if !ok || a.Status != repository.StatusDraft {
		return repository.ErrWrongStatus
	}
	a.Status = repository.StatusSubmitted
	f.applications[id] = a
	return nil
}

func (f *fakeStore) MarkDecided(_ context.Context, id uuid.UUID, status string) error {
	a, ok := f.applications[id]
	if !ok || a.Status != repository.StatusSubmitted {
		return repository.ErrWrongStatus
	}
	a.Status = status
	f.applications[id] = a
	return nil
}

func (f *fakeStore) ListByStatus(_ context.Context, status string, _, _ int) ([]repository.AdminApplication, error) {
	var out []repository.AdminApplication
	for _, a := range f.applications {
		if a.Status == status {
			out = append(out, repository.AdminApplication{Application: a, PhoneNumber: "+998901234567"})
		}
	}
	return out, nil
}

type fakeDirections struct {
	byID map[int64]catalogrepo.StudyDirection
}

func (f *fakeDirections) StudyDirection(_ context.Context, id int64) (catalogrepo.StudyDirection, error) {
	d, ok := f.byID[id]
	if !ok {
		return catalogrepo.StudyDirection{}, apperr.NotFound("study direction not found")
	}
	return d, nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, e events.Event) { f.published = append(f.published, e) }

func (f *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}
func (f *fakeBus) Subscribe(string, events.Handler) {}

func newTestService(store *fakeStore, bus *fakeBus) *Service {
	directions := &fakeDirections{byID: map[int64]catalogrepo.StudyDirection{
		1: {ID: 1, Name: "Computer Engineering", ContractPrice: 15000000, Active: true},
		2: {ID: 2, Name: "Economics", ContractPrice: 12000000, Active: false},
	}}
	return New(store, directions, bus, logger.New("development"))
}

func passportReq() transport.PassportRequest {
	return transport.PassportRequest{
		FirstName:            "Ali",
		LastName:             "Valiyev",
		MiddleName:           "Akram o'g'li",
		PassportSeriesNumber: "AB1234567",
		JSHSHIR:              "12345678901234",
		BirthDate:            "2006-03-14",
		Gender:               "male",
		Region:               "Tashkent",
	}
}

func studyReq() transport.StudyInfoRequest {
	return transport.StudyInfoRequest{
		StudyLanguage:    "uzbek",
		StudyType:        "bachelor",
		StudyForm:        "full_time",
		StudyDirectionID: 1,
		EducationEndDate: "2024-06-15",
		CertificateLink:  "https://files.example.com/cert.pdf",
	}
}

func TestSubmitPassport_StoresAndPublishes(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := newTestService(store, bus)
	applicantID := uuid.New()

	resp, err := svc.SubmitPassport(context.Background(), applicantID, passportReq())
	if err != nil {
		t.Fatalf("SubmitPassport: %v", err)
	}
	if resp.FirstName != "Ali" || resp.JSHSHIR != "12345678901234" {
		t.Errorf("resp = %+v", resp)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	verified, ok := bus.published[0].(events.IdentityVerified)
	if !ok {
		t.Fatalf("published event %T", bus.published[0])
	}
	if verified.ApplicantID != applicantID || verified.LastName != "Valiyev" || verified.Gender != "male" {
		t.Errorf("event = %+v", verified)
	}
	if verified.BirthDate != "2006-03-14" || verified.Region != "Tashkent" {
		t.Errorf("event = %+v", verified)
	}
}

func TestGetPassport_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeBus{})

	_, err := svc.GetPassport(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSaveStudyInfo_SnapshotsDirection(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	resp, err := svc.SaveStudyInfo(context.Background(), applicantID, studyReq())
	if err != nil {
		t.Fatalf("SaveStudyInfo: %v", err)
	}
	if resp.Status != repository.StatusDraft {
		t.Errorf("status = %q, want draft", resp.Status)
	}
	if resp.StudyDirection != "Computer Engineering" || resp.ContractPrice != 15000000 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSaveStudyInfo_InactiveDirectionRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeBus{})

	req := studyReq()
	req.StudyDirectionID = 2

	_, err := svc.SaveStudyInfo(context.Background(), uuid.New(), req)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSaveStudyInfo_AfterFinalizeConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	_, _ = svc.SubmitPassport(context.Background(), applicantID, passportReq())
	_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())
	if _, err := svc.Finalize(context.Background(), applicantID); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	_, err := svc.SaveStudyInfo(context.Background(), applicantID, studyReq())
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestFinalize_RequiresPassport(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())

	_, err := svc.Finalize(context.Background(), applicantID)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestFinalize_RequiresStudyInfo(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	_, _ = svc.SubmitPassport(context.Background(), applicantID, passportReq())

	_, err := svc.Finalize(context.Background(), applicantID)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestFinalize_PublishesWithPrice(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := newTestService(store, bus)
	applicantID := uuid.New()

	_, _ = svc.SubmitPassport(context.Background(), applicantID, passportReq())
	_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())

	resp, err := svc.Finalize(context.Background(), applicantID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if resp.Status != repository.StatusSubmitted {
		t.Errorf("status = %q, want submitted", resp.Status)
	}

	var finalized events.ApplicationFinalized
	found := false
	for _, e := range bus.published {
		if f, ok := e.(events.ApplicationFinalized); ok {
			finalized = f
			found = true
		}
	}
	if !found {
		t.Fatal("no ApplicationFinalized event published")
	}
	if finalized.Price != 15000000 || finalized.StudyDirection != "Computer Engineering" {
		t.Errorf("event = %+v", finalized)
	}
	if finalized.StudyLanguage != "uzbek" || finalized.EducationEndDate != "2024-06-15" {
		t.Errorf("event = %+v", finalized)
	}
	if finalized.AdmissionNumber != 1001 {
		t.Errorf("admission number = %d, want 1001", finalized.AdmissionNumber)
	}
	if resp.AdmissionNumber != 1001 {
		t.Errorf("resp admission number = %d, want 1001", resp.AdmissionNumber)
	}
}

func TestFinalize_TwiceConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	_, _ = svc.SubmitPassport(context.Background(), applicantID, passportReq())
	_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())
	_, _ = svc.Finalize(context.Background(), applicantID)

	_, err := svc.Finalize(context.Background(), applicantID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestDecide_PublishesOutcome(t *testing.T) {
	for _, tc := range []struct {
		decision string
		accepted bool
	}{
		{"accepted", true},
		{"rejected", false},
	} {
		t.Run(tc.decision, func(t *testing.T) {
			store := newFakeStore()
			bus := &fakeBus{}
			svc := newTestService(store, bus)
			applicantID := uuid.New()

			_, _ = svc.SubmitPassport(context.Background(), applicantID, passportReq())
			_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())
			_, _ = svc.Finalize(context.Background(), applicantID)

			resp, err := svc.Decide(context.Background(), applicantID, tc.decision)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if resp.Status != tc.decision {
				t.Errorf("status = %q, want %q", resp.Status, tc.decision)
			}

			last := bus.published[len(bus.published)-1]
			decided, ok := last.(events.DecisionIssued)
			if !ok {
				t.Fatalf("last event %T", last)
			}
			if decided.Accepted != tc.accepted || decided.ApplicantID != applicantID {
				t.Errorf("event = %+v", decided)
			}
		})
	}
}

func TestDecide_DraftConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())

	_, err := svc.Decide(context.Background(), applicantID, "accepted")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestDecide_UnknownDecisionRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeBus{})

	_, err := svc.Decide(context.Background(), uuid.New(), "maybe")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestListApplications_UnknownStatusRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeBus{})

	_, err := svc.ListApplications(context.Background(), "archived", 50, 0)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestListApplications_ReturnsSubmitted(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeBus{})
	applicantID := uuid.New()

	_, _ = svc.SubmitPassport(context.Background(), applicantID, passportReq())
	_, _ = svc.SaveStudyInfo(context.Background(), applicantID, studyReq())
	_, _ = svc.Finalize(context.Background(), applicantID)

	apps, err := svc.ListApplications(context.Background(), repository.StatusSubmitted, 50, 0)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("got %d applications, want 1", len(apps))
	}
	if apps[0].ApplicantID != applicantID.String() || apps[0].PhoneNumber != "+998901234567" {
		t.Errorf("apps[0] = %+v", apps[0])
	}
}
