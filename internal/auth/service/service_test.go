package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"qabul_backend/internal/auth/password"
	"qabul_backend/internal/auth/repository"
	"qabul_backend/internal/auth/token"
	"qabul_backend/internal/events"
	"qabul_backend/platform/apperr"
	"qabul_backend/platform/logger"
)

type fakeStore struct {
	applicants map[string]repository.Applicant
	codes      map[uuid.UUID]string

	createCalls   int
	smsCodeCalls  int
	passwordCalls int
	verifiedIDs   []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		applicants: make(map[string]repository.Applicant),
		codes:      make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) CreateApplicant(_ context.Context, phone, passwordHash string) (repository.Applicant, error) {
	f.createCalls++
	a := repository.Applicant{ID: uuid.New(), PhoneNumber: phone, PasswordHash: passwordHash}
	f.applicants[phone] = a
	return a, nil
}

func (f *fakeStore) GetByPhone(_ context.Context, phone string) (repository.Applicant, error) {
	a, ok := f.applicants[phone]
	if !ok {
		return repository.Applicant{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Applicant, error) {
	for _, a := range f.applicants {
		if a.ID == id {
			return a, nil
		}
	}
	return repository.Applicant{}, repository.ErrNotFound
}

func (f *fakeStore) MarkPhoneVerified(_ context.Context, id uuid.UUID) error {
	f.verifiedIDs = append(f.verifiedIDs, id)
	for phone, a := range f.applicants {
		if a.ID == id {
			a.PhoneVerified = true
			f.applicants[phone] = a
		}
	}
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.passwordCalls++
	for phone, a := range f.applicants {
		if a.ID == id {
			a.PasswordHash = passwordHash
			f.applicants[phone] = a
		}
	}
	return nil
}

func (f *fakeStore) CreateSMSCode(_ context.Context, applicantID uuid.UUID, codeHash string, _ time.Time) error {
	f.smsCodeCalls++
	f.codes[applicantID] = codeHash
	return nil
}

func (f *fakeStore) ConsumeSMSCode(_ context.Context, applicantID uuid.UUID, codeHash string) error {
	if f.codes[applicantID] != codeHash {
		return repository.ErrCodeInvalid
	}
	delete(f.codes, applicantID)
	return nil
}

type fakeSMS struct {
	calls    int
	lastTo   string
	lastText string
}

func (f *fakeSMS) SendMessage(_ context.Context, phone, message string) error {
	f.calls++
	f.lastTo = phone
	f.lastText = message
	return nil
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

type authConfig struct{}

func (authConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (authConfig) GetAccessTokenTTL() time.Duration { return time.Hour }
func (authConfig) GetOTPCodeTTL() time.Duration     { return 5 * time.Minute }

func newTestService(store *fakeStore, sender *fakeSMS, bus *fakeBus) *Service {
	return New(store, authConfig{}, sender, bus, logger.New("development"))
}

func extractCode(t *testing.T, message string) string {
	t.Helper()
	idx := strings.LastIndex(message, " ")
	if idx < 0 || len(message[idx+1:]) != 4 {
		t.Fatalf("cannot extract code from %q", message)
	}
	return message[idx+1:]
}

func TestRegister_NewApplicantSendsCode(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	svc := newTestService(store, sender, &fakeBus{})

	if err := svc.Register(context.Background(), "90 123 45 67", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if store.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", store.createCalls)
	}
	if _, ok := store.applicants["+998901234567"]; !ok {
		t.Fatalf("applicant stored under %v, want normalized +998901234567", store.applicants)
	}
	if sender.calls != 1 {
		t.Fatalf("sms calls = %d, want 1", sender.calls)
	}
	if !strings.Contains(sender.lastText, "tasdiqlash kodi") {
		t.Errorf("sms text = %q", sender.lastText)
	}
}

func TestRegister_VerifiedPhoneConflicts(t *testing.T) {
	store := newFakeStore()
	a, _ := store.CreateApplicant(context.Background(), "+998901234567", "hash")
	_ = store.MarkPhoneVerified(context.Background(), a.ID)
	store.createCalls = 0

	svc := newTestService(store, &fakeSMS{}, &fakeBus{})

	err := svc.Register(context.Background(), "+998901234567", "secret123")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if store.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", store.createCalls)
	}
}

func TestRegister_UnverifiedPhoneResetsPasswordAndResends(t *testing.T) {
	store := newFakeStore()
	_, _ = store.CreateApplicant(context.Background(), "+998901234567", "oldhash")
	store.createCalls = 0
	sender := &fakeSMS{}

	svc := newTestService(store, sender, &fakeBus{})

	if err := svc.Register(context.Background(), "+998901234567", "newsecret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if store.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", store.createCalls)
	}
	if store.passwordCalls != 1 {
		t.Errorf("passwordCalls = %d, want 1", store.passwordCalls)
	}
	if sender.calls != 1 {
		t.Errorf("sms calls = %d, want 1", sender.calls)
	}
	if err := password.Compare(store.applicants["+998901234567"].PasswordHash, "newsecret"); err != nil {
		t.Errorf("new password not stored: %v", err)
	}
}

func TestVerifyPhone_ActivatesAndPublishes(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	bus := &fakeBus{}
	svc := newTestService(store, sender, bus)

	if err := svc.Register(context.Background(), "+998901234567", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	code := extractCode(t, sender.lastText)

	accessToken, err := svc.VerifyPhone(context.Background(), "+998901234567", code)
	if err != nil {
		t.Fatalf("VerifyPhone: %v", err)
	}
	if accessToken == "" {
		t.Fatal("empty access token")
	}

	applicant := store.applicants["+998901234567"]
	if !applicant.PhoneVerified {
		t.Error("applicant not marked verified")
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	registered, ok := bus.published[0].(events.ApplicantRegistered)
	if !ok {
		t.Fatalf("published event %T", bus.published[0])
	}
	if registered.ApplicantID != applicant.ID || registered.PhoneNumber != "+998901234567" {
		t.Errorf("event = %+v", registered)
	}

	parsed, err := jwt.Parse(accessToken, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	sub, _ := parsed.Claims.GetSubject()
	if sub != applicant.ID.String() {
		t.Errorf("sub = %q, want %q", sub, applicant.ID)
	}
}

func TestVerifyPhone_WrongCodeUnauthorized(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	bus := &fakeBus{}
	svc := newTestService(store, sender, bus)

	_ = svc.Register(context.Background(), "+998901234567", "secret123")

	_, err := svc.VerifyPhone(context.Background(), "+998901234567", "0000")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("published %d events, want 0", len(bus.published))
	}
}

func TestVerifyPhone_CodeIsSingleUse(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	svc := newTestService(store, sender, &fakeBus{})

	_ = svc.Register(context.Background(), "+998901234567", "secret123")
	code := extractCode(t, sender.lastText)

	if _, err := svc.VerifyPhone(context.Background(), "+998901234567", code); err != nil {
		t.Fatalf("first VerifyPhone: %v", err)
	}
	if _, err := svc.VerifyPhone(context.Background(), "+998901234567", code); err == nil {
		t.Fatal("second VerifyPhone succeeded with burnt code")
	}
}

func TestSignIn_Success(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	svc := newTestService(store, sender, &fakeBus{})

	_ = svc.Register(context.Background(), "+998901234567", "secret123")
	code := extractCode(t, sender.lastText)
	_, _ = svc.VerifyPhone(context.Background(), "+998901234567", code)

	accessToken, err := svc.SignIn(context.Background(), "+998901234567", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if accessToken == "" {
		t.Fatal("empty access token")
	}
}

func TestSignIn_BadPassword(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	svc := newTestService(store, sender, &fakeBus{})

	_ = svc.Register(context.Background(), "+998901234567", "secret123")
	code := extractCode(t, sender.lastText)
	_, _ = svc.VerifyPhone(context.Background(), "+998901234567", code)

	_, err := svc.SignIn(context.Background(), "+998901234567", "wrong")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestSignIn_UnverifiedForbidden(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeSMS{}, &fakeBus{})

	_ = svc.Register(context.Background(), "+998901234567", "secret123")

	_, err := svc.SignIn(context.Background(), "+998901234567", "secret123")
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestSignIn_UnknownPhoneUnauthorized(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeSMS{}, &fakeBus{})

	_, err := svc.SignIn(context.Background(), "+998900000000", "secret123")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestResendCode_UnknownPhoneSilent(t *testing.T) {
	sender := &fakeSMS{}
	svc := newTestService(newFakeStore(), sender, &fakeBus{})

	if err := svc.ResendCode(context.Background(), "+998900000000"); err != nil {
		t.Fatalf("ResendCode: %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("sms calls = %d, want 0", sender.calls)
	}
}

func TestResendCode_IssuesFreshCode(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	svc := newTestService(store, sender, &fakeBus{})

	_ = svc.Register(context.Background(), "+998901234567", "secret123")

	if err := svc.ResendCode(context.Background(), "+998901234567"); err != nil {
		t.Fatalf("ResendCode: %v", err)
	}
	if sender.calls != 2 {
		t.Fatalf("sms calls = %d, want 2", sender.calls)
	}
	if store.smsCodeCalls != 2 {
		t.Errorf("smsCodeCalls = %d, want 2", store.smsCodeCalls)
	}

	code := extractCode(t, sender.lastText)
	applicant := store.applicants["+998901234567"]
	if store.codes[applicant.ID] != token.HashSHA256(code) {
		t.Error("stored hash does not match last sent code")
	}
}

func TestResendCode_VerifiedConflicts(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSMS{}
	svc := newTestService(store, sender, &fakeBus{})

	_ = svc.Register(context.Background(), "+998901234567", "secret123")
	code := extractCode(t, sender.lastText)
	_, _ = svc.VerifyPhone(context.Background(), "+998901234567", code)

	err := svc.ResendCode(context.Background(), "+998901234567")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestRegister_NilSenderStillSucceeds(t *testing.T) {
	store := newFakeStore()
	svc := New(store, authConfig{}, nil, &fakeBus{}, logger.New("development"))

	if err := svc.Register(context.Background(), "+998901234567", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if store.smsCodeCalls != 1 {
		t.Errorf("smsCodeCalls = %d, want 1", store.smsCodeCalls)
	}
}

func TestGetMe(t *testing.T) {
	store := newFakeStore()
	a, _ := store.CreateApplicant(context.Background(), "+998901234567", "hash")
	svc := newTestService(store, &fakeSMS{}, &fakeBus{})

	got, err := svc.GetMe(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if got.PhoneNumber != "+998901234567" {
		t.Errorf("phone = %q", got.PhoneNumber)
	}

	_, err = svc.GetMe(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}
