// Package service implements phone-based applicant authentication: password
// sign-up, SMS code verification and JWT issuance.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"qabul_backend/internal/auth/password"
	"qabul_backend/internal/auth/repository"
	"qabul_backend/internal/auth/token"
	"qabul_backend/internal/events"
	"qabul_backend/internal/sms"
	"qabul_backend/platform/apperr"
	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
	"qabul_backend/platform/phone"
)

const otpDigits = 4

var ErrInvalidCredentials = errors.New("invalid credentials")

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository.
type Store interface {
	CreateApplicant(ctx context.Context, phone, passwordHash string) (repository.Applicant, error)
	GetByPhone(ctx context.Context, phone string) (repository.Applicant, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Applicant, error)
	MarkPhoneVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateSMSCode(ctx context.Context, applicantID uuid.UUID, codeHash string, expiresAt time.Time) error
	ConsumeSMSCode(ctx context.Context, applicantID uuid.UUID, codeHash string) error
}

type Service struct {
	store  Store
	cfg    config.AuthServiceConfig
	sender sms.Sender
	bus    events.Bus
	log    *logger.Logger
}

func New(store Store, cfg config.AuthServiceConfig, sender sms.Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, sender: sender, bus: bus, log: log}
}

// Register creates an unverified account and sends the verification code.
// Registering an existing unverified phone refreshes the password and resends
// the code, so an abandoned registration can be completed later.
func (s *Service) Register(ctx context.Context, phoneNumber, plainPassword string) error {
	normalized := phone.NormalizeE164(phoneNumber)

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return err
	}

	applicant, err := s.store.GetByPhone(ctx, normalized)
	switch {
	case err == nil && applicant.PhoneVerified:
		s.log.AuthEvent("register", normalized, false, "already registered")
		return apperr.Conflict("phone number already registered")
	case err == nil:
		if err := s.store.UpdatePassword(ctx, applicant.ID, hash); err != nil {
			return err
		}
	case errors.Is(err, repository.ErrNotFound):
		applicant, err = s.store.CreateApplicant(ctx, normalized, hash)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if err := s.sendCode(ctx, applicant); err != nil {
		return err
	}

	s.log.AuthEvent("register", normalized, true, "")
	return nil
}

// VerifyPhone burns the SMS code, activates the account and issues the first
// access token. The registered event published here is what triggers the CRM
// sync for this applicant.
func (s *Service) VerifyPhone(ctx context.Context, phoneNumber, code string) (string, error) {
	normalized := phone.NormalizeE164(phoneNumber)

	applicant, err := s.store.GetByPhone(ctx, normalized)
	if err != nil {
		return "", apperr.Unauthorized("verification code invalid")
	}

	if err := s.store.ConsumeSMSCode(ctx, applicant.ID, token.HashSHA256(code)); err != nil {
		s.log.AuthEvent("verify_phone", normalized, false, "bad code")
		return "", apperr.Unauthorized("verification code invalid")
	}

	firstVerification := !applicant.PhoneVerified
	if firstVerification {
		if err := s.store.MarkPhoneVerified(ctx, applicant.ID); err != nil {
			return "", err
		}
	}

	accessToken, err := s.issueToken(applicant.ID)
	if err != nil {
		return "", err
	}

	if firstVerification && s.bus != nil {
		s.bus.Publish(ctx, events.ApplicantRegistered{
			BaseEvent:   events.NewBaseEvent(),
			ApplicantID: applicant.ID,
			PhoneNumber: applicant.PhoneNumber,
		})
	}

	s.log.AuthEvent("verify_phone", normalized, true, "")
	return accessToken, nil
}

// SignIn exchanges phone and password for an access token.
func (s *Service) SignIn(ctx context.Context, phoneNumber, plainPassword string) (string, error) {
	normalized := phone.NormalizeE164(phoneNumber)

	applicant, err := s.store.GetByPhone(ctx, normalized)
	if err != nil {
		return "", apperr.Unauthorized(ErrInvalidCredentials.Error())
	}

	if err := password.Compare(applicant.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", normalized, false, "bad password")
		return "", apperr.Unauthorized(ErrInvalidCredentials.Error())
	}

	if !applicant.PhoneVerified {
		return "", apperr.Forbidden("phone number not verified")
	}

	s.log.AuthEvent("sign_in", normalized, true, "")
	return s.issueToken(applicant.ID)
}

// ResendCode sends a fresh verification code to an unverified account.
func (s *Service) ResendCode(ctx context.Context, phoneNumber string) error {
	normalized := phone.NormalizeE164(phoneNumber)

	applicant, err := s.store.GetByPhone(ctx, normalized)
	if err != nil {
		// Do not leak which phones are registered.
		return nil
	}
	if applicant.PhoneVerified {
		return apperr.Conflict("phone number already verified")
	}

	return s.sendCode(ctx, applicant)
}

func (s *Service) GetMe(ctx context.Context, applicantID uuid.UUID) (repository.Applicant, error) {
	applicant, err := s.store.GetByID(ctx, applicantID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Applicant{}, apperr.NotFound("applicant not found")
	}
	return applicant, err
}

func (s *Service) sendCode(ctx context.Context, applicant repository.Applicant) error {
	code, err := token.GenerateNumericCode(otpDigits)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.cfg.GetOTPCodeTTL())
	if err := s.store.CreateSMSCode(ctx, applicant.ID, token.HashSHA256(code), expiresAt); err != nil {
		return err
	}

	if s.sender == nil {
		// Local development without an SMS account.
		s.log.Warn("sms sender disabled, verification code not delivered", "phone", applicant.PhoneNumber)
		return nil
	}

	return s.sender.SendMessage(ctx, applicant.PhoneNumber, "Qabul tasdiqlash kodi: "+code)
}

func (s *Service) issueToken(applicantID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  applicantID.String(),
		"type": "access",
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
