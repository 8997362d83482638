// Package auth wires phone-based applicant authentication: registration with
// SMS verification, sign-in and profile lookup.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/auth/handler"
	"qabul_backend/internal/auth/repository"
	"qabul_backend/internal/auth/service"
	"qabul_backend/internal/events"
	apphttp "qabul_backend/internal/http"
	"qabul_backend/internal/sms"
	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
	"qabul_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, sender sms.Sender, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, sender, bus, log)
	return &Module{handler: handler.New(svc, val)}
}

func (m *Module) Name() string { return "auth" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	{
		authGroup.POST("/register", m.handler.Register)
		authGroup.POST("/verify-phone", m.handler.VerifyPhone)
		authGroup.POST("/sign-in", m.handler.SignIn)
		authGroup.POST("/resend-code", m.handler.ResendCode)
	}

	ctx.Protected.GET("/applicants/me", m.handler.GetMe)
}
