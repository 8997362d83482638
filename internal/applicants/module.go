// Package applicants wires the admissions application workflow: passport
// capture, program selection, finalization and the admissions decision.
package applicants

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/applicants/handler"
	"qabul_backend/internal/applicants/repository"
	"qabul_backend/internal/applicants/service"
	"qabul_backend/internal/events"
	apphttp "qabul_backend/internal/http"
	"qabul_backend/platform/logger"
	"qabul_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

func NewModule(pool *pgxpool.Pool, directions service.Directions, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), directions, bus, log)
	return &Module{handler: handler.New(svc, val)}
}

func (m *Module) Name() string { return "applicants" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/passport", m.handler.SubmitPassport)
	ctx.Protected.GET("/passport", m.handler.GetPassport)
	ctx.Protected.PUT("/study-info", m.handler.SaveStudyInfo)
	ctx.Protected.GET("/application", m.handler.GetApplication)
	ctx.Protected.POST("/application/finalize", m.handler.FinalizeApplication)

	ctx.Admin.GET("/applications", m.handler.ListApplications)
	ctx.Admin.POST("/applications/:id/decision", m.handler.Decide)
}
