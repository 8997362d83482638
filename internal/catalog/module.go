// Package catalog provides admissions reference data: study directions with
// contract prices, plus the fixed language/type/form enumerations.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/catalog/handler"
	"qabul_backend/internal/catalog/repository"
	"qabul_backend/internal/catalog/service"
	apphttp "qabul_backend/internal/http"
	"qabul_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

var _ apphttp.Module = (*Module)(nil)

func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool))
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string { return "catalog" }

// Service exposes the reference data lookups to other modules.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// The form is public: applicants see directions before signing in.
	ctx.V1.GET("/catalog/references", m.handler.GetReferences)

	adminGroup := ctx.Admin.Group("/catalog")
	adminGroup.POST("/study-directions", m.handler.CreateStudyDirection)
	adminGroup.PUT("/study-directions/:id", m.handler.UpdateStudyDirection)
}
