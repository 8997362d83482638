// Package documents wires object storage for applicant files: passport scans
// and school certificates whose links end up on the application.
package documents

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/adapters/storage"
	"qabul_backend/internal/documents/handler"
	"qabul_backend/internal/documents/repository"
	"qabul_backend/internal/documents/service"
	apphttp "qabul_backend/internal/http"
	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, cfg config.StorageConfig, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), storageSvc, cfg, log)
	return &Module{handler: handler.New(svc)}
}

func (m *Module) Name() string { return "documents" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/documents/:type", m.handler.Upload)
	ctx.Protected.GET("/documents", m.handler.List)

	ctx.Admin.GET("/applicants/:id/documents/:type/download", m.handler.AdminDownloadURL)
}
