package crmsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/crm"
	"qabul_backend/internal/crmsync/payload"
	"qabul_backend/internal/crmsync/pipeline"
	"qabul_backend/internal/crmsync/repository"
	"qabul_backend/internal/crmsync/schema"
	"qabul_backend/internal/crmsync/service"
	"qabul_backend/internal/crmsync/transport"
	"qabul_backend/internal/events"
	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
)

// Module is the CRM sync composition root. It subscribes to admissions
// milestone events and drives the lead lifecycle in the CRM.
type Module struct {
	service  *service.Service
	enqueuer Enqueuer
	log      *logger.Logger
}

// NewModule wires the CRM sync module. A configuration without a CRM base URL
// yields a disabled module whose syncer is a no-op. With the integration
// enabled, an incomplete pipeline stage table is the one configuration error
// that refuses to start.
func NewModule(cfg config.CRMConfig, pool *pgxpool.Pool, log *logger.Logger) (*Module, error) {
	if !cfg.IsCRMEnabled() {
		log.Info("crm sync disabled, lead synchronization is a no-op")
		return &Module{log: log}, nil
	}

	stages, err := pipeline.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("crmsync: %w", err)
	}

	client := crm.NewClient(cfg, log)
	registry := schema.New(client, cfg.GetCRMSchemaTTL(), log)
	builder := payload.NewBuilder(registry, cfg.GetCRMTimeOffset())
	svc := service.New(client, repository.New(pool), builder, stages, log)

	return &Module{service: svc, log: log}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "crmsync"
}

// Syncer exposes the synchronization service. Safe to call on a disabled
// module; the returned syncer then no-ops.
func (m *Module) Syncer() LeadSyncer {
	return m.service
}

// SetRetryQueue installs the deferred retry queue. Without it, failed syncs
// are logged and rely on the reconcile job to catch up.
func (m *Module) SetRetryQueue(enqueuer Enqueuer) {
	m.enqueuer = enqueuer
}

// RegisterHandlers subscribes the module to the admissions milestone events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ApplicantRegistered{}.EventName(), events.HandlerFunc(m.onApplicantRegistered))
	bus.Subscribe(events.IdentityVerified{}.EventName(), events.HandlerFunc(m.onIdentityVerified))
	bus.Subscribe(events.ApplicationFinalized{}.EventName(), events.HandlerFunc(m.onApplicationFinalized))
	bus.Subscribe(events.DecisionIssued{}.EventName(), events.HandlerFunc(m.onDecisionIssued))
}

func (m *Module) onApplicantRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ApplicantRegistered)
	if !ok {
		return nil
	}
	if _, err := m.service.CreateInitialLead(ctx, e.ApplicantID, e.PhoneNumber); err != nil {
		m.deferRetry(ctx, OpCreateInitialLead, e, err)
	}
	return nil
}

func (m *Module) onIdentityVerified(ctx context.Context, event events.Event) error {
	e, ok := event.(events.IdentityVerified)
	if !ok {
		return nil
	}
	if err := m.service.LinkIdentity(ctx, PersonalRecordFrom(e)); err != nil {
		m.deferRetry(ctx, OpLinkIdentity, e, err)
	}
	return nil
}

func (m *Module) onApplicationFinalized(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ApplicationFinalized)
	if !ok {
		return nil
	}
	if err := m.service.Finalize(ctx, ProgramSelectionFrom(e)); err != nil {
		m.deferRetry(ctx, OpFinalize, e, err)
	}
	return nil
}

func (m *Module) onDecisionIssued(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DecisionIssued)
	if !ok {
		return nil
	}
	outcome := transport.OutcomeRejected
	if e.Accepted {
		outcome = transport.OutcomeAccepted
	}
	if err := m.service.TransitionStage(ctx, e.ApplicantID, outcome); err != nil {
		m.deferRetry(ctx, OpTransitionStage, e, err)
	}
	return nil
}

// deferRetry hands a failed operation to the retry queue. Failures here are
// terminal for this attempt; the reconcile job remains the backstop.
func (m *Module) deferRetry(ctx context.Context, operation string, event events.Event, cause error) {
	m.log.Error("crm sync failed", "operation", operation, "error", cause)
	if m.enqueuer == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		m.log.Error("crm sync retry payload encode failed", "operation", operation, "error", err)
		return
	}
	if err := m.enqueuer.EnqueueRetry(ctx, operation, body); err != nil {
		m.log.Error("crm sync retry enqueue failed", "operation", operation, "error", err)
	}
}
