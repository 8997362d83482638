package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/crmsync"
	"qabul_backend/internal/crmsync/transport"
	"qabul_backend/internal/events"
	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
)

const maxAttempts = 5

// Worker consumes due sync tasks and replays them against the sync service.
// Retry bookkeeping lives entirely in the outbox: handlers return nil on sync
// failures so asynq's own retry machinery stays out of the way.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *Repository
	syncer crmsync.LeadSyncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, syncer crmsync.LeadSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   New(pool),
		syncer: syncer,
		log:    log,
	}

	mux.HandleFunc(TaskCRMSyncDue, w.handleCRMSyncDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("sync queue worker stopped", "error", err)
	}
}

func (w *Worker) handleCRMSyncDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCRMSyncDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	rec, err := w.repo.GetByID(ctx, outboxID)
	if err != nil {
		return err
	}
	if rec.Status == StatusSucceeded || rec.Status == StatusFailed {
		return nil
	}

	if err := w.repo.MarkProcessing(ctx, outboxID); err != nil {
		return err
	}
	rec.Attempts++

	if err := w.execute(ctx, rec); err != nil {
		w.log.Warn("crm sync replay failed",
			"operation", rec.Operation,
			"outbox_id", rec.ID,
			"attempt", rec.Attempts,
			"error", err,
		)
		if rec.Attempts >= maxAttempts {
			return w.repo.MarkFailed(ctx, outboxID, err.Error())
		}
		runAt := time.Now().UTC().Add(backoff(rec.Attempts))
		return w.repo.Reschedule(ctx, outboxID, runAt, err.Error())
	}

	return w.repo.MarkSucceeded(ctx, outboxID)
}

func (w *Worker) execute(ctx context.Context, rec Record) error {
	switch rec.Operation {
	case crmsync.OpCreateInitialLead:
		var e events.ApplicantRegistered
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return err
		}
		_, err := w.syncer.CreateInitialLead(ctx, e.ApplicantID, e.PhoneNumber)
		return err

	case crmsync.OpLinkIdentity:
		var e events.IdentityVerified
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return err
		}
		return w.syncer.LinkIdentity(ctx, crmsync.PersonalRecordFrom(e))

	case crmsync.OpFinalize:
		var e events.ApplicationFinalized
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return err
		}
		return w.syncer.Finalize(ctx, crmsync.ProgramSelectionFrom(e))

	case crmsync.OpTransitionStage:
		var e events.DecisionIssued
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return err
		}
		outcome := transport.OutcomeRejected
		if e.Accepted {
			outcome = transport.OutcomeAccepted
		}
		return w.syncer.TransitionStage(ctx, e.ApplicantID, outcome)

	default:
		return fmt.Errorf("unknown sync operation %q", rec.Operation)
	}
}

func backoff(attempts int) time.Duration {
	return time.Duration(attempts) * time.Minute
}
