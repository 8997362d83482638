// The crm-reconcile backfill creates CRM leads for verified applicants that
// have no lead record, then performs a one-shot drain of the sync outbox.
// Safe to run repeatedly; already-synced applicants are skipped.
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/crmsync"
	"qabul_backend/internal/crmsync/transport"
	"qabul_backend/internal/events"
	"qabul_backend/internal/syncqueue"
	"qabul_backend/platform/config"
	"qabul_backend/platform/db"
	"qabul_backend/platform/logger"
)

type missingApplicant struct {
	id    uuid.UUID
	phone string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting crm reconcile")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	crmsyncModule, err := crmsync.NewModule(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize crm sync module", "error", err)
		panic("failed to initialize crm sync module: " + err.Error())
	}
	syncer := crmsyncModule.Syncer()

	const batchSize = 25
	created, failed := 0, 0
	for {
		applicants, err := listApplicantsMissingLeads(ctx, pool, batchSize)
		if err != nil {
			log.Error("failed to list applicants", "error", err)
			return
		}
		if len(applicants) == 0 {
			break
		}

		progress := false
		for _, a := range applicants {
			if _, err := syncer.CreateInitialLead(ctx, a.id, a.phone); err != nil {
				log.Warn("failed to create lead", "applicantId", a.id, "error", err)
				failed++
				continue
			}
			created++
			progress = true
		}

		if !progress {
			// Every applicant in the batch failed; re-listing would loop on
			// the same rows.
			break
		}
	}
	log.Info("lead backfill complete", "created", created, "failed", failed)

	drainOutbox(ctx, pool, syncer, log)
}

// listApplicantsMissingLeads returns verified applicants with no lead record.
func listApplicantsMissingLeads(ctx context.Context, pool *pgxpool.Pool, limit int) ([]missingApplicant, error) {
	query := `
		SELECT a.id, a.phone_number
		FROM applicants a
		LEFT JOIN lead_records lr ON lr.applicant_id = a.id
		WHERE a.phone_verified AND lr.applicant_id IS NULL
		ORDER BY a.created_at
		LIMIT $1`

	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []missingApplicant
	for rows.Next() {
		var a missingApplicant
		if err := rows.Scan(&a.id, &a.phone); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// drainOutbox replays every pending outbox entry once, regardless of its
// scheduled due time. Entries that fail stay pending for the regular worker.
func drainOutbox(ctx context.Context, pool *pgxpool.Pool, syncer crmsync.LeadSyncer, log *logger.Logger) {
	repo := syncqueue.New(pool)

	if err := repo.MakeAllDue(ctx); err != nil {
		log.Error("failed to reset outbox due times", "error", err)
		return
	}

	drained, failed := 0, 0
	for {
		records, err := repo.ClaimPending(ctx, 50)
		if err != nil {
			log.Error("failed to claim outbox entries", "error", err)
			return
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			if err := repo.MarkProcessing(ctx, rec.ID); err != nil {
				log.Warn("failed to mark outbox entry", "id", rec.ID, "error", err)
				continue
			}
			if err := replay(ctx, syncer, rec.Operation, rec.Payload); err != nil {
				log.Warn("outbox replay failed", "id", rec.ID, "operation", rec.Operation, "error", err)
				_ = repo.Reschedule(ctx, rec.ID, time.Now().Add(time.Minute), err.Error())
				failed++
				continue
			}
			if err := repo.MarkSucceeded(ctx, rec.ID); err != nil {
				log.Warn("failed to mark outbox entry succeeded", "id", rec.ID, "error", err)
			}
			drained++
		}
	}
	log.Info("outbox drain complete", "drained", drained, "failed", failed)
}

func replay(ctx context.Context, syncer crmsync.LeadSyncer, operation string, payload []byte) error {
	switch operation {
	case crmsync.OpCreateInitialLead:
		var e events.ApplicantRegistered
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		_, err := syncer.CreateInitialLead(ctx, e.ApplicantID, e.PhoneNumber)
		return err
	case crmsync.OpLinkIdentity:
		var e events.IdentityVerified
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		return syncer.LinkIdentity(ctx, crmsync.PersonalRecordFrom(e))
	case crmsync.OpFinalize:
		var e events.ApplicationFinalized
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		return syncer.Finalize(ctx, crmsync.ProgramSelectionFrom(e))
	case crmsync.OpTransitionStage:
		var e events.DecisionIssued
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		outcome := transport.OutcomeRejected
		if e.Accepted {
			outcome = transport.OutcomeAccepted
		}
		return syncer.TransitionStage(ctx, e.ApplicantID, outcome)
	default:
		return nil
	}
}
