package syncqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
)

const (
	dispatchInterval = 2 * time.Second
	dispatchBatch    = 50
)

// Dispatcher polls the outbox for due records and hands them to asynq.
type Dispatcher struct {
	client *asynq.Client
	queue  string
	repo   *Repository
	log    *logger.Logger
}

func NewDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*Dispatcher, error) {
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

	return &Dispatcher{
		client: asynq.NewClient(opt),
		queue:  queue,
		repo:   New(pool),
		log:    log,
	}, nil
}

func (d *Dispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := d.repo.ClaimPending(ctx, dispatchBatch)
		if err != nil {
			d.log.Warn("sync outbox claim failed", "error", err)
			continue
		}

		for _, rec := range records {
			task, err := NewCRMSyncDueTask(CRMSyncDuePayload{OutboxID: rec.ID.String()})
			if err != nil {
				_ = d.repo.Reschedule(ctx, rec.ID, time.Now().UTC().Add(initialRetryDelay), err.Error())
				continue
			}

			if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue)); err != nil {
				_ = d.repo.Reschedule(ctx, rec.ID, time.Now().UTC().Add(initialRetryDelay), err.Error())
				continue
			}
		}
	}
}
