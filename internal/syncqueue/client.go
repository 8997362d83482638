package syncqueue

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"qabul_backend/platform/logger"
)

// initialRetryDelay spaces the first replay away from the failure; the CRM is
// usually still down seconds after an error.
const initialRetryDelay = time.Minute

// Client records failed sync operations in the outbox. It implements
// crmsync.Enqueuer. A nil Client drops retries silently.
type Client struct {
	repo *Repository
	log  *logger.Logger
}

func NewClient(repo *Repository, log *logger.Logger) *Client {
	return &Client{repo: repo, log: log}
}

func (c *Client) EnqueueRetry(ctx context.Context, operation string, payload []byte) error {
	if c == nil || c.repo == nil {
		return nil
	}

	id, err := c.repo.Insert(ctx, operation, payload, time.Now().UTC().Add(initialRetryDelay))
	if err != nil {
		return err
	}

	c.log.Info("crm sync retry scheduled", "operation", operation, "outbox_id", id)
	return nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
