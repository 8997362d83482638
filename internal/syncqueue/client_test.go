package syncqueue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"qabul_backend/platform/logger"
)

type queueConfig struct {
	redisURL string
}

func (c queueConfig) GetRedisURL() string       { return c.redisURL }
func (c queueConfig) GetRedisTLSInsecure() bool { return false }
func (c queueConfig) GetAsynqQueueName() string { return "crm-sync" }
func (c queueConfig) GetAsynqConcurrency() int  { return 1 }

func TestRedisClientOpt_ParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6379/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}

	if opt.Addr != "localhost:6379" {
		t.Errorf("addr = %q", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Errorf("password = %q", opt.Password)
	}
	if opt.DB != 2 {
		t.Errorf("db = %d", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("plain redis url must not carry tls config")
	}
}

func TestRedisClientOpt_InsecureTLS(t *testing.T) {
	opt, err := redisClientOpt("redis://localhost:6379", true)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Error("expected insecure tls config")
	}
}

func TestRedisClientOpt_InvalidURL(t *testing.T) {
	if _, err := redisClientOpt("not-a-url", false); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestNewDispatcher_RequiresRedisURL(t *testing.T) {
	if _, err := NewDispatcher(queueConfig{}, nil, logger.New("test")); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestNewDispatcher_ConnectsToRedis(t *testing.T) {
	srv := miniredis.RunT(t)

	d, err := NewDispatcher(queueConfig{redisURL: "redis://" + srv.Addr()}, nil, logger.New("test"))
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewWorker_RequiresRedisURL(t *testing.T) {
	if _, err := NewWorker(queueConfig{}, nil, &fakeSyncer{}, logger.New("test")); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestClient_NilIsNoOp(t *testing.T) {
	var c *Client
	if err := c.EnqueueRetry(context.Background(), "crmsync:finalize", []byte("{}")); err != nil {
		t.Errorf("nil client EnqueueRetry = %v", err)
	}
}
