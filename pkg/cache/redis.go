// Package cache opens the Redis client that fronts the form registry reads.
package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/config"
)

// NewRedisClient connects to Redis and pings it once. A quarter of the pool
// is kept warm since the form cache is read on every wizard step. Commands
// slower than cfg.SlowThreshold are logged.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	minIdle := cfg.PoolSize / 4
	if minIdle < 1 {
		minIdle = 1
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: minIdle,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if cfg.SlowThreshold > 0 {
		client.AddHook(NewSlowLogHook(cfg.SlowThreshold, log))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr(), err)
	}

	return client, nil
}

// HealthCheck pings the Redis client and returns nil if healthy.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(pingCtx).Err()
}

// ─── Slow command log ───────────────────────────────────────

// SlowLogHook warns about commands and pipelines that take longer than
// threshold. Only command names are logged, never keys or values.
type SlowLogHook struct {
	threshold time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewSlowLogHook creates the hook.
func NewSlowLogHook(threshold time.Duration, log *zap.Logger) *SlowLogHook {
	return &SlowLogHook{threshold: threshold, log: log.Named("redis"), now: time.Now}
}

func (h *SlowLogHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *SlowLogHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := h.now()
		err := next(ctx, cmd)
		if took := h.now().Sub(start); took > h.threshold {
			h.log.Warn("slow redis command",
				zap.String("cmd", cmd.Name()), zap.Duration("took", took), zap.Error(err))
		}
		return err
	}
}

func (h *SlowLogHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := h.now()
		err := next(ctx, cmds)
		if took := h.now().Sub(start); took > h.threshold {
			h.log.Warn("slow redis pipeline",
				zap.Int("cmds", len(cmds)), zap.Duration("took", took), zap.Error(err))
		}
		return err
	}
}
