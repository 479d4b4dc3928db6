// Package db opens the two stores behind the site: PostgreSQL for the
// admin-managed catalog and form configuration, MongoDB for transactions.
package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cusspwk/cuss/config"
)

// applicationName tags our sessions in pg_stat_activity.
const applicationName = "cuss"

// NewPostgresPool opens the catalog pool and pings it.
//
// Every connection carries application_name and the configured
// statement_timeout, so a stuck admin query cannot hold a connection the
// booking form needs. pgx warnings and errors go to log; pass a Debug-level
// logger to see each query.
func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 15 * time.Minute

	params := poolCfg.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   QueryLogger(log),
		LogLevel: traceLevel(log),
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.DBName, err)
	}

	return pool, nil
}

// HealthCheck pings the PostgreSQL pool and returns nil if healthy.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return pool.Ping(pingCtx)
}

// ─── pgx → zap ──────────────────────────────────────────────

// QueryLogger adapts log to the pgx trace logger. Trace data keys become
// zap fields in sorted order.
func QueryLogger(log *zap.Logger) tracelog.Logger {
	log = log.Named("postgres")
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]zap.Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, zap.Any(k, data[k]))
		}
		if ce := log.Check(zapLevel(level), msg); ce != nil {
			ce.Write(fields...)
		}
	})
}

func zapLevel(level tracelog.LogLevel) zapcore.Level {
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		return zapcore.DebugLevel
	case tracelog.LogLevelInfo:
		return zapcore.InfoLevel
	case tracelog.LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// traceLevel asks pgx for per-query logs only when log would keep them.
func traceLevel(log *zap.Logger) tracelog.LogLevel {
	if log.Core().Enabled(zapcore.DebugLevel) {
		return tracelog.LogLevelDebug
	}
	return tracelog.LogLevelWarn
}
