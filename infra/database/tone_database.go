// Package database opens the Postgres and Redis connections.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// PoolSizing bounds the connection pools. Zero fields keep the defaults.
type PoolSizing struct {
	PostgresMaxConns int32
	PostgresMinConns int32
	RedisPoolSize    int
}

func (s PoolSizing) withDefaults() PoolSizing {
	if s.PostgresMaxConns <= 0 {
		s.PostgresMaxConns = 20
	}
	if s.PostgresMinConns <= 0 || s.PostgresMinConns > s.PostgresMaxConns {
		s.PostgresMinConns = s.PostgresMaxConns / 5
	}
	if s.RedisPoolSize <= 0 {
		s.RedisPoolSize = 32
	}
	return s
}

// Postgres is a pgx pool plus an sqlx handle over the same connections,
// so analysis queries and health stats see one pool.
type Postgres struct {
	Pool *pgxpool.Pool
	DB   *sqlx.DB
}

func NewPostgres(ctx context.Context, databaseURL string, sizing PoolSizing) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	sizing = sizing.withDefaults()

	pcfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	pcfg.MaxConns = sizing.PostgresMaxConns
	pcfg.MinConns = sizing.PostgresMinConns
	pcfg.MaxConnIdleTime = 15 * time.Minute
	pcfg.MaxConnLifetime = time.Hour
	// pq.Array values travel as text literals and rely on the server-side cast
	pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{
		Pool: pool,
		DB:   sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
	}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Close() {
	_ = p.DB.Close()
	p.Pool.Close()
}

// PostgresStats is the /metrics view of the pgx pool.
type PostgresStats struct {
	Total       int32   `json:"total"`
	InUse       int32   `json:"in_use"`
	Idle        int32   `json:"idle"`
	Max         int32   `json:"max"`
	Utilization float64 `json:"utilization"`
	WaitCount   int64   `json:"wait_count"`
	WaitMS      int64   `json:"wait_ms"`
}

func (p *Postgres) Stats() PostgresStats {
	s := p.Pool.Stat()
	out := PostgresStats{
		Total:     s.TotalConns(),
		InUse:     s.AcquiredConns(),
		Idle:      s.IdleConns(),
		Max:       s.MaxConns(),
		WaitCount: s.EmptyAcquireCount(),
		WaitMS:    s.AcquireDuration().Milliseconds(),
	}
	out.Utilization = ratio(int64(out.InUse), int64(out.Max))
	return out
}

// NewRedis parses the URL, applies the pool size and pings once.
func NewRedis(ctx context.Context, redisURL string, sizing PoolSizing) (*redis.Client, error) {
	sizing = sizing.withDefaults()

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = sizing.RedisPoolSize
	opt.MinIdleConns = sizing.RedisPoolSize / 4
	opt.DialTimeout = connectTimeout

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStats is the /metrics view of the go-redis pool.
type RedisStats struct {
	Total    uint32  `json:"total"`
	Idle     uint32  `json:"idle"`
	Timeouts uint32  `json:"timeouts"`
	HitRatio float64 `json:"hit_ratio"`
}

func RedisPoolStats(client *redis.Client) RedisStats {
	s := client.PoolStats()
	return RedisStats{
		Total:    s.TotalConns,
		Idle:     s.IdleConns,
		Timeouts: s.Timeouts,
		HitRatio: ratio(int64(s.Hits), int64(s.Hits)+int64(s.Misses)),
	}
}

func ratio(n, d int64) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
