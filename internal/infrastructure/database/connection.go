package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/config"
)

// ConnectionPool wraps a pgx pool with periodic health checks and a small
// set of observed metrics. The engine reads one source, so there is a single
// primary and no failover machinery.
type ConnectionPool struct {
	pool            *pgxpool.Pool
	config          *config.DatabaseConfig
	logger          *zap.Logger
	healthCheckStop chan struct{}
	stopOnce        sync.Once
	metrics         *ConnectionMetrics
}

// ConnectionMetrics tracks pool health over the life of the process.
type ConnectionMetrics struct {
	mu sync.RWMutex

	TotalConnections    int64
	ActiveConnections   int64
	IdleConnections     int64
	HealthCheckFailures int64
	LastHealthCheck     time.Time
}

// Snapshot returns a copy of the current metric values.
func (m *ConnectionMetrics) Snapshot() ConnectionMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ConnectionMetrics{
		TotalConnections:    m.TotalConnections,
		ActiveConnections:   m.ActiveConnections,
		IdleConnections:     m.IdleConnections,
		HealthCheckFailures: m.HealthCheckFailures,
		LastHealthCheck:     m.LastHealthCheck,
	}
}

// NewConnectionPool connects to the configured database and starts the
// health check routine.
func NewConnectionPool(cfg *config.DatabaseConfig, logger *zap.Logger) (*ConnectionPool, error) {
	p := &ConnectionPool{
		config:          cfg,
		logger:          logger,
		healthCheckStop: make(chan struct{}),
		metrics:         &ConnectionMetrics{},
	}

	poolConfig, err := p.poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p.pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := p.pool.Ping(ctx); err != nil {
		p.pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	go p.healthCheckRoutine()

	logger.Info("database connection pool initialized",
		zap.Int("max_connections", int(poolConfig.MaxConns)))

	return p, nil
}

// poolConfig translates the repo config into pgx pool settings.
func (p *ConnectionPool) poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolConfig.MaxConns = 25
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "ffe",
		"timezone":          "UTC",
		"lock_timeout":      "10s",
		"statement_timeout": "30s",
	}

	poolConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		p.logger.Debug("establishing database connection",
			zap.String("host", cc.Host),
			zap.Uint16("port", cc.Port))
		return nil
	}

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		p.metrics.mu.Lock()
		p.metrics.TotalConnections++
		p.metrics.mu.Unlock()
		return nil
	}

	return poolConfig, nil
}

// Pool returns the underlying pgx pool.
func (p *ConnectionPool) Pool() *pgxpool.Pool {
	return p.pool
}

// Stat returns the live pgx pool statistics.
func (p *ConnectionPool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

// Metrics returns a snapshot of the observed pool metrics.
func (p *ConnectionPool) Metrics() ConnectionMetrics {
	return p.metrics.Snapshot()
}

// Ping verifies the database is reachable.
func (p *ConnectionPool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Transaction executes a function within a database transaction.
func (p *ConnectionPool) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, fn)
}

// GetDB returns a standard database/sql handle backed by the pool, for
// tooling that speaks database/sql.
func (p *ConnectionPool) GetDB() *sql.DB {
	return stdlib.OpenDBFromPool(p.pool)
}

func (p *ConnectionPool) healthCheckRoutine() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.performHealthCheck()
		case <-p.healthCheckStop:
			return
		}
	}
}

func (p *ConnectionPool) performHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.pool.Ping(ctx); err != nil {
		p.logger.Error("database health check failed", zap.Error(err))
		p.metrics.mu.Lock()
		p.metrics.HealthCheckFailures++
		p.metrics.mu.Unlock()
	}

	stats := p.pool.Stat()
	p.metrics.mu.Lock()
	p.metrics.ActiveConnections = int64(stats.AcquiredConns())
	p.metrics.IdleConnections = int64(stats.IdleConns())
	p.metrics.LastHealthCheck = time.Now()
	p.metrics.mu.Unlock()
}

// Close stops the health check routine and releases all connections.
func (p *ConnectionPool) Close() error {
	p.stopOnce.Do(func() { close(p.healthCheckStop) })
	p.pool.Close()
	p.logger.Info("database connection pool closed")
	return nil
}
