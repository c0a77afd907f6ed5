package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbmooners/dashboard/internal/config"
)

// MoversTable receives one row per mover per poll.
const MoversTable = "mover_snapshots"

// Schema creates the history table. On TimescaleDB the table is turned
// into a hypertable on fetched_at; plain PostgreSQL skips that step.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS mover_snapshots (
		fetched_at      TIMESTAMPTZ      NOT NULL,
		feed            TEXT             NOT NULL,
		time_window     TEXT             NOT NULL,
		rank            INTEGER          NOT NULL,
		symbol          TEXT             NOT NULL,
		price           DOUBLE PRECISION NOT NULL,
		change_pct      DOUBLE PRECISION NOT NULL,
		badge           TEXT             NOT NULL,
		trend_direction TEXT             NOT NULL DEFAULT 'flat',
		trend_streak    INTEGER          NOT NULL DEFAULT 0,
		trend_score     DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS mover_snapshots_symbol_idx ON mover_snapshots (symbol, fetched_at DESC)`,
}

const hypertable = `SELECT create_hypertable('mover_snapshots', 'fetched_at', if_not_exists => TRUE)`

// Execer runs a statement. *pgxpool.Pool and pgx.Conn satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the history table and index if missing.
func EnsureSchema(ctx context.Context, db Execer, timescale bool) error {
	for _, q := range Schema {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	if timescale {
		if _, err := db.Exec(ctx, hypertable); err != nil {
			return fmt.Errorf("create hypertable: %w", err)
		}
	}
	return nil
}

// ApplicationName tags history sessions in pg_stat_activity.
const ApplicationName = "cbmooners-dashboard"

// ConnString renders cfg as a postgres:// URL that pgxpool.ParseConfig
// accepts. Pool sizes travel as pool_max_conns and pool_min_conns.
func ConnString(cfg config.DBConfig) string {
	q := url.Values{}
	q.Set("application_name", ApplicationName)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}
	q.Set("sslmode", sslMode)

	if cfg.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		q.Set("pool_min_conns", strconv.Itoa(cfg.MinConns))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
