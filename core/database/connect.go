package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/m3rciful/cardbot/core/logger"
)

const pingInterval = 2 * time.Second

// Connect opens the pool and waits up to cfg.ConnectWait for the server to
// answer a ping.
func Connect(cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err == nil {
		err = WaitReady(context.Background(), db, cfg.ConnectWait)
		if err != nil {
			_ = db.Close()
		}
	}
	attrs := []slog.Attr{
		slog.String("event", "db.connect"),
		slog.String("driver", cfg.Driver),
		slog.String("db", cfg.Target()),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.DB.LogAttrs(context.Background(), slog.LevelError, "db connect failed",
			append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.DB.LogAttrs(context.Background(), slog.LevelInfo, "db connected",
		append(attrs, slog.Int("pool_open", cfg.MaxConnections))...)
	return db, nil
}

// WaitReady pings db until it answers or wait elapses. A zero wait pings once.
func WaitReady(ctx context.Context, db *sqlx.DB, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, max(wait, 5*time.Second))
	defer cancel()

	deadline := time.Now().Add(wait)
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		if !time.Now().Add(pingInterval).Before(deadline) {
			return err
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.wait"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last ping: %v)", ctx.Err(), err)
		case <-time.After(pingInterval):
		}
	}
}
