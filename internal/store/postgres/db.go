package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SlowQuery logs queries taking at least this long at warn level. Zero disables it.
	SlowQuery time.Duration
	Logger    *slog.Logger
}

// Open connects through the pgx database/sql driver and pings within five seconds before
// returning.
func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := bun.NewDB(sqlDB, pgdialect.New())
	if pool.SlowQuery > 0 {
		db.AddQueryHook(newSlowQueryHook(pool.SlowQuery, pool.Logger))
	}
	return db, nil
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

type slowQueryHook struct {
	threshold time.Duration
	log       *slog.Logger
	since     func(time.Time) time.Duration
}

func newSlowQueryHook(threshold time.Duration, log *slog.Logger) *slowQueryHook {
	if log == nil {
		log = slog.Default()
	}
	return &slowQueryHook{
		threshold: threshold,
		log:       log.With(slog.String("component", "store.postgres")),
		since:     time.Since,
	}
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	elapsed := h.since(event.StartTime)
	if elapsed < h.threshold {
		return
	}
	attrs := []any{
		slog.Duration("elapsed", elapsed),
		slog.String("query", event.Query),
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		attrs = append(attrs, slog.Any("err", event.Err))
	}
	h.log.WarnContext(ctx, "slow query", attrs...)
}
