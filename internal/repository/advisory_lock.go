package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock serializes the dispatch loop across processes using a
// session-level Postgres advisory lock, so only one instance hands jobs to
// the queue at a time.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64
}

func NewAdvisoryLock(pool *pgxpool.Pool, key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, key: key}
}

// WithLock runs fn while holding the advisory lock. It returns false without
// running fn when another process holds the lock. The lock lives on a pinned
// connection so the unlock pairs with the same session.
func (l *AdvisoryLock) WithLock(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&acquired); err != nil {
		return false, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		var released bool
		_ = conn.QueryRow(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, l.key).Scan(&released)
	}()

	return true, fn(ctx)
}
