package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dispatchKey = "trash:dispatch"

// RedisQueue hands claimed job ids from the scheduler to the worker pool.
// Postgres stays authoritative: a lost queue message is recovered by the
// task restarter, and a duplicate delivery is absorbed by the in_progress
// gate on the ledger entry.
type RedisQueue struct {
	rdb *redis.Client
}

func New(addr string, password string) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisQueue{rdb: rdb}, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobIDs ...string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	pipe := q.rdb.TxPipeline()
	for _, id := range jobIDs {
		pipe.LPush(ctx, dispatchKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue jobs: %w", err)
	}
	return nil
}

// Dequeue blocks up to the given duration for the next job id. It returns
// an empty id when the wait timed out.
func (q *RedisQueue) Dequeue(ctx context.Context, block time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, block, dispatchKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("dequeue job: %w", err)
	}
	if len(res) == 2 {
		return res[1], nil
	}
	return "", nil
}
