package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobRunner executes one claimed job end to end.
type JobRunner interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// Pool consumes the dispatch queue with a fixed number of workers.
type Pool struct {
	queue  Dispatch
	runner JobRunner
	count  int
	block  time.Duration
}

func NewPool(queue Dispatch, runner JobRunner, count int) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{queue: queue, runner: runner, count: count, block: 5 * time.Second}
}

// Run blocks until ctx is cancelled and every worker has drained.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(p.count)
	for i := 0; i < p.count; i++ {
		go func(worker int) {
			defer wg.Done()
			p.work(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) work(ctx context.Context, worker int) {
	for {
		if ctx.Err() != nil {
			return
		}

		jobID, err := p.queue.Dequeue(ctx, p.block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("dequeue failed", "worker", worker, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if jobID == "" {
			continue
		}

		if err := p.runner.ProcessJob(ctx, jobID); err != nil {
			slog.Error("job processing failed", "worker", worker, "job_id", jobID, "error", err)
		}
	}
}
