package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// GC periodically removes scheduled jobs whose ledger entry is gone, which
// can happen if a crash lands between deleting an entry and its job.
type GC struct {
	jobs     JobSource
	interval time.Duration
}

func NewGC(jobs JobSource, interval time.Duration) *GC {
	return &GC{jobs: jobs, interval: interval}
}

func (g *GC) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := g.jobs.DeleteOrphans(ctx)
			if err != nil {
				slog.Error("orphan job sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("removed orphaned jobs", "count", deleted)
			}
		}
	}
}
