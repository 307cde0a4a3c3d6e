package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/playground"
	"github.com/terra-clan/skillpath-engine/internal/storage"
)

// Cleaner periodically removes expired playground sessions and prunes
// progress entries that reference resources no longer in the catalog.
type Cleaner struct {
	runner   playground.Runner
	repo     storage.Repository
	catalog  *catalog.Store
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a cleaner with the given sweep interval.
func New(runner playground.Runner, repo storage.Repository, store *catalog.Store, interval time.Duration) *Cleaner {
	return &Cleaner{
		runner:   runner,
		repo:     repo,
		catalog:  store,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called.
func (c *Cleaner) Start() {
	go c.run()
}

// Stop signals the loop to exit and waits for the current sweep to finish.
func (c *Cleaner) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Cleaner) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	slog.Info("cleanup worker started", "interval", c.interval)

	for {
		select {
		case <-c.stopCh:
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cleaner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c.sweepSessions(ctx)
	c.sweepProgress(ctx)
}

func (c *Cleaner) sweepSessions(ctx context.Context) {
	expired, err := c.runner.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to list expired sessions", "error", err)
		return
	}

	for _, session := range expired {
		if err := c.runner.Delete(ctx, session.ID); err != nil {
			slog.Error("failed to delete expired session", "error", err, "id", session.ID)
			continue
		}
		slog.Info("expired session removed", "id", session.ID, "user", session.UserID, "expired_at", session.ExpiresAt)
	}
}

// sweepProgress drops completed-resource entries whose (resource, skill) pair
// no longer resolves in the current catalog snapshot. Resource deletions are
// eventually consistent with user progress.
func (c *Cleaner) sweepProgress(ctx context.Context) {
	snapshot := c.catalog.Snapshot()

	const pageSize = 200
	offset := 0

	for {
		page, err := c.repo.ListUserProgress(ctx, pageSize, offset)
		if err != nil {
			slog.Error("failed to list user progress", "error", err)
			return
		}
		if len(page) == 0 {
			return
		}

		for _, p := range page {
			kept := p.CompletedResources[:0]
			pruned := 0
			for _, cr := range p.CompletedResources {
				if snapshot.HasResourcePair(cr.SkillID, cr.ResourceID) {
					kept = append(kept, cr)
				} else {
					pruned++
				}
			}
			if pruned == 0 {
				continue
			}

			p.CompletedResources = kept
			if err := c.repo.SaveUserProgress(ctx, p); err != nil {
				slog.Error("failed to prune stale progress entries", "error", err, "user", p.UserID)
				continue
			}
			slog.Info("pruned stale completed resources", "user", p.UserID, "count", pruned)
		}

		if len(page) < pageSize {
			return
		}
		offset += pageSize
	}
}
