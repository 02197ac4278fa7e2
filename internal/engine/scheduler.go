package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler reloads the inventory periodically with the stored credentials.
type Scheduler struct {
	cron    *cron.Cron
	engine  *Engine
	log     *slog.Logger
	timeout time.Duration
}

// NewScheduler creates a Scheduler that reloads every interval. Overlapping
// runs are skipped rather than queued.
func NewScheduler(eng *Engine, interval time.Duration, log *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reload interval must be positive (got %s)", interval)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	s := &Scheduler{
		cron:    c,
		engine:  eng,
		log:     log,
		timeout: interval,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runReload); err != nil {
		return nil, fmt.Errorf("scheduling reload: %w", err)
	}

	return s, nil
}

// Start begins running scheduled reloads.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler. The returned context is done once a
// running reload finishes.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runReload() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.log.Info("scheduled reload starting")
	if _, err := s.engine.Reload(ctx); err != nil {
		if errors.Is(err, ErrNoCredentials) {
			s.log.Debug("scheduled reload skipped, no credentials")
			return
		}
		s.log.Error("scheduled reload failed", "error", err)
	}
}
