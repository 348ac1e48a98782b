package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sagepoint/listing-sync/app/sync"
)

// taskTimeout bounds a single scheduled batch. A page fetch plus
// per-record writes finishes well within this on any healthy source.
const taskTimeout = 5 * time.Minute

// Scheduler wraps robfig/cron and fires the import task on the
// configured spec. Each tick processes one page; the offset cursor
// carries the batch across ticks until it completes.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	spec     string
}

func NewScheduler(registry *Registry, spec string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		registry: registry,
		spec:     spec,
	}
}

// Start registers the import job and starts the cron loop. An empty
// spec disables scheduling; imports then run only via the task endpoint.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		slog.Info("Scheduled imports disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runImport); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	slog.Info("Scheduler started", "spec", s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Debug("Scheduler stopped")
}

func (s *Scheduler) runImport() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	// The registry logs failures; an already-running batch just means a
	// manual trigger got there first.
	_, err := s.registry.Run(ctx, TaskImport)
	if err != nil && !errors.Is(err, sync.ErrImportRunning) {
		slog.Debug("Scheduled import did not complete", "error", err)
	}
}
