// Package scheduler runs the periodic flush of the pending mutation
// queue. Connectivity transitions already trigger a replay; the schedule
// is the safety net for operations queued while the network flag was
// wrong or a replay was deferred.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/offline"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler drives offline.Manager.Sync on a fixed interval.
type Scheduler struct {
	queue    *offline.Manager
	log      logging.Logger
	interval time.Duration
	cron     *cron.Cron
	entryID  cron.EntryID
}

// New creates a stopped scheduler flushing the queue every interval.
func New(queue *offline.Manager, log logging.Logger, interval time.Duration) *Scheduler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Scheduler{
		queue:    queue,
		log:      log,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start schedules the flush job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("invalid flush interval: %s", s.interval)
	}
	spec := fmt.Sprintf("@every %s", s.interval)
	id, err := s.cron.AddFunc(spec, s.flush)
	if err != nil {
		return fmt.Errorf("failed to schedule queue flush: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.log.Info(context.Background(), "queue flush scheduled", "interval", s.interval.String())
	return nil
}

// Stop stops the cron loop. A flush already in progress finishes.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.log.Info(context.Background(), "queue flush scheduler stopped")
}

func (s *Scheduler) flush() {
	ctx := context.Background()
	if s.queue.QueueSize(ctx) == 0 {
		return
	}
	// Sync collapses overlapping calls itself, so a replay already in
	// flight makes this a no-op.
	results := s.queue.Sync(ctx)
	if results != nil {
		s.log.Info(ctx, "scheduled queue flush finished", "attempted", len(results))
	}
}
