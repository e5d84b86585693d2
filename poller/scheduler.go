// Package poller keeps dashboard and tracking views eventually consistent
// with the server over plain HTTP polling. Each view owns its snapshot;
// two views may disagree until their next poll, which is accepted.
package poller

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Task func(ctx context.Context) error

// Scheduler runs a task once immediately and then on a fixed interval.
// Kick runs it again without waiting for the next tick, e.g. right after a
// successful status transition or an external refresh signal.
type Scheduler struct {
	interval time.Duration
	task     Task
	kick     chan struct{}
	log      *logrus.Logger
}

func NewScheduler(interval time.Duration, task Task, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		interval: interval,
		task:     task,
		kick:     make(chan struct{}, 1),
		log:      log,
	}
}

// Run blocks until ctx is cancelled. Task errors are logged and the loop
// retries on the next tick; a failed poll never tears the view down.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.kick:
			s.runOnce(ctx)
		}
	}
}

// Kick requests an immediate run. Non-blocking; a pending kick coalesces
// with later ones.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.task(ctx); err != nil {
		s.log.WithError(err).Warn("scheduled poll failed, keeping previous state")
	}
}
