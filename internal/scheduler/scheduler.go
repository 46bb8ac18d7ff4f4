package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// messageDispatcher dispatches every scheduled message whose time has come.
// Dispatch is idempotent, so overlapping or retried runs are safe.
type messageDispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

// Scheduler periodically sweeps due messages and hands them to the sender.
type Scheduler struct {
	dispatcher messageDispatcher
	interval   time.Duration
	logger     *slog.Logger
}

func New(dispatcher messageDispatcher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("message dispatcher started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("message dispatcher stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	runID := uuid.New().String()
	dispatched, err := s.dispatcher.DispatchDue(ctx)
	if err != nil {
		s.logger.Error("dispatch run finished with errors",
			"run_id", runID,
			"dispatched", dispatched,
			"err", err,
		)
		return
	}
	if dispatched > 0 {
		s.logger.Info("dispatch run finished",
			"run_id", runID,
			"dispatched", dispatched,
		)
	}
}
