package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Cleaner removes expired state and reports how much it removed
type Cleaner interface {
	CleanExpired(ctx context.Context) (int, error)
}

// Sweeper periodically removes expired sessions and pending authorizations
type Sweeper struct {
	scheduler gocron.Scheduler
	cleaner   Cleaner
	logger    *slog.Logger
	timeout   time.Duration
}

// NewSweeper schedules cleaner to run every interval. Runs never overlap.
func NewSweeper(cleaner Cleaner, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid sweep interval %s", interval)
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Sweeper{
		scheduler: sched,
		cleaner:   cleaner,
		logger:    logger,
		timeout:   interval,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}

	return s, nil
}

// Start begins running the sweep on its schedule
func (s *Sweeper) Start() {
	s.scheduler.Start()
}

// Shutdown stops the schedule and waits for a running sweep to finish
func (s *Sweeper) Shutdown() error {
	return s.scheduler.Shutdown()
}

// Sweep runs one cleanup immediately
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	removed, err := s.cleaner.CleanExpired(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("session sweep", slog.Int("removed", removed))
	}
	return removed, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.Sweep(ctx)
}
