package application

import (
	"context"
	"log"
	"time"
)

// Scheduler triggers allocation batches, either daily at a UTC "HH:MM" or
// every interval when one is set.
type Scheduler struct {
	runner   *BatchRunner
	dailyAt  string
	interval time.Duration
	logger   *log.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(runner *BatchRunner, dailyAt string, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		runner:   runner,
		dailyAt:  dailyAt,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the scheduler loop until ctx is done. Runs never overlap.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	tick := time.Minute
	if s.interval > 0 {
		tick = s.interval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	if s.interval > 0 {
		return true
	}
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result := s.runner.RunAllocationBatch(ctx)
	if len(result.Errors) > 0 {
		s.logger.Printf("allocation schedule: processed=%d errors=%d first=%s", result.ProcessedCount, len(result.Errors), result.Errors[0])
	}
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
