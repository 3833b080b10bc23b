package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Scheduler triggers a pipeline run once a day at a fixed UTC time.
type Scheduler struct {
	trigger RunTrigger
	hour    int
	minute  int
	clock   Clock
	logger  *log.Logger
	lastDay string
}

// NewScheduler constructs a Scheduler. dailyAt is "HH:MM" in UTC.
func NewScheduler(trigger RunTrigger, dailyAt string, logger *log.Logger) (*Scheduler, error) {
	if trigger == nil {
		return nil, errors.New("scheduler: nil trigger")
	}
	hour, minute, err := parseDailyAt(dailyAt)
	if err != nil {
		return nil, fmt.Errorf("scheduler: daily time %q: %w", dailyAt, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		trigger: trigger,
		hour:    hour,
		minute:  minute,
		clock:   SystemClock{},
		logger:  logger,
	}, nil
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.trigger == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs the pipeline when the scheduled minute has come and today's run has not happened.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.clock.Now().UTC()
	if !s.shouldRun(now) {
		return false
	}
	s.lastDay = now.Format("2006-01-02")
	summary, err := s.trigger.Trigger(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Printf("scheduler: run skipped, another run in progress")
	case err != nil:
		s.logger.Printf("scheduler: run failed: %v", err)
	default:
		s.logger.Printf("scheduler: run=%s rows=%d", summary.RunID, summary.Rows)
	}
	return true
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	if now.Format("2006-01-02") == s.lastDay {
		return false
	}
	return now.Hour() == s.hour && now.Minute() == s.minute
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
