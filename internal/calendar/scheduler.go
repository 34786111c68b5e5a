package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "hijrical/internal/log"
)

// Scheduler triggers non-forced refreshes on a cron schedule. The
// service's minimum interval still applies, so a schedule tighter than
// the interval only retries after failures.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
}

// NewScheduler parses spec (standard 5-field cron syntax or a descriptor
// such as "@hourly") in loc.
func NewScheduler(ctx context.Context, svc *Service, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		if _, err := svc.Refresh(ctx, false); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: invalid refresh schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, service: svc}, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	appLog.Info("refresh scheduler started", "entries", len(s.cron.Entries()))
}

// Next returns the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the schedule and waits for a running refresh to finish or
// ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
