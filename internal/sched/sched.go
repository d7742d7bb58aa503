// Package sched triggers recurring pipeline runs.
package sched

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ParseInterval parses a schedule interval such as "30m", "6h" or "2d".
// A bare number is taken as hours.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, eris.New("sched: empty interval")
	}

	unit := time.Hour
	switch {
	case strings.HasSuffix(s, "m"):
		unit = time.Minute
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		s = strings.TrimSuffix(s, "h")
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
		s = strings.TrimSuffix(s, "d")
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "sched: parse interval %q", s)
	}
	if n <= 0 {
		return 0, eris.Errorf("sched: interval must be positive, got %d", n)
	}
	return time.Duration(n) * unit, nil
}

// Runner is the unit of work a Scheduler repeats.
type Runner func(ctx context.Context)

// Scheduler runs a Runner immediately and then on a fixed interval until
// its context is cancelled.
type Scheduler struct {
	interval time.Duration
	run      Runner
}

// New creates a Scheduler firing every interval.
func New(interval time.Duration, run Runner) *Scheduler {
	return &Scheduler{interval: interval, run: run}
}

// Start blocks until ctx is cancelled. The first run happens right away;
// subsequent runs fire on the interval. Runs do not overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	zap.L().Info("sched: starting",
		zap.Duration("interval", s.interval),
	)

	s.run(ctx)

	runs := make(chan struct{}, 1)
	c := cron.New()
	if err := c.AddFunc("@every "+s.interval.String(), func() {
		select {
		case runs <- struct{}{}:
		default: // previous run still in flight, skip this tick
		}
	}); err != nil {
		return eris.Wrap(err, "sched: register schedule")
	}
	c.Start()
	defer c.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("sched: stopping")
			return nil
		case <-runs:
			s.run(ctx)
		}
	}
}
