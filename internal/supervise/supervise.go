// Package supervise runs long-lived background tasks, catching errors and
// panics at the task boundary and restarting them with a bounded budget.
package supervise

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"

	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
	"github.com/musiccat/musiccat-rpc/internal/metrics"
)

// Policy bounds how often a failing task is restarted.
type Policy struct {
	// MaxRestarts is the number of consecutive restarts before giving up.
	MaxRestarts int
	// Delay is the pause before each restart.
	Delay time.Duration
	// StableAfter resets the failure count for runs lasting at least this long.
	StableAfter time.Duration
}

// DefaultPolicy returns the default restart policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRestarts: 5,
		Delay:       5 * time.Second,
		StableAfter: time.Minute,
	}
}

// ReportFunc receives human-readable task status lines.
type ReportFunc func(task, status string)

// TaskFunc is a long-running task. Returning nil means the task is done.
type TaskFunc func(ctx context.Context) error

// Supervisor restarts failed tasks according to a Policy.
type Supervisor struct {
	policy  Policy
	log     *slog.Logger
	metrics *metrics.Metrics
	report  ReportFunc
	now     func() time.Time
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Supervisor) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics counts restarts per task.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// WithReporter forwards failure status lines, e.g. to the host UI.
func WithReporter(fn ReportFunc) Option {
	return func(s *Supervisor) {
		s.report = fn
	}
}

// WithClock sets the time source used to measure run length.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		s.now = now
	}
}

// New creates a supervisor. Negative policy values are treated as zero.
func New(policy Policy, opts ...Option) *Supervisor {
	policy.MaxRestarts = max(policy.MaxRestarts, 0)
	policy.Delay = max(policy.Delay, 0)
	policy.StableAfter = max(policy.StableAfter, 0)

	s := &Supervisor{
		policy: policy,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes fn until it returns nil or ctx is done, restarting it after
// errors and panics. It returns an error wrapping ErrTaskHalted once the
// restart budget is spent.
func (s *Supervisor) Run(ctx context.Context, name string, fn TaskFunc) error {
	failures := 0

	for {
		started := s.now()
		err := runOnce(ctx, fn)

		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			s.log.Debug("task finished", "task", name)
			return nil
		}

		if s.policy.StableAfter > 0 && s.now().Sub(started) >= s.policy.StableAfter {
			failures = 0
		}
		failures++

		if failures > s.policy.MaxRestarts {
			status := fmt.Sprintf("%s: halted after %d failures: %v", name, failures, err)
			s.log.Error("task halted", "task", name, "failures", failures, "error", err)
			s.emit(name, status)
			return fmt.Errorf("%w: %s", apperrors.ErrTaskHalted, status)
		}

		s.log.Warn("task failed, restarting",
			"task", name,
			"attempt", failures,
			"delay", s.policy.Delay,
			"error", err,
		)
		s.emit(name, fmt.Sprintf("%s: failed, restarting in %s: %v", name, s.policy.Delay, err))
		s.metrics.IncTaskRestarts(name)

		if !sleep(ctx, s.policy.Delay) {
			return nil
		}
	}
}

func (s *Supervisor) emit(task, status string) {
	if s.report != nil {
		s.report(task, status)
	}
}

// runOnce runs fn, converting a panic into an error.
func runOnce(ctx context.Context, fn TaskFunc) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = fn(ctx)
	})
	if r := pc.Recovered(); r != nil {
		return fmt.Errorf("panic: %v", r.Value)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
