package salary

import (
	"context"
	"errors"
	"time"

	"go-ems/internal/domain"
	salaryerrors "go-ems/internal/salary/errors"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// Runner is the part of Service the scheduler drives.
type Runner interface {
	RunMonthlyCalculation(ctx context.Context, actor domain.Actor, period Period) (RunResult, error)
}

// Scheduler triggers a monthly run at every occurrence of an RRULE,
// for the month the occurrence falls in.
type Scheduler struct {
	rule   *rrule.RRule
	runner Runner
	logger *zap.Logger
	now    func() time.Time
}

var scheduleEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func NewScheduler(rule string, runner Runner, logger ...*zap.Logger) (*Scheduler, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = scheduleEpoch

	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Scheduler{
		rule:   rr,
		runner: runner,
		logger: l.Named("salary.scheduler"),
		now:    time.Now,
	}, nil
}

// Next returns the first occurrence strictly after t, or the zero time when
// the rule is exhausted.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.rule.After(t.UTC(), false)
}

func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.Next(s.now())
		if next.IsZero() {
			s.logger.Warn("salary schedule has no further occurrences")
			return
		}
		s.logger.Info("next salary run scheduled", zap.Time("at", next), zap.String("period", PeriodOf(next).Key()))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Fire(ctx, next)
		}
	}
}

// Fire runs the calculation for the month containing at.
func (s *Scheduler) Fire(ctx context.Context, at time.Time) {
	period := PeriodOf(at)
	result, err := s.runner.RunMonthlyCalculation(ctx, domain.SystemActor(), period)
	if errors.Is(err, salaryerrors.ErrRunInProgress) {
		s.logger.Info("scheduled salary run skipped, already running", zap.String("period", period.Key()))
		return
	}
	if err != nil {
		s.logger.Error("scheduled salary run failed", zap.String("period", period.Key()), zap.Error(err))
		return
	}
	s.logger.Info("scheduled salary run finished",
		zap.String("period", period.Key()),
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Failed)),
	)
}
