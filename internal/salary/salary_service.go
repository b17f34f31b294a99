package salary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-ems/internal/bootstrap"
	"go-ems/internal/domain"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/notification"
	salaryerrors "go-ems/internal/salary/errors"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	defaultWorkers         = 8
	defaultEmployeeTimeout = 10 * time.Second
)

//go:generate mockgen -source=salary_service.go -destination=mock/salary_service_mock.go -package=mock
type Service interface {
	RunMonthlyCalculation(ctx context.Context, actor domain.Actor, period Period) (RunResult, error)
	ComputeOnDemand(ctx context.Context, actor domain.Actor, employeeID string, period Period) (BreakdownResponse, error)
	RunStatus(ctx context.Context, actor domain.Actor, period Period) (RunStatusResponse, error)
	ListRecords(ctx context.Context, actor domain.Actor, period Period) ([]SalaryRecordResponse, error)
	ExportRecords(ctx context.Context, actor domain.Actor, period Period) ([]byte, error)
	Payslip(ctx context.Context, actor domain.Actor, employeeID string, period Period) ([]byte, error)
	InvalidateEmployee(ctx context.Context, employeeID string) error
	WatchInvalidations(ctx context.Context, channel notification.Channel) error
}

type Config struct {
	Workers         int
	EmployeeTimeout time.Duration
}

type Option func(*service)

func WithCache(cache BreakdownCache) Option {
	return func(s *service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithRunLocker(locker RunLocker) Option {
	return func(s *service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

func WithAuditLogger(audit bootstrap.AuditLogger) Option {
	return func(s *service) { s.audit = audit }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("salary.service")
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	db         *sql.DB
	repo       Repository
	outboxRepo kafka.OutboxRepository
	channel    notification.Channel
	cache      BreakdownCache
	locker     RunLocker
	audit      bootstrap.AuditLogger
	logger     *zap.Logger
	now        func() time.Time

	workers         int
	employeeTimeout time.Duration

	runs     *runRegistry
	inflight singleflight.Group
}

func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	channel notification.Channel,
	cfg Config,
	opts ...Option,
) Service {
	s := &service{
		db:              db,
		repo:            repo,
		outboxRepo:      outboxRepo,
		channel:         channel,
		cache:           noopBreakdownCache{},
		locker:          localRunLocker{},
		logger:          zap.L().Named("salary.service"),
		now:             time.Now,
		workers:         cfg.Workers,
		employeeTimeout: cfg.EmployeeTimeout,
		runs:            newRunRegistry(),
	}
	if s.channel == nil {
		s.channel = notification.Noop{}
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.employeeTimeout <= 0 {
		s.employeeTimeout = defaultEmployeeTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) RunMonthlyCalculation(ctx context.Context, actor domain.Actor, period Period) (RunResult, error) {
	if err := period.Validate(); err != nil {
		return RunResult{}, err
	}
	if !actor.CanManage() {
		return RunResult{}, salaryerrors.ErrManagerOnly
	}

	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("period", period.Key()),
		zap.String("actor_id", actor.EmployeeID),
	)

	startedAt := s.now().UTC()
	if !s.runs.begin(period, startedAt) {
		log.Warn("salary run rejected, already running in this instance")
		return RunResult{}, salaryerrors.ErrRunInProgress
	}

	release, acquired, err := s.locker.Acquire(ctx, period)
	if err != nil {
		s.runs.abort(period)
		log.Error("failed to acquire run lock", zap.Error(err))
		return RunResult{}, apperror.Wrap(err, salaryerrors.ErrRunLockUnavailable.Code, salaryerrors.ErrRunLockUnavailable.Message, salaryerrors.ErrRunLockUnavailable.HTTPStatus)
	}
	if !acquired {
		s.runs.abort(period)
		log.Warn("salary run rejected, already running on another instance")
		return RunResult{}, salaryerrors.ErrRunInProgress
	}
	defer release()

	// The run outlives the triggering request.
	runCtx := contextutil.Detach(ctx)

	employees, err := s.repo.ListEmployees(runCtx)
	if err != nil {
		s.runs.abort(period)
		log.Error("failed to list employees", zap.Error(err))
		return RunResult{}, apperror.StoreUnavailable(err)
	}

	log.Info("salary run started", zap.Int("employees", len(employees)), zap.Int("workers", s.workers))

	result := RunResult{
		Month:     period.Month,
		Year:      period.Year,
		Processed: []string{},
		Failed:    []RunFailure{},
		StartedAt: startedAt,
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, emp := range employees {
		emp := emp
		g.Go(func() error {
			resp, err := s.processEmployee(runCtx, actor, emp, period)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("salary computation failed for employee",
					zap.String("employee_id", emp.ID.String()),
					zap.Error(err),
				)
				result.Failed = append(result.Failed, RunFailure{EmployeeID: emp.ID.String(), Reason: err.Error()})
				return nil
			}
			result.Processed = append(result.Processed, emp.ID.String())
			s.channel.NotifyEmployee(runCtx, emp.ID.String(), notification.EventSalaryUpdated, resp)
			return nil
		})
	}
	// Per-employee failures are recorded, never returned.
	_ = g.Wait()

	sort.Strings(result.Processed)
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].EmployeeID < result.Failed[j].EmployeeID
	})
	result.PartialFailure = len(result.Failed) > 0
	result.FinishedAt = s.now().UTC()

	s.channel.Broadcast(runCtx, notification.EventSalaryCalculationComplete, runCompletePayload{
		Month: period.Month,
		Year:  period.Year,
	})

	if err := s.publishRunCompleted(runCtx, actor, result); err != nil {
		log.Error("failed to enqueue salary run event", zap.Error(err))
	}

	if s.audit != nil {
		s.audit.Log(runCtx, bootstrap.AuditLog{
			Action:  "SALARY_RUN_COMPLETED",
			ActorID: actor.EmployeeID,
			Message: fmt.Sprintf("salary run for %s finished", period.Key()),
			Meta: map[string]any{
				"processed": len(result.Processed),
				"failed":    len(result.Failed),
			},
		})
	}

	s.runs.complete(period, result)
	// Saved before the lock is released so other processes never see the
	// period idle between the two.
	if err := s.locker.SaveResult(runCtx, result); err != nil {
		log.Warn("failed to share salary run result", zap.Error(err))
	}

	log.Info("salary run completed",
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

// processEmployee computes and persists one breakdown within the per-employee
// timeout. The result reports what reached the store: once the deadline has
// passed nothing is written.
func (s *service) processEmployee(ctx context.Context, actor domain.Actor, emp EmployeeRef, period Period) (BreakdownResponse, error) {
	empCtx, cancel := context.WithTimeout(ctx, s.employeeTimeout)
	defer cancel()

	b, err := s.compute(empCtx, emp, period)
	if err != nil {
		return BreakdownResponse{}, s.timeoutOr(empCtx, err)
	}
	if err := empCtx.Err(); err != nil {
		return BreakdownResponse{}, s.timeoutOr(empCtx, err)
	}

	at := s.now().UTC()
	record := &SalaryRecord{
		ID:              uuid.New(),
		EmployeeID:      emp.ID,
		Month:           period.Month,
		Year:            period.Year,
		BaseSalary:      b.BaseSalary,
		OvertimePay:     b.OvertimePay,
		Deductions:      b.Deductions,
		FinalSalary:     b.FinalSalary,
		CalculationDate: at,
		CalculatedBy:    actor.EmployeeID,
	}
	if err := s.repo.UpsertRecord(empCtx, record); err != nil {
		if empCtx.Err() != nil {
			return BreakdownResponse{}, s.timeoutOr(empCtx, err)
		}
		return BreakdownResponse{}, apperror.StoreUnavailable(err)
	}
	return mapBreakdownResponse(emp, period, b, at), nil
}

func (s *service) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("computation timed out after %s: %w", s.employeeTimeout, context.DeadlineExceeded)
	}
	return err
}

// compute reads the employee's period snapshot and runs the engine.
// Engine errors are returned as is.
func (s *service) compute(ctx context.Context, emp EmployeeRef, period Period) (Breakdown, error) {
	empID := emp.ID.String()

	attendance, err := s.repo.FindAttendance(ctx, empID, period)
	if err != nil {
		return Breakdown{}, apperror.StoreUnavailable(err)
	}
	leaves, err := s.repo.FindApprovedLeaves(ctx, empID, period)
	if err != nil {
		return Breakdown{}, apperror.StoreUnavailable(err)
	}

	attendanceInput := make([]AttendanceInput, 0, len(attendance))
	for _, row := range attendance {
		attendanceInput = append(attendanceInput, AttendanceInput{
			Date:          row.AttendanceDate,
			Status:        row.Status,
			OvertimeHours: row.OvertimeHours,
		})
	}
	leaveInput := make([]LeaveInput, 0, len(leaves))
	for _, row := range leaves {
		leaveInput = append(leaveInput, LeaveInput{
			Type:      row.LeaveType,
			Status:    row.Status,
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
		})
	}

	return ComputeSalary(emp.BaseSalary, attendanceInput, leaveInput)
}

func (s *service) ComputeOnDemand(ctx context.Context, actor domain.Actor, employeeID string, period Period) (BreakdownResponse, error) {
	if err := period.Validate(); err != nil {
		return BreakdownResponse{}, err
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return BreakdownResponse{}, salaryerrors.ErrInvalidEmployeeID
	}
	if !actor.CanAccessEmployee(employeeID) {
		return BreakdownResponse{}, salaryerrors.ErrForbidden
	}

	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("employee_id", employeeID),
		zap.String("period", period.Key()),
	)

	if cached, ok, err := s.cache.Get(ctx, employeeID, period); err != nil {
		log.Warn("salary cache read failed", zap.Error(err))
	} else if ok {
		log.Debug("salary breakdown served from cache")
		return cached, nil
	}

	// A request arriving after an invalidation must not join a computation
	// started before it, so the generation is part of the key.
	gen, genErr := s.cache.Generation(ctx, employeeID)
	if genErr != nil {
		log.Warn("salary cache generation unavailable, skipping cache", zap.Error(genErr))
	}
	key := fmt.Sprintf("%s:%s:%d", employeeID, period.Key(), gen)
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		// Coalesced callers must not be cancelled by the first caller leaving.
		computeCtx, cancel := context.WithTimeout(contextutil.Detach(ctx), s.employeeTimeout)
		defer cancel()
		return s.computeOnDemand(computeCtx, employeeID, period, gen, genErr == nil)
	})
	if err != nil {
		return BreakdownResponse{}, err
	}
	if shared {
		log.Debug("salary computation shared with a concurrent request")
	}
	return v.(BreakdownResponse), nil
}

func (s *service) computeOnDemand(ctx context.Context, employeeID string, period Period, gen int64, cacheable bool) (BreakdownResponse, error) {
	emp, err := s.repo.FindEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BreakdownResponse{}, salaryerrors.ErrEmployeeNotFound
		}
		return BreakdownResponse{}, apperror.StoreUnavailable(err)
	}

	b, err := s.compute(ctx, *emp, period)
	if err != nil {
		return BreakdownResponse{}, err
	}
	resp := mapBreakdownResponse(*emp, period, b, s.now().UTC())

	if !cacheable {
		return resp, nil
	}
	stored, err := s.cache.Store(ctx, employeeID, period, gen, resp)
	if err != nil {
		s.logger.Warn("salary cache write failed", zap.String("employee_id", employeeID), zap.Error(err))
	} else if !stored {
		s.logger.Debug("records changed during computation, result not cached", zap.String("employee_id", employeeID))
	}
	return resp, nil
}

func (s *service) RunStatus(ctx context.Context, actor domain.Actor, period Period) (RunStatusResponse, error) {
	if err := period.Validate(); err != nil {
		return RunStatusResponse{}, err
	}
	if !actor.CanManage() {
		return RunStatusResponse{}, salaryerrors.ErrManagerOnly
	}

	status := s.runs.status(period)
	if status.State == RunRunning {
		return status, nil
	}

	// The run may belong to another process; the shared lock and result
	// are the source of truth there.
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("period", period.Key()))
	last, err := s.locker.LastResult(ctx, period)
	if err != nil {
		log.Warn("failed to read shared salary run result", zap.Error(err))
	} else if last != nil && (status.Result == nil || last.FinishedAt.After(status.Result.FinishedAt)) {
		status = completedStatus(period, *last)
	}

	held, err := s.locker.Held(ctx, period)
	if err != nil {
		log.Warn("failed to read salary run lock", zap.Error(err))
		return status, nil
	}
	if held {
		status.State = RunRunning
		status.StartedAt = nil
		status.FinishedAt = nil
	}
	return status, nil
}

func completedStatus(period Period, result RunResult) RunStatusResponse {
	started, finished := result.StartedAt, result.FinishedAt
	return RunStatusResponse{
		Month:      period.Month,
		Year:       period.Year,
		State:      RunCompleted,
		StartedAt:  &started,
		FinishedAt: &finished,
		Result:     &result,
	}
}

func (s *service) ListRecords(ctx context.Context, actor domain.Actor, period Period) ([]SalaryRecordResponse, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanManage() {
		return nil, salaryerrors.ErrManagerOnly
	}

	records, err := s.repo.ListRecords(ctx, period)
	if err != nil {
		return nil, apperror.StoreUnavailable(err)
	}
	return mapRecordListResponse(records), nil
}

func (s *service) ExportRecords(ctx context.Context, actor domain.Actor, period Period) ([]byte, error) {
	records, err := s.ListRecords(ctx, actor, period)
	if err != nil {
		return nil, err
	}

	out, err := renderSalaryWorkbook(period, records)
	if err != nil {
		s.logger.Error("failed to render salary workbook", zap.String("period", period.Key()), zap.Error(err))
		return nil, apperror.Wrap(err, salaryerrors.ErrReportFailed.Code, salaryerrors.ErrReportFailed.Message, salaryerrors.ErrReportFailed.HTTPStatus)
	}
	return out, nil
}

func (s *service) Payslip(ctx context.Context, actor domain.Actor, employeeID string, period Period) ([]byte, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, salaryerrors.ErrInvalidEmployeeID
	}
	if !actor.CanAccessEmployee(employeeID) {
		return nil, salaryerrors.ErrForbidden
	}

	record, err := s.repo.FindRecord(ctx, employeeID, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, salaryerrors.ErrRecordNotFound
		}
		return nil, apperror.StoreUnavailable(err)
	}

	out, err := renderPayslipPDF(period, mapRecordResponse(*record))
	if err != nil {
		s.logger.Error("failed to render payslip", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, apperror.Wrap(err, salaryerrors.ErrReportFailed.Code, salaryerrors.ErrReportFailed.Message, salaryerrors.ErrReportFailed.HTTPStatus)
	}
	return out, nil
}

func (s *service) InvalidateEmployee(ctx context.Context, employeeID string) error {
	if err := s.cache.InvalidateEmployee(ctx, employeeID); err != nil {
		s.logger.Warn("salary cache invalidation failed", zap.String("employee_id", employeeID), zap.Error(err))
		return err
	}
	return nil
}

// WatchInvalidations drops cached breakdowns whenever the channel relays a
// change to an employee's attendance, leave or profile. It returns when ctx ends.
func (s *service) WatchInvalidations(ctx context.Context, channel notification.Channel) error {
	msgs, err := channel.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if !invalidatesSalary(msg) {
				continue
			}
			_ = s.InvalidateEmployee(ctx, msg.EmployeeID)
		}
	}
}

func invalidatesSalary(msg notification.Message) bool {
	if msg.EmployeeID == "" {
		return false
	}
	switch msg.Event {
	case notification.EventAttendanceUpdated, notification.EventLeaveUpdated, notification.EventProfileUpdated:
		return true
	default:
		return false
	}
}

func (s *service) publishRunCompleted(ctx context.Context, actor domain.Actor, result RunResult) error {
	if s.outboxRepo == nil || s.db == nil {
		return nil
	}

	event, err := kafka.NewPendingEvent(
		events.SalaryRunCompletedTopic,
		"salary_run",
		fmt.Sprintf("%04d-%02d", result.Year, result.Month),
		"salary.run.completed",
		contextutil.GetRequestID(ctx),
		events.SalaryRunCompletedEvent{
			EventType:   "salary.run.completed",
			RequestID:   contextutil.GetRequestID(ctx),
			Month:       result.Month,
			Year:        result.Year,
			Processed:   len(result.Processed),
			Failed:      len(result.Failed),
			TriggeredBy: actor.EmployeeID,
			OccurredAt:  result.FinishedAt,
		},
	)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.outboxRepo.WithTx(tx).Create(ctx, event); err != nil {
		return err
	}
	return tx.Commit()
}
