package attendance

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	attendanceerrors "go-ems/internal/attendance/errors"
	"go-ems/internal/domain"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/notification"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const standardWorkHours = 8

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	CheckIn(ctx context.Context, actor domain.Actor) (AttendanceResponse, error)
	CheckOut(ctx context.Context, actor domain.Actor) (CheckOutResponse, error)
	List(ctx context.Context, actor domain.Actor, query ListQuery) ([]AttendanceResponse, error)
	Create(ctx context.Context, actor domain.Actor, req CreateAttendanceRequest) (AttendanceResponse, error)
	Update(ctx context.Context, actor domain.Actor, id string, req UpdateAttendanceRequest) (AttendanceResponse, error)
}

// Policy decides when a check-in counts as late. Location defaults to
// time.Local.
type Policy struct {
	LateHour   int
	LateMinute int
	Location   *time.Location
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("attendance.service")
		}
	}
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	channel notification.Channel
	policy  Policy
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	channel notification.Channel,
	policy Policy,
	opts ...Option,
) Service {
	if channel == nil {
		channel = notification.Noop{}
	}
	if policy.Location == nil {
		policy.Location = time.Local
	}
	s := &service{
		db:      db,
		repo:    repo,
		outbox:  outboxRepo,
		channel: channel,
		policy:  policy,
		now:     time.Now,
		logger:  zap.L().Named("attendance.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CheckIn(ctx context.Context, actor domain.Actor) (AttendanceResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("employee_id", actor.EmployeeID))
	employeeID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	now := s.now().In(s.policy.Location)
	today := calendarDay(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("check-in begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	row, err := qtx.FindForUpdate(ctx, actor.EmployeeID, today)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = &Attendance{
			ID:             uuid.New(),
			EmployeeID:     employeeID,
			AttendanceDate: today,
			CheckInTime:    &now,
			Status:         s.checkInStatus(now),
		}
		if err := qtx.Create(ctx, row); err != nil {
			log.Error("check-in create failed", zap.Error(err))
			return AttendanceResponse{}, mapRepositoryError(err, attendanceerrors.ErrAlreadyCheckedIn)
		}
	case err != nil:
		log.Error("check-in lookup failed", zap.Error(err))
		return AttendanceResponse{}, err
	case row.CheckInTime != nil:
		log.Warn("check-in rejected, already checked in")
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyCheckedIn
	default:
		// A manager pre-created today's row without a check-in.
		row.CheckInTime = &now
		row.Status = s.checkInStatus(now)
		if err := qtx.Update(ctx, row); err != nil {
			log.Error("check-in update failed", zap.Error(err))
			return AttendanceResponse{}, err
		}
	}

	if err := s.commit(ctx, tx, row); err != nil {
		log.Error("check-in commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	resp := mapToResponse(*row)
	s.notify(ctx, resp)
	log.Info("check-in recorded", zap.String("status", row.Status))
	return resp, nil
}

func (s *service) CheckOut(ctx context.Context, actor domain.Actor) (CheckOutResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("employee_id", actor.EmployeeID))
	employeeID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return CheckOutResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	now := s.now().In(s.policy.Location)
	today := calendarDay(now)
	var warning string

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("check-out begin tx failed", zap.Error(err))
		return CheckOutResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	row, err := qtx.FindForUpdate(ctx, actor.EmployeeID, today)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Legacy fallback: a check-out without a check-in records both at once.
		warning = warningSyntheticCheckIn
		row = &Attendance{
			ID:             uuid.New(),
			EmployeeID:     employeeID,
			AttendanceDate: today,
			CheckInTime:    &now,
			CheckOutTime:   &now,
			Status:         StatusPresent,
		}
		if err := qtx.Create(ctx, row); err != nil {
			log.Error("check-out create failed", zap.Error(err))
			return CheckOutResponse{}, mapRepositoryError(err, attendanceerrors.ErrAlreadyCheckedOut)
		}
	case err != nil:
		log.Error("check-out lookup failed", zap.Error(err))
		return CheckOutResponse{}, err
	case row.CheckOutTime != nil:
		log.Warn("check-out rejected, already checked out")
		return CheckOutResponse{}, attendanceerrors.ErrAlreadyCheckedOut
	default:
		if row.CheckInTime == nil {
			warning = warningSyntheticCheckIn
			row.CheckInTime = &now
		}
		row.CheckOutTime = &now
		if ot := overtimeHours(*row.CheckInTime, now); ot > row.OvertimeHours {
			row.OvertimeHours = ot
		}
		if err := qtx.Update(ctx, row); err != nil {
			log.Error("check-out update failed", zap.Error(err))
			return CheckOutResponse{}, err
		}
	}

	if err := s.commit(ctx, tx, row); err != nil {
		log.Error("check-out commit failed", zap.Error(err))
		return CheckOutResponse{}, err
	}

	resp := mapToResponse(*row)
	s.notify(ctx, resp)
	if warning != "" {
		log.Warn("check-out without check-in, recorded synthetic check-in")
	}
	log.Info("check-out recorded", zap.Int("overtime_hours", row.OvertimeHours))
	return CheckOutResponse{AttendanceResponse: resp, Warning: warning}, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, query ListQuery) ([]AttendanceResponse, error) {
	filter := ListFilter{EmployeeID: query.EmployeeID}
	if !actor.CanManage() {
		if filter.EmployeeID != "" && filter.EmployeeID != actor.EmployeeID {
			return nil, attendanceerrors.ErrForbidden
		}
		filter.EmployeeID = actor.EmployeeID
	}

	var err error
	if filter.From, err = parseOptionalDate(query.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseOptionalDate(query.To); err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list attendance failed", zap.Error(err))
		return nil, err
	}

	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateAttendanceRequest) (AttendanceResponse, error) {
	if !actor.CanManage() {
		return AttendanceResponse{}, attendanceerrors.ErrForbidden
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidDate
	}
	if req.CheckInTime != nil && req.CheckOutTime != nil && req.CheckOutTime.Before(*req.CheckInTime) {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidTimes
	}

	row := &Attendance{
		ID:             uuid.New(),
		EmployeeID:     uuid.MustParse(req.EmployeeID),
		AttendanceDate: date,
		Status:         req.Status,
		OvertimeHours:  req.OvertimeHours,
		CheckInTime:    req.CheckInTime,
		CheckOutTime:   req.CheckOutTime,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		s.logger.Error("create attendance failed", zap.Error(err))
		return AttendanceResponse{}, mapRepositoryError(err, attendanceerrors.ErrAttendanceExists)
	}
	if err := s.commit(ctx, tx, row); err != nil {
		s.logger.Error("create attendance commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	resp := mapToResponse(*row)
	s.notify(ctx, resp)
	s.logger.Info("attendance created", zap.String("attendance_id", resp.ID), zap.String("actor_id", actor.EmployeeID))
	return resp, nil
}

// Update applies a manager edit under the row lock. The last committed edit
// wins over a concurrent check-out.
func (s *service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateAttendanceRequest) (AttendanceResponse, error) {
	if !actor.CanManage() {
		return AttendanceResponse{}, attendanceerrors.ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAttendanceNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	row, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return AttendanceResponse{}, mapRepositoryError(err, attendanceerrors.ErrAttendanceExists)
	}

	checkIn, checkOut := row.CheckInTime, row.CheckOutTime
	if req.CheckInTime != nil {
		checkIn = req.CheckInTime
	}
	if req.CheckOutTime != nil {
		checkOut = req.CheckOutTime
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidTimes
	}

	row.Status = req.Status
	row.OvertimeHours = req.OvertimeHours
	row.CheckInTime = checkIn
	row.CheckOutTime = checkOut

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("update attendance failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := s.commit(ctx, tx, row); err != nil {
		s.logger.Error("update attendance commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	resp := mapToResponse(*row)
	s.notify(ctx, resp)
	s.logger.Info("attendance updated", zap.String("attendance_id", id), zap.String("actor_id", actor.EmployeeID))
	return resp, nil
}

func (s *service) commit(ctx context.Context, tx *sql.Tx, row *Attendance) error {
	if err := kafka.EnqueueRecordChanged(
		ctx, s.outbox, tx,
		events.EntityAttendance, events.AttendanceUpdated,
		row.ID.String(), row.EmployeeID.String(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) notify(ctx context.Context, resp AttendanceResponse) {
	s.channel.NotifyEmployee(ctx, resp.EmployeeID, notification.EventAttendanceUpdated, resp)
	s.channel.Broadcast(ctx, notification.EventAttendanceUpdate, resp)
}

func (s *service) checkInStatus(now time.Time) string {
	lateAt := time.Date(now.Year(), now.Month(), now.Day(), s.policy.LateHour, s.policy.LateMinute, 0, 0, now.Location())
	if now.After(lateAt) {
		return StatusLate
	}
	return StatusPresent
}

// overtimeHours counts whole hours worked beyond the standard day.
func overtimeHours(checkIn, checkOut time.Time) int {
	extra := math.Floor(checkOut.Sub(checkIn).Hours() - standardWorkHours)
	if extra <= 0 {
		return 0
	}
	return int(extra)
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseOptionalDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, attendanceerrors.ErrInvalidDate
	}
	return &t, nil
}

func mapRepositoryError(err error, conflict error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendanceerrors.ErrAttendanceNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_attendance_employee_date" {
		return conflict
	}
	return err
}
