package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-ems/internal/domain"
	"go-ems/internal/events"
	leaveerrors "go-ems/internal/leave/errors"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/notification"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const refreshTopic = "leaves"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, actor domain.Actor, query ListQuery) ([]LeaveResponse, error)
	GetByID(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error)
	Approve(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error)
	Reject(ctx context.Context, actor domain.Actor, id, reason string) (LeaveResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	channel notification.Channel
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	channel notification.Channel,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if channel == nil {
		channel = notification.Noop{}
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, channel: channel, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if !actor.CanAccessEmployee(employeeID) {
		return LeaveResponse{}, leaveerrors.ErrForbidden
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if endDate.Before(startDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	log.Debug("create leave requested",
		zap.String("actor_id", actor.EmployeeID),
		zap.String("employee_id", employeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if employeeID != actor.EmployeeID {
		exists, err := qtx.EmployeeExists(ctx, employeeID)
		if err != nil {
			log.Error("create leave employee check failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if !exists {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
		}
	}

	overlap, err := qtx.HasOverlappingPeriod(ctx, employeeID, startDate, endDate)
	if err != nil {
		log.Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		log.Warn("create leave overlap detected",
			zap.String("employee_id", employeeID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	l := &Leave{
		ID:         uuid.New(),
		EmployeeID: employeeUUID,
		LeaveType:  req.LeaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     req.Reason,
		Status:     StatusPending,
	}
	if err := qtx.Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.commit(ctx, tx, l, events.LeaveCreated); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	resp := mapToResponse(*l)
	s.notify(ctx, resp)
	log.Info("create leave success",
		zap.String("leave_id", resp.ID),
		zap.String("employee_id", employeeID),
	)
	return resp, nil
}

func (s *service) GetAll(ctx context.Context, actor domain.Actor, query ListQuery) ([]LeaveResponse, error) {
	filter := ListFilter{EmployeeID: query.EmployeeID, Status: query.Status}
	if !actor.CanManage() {
		if filter.EmployeeID != "" && filter.EmployeeID != actor.EmployeeID {
			return nil, leaveerrors.ErrForbidden
		}
		filter.EmployeeID = actor.EmployeeID
	}

	leaves, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("list leaves failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if !actor.CanAccessEmployee(l.EmployeeID.String()) {
		return LeaveResponse{}, leaveerrors.ErrForbidden
	}
	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error) {
	return s.review(ctx, actor, id, StatusApproved, "")
}

func (s *service) Reject(ctx context.Context, actor domain.Actor, id, reason string) (LeaveResponse, error) {
	return s.review(ctx, actor, id, StatusRejected, reason)
}

// review moves a pending request to a terminal status. The row is locked so
// two reviewers cannot both succeed.
func (s *service) review(ctx context.Context, actor domain.Actor, id, targetStatus, reason string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("leave_id", id),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("target_status", targetStatus),
	)
	if !actor.CanManage() {
		return LeaveResponse{}, leaveerrors.ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("review leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		log.Warn("review leave invalid transition", zap.String("from_status", l.Status))
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	l.Status = targetStatus
	l.ReviewedAt = &now
	if reviewer, err := uuid.Parse(actor.EmployeeID); err == nil {
		l.ReviewedBy = &reviewer
	}
	if targetStatus == StatusRejected && reason != "" {
		l.RejectionReason = &reason
	}

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("review leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := s.commit(ctx, tx, l, events.LeaveReviewed); err != nil {
		log.Error("review leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	resp := mapToResponse(*l)
	s.notify(ctx, resp)
	log.Info("review leave success")
	return resp, nil
}

func (s *service) commit(ctx context.Context, tx *sql.Tx, l *Leave, eventType string) error {
	if err := kafka.EnqueueRecordChanged(
		ctx, s.outbox, tx,
		events.EntityLeave, eventType,
		l.ID.String(), l.EmployeeID.String(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) notify(ctx context.Context, resp LeaveResponse) {
	s.channel.NotifyEmployee(ctx, resp.EmployeeID, notification.EventLeaveUpdated, resp)
	s.channel.Broadcast(ctx, notification.EventRefreshData, refreshTopic)
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}
