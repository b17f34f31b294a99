package performance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-ems/internal/domain"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/notification"
	performanceerrors "go-ems/internal/performance/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=performance_service.go -destination=mock/performance_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateReviewRequest) (ReviewResponse, error)
	Update(ctx context.Context, actor domain.Actor, id string, req UpdateReviewRequest) (ReviewResponse, error)
	GetAll(ctx context.Context, actor domain.Actor, query ListQuery) ([]ReviewResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	channel notification.Channel
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, channel notification.Channel, logger ...*zap.Logger) Service {
	l := zap.L().Named("performance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("performance.service")
	}
	if channel == nil {
		channel = notification.Noop{}
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, channel: channel, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateReviewRequest) (ReviewResponse, error) {
	if !actor.CanManage() {
		return ReviewResponse{}, performanceerrors.ErrForbidden
	}
	reviewDate, err := parseDate(req.ReviewDate)
	if err != nil {
		return ReviewResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReviewResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	exists, err := qtx.EmployeeExists(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("performance employee check failed", zap.Error(err))
		return ReviewResponse{}, err
	}
	if !exists {
		return ReviewResponse{}, performanceerrors.ErrEmployeeNotFound
	}

	rv := &Review{
		ID:         uuid.New(),
		EmployeeID: uuid.MustParse(req.EmployeeID),
		Rating:     req.Rating,
		Feedback:   req.Feedback,
		ReviewDate: reviewDate,
		ReviewerID: reviewerID(actor),
	}
	if err := qtx.Create(ctx, rv); err != nil {
		s.logger.Error("create performance review failed", zap.Error(err))
		return ReviewResponse{}, err
	}
	if err := s.commit(ctx, tx, rv); err != nil {
		s.logger.Error("create performance review commit failed", zap.Error(err))
		return ReviewResponse{}, err
	}

	resp := mapToResponse(*rv)
	s.notify(ctx, resp)
	s.logger.Info("performance review created",
		zap.String("review_id", resp.ID),
		zap.String("employee_id", resp.EmployeeID),
	)
	return resp, nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateReviewRequest) (ReviewResponse, error) {
	if !actor.CanManage() {
		return ReviewResponse{}, performanceerrors.ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return ReviewResponse{}, performanceerrors.ErrReviewNotFound
	}
	reviewDate, err := parseDate(req.ReviewDate)
	if err != nil {
		return ReviewResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReviewResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rv, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReviewResponse{}, performanceerrors.ErrReviewNotFound
		}
		return ReviewResponse{}, err
	}

	rv.Rating = req.Rating
	rv.Feedback = req.Feedback
	rv.ReviewDate = reviewDate
	rv.ReviewerID = reviewerID(actor)

	if err := qtx.Update(ctx, rv); err != nil {
		s.logger.Error("update performance review failed", zap.String("review_id", id), zap.Error(err))
		return ReviewResponse{}, err
	}
	if err := s.commit(ctx, tx, rv); err != nil {
		return ReviewResponse{}, err
	}

	resp := mapToResponse(*rv)
	s.notify(ctx, resp)
	s.logger.Info("performance review updated", zap.String("review_id", id))
	return resp, nil
}

func (s *service) GetAll(ctx context.Context, actor domain.Actor, query ListQuery) ([]ReviewResponse, error) {
	employeeID := query.EmployeeID
	if !actor.CanManage() {
		if employeeID != "" && employeeID != actor.EmployeeID {
			return nil, performanceerrors.ErrForbidden
		}
		employeeID = actor.EmployeeID
	}

	reviews, err := s.repo.FindAll(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	resp := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		resp[i] = mapToResponse(r)
	}
	return resp, nil
}

func (s *service) commit(ctx context.Context, tx *sql.Tx, rv *Review) error {
	if err := kafka.EnqueueRecordChanged(
		ctx, s.outbox, tx,
		events.EntityPerformance, events.PerformanceUpdated,
		rv.ID.String(), rv.EmployeeID.String(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) notify(ctx context.Context, resp ReviewResponse) {
	s.channel.NotifyEmployee(ctx, resp.EmployeeID, notification.EventPerformanceUpdated, resp)
	s.channel.Broadcast(ctx, notification.EventPerformanceUpdate, resp)
}

func reviewerID(actor domain.Actor) *uuid.UUID {
	id, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return nil
	}
	return &id
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, performanceerrors.ErrInvalidReviewDate
	}
	return t, nil
}
