package alert

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerterrors "go-ems/internal/alert/errors"
	"go-ems/internal/domain"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const refreshTopic = "alerts"

//go:generate mockgen -source=alert_service.go -destination=mock/alert_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateAlertRequest) (AlertResponse, error)
	GetAll(ctx context.Context, actor domain.Actor, query ListQuery) ([]AlertResponse, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	channel notification.Channel
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, channel notification.Channel, logger ...*zap.Logger) Service {
	l := zap.L().Named("alert.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("alert.service")
	}
	if channel == nil {
		channel = notification.Noop{}
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, channel: channel, now: time.Now, logger: l}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateAlertRequest) (AlertResponse, error) {
	if !actor.CanManage() {
		return AlertResponse{}, alerterrors.ErrForbidden
	}
	if req.EmployeeID != RecipientAll {
		if _, err := uuid.Parse(req.EmployeeID); err != nil {
			return AlertResponse{}, alerterrors.ErrInvalidRecipient
		}
	}

	date := s.now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return AlertResponse{}, alerterrors.ErrInvalidDate
		}
		date = d
	}

	a := &Alert{
		ID:         uuid.New(),
		Title:      req.Title,
		Message:    req.Message,
		EmployeeID: req.EmployeeID,
		AlertDate:  date,
	}
	if creator, err := uuid.Parse(actor.EmployeeID); err == nil {
		a.CreatedBy = &creator
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AlertResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, a); err != nil {
		s.logger.Error("create alert failed", zap.Error(err))
		return AlertResponse{}, err
	}
	if err := s.commit(ctx, tx, a, events.AlertCreated); err != nil {
		s.logger.Error("create alert commit failed", zap.Error(err))
		return AlertResponse{}, err
	}

	resp := mapToResponse(*a)
	s.channel.Broadcast(ctx, notification.EventRefreshData, refreshTopic)
	if a.IsBroadcast() {
		s.channel.Broadcast(ctx, notification.EventAlertReceived, resp)
	} else {
		s.channel.NotifyEmployee(ctx, a.EmployeeID, notification.EventAlertReceived, resp)
	}
	s.logger.Info("alert created",
		zap.String("alert_id", resp.ID),
		zap.String("recipient", a.EmployeeID),
	)
	return resp, nil
}

// GetAll lists alerts addressed to the caller or to everyone. Managers see
// every alert, or one employee's view when employee_id is given.
func (s *service) GetAll(ctx context.Context, actor domain.Actor, query ListQuery) ([]AlertResponse, error) {
	target := query.EmployeeID
	if !actor.CanManage() {
		if target != "" && target != actor.EmployeeID {
			return nil, alerterrors.ErrForbidden
		}
		target = actor.EmployeeID
	}

	alerts, err := s.repo.FindVisibleTo(ctx, target)
	if err != nil {
		return nil, err
	}
	resp := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = mapToResponse(a)
	}
	return resp, nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.CanManage() {
		return alerterrors.ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return alerterrors.ErrAlertNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a, err := s.repo.WithTx(tx).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return alerterrors.ErrAlertNotFound
		}
		s.logger.Error("delete alert failed", zap.String("alert_id", id), zap.Error(err))
		return err
	}
	if err := s.commit(ctx, tx, a, events.AlertDeleted); err != nil {
		return err
	}

	s.channel.Broadcast(ctx, notification.EventRefreshData, refreshTopic)
	s.logger.Info("alert deleted", zap.String("alert_id", id))
	return nil
}

func (s *service) commit(ctx context.Context, tx *sql.Tx, a *Alert, eventType string) error {
	recipient := a.EmployeeID
	if a.IsBroadcast() {
		recipient = ""
	}
	if err := kafka.EnqueueRecordChanged(ctx, s.outbox, tx, events.EntityAlert, eventType, a.ID.String(), recipient); err != nil {
		return err
	}
	return tx.Commit()
}
