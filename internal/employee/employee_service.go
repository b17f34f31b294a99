package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go-ems/internal/domain"
	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/notification"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

const (
	EmployeeOptionsKey = "employees:options"
	optionsCacheTTL    = time.Hour
	refreshTopic       = "employees"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, actor domain.Actor) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context) ([]EmployeeOptionResponse, error)
	GetByID(ctx context.Context, actor domain.Actor, id string) (EmployeeResponse, error)
	Update(ctx context.Context, actor domain.Actor, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	channel notification.Channel
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	channel notification.Channel,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	if channel == nil {
		channel = notification.Noop{}
	}
	return &service{
		db:      db,
		repo:    repo,
		outbox:  outboxRepo,
		rdb:     rdb,
		channel: channel,
		sf:      &singleflight.Group{},
		logger:  l,
	}
}

func (s *service) Create(
	ctx context.Context,
	actor domain.Actor,
	req CreateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("email", req.Email),
	)

	if !actor.CanManage() {
		s.logger.Warn("create employee forbidden", zap.String("actor_id", actor.EmployeeID))
		return EmployeeResponse{}, employeeerrors.ErrForbidden
	}
	joiningDate, baseSalary, err := parseEmploymentTerms(req.JoiningDate, req.BaseSalary)
	if err != nil {
		s.logger.Warn("create employee invalid terms", zap.String("joining_date", req.JoiningDate), zap.Error(err))
		return EmployeeResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("create employee hash password failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	empl := &Employee{
		ID:          uuid.New(),
		Name:        req.Name,
		Email:       req.Email,
		Password:    string(hashed),
		Role:        req.Role,
		JoiningDate: joiningDate,
		BaseSalary:  baseSalary,
	}

	if err := s.repo.WithTx(tx).Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	id := empl.ID.String()
	if err := kafka.EnqueueRecordChanged(ctx, s.outbox, tx, events.EntityEmployee, events.EmployeeCreated, id, id); err != nil {
		s.logger.Error("create employee outbox persist failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx)
	s.channel.Broadcast(ctx, notification.EventRefreshData, refreshTopic)

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, actor domain.Actor) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested", zap.String("actor_id", actor.EmployeeID))
	if !actor.CanManage() {
		return nil, employeeerrors.ErrForbidden
	}

	emps, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(emps), nil
}

// GetOptions serves the id/name list used by pickers. It is cached for an
// hour and dropped on every employee mutation.
func (s *service) GetOptions(ctx context.Context) ([]EmployeeOptionResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, EmployeeOptionsKey).Result(); err == nil {
			var resp []EmployeeOptionResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(EmployeeOptionsKey, func() (interface{}, error) {
		emps, err := s.repo.FindOptions(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToOptionResponse(emps)
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, EmployeeOptionsKey, jsonData, optionsCacheTTL).Err(); err != nil {
					s.logger.Warn("cache employee options failed", zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]EmployeeOptionResponse), nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested",
		zap.String("actor_id", actor.EmployeeID),
		zap.String("employee_id", id),
	)
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	if !actor.CanAccessEmployee(id) {
		return EmployeeResponse{}, employeeerrors.ErrForbidden
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("get employee by id failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	actor domain.Actor,
	id string,
	req UpdateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("employee_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	if !actor.CanManage() {
		s.logger.Warn("update employee forbidden", zap.String("actor_id", actor.EmployeeID))
		return EmployeeResponse{}, employeeerrors.ErrForbidden
	}
	joiningDate, baseSalary, err := parseEmploymentTerms(req.JoiningDate, req.BaseSalary)
	if err != nil {
		s.logger.Warn("update employee invalid terms", zap.String("joining_date", req.JoiningDate), zap.Error(err))
		return EmployeeResponse{}, err
	}

	var hashed []byte
	if req.Password != "" {
		if hashed, err = bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost); err != nil {
			s.logger.Error("update employee hash password failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("update employee fetch existing failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	empl.Name = req.Name
	empl.Email = req.Email
	empl.Role = req.Role
	empl.JoiningDate = joiningDate
	empl.BaseSalary = baseSalary
	if hashed != nil {
		empl.Password = string(hashed)
	}

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := kafka.EnqueueRecordChanged(ctx, s.outbox, tx, events.EntityEmployee, events.EmployeeUpdated, id, id); err != nil {
		s.logger.Error("update employee outbox persist failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	resp := mapToResponse(*empl)
	s.invalidateOptions(ctx)
	s.channel.Broadcast(ctx, notification.EventRefreshData, refreshTopic)
	s.channel.NotifyEmployee(ctx, id, notification.EventProfileUpdated, resp)

	s.logger.Info("update employee success", zap.String("employee_id", id))
	return resp, nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	s.logger.Debug("delete employee requested",
		zap.String("actor_id", actor.EmployeeID),
		zap.String("employee_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}
	if !actor.CanManage() {
		s.logger.Warn("delete employee forbidden", zap.String("actor_id", actor.EmployeeID))
		return employeeerrors.ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).DeleteCascade(ctx, id); err != nil {
		s.logger.Error("delete employee failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := kafka.EnqueueRecordChanged(ctx, s.outbox, tx, events.EntityEmployee, events.EmployeeDeleted, id, id); err != nil {
		s.logger.Error("delete employee outbox persist failed", zap.String("employee_id", id), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	s.invalidateOptions(ctx)
	s.channel.Broadcast(ctx, notification.EventRefreshData, refreshTopic)

	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) invalidateOptions(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeOptionsKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", EmployeeOptionsKey),
		)
	}
}

func parseEmploymentTerms(joining string, base *decimal.Decimal) (time.Time, decimal.Decimal, error) {
	joiningDate, err := time.Parse(dateLayout, joining)
	if err != nil {
		return time.Time{}, decimal.Zero, employeeerrors.ErrInvalidJoiningDate
	}
	if base == nil || base.IsNegative() {
		return time.Time{}, decimal.Zero, employeeerrors.ErrInvalidBaseSalary
	}
	return joiningDate, *base, nil
}
