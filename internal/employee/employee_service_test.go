package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-ems/internal/domain"
	"go-ems/internal/employee"
	employeeerrors "go-ems/internal/employee/errors"
	employeeMock "go-ems/internal/employee/mock"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	kafkaMock "go-ems/internal/messaging/kafka/mock"
	"go-ems/internal/notification"
	"go-ems/internal/notification/notificationtest"
	"go-ems/internal/shared/contextutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	manager = domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleManager}
	staff   = domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleDeveloper}
)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   employee.Service
	repo      *employeeMock.MockRepository
	redismock redismock.ClientMock
	outbox    *kafkaMock.MockOutboxRepository
	channel   *notificationtest.Recorder
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, _ := sqlmock.New()
	dbRedis, redisMock := redismock.NewClientMock()
	repo := employeeMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)
	channel := notificationtest.NewRecorder()

	svc := employee.NewService(db, repo, outboxRepo, dbRedis, channel)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		outbox:    outboxRepo,
		redismock: redisMock,
		channel:   channel,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func salary(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func validCreateRequest() employee.CreateEmployeeRequest {
	return employee.CreateEmployeeRequest{
		Name:        "Ana Putri",
		Email:       "ana@example.com",
		Password:    "secret123",
		Role:        domain.RoleDesigner,
		JoiningDate: "2024-03-01",
		BaseSalary:  salary("4500.50"),
	}
}

func TestEmployeeService_Create(t *testing.T) {
	t.Run("success - hashes password and queues outbox event", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		ctx := contextutil.WithRequestID(context.Background(), "rid-create")
		req := validCreateRequest()

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, req.Name, e.Name)
				assert.NotEqual(t, req.Password, e.Password)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(e.Password), []byte(req.Password)))
				assert.True(t, e.BaseSalary.Equal(decimal.RequireFromString("4500.50")))
				assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), e.JoiningDate)
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, "rid-create", ev.RequestID)
				assert.Equal(t, events.RecordChangedTopic, ev.Topic)
				assert.Equal(t, events.EmployeeCreated, ev.EventType)

				var payload events.RecordChangedEvent
				assert.NoError(t, json.Unmarshal(ev.Payload, &payload))
				assert.Equal(t, events.EntityEmployee, payload.Entity)
				assert.Equal(t, ev.AggregateID, payload.EmployeeID)
				return nil
			})
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		resp, err := deps.service.Create(ctx, manager, req)

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "4500.50", resp.BaseSalary)
		assert.Equal(t, "2024-03-01", resp.JoiningDate)
		assert.Len(t, deps.channel.Events(notification.EventRefreshData), 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("duplicate email maps to conflict", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_email"})

		_, err := deps.service.Create(context.Background(), manager, validCreateRequest())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.Empty(t, deps.channel.Messages())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("outbox failure rolls back", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

		_, err := deps.service.Create(context.Background(), manager, validCreateRequest())

		assert.EqualError(t, err, "outbox down")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative base salary", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := validCreateRequest()
		req.BaseSalary = salary("-1")

		_, err := deps.service.Create(context.Background(), manager, req)
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidBaseSalary)
	})

	t.Run("invalid joining date", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := validCreateRequest()
		req.JoiningDate = "01/03/2024"

		_, err := deps.service.Create(context.Background(), manager, req)
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidJoiningDate)
	})

	t.Run("staff cannot create", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(context.Background(), staff, validCreateRequest())
		assert.ErrorIs(t, err, employeeerrors.ErrForbidden)
	})
}

func TestEmployeeService_GetOptions(t *testing.T) {
	t.Run("cache hit skips repository", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.redismock.ExpectGet(employee.EmployeeOptionsKey).SetVal(`[{"id":"e1","name":"Ana","role":"hr"}]`)

		resp, err := deps.service.GetOptions(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, []employee.EmployeeOptionResponse{{ID: "e1", Name: "Ana", Role: "hr"}}, resp)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		deps.redismock.ExpectGet(employee.EmployeeOptionsKey).RedisNil()
		deps.repo.EXPECT().FindOptions(gomock.Any()).Return([]employee.Employee{{ID: id, Name: "Budi", Role: "employee"}}, nil)

		want := []employee.EmployeeOptionResponse{{ID: id.String(), Name: "Budi", Role: "employee"}}
		raw, _ := json.Marshal(want)
		deps.redismock.ExpectSet(employee.EmployeeOptionsKey, raw, time.Hour).SetVal("OK")

		resp, err := deps.service.GetOptions(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, want, resp)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()

	t.Run("self access", func(t *testing.T) {
		id, _ := uuid.Parse(staff.EmployeeID)
		deps.repo.EXPECT().FindByID(ctx, staff.EmployeeID).Return(&employee.Employee{
			ID:          id,
			Name:        "Self",
			BaseSalary:  decimal.NewFromInt(3000),
			JoiningDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		}, nil)

		resp, err := deps.service.GetByID(ctx, staff, staff.EmployeeID)

		assert.NoError(t, err)
		assert.Equal(t, "3000.00", resp.BaseSalary)
	})

	t.Run("other employee is forbidden for staff", func(t *testing.T) {
		_, err := deps.service.GetByID(ctx, staff, uuid.NewString())
		assert.ErrorIs(t, err, employeeerrors.ErrForbidden)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := deps.service.GetByID(ctx, manager, "42")
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		deps.repo.EXPECT().FindByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, manager, id)
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_GetAll(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetAll(context.Background(), staff)
	assert.ErrorIs(t, err, employeeerrors.ErrForbidden)

	deps.repo.EXPECT().FindAll(gomock.Any()).Return([]employee.Employee{{ID: uuid.New(), Name: "A"}}, nil)
	resp, err := deps.service.GetAll(context.Background(), manager)
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
}

func TestEmployeeService_Update(t *testing.T) {
	t.Run("keeps password when omitted and notifies the employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		existing := &employee.Employee{ID: id, Name: "Old", Email: "old@example.com", Password: "stored-hash", Role: "employee"}

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(existing, nil)
		deps.repo.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "stored-hash", e.Password)
				assert.Equal(t, "New", e.Name)
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		resp, err := deps.service.Update(context.Background(), manager, id.String(), employee.UpdateEmployeeRequest{
			Name:        "New",
			Email:       "new@example.com",
			Role:        domain.RoleHR,
			JoiningDate: "2022-06-15",
			BaseSalary:  salary("6000"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "6000.00", resp.BaseSalary)

		profile := deps.channel.Events(notification.EventProfileUpdated)
		if assert.Len(t, profile, 1) {
			assert.Equal(t, id.String(), profile[0].EmployeeID)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("missing employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.NewString()
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Update(context.Background(), manager, id, employee.UpdateEmployeeRequest{
			Name: "X", Email: "x@example.com", Role: "hr", JoiningDate: "2022-06-15", BaseSalary: salary("1"),
		})

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.Empty(t, deps.channel.Messages())
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	t.Run("cascades inside one transaction", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.NewString()
		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().DeleteCascade(gomock.Any(), id).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.EmployeeDeleted, ev.EventType)
				return nil
			})
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		err := deps.service.Delete(context.Background(), manager, id)

		assert.NoError(t, err)
		assert.Len(t, deps.channel.Events(notification.EventRefreshData), 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("not found rolls back", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.NewString()
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().DeleteCascade(gomock.Any(), id).Return(gorm.ErrRecordNotFound)

		err := deps.service.Delete(context.Background(), manager, id)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("staff cannot delete", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Delete(context.Background(), staff, uuid.NewString())
		assert.ErrorIs(t, err, employeeerrors.ErrForbidden)
	})
}
