package alert

import (
	"context"
	"database/sql"
	"testing"
	"time"

	alerterrors "go-ems/internal/alert/errors"
	"go-ems/internal/domain"
	"go-ems/internal/events"
	"go-ems/internal/messaging/kafka"
	kafkaMock "go-ems/internal/messaging/kafka/mock"
	"go-ems/internal/notification"
	"go-ems/internal/notification/notificationtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn        func(ctx context.Context, a *Alert) error
	findVisibleToFn func(ctx context.Context, employeeID string) ([]Alert, error)
	deleteFn        func(ctx context.Context, id string) (*Alert, error)
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeRepo) Create(ctx context.Context, a *Alert) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}
func (f *fakeRepo) FindVisibleTo(ctx context.Context, employeeID string) ([]Alert, error) {
	return f.findVisibleToFn(ctx, employeeID)
}
func (f *fakeRepo) Delete(ctx context.Context, id string) (*Alert, error) {
	return f.deleteFn(ctx, id)
}

var (
	hr    = domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleHR}
	staff = domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleEmployee}
)

func newTestService(t *testing.T, repo Repository, outbox kafka.OutboxRepository) (*service, sqlmock.Sqlmock, *notificationtest.Recorder) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rec := notificationtest.NewRecorder()
	svc := NewService(db, repo, outbox, rec).(*service)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC) }
	return svc, mock, rec
}

func TestAlertService_Create(t *testing.T) {
	t.Run("targeted alert goes to one employee", func(t *testing.T) {
		svc, mock, rec := newTestService(t, &fakeRepo{}, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Create(context.Background(), hr, CreateAlertRequest{
			Title: "Payslip ready", Message: "Your March payslip is available", EmployeeID: staff.EmployeeID,
		})

		assert.NoError(t, err)
		assert.Equal(t, "2026-05-04", resp.Date)
		received := rec.Events(notification.EventAlertReceived)
		if assert.Len(t, received, 1) {
			assert.Equal(t, staff.EmployeeID, received[0].EmployeeID)
		}
		assert.Len(t, rec.Events(notification.EventRefreshData), 1)
	})

	t.Run("alert for all is broadcast", func(t *testing.T) {
		svc, mock, rec := newTestService(t, &fakeRepo{}, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Create(context.Background(), hr, CreateAlertRequest{
			Title: "Office closed", Message: "Friday is a holiday", EmployeeID: RecipientAll, Date: "2026-05-08",
		})

		assert.NoError(t, err)
		assert.Equal(t, "2026-05-08", resp.Date)
		received := rec.Events(notification.EventAlertReceived)
		if assert.Len(t, received, 1) {
			assert.Empty(t, received[0].EmployeeID)
		}
	})

	t.Run("outbox event has no employee for broadcast alerts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		outbox := kafkaMock.NewMockOutboxRepository(ctrl)
		svc, mock, _ := newTestService(t, &fakeRepo{}, outbox)

		mock.ExpectBegin()
		outbox.EXPECT().WithTx(gomock.Any()).Return(outbox)
		outbox.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.AlertCreated, ev.EventType)
				assert.NotContains(t, string(ev.Payload), `"employee_id":"all"`)
				return nil
			})
		mock.ExpectCommit()

		_, err := svc.Create(context.Background(), hr, CreateAlertRequest{
			Title: "t", Message: "m", EmployeeID: RecipientAll,
		})
		assert.NoError(t, err)
	})

	t.Run("recipient must be an id or all", func(t *testing.T) {
		svc, _, _ := newTestService(t, &fakeRepo{}, nil)
		_, err := svc.Create(context.Background(), hr, CreateAlertRequest{Title: "t", Message: "m", EmployeeID: "everyone"})
		assert.ErrorIs(t, err, alerterrors.ErrInvalidRecipient)
	})

	t.Run("staff cannot send alerts", func(t *testing.T) {
		svc, _, _ := newTestService(t, &fakeRepo{}, nil)
		_, err := svc.Create(context.Background(), staff, CreateAlertRequest{Title: "t", Message: "m", EmployeeID: RecipientAll})
		assert.ErrorIs(t, err, alerterrors.ErrForbidden)
	})
}

func TestAlertService_GetAll(t *testing.T) {
	var got string
	repo := &fakeRepo{
		findVisibleToFn: func(ctx context.Context, employeeID string) ([]Alert, error) {
			got = employeeID
			return []Alert{
				{ID: uuid.New(), EmployeeID: employeeID},
				{ID: uuid.New(), EmployeeID: RecipientAll},
			}, nil
		},
	}
	svc, _, _ := newTestService(t, repo, nil)

	resp, err := svc.GetAll(context.Background(), staff, ListQuery{})
	assert.NoError(t, err)
	assert.Equal(t, staff.EmployeeID, got)
	assert.Len(t, resp, 2)

	_, err = svc.GetAll(context.Background(), staff, ListQuery{EmployeeID: hr.EmployeeID})
	assert.ErrorIs(t, err, alerterrors.ErrForbidden)

	_, err = svc.GetAll(context.Background(), hr, ListQuery{})
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestAlertService_Delete(t *testing.T) {
	t.Run("removes and refreshes", func(t *testing.T) {
		id := uuid.New()
		repo := &fakeRepo{
			deleteFn: func(ctx context.Context, got string) (*Alert, error) {
				return &Alert{ID: id, EmployeeID: staff.EmployeeID}, nil
			},
		}
		svc, mock, rec := newTestService(t, repo, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := svc.Delete(context.Background(), hr, id.String())

		assert.NoError(t, err)
		assert.Len(t, rec.Events(notification.EventRefreshData), 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakeRepo{
			deleteFn: func(ctx context.Context, id string) (*Alert, error) { return nil, gorm.ErrRecordNotFound },
		}
		svc, mock, rec := newTestService(t, repo, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := svc.Delete(context.Background(), hr, uuid.NewString())
		assert.ErrorIs(t, err, alerterrors.ErrAlertNotFound)
		assert.Empty(t, rec.Messages())
	})
}
