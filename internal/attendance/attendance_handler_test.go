package attendance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-ems/internal/attendance"
	attendanceerrors "go-ems/internal/attendance/errors"
	"go-ems/internal/domain"
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	checkInFn  func(ctx context.Context, actor domain.Actor) (attendance.AttendanceResponse, error)
	checkOutFn func(ctx context.Context, actor domain.Actor) (attendance.CheckOutResponse, error)
	listFn     func(ctx context.Context, actor domain.Actor, q attendance.ListQuery) ([]attendance.AttendanceResponse, error)
	createFn   func(ctx context.Context, actor domain.Actor, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error)
	updateFn   func(ctx context.Context, actor domain.Actor, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error)
}

func (f *fakeService) CheckIn(ctx context.Context, actor domain.Actor) (attendance.AttendanceResponse, error) {
	return f.checkInFn(ctx, actor)
}
func (f *fakeService) CheckOut(ctx context.Context, actor domain.Actor) (attendance.CheckOutResponse, error) {
	return f.checkOutFn(ctx, actor)
}
func (f *fakeService) List(ctx context.Context, actor domain.Actor, q attendance.ListQuery) ([]attendance.AttendanceResponse, error) {
	return f.listFn(ctx, actor, q)
}
func (f *fakeService) Create(ctx context.Context, actor domain.Actor, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.createFn(ctx, actor, req)
}
func (f *fakeService) Update(ctx context.Context, actor domain.Actor, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.updateFn(ctx, actor, id, req)
}

var staff = domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleEmployee}

func newContext(method, target, body string, actor domain.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextEmployeeID, actor.EmployeeID)
	c.Set(middleware.ContextRole, actor.Role)
	return c, w
}

func TestHandler_CheckIn(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeService{
			checkInFn: func(ctx context.Context, actor domain.Actor) (attendance.AttendanceResponse, error) {
				assert.Equal(t, staff, actor)
				return attendance.AttendanceResponse{ID: uuid.NewString(), EmployeeID: actor.EmployeeID, Status: attendance.StatusLate}, nil
			},
		}
		c, w := newContext(http.MethodPost, "/attendances/check-in", "", staff)
		attendance.NewHandler(svc).CheckIn(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"late"`)
	})

	t.Run("already checked in", func(t *testing.T) {
		svc := &fakeService{
			checkInFn: func(ctx context.Context, actor domain.Actor) (attendance.AttendanceResponse, error) {
				return attendance.AttendanceResponse{}, attendanceerrors.ErrAlreadyCheckedIn
			},
		}
		c, w := newContext(http.MethodPost, "/attendances/check-in", "", staff)
		attendance.NewHandler(svc).CheckIn(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "CONFLICT")
	})
}

func TestHandler_CheckOutCarriesWarning(t *testing.T) {
	svc := &fakeService{
		checkOutFn: func(ctx context.Context, actor domain.Actor) (attendance.CheckOutResponse, error) {
			return attendance.CheckOutResponse{
				AttendanceResponse: attendance.AttendanceResponse{ID: uuid.NewString(), Status: attendance.StatusPresent},
				Warning:            "no check-in",
			}, nil
		},
	}
	c, w := newContext(http.MethodPost, "/attendances/check-out", "", staff)
	attendance.NewHandler(svc).CheckOut(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Ok   bool `json:"ok"`
		Data struct {
			Status  string `json:"status"`
			Warning string `json:"warning"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Ok)
	assert.Equal(t, attendance.StatusPresent, body.Data.Status)
	assert.Equal(t, "no check-in", body.Data.Warning)
}

func TestHandler_ListPaginates(t *testing.T) {
	svc := &fakeService{
		listFn: func(ctx context.Context, actor domain.Actor, q attendance.ListQuery) ([]attendance.AttendanceResponse, error) {
			assert.Equal(t, "2026-03-01", q.From)
			rows := make([]attendance.AttendanceResponse, 3)
			for i := range rows {
				rows[i] = attendance.AttendanceResponse{ID: uuid.NewString()}
			}
			return rows, nil
		},
	}
	c, w := newContext(http.MethodGet, "/attendances?from=2026-03-01&page=2&page_size=2", "", staff)
	attendance.NewHandler(svc).List(c)

	var body struct {
		Data []attendance.AttendanceResponse `json:"data"`
		Meta map[string]int                  `json:"meta"`
	}
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Meta["total"])
	assert.Equal(t, 2, body.Meta["totalPages"])
}

func TestHandler_ListForbidden(t *testing.T) {
	svc := &fakeService{
		listFn: func(ctx context.Context, actor domain.Actor, q attendance.ListQuery) ([]attendance.AttendanceResponse, error) {
			return nil, attendanceerrors.ErrForbidden
		},
	}
	c, w := newContext(http.MethodGet, "/attendances?employee_id="+uuid.NewString(), "", staff)
	attendance.NewHandler(svc).List(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_Create(t *testing.T) {
	manager := domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleManager}

	t.Run("invalid status", func(t *testing.T) {
		body := `{"employee_id":"` + uuid.NewString() + `","date":"2026-03-10","status":"holiday"}`
		c, w := newContext(http.MethodPost, "/attendances", body, manager)
		attendance.NewHandler(&fakeService{}).Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})

	t.Run("created", func(t *testing.T) {
		target := uuid.NewString()
		svc := &fakeService{
			createFn: func(ctx context.Context, actor domain.Actor, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
				assert.Equal(t, manager, actor)
				assert.Equal(t, target, req.EmployeeID)
				assert.Equal(t, 2, req.OvertimeHours)
				return attendance.AttendanceResponse{ID: uuid.NewString(), EmployeeID: target}, nil
			},
		}
		body := `{"employee_id":"` + target + `","date":"2026-03-10","status":"absent","overtime_hours":2}`
		c, w := newContext(http.MethodPost, "/attendances", body, manager)
		attendance.NewHandler(svc).Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestHandler_UpdatePassesID(t *testing.T) {
	manager := domain.Actor{EmployeeID: uuid.NewString(), Role: domain.RoleHR}
	id := uuid.NewString()
	svc := &fakeService{
		updateFn: func(ctx context.Context, actor domain.Actor, got string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
			assert.Equal(t, id, got)
			assert.Equal(t, attendance.StatusAbsent, req.Status)
			return attendance.AttendanceResponse{ID: id, Status: req.Status}, nil
		},
	}
	c, w := newContext(http.MethodPut, "/attendances/"+id, `{"status":"absent"}`, manager)
	c.Params = gin.Params{{Key: "id", Value: id}}
	attendance.NewHandler(svc).Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
}
