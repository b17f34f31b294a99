package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-ems/internal/domain"
	"go-ems/internal/leave"
	leaveerrors "go-ems/internal/leave/errors"
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  map[string]int  `json:"meta"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeLeaveService struct {
	createFn  func(ctx context.Context, actor domain.Actor, req leave.CreateLeaveRequest) (leave.LeaveResponse, error)
	getAllFn  func(ctx context.Context, actor domain.Actor, q leave.ListQuery) ([]leave.LeaveResponse, error)
	getByIDFn func(ctx context.Context, actor domain.Actor, id string) (leave.LeaveResponse, error)
	approveFn func(ctx context.Context, actor domain.Actor, id string) (leave.LeaveResponse, error)
	rejectFn  func(ctx context.Context, actor domain.Actor, id, reason string) (leave.LeaveResponse, error)
}

func (f *fakeLeaveService) Create(ctx context.Context, actor domain.Actor, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	return f.createFn(ctx, actor, req)
}
func (f *fakeLeaveService) GetAll(ctx context.Context, actor domain.Actor, q leave.ListQuery) ([]leave.LeaveResponse, error) {
	return f.getAllFn(ctx, actor, q)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, actor domain.Actor, id string) (leave.LeaveResponse, error) {
	return f.getByIDFn(ctx, actor, id)
}
func (f *fakeLeaveService) Approve(ctx context.Context, actor domain.Actor, id string) (leave.LeaveResponse, error) {
	return f.approveFn(ctx, actor, id)
}
func (f *fakeLeaveService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (leave.LeaveResponse, error) {
	return f.rejectFn(ctx, actor, id, reason)
}

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

func TestLeaveHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeLeaveService{
			createFn: func(ctx context.Context, actor domain.Actor, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, staff, actor)
				assert.Equal(t, leave.TypeSick, req.LeaveType)
				return leave.LeaveResponse{ID: uuid.NewString(), Status: leave.StatusPending}, nil
			},
		}
		body := `{"leave_type":"sick","start_date":"2026-01-10","end_date":"2026-01-10","reason":"flu"}`
		c, w := newContext(http.MethodPost, "/leaves", body, staff)
		leave.NewHandler(svc).Create(c)

		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Ok)
	})

	t.Run("unknown leave type", func(t *testing.T) {
		body := `{"leave_type":"annual","start_date":"2026-01-10","end_date":"2026-01-10"}`
		c, w := newContext(http.MethodPost, "/leaves", body, staff)
		leave.NewHandler(&fakeLeaveService{}).Create(c)

		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("invalid range from service", func(t *testing.T) {
		svc := &fakeLeaveService{
			createFn: func(ctx context.Context, actor domain.Actor, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInvalidDateRange
			},
		}
		body := `{"leave_type":"paid","start_date":"2026-01-11","end_date":"2026-01-10"}`
		c, w := newContext(http.MethodPost, "/leaves", body, staff)
		leave.NewHandler(svc).Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeaveHandler_GetAll(t *testing.T) {
	svc := &fakeLeaveService{
		getAllFn: func(ctx context.Context, actor domain.Actor, q leave.ListQuery) ([]leave.LeaveResponse, error) {
			assert.Equal(t, leave.StatusPending, q.Status)
			return []leave.LeaveResponse{{ID: "1"}, {ID: "2"}, {ID: "3"}}, nil
		},
	}
	c, w := newContext(http.MethodGet, "/leaves?status=pending&page=1&page_size=2", "", manager)
	leave.NewHandler(svc).GetAll(c)

	env := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, env.Meta["total"])

	var items []leave.LeaveResponse
	assert.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
}

func TestLeaveHandler_Review(t *testing.T) {
	id := uuid.NewString()

	t.Run("approve", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, actor domain.Actor, got string) (leave.LeaveResponse, error) {
				assert.Equal(t, id, got)
				assert.Equal(t, manager, actor)
				return leave.LeaveResponse{ID: id, Status: leave.StatusApproved}, nil
			},
		}
		c, w := newContext(http.MethodPost, "/leaves/"+id+"/approve", "", manager)
		c.Params = gin.Params{{Key: "id", Value: id}}
		leave.NewHandler(svc).Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"approved"`)
	})

	t.Run("reject with reason", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, actor domain.Actor, got, reason string) (leave.LeaveResponse, error) {
				assert.Equal(t, "short staffed", reason)
				return leave.LeaveResponse{ID: got, Status: leave.StatusRejected}, nil
			},
		}
		c, w := newContext(http.MethodPost, "/leaves/"+id+"/reject", `{"reason":"short staffed"}`, manager)
		c.Params = gin.Params{{Key: "id", Value: id}}
		leave.NewHandler(svc).Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("reject without body", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, actor domain.Actor, got, reason string) (leave.LeaveResponse, error) {
				assert.Empty(t, reason)
				return leave.LeaveResponse{ID: got, Status: leave.StatusRejected}, nil
			},
		}
		c, w := newContext(http.MethodPost, "/leaves/"+id+"/reject", "", manager)
		c.Params = gin.Params{{Key: "id", Value: id}}
		leave.NewHandler(svc).Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already reviewed", func(t *testing.T) {
		svc := &fakeLeaveService{
			approveFn: func(ctx context.Context, actor domain.Actor, got string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
			},
		}
		c, w := newContext(http.MethodPost, "/leaves/"+id+"/approve", "", manager)
		c.Params = gin.Params{{Key: "id", Value: id}}
		leave.NewHandler(svc).Approve(c)

		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
	})
}

func TestLeaveHandler_GetByIDNotFound(t *testing.T) {
	svc := &fakeLeaveService{
		getByIDFn: func(ctx context.Context, actor domain.Actor, id string) (leave.LeaveResponse, error) {
			return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		},
	}
	c, w := newContext(http.MethodGet, "/leaves/x", "", staff)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	leave.NewHandler(svc).GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
