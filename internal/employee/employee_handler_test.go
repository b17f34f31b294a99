package employee_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-ems/internal/domain"
	"go-ems/internal/employee"
	employeeerrors "go-ems/internal/employee/errors"
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeEmployeeService struct {
	CreateFn     func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error)
	GetAllFn     func(ctx context.Context, actor domain.Actor) ([]employee.EmployeeResponse, error)
	GetOptionsFn func(ctx context.Context) ([]employee.EmployeeOptionResponse, error)
	GetByIDFn    func(ctx context.Context, actor domain.Actor, id string) (employee.EmployeeResponse, error)
	UpdateFn     func(ctx context.Context, actor domain.Actor, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error)
	DeleteFn     func(ctx context.Context, actor domain.Actor, id string) error
}

func (f *fakeEmployeeService) Create(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	return f.CreateFn(ctx, actor, req)
}
func (f *fakeEmployeeService) GetAll(ctx context.Context, actor domain.Actor) ([]employee.EmployeeResponse, error) {
	return f.GetAllFn(ctx, actor)
}
func (f *fakeEmployeeService) GetOptions(ctx context.Context) ([]employee.EmployeeOptionResponse, error) {
	return f.GetOptionsFn(ctx)
}
func (f *fakeEmployeeService) GetByID(ctx context.Context, actor domain.Actor, id string) (employee.EmployeeResponse, error) {
	return f.GetByIDFn(ctx, actor, id)
}
func (f *fakeEmployeeService) Update(ctx context.Context, actor domain.Actor, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	return f.UpdateFn(ctx, actor, id, req)
}
func (f *fakeEmployeeService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	return f.DeleteFn(ctx, actor, id)
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  map[string]int  `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newContext(method, target, body string, actor domain.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextEmployeeID, actor.EmployeeID)
	c.Set(middleware.ContextRole, actor.Role)
	return c, w
}

func TestEmployeeHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
				assert.Equal(t, manager, actor)
				assert.Equal(t, "John Doe", req.Name)
				assert.Equal(t, "5000.75", req.BaseSalary.StringFixed(2))
				return employee.EmployeeResponse{ID: uuid.NewString(), Name: req.Name, BaseSalary: "5000.75"}, nil
			},
		}
		h := employee.NewHandler(svc)

		body := `{"name":"John Doe","email":"john@example.com","password":"secret1","role":"developer","joining_date":"2026-01-01","base_salary":5000.75}`
		c, w := newContext(http.MethodPost, "/api/v1/employees", body, manager)
		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decode(t, w).Ok)
		assert.Contains(t, w.Body.String(), "John Doe")
	})

	t.Run("missing base salary", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})

		body := `{"name":"John Doe","email":"john@example.com","password":"secret1","role":"developer","joining_date":"2026-01-01"}`
		c, w := newContext(http.MethodPost, "/api/v1/employees", body, manager)
		h.Create(c)

		env := decode(t, w)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
		assert.Contains(t, env.Error.Message, "is required")
	})

	t.Run("unknown role", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})

		body := `{"name":"John Doe","email":"john@example.com","password":"secret1","role":"admin","joining_date":"2026-01-01","base_salary":1}`
		c, w := newContext(http.MethodPost, "/api/v1/employees", body, manager)
		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Role is invalid", decode(t, w).Error.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, actor domain.Actor, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeAlreadyExists
			},
		}
		h := employee.NewHandler(svc)

		body := `{"name":"John Doe","email":"john@example.com","password":"secret1","role":"hr","joining_date":"2026-01-01","base_salary":"0"}`
		c, w := newContext(http.MethodPost, "/api/v1/employees", body, manager)
		h.Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", decode(t, w).Error.Code)
	})
}

func TestEmployeeHandler_GetAll(t *testing.T) {
	svc := &fakeEmployeeService{
		GetAllFn: func(ctx context.Context, actor domain.Actor) ([]employee.EmployeeResponse, error) {
			return []employee.EmployeeResponse{
				{ID: "1", Name: "Citra", Email: "citra@example.com", Role: "hr"},
				{ID: "2", Name: "andi", Email: "andi@example.com", Role: "developer"},
				{ID: "3", Name: "Bayu", Email: "bayu@example.com", Role: "developer"},
			}, nil
		},
	}
	h := employee.NewHandler(svc)

	t.Run("sorted by name and paginated", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/api/v1/employees?page=1&page_size=2", "", manager)
		h.GetAll(c)

		env := decode(t, w)
		var items []employee.EmployeeResponse
		assert.NoError(t, json.Unmarshal(env.Data, &items))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"andi", "Bayu"}, []string{items[0].Name, items[1].Name})
		assert.Equal(t, 3, env.Meta["total"])
		assert.Equal(t, 2, env.Meta["totalPages"])
	})

	t.Run("filtered by role and query", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/api/v1/employees?role=developer&q=bay", "", manager)
		h.GetAll(c)

		var items []employee.EmployeeResponse
		assert.NoError(t, json.Unmarshal(decode(t, w).Data, &items))
		assert.Len(t, items, 1)
		assert.Equal(t, "3", items[0].ID)
	})
}

func TestEmployeeHandler_GetByID(t *testing.T) {
	svc := &fakeEmployeeService{
		GetByIDFn: func(ctx context.Context, actor domain.Actor, id string) (employee.EmployeeResponse, error) {
			if id == "missing" {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
			}
			return employee.EmployeeResponse{ID: id}, nil
		},
	}
	h := employee.NewHandler(svc)

	c, w := newContext(http.MethodGet, "/api/v1/employees/missing", "", staff)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Employee not found", decode(t, w).Error.Message)
}

func TestEmployeeHandler_Delete(t *testing.T) {
	var deleted string
	svc := &fakeEmployeeService{
		DeleteFn: func(ctx context.Context, actor domain.Actor, id string) error {
			deleted = id
			return nil
		},
	}
	h := employee.NewHandler(svc)

	id := uuid.NewString()
	c, w := newContext(http.MethodDelete, "/api/v1/employees/"+id, "", manager)
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, deleted)
	assert.JSONEq(t, `{"deleted":true}`, string(decode(t, w).Data))
}
