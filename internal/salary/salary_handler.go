package salary

import (
	"net/http"
	"time"

	"go-ems/internal/middleware"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type Handler struct {
	service Service
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("salary.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salary.handler")
	}
	return &Handler{service: service, logger: l, now: time.Now}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) bindPeriod(c *gin.Context) (Period, bool) {
	var q PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return Period{}, false
	}
	if q.Month == 0 && q.Year == 0 {
		return PeriodOf(h.now()), true
	}
	p, err := NewPeriod(q.Month, q.Year)
	if err != nil {
		h.writeServiceError(c, err)
		return Period{}, false
	}
	return p, true
}

func (h *Handler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	result, err := h.service.RunMonthlyCalculation(
		c.Request.Context(),
		middleware.ActorFromContext(c),
		Period{Month: req.Month, Year: req.Year},
	)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) RunStatus(c *gin.Context) {
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	resp, err := h.service.RunStatus(c.Request.Context(), middleware.ActorFromContext(c), period)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Me(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	h.breakdown(c, actor.EmployeeID)
}

func (h *Handler) GetByEmployee(c *gin.Context) {
	h.breakdown(c, c.Param("id"))
}

// breakdown answers ok:true for any computed amount, zero included.
func (h *Handler) breakdown(c *gin.Context, employeeID string) {
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	resp, err := h.service.ComputeOnDemand(c.Request.Context(), middleware.ActorFromContext(c), employeeID, period)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) List(c *gin.Context) {
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	records, err := h.service.ListRecords(c.Request.Context(), middleware.ActorFromContext(c), period)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, pageSize := response.PageParams(c)
	items, meta := response.Paginate(records, page, pageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) Export(c *gin.Context) {
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	out, err := h.service.ExportRecords(c.Request.Context(), middleware.ActorFromContext(c), period)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFileName(period)+`"`)
	c.Data(http.StatusOK, xlsxContentType, out)
}

func (h *Handler) Payslip(c *gin.Context) {
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}
	employeeID := c.Param("id")

	out, err := h.service.Payslip(c.Request.Context(), middleware.ActorFromContext(c), employeeID, period)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+PayslipFileName(employeeID, period)+`"`)
	c.Data(http.StatusOK, pdfContentType, out)
}
