package salaryerrors

import (
	"net/http"

	"go-ems/internal/shared/apperror"
)

var (
	ErrInvalidInput = apperror.New(
		apperror.CodeInvalidInput,
		"base salary and overtime hours cannot be negative",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveRange = apperror.New(
		apperror.CodeInvalidInput,
		"leave end_date must not be before start_date",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"invalid period, month must be 1-12 and year 1970-9999",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"salary has not been calculated for this period",
		http.StatusNotFound,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"you can only view your own salary",
		http.StatusForbidden,
	)
	ErrManagerOnly = apperror.New(
		apperror.CodeForbidden,
		"only managers can run or review salary calculations",
		http.StatusForbidden,
	)
	ErrRunInProgress = apperror.New(
		apperror.CodeRunInProgress,
		"a salary calculation for this period is already running",
		http.StatusConflict,
	)
	ErrRunLockUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"salary run lock is unavailable, please retry",
		http.StatusServiceUnavailable,
	)
	ErrReportFailed = apperror.New(
		apperror.CodeInternalError,
		"failed to render salary report",
		http.StatusInternalServerError,
	)
)
