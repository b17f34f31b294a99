package performanceerrors

import (
	"net/http"

	"go-ems/internal/shared/apperror"
)

var (
	ErrReviewNotFound = apperror.New(
		apperror.CodeNotFound,
		"Performance record not found",
		http.StatusNotFound,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrInvalidReviewDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid review date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You can only view your own performance reviews",
		http.StatusForbidden,
	)
)
