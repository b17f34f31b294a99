package alerterrors

import (
	"net/http"

	"go-ems/internal/shared/apperror"
)

var (
	ErrAlertNotFound = apperror.New(
		apperror.CodeNotFound,
		"Alert not found",
		http.StatusNotFound,
	)
	ErrInvalidRecipient = apperror.New(
		apperror.CodeInvalidInput,
		"Employee ID must be a valid ID or \"all\"",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You can only view your own alerts",
		http.StatusForbidden,
	)
)
