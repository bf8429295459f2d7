package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"

	"gorm.io/gorm"
)

// statusForError maps service sentinels onto HTTP status codes. Anything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidDepot),
		errors.Is(err, service.ErrResolution),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrImmutableCancelledItem),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSequenceConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
