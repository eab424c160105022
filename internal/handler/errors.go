package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
)

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	var insufficient *service.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateProduct):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
