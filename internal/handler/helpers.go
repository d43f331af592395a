package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"motion/internal/domain"
	"motion/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// isDomainError reports whether err maps to a 4xx response
func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrForbidden)
}

// PathParam returns the named path value, which must be a UUID
func PathParam(r *http.Request, name string) (string, error) {
	value := r.PathValue(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
	}
	if _, err := uuid.Parse(value); err != nil {
		return "", fmt.Errorf("%w: %s must be a UUID", domain.ErrValidation, name)
	}
	return value, nil
}

// QueryID returns an optional UUID query parameter; nil when absent or empty
func QueryID(r *http.Request, name string) (*string, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return nil, fmt.Errorf("%w: %s must be a UUID", domain.ErrValidation, name)
	}
	return &value, nil
}
