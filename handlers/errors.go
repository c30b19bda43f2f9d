package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"

	"parking-system/internal/status"
)

// apiError maps the engine's sentinel errors onto HTTP responses.
// Authorization failures on lookups answer 404 so a guessed ID does not
// reveal whether the record exists.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrNotFound), errors.Is(err, status.ErrNotAuthorized):
		return apis.NewNotFoundError("Not found", nil)
	case errors.Is(err, status.ErrCapacityExhausted):
		return apis.NewApiError(http.StatusConflict, "Not enough free units for the requested window", nil)
	case errors.Is(err, status.ErrAlreadyExists):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)
	case errors.Is(err, status.ErrIssuanceFailure):
		return apis.NewApiError(http.StatusServiceUnavailable, "Could not issue entry credentials, try again", nil)
	case errors.Is(err, status.ErrValidation),
		errors.Is(err, status.ErrInvalidInterval),
		errors.Is(err, status.ErrResourceInactive),
		errors.Is(err, status.ErrInvalidTransition):
		return apis.NewBadRequestError(err.Error(), nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", nil)
	}
}
