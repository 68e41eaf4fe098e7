package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mockround/mockround/internal/shared"
)

// Machine readable error codes carried in ErrorBody.Error.
const (
	CodeValidation      = "validation_error"
	CodeDuplicate       = "duplicate"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal_error"
)

// RespondError maps domain errors to HTTP responses. Only validation details
// reach the client; everything unexpected is logged and answered generically.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusBadRequest, err.Error(), CodeDuplicate)
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "invalid credentials", CodeUnauthenticated)
	case errors.Is(err, shared.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, "not authenticated", CodeUnauthenticated)
	case errors.Is(err, shared.ErrForbidden):
		if logger != nil {
			logger.Debug("request denied", slog.String("reason", err.Error()))
		}
		Error(w, http.StatusForbidden, "forbidden", CodeForbidden)
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, "resource not found", CodeNotFound)
	default:
		if logger != nil {
			logger.Error("request failed", slog.Any("error", err))
		}
		Error(w, http.StatusInternalServerError, "internal server error", CodeInternal)
	}
}
