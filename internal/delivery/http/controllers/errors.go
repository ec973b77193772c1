package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// writePublicError maps a registration workflow error to its status code and
// a flat {error, details} body. Server-side failures are logged.
func writePublicError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound string) {
	var (
		verr  *domain.ValidationError
		aerr  *domain.AuthInitError
		uerr  *domain.UploadError
		rerr  *domain.RegistryError
		ferr  *formError
		maxed *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		helpers.WritePublicError(w, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.As(err, &maxed):
		helpers.WritePublicError(w, http.StatusRequestEntityTooLarge, "Request too large", err.Error())
	case errors.As(err, &ferr):
		helpers.WritePublicError(w, http.StatusBadRequest, "Malformed form data", err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		helpers.WritePublicError(w, http.StatusBadRequest, "Invalid registration token", nil)
	case errors.Is(err, domain.ErrNotFound):
		helpers.WritePublicError(w, http.StatusNotFound, notFound, nil)
	case errors.As(err, &aerr):
		logger.ErrorContext(r.Context(), "service credentials unusable", "path", r.URL.Path, "missing", aerr.Missing, "err", err)
		status := http.StatusUnauthorized
		if aerr.Missing {
			status = http.StatusServiceUnavailable
		}
		helpers.WritePublicError(w, status, "Registration service is not configured", err.Error())
	case errors.As(err, &uerr):
		if errors.Is(err, domain.ErrFileMissing) || errors.Is(err, domain.ErrInvalidInput) {
			helpers.WritePublicError(w, http.StatusBadRequest, "Invalid file upload", err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "file upload failed", "path", r.URL.Path, "field", uerr.Field, "err", err)
		helpers.WritePublicError(w, http.StatusInternalServerError, "File upload failed", err.Error())
	case errors.As(err, &rerr):
		logger.ErrorContext(r.Context(), "registry write failed", "path", r.URL.Path, "backend", rerr.Backend, "phase", rerr.Phase, "err", err)
		helpers.WritePublicError(w, http.StatusInternalServerError, "Failed to save registration", err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WritePublicError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
