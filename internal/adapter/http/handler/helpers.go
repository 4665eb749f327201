package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/retrobus-essonne/finance/internal/adapter/http/dto"
	"github.com/retrobus-essonne/finance/internal/domain"
)

// maxBodyBytes bounds request bodies; stored HTML templates are the largest.
const maxBodyBytes = 2 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeDomainError maps err to a status and a stable error code. Server-side
// failures are logged and their details kept out of the response.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		message = "storage is temporarily unavailable, please retry"
	case http.StatusInternalServerError:
		message = "internal server error"
	}

	writeError(w, status, code, message)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrBalanceLocked):
		return http.StatusLocked, "balance_locked"
	case errors.Is(err, domain.ErrRenderFailure):
		return http.StatusBadGateway, "render_failure"
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrPersistence),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "persistence_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON decodes the request body into dst. An empty body is allowed
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
	return false
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
