package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

const maxJSONBody = 1 << 20

// envelope is the JSON body of every response. It always carries "message".
type envelope map[string]any

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindConflict, model.KindInvalidTransition:
		return http.StatusConflict
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error body. Domain errors carry their own
// code and message; anything else is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		status := statusFor(de.Kind)
		logger.Debug().Str("code", de.Code).Int("status", status).Str("path", r.URL.Path).Msg("request rejected")
		writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
		return
	}

	logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "Internal server error",
	})
}

func writeBadBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
		Error:   model.ErrCodeInvalidJSON,
		Message: "Invalid request body",
	})
}

// decodeJSON reads a size-limited JSON body into dst. An empty body leaves
// dst at its zero value so validation can report the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeBadBody(w)
		return false
	}
	return true
}

// principal returns the authenticated caller, writing a 401 when there is none.
func principal(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*model.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorised, logger)
		return nil, false
	}
	return p, true
}
