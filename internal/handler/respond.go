package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	appI18n "github.com/pavelanni/codequest/internal/i18n"
	"github.com/pavelanni/codequest/internal/league"
	"github.com/pavelanni/codequest/internal/progress"
	"github.com/pavelanni/codequest/internal/validate"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

var (
	errUnknownProblem = errors.New("unknown problem")
	errBadRequest     = errors.New("bad request")
)

// apiError maps err to a status, a stable code and a message id.
func apiError(err error) (int, string, string) {
	var verr *validate.Error
	switch {
	case errors.Is(err, progress.ErrHeartsExhausted):
		return http.StatusForbidden, "hearts_exhausted", "ErrHeartsExhausted"
	case errors.Is(err, progress.ErrNoFreezesAvailable):
		return http.StatusConflict, "no_freezes_available", "ErrNoFreezesAvailable"
	case errors.Is(err, progress.ErrAlreadyProtectedToday):
		return http.StatusConflict, "already_protected_today", "ErrAlreadyProtectedToday"
	case errors.Is(err, league.ErrAlreadyRolledOver):
		return http.StatusConflict, "already_rolled_over", "ErrAlreadyRolledOver"
	case errors.Is(err, progress.ErrStoreConflict):
		return http.StatusConflict, "conflict", "ErrConflict"
	case errors.Is(err, progress.ErrProfileNotFound), errors.Is(err, errUnknownProblem):
		return http.StatusNotFound, "not_found", "ErrNotFound"
	case errors.Is(err, progress.ErrInvalidTimezone):
		return http.StatusBadRequest, "invalid_timezone", "ErrInvalidTimezone"
	case errors.As(err, &verr), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request", "ErrBadRequest"
	default:
		return http.StatusInternalServerError, "internal", "ErrInternal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msgID := apiError(err)
	body := errorBody{Error: appI18n.T(r.Context(), msgID), Code: code}

	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		body.Details = verr.Messages
	case status == http.StatusBadRequest:
		body.Details = []string{err.Error()}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, msgID string) {
	writeJSON(w, status, errorBody{Error: appI18n.T(r.Context(), msgID), Code: code})
}

// decodeJSON reads a request body into v and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return h.validate.Struct(v)
}
