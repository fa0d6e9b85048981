package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/live"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/scoring"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFail(w http.ResponseWriter, code int, kind, detail string) {
	writeJSON(w, code, errorBody{Error: kind, Detail: detail})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *live.ValidationError
	switch {
	case errors.As(err, &ve):
		writeFail(w, http.StatusBadRequest, "invalid", ve.Msg)
	case errors.Is(err, live.ErrNotFound), errors.Is(err, live.ErrBallNotFound):
		writeFail(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, live.ErrReadOnly):
		writeFail(w, http.StatusConflict, "read_only", err.Error())
	case errors.Is(err, scoring.ErrExists):
		writeFail(w, http.StatusConflict, "exists", err.Error())
	case errors.Is(err, match.ErrInvalidDelta):
		writeFail(w, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, live.ErrNotApplicable),
		errors.Is(err, match.ErrMatchCompleted),
		errors.Is(err, match.ErrInningsClosed),
		errors.Is(err, match.ErrOversExhausted),
		errors.Is(err, match.ErrBowlerRequired):
		writeFail(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, live.ErrBusy), errors.Is(err, live.ErrClosed):
		w.Header().Set("Retry-After", "1")
		writeFail(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeFail(w, http.StatusGatewayTimeout, "timeout", err.Error())
	default:
		writeFail(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
