package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/trogers1052/market-analytics/internal/analysis"
	"github.com/trogers1052/market-analytics/internal/cache"
	"github.com/trogers1052/market-analytics/internal/database"
	"github.com/trogers1052/market-analytics/internal/logger"
	"github.com/trogers1052/market-analytics/internal/service"
)

// RequestError is a malformed body or parameter rejected at the HTTP boundary
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func badRequest(field, format string, args ...any) error {
	return &RequestError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an error onto the HTTP status reported to the client
func statusFor(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, analysis.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound), errors.Is(err, service.ErrNoHistory), errors.Is(err, cache.ErrMiss):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			append(logger.Attrs(r.Context()), "method", r.Method, "path", r.URL.Path, "error", err)...)
		msg = http.StatusText(status)
	}
	h.respondJSON(w, r, status, errorResponse{Error: msg, RequestID: logger.RequestID(r.Context())})
}
