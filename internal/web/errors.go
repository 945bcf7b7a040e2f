package web

// errors.go turns load errors into JSON responses.
//
// The technical error is logged with the request ID; the client gets the
// core.MapError message, action and code.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Action  string           `json:"action,omitempty"`
	Code    string           `json:"code"`
	Result  *core.LoadResult `json:"result,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		cfgErr    *core.ConfigurationError
		inErr     *core.InputError
		schemaErr *core.SchemaError
		castErr   *core.CastError
	)

	switch {
	case errors.Is(err, core.ErrTooManyLoads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrUnknownKey):
		return http.StatusNotFound
	case errors.As(err, &castErr), errors.As(err, &schemaErr), errors.As(err, &inErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing form. result, when
// non-nil, is the partial outcome of a failed load.
func respondError(w http.ResponseWriter, r *http.Request, err error, result *core.LoadResult) {
	status := statusFor(err)
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Result:  result,
	})
}
