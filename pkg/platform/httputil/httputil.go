// Package httputil provides JSON response helpers shared by all handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// errorResponse is the wire shape for every error the API returns.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures are logged
// and abandoned; headers are already gone by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// WriteError maps a domain error to an HTTP status and a stable error code.
// Internal errors never leak their description to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(translateSentinel(err))

	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.Description = dErrors.MessageOf(translateSentinel(err))
	}

	WriteJSON(w, statusFor(code), resp)
}

// translateSentinel lets handlers pass raw sentinel errors through without
// pre-wrapping; services normally wrap before the error gets here.
func translateSentinel(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "resource not found")
	case errors.Is(err, sentinel.ErrAlreadyMarked):
		return dErrors.Wrap(err, dErrors.CodeConflict, "attendance already marked for this session")
	case errors.Is(err, sentinel.ErrSessionInactive):
		return dErrors.Wrap(err, dErrors.CodeConflict, "session is not open for marking")
	case errors.Is(err, sentinel.ErrNotEnrolled):
		return dErrors.Wrap(err, dErrors.CodeConflict, "identity has no enrolled biometric templates")
	case errors.Is(err, sentinel.ErrTooManyAttempts):
		return dErrors.Wrap(err, dErrors.CodeTooManyRequests, "too many failed attempts, try again later")
	case errors.Is(err, sentinel.ErrAnomalyResolved):
		return dErrors.Wrap(err, dErrors.CodeConflict, "anomaly is already resolved")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "dependency unavailable")
	default:
		return err
	}
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON parses a request body into dst, rejecting unknown fields so
// client typos surface as 400s instead of silently ignored input.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "request body is not valid JSON")
	}
	return nil
}
