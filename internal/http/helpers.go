package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// errBadRequest marks bodies that are not well-formed JSON.
var errBadRequest = errors.New("malformed request body")

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Store and unexpected failures are logged
// and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Error = ve.Error()
		resp.Field = ve.Field
	}

	if status == http.StatusInternalServerError {
		errorType := applog.ErrorTypeInternal
		if errors.Is(err, core.ErrStore) {
			errorType = applog.ErrorTypeDatabase
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, errorType, r.Method+" "+r.URL.Path, nil)
		resp = errorResponse{Error: "internal error"}
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object into v. Unknown fields are rejected.
// Typed validation errors raised while decoding (bad amount or date) keep
// their kind; anything else is a bad request.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError("id", fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// queryDate parses a YYYY-MM-DD query parameter, falling back to def.
func queryDate(r *http.Request, name string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.NewValidationError(name, "must be YYYY-MM-DD")
	}
	return d, nil
}

// queryMonth parses a YYYY-MM query parameter, falling back to the month of def.
func queryMonth(r *http.Request, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return def.MonthStart(), nil
	}
	return core.ParseMonth(v)
}
