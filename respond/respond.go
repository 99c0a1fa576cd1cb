// Package respond writes JSON bodies and maps domain errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"svcadmin/database"
)

// StatusError carries the status code an error should be reported with.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func BadRequest(message string) error {
	return &StatusError{Status: http.StatusBadRequest, Message: message}
}

func Conflict(message string) error {
	return &StatusError{Status: http.StatusConflict, Message: message}
}

func Forbidden(message string) error {
	return &StatusError{Status: http.StatusForbidden, Message: message}
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorf("Error encoding JSON response: %v", err)
	}
}

func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Error writes err as {"message": ...} using the status it maps to.
// Unclassified errors are logged and reported as 500 with a generic message.
func Error(w http.ResponseWriter, err error) {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		Message(w, se.Status, se.Message)
	case errors.Is(err, database.ErrNotFound):
		Message(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConflict):
		Message(w, http.StatusConflict, err.Error())
	default:
		zap.S().Errorf("internal error: %v", err)
		Message(w, http.StatusInternalServerError, "internal server error")
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return BadRequest("invalid request body")
	}
	return nil
}

// PathID parses the named path value as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequest("invalid " + name)
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter, falling back to def.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, BadRequest("invalid " + name)
	}
	return n, nil
}
