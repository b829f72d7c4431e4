// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/santahub/internal/app/system/inputval"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSON writes {"error": msg} with the given status.
func JSON(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// BadRequest writes a 400. Validation failures list the offending fields.
func BadRequest(w http.ResponseWriter, err error) {
	var fe inputval.FieldErrors
	if stderrors.As(err, &fe) {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request", Fields: fe})
		return
	}
	JSON(w, http.StatusBadRequest, err.Error())
}

// NotFound is the router's 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, "method not allowed")
}

// ErrorLogger logs server-side failures before answering with a 500.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Internal logs err and writes a 500 carrying msg, never err itself.
func (e *ErrorLogger) Internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.log.Error(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	JSON(w, http.StatusInternalServerError, msg)
}
