// Package respond writes the JSON envelope every API endpoint returns.
//
// Success:
//
//	{ "status": 200, "data": {...}, "message": "...", "success": true }
//
// Failure:
//
//	{ "status": 404, "message": "Task not found", "success": false, "errors": [...] }
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"go.uber.org/zap"
)

type envelope struct {
	Status  int                 `json:"status"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message"`
	Success bool                `json:"success"`
	Errors  []apierr.FieldError `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusOK, data, message)
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusCreated, data, message)
}

// JSON writes a success envelope with an explicit status.
func JSON(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, envelope{Status: status, Data: data, Message: message, Success: true})
}

// Error maps err to a failure envelope. *apierr.Error values are sent as-is
// (5xx causes are logged); anything else is logged and reported as a
// generic 500.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e, ok := apierr.As(err)
	if !ok {
		e = apierr.Internal(err)
	}
	if e.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", e.Status),
			zap.Error(err))
	}
	write(w, e.Status, envelope{Status: e.Status, Message: e.Message, Errors: e.Errors})
}

// Decode reads a JSON request body into dst. An empty body leaves dst
// untouched. Malformed JSON and bodies over the size limit are reported as
// 400.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apierr.New(http.StatusRequestEntityTooLarge, "Request body too large")
	}
	return apierr.BadRequest("Invalid JSON body").WithCause(err)
}
