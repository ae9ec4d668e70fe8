package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		err    *apierr.Error
		status int
	}{
		{apierr.BadRequest("bad"), http.StatusBadRequest},
		{apierr.Unauthorized("who"), http.StatusUnauthorized},
		{apierr.Forbidden("no"), http.StatusForbidden},
		{apierr.NotFound("gone"), http.StatusNotFound},
		{apierr.Conflict("dup"), http.StatusConflict},
		{apierr.TooManyRequests("slow"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		if tt.err.Status != tt.status {
			t.Errorf("%q: got status %d, want %d", tt.err.Message, tt.err.Status, tt.status)
		}
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection reset")
	e := apierr.Internal(cause)

	if e.Message != "Internal server error" {
		t.Errorf("Message: got %q", e.Message)
	}
	if !errors.Is(e, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestAs_FindsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", apierr.NotFound("Task not found"))

	e, ok := apierr.As(wrapped)
	if !ok {
		t.Fatal("expected As to find *Error")
	}
	if e.Status != http.StatusNotFound || e.Message != "Task not found" {
		t.Errorf("got %d %q", e.Status, e.Message)
	}

	if _, ok := apierr.As(errors.New("plain")); ok {
		t.Error("expected As to reject a plain error")
	}
}

func TestWithFields(t *testing.T) {
	e := apierr.BadRequest("Validation failed").WithFields(
		apierr.FieldError{Field: "email", Message: "Email is required"},
	)
	if len(e.Errors) != 1 || e.Errors[0].Field != "email" {
		t.Errorf("Errors: got %+v", e.Errors)
	}
}
