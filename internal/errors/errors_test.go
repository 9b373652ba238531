package errors

import (
	"errors"
	"fmt"
	"testing"
)

// =============================================================================
// Test Error Types and Constructors
// =============================================================================

func TestNotFound(t *testing.T) {
	err := NotFound("survey not found")

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "survey not found" {
		t.Errorf("expected Message to be 'survey not found', got '%s'", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected Err to be nil, got %v", err.Err)
	}
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("survey %d not found", 123)

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "survey 123 not found" {
		t.Errorf("expected Message to be 'survey 123 not found', got '%s'", err.Message)
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf("field %s must be at least %d characters", "password", 8)

	if err.Kind != ErrValidation {
		t.Errorf("expected Kind to be ErrValidation (%d), got %d", ErrValidation, err.Kind)
	}
	expectedMsg := "field password must be at least 8 characters"
	if err.Message != expectedMsg {
		t.Errorf("expected Message to be '%s', got '%s'", expectedMsg, err.Message)
	}
}

func TestConflictf(t *testing.T) {
	err := Conflictf("user with email %s already exists", "test@example.com")

	if err.Kind != ErrConflict {
		t.Errorf("expected Kind to be ErrConflict (%d), got %d", ErrConflict, err.Kind)
	}
	expectedMsg := "user with email test@example.com already exists"
	if err.Message != expectedMsg {
		t.Errorf("expected Message to be '%s', got '%s'", expectedMsg, err.Message)
	}
}

func TestUnauthorizedAndForbidden(t *testing.T) {
	if Unauthorized("login required").Kind != ErrUnauthorized {
		t.Error("expected ErrUnauthorized")
	}
	if Forbidden("admins only").Kind != ErrForbidden {
		t.Error("expected ErrForbidden")
	}
}

func TestInternal(t *testing.T) {
	underlyingErr := fmt.Errorf("database connection failed")
	err := Internal(underlyingErr)

	if err.Kind != ErrInternal {
		t.Errorf("expected Kind to be ErrInternal (%d), got %d", ErrInternal, err.Kind)
	}
	if err.Message != "internal error" {
		t.Errorf("expected Message to be 'internal error', got '%s'", err.Message)
	}
	if err.Err != underlyingErr {
		t.Errorf("expected Err to be %v, got %v", underlyingErr, err.Err)
	}
	if err.Error() != "internal error: database connection failed" {
		t.Errorf("unexpected Error(): %q", err.Error())
	}
}

// =============================================================================
// Field errors
// =============================================================================

func TestFieldErrors_Err(t *testing.T) {
	fields := FieldErrors{}
	if fields.Err() != nil {
		t.Error("expected nil error for empty field errors")
	}

	fields.Add("password", "must be at least 8 characters")
	fields.Add("password", "must contain a digit")
	fields.Add("email", "is required")

	err := fields.Err()
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if appErr.Kind != ErrValidation {
		t.Errorf("expected ErrValidation, got %v", appErr.Kind)
	}
	if len(appErr.Fields["password"]) != 2 {
		t.Errorf("expected 2 password messages, got %v", appErr.Fields["password"])
	}

	expected := "Validation failed (email: is required; password: must be at least 8 characters, must contain a digit)"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestField(t *testing.T) {
	err := Field("participant_max", "must be at least participant_min")
	if err.Kind != ErrValidation {
		t.Errorf("expected ErrValidation, got %v", err.Kind)
	}
	if got := err.Fields["participant_max"]; len(got) != 1 {
		t.Errorf("expected one message, got %v", got)
	}
}

// =============================================================================
// Wrapping
// =============================================================================

func TestWrap_Unwrap(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(base, ErrInternal, "failed to save survey")

	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if err.Error() != "failed to save survey: disk full" {
		t.Errorf("unexpected Error(): %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ErrInternal},
		{"plain error", errors.New("boom"), ErrInternal},
		{"not found", NotFound("x"), ErrNotFound},
		{"wrapped conflict", fmt.Errorf("outer: %w", Conflict("dup")), ErrConflict},
		{"forbidden", Forbidden("no"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if ErrNotFound.String() != "not_found" {
		t.Errorf("unexpected %q", ErrNotFound.String())
	}
	if Kind(99).String() != "internal" {
		t.Errorf("unexpected %q", Kind(99).String())
	}
}
