package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/abrezinsky/surveydesk/internal/builder"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/handlers"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/services"
)

func TestAPIError_Error(t *testing.T) {
	err := handlers.NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "test message")

	if err.Error() != "test message" {
		t.Errorf("expected 'test message', got %q", err.Error())
	}
	if err.Code != "BAD_REQUEST" {
		t.Errorf("expected code 'BAD_REQUEST', got %q", err.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		err    *handlers.APIError
		status int
		code   string
	}{
		{handlers.BadRequest("bad"), http.StatusBadRequest, handlers.ErrCodeBadRequest},
		{handlers.Unauthorized("login"), http.StatusUnauthorized, handlers.ErrCodeUnauthorized},
		{handlers.Forbidden("no"), http.StatusForbidden, handlers.ErrCodeForbidden},
		{handlers.NotFound("gone"), http.StatusNotFound, handlers.ErrCodeNotFound},
		{handlers.Conflict("twice"), http.StatusConflict, handlers.ErrCodeConflict},
		{handlers.InternalError(logger.Discard(), fmt.Errorf("boom")), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
	}
	for _, tt := range tests {
		if tt.err.Status != tt.status || tt.err.Code != tt.code {
			t.Errorf("expected %d/%s, got %d/%s", tt.status, tt.code, tt.err.Status, tt.err.Code)
		}
	}
}

func TestToAPIError(t *testing.T) {
	fields := errors.FieldErrors{}
	fields.Add("title", "is required")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error passes through", handlers.Forbidden("nope"), http.StatusForbidden, handlers.ErrCodeForbidden},
		{"not found", errors.NotFound("survey not found"), http.StatusNotFound, handlers.ErrCodeNotFound},
		{"validation", fields.Err(), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"invalid input", errors.InvalidInput("bad status"), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"conflict", services.ErrAlreadyResponded, http.StatusConflict, handlers.ErrCodeConflict},
		{"unauthorized", services.ErrInvalidCredentials, http.StatusUnauthorized, handlers.ErrCodeUnauthorized},
		{"forbidden", services.ErrNotEnoughXP, http.StatusForbidden, handlers.ErrCodeForbidden},
		{"internal kind", errors.Internal(fmt.Errorf("disk")), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"wrapped app error", fmt.Errorf("claim: %w", services.ErrAlreadyClaimed), http.StatusConflict, handlers.ErrCodeConflict},
		{"plain error", fmt.Errorf("unexpected"), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := handlers.ToAPIError(logger.Discard(), tt.err)
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, apiErr.Code)
			}
		})
	}
}

func TestToAPIError_ValidationKeepsFields(t *testing.T) {
	fields := errors.FieldErrors{}
	fields.Add("options", "needs at least 2 options")

	apiErr := handlers.ToAPIError(logger.Discard(), fields.Err())
	if got := apiErr.Fields["options"]; len(got) != 1 {
		t.Errorf("expected options field error, got %v", apiErr.Fields)
	}
}

func TestToAPIError_ConfirmationRequired(t *testing.T) {
	prompt := builder.Prompt{
		Action:     builder.ActionDelete,
		Question:   builder.Dependent{UUID: "a", SequenceNumber: 1},
		Dependents: []builder.Dependent{{UUID: "b", SequenceNumber: 2}},
	}
	apiErr := handlers.ToAPIError(logger.Discard(), &services.ConfirmationRequiredError{Prompt: prompt})

	if apiErr.Status != http.StatusConflict || apiErr.Code != handlers.ErrCodeConfirmationRequired {
		t.Fatalf("expected 409 CONFIRMATION_REQUIRED, got %d %s", apiErr.Status, apiErr.Code)
	}
	if apiErr.Prompt == nil || apiErr.Prompt.Dependents[0].UUID != "b" {
		t.Errorf("expected prompt to be carried, got %+v", apiErr.Prompt)
	}
	if apiErr.Message != prompt.Message() {
		t.Errorf("expected message %q, got %q", prompt.Message(), apiErr.Message)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	ts := newTestSetup(t)

	// Empty body
	rec := ts.do(t, http.MethodPost, "/api/ideas", ts.userToken, nil)
	expect(t, rec, http.StatusBadRequest)
	if got := decode[apiError](t, rec); got.Error != "Request body is empty" {
		t.Errorf("unexpected message %q", got.Error)
	}

	// Malformed body
	rec = ts.do(t, http.MethodPost, "/api/ideas", ts.userToken, "not an object")
	expect(t, rec, http.StatusBadRequest)
	if got := decode[apiError](t, rec); got.Code != handlers.ErrCodeBadRequest {
		t.Errorf("expected BAD_REQUEST, got %s", got.Code)
	}
}

func TestParseIntParam_Invalid(t *testing.T) {
	ts := newTestSetup(t)

	rec := ts.do(t, http.MethodGet, "/api/surveys/abc", ts.adminToken, nil)
	expect(t, rec, http.StatusBadRequest)
	if got := decode[apiError](t, rec); got.Error != "Invalid id parameter" {
		t.Errorf("unexpected message %q", got.Error)
	}
}
