package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"qualidoc/internal/domain"
)

func TestHandleError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "not found",
			err:        &domain.NotFoundError{Message: "document doc-1 not found"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "validation",
			err:        &domain.ValidationError{Message: "validation failed", Fields: map[string]string{"code": "required"}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "conflict",
			err:        &domain.ConflictError{Message: "already returned", ResourceType: "distribution", ResourceID: "dist-1"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "forbidden",
			err:        &domain.ForbiddenError{Message: "denied"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "storage hides detail",
			err:        &domain.StorageError{Message: "failed to store revision file", Cause: errors.New("disk full")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("content-type = %q, want problem+json", ct)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response not JSON: %v", err)
			}
			if int(body["status"].(float64)) != tt.wantStatus {
				t.Errorf("body status = %v, want %d", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestHandleErrorValidationFields(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handleError(rec, logger, &domain.ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{"user_id": "cannot be blank"},
	})

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}

	fields, ok := body["errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("errors field missing: %v", body)
	}
	if fields["user_id"] != "cannot be blank" {
		t.Errorf("errors.user_id = %v, want field message", fields["user_id"])
	}
}

func TestHandleErrorInternalHidesCause(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handleError(rec, logger, &domain.StorageError{
		Message: "failed to store revision file",
		Cause:   errors.New("open /var/uploads: permission denied"),
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if detail, _ := body["detail"].(string); detail != "internal server error" {
		t.Errorf("detail = %q, internal paths must not leak", detail)
	}
}
