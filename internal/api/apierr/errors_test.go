package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/auth"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", model.NewValidationError("size", "must be at least 1"), http.StatusBadRequest, CodeValidationFailed},
		{"wrapped validation", fmt.Errorf("resize: %w", model.NewValidationError("size", "bad")), http.StatusBadRequest, CodeValidationFailed},
		{"permission", model.ErrPermissionDenied, http.StatusForbidden, CodeAdminRequired},
		{"corrupt board", fmt.Errorf("load: %w", model.ErrCorruptBoard), http.StatusUnprocessableEntity, CodeCorruptBoard},
		{"no undo", model.ErrNoUndoSnapshot, http.StatusConflict, CodeNoUndoSnapshot},
		{"drop not found", model.ErrDropNotFound, http.StatusNotFound, CodeDropNotFound},
		{"rank not found", model.ErrRankNotFound, http.StatusNotFound, CodeRankNotFound},
		{"bad password", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"bad session", auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
		{"api key", NewInvalidAPIKeyError(), http.StatusUnauthorized, CodeInvalidAPIKey},
		{"rate limited", NewRateLimitedError(), http.StatusTooManyRequests, CodeRateLimited},
		{"invalid request", NewInvalidRequestError("bad json"), http.StatusBadRequest, CodeInvalidRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.NewValidationError("player", "is required"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "player", resp.Error.Field)
	assert.Contains(t, resp.Error.Message, "player")
}

func TestInternalErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("redis: connection refused"))

	assert.NotContains(t, rec.Body.String(), "redis")
}
