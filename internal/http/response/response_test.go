package response

import (
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flowdeckapp/flowdeck-server/internal/errors"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"id": "board-1"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Empty(t, envelope.Error)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "title is required", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "title is required", envelope.Error)
}

func TestHandleError_MapsAppErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{apperrors.NotFound("board not found"), http.StatusNotFound},
		{apperrors.Conflict("timer already running"), http.StatusConflict},
		{apperrors.Validation("bad input"), http.StatusBadRequest},
		{apperrors.Forbidden("not a member"), http.StatusForbidden},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		HandleError(rec, tt.err, nil)
		assert.Equal(t, tt.wantStatus, rec.Code)
	}
}
