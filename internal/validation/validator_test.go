package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flowdeckapp/flowdeck-server/internal/errors"
	"github.com/flowdeckapp/flowdeck-server/internal/validation"
)

type createBoardRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	OwnerEmail  string `json:"owner_email" validate:"omitempty,email"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := createBoardRequest{
		Title:      "Sprint 42",
		OwnerEmail: "ada@example.com",
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name       string
		req        createBoardRequest
		wantErrMsg string
	}{
		{
			name:       "missing required field",
			req:        createBoardRequest{Title: ""},
			wantErrMsg: "title",
		},
		{
			name: "invalid email",
			req: createBoardRequest{
				Title:      "Sprint 42",
				OwnerEmail: "not-an-email",
			},
			wantErrMsg: "owner_email",
		},
		{
			name: "title too long",
			req: createBoardRequest{
				Title: string(make([]byte, 201)),
			},
			wantErrMsg: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var appErr *apperrors.Error
			require.True(t, apperrors.As(err, &appErr))
			assert.Equal(t, apperrors.CodeValidation, appErr.Code)

			details, ok := appErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantErrMsg)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(createBoardRequest{Title: ""})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.True(t, apperrors.As(err, &appErr))
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)

	// Should use the JSON tag name "title", not the struct field name "Title".
	assert.Contains(t, details, "title")
	assert.NotContains(t, details, "Title")
}
