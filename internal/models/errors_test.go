package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", NewValidationError("text is required"), http.StatusBadRequest},
		{"authentication", NewAuthenticationError("no identity"), http.StatusUnauthorized},
		{"authorization", NewAuthorizationError("not the author"), http.StatusForbidden},
		{"not found", NewNotFoundError("post", 7), http.StatusNotFound},
		{"unknown recipient", NewUnknownRecipientError(3), http.StatusUnprocessableEntity},
		{"orphan", NewOrphanCommentError(4, 9), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("create comment: %w", NewNotFoundError("comment", 2)), http.StatusNotFound},
		{"plain", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("toggle: %w", NewNotFoundError("post", 1))
	assert.True(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(err, ErrValidation))
	assert.False(t, IsCode(errors.New("boom"), ErrNotFound))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: disk full", err.Error())
	assert.Equal(t, "post with ID 5 not found", NewNotFoundError("post", 5).Error())
}
