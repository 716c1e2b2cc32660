package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorStatusCodes(t *testing.T) {
	cases := map[*APIError]int{
		NewValidationError("bad"):        http.StatusBadRequest,
		NewUnauthorizedError("who"):      http.StatusUnauthorized,
		NewForbiddenError("nope"):        http.StatusForbidden,
		NewNotFoundError("missing"):      http.StatusNotFound,
		NewConflictError("taken"):        http.StatusConflict,
		{Kind: ErrorKind(99), Message: ""}: http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.StatusCode(), err.Message)
	}
}

func TestIsKindSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create reservation: %w", NewConflictError("Ticket is not available for reservation"))
	assert.True(t, IsKind(err, ErrConflict))
	assert.False(t, IsKind(err, ErrNotFound))
	assert.False(t, IsKind(errors.New("plain"), ErrConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewConflictError("Payment failed. Please try again.").Wrap(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Payment failed. Please try again.: connection reset", err.Error())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("customer")
	assert.True(t, ok)
	assert.Equal(t, ROLE_CUSTOMER, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}
