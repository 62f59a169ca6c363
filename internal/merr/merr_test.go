package merr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{InfrastructureUnavailable, http.StatusServiceUnavailable},
		{UserAlreadyRegistered, http.StatusConflict},
		{TokenInvalidOrExpired, http.StatusUnauthorized},
		{UserNotFound, http.StatusNotFound},
		{NotificationDispatchFailed, http.StatusBadGateway},
		{InsufficientPrivileges, http.StatusForbidden},
		{ForbiddenCreate, http.StatusForbidden},
		{PreconditionOnState, http.StatusConflict},
		{TotpInvalid, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(New(tt.kind, "x")), string(tt.kind))
	}
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(UserNotFound, "user lookup failed", cause)

	assert.True(t, Is(err, UserNotFound))
	assert.False(t, Is(err, InsufficientPrivileges))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "MYC00009")
	assert.Contains(t, err.Error(), "row not found")

	// Wrapping through fmt keeps the kind reachable.
	outer := fmt.Errorf("handler: %w", err)
	assert.True(t, Is(outer, UserNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(outer))
}
