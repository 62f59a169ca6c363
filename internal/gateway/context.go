// Package gateway implements the per-request pipeline: resolve the route,
// enforce its SecurityGroup, inject identity headers, and stream the
// request to its downstream service, matching against the dynamic
// Service/Route registry internal/registry holds.
package gateway

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a collision-safe context key type.
type contextKey string

const requestIDKey contextKey = "mycelium_request_id"

// withRequestID attaches a request id to ctx for downstream logging and the
// x-mycelium-request-id header.
func withRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom extracts the id set by the gateway, generating a fresh one
// if absent.
func RequestIDFrom(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(requestIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.New()
}
