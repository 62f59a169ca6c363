// Package audit records an append-only trail of authorization-state
// mutations: who changed what, keyed by the acting account. It writes a
// structured log stream rather than business rows — persisted side-effects
// already flow through the outbox, so the audit trail is an observability
// concern.
package audit

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// EventType is the category of one audit entry.
type EventType string

const (
	EventTenantCreated          EventType = "TENANT_CREATED"
	EventTenantStatusChanged    EventType = "TENANT_STATUS_CHANGED"
	EventAccountCreated         EventType = "ACCOUNT_CREATED"
	EventAccountDeleted         EventType = "ACCOUNT_DELETED"
	EventAccountStatusChanged   EventType = "ACCOUNT_STATUS_CHANGED"
	EventGuestInvited           EventType = "GUEST_INVITED"
	EventGuestUninvited         EventType = "GUEST_UNINVITED"
	EventRoleChildInserted      EventType = "ROLE_CHILD_INSERTED"
	EventConnectionStringIssued EventType = "CONNECTION_STRING_ISSUED"
	EventWebhookRegistered      EventType = "WEBHOOK_REGISTERED"
	EventPasswordReset          EventType = "PASSWORD_RESET"
	EventTotpActivated          EventType = "TOTP_ACTIVATED"
)

// Logger is the narrow contract mutating use-cases record through.
type Logger interface {
	Log(ctx context.Context, actorID uuid.UUID, action EventType, resource string, metadata map[string]string)
}

// JSONLogger writes audit entries as structured JSON to stdout with a
// log_type marker log aggregators can route to a separate index.
type JSONLogger struct {
	logger *slog.Logger
}

// NewJSONLogger builds a logger with its own handler so audit output keeps a
// stable shape independent of the process-wide default logger.
func NewJSONLogger() *JSONLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &JSONLogger{logger: slog.New(handler)}
}

func (l *JSONLogger) Log(ctx context.Context, actorID uuid.UUID, action EventType, resource string, metadata map[string]string) {
	fields := []any{
		slog.String("log_type", "AUDIT_TRAIL"),
		slog.String("actor_id", actorID.String()),
		slog.String("action", string(action)),
		slog.String("resource", resource),
		slog.Time("timestamp_utc", time.Now().UTC()),
	}
	for k, v := range metadata {
		fields = append(fields, slog.String("meta_"+k, v))
	}
	l.logger.InfoContext(ctx, "audit_event", fields...)
}

// NopLogger discards every entry; the default in tests.
type NopLogger struct{}

func (NopLogger) Log(context.Context, uuid.UUID, EventType, string, map[string]string) {}
