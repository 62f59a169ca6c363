package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebHookTrigger tags the event class a WebHook subscribes to. Modeled as a
// flat string enum (not a nested sum type) since the pairs it enumerates
// (verb x object) are fixed and small.
type WebHookTrigger string

const (
	TriggerCreateSubscriptionAccount WebHookTrigger = "create_subscription_account"
	TriggerUpdateSubscriptionAccount WebHookTrigger = "update_subscription_account"
	TriggerDeleteSubscriptionAccount WebHookTrigger = "delete_subscription_account"
	TriggerCreateUserAccount         WebHookTrigger = "create_user_account"
	TriggerUpdateUserAccount         WebHookTrigger = "update_user_account"
	TriggerDeleteUserAccount         WebHookTrigger = "delete_user_account"
	TriggerInviteGuestAccount        WebHookTrigger = "invite_guest_account"
	TriggerUninviteGuestAccount      WebHookTrigger = "uninvite_guest_account"
)

// WebHook is a tenant-registered subscriber for one or more triggers.
// INV: Secret is redacted on every outward projection — see Redacted().
type WebHook struct {
	ID          uuid.UUID
	Name        string
	Description string
	URL         string
	Trigger     WebHookTrigger
	IsActive    bool
	Secret      string // encrypted at rest; never serialized directly
	CreatedAt   time.Time
	UpdatedAt   time.Time
	WrittenBy   uuid.UUID
}

// Redacted returns a copy of w with Secret cleared, safe to serialize in any
// outward-facing projection (API response, audit log, webhook listing).
func (w WebHook) Redacted() WebHook {
	w.Secret = ""
	return w
}

// WebhookDispatchEventStatus is the lifecycle state of one outbox row.
type WebhookDispatchEventStatus string

const (
	DispatchPending WebhookDispatchEventStatus = "pending"
	DispatchSent    WebhookDispatchEventStatus = "sent"
	DispatchFailed  WebhookDispatchEventStatus = "failed"
)

// WebhookDispatchEvent is one persisted outbox row for a webhook delivery
//. CorrespondenceID is the idempotency key consumers dedupe by;
// PayloadID identifies the business row the event is about (e.g. account id).
type WebhookDispatchEvent struct {
	ID               uuid.UUID
	CorrespondenceID uuid.UUID
	Trigger          WebHookTrigger
	Payload          []byte // JSON
	PayloadID        uuid.UUID
	Status           WebhookDispatchEventStatus
	Attempts         int
	Attempted        time.Time
	Error            string
	CreatedAt        time.Time
}
