package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is the rendered email content of a MessageSendingEvent.
type Message struct {
	From    string
	To      string
	CC      []string
	Subject string
	Body    string
}

// MessageSendingEventStatus is the lifecycle state of one email outbox row.
type MessageSendingEventStatus string

const (
	MessagePending MessageSendingEventStatus = "pending"
	MessageSent    MessageSendingEventStatus = "sent"
	MessageFailed  MessageSendingEventStatus = "failed"
)

// MessageSendingEvent is one persisted outbox row for an email.
type MessageSendingEvent struct {
	ID        uuid.UUID
	Message   Message
	Status    MessageSendingEventStatus
	Attempts  int
	Attempted time.Time
	Error     string
	CreatedAt time.Time
}
