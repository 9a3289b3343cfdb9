package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateName is returned by AddParticipant when the name is
// already registered. The sqlite implementation derives it from the
// table's UNIQUE constraint, so concurrent registrations of the same
// name are decided by the store, not by a read-then-write in Go.
var ErrDuplicateName = errors.New("duplicate participant name")

// Participant is a presence record.
type Participant struct {
	Name         string
	LastActivity time.Time
}

// Message is a persisted chat message. Seq is the append position and
// never changes; ID is the stable public identifier.
type Message struct {
	Seq       int64
	ID        string
	Sender    string
	Recipient string // addressed participant, "" when Broadcast
	Broadcast bool
	Body      string
	Kind      string
	SentAt    time.Time
}

// ParticipantStore handles presence persistence.
type ParticipantStore interface {
	// AddParticipant atomically inserts a participant. Returns
	// ErrDuplicateName if the name is already present.
	AddParticipant(ctx context.Context, name string, lastActivity time.Time) error

	// TouchParticipant refreshes a participant's activity clock.
	// Returns false if the participant is not registered.
	TouchParticipant(ctx context.Context, name string, now time.Time) (bool, error)

	// ListParticipants returns a snapshot of all registered participants.
	ListParticipants(ctx context.Context) ([]*Participant, error)

	// ParticipantExists reports whether name is currently registered.
	ParticipantExists(ctx context.Context, name string) (bool, error)

	// RemoveParticipant unconditionally removes a participant.
	// Returns false if the name was not registered.
	RemoveParticipant(ctx context.Context, name string) (bool, error)

	// RemoveParticipantIf removes a participant only if its activity
	// clock still equals observed. A heartbeat racing the removal
	// changes the clock and makes this a no-op returning false.
	RemoveParticipantIf(ctx context.Context, name string, observed time.Time) (bool, error)
}

// MessageStore handles message log persistence.
type MessageStore interface {
	// AppendMessage inserts msg at the end of the log and fills in
	// msg.Seq.
	AppendMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by its public ID. Returns
	// (nil, nil) when absent.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// ListMessages returns the full log in append order.
	ListMessages(ctx context.Context) ([]*Message, error)

	// ListLastMessages returns the chronologically last limit
	// messages of the full log, in append order.
	ListLastMessages(ctx context.Context, limit int) ([]*Message, error)

	// UpdateMessage rewrites recipient, body, kind and sent time of
	// the message identified by msg.ID, keeping its append position.
	// Returns false if no such message exists.
	UpdateMessage(ctx context.Context, msg *Message) (bool, error)

	// DeleteMessage removes a message by its public ID. Returns false
	// if no such message exists.
	DeleteMessage(ctx context.Context, id string) (bool, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	ParticipantStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
