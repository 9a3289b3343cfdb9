package chat

import "time"

// MessageKind classifies a message.
type MessageKind string

const (
	// KindMessage is a regular broadcast chat message.
	KindMessage MessageKind = "message"
	// KindPrivate is a message addressed to a single participant.
	KindPrivate MessageKind = "private-message"
	// KindStatus is a system-generated join/leave notice.
	KindStatus MessageKind = "status"
)

// PostableKind reports whether participants may post messages of this
// kind. Status notices are produced only by the system.
func PostableKind(k MessageKind) bool {
	return k == KindMessage || k == KindPrivate
}

// Message is the domain model for a chat message.
type Message struct {
	// Seq is the permanent chronological position in the log. It is
	// assigned by the store at append time and never changes, even
	// when the message content is updated.
	Seq int64
	// ID is the stable public identifier used for update and delete.
	ID     string
	From   string
	To     Recipient
	Text   string
	Kind   MessageKind
	SentAt time.Time
}

// Participant is a registered chat identity with a liveness clock.
type Participant struct {
	Name         string
	LastActivity time.Time
}
