package chat

import "strings"

// BroadcastToken is the wire-level destination meaning "visible to all
// participants". It is reserved: no participant may register it as a
// display name.
const BroadcastToken = "everyone"

// Recipient is a message destination: either a specific participant or
// the broadcast audience. The zero value is an empty direct recipient,
// which never matches anything.
type Recipient struct {
	name      string
	broadcast bool
}

// Everyone returns the broadcast recipient.
func Everyone() Recipient {
	return Recipient{broadcast: true}
}

// Direct returns a recipient addressing a single participant.
func Direct(name string) Recipient {
	return Recipient{name: name}
}

// ParseRecipient maps the wire token to a Recipient. The broadcast
// token is matched case-insensitively so "Everyone" cannot slip
// through as a direct name.
func ParseRecipient(raw string) Recipient {
	if strings.EqualFold(raw, BroadcastToken) {
		return Everyone()
	}
	return Direct(raw)
}

// IsBroadcast reports whether the recipient is the broadcast audience.
func (r Recipient) IsBroadcast() bool {
	return r.broadcast
}

// Name returns the addressed participant name, or "" for broadcast.
func (r Recipient) Name() string {
	if r.broadcast {
		return ""
	}
	return r.name
}

// String returns the wire token for the recipient.
func (r Recipient) String() string {
	if r.broadcast {
		return BroadcastToken
	}
	return r.name
}

// IsReservedName reports whether name collides with the broadcast
// token and therefore cannot be registered.
func IsReservedName(name string) bool {
	return strings.EqualFold(name, BroadcastToken)
}
