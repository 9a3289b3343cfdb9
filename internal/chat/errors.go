package chat

import "errors"

var (
	// ErrInvalid reports malformed or missing input. It is detected
	// before any store call is made.
	ErrInvalid = errors.New("invalid input")
	// ErrConflict reports a display name that is already registered.
	ErrConflict = errors.New("name already taken")
	// ErrNotFound reports a referenced participant or message that
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden reports an update or delete attempted by someone
	// other than the message author.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized reports a message posted under a name that is
	// not currently registered.
	ErrUnauthorized = errors.New("sender not active")
	// ErrStoreUnavailable reports an underlying store fault. The full
	// fault detail is logged, never returned to callers.
	ErrStoreUnavailable = errors.New("store unavailable")
)
