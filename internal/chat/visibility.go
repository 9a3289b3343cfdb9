package chat

// Visible reports whether requester is entitled to see m: messages
// addressed to them, messages they authored, and broadcasts.
func Visible(m Message, requester string) bool {
	if m.To.IsBroadcast() {
		return true
	}
	return m.To.Name() == requester || m.From == requester
}

// VisibleTo filters msgs down to those visible to requester,
// preserving order. The input is expected to already be the window the
// caller wants projected: with a limit, the last N messages of the
// full log are windowed first and filtered second, never the other
// way around.
func VisibleTo(msgs []Message, requester string) []Message {
	visible := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if Visible(m, requester) {
			visible = append(visible, m)
		}
	}
	return visible
}
