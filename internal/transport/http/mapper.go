package http

import (
	"github.com/vovakirdan/pulsechat-server/internal/chat"
)

// displayTimeFormat is how message times are rendered on the wire.
const displayTimeFormat = "15:04:05"

// ParticipantResponse represents a participant in API responses.
type ParticipantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func toParticipantResponse(p chat.Participant) ParticipantResponse {
	return ParticipantResponse{
		Name:       p.Name,
		LastStatus: p.LastActivity.UnixMilli(),
	}
}

func toMessageResponse(m chat.Message) MessageResponse {
	return MessageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To.String(),
		Text: m.Text,
		Type: string(m.Kind),
		Time: m.SentAt.Format(displayTimeFormat),
	}
}

func toMessageResponses(msgs []chat.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}
