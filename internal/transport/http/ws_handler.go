package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/feed"
)

// FeedHandler upgrades HTTP connections and streams live message
// events. The connection is outbound-only: posting still happens over
// the REST surface.
type FeedHandler struct {
	hub *feed.Hub
	log *zerolog.Logger
}

// NewFeedHandler builds a new live feed handler.
func NewFeedHandler(hub *feed.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &FeedHandler{hub: hub, log: logger}
}

// FeedEvent is the wire shape of a streamed message.
type FeedEvent struct {
	Event   string          `json:"event"`
	Message MessageResponse `json:"message"`
}

func (h *FeedHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	user := r.URL.Query().Get(HeaderUser)
	if user == "" {
		stdhttp.Error(w, "user query parameter is required", stdhttp.StatusUnprocessableEntity)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := feed.NewClient(uuid.NewString(), user)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop drains the connection so close frames are processed. The
// feed accepts no client input.
func (h *FeedHandler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return err
		}
	}
}

func (h *FeedHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *feed.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out := FeedEvent{
				Event:   "message",
				Message: toMessageResponse(event.Message),
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
