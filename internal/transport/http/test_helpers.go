package http

import (
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/chat"
	"github.com/vovakirdan/pulsechat-server/internal/config"
	"github.com/vovakirdan/pulsechat-server/internal/feed"
	"github.com/vovakirdan/pulsechat-server/internal/store/sqlite"
)

// createTestServer builds a server on an in-memory store. The feed hub
// is created but not run; tests exercising live delivery start it
// themselves.
func createTestServer(t *testing.T) (*stdhttp.Server, *chat.Service, *feed.Hub) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	disabledLogger := zerolog.New(nil)
	hub := feed.NewHub()
	svc := chat.NewService(st, hub, &disabledLogger)

	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}

	return NewServer(svc, hub, &cfg, &disabledLogger), svc, hub
}
