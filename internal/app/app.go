package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/chat"
	"github.com/vovakirdan/pulsechat-server/internal/config"
	"github.com/vovakirdan/pulsechat-server/internal/feed"
	"github.com/vovakirdan/pulsechat-server/internal/presence"
	"github.com/vovakirdan/pulsechat-server/internal/store"
	"github.com/vovakirdan/pulsechat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/pulsechat-server/internal/transport/http"
)

// App wires together store, chat service, sweeper, feed and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *feed.Hub
	sweeper         *presence.Sweeper
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	hub := feed.NewHub()
	svc := chat.NewService(st, hub, logger)
	sweeper := presence.New(st, svc, logger, cfg.SweepInterval, cfg.IdleThreshold)
	server := transporthttp.NewServer(svc, hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		sweeper:         sweeper,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the feed, the sweeper and the HTTP server, and blocks
// until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)
	go a.sweeper.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
