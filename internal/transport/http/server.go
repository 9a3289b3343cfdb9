package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/chat"
	"github.com/vovakirdan/pulsechat-server/internal/config"
	"github.com/vovakirdan/pulsechat-server/internal/feed"
)

// NewServer builds the HTTP server with all chat routes.
func NewServer(svc *chat.Service, hub *feed.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)

	participants := NewParticipantHandlers(svc, logger)
	router.POST("/participants", participants.Register)
	router.GET("/participants", participants.List)
	router.DELETE("/participants/:name", participants.Leave)
	router.POST("/status", participants.Heartbeat)

	messages := NewMessageHandlers(svc, logger)
	withUser := RequireUser()
	router.POST("/messages", withUser, messages.Post)
	router.GET("/messages", withUser, messages.List)
	router.PUT("/messages/:id", withUser, messages.Update)
	router.DELETE("/messages/:id", withUser, messages.Delete)

	router.GET("/ws", gin.WrapH(NewFeedHandler(hub, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
