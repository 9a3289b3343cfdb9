package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/chat"
)

// ParticipantHandlers provides HTTP handlers for the presence registry.
type ParticipantHandlers struct {
	svc *chat.Service
	log *zerolog.Logger
}

// NewParticipantHandlers creates a new participant handlers instance.
func NewParticipantHandlers(svc *chat.Service, logger *zerolog.Logger) *ParticipantHandlers {
	return &ParticipantHandlers{
		svc: svc,
		log: logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
}

// Register handles participant registration.
// POST /participants
func (h *ParticipantHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "name is required"})
		return
	}

	participant, err := h.svc.Register(c.Request.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalid):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid name"})
		case errors.Is(err, chat.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "name already taken"})
		default:
			h.log.Error().Err(err).Str("name", req.Name).Msg("failed to register participant")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("participant", participant.Name).Msg("participant registered")
	c.JSON(http.StatusCreated, toParticipantResponse(*participant))
}

// List handles listing all registered participants.
// GET /participants
func (h *ParticipantHandlers) List(c *gin.Context) {
	participants, err := h.svc.Participants(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list participants")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		response = append(response, toParticipantResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

// Leave handles an explicit departure.
// DELETE /participants/:name
func (h *ParticipantHandlers) Leave(c *gin.Context) {
	name := c.Param("name")

	if err := h.svc.Leave(c.Request.Context(), name); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "participant not found"})
			return
		}
		h.log.Error().Err(err).Str("participant", name).Msg("failed to remove participant")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("participant", name).Msg("participant left")
	c.Status(http.StatusOK)
}

// Heartbeat refreshes the requester's activity clock.
// POST /status
func (h *ParticipantHandlers) Heartbeat(c *gin.Context) {
	// A missing identity is indistinguishable from an unknown one
	// here: the client must (re-)register either way.
	name := c.GetHeader(HeaderUser)

	if err := h.svc.Heartbeat(c.Request.Context(), name); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("participant", name).Msg("failed to record heartbeat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusOK)
}
