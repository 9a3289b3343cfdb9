package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/chat"
)

// MessageHandlers provides HTTP handlers for the message log.
type MessageHandlers struct {
	svc *chat.Service
	log *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(svc *chat.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		svc: svc,
		log: logger,
	}
}

// MessageRequest represents the post and update request body.
type MessageRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// Post handles posting a new message.
// POST /messages
func (h *MessageHandlers) Post(c *gin.Context) {
	from := requester(c)

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message request")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "to, text and type are required"})
		return
	}

	msg, err := h.svc.PostMessage(c.Request.Context(), from, req.To, req.Text, chat.MessageKind(req.Type))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalid):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid message"})
		case errors.Is(err, chat.ErrUnauthorized):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "sender is not registered"})
		default:
			h.log.Error().Err(err).Str("from", from).Msg("failed to post message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, toMessageResponse(*msg))
}

// List handles reading the requester's projection of the log.
// GET /messages?limit=N
func (h *MessageHandlers) List(c *gin.Context) {
	user := requester(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	msgs, err := h.svc.Messages(c.Request.Context(), user, limit)
	if err != nil {
		if errors.Is(err, chat.ErrInvalid) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "requester identity is required"})
			return
		}
		h.log.Error().Err(err).Str("user", user).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toMessageResponses(msgs))
}

// Update handles editing a message.
// PUT /messages/:id
func (h *MessageHandlers) Update(c *gin.Context) {
	user := requester(c)
	id := c.Param("id")

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update request")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "to, text and type are required"})
		return
	}

	msg, err := h.svc.UpdateMessage(c.Request.Context(), id, user, req.To, req.Text, chat.MessageKind(req.Type))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalid):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid message"})
		case errors.Is(err, chat.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		case errors.Is(err, chat.ErrForbidden):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "only the author can edit a message"})
		default:
			h.log.Error().Err(err).Str("message_id", id).Msg("failed to update message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toMessageResponse(*msg))
}

// Delete handles removing a message.
// DELETE /messages/:id
func (h *MessageHandlers) Delete(c *gin.Context) {
	user := requester(c)
	id := c.Param("id")

	if err := h.svc.DeleteMessage(c.Request.Context(), id, user); err != nil {
		switch {
		case errors.Is(err, chat.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		case errors.Is(err, chat.ErrForbidden):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "only the author can delete a message"})
		case errors.Is(err, chat.ErrInvalid):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid request"})
		default:
			h.log.Error().Err(err).Str("message_id", id).Msg("failed to delete message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.Status(http.StatusOK)
}
