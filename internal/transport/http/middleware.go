package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// HeaderUser carries the requester's claimed display name.
	HeaderUser = "user"
	// ContextKeyUser is the gin context key for the requester name.
	ContextKeyUser = "user"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequireUser rejects requests that carry no identity header. Message
// visibility is undefined without a known requester.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader(HeaderUser)
		if user == "" {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "user header is required"})
			c.Abort()
			return
		}
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// requester returns the identity stored by RequireUser.
func requester(c *gin.Context) string {
	return c.GetString(ContextKeyUser)
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
