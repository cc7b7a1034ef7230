package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/driftchat/driftchat-server/internal/auth"
)

const (
	// ContextKeyUserID is the context key for the authenticated user id.
	ContextKeyUserID = "user_id"
	// ContextKeyUsername is the context key for the authenticated username.
	ContextKeyUsername = "username"
)

// ErrorResponse is the JSON error body for rejected HTTP requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthMiddleware validates the connection-bootstrap token. Browsers cannot set
// headers on a WebSocket dial, so the token is accepted from the "token" query
// parameter as well as the Authorization header.
func AuthMiddleware(jwtCfg *auth.JWTConfig, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			logger.Debug().Msg("missing bootstrap token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing token"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(jwtCfg, token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid bootstrap token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)

		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests after they complete.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
