package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/driftchat/driftchat-server/internal/auth"
	"github.com/driftchat/driftchat-server/internal/config"
	"github.com/driftchat/driftchat-server/internal/core"
)

// NewServer builds the HTTP server exposing the realtime channel.
func NewServer(hub *core.Hub, jwtCfg *auth.JWTConfig, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/healthz", healthHandler)

	ws := NewWSHandler(hub, cfg.MessageRateLimit, logger)
	router.GET("/ws", AuthMiddleware(jwtCfg, logger), ws.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
