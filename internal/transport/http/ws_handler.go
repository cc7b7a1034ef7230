package http

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/driftchat/driftchat-server/internal/core"
	"github.com/driftchat/driftchat-server/internal/proto"
)

// StatusSuperseded tells a client its session was replaced by a newer
// connection for the same user, so it must not reconnect automatically.
const StatusSuperseded = websocket.StatusCode(4409)

var errSuperseded = errors.New("connection superseded")

// WSHandler upgrades HTTP connections and bridges them to core.Client handles.
type WSHandler struct {
	hub       *core.Hub
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, rateLimit int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, rateLimit: rateLimit, log: logger}
}

// Handle is the gin endpoint for /ws. AuthMiddleware runs first and stores
// the authenticated user id in the request context.
func (h *WSHandler) Handle(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)
	if userID == "" {
		c.AbortWithStatusJSON(401, ErrorResponse{Error: "unauthenticated"})
		return
	}

	if v := c.Query("v"); v != strconv.Itoa(proto.ProtocolVersion) {
		h.log.Warn().Str("user_id", userID).Str("requested", v).Msg("protocol version mismatch")
		c.AbortWithStatusJSON(400, ErrorResponse{Error: "unsupported protocol version"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(userID, uuid.NewString())
	if err := h.hub.Admit(client); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("admit client")
		conn.Close(websocket.StatusInternalError, "registry unavailable")
		return
	}
	// Guarded by conn id: if this handle was superseded, the remove is a no-op
	// and the newer registration stays untouched.
	defer h.hub.Remove(userID, client.ConnID)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	if errors.Is(err, errSuperseded) {
		conn.Close(StatusSuperseded, "superseded")
		return
	}

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
			h.log.Warn().Err(err).Str("user_id", userID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.rateLimit)
	defer limiter.stop()

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "rate_limited", Msg: "too many messages"},
			}); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("user_id", client.UserID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return h.closeErr(client)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if event == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("user_id", client.UserID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return h.closeErr(client)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) closeErr(client *core.Client) error {
	if client.Reason() == core.CloseSuperseded {
		return errSuperseded
	}
	return nil
}
