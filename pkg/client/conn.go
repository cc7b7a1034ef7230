package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/driftchat/driftchat-server/internal/proto"
)

// Conn is one live bidirectional channel to the server. It owns a single
// read loop that fans events out to the registered handlers.
type Conn struct {
	conn     *websocket.Conn
	handlers Handlers
	log      *zerolog.Logger
	healthy  atomic.Bool
	cancel   context.CancelFunc
}

// outboundEnvelope mirrors the server's outbound frame with raw event data.
type outboundEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// Dial opens the realtime channel on baseURL, authenticating with token, and
// starts the read loop. The returned connection stays healthy until the
// transport reports otherwise.
func Dial(ctx context.Context, baseURL, token string, handlers Handlers, logger *zerolog.Logger) (*Conn, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	target := baseURL + sep + "v=" + strconv.Itoa(proto.ProtocolVersion)
	if token != "" {
		target += "&token=" + url.QueryEscape(token)
	}

	wsConn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", baseURL, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		conn:     wsConn,
		handlers: handlers,
		log:      logger,
		cancel:   cancel,
	}
	c.healthy.Store(true)
	go c.readLoop(readCtx)

	return c, nil
}

// Healthy reports whether the underlying transport is still connected.
func (c *Conn) Healthy() bool {
	return c.healthy.Load()
}

// Close shuts down the channel and stops the read loop.
func (c *Conn) Close() error {
	c.healthy.Store(false)
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "closing")
}

// SendUnit sends one delivery unit carrying exactly one payload kind and
// waits for the transport write to complete.
func (c *Conn) SendUnit(ctx context.Context, to string, kind UnitKind, body string) error {
	data := proto.SendData{To: to}
	switch kind {
	case UnitText:
		data.Text = body
	case UnitImage:
		data.Image = body
	default:
		return fmt.Errorf("unknown unit kind %q", kind)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal send data: %w", err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Type: proto.InboundTypeSend, Data: raw}); err != nil {
		return fmt.Errorf("send %s unit: %w", kind, err)
	}
	return nil
}

// RequestHistory asks the server for the stored conversation with a peer.
// The result arrives through Handlers.OnHistory.
func (c *Conn) RequestHistory(ctx context.Context, with string) error {
	raw, err := json.Marshal(proto.HistoryData{With: with})
	if err != nil {
		return fmt.Errorf("marshal history data: %w", err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Type: proto.InboundTypeHistory, Data: raw}); err != nil {
		return fmt.Errorf("request history: %w", err)
	}
	return nil
}

func (c *Conn) readLoop(ctx context.Context) {
	var closeErr error
	for {
		var frame outboundEnvelope
		if err := wsjson.Read(ctx, c.conn, &frame); err != nil {
			closeErr = err
			break
		}
		c.dispatchFrame(frame)
	}

	c.healthy.Store(false)
	if c.handlers.OnClosed != nil {
		c.handlers.OnClosed(closeErr)
	}
}

func (c *Conn) dispatchFrame(frame outboundEnvelope) {
	switch frame.Type {
	case proto.OutboundTypeError:
		if frame.Error != nil && c.handlers.OnError != nil {
			c.handlers.OnError(frame.Error.Code, frame.Error.Msg)
		}
	case proto.OutboundTypeEvent:
		c.dispatchEvent(frame)
	default:
		c.log.Warn().Str("type", frame.Type).Msg("unknown frame type")
	}
}

func (c *Conn) dispatchEvent(frame outboundEnvelope) {
	switch frame.Event {
	case proto.EventNamePresence:
		var presence proto.EventPresence
		if err := json.Unmarshal(frame.Data, &presence); err != nil {
			c.log.Warn().Err(err).Msg("unmarshal presence event")
			return
		}
		if c.handlers.OnPresence != nil {
			c.handlers.OnPresence(presence.Users)
		}
	case proto.EventNameMessage:
		var msg proto.EventMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.log.Warn().Err(err).Msg("unmarshal message event")
			return
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(messageFromProto(msg))
		}
	case proto.EventNameHistory:
		var hist proto.EventHistory
		if err := json.Unmarshal(frame.Data, &hist); err != nil {
			c.log.Warn().Err(err).Msg("unmarshal history event")
			return
		}
		if c.handlers.OnHistory != nil {
			msgs := make([]Message, 0, len(hist.Messages))
			for _, m := range hist.Messages {
				msgs = append(msgs, messageFromProto(m))
			}
			c.handlers.OnHistory(hist.With, msgs)
		}
	default:
		c.log.Warn().Str("event", frame.Event).Msg("unknown event")
	}
}

func messageFromProto(m proto.EventMessage) Message {
	return Message{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Kind: UnitKind(m.Kind),
		Body: m.Body,
		TS:   m.TS,
	}
}
