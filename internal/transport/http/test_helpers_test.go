package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/driftchat/driftchat-server/internal/auth"
	"github.com/driftchat/driftchat-server/internal/config"
	"github.com/driftchat/driftchat-server/internal/core"
	"github.com/driftchat/driftchat-server/internal/proto"
)

// outboundFrame mirrors proto.Outbound with raw data for test-side decoding.
type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error,omitempty"`
}

func testJWTConfig() *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte("testsecret"),
		Issuer:   "driftchat",
		Audience: "driftchat-ws",
		TTL:      time.Hour,
	}
}

func startTestServer(t *testing.T) (*httptest.Server, *auth.JWTConfig) {
	t.Helper()

	hub := core.NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	jwtCfg := testJWTConfig()
	disabledLogger := zerolog.Nop()

	server := NewServer(hub, jwtCfg, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, jwtCfg
}

func wsBaseURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func dialAs(t *testing.T, ctx context.Context, ts *httptest.Server, jwtCfg *auth.JWTConfig, userID string) *websocket.Conn {
	t.Helper()

	token, err := auth.GenerateToken(jwtCfg, userID, userID)
	if err != nil {
		t.Fatalf("generate token for %s: %v", userID, err)
	}

	conn, _, err := websocket.Dial(ctx, wsBaseURL(ts)+"?v="+strconv.Itoa(proto.ProtocolVersion)+"&token="+token, nil)
	if err != nil {
		t.Fatalf("dial as %s: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	return conn
}

// waitPresence reads frames until a presence event carrying exactly want
// arrives. Earlier presence states and other events are skipped.
func waitPresence(t *testing.T, ctx context.Context, conn *websocket.Conn, want []string) {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for presence %v: %v", want, err)
		}
		if frame.Event != "presence" {
			continue
		}

		var presence struct {
			Users []string `json:"users"`
		}
		if err := json.Unmarshal(frame.Data, &presence); err != nil {
			t.Fatalf("unmarshal presence: %v", err)
		}
		if equalStrings(presence.Users, want) {
			return
		}
	}
}

// nextMessage reads frames until a message event arrives and decodes it.
func nextMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) (from, to, kind, body string) {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for message: %v", err)
		}
		if frame.Event != "message" {
			continue
		}

		var msg struct {
			From string `json:"from"`
			To   string `json:"to"`
			Kind string `json:"kind"`
			Body string `json:"body"`
		}
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
		return msg.From, msg.To, msg.Kind, msg.Body
	}
}

func sendUnit(t *testing.T, ctx context.Context, conn *websocket.Conn, to, text, image string) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"to": to, "text": text, "image": image})
	if err != nil {
		t.Fatalf("marshal send payload: %v", err)
	}
	if err := wsjson.Write(ctx, conn, map[string]any{"type": "send", "data": json.RawMessage(payload)}); err != nil {
		t.Fatalf("write send: %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
