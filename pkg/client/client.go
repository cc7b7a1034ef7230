// Package client is the Go SDK for the driftchat realtime channel: it binds
// an authenticated identity to exactly one live connection, splits chat
// submissions into ordered delivery units, and derives chat-view scroll state.
package client

import "github.com/driftchat/driftchat-server/internal/proto"

// UnitKind distinguishes the two payload shapes a delivery unit can carry.
type UnitKind string

const (
	UnitText  UnitKind = proto.UnitText
	UnitImage UnitKind = proto.UnitImage
)

// Message is one delivered unit as seen by the client.
type Message struct {
	ID   int64
	From string
	To   string
	Kind UnitKind
	Body string
	TS   int64
}

// Handlers receive pushed events from the realtime channel.
// Nil callbacks are skipped.
type Handlers struct {
	OnPresence func(users []string)
	OnMessage  func(msg Message)
	OnHistory  func(with string, msgs []Message)
	OnError    func(code, msg string)
	OnClosed   func(err error)
}
