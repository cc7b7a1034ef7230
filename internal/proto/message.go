package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	// ProtocolVersion is stated by clients as the v query parameter on the
	// /ws handshake; the server refuses any other version.
	ProtocolVersion = 1

	InboundTypeSend    = "send"
	InboundTypeHistory = "history"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNamePresence = "presence"
	EventNameMessage  = "message"
	EventNameHistory  = "history"

	UnitText  = "text"
	UnitImage = "image"
)

// SendData carries one delivery unit from the client. Exactly one of Text or
// Image must be set; a submission carrying both is split by the client before
// it reaches the wire.
type SendData struct {
	To    string `json:"to"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// HistoryData requests stored conversation history with one peer.
type HistoryData struct {
	With string `json:"with"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventPresence carries the full online user id set, sorted.
type EventPresence struct {
	Users []string `json:"users"`
}

// EventMessage is one delivered unit: text or image, never both.
type EventMessage struct {
	ID   int64  `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
	Body string `json:"body"`
	TS   int64  `json:"ts"`
}

// EventHistory delivers the stored sequence with one peer, oldest first.
type EventHistory struct {
	With     string         `json:"with"`
	Messages []EventMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
