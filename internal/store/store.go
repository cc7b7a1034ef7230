package store

import (
	"context"
	"time"
)

// UnitKind distinguishes the two payload shapes a message can carry.
type UnitKind string

const (
	UnitKindText  UnitKind = "text"
	UnitKindImage UnitKind = "image"
)

// Message is one persisted delivery unit between two users.
// Body holds the text for text units and the image payload reference
// (data URL or upload handle) for image units.
type Message struct {
	ID        int64
	FromID    string
	ToID      string
	Kind      UnitKind
	Body      string
	CreatedAt time.Time
}

// MessageLog persists the ordered conversation history between user pairs.
type MessageLog interface {
	// AppendMessage stores a message and returns it with ID and CreatedAt set.
	AppendMessage(ctx context.Context, msg Message) (*Message, error)
	// ListConversation returns messages exchanged between userA and userB
	// in creation order, up to limit (0 means no limit).
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]Message, error)
}

// Store is the full persistence interface the application wires up.
type Store interface {
	MessageLog
	Close() error
}
