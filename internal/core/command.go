package core

import "github.com/driftchat/driftchat-server/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendDirect routes one delivery unit to a recipient.
	CommandSendDirect CommandKind = iota
	// CommandHistory requests stored conversation history with a peer.
	CommandHistory
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	To   string         // CommandSendDirect
	Unit store.UnitKind // CommandSendDirect payload kind
	Body string         // CommandSendDirect payload
	With string         // CommandHistory
}
