package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPresence delivers the full set of online user ids.
	EventPresence EventKind = iota
	// EventDirectMessage delivers one delivery unit to sender and recipient.
	EventDirectMessage
	// EventHistory delivers stored conversation history to a client.
	EventHistory
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind  EventKind
	Users []string       // EventPresence: sorted online user ids
	Unit  DeliveryUnit   // EventDirectMessage
	With  string         // EventHistory: the conversation peer
	Units []DeliveryUnit // EventHistory
	Error *CoreError
}
