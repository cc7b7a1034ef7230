package core

import "sync"

// CloseReason records why the hub released a client handle.
type CloseReason int

const (
	// CloseNone means the handle is still registered (or was never closed).
	CloseNone CloseReason = iota
	// CloseRemoved means the owning transport removed the handle.
	CloseRemoved
	// CloseSuperseded means a newer connection for the same user replaced it.
	CloseSuperseded
	// CloseLost means the hub could not deliver to the handle and dropped it.
	CloseLost
	// CloseShutdown means the hub loop stopped.
	CloseShutdown
)

// Client is one live connection handle as seen by the core layer.
// UserID is the registry key; ConnID distinguishes handles of the same user
// so a stale connection can never evict a newer one.
type Client struct {
	UserID string
	ConnID string

	// Commands carries actions from the transport into the hub loop.
	Commands chan *Command
	// Events carries hub notifications back to the transport.
	Events chan *Event

	mu     sync.Mutex
	reason CloseReason
	done   chan struct{}
}

// NewClient constructs a client handle with initialized channels.
func NewClient(userID, connID string) *Client {
	return &Client{
		UserID:   userID,
		ConnID:   connID,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
		done:     make(chan struct{}),
	}
}

// Done is closed when the hub releases this handle.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Reason reports why the handle was released; CloseNone while still live.
func (c *Client) Reason() CloseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// close is called by the hub loop only. Safe against double close: the first
// reason wins.
func (c *Client) close(reason CloseReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reason != CloseNone {
		return
	}
	c.reason = reason
	close(c.done)
}
