package core

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftchat/driftchat-server/internal/store"
)

// historyLimit caps how many stored units one history request returns.
const historyLimit = 200

// Hub owns the connection registry: at most one live handle per user id.
// All registry mutation happens on the single goroutine running Run, so a
// snapshot never observes a torn state. On every registry change the full
// online set is broadcast to every admitted handle.
type Hub struct {
	log      *zerolog.Logger
	messages store.MessageLog // nil disables persistence

	admitCh    chan admitRequest
	removeCh   chan removeRequest
	commandCh  chan clientCommand
	snapshotCh chan chan []string
	closed     chan struct{}

	// Owned by the Run goroutine.
	ctx     context.Context
	clients map[string]*Client
	nextID  int64 // fallback unit ids when persistence is disabled
}

type admitRequest struct {
	client *Client
	done   chan struct{}
}

type removeRequest struct {
	userID string
	connID string
	done   chan struct{}
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub. messages may be nil to run without persistence
// (history requests then return empty sequences).
func NewHub(messages store.MessageLog, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:        logger,
		messages:   messages,
		admitCh:    make(chan admitRequest),
		removeCh:   make(chan removeRequest),
		commandCh:  make(chan clientCommand, 32),
		snapshotCh: make(chan chan []string),
		closed:     make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run processes registry mutations and client commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	defer close(h.closed)

	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				c.close(CloseShutdown)
			}
			h.clients = make(map[string]*Client)
			return
		case req := <-h.admitCh:
			h.handleAdmit(req.client)
			close(req.done)
		case req := <-h.removeCh:
			h.handleRemove(req.userID, req.connID)
			close(req.done)
		case cc := <-h.commandCh:
			h.handleCommand(cc.client, cc.cmd)
		case reply := <-h.snapshotCh:
			reply <- h.onlineIDs()
		}
	}
}

// Admit registers a client handle, superseding any existing handle for the
// same user, and broadcasts the new online set. Blocks until the hub loop has
// processed the admission.
func (h *Hub) Admit(c *Client) error {
	if c == nil || c.UserID == "" {
		return ErrInvalidUserID
	}

	req := admitRequest{client: c, done: make(chan struct{})}
	select {
	case h.admitCh <- req:
	case <-h.closed:
		return ErrHubClosed
	}
	select {
	case <-req.done:
		return nil
	case <-h.closed:
		return ErrHubClosed
	}
}

// Remove evicts the registered handle for userID only when connID matches the
// current registration. A mismatch is a silent no-op so a stale connection can
// never evict its successor.
func (h *Hub) Remove(userID, connID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	req := removeRequest{userID: userID, connID: connID, done: make(chan struct{})}
	select {
	case h.removeCh <- req:
	case <-h.closed:
		return ErrHubClosed
	}
	select {
	case <-req.done:
		return nil
	case <-h.closed:
		return ErrHubClosed
	}
}

// Snapshot returns the sorted set of user ids currently holding a live handle.
func (h *Hub) Snapshot() []string {
	reply := make(chan []string, 1)
	select {
	case h.snapshotCh <- reply:
		return <-reply
	case <-h.closed:
		return nil
	}
}

func (h *Hub) handleAdmit(c *Client) {
	if old, ok := h.clients[c.UserID]; ok {
		// Supersession: the newer connection wins, the old handle is told why.
		old.close(CloseSuperseded)
		h.log.Debug().Str("user_id", c.UserID).Str("old_conn", old.ConnID).Str("new_conn", c.ConnID).Msg("connection superseded")
	}
	h.clients[c.UserID] = c
	go h.forwardCommands(c)

	h.log.Info().Str("user_id", c.UserID).Str("conn_id", c.ConnID).Msg("client admitted")
	h.broadcastPresence()
}

func (h *Hub) handleRemove(userID, connID string) {
	current, ok := h.clients[userID]
	if !ok || current.ConnID != connID {
		return
	}
	delete(h.clients, userID)
	current.close(CloseRemoved)

	h.log.Info().Str("user_id", userID).Str("conn_id", connID).Msg("client removed")
	h.broadcastPresence()
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	// A command from a handle that is no longer registered is moot.
	if current, ok := h.clients[c.UserID]; !ok || current != c {
		return
	}

	switch cmd.Kind {
	case CommandSendDirect:
		h.handleSendDirect(c, cmd)
	case CommandHistory:
		h.handleHistory(c, cmd)
	default:
		h.sendError(c, ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) handleSendDirect(c *Client, cmd *Command) {
	if cmd.To == "" {
		h.sendError(c, ErrCodeRecipientRequired, "recipient is required")
		return
	}
	if cmd.Body == "" {
		h.sendError(c, ErrCodeEmptySubmission, "message body is empty")
		return
	}
	if cmd.Unit != store.UnitKindText && cmd.Unit != store.UnitKindImage {
		h.sendError(c, ErrCodeBadRequest, "unknown unit kind")
		return
	}

	unit, err := h.appendUnit(c.UserID, cmd)
	if err != nil {
		h.log.Error().Err(err).Str("from", c.UserID).Str("to", cmd.To).Msg("persist message")
		h.sendError(c, ErrCodeStorageFailed, "failed to store message")
		return
	}

	ev := &Event{Kind: EventDirectMessage, Unit: unit}
	if recipient, ok := h.clients[cmd.To]; ok {
		h.send(recipient, ev)
	}
	// Echo to the sender so every open view renders the same sequence.
	h.send(c, ev)
}

func (h *Hub) appendUnit(from string, cmd *Command) (DeliveryUnit, error) {
	if h.messages == nil {
		h.nextID++
		return DeliveryUnit{
			ID:        h.nextID,
			From:      from,
			To:        cmd.To,
			Kind:      cmd.Unit,
			Body:      cmd.Body,
			CreatedAt: time.Now().UTC(),
		}, nil
	}

	stored, err := h.messages.AppendMessage(h.ctx, store.Message{
		FromID: from,
		ToID:   cmd.To,
		Kind:   cmd.Unit,
		Body:   cmd.Body,
	})
	if err != nil {
		return DeliveryUnit{}, err
	}
	return unitFromStored(stored), nil
}

func (h *Hub) handleHistory(c *Client, cmd *Command) {
	if cmd.With == "" {
		h.sendError(c, ErrCodeBadRequest, "peer is required")
		return
	}

	var units []DeliveryUnit
	if h.messages != nil {
		stored, err := h.messages.ListConversation(h.ctx, c.UserID, cmd.With, historyLimit)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", c.UserID).Str("with", cmd.With).Msg("load history")
			h.sendError(c, ErrCodeStorageFailed, "failed to load history")
			return
		}
		units = make([]DeliveryUnit, 0, len(stored))
		for i := range stored {
			units = append(units, unitFromStored(&stored[i]))
		}
	}

	h.send(c, &Event{Kind: EventHistory, With: cmd.With, Units: units})
}

// broadcastPresence sends the full online set to every admitted handle.
// Handles that cannot accept the event are dropped and the broadcast repeats,
// so any number of simultaneous losses collapses into one rebroadcast per
// round instead of one per removal.
func (h *Hub) broadcastPresence() {
	for {
		ev := &Event{Kind: EventPresence, Users: h.onlineIDs()}

		var lost []*Client
		for _, c := range h.clients {
			if !h.trySend(c, ev) {
				lost = append(lost, c)
			}
		}
		if len(lost) == 0 {
			return
		}
		for _, c := range lost {
			h.dropLost(c)
		}
	}
}

// send delivers an event, treating an unwritable handle as presence loss.
func (h *Hub) send(c *Client, ev *Event) {
	if h.trySend(c, ev) {
		return
	}
	h.dropLost(c)
	h.broadcastPresence()
}

func (h *Hub) trySend(c *Client, ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (h *Hub) dropLost(c *Client) {
	if current, ok := h.clients[c.UserID]; !ok || current != c {
		return
	}
	delete(h.clients, c.UserID)
	c.close(CloseLost)
	h.log.Warn().Str("user_id", c.UserID).Str("conn_id", c.ConnID).Msg("client dropped: events backed up")
}

func (h *Hub) sendError(c *Client, code, msg string) {
	h.send(c, &Event{Kind: EventError, Error: coreError(code, msg)})
}

func (h *Hub) onlineIDs() []string {
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// forwardCommands pumps a client's command channel into the hub loop until
// the handle is released.
func (h *Hub) forwardCommands(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commandCh <- clientCommand{client: c, cmd: cmd}:
			case <-c.Done():
				return
			case <-h.closed:
				return
			}
		case <-c.Done():
			return
		case <-h.closed:
			return
		}
	}
}
