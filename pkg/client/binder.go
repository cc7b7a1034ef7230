package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Session is the surface the binder manages: a live channel that can report
// its transport health and be closed.
type Session interface {
	Healthy() bool
	Close() error
}

// Dialer opens a session bound to one user id. The dial may suspend; it must
// honor ctx cancellation.
type Dialer func(ctx context.Context, userID string) (Session, error)

// ServerDialer builds a Dialer that opens the ws channel on baseURL with a
// token minted by tokenFor.
func ServerDialer(baseURL string, tokenFor func(userID string) (string, error), handlers Handlers, logger *zerolog.Logger) Dialer {
	return func(ctx context.Context, userID string) (Session, error) {
		token, err := tokenFor(userID)
		if err != nil {
			return nil, fmt.Errorf("mint token: %w", err)
		}
		return Dial(ctx, baseURL, token, handlers, logger)
	}
}

// Binder owns at most one live session and keeps it in line with the current
// authentication state. OnAuthChange may be invoked any number of times with
// the same identity; re-evaluation is always safe.
type Binder struct {
	dial Dialer
	log  *zerolog.Logger

	mu      sync.Mutex
	userID  string // desired identity, "" when signed out
	gen     uint64 // bumped on every identity change and dial start
	session Session
	pending bool
	cancel  context.CancelFunc
}

// NewBinder creates a binder with no bound session.
func NewBinder(dial Dialer, logger *zerolog.Logger) *Binder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Binder{dial: dial, log: logger}
}

// OnAuthChange reconciles the session with the given identity. An empty
// userID means signed out. Switching identities closes the previous session
// first and cancels any in-flight dial; a dial that completes after its
// session was superseded is closed and discarded.
func (b *Binder) OnAuthChange(ctx context.Context, userID string) error {
	b.mu.Lock()

	// A silently dead transport counts as absent.
	if b.session != nil && !b.session.Healthy() {
		_ = b.session.Close()
		b.session = nil
	}

	if userID == b.userID {
		if b.session != nil || b.pending || userID == "" {
			b.mu.Unlock()
			return nil
		}
		// Same identity with no live session: reconnect below.
	} else {
		b.gen++ // invalidates any in-flight dial for the previous identity
		if b.cancel != nil {
			b.cancel()
			b.cancel = nil
		}
		b.pending = false
		if b.session != nil {
			_ = b.session.Close()
			b.session = nil
			b.log.Debug().Str("user_id", b.userID).Msg("session closed")
		}
		b.userID = userID
		if userID == "" {
			b.mu.Unlock()
			return nil
		}
	}

	b.gen++
	myGen := b.gen
	dialCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.pending = true
	b.mu.Unlock()

	session, err := b.dial(dialCtx, userID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gen != myGen {
		// Superseded while dialing; a late completion is moot.
		if session != nil {
			_ = session.Close()
		}
		cancel()
		return nil
	}

	b.pending = false
	b.cancel = nil
	cancel()

	if err != nil {
		return fmt.Errorf("open session for %s: %w", userID, err)
	}
	b.session = session
	b.log.Debug().Str("user_id", userID).Msg("session opened")
	return nil
}

// Connected reports whether a healthy session is currently bound.
func (b *Binder) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil && b.session.Healthy()
}

// Session returns the bound session, or nil when signed out or disconnected.
func (b *Binder) Session() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Close releases the bound session, if any, and cancels an in-flight dial.
func (b *Binder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.gen++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.pending = false
	b.userID = ""
	if b.session == nil {
		return nil
	}
	err := b.session.Close()
	b.session = nil
	return err
}
