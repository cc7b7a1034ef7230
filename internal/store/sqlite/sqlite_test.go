package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/driftchat/driftchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestAppendAndListConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []store.Message{
		{FromID: "alice", ToID: "bob", Kind: store.UnitKindImage, Body: "data:image/png;base64,AAAA"},
		{FromID: "alice", ToID: "bob", Kind: store.UnitKindText, Body: "look at this"},
		{FromID: "bob", ToID: "alice", Kind: store.UnitKindText, Body: "nice"},
		{FromID: "alice", ToID: "carol", Kind: store.UnitKindText, Body: "unrelated"},
	}
	for _, msg := range seed {
		stored, err := s.AppendMessage(ctx, msg)
		if err != nil {
			t.Fatalf("append %+v: %v", msg, err)
		}
		if stored.ID == 0 {
			t.Fatalf("expected assigned id, got %+v", stored)
		}
		if stored.CreatedAt.IsZero() {
			t.Fatalf("expected assigned timestamp, got %+v", stored)
		}
	}

	got, err := s.ListConversation(ctx, "alice", "bob", 0)
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d: %+v", len(got), got)
	}

	// Creation order, both directions included, image preserved as image.
	if got[0].Kind != store.UnitKindImage || got[1].Body != "look at this" || got[2].FromID != "bob" {
		t.Fatalf("unexpected conversation order: %+v", got)
	}

	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Fatalf("ids must be strictly increasing: %+v", got)
		}
	}
}

func TestListConversationPairIsUnordered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendMessage(ctx, store.Message{FromID: "a", ToID: "b", Kind: store.UnitKindText, Body: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	forward, err := s.ListConversation(ctx, "a", "b", 0)
	if err != nil {
		t.Fatalf("list forward: %v", err)
	}
	reverse, err := s.ListConversation(ctx, "b", "a", 0)
	if err != nil {
		t.Fatalf("list reverse: %v", err)
	}

	if len(forward) != 1 || len(reverse) != 1 || forward[0].ID != reverse[0].ID {
		t.Fatalf("pair lookup must be symmetric: forward=%+v reverse=%+v", forward, reverse)
	}
}

func TestListConversationLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := s.AppendMessage(ctx, store.Message{FromID: "a", ToID: "b", Kind: store.UnitKindText, Body: fmt.Sprintf("msg-%d", i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.ListConversation(ctx, "a", "b", 2)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	// Truncation keeps the newest units and returns them in creation order.
	if got[0].Body != "msg-4" || got[1].Body != "msg-5" {
		t.Fatalf("expected msg-4, msg-5, got %q, %q", got[0].Body, got[1].Body)
	}
}
