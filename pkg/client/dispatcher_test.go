package client

import (
	"context"
	"errors"
	"testing"
)

type sentUnit struct {
	to   string
	kind UnitKind
	body string
}

type recordingSender struct {
	sends []sentUnit
	fail  map[UnitKind]error
}

func (s *recordingSender) SendUnit(_ context.Context, to string, kind UnitKind, body string) error {
	s.sends = append(s.sends, sentUnit{to: to, kind: kind, body: body})
	return s.fail[kind]
}

func TestDispatchSplitsImageBeforeText(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), Submission{
		To:    "bob",
		Text:  "look at this",
		Image: "data:image/png;base64,AAAA",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(sender.sends) != 2 {
		t.Fatalf("expected exactly two units, got %d: %+v", len(sender.sends), sender.sends)
	}
	if sender.sends[0].kind != UnitImage || sender.sends[1].kind != UnitText {
		t.Fatalf("image must be sent before text: %+v", sender.sends)
	}
	if sender.sends[0].body != "data:image/png;base64,AAAA" || sender.sends[1].body != "look at this" {
		t.Fatalf("units must keep both payloads intact: %+v", sender.sends)
	}
}

func TestDispatchRejectsEmptySubmission(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	tests := []Submission{
		{To: "bob"},
		{To: "bob", Text: ""},
		{To: "bob", Text: "   \t\n"},
	}
	for _, sub := range tests {
		err := d.Dispatch(context.Background(), sub)
		if !errors.Is(err, ErrEmptySubmission) {
			t.Fatalf("expected ErrEmptySubmission for %+v, got %v", sub, err)
		}
	}

	if len(sender.sends) != 0 {
		t.Fatalf("rejected submissions must not send: %+v", sender.sends)
	}
}

func TestDispatchTextOnlyTrims(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	if err := d.Dispatch(context.Background(), Submission{To: "bob", Text: "  hi  "}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(sender.sends) != 1 || sender.sends[0].kind != UnitText || sender.sends[0].body != "hi" {
		t.Fatalf("expected one trimmed text unit, got %+v", sender.sends)
	}
}

func TestDispatchImageFailureDoesNotSuppressText(t *testing.T) {
	imageErr := errors.New("image upload refused")
	sender := &recordingSender{fail: map[UnitKind]error{UnitImage: imageErr}}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), Submission{
		To:    "bob",
		Text:  "caption",
		Image: "data:image/png;base64,AAAA",
	})

	if len(sender.sends) != 2 {
		t.Fatalf("text unit must still be attempted: %+v", sender.sends)
	}
	if !errors.Is(err, imageErr) {
		t.Fatalf("image failure must surface to the caller, got %v", err)
	}
}

func TestDispatchReportsBothFailures(t *testing.T) {
	imageErr := errors.New("image send failed")
	textErr := errors.New("text send failed")
	sender := &recordingSender{fail: map[UnitKind]error{UnitImage: imageErr, UnitText: textErr}}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), Submission{To: "bob", Text: "hi", Image: "img"})
	if !errors.Is(err, imageErr) || !errors.Is(err, textErr) {
		t.Fatalf("expected both failures reported, got %v", err)
	}
}
