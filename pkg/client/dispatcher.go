package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySubmission is returned when a submission carries neither text nor
// an image after trimming. No send is attempted.
var ErrEmptySubmission = errors.New("empty submission")

// Submission is one logical chat entry: optional text and optional image
// payload, addressed to one recipient.
type Submission struct {
	To    string
	Text  string
	Image string
}

// UnitSender sends one delivery unit over the live channel.
type UnitSender interface {
	SendUnit(ctx context.Context, to string, kind UnitKind, body string) error
}

// Dispatcher converts chat submissions into ordered delivery unit sends.
type Dispatcher struct {
	sender UnitSender
}

// NewDispatcher builds a dispatcher on top of a live channel.
func NewDispatcher(sender UnitSender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Dispatch validates and splits a submission. When both payloads are present
// the image unit is sent before the text unit, so receivers rendering in
// arrival order see the attachment ahead of its caption. Each unit is awaited
// independently: an image failure does not suppress the text attempt, and a
// partial failure is reported without rolling back the delivered unit.
// Callers must clear any pending input state only after Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, sub Submission) error {
	text := strings.TrimSpace(sub.Text)
	if text == "" && sub.Image == "" {
		return ErrEmptySubmission
	}

	var errs []error
	if sub.Image != "" {
		if err := d.sender.SendUnit(ctx, sub.To, UnitImage, sub.Image); err != nil {
			errs = append(errs, fmt.Errorf("image unit: %w", err))
		}
	}
	if text != "" {
		if err := d.sender.SendUnit(ctx, sub.To, UnitText, text); err != nil {
			errs = append(errs, fmt.Errorf("text unit: %w", err))
		}
	}
	return errors.Join(errs...)
}
