package core

import (
	"time"

	"github.com/driftchat/driftchat-server/internal/store"
)

// DeliveryUnit is one atomic message routed between two users.
// It carries exactly one payload kind: text or image.
type DeliveryUnit struct {
	ID        int64
	From      string
	To        string
	Kind      store.UnitKind
	Body      string
	CreatedAt time.Time
}

func unitFromStored(msg *store.Message) DeliveryUnit {
	return DeliveryUnit{
		ID:        msg.ID,
		From:      msg.FromID,
		To:        msg.ToID,
		Kind:      msg.Kind,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}
