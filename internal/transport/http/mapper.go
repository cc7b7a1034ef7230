package http

import (
	"encoding/json"
	"strings"

	"github.com/driftchat/driftchat-server/internal/core"
	"github.com/driftchat/driftchat-server/internal/proto"
	"github.com/driftchat/driftchat-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, nil, err
		}
		if send.To == "" {
			return nil, &proto.Error{Code: core.ErrCodeRecipientRequired, Msg: "recipient is required"}, nil
		}

		text := strings.TrimSpace(send.Text)
		switch {
		case send.Image != "" && text != "":
			// One unit per send; the client splits mixed submissions.
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "send carries one of text or image"}, nil
		case send.Image != "":
			return &core.Command{
				Kind: core.CommandSendDirect,
				To:   send.To,
				Unit: store.UnitKindImage,
				Body: send.Image,
			}, nil, nil
		case text != "":
			return &core.Command{
				Kind: core.CommandSendDirect,
				To:   send.To,
				Unit: store.UnitKindText,
				Body: text,
			}, nil, nil
		default:
			return nil, &proto.Error{Code: core.ErrCodeEmptySubmission, Msg: "nothing to send"}, nil
		}
	case proto.InboundTypeHistory:
		var hist proto.HistoryData
		if err := json.Unmarshal(inbound.Data, &hist); err != nil {
			return nil, nil, err
		}
		if hist.With == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "peer is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandHistory,
			With: hist.With,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPresence:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNamePresence,
			Data:  proto.EventPresence{Users: users},
		}
	case core.EventDirectMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  eventMessageFromUnit(event.Unit),
		}
	case core.EventHistory:
		messages := make([]proto.EventMessage, 0, len(event.Units))
		for _, unit := range event.Units {
			messages = append(messages, eventMessageFromUnit(unit))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data: proto.EventHistory{
				With:     event.With,
				Messages: messages,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventMessageFromUnit(unit core.DeliveryUnit) proto.EventMessage {
	return proto.EventMessage{
		ID:   unit.ID,
		From: unit.From,
		To:   unit.To,
		Kind: string(unit.Kind),
		Body: unit.Body,
		TS:   unit.CreatedAt.Unix(),
	}
}
