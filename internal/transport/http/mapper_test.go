package http

import (
	"encoding/json"
	"testing"

	"github.com/driftchat/driftchat-server/internal/core"
	"github.com/driftchat/driftchat-server/internal/proto"
	"github.com/driftchat/driftchat-server/internal/store"
)

func inbound(t *testing.T, typ string, data any) proto.Inbound {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal inbound data: %v", err)
	}
	return proto.Inbound{Type: typ, Data: raw}
}

func TestInboundToCommandSend(t *testing.T) {
	tests := []struct {
		name     string
		data     proto.SendData
		wantKind store.UnitKind
		wantBody string
		wantErr  string
	}{
		{
			name:     "text unit",
			data:     proto.SendData{To: "bob", Text: "  hi  "},
			wantKind: store.UnitKindText,
			wantBody: "hi",
		},
		{
			name:     "image unit",
			data:     proto.SendData{To: "bob", Image: "data:image/png;base64,AAAA"},
			wantKind: store.UnitKindImage,
			wantBody: "data:image/png;base64,AAAA",
		},
		{
			name:    "missing recipient",
			data:    proto.SendData{Text: "hi"},
			wantErr: core.ErrCodeRecipientRequired,
		},
		{
			name:    "empty after trim",
			data:    proto.SendData{To: "bob", Text: "   "},
			wantErr: core.ErrCodeEmptySubmission,
		},
		{
			name:    "both payloads",
			data:    proto.SendData{To: "bob", Text: "hi", Image: "img"},
			wantErr: core.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(inbound(t, proto.InboundTypeSend, tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantErr != "" {
				if protoErr == nil || protoErr.Code != tt.wantErr {
					t.Fatalf("expected %s, got %+v", tt.wantErr, protoErr)
				}
				return
			}

			if protoErr != nil {
				t.Fatalf("unexpected proto error: %+v", protoErr)
			}
			if cmd.Kind != core.CommandSendDirect || cmd.Unit != tt.wantKind || cmd.Body != tt.wantBody {
				t.Fatalf("unexpected command: %+v", cmd)
			}
		})
	}
}

func TestInboundToCommandUnknownType(t *testing.T) {
	_, protoErr, err := inboundToCommand(proto.Inbound{Type: "dance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if protoErr == nil || protoErr.Code != "invalid_message" {
		t.Fatalf("expected invalid_message, got %+v", protoErr)
	}
}

func TestOutboundFromPresenceNeverNil(t *testing.T) {
	out := outboundFromEvent(&core.Event{Kind: core.EventPresence})

	data, ok := out.Data.(proto.EventPresence)
	if !ok {
		t.Fatalf("unexpected data type: %T", out.Data)
	}
	if data.Users == nil {
		t.Fatal("presence users must serialize as an empty array, not null")
	}
}
