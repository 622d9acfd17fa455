package collab

import (
	"encoding/json"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

type Message struct {
	Type     string          `json:"type"`
	DocID    string          `json:"docId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Client -> server
	TypeInputPointer   = "input.pointer"
	TypeInputKey       = "input.key"
	TypeToolSet        = "tool.set"
	TypeViewportSet    = "viewport.set"
	TypePresenceUpdate = "presence.update"

	// Server -> client
	TypeWelcome       = "welcome"
	TypeDocSync       = "doc.sync"
	TypeFrame         = "frame"
	TypeDocCommit     = "doc.commit"
	TypeSelection     = "selection"
	TypeToolChanged   = "tool.changed"
	TypePresenceState = "presence.state"
	TypePresenceJoin  = "presence.join"
	TypePresenceLeave = "presence.leave"
	TypeError         = "error"
)

// Input actions.
const (
	ActionDown = "down"
	ActionMove = "move"
	ActionUp   = "up"
)

type PointerPayload struct {
	Action string `json:"action"`
	editor.PointerEvent
}

type KeyPayload struct {
	Action string `json:"action"`
	editor.KeyEvent
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

// ViewportPayload sets the pan, zoom and surface size of the room's canvas.
type ViewportPayload struct {
	Origin geometry.Point `json:"origin"`
	Scale  float64        `json:"scale"`
	PX     float64        `json:"px"`
	Width  float64        `json:"width,omitempty"`
	Height float64        `json:"height,omitempty"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	DocID    string `json:"docId"`
	Tool     string `json:"tool"`
}

type DocSyncPayload struct {
	Document json.RawMessage `json:"document"`
}

type FramePayload struct {
	Commands []canvas.DrawCommand `json:"commands"`
	Cursor   editor.Cursor        `json:"cursor"`
}

type CommitPayload struct {
	TxID     string          `json:"txId"`
	Label    string          `json:"label"`
	Document json.RawMessage `json:"document"`
}

type SelectionPayload struct {
	IDs []string `json:"ids"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PresenceStatePayload struct {
	Presences map[string]*Presence `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// newMessage marshals payload into a message of type typ.
func newMessage(typ, docID string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, DocID: docID, Payload: data}, nil
}
