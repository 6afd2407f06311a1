// Package protocol defines the JSON messages exchanged with clients
// over the websocket, and nothing else. Keeping it dependency-free
// lets both the world and the transport import it.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types. Inbound intents and outbound events share one tag space.
const (
	TypeMove       = "move"
	TypeSetColor   = "set-color"
	TypeConnected  = "connected"
	TypeWorldState = "world-state"
	TypeError      = "error"
)

// BaseMessage lets us route inbound JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

// DecodeBase extracts the routing tag from a raw client message.
func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	if m.Type == "" {
		return m, fmt.Errorf("missing message type")
	}
	return m, nil
}

// Move is a movement intent. Dx and Dy are clamped to [-1, 1] server-side;
// an intent with no net movement is ignored.
type Move struct {
	Type string  `json:"type"`
	Dx   float64 `json:"dx"`
	Dy   float64 `json:"dy"`
}

// SetColor asks to change the sender's user color. Color is a 3- or
// 6-digit hex string, '#' optional, case-insensitive.
type SetColor struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

// Connected is sent once, when a connection finishes the join delay and
// becomes an active player.
type Connected struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

// WorldState carries a full world snapshot.
type WorldState struct {
	Type  string `json:"type"`
	World any    `json:"world"`
}

// Error is a structured reply to malformed or invalid input. The
// connection stays open.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewConnected builds a connected event for a connection id.
func NewConnected(connID string) Connected {
	return Connected{Type: TypeConnected, ConnectionID: connID}
}

// NewWorldState wraps a snapshot for broadcast.
func NewWorldState(world any) WorldState {
	return WorldState{Type: TypeWorldState, World: world}
}

// NewError builds an error reply.
func NewError(code, message string) Error {
	return Error{Type: TypeError, Code: code, Message: message}
}
