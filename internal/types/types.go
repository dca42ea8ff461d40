package types

import "github.com/DoyleJ11/outsider-backend/internal/engine"

// Inbound action names.
const (
	ActCreateRoom  = "createRoom"
	ActJoinRoom    = "joinRoom"
	ActSubmitWords = "submitWords"
	ActVote        = "vote"
	ActLeaveRoom   = "leaveRoom"
)

// MsgError is the only outbound type not produced by the engine.
const MsgError = "error"

type ClientMessage struct {
	Type          string   `json:"type"`
	Name          string   `json:"name,omitempty"`
	Avatar        string   `json:"avatar,omitempty"`
	Capacity      int      `json:"capacity,omitempty"`
	OutsiderCount int      `json:"outsiderCount,omitempty"`
	RoomID        string   `json:"roomId,omitempty"`
	Words         []string `json:"words,omitempty"`
	Accused       string   `json:"accused,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"` // engine.EventType or "error"
	Data any    `json:"data,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func FromEvent(e engine.Event) ServerMessage {
	return ServerMessage{Type: string(e.Type), Data: e.Data}
}

func Error(err error) ServerMessage {
	return ServerMessage{Type: MsgError, Data: ErrorData{Message: err.Error()}}
}
