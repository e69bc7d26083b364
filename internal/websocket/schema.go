package websocket

import (
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/session"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventHello   Event = "hello"
	EventSession Event = "session"
	EventPong    Event = "pong"
	EventError   Event = "error"
)

// HelloMessage is the first frame of a stream: the state at connect time.
type HelloMessage struct {
	Event    Event            `json:"event"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// SessionMessage relays one session event. Data.Type says which.
type SessionMessage struct {
	Event Event         `json:"event"`
	Data  session.Event `json:"data"`
}

// ErrorResponse answers a frame the stream could not act on.
type ErrorResponse struct {
	Event Event               `json:"event"`
	Error *response.ErrorBody `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
