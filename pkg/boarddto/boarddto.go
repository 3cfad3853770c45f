// Package boarddto holds the wire types the display shares with external
// collaborators: websocket viewers, the engine webhook, and Redis mirrors.
package boarddto

import "time"

// Move is an origin/target pair in algebraic square notation.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Event types posted to the engine webhook and published on Redis.
const (
	EventMoveCommitted = "move_committed"
	EventShutdown      = "shutdown"
)

// Event is an outbound board event.
type Event struct {
	Type string    `json:"type"`
	Move *Move     `json:"move,omitempty"`
	At   time.Time `json:"at"`
}

// Update types pushed to websocket viewers.
const (
	UpdateFrame    = "frame"
	UpdateState    = "state"
	UpdateHistory  = "history"
	UpdateMove     = "move"
	UpdateShutdown = "shutdown"
)

// Update is one websocket push. FrameSeq identifies the current board image
// so viewers can refetch /board.png without caching stale frames.
type Update struct {
	Type       string   `json:"type"`
	FrameSeq   uint64   `json:"frameSeq,omitempty"`
	Text       string   `json:"text,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
	Move       *Move    `json:"move,omitempty"`
}
