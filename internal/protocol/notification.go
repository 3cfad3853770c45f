package protocol

import (
	"github.com/minaechess/minae/internal/board"
	"github.com/minaechess/minae/internal/fen"
)

// Notification is a state change the dispatcher hands to the rendering side.
// Delivery order matches command order exactly; consumers must apply them
// in the order received.
type Notification interface {
	isNotification()
}

// PositionChanged carries a freshly validated position and the game-state
// snapshot tied to the FEN that produced it. It replaces the prior position
// wholesale.
type PositionChanged struct {
	FEN      string
	Position fen.Position
	State    fen.GameState
}

// LegalMovesChanged replaces the legal-move index wholesale. An empty index
// is valid and means no square is currently selectable.
type LegalMovesChanged struct {
	Index board.Index
}

// HistoryChanged carries the updated move log and its rendered text.
type HistoryChanged struct {
	Moves []string
	Text  string
}

// Shutdown is emitted for an explicit quit command and for end of input.
type Shutdown struct{}

func (PositionChanged) isNotification()   {}
func (LegalMovesChanged) isNotification() {}
func (HistoryChanged) isNotification()    {}
func (Shutdown) isNotification()          {}
