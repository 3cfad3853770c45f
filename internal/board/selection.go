package board

import "github.com/minaechess/minae/internal/fen"

// Move is an origin/target pair the user committed by clicking a selected
// piece's legal target. Legality was decided by the engine that supplied the
// index; the display never recomputes it.
type Move struct {
	From fen.Square
	To   fen.Square
}

// Selection is the click-to-select state machine. It is either empty or
// holds the origin square the user picked from the legal-move index. Callers
// must Reset it whenever a new position or index is installed so a stale
// selection never survives a board change.
type Selection struct {
	origin fen.Square
	active bool
}

// ClickOutcome describes the result of one click: the squares to highlight
// (empty means clear) and, when the click landed on a legal target of the
// selected origin, the committed move.
type ClickOutcome struct {
	Highlights []fen.Square
	Committed  *Move
}

// Origin reports the selected origin square, if any.
func (s *Selection) Origin() (fen.Square, bool) {
	return s.origin, s.active
}

// Reset forces the machine back to no selection.
func (s *Selection) Reset() {
	s.origin = ""
	s.active = false
}

// Click advances the machine for a click at p given the current index.
func (s *Selection) Click(ix Index, p fen.Square) ClickOutcome {
	if !s.active {
		if targets, ok := ix[p]; ok {
			s.origin = p
			s.active = true
			return ClickOutcome{Highlights: highlightsFor(p, targets)}
		}
		return ClickOutcome{}
	}

	origin := s.origin
	switch {
	case p == origin:
		s.Reset()
		return ClickOutcome{}
	case ix[origin].Contains(p):
		s.Reset()
		return ClickOutcome{Committed: &Move{From: origin, To: p}}
	default:
		if targets, ok := ix[p]; ok {
			s.origin = p
			return ClickOutcome{Highlights: highlightsFor(p, targets)}
		}
		s.Reset()
		return ClickOutcome{}
	}
}

// highlightsFor is the selected origin plus its reachable targets.
func highlightsFor(origin fen.Square, targets SquareSet) []fen.Square {
	out := make(SquareSet, len(targets)+1)
	for sq := range targets {
		out[sq] = struct{}{}
	}
	out[origin] = struct{}{}
	return out.Sorted()
}
