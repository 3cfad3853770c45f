// Package board holds the interaction state the display keeps between
// commands: the engine-advertised legal-move index, the click-to-select
// state machine, and the move-history log.
package board

import (
	"sort"

	"github.com/minaechess/minae/internal/fen"
)

// SquareSet is a value set of squares.
type SquareSet map[fen.Square]struct{}

func (s SquareSet) Contains(sq fen.Square) bool {
	_, ok := s[sq]
	return ok
}

// Sorted returns the members in file/rank order for stable output.
func (s SquareSet) Sorted() []fen.Square {
	out := make([]fen.Square, 0, len(s))
	for sq := range s {
		out = append(out, sq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Index maps each origin square to the targets the engine currently
// considers legal from it. A nil Index behaves like an empty one.
type Index map[fen.Square]SquareSet

// BuildIndex groups "e2e4"-style tokens by origin square. A token that is not
// exactly two valid squares is skipped and returned as a diagnostic; the rest
// of the batch is still indexed. Duplicates collapse.
func BuildIndex(moves []string) (Index, []string) {
	ix := make(Index, len(moves))
	var malformed []string
	for _, mv := range moves {
		from, to, ok := splitMove(mv)
		if !ok {
			malformed = append(malformed, mv)
			continue
		}
		set, exists := ix[from]
		if !exists {
			set = make(SquareSet, 4)
			ix[from] = set
		}
		set[to] = struct{}{}
	}
	return ix, malformed
}

func splitMove(mv string) (fen.Square, fen.Square, bool) {
	if len(mv) != 4 {
		return "", "", false
	}
	from, ok := fen.ParseSquare(mv[:2])
	if !ok {
		return "", "", false
	}
	to, ok := fen.ParseSquare(mv[2:])
	if !ok {
		return "", "", false
	}
	return from, to, true
}
