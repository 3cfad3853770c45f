package board

import (
	"strconv"
	"strings"
)

// History is the ordered log of half-moves shown beside the board. It is the
// sole record of game progress for display; nothing is persisted.
type History struct {
	moves []string
}

// Append extends the log, preserving order.
func (h *History) Append(moves []string) {
	h.moves = append(h.moves, moves...)
}

// UndoLast removes the final half-move and reports whether one was removed.
// An empty log is a no-op, not an error.
func (h *History) UndoLast() bool {
	if len(h.moves) == 0 {
		return false
	}
	h.moves = h.moves[:len(h.moves)-1]
	return true
}

// Replace overwrites the log wholesale.
func (h *History) Replace(moves []string) {
	h.moves = append([]string(nil), moves...)
}

// Moves returns a copy of the log.
func (h *History) Moves() []string {
	return append([]string(nil), h.moves...)
}

// Len reports the number of half-moves logged.
func (h *History) Len() int { return len(h.moves) }

// Render produces the numbered-pairs text: an odd half-move (1-based) starts
// a line as "<fullmove>. <move>", the even half-move is appended as " <move>"
// and closes the line.
func (h *History) Render() string {
	var sb strings.Builder
	fullmove := 1
	for i, mv := range h.moves {
		if i%2 == 0 {
			sb.WriteString(strconv.Itoa(fullmove))
			sb.WriteString(". ")
			sb.WriteString(mv)
		} else {
			sb.WriteString(" ")
			sb.WriteString(mv)
			sb.WriteString("\n")
			fullmove++
		}
	}
	return sb.String()
}
