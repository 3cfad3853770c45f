// Package fen parses and validates Forsyth-Edwards Notation position strings.
// Validation is syntactic plus the rank-sum and castling-field checks a display
// needs; full legality stays with the engine that produced the FEN.
package fen

import (
	"fmt"
	"regexp"
	"strconv"
)

// Position maps occupied squares to pieces. Absent squares are empty.
type Position map[Square]Piece

// GameState is the non-board half of a FEN, valid only as a snapshot tied to
// the string that produced it.
type GameState struct {
	ActiveColor    string
	Castling       string
	EnPassant      string
	HalfmoveClock  int
	FullmoveNumber int
}

// RejectCode classifies why a FEN was refused.
type RejectCode string

const (
	RejectGrammar       RejectCode = "grammar"
	RejectSplitDigits   RejectCode = "split_digits"
	RejectRankSum       RejectCode = "rank_sum"
	RejectEmptyCastling RejectCode = "empty_castling"
)

// RejectReason is the structured, non-fatal refusal returned by Validate.
type RejectReason struct {
	Code   RejectCode
	Detail string
}

func (r *RejectReason) Error() string {
	if r.Detail != "" {
		return fmt.Sprintf("fen rejected (%s): %s", r.Code, r.Detail)
	}
	return fmt.Sprintf("fen rejected (%s)", r.Code)
}

// fenPattern requires a whole-string match: eight rank fields, active color,
// castling availability, en-passant target, half-move clock, full-move number.
// The castling alternative K?Q?k?q? admits the empty string; Validate refuses
// that case explicitly.
var fenPattern = regexp.MustCompile(
	`^([PRNBQKprnbqk1-8]{1,8})/` + // rank 8
		`([PRNBQKprnbqk1-8]{1,8})/` + // rank 7
		`([PRNBQKprnbqk1-8]{1,8})/` + // rank 6
		`([PRNBQKprnbqk1-8]{1,8})/` + // rank 5
		`([PRNBQKprnbqk1-8]{1,8})/` + // rank 4
		`([PRNBQKprnbqk1-8]{1,8})/` + // rank 3
		`([PRNBQKprnbqk1-8]{1,8})/` + // rank 2
		`([PRNBQKprnbqk1-8]{1,8}) ` + // rank 1
		`([wb]) ` +
		`(-|K?Q?k?q?) ` +
		`(-|[a-h][1-8]) ` +
		`(0|[1-9][0-9]*) ` +
		`([1-9][0-9]*)$`,
)

// Validate checks a FEN string and derives the occupied-square mapping plus
// the game-state snapshot. It is a pure function: on rejection it returns a
// *RejectReason and leaves no side effects.
//
// Rank fields must not contain two consecutive digits ("44" is invalid even
// though 4+4=8), and each rank's digits-plus-pieces must sum to exactly 8.
func Validate(fen string) (Position, GameState, error) {
	m := fenPattern.FindStringSubmatch(fen)
	if m == nil {
		return nil, GameState{}, &RejectReason{Code: RejectGrammar, Detail: "does not match FEN grammar"}
	}

	pos := make(Position, 32)
	for g := 1; g <= 8; g++ {
		rank := byte('9' - g) // group 1 is rank 8, group 8 is rank 1
		file := byte('a')
		sum := 0
		prevDigit := false
		for i := 0; i < len(m[g]); i++ {
			c := m[g][i]
			if c >= '1' && c <= '8' {
				if prevDigit {
					return nil, GameState{}, &RejectReason{
						Code:   RejectSplitDigits,
						Detail: fmt.Sprintf("rank %c has consecutive digits", rank),
					}
				}
				sum += int(c - '0')
				file += c - '0'
				prevDigit = true
				continue
			}
			pos[NewSquare(file, rank)] = Piece(c)
			sum++
			file++
			prevDigit = false
		}
		if sum != 8 {
			return nil, GameState{}, &RejectReason{
				Code:   RejectRankSum,
				Detail: fmt.Sprintf("rank %c sums to %d, want 8", rank, sum),
			}
		}
	}

	if m[10] == "" {
		return nil, GameState{}, &RejectReason{Code: RejectEmptyCastling, Detail: "castling field is empty"}
	}

	half, _ := strconv.Atoi(m[12])
	full, _ := strconv.Atoi(m[13])

	state := GameState{
		ActiveColor:    m[9],
		Castling:       m[10],
		EnPassant:      m[11],
		HalfmoveClock:  half,
		FullmoveNumber: full,
	}
	return pos, state, nil
}
