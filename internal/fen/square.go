package fen

// Square is a board coordinate in algebraic notation, e.g. "e2".
// The zero value is not a valid square.
type Square string

// NewSquare builds a square from a file byte ('a'..'h') and a rank byte ('1'..'8').
func NewSquare(file, rank byte) Square {
	return Square([]byte{file, rank})
}

// ParseSquare validates and returns a square token.
func ParseSquare(s string) (Square, bool) {
	sq := Square(s)
	if !sq.Valid() {
		return "", false
	}
	return sq, true
}

func (s Square) Valid() bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// File returns the file byte ('a'..'h'). Only meaningful on a valid square.
func (s Square) File() byte { return s[0] }

// Rank returns the rank byte ('1'..'8'). Only meaningful on a valid square.
func (s Square) Rank() byte { return s[1] }

func (s Square) String() string { return string(s) }

// Piece is the single-character FEN code of a piece: uppercase for white,
// lowercase for black (P, R, N, B, Q, K and their lowercase counterparts).
type Piece byte

func (p Piece) Valid() bool {
	switch p {
	case 'P', 'R', 'N', 'B', 'Q', 'K', 'p', 'r', 'n', 'b', 'q', 'k':
		return true
	}
	return false
}

func (p Piece) IsWhite() bool { return p >= 'A' && p <= 'Z' }

// Role returns the uppercase role letter regardless of color.
func (p Piece) Role() byte {
	if p >= 'a' {
		return byte(p) - ('a' - 'A')
	}
	return byte(p)
}

func (p Piece) String() string { return string([]byte{byte(p)}) }
