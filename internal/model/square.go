package model

import "fmt"

const boardSize = 8

// Square is a coordinate on the board. Row 0 is black's back rank, so white
// pawns advance towards lower rows.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// SquareAt returns the square at row/col, or false when it lies off the
// board. Sliding generators step past the edge, so this never panics.
func SquareAt(row, col int) (Square, bool) {
	if row < 0 || row >= boardSize || col < 0 || col >= boardSize {
		return Square{}, false
	}
	return Square{Row: row, Col: col}, true
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, bool) {
	if len(s) != 2 {
		return Square{}, false
	}
	return SquareAt(int('8'-s[1]), int(s[0]-'a'))
}

func (s Square) Valid() bool {
	_, ok := SquareAt(s.Row, s.Col)
	return ok
}

func (s Square) offset(dRow, dCol int) (Square, bool) {
	return SquareAt(s.Row+dRow, s.Col+dCol)
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, boardSize-s.Row)
}
