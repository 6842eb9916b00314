package model

import "fmt"

type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{
	NoPieceType: "",
	Pawn:        "pawn",
	Knight:      "knight",
	Bishop:      "bishop",
	Rook:        "rook",
	Queen:       "queen",
	King:        "king",
}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return fmt.Sprintf("PieceType(%d)", t)
}

func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(b []byte) error {
	pt, ok := ParsePieceType(string(b))
	if !ok {
		return fmt.Errorf("unknown piece type %q", b)
	}
	*t = pt
	return nil
}

// ParsePieceType accepts the names produced by String. The empty string
// parses as NoPieceType.
func ParsePieceType(s string) (PieceType, bool) {
	for i, name := range pieceTypeNames {
		if name == s {
			return PieceType(i), true
		}
	}
	return NoPieceType, false
}

// CanPromoteTo reports whether a pawn may become t.
func (t PieceType) CanPromoteTo() bool {
	switch t {
	case Knight, Bishop, Rook, Queen:
		return true
	}
	return false
}

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) Opposite() Color {
	return 1 - c
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	switch string(b) {
	case "white":
		*c = White
	case "black":
		*c = Black
	default:
		return fmt.Errorf("unknown color %q", b)
	}
	return nil
}

// forward is the row delta of a pawn advance.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

func (c Color) backRank() int {
	if c == White {
		return boardSize - 1
	}
	return 0
}

func (c Color) pawnRow() int {
	return c.backRank() + c.forward()
}

// enPassantRow is the row a pawn of this colour must stand on to capture en passant.
func (c Color) enPassantRow() int {
	if c == White {
		return 3
	}
	return 4
}

// PieceID addresses a piece in its board's arena. IDs are stable for the
// lifetime of the board.
type PieceID int

const NoPiece PieceID = -1

// Piece is the mutable record kept in a board's arena. Values handed out by
// Board.Piece are copies.
type Piece struct {
	ID                  PieceID   `json:"id"`
	Type                PieceType `json:"type"`
	Color               Color     `json:"color"`
	Square              Square    `json:"square"`
	MoveCount           int       `json:"moveCount"`
	JustMovedTwoSquares bool      `json:"justMovedTwoSquares"`
	Captured            bool      `json:"captured"`
	Promoted            bool      `json:"promoted"`
}

func (p Piece) String() string {
	state := "active"
	if p.Captured {
		state = "captured"
	}
	return fmt.Sprintf("%s %s at %s (moved %d, %s)", p.Color, p.Type, p.Square, p.MoveCount, state)
}
