package model

import "fmt"

// Status is the state of a position for the side to move.
type Status uint8

const (
	Normal Status = iota
	Check
	Checkmate
	Stalemate
)

var statusNames = [...]string{
	Normal:    "normal",
	Check:     "check",
	Checkmate: "checkmate",
	Stalemate: "stalemate",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further moves can be made.
func (s Status) Terminal() bool {
	return s == Checkmate || s == Stalemate
}

// IsCheckmate reports whether colour c is in check and has no legal move.
func (b *Board) IsCheckmate(c Color) bool {
	if !b.IsCheck(c) {
		return false
	}
	return !b.hasLegalMove(c)
}

// IsStalemate reports whether colour c is not in check but cannot move.
func (b *Board) IsStalemate(c Color) bool {
	if b.IsCheck(c) {
		return false
	}
	return !b.hasLegalMove(c)
}

// Status classifies the position with c to move.
func (b *Board) Status(c Color) Status {
	inCheck := b.IsCheck(c)
	canMove := b.hasLegalMove(c)
	switch {
	case inCheck && !canMove:
		return Checkmate
	case inCheck:
		return Check
	case !canMove:
		return Stalemate
	}
	return Normal
}

func (b *Board) hasLegalMove(c Color) bool {
	for _, id := range b.rosters[c] {
		if b.pieces[id].Captured {
			continue
		}
		if len(b.LegalMoves(id, true)) > 0 {
			return true
		}
	}
	return false
}
