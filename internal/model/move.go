package model

import "fmt"

// Move describes a transition of one piece. Captured is the piece removed by
// the move, which for en passant is not on To. A Move is only meaningful for
// the board and position it was generated from.
type Move struct {
	Piece    PieceID
	Captured PieceID
	From     Square
	To       Square
}

func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// Equal matches moves by piece and squares. Captured is left out so that a
// destination chosen by a user can be matched against generated candidates.
func (m Move) Equal(o Move) bool {
	return m.Piece == o.Piece && m.From == o.From && m.To == o.To
}

func (m Move) String() string {
	if m.IsCapture() {
		return fmt.Sprintf("%sx%s", m.From, m.To)
	}
	return fmt.Sprintf("%s-%s", m.From, m.To)
}

// MoveRequest is a move as submitted by a client.
type MoveRequest struct {
	From      Square    `json:"from"`
	To        Square    `json:"to"`
	Promotion PieceType `json:"promotion"`
}

// moveFor is the request as a move of piece id, for matching against
// generated moves.
func (r MoveRequest) moveFor(id PieceID) Move {
	return Move{Piece: id, Captured: NoPiece, From: r.From, To: r.To}
}

type CastleRookMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

// Ply is one applied official move as recorded in a game's history.
type Ply struct {
	Piece          PieceType       `json:"piece"`
	Color          Color           `json:"color"`
	From           Square          `json:"from"`
	To             Square          `json:"to"`
	CapturedPiece  *PieceType      `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	Promotion      PieceType       `json:"promotion"`
}

type SimpleMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}
