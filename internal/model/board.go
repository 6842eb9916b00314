package model

import (
	"errors"
	"fmt"
)

var backRankOrder = [boardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

const kingHomeCol = 4

// Board owns every piece of a game. Pieces live in an arena indexed by
// PieceID; the grid and the per-colour rosters only hold IDs. Captured
// pieces stay in the arena and their roster so that moves can be reverted.
//
// A Board is not safe for concurrent use.
type Board struct {
	pieces  []Piece
	grid    [boardSize][boardSize]PieceID
	rosters [2][]PieceID
	kings   [2]PieceID
	applied []undoFrame
}

// undoFrame records what ApplyTestMove / ApplyOfficialMove changed beyond
// the move itself.
type undoFrame struct {
	move              Move
	capturedFrom      Square
	prevJustMovedTwo  bool
	rook              PieceID
	rookFrom, rookTo  Square
	promoted          bool
	clearedJustMovers []PieceID
}

// NewBoard returns a board in the standard starting position.
func NewBoard() *Board {
	b := newEmptyBoard()
	for _, c := range []Color{White, Black} {
		for col := 0; col < boardSize; col++ {
			b.place(Pawn, c, Square{Row: c.pawnRow(), Col: col})
		}
		for col, t := range backRankOrder {
			b.place(t, c, Square{Row: c.backRank(), Col: col})
		}
	}
	return b
}

func newEmptyBoard() *Board {
	b := &Board{kings: [2]PieceID{NoPiece, NoPiece}}
	for r := range b.grid {
		for c := range b.grid[r] {
			b.grid[r][c] = NoPiece
		}
	}
	return b
}

func (b *Board) place(t PieceType, c Color, sq Square) PieceID {
	id := PieceID(len(b.pieces))
	b.pieces = append(b.pieces, Piece{ID: id, Type: t, Color: c, Square: sq})
	b.grid[sq.Row][sq.Col] = id
	b.rosters[c] = append(b.rosters[c], id)
	if t == King {
		b.kings[c] = id
	}
	return id
}

func (b *Board) at(sq Square) PieceID {
	return b.grid[sq.Row][sq.Col]
}

func (b *Board) set(sq Square, id PieceID) {
	b.grid[sq.Row][sq.Col] = id
}

func (b *Board) piece(id PieceID) *Piece {
	if id < 0 || int(id) >= len(b.pieces) {
		panic(fmt.Sprintf("model: unknown piece id %d", id))
	}
	return &b.pieces[id]
}

func (b *Board) activePiece(id PieceID) *Piece {
	p := b.piece(id)
	if p.Captured {
		panic(fmt.Sprintf("model: piece %d (%s) is captured", id, p))
	}
	return p
}

// Piece returns a copy of the piece with the given ID.
func (b *Board) Piece(id PieceID) Piece {
	return *b.piece(id)
}

// PieceAt returns the piece standing on sq.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	id := b.at(sq)
	if id == NoPiece {
		return Piece{}, false
	}
	return b.pieces[id], true
}

// Roster returns the IDs of every piece of colour c, captured ones included,
// in setup order.
func (b *Board) Roster(c Color) []PieceID {
	return append([]PieceID(nil), b.rosters[c]...)
}

func (b *Board) King(c Color) Piece {
	return b.pieces[b.kings[c]]
}

// Depth is the number of applied moves that can still be reverted.
func (b *Board) Depth() int {
	return len(b.applied)
}

// LastMove returns the most recently applied move that has not been reverted.
func (b *Board) LastMove() (Move, bool) {
	if len(b.applied) == 0 {
		return Move{}, false
	}
	return b.applied[len(b.applied)-1].move, true
}

// ApplyTestMove plays m without the bookkeeping of an official move: no
// en-passant flags are cleared and no promotion happens. It must be undone
// with RevertMove before any earlier move is reverted.
func (b *Board) ApplyTestMove(m Move) {
	b.applied = append(b.applied, b.apply(m))
}

// ApplyOfficialMove plays m as a move of the game. After the move the
// opponent's pawns lose their en-passant eligibility, and a pawn reaching
// the far rank is promoted to promotion, or to a queen for NoPieceType.
func (b *Board) ApplyOfficialMove(m Move, promotion PieceType) {
	if promotion != NoPieceType && !promotion.CanPromoteTo() {
		panic(fmt.Sprintf("model: cannot promote to %s", promotion))
	}
	f := b.apply(m)
	p := &b.pieces[m.Piece]
	for _, id := range b.rosters[p.Color.Opposite()] {
		if b.pieces[id].JustMovedTwoSquares {
			b.pieces[id].JustMovedTwoSquares = false
			f.clearedJustMovers = append(f.clearedJustMovers, id)
		}
	}
	if p.Type == Pawn && p.Square.Row == p.Color.Opposite().backRank() {
		if promotion == NoPieceType {
			promotion = Queen
		}
		p.Type = promotion
		p.Promoted = true
		f.promoted = true
	}
	b.applied = append(b.applied, f)
}

func (b *Board) apply(m Move) undoFrame {
	p := b.activePiece(m.Piece)
	if p.Square != m.From || b.at(m.From) != m.Piece {
		panic(fmt.Sprintf("model: apply %s: %s is not on %s", m, p, m.From))
	}
	if !m.To.Valid() {
		panic(fmt.Sprintf("model: apply %s: destination off board", m))
	}
	f := undoFrame{move: m, rook: NoPiece, prevJustMovedTwo: p.JustMovedTwoSquares}

	// Validate everything before the first write.
	if occupant := b.at(m.To); occupant != NoPiece && occupant != m.Captured {
		panic(fmt.Sprintf("model: apply %s: destination holds %s", m, b.pieces[occupant]))
	}
	var victim *Piece
	if m.Captured != NoPiece {
		victim = b.activePiece(m.Captured)
		if victim.Color == p.Color || b.at(victim.Square) != m.Captured {
			panic(fmt.Sprintf("model: apply %s: cannot capture %s", m, victim))
		}
	}
	castle := isCastle(p.Type, m.From, m.To)
	if castle {
		f.rookFrom, f.rookTo = castleRookSquares(m.From, m.To)
		f.rook = b.at(f.rookFrom)
		if f.rook == NoPiece || b.at(f.rookTo) != NoPiece {
			panic(fmt.Sprintf("model: apply %s: cannot move rook %s-%s", m, f.rookFrom, f.rookTo))
		}
	}

	b.set(m.From, NoPiece)
	if victim != nil {
		victim.Captured = true
		f.capturedFrom = victim.Square
		b.set(victim.Square, NoPiece)
	}

	if castle {
		r := &b.pieces[f.rook]
		b.set(f.rookFrom, NoPiece)
		r.Square = f.rookTo
		r.MoveCount++
		b.set(f.rookTo, f.rook)
	}

	p.Square = m.To
	p.MoveCount++
	p.JustMovedTwoSquares = p.Type == Pawn && abs(m.To.Row-m.From.Row) == 2
	b.set(m.To, m.Piece)
	return f
}

// RevertMove undoes m, which must be the most recently applied move.
func (b *Board) RevertMove(m Move) {
	n := len(b.applied)
	if n == 0 {
		panic(fmt.Sprintf("model: revert %s: no applied move", m))
	}
	f := b.applied[n-1]
	if !f.move.Equal(m) || f.move.Captured != m.Captured {
		panic(fmt.Sprintf("model: revert %s: last applied move is %s", m, f.move))
	}
	p := &b.pieces[m.Piece]
	if p.MoveCount == 0 {
		panic(fmt.Sprintf("model: revert %s: %s has no moves to undo", m, p))
	}
	b.applied = b.applied[:n-1]

	if f.promoted {
		p.Type = Pawn
		p.Promoted = false
	}
	for _, id := range f.clearedJustMovers {
		b.pieces[id].JustMovedTwoSquares = true
	}

	b.set(m.To, NoPiece)
	if f.rook != NoPiece {
		r := &b.pieces[f.rook]
		b.set(f.rookTo, NoPiece)
		r.Square = f.rookFrom
		r.MoveCount--
		b.set(f.rookFrom, f.rook)
	}
	if m.Captured != NoPiece {
		c := &b.pieces[m.Captured]
		c.Captured = false
		c.Square = f.capturedFrom
		b.set(f.capturedFrom, m.Captured)
	}

	p.Square = m.From
	p.MoveCount--
	p.JustMovedTwoSquares = f.prevJustMovedTwo
	b.set(m.From, m.Piece)
}

func isCastle(t PieceType, from, to Square) bool {
	return t == King && abs(to.Col-from.Col) == 2
}

// castleRookSquares returns where the rook comes from and lands for a king
// moving from -> to.
func castleRookSquares(from, to Square) (Square, Square) {
	if to.Col > from.Col {
		return Square{Row: from.Row, Col: boardSize - 1}, Square{Row: from.Row, Col: to.Col - 1}
	}
	return Square{Row: from.Row, Col: 0}, Square{Row: from.Row, Col: to.Col + 1}
}

// CheckInvariants verifies that grid and pieces agree: every active piece
// sits on its grid cell, no captured piece is on the grid, and both kings are
// on the board.
func (b *Board) CheckInvariants() error {
	var errs []error
	for _, p := range b.pieces {
		onGrid := p.Square.Valid() && b.at(p.Square) == p.ID
		if onGrid == p.Captured {
			errs = append(errs, fmt.Errorf("piece %d (%s): on grid=%t", p.ID, p, onGrid))
		}
		if p.MoveCount < 0 {
			errs = append(errs, fmt.Errorf("piece %d: negative move count %d", p.ID, p.MoveCount))
		}
	}
	for r := range b.grid {
		for c, id := range b.grid[r] {
			if id == NoPiece {
				continue
			}
			sq := Square{Row: r, Col: c}
			if id < 0 || int(id) >= len(b.pieces) {
				errs = append(errs, fmt.Errorf("cell %s: unknown piece id %d", sq, id))
				continue
			}
			if p := b.pieces[id]; p.Square != sq {
				errs = append(errs, fmt.Errorf("cell %s: holds %s", sq, p))
			}
		}
	}
	for _, c := range []Color{White, Black} {
		k := b.kings[c]
		if k == NoPiece || b.pieces[k].Type != King || b.pieces[k].Captured {
			errs = append(errs, fmt.Errorf("%s king missing", c))
		}
	}
	return errors.Join(errs...)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
