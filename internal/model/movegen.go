package model

import "fmt"

type direction struct {
	dRow, dCol int
}

var (
	diagonals   = []direction{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}
	orthogonals = []direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	knightJumps = []direction{{-2, 1}, {-1, 2}, {1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}}
	kingSteps   = []direction{{-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}}
)

type genMode uint8

const (
	// genMoves produces every pseudo-legal move except castling.
	genMoves genMode = iota
	genWithCastling
	// genAttacks produces the squares a piece attacks: pawns yield both
	// forward diagonals whether or not they are occupied, and no pushes.
	genAttacks
)

type castleSide struct {
	rookCol int
	kingTo  int
	// between are the squares that must be empty; path is what the king
	// crosses and must not be attacked, its start square included.
	between []int
	path    []int
}

var castleSides = []castleSide{
	{rookCol: 7, kingTo: 6, between: []int{5, 6}, path: []int{4, 5, 6}},
	{rookCol: 0, kingTo: 2, between: []int{1, 2, 3}, path: []int{4, 3, 2}},
}

// PseudoLegalMoves returns every move the piece's movement rule allows,
// including captures of its own side and moves that leave its king in check.
// Castling candidates are only produced when allowCastling is set.
func (b *Board) PseudoLegalMoves(id PieceID, allowCastling bool) []Move {
	mode := genMoves
	if allowCastling {
		mode = genWithCastling
	}
	return b.generate(b.activePiece(id), mode, nil)
}

func (b *Board) generate(p *Piece, mode genMode, moves []Move) []Move {
	switch p.Type {
	case Pawn:
		return b.pawnMoves(p, mode, moves)
	case Knight:
		return b.stepMoves(p, knightJumps, moves)
	case Bishop:
		return b.slideMoves(p, diagonals, moves)
	case Rook:
		return b.slideMoves(p, orthogonals, moves)
	case Queen:
		moves = b.slideMoves(p, diagonals, moves)
		return b.slideMoves(p, orthogonals, moves)
	case King:
		moves = b.stepMoves(p, kingSteps, moves)
		if mode == genWithCastling {
			moves = b.castlingMoves(p, moves)
		}
		return moves
	}
	panic(fmt.Sprintf("model: unknown piece type %d", p.Type))
}

func (b *Board) newMove(p *Piece, to Square) Move {
	return Move{Piece: p.ID, Captured: b.at(to), From: p.Square, To: to}
}

func (b *Board) slideMoves(p *Piece, dirs []direction, moves []Move) []Move {
	for _, d := range dirs {
		sq := p.Square
		for {
			next, ok := sq.offset(d.dRow, d.dCol)
			if !ok {
				break
			}
			moves = append(moves, b.newMove(p, next))
			if b.at(next) != NoPiece {
				break
			}
			sq = next
		}
	}
	return moves
}

func (b *Board) stepMoves(p *Piece, dirs []direction, moves []Move) []Move {
	for _, d := range dirs {
		if to, ok := p.Square.offset(d.dRow, d.dCol); ok {
			moves = append(moves, b.newMove(p, to))
		}
	}
	return moves
}

func (b *Board) pawnMoves(p *Piece, mode genMode, moves []Move) []Move {
	fwd := p.Color.forward()
	if mode != genAttacks {
		if one, ok := p.Square.offset(fwd, 0); ok && b.at(one) == NoPiece {
			moves = append(moves, b.newMove(p, one))
			if p.Square.Row == p.Color.pawnRow() {
				if two, ok := p.Square.offset(2*fwd, 0); ok && b.at(two) == NoPiece {
					moves = append(moves, b.newMove(p, two))
				}
			}
		}
	}
	for _, dCol := range []int{-1, 1} {
		diag, ok := p.Square.offset(fwd, dCol)
		if !ok {
			continue
		}
		if mode == genAttacks || b.at(diag) != NoPiece {
			moves = append(moves, b.newMove(p, diag))
		}
	}
	if mode != genAttacks {
		moves = b.enPassantMoves(p, moves)
	}
	return moves
}

// enPassantMoves adds captures of an adjacent enemy pawn that has just made
// its double step. The captured pawn is beside the mover, not on the
// destination square.
func (b *Board) enPassantMoves(p *Piece, moves []Move) []Move {
	if p.Square.Row != p.Color.enPassantRow() {
		return moves
	}
	for _, dCol := range []int{1, -1} {
		side, ok := p.Square.offset(0, dCol)
		if !ok {
			continue
		}
		id := b.at(side)
		if id == NoPiece {
			continue
		}
		q := &b.pieces[id]
		if q.Type != Pawn || q.Color == p.Color || q.MoveCount != 1 || !q.JustMovedTwoSquares {
			continue
		}
		to, ok := p.Square.offset(p.Color.forward(), dCol)
		if !ok || b.at(to) != NoPiece {
			continue
		}
		moves = append(moves, Move{Piece: p.ID, Captured: id, From: p.Square, To: to})
	}
	return moves
}

func (b *Board) castlingMoves(k *Piece, moves []Move) []Move {
	row := k.Color.backRank()
	if k.MoveCount != 0 || k.Square != (Square{Row: row, Col: kingHomeCol}) {
		return moves
	}
	for _, side := range castleSides {
		rook := b.at(Square{Row: row, Col: side.rookCol})
		if rook == NoPiece {
			continue
		}
		if r := b.pieces[rook]; r.Type != Rook || r.Color != k.Color || r.MoveCount != 0 {
			continue
		}
		if !b.allEmpty(row, side.between) {
			continue
		}
		path := make([]Square, len(side.path))
		for i, col := range side.path {
			path[i] = Square{Row: row, Col: col}
		}
		if b.anyAttacked(path, k.Color) {
			continue
		}
		moves = append(moves, Move{Piece: k.ID, Captured: NoPiece, From: k.Square, To: Square{Row: row, Col: side.kingTo}})
	}
	return moves
}

func (b *Board) allEmpty(row int, cols []int) bool {
	for _, col := range cols {
		if b.grid[row][col] != NoPiece {
			return false
		}
	}
	return true
}
