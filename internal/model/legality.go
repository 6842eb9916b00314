package model

// RemoveFriendlyCaptures drops the moves that would capture a piece of the
// mover's own colour. The result shares moves' backing array.
func (b *Board) RemoveFriendlyCaptures(moves []Move, mover Color) []Move {
	kept := moves[:0]
	for _, m := range moves {
		if m.Captured != NoPiece && b.pieces[m.Captured].Color == mover {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// AttackersOf returns the active pieces of defender's opponent that attack sq.
// Castling is never an attack.
func (b *Board) AttackersOf(sq Square, defender Color) []PieceID {
	var attackers []PieceID
	var buf []Move
	for _, id := range b.rosters[defender.Opposite()] {
		p := &b.pieces[id]
		if p.Captured {
			continue
		}
		buf = b.generate(p, genAttacks, buf[:0])
		for _, m := range buf {
			if m.To == sq {
				attackers = append(attackers, id)
				break
			}
		}
	}
	return attackers
}

// anyAttacked reports whether defender's opponent attacks any of squares.
func (b *Board) anyAttacked(squares []Square, defender Color) bool {
	var buf []Move
	for _, id := range b.rosters[defender.Opposite()] {
		p := &b.pieces[id]
		if p.Captured {
			continue
		}
		buf = b.generate(p, genAttacks, buf[:0])
		for _, m := range buf {
			for _, sq := range squares {
				if m.To == sq {
					return true
				}
			}
		}
	}
	return false
}

// IsCheck reports whether the king of colour c is attacked.
func (b *Board) IsCheck(c Color) bool {
	return b.anyAttacked([]Square{b.pieces[b.kings[c]].Square}, c)
}

// FilterLegal keeps the moves that do not leave mover's king in check. Each
// candidate is played as a test move and reverted, so the board is unchanged
// on return.
func (b *Board) FilterLegal(moves []Move, mover Color) []Move {
	legal := make([]Move, 0, len(moves))
	for _, m := range moves {
		b.ApplyTestMove(m)
		inCheck := b.IsCheck(mover)
		b.RevertMove(m)
		if !inCheck {
			legal = append(legal, m)
		}
	}
	return legal
}

// LegalMoves returns the legal moves of the piece with the given ID.
func (b *Board) LegalMoves(id PieceID, allowCastling bool) []Move {
	mover := b.activePiece(id).Color
	moves := b.PseudoLegalMoves(id, allowCastling)
	moves = b.RemoveFriendlyCaptures(moves, mover)
	return b.FilterLegal(moves, mover)
}

// AllLegalMoves returns the legal moves of every active piece of colour c.
func (b *Board) AllLegalMoves(c Color) []Move {
	var moves []Move
	for _, id := range b.rosters[c] {
		if b.pieces[id].Captured {
			continue
		}
		moves = append(moves, b.LegalMoves(id, true)...)
	}
	return moves
}
