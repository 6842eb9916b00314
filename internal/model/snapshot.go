package model

import "fmt"

type SnapshotCell struct {
	ID    PieceID   `json:"id"`
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

// Snapshot is everything needed to resume a position exactly: the grid, the
// per-piece counters and flags (captured pieces included), and the side to
// move. Undo history is not part of it.
type Snapshot struct {
	Grid   [boardSize][boardSize]*SnapshotCell `json:"grid"`
	Pieces []Piece                             `json:"pieces"`
	Turn   Color                               `json:"turn"`
}

func (b *Board) Snapshot(turn Color) Snapshot {
	s := Snapshot{Pieces: append([]Piece(nil), b.pieces...), Turn: turn}
	for r := range b.grid {
		for c, id := range b.grid[r] {
			if id == NoPiece {
				continue
			}
			p := b.pieces[id]
			s.Grid[r][c] = &SnapshotCell{ID: id, Type: p.Type, Color: p.Color}
		}
	}
	return s
}

// FromSnapshot rebuilds a board from s. Piece IDs must be the arena indexes
// recorded by Snapshot.
func FromSnapshot(s Snapshot) (*Board, error) {
	b := newEmptyBoard()
	for i, p := range s.Pieces {
		if p.ID != PieceID(i) {
			return nil, fmt.Errorf("snapshot piece %d has id %d", i, p.ID)
		}
		if p.Type == NoPieceType || p.Type > King {
			return nil, fmt.Errorf("snapshot piece %d: unknown type %d", i, p.Type)
		}
		if p.Color != White && p.Color != Black {
			return nil, fmt.Errorf("snapshot piece %d: unknown colour %d", i, p.Color)
		}
		if !p.Square.Valid() {
			return nil, fmt.Errorf("snapshot piece %d: square %s off board", i, p.Square)
		}
		b.pieces = append(b.pieces, p)
		b.rosters[p.Color] = append(b.rosters[p.Color], p.ID)
		if p.Type == King {
			if b.kings[p.Color] != NoPiece {
				return nil, fmt.Errorf("snapshot has more than one %s king", p.Color)
			}
			b.kings[p.Color] = p.ID
		}
	}
	for r := range s.Grid {
		for c, cell := range s.Grid[r] {
			if cell == nil {
				continue
			}
			if cell.ID < 0 || int(cell.ID) >= len(b.pieces) {
				return nil, fmt.Errorf("snapshot cell %s: unknown piece id %d", Square{Row: r, Col: c}, cell.ID)
			}
			p := b.pieces[cell.ID]
			if p.Type != cell.Type || p.Color != cell.Color {
				return nil, fmt.Errorf("snapshot cell %s disagrees with piece %d", Square{Row: r, Col: c}, cell.ID)
			}
			b.grid[r][c] = cell.ID
		}
	}
	if err := b.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return b, nil
}
