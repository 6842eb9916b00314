package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrInvalidFEN = errors.New("invalid FEN")

var pieceLetters = map[PieceType]rune{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

type castleRight struct {
	letter  rune
	color   Color
	rookCol int
}

var castleRights = []castleRight{
	{'K', White, 7},
	{'Q', White, 0},
	{'k', Black, 7},
	{'q', Black, 0},
}

type fenRecord struct {
	board    *Board
	turn     Color
	halfmove int
	fullmove int
}

// ParseFEN builds a board from a FEN record and returns it with the side to
// move. FEN carries no move counts, so they are derived: a pawn off its home
// row, or a king or corner rook without the matching castling right, counts
// as having moved once. The pawn named by the en-passant field is marked as
// having just made its double step.
func ParseFEN(s string) (*Board, Color, error) {
	rec, err := parseFEN(s)
	if err != nil {
		return nil, White, err
	}
	return rec.board, rec.turn, nil
}

func parseFEN(s string) (fenRecord, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 && len(fields) != 6 {
		return fenRecord{}, fmt.Errorf("%w: expected 4 or 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	b, err := parsePlacement(fields[0])
	if err != nil {
		return fenRecord{}, err
	}
	rec := fenRecord{board: b, fullmove: 1}
	switch fields[1] {
	case "w":
		rec.turn = White
	case "b":
		rec.turn = Black
	default:
		return fenRecord{}, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	for i := range b.pieces {
		p := &b.pieces[i]
		switch p.Type {
		case Pawn:
			if p.Square.Row != p.Color.pawnRow() {
				p.MoveCount = 1
			}
		case King, Rook:
			p.MoveCount = 1
		}
	}
	if err := b.parseCastling(fields[2]); err != nil {
		return fenRecord{}, err
	}
	if err := b.parseEnPassant(fields[3], rec.turn.Opposite()); err != nil {
		return fenRecord{}, err
	}

	if len(fields) == 6 {
		if rec.halfmove, err = strconv.Atoi(fields[4]); err != nil || rec.halfmove < 0 {
			return fenRecord{}, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
		}
		if rec.fullmove, err = strconv.Atoi(fields[5]); err != nil || rec.fullmove < 1 {
			return fenRecord{}, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
		}
	}
	return rec, nil
}

func parsePlacement(placement string) (*Board, error) {
	rows := strings.Split(placement, "/")
	if len(rows) != boardSize {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidFEN, boardSize, len(rows))
	}
	b := newEmptyBoard()
	for r, text := range rows {
		col := 0
		for _, ch := range text {
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			t, c, ok := pieceFromLetter(ch)
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			if col >= boardSize {
				return nil, fmt.Errorf("%w: row %d too long", ErrInvalidFEN, r+1)
			}
			if t == Pawn && (r == 0 || r == boardSize-1) {
				return nil, fmt.Errorf("%w: pawn on back rank", ErrInvalidFEN)
			}
			if t == King && b.kings[c] != NoPiece {
				return nil, fmt.Errorf("%w: more than one %s king", ErrInvalidFEN, c)
			}
			b.place(t, c, Square{Row: r, Col: col})
			col++
		}
		if col != boardSize {
			return nil, fmt.Errorf("%w: row %d has %d squares", ErrInvalidFEN, r+1, col)
		}
	}
	for _, c := range []Color{White, Black} {
		if b.kings[c] == NoPiece {
			return nil, fmt.Errorf("%w: no %s king", ErrInvalidFEN, c)
		}
	}
	return b, nil
}

func (b *Board) parseCastling(field string) error {
	if field == "-" {
		return nil
	}
	for _, ch := range field {
		var right *castleRight
		for i := range castleRights {
			if castleRights[i].letter == ch {
				right = &castleRights[i]
			}
		}
		if right == nil {
			return fmt.Errorf("%w: castling right %q", ErrInvalidFEN, ch)
		}
		row := right.color.backRank()
		king := b.at(Square{Row: row, Col: kingHomeCol})
		rook := b.at(Square{Row: row, Col: right.rookCol})
		if king != b.kings[right.color] || rook == NoPiece ||
			b.pieces[rook].Type != Rook || b.pieces[rook].Color != right.color {
			return fmt.Errorf("%w: castling right %q without king and rook in place", ErrInvalidFEN, ch)
		}
		b.pieces[king].MoveCount = 0
		b.pieces[rook].MoveCount = 0
	}
	return nil
}

// parseEnPassant marks the pawn of colour mover that has just passed over the
// square named by field.
func (b *Board) parseEnPassant(field string, mover Color) error {
	if field == "-" {
		return nil
	}
	sq, ok := ParseSquare(field)
	if !ok || sq.Row != mover.pawnRow()+mover.forward() {
		return fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, field)
	}
	pawnSq, _ := sq.offset(mover.forward(), 0)
	id := b.at(pawnSq)
	if id == NoPiece || b.pieces[id].Type != Pawn || b.pieces[id].Color != mover || b.at(sq) != NoPiece {
		return fmt.Errorf("%w: en passant square %q without a double-stepped pawn", ErrInvalidFEN, field)
	}
	b.pieces[id].MoveCount = 1
	b.pieces[id].JustMovedTwoSquares = true
	return nil
}

func pieceFromLetter(ch rune) (PieceType, Color, bool) {
	for t, letter := range pieceLetters {
		switch ch {
		case letter:
			return t, Black, true
		case letter - 'a' + 'A':
			return t, White, true
		}
	}
	return NoPieceType, White, false
}

func letterFromPiece(p Piece) rune {
	letter := pieceLetters[p.Type]
	if p.Color == White {
		return letter - 'a' + 'A'
	}
	return letter
}

// FEN encodes the position with turn to move. The move counters are written
// as "0 1".
func (b *Board) FEN(turn Color) string {
	return b.fen(turn, 0, 1)
}

func (b *Board) fen(turn Color, halfmove, fullmove int) string {
	var sb strings.Builder
	for r := 0; r < boardSize; r++ {
		empty := 0
		for c := 0; c < boardSize; c++ {
			id := b.grid[r][c]
			if id == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(letterFromPiece(b.pieces[id]))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < boardSize-1 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if turn == Black {
		side = "b"
	}

	castling := ""
	for _, right := range castleRights {
		if b.canStillCastle(right.color, right.rookCol) {
			castling += string(right.letter)
		}
	}
	if castling == "" {
		castling = "-"
	}

	enPassant := "-"
	for _, id := range b.rosters[turn.Opposite()] {
		p := b.pieces[id]
		if !p.Captured && p.Type == Pawn && p.JustMovedTwoSquares {
			enPassant = Square{Row: p.Square.Row - p.Color.forward(), Col: p.Square.Col}.String()
		}
	}
	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), side, castling, enPassant, halfmove, fullmove)
}

// canStillCastle reports whether neither the king of colour c nor its rook on
// rookCol has moved. Whether castling is possible right now is a separate
// question answered by move generation.
func (b *Board) canStillCastle(c Color, rookCol int) bool {
	row := c.backRank()
	king := b.pieces[b.kings[c]]
	if king.MoveCount != 0 || king.Square != (Square{Row: row, Col: kingHomeCol}) {
		return false
	}
	rook := b.at(Square{Row: row, Col: rookCol})
	if rook == NoPiece {
		return false
	}
	r := b.pieces[rook]
	return r.Type == Rook && r.Color == c && r.MoveCount == 0
}
