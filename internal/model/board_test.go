package model

import (
	"reflect"
	"testing"
)

func sq(s string) Square {
	out, ok := ParseSquare(s)
	if !ok {
		panic("bad square " + s)
	}
	return out
}

func mustFEN(t *testing.T, fen string) (*Board, Color) {
	t.Helper()
	b, turn, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b, turn
}

// legalMove finds the legal move from -> to, failing the test if there is none.
func legalMove(t *testing.T, b *Board, from, to string) Move {
	t.Helper()
	p, ok := b.PieceAt(sq(from))
	if !ok {
		t.Fatalf("no piece on %s", from)
	}
	for _, m := range b.LegalMoves(p.ID, true) {
		if m.To == sq(to) {
			return m
		}
	}
	t.Fatalf("%s-%s is not legal", from, to)
	return Move{}
}

func play(t *testing.T, b *Board, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		b.ApplyOfficialMove(legalMove(t, b, mv[:2], mv[2:4]), NoPieceType)
	}
}

func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	f()
}

func TestNewBoardLayout(t *testing.T) {
	b := NewBoard()
	if err := b.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	for _, c := range []Color{White, Black} {
		if got := len(b.Roster(c)); got != 16 {
			t.Fatalf("%s roster: got %d pieces want 16", c, got)
		}
	}
	if k := b.King(White); k.Square != sq("e1") || k.Type != King {
		t.Fatalf("white king: %v", k)
	}
	if k := b.King(Black); k.Square != sq("e8") {
		t.Fatalf("black king: %v", k)
	}
	cases := map[string]struct {
		t PieceType
		c Color
	}{
		"a1": {Rook, White}, "b1": {Knight, White}, "c1": {Bishop, White}, "d1": {Queen, White},
		"a8": {Rook, Black}, "g8": {Knight, Black}, "d8": {Queen, Black},
		"e2": {Pawn, White}, "h7": {Pawn, Black},
	}
	for s, want := range cases {
		p, ok := b.PieceAt(sq(s))
		if !ok || p.Type != want.t || p.Color != want.c {
			t.Errorf("%s: got %v (%t), want %s %s", s, p, ok, want.c, want.t)
		}
	}
	if _, ok := b.PieceAt(sq("e4")); ok {
		t.Fatalf("e4 should be empty")
	}
}

func TestStartingPositionMoveCount(t *testing.T) {
	b := NewBoard()
	for _, c := range []Color{White, Black} {
		if got := len(b.AllLegalMoves(c)); got != 20 {
			t.Fatalf("%s: got %d legal moves want 20", c, got)
		}
	}
}

func TestApplyRevertRestoresPosition(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		from, to string
	}{
		{"quiet", StartFEN, "g1", "f3"},
		{"double step", StartFEN, "e2", "e4"},
		{"capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4", "d5"},
		{"kingside castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1", "g1"},
		{"queenside castle", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8", "c8"},
		{"en passant", "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1", "e5", "d6"},
		{"promotion", "4k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7", "a8"},
		{"capture promotion", "1r2k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7", "b8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, official := range []bool{false, true} {
				b, turn := mustFEN(t, tt.fen)
				before := b.Snapshot(turn)
				m := legalMove(t, b, tt.from, tt.to)

				if official {
					b.ApplyOfficialMove(m, NoPieceType)
				} else {
					b.ApplyTestMove(m)
				}
				if err := b.CheckInvariants(); err != nil {
					t.Fatalf("after apply: %v", err)
				}
				if b.Depth() != 1 {
					t.Fatalf("depth: got %d want 1", b.Depth())
				}
				if last, ok := b.LastMove(); !ok || !last.Equal(m) {
					t.Fatalf("last move: got %v want %v", last, m)
				}

				b.RevertMove(m)
				if err := b.CheckInvariants(); err != nil {
					t.Fatalf("after revert: %v", err)
				}
				if after := b.Snapshot(turn); !reflect.DeepEqual(before, after) {
					t.Fatalf("official=%t: position not restored\nbefore %+v\nafter  %+v", official, before, after)
				}
			}
		})
	}
}

func TestCastlingMovesRook(t *testing.T) {
	b, _ := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	m := legalMove(t, b, "e1", "g1")
	b.ApplyOfficialMove(m, NoPieceType)

	rook, ok := b.PieceAt(sq("f1"))
	if !ok || rook.Type != Rook || rook.MoveCount != 1 {
		t.Fatalf("f1: got %v (%t), want a rook that moved once", rook, ok)
	}
	if _, ok := b.PieceAt(sq("h1")); ok {
		t.Fatalf("h1 should be empty after castling")
	}

	b.RevertMove(m)
	rook, ok = b.PieceAt(sq("h1"))
	if !ok || rook.MoveCount != 0 {
		t.Fatalf("h1 after revert: got %v (%t)", rook, ok)
	}

	m = legalMove(t, b, "e1", "c1")
	b.ApplyTestMove(m)
	if p, ok := b.PieceAt(sq("d1")); !ok || p.Type != Rook {
		t.Fatalf("d1 after queenside castle: %v (%t)", p, ok)
	}
	b.RevertMove(m)
}

func TestOfficialMoveClearsDoubleStepFlag(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4")
	pawn, _ := b.PieceAt(sq("e4"))
	if !pawn.JustMovedTwoSquares {
		t.Fatalf("e4 pawn should be flagged after its double step")
	}

	reply := legalMove(t, b, "g8", "f6")
	b.ApplyOfficialMove(reply, NoPieceType)
	if b.Piece(pawn.ID).JustMovedTwoSquares {
		t.Fatalf("flag should be cleared after the opponent's reply")
	}

	b.RevertMove(reply)
	if !b.Piece(pawn.ID).JustMovedTwoSquares {
		t.Fatalf("revert should restore the flag")
	}
}

func TestTestMoveKeepsFlags(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4")
	pawn, _ := b.PieceAt(sq("e4"))

	m := legalMove(t, b, "g8", "f6")
	b.ApplyTestMove(m)
	if !b.Piece(pawn.ID).JustMovedTwoSquares {
		t.Fatalf("test move must not clear the opponent's flag")
	}
	b.RevertMove(m)
}

func TestSingleStepDoesNotFlag(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e3")
	if p, _ := b.PieceAt(sq("e3")); p.JustMovedTwoSquares {
		t.Fatalf("single step flagged")
	}
}

func TestPromotion(t *testing.T) {
	tests := []struct {
		promotion PieceType
		want      PieceType
	}{
		{NoPieceType, Queen},
		{Queen, Queen},
		{Rook, Rook},
		{Bishop, Bishop},
		{Knight, Knight},
	}
	for _, tt := range tests {
		b, _ := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
		m := legalMove(t, b, "a7", "a8")
		b.ApplyOfficialMove(m, tt.promotion)

		p := b.Piece(m.Piece)
		if p.Type != tt.want || !p.Promoted {
			t.Fatalf("promotion %q: got %v want %s", tt.promotion, p, tt.want)
		}
		b.RevertMove(m)
		if p := b.Piece(m.Piece); p.Type != Pawn || p.Promoted || p.Square != sq("a7") {
			t.Fatalf("revert promotion: got %v", p)
		}
	}
}

func TestPromotionToKingPanics(t *testing.T) {
	b, _ := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	m := legalMove(t, b, "a7", "a8")
	mustPanic(t, "promote to king", func() { b.ApplyOfficialMove(m, King) })
	mustPanic(t, "promote to pawn", func() { b.ApplyOfficialMove(m, Pawn) })
}

func TestRevertPreconditions(t *testing.T) {
	b := NewBoard()
	e4 := legalMove(t, b, "e2", "e4")
	d4 := legalMove(t, b, "d2", "d4")

	mustPanic(t, "revert on empty stack", func() { b.RevertMove(e4) })

	b.ApplyTestMove(e4)
	mustPanic(t, "revert a different move", func() { b.RevertMove(d4) })
	b.RevertMove(e4)
}

func TestApplyPreconditions(t *testing.T) {
	b := NewBoard()
	e4 := legalMove(t, b, "e2", "e4")

	wrongFrom := e4
	wrongFrom.From = sq("e3")
	mustPanic(t, "wrong from square", func() { b.ApplyTestMove(wrongFrom) })

	offBoard := e4
	offBoard.To = Square{Row: -1, Col: 4}
	mustPanic(t, "off board", func() { b.ApplyTestMove(offBoard) })

	onto := e4
	onto.To = sq("d2")
	mustPanic(t, "onto own piece", func() { b.ApplyTestMove(onto) })

	mustPanic(t, "unknown piece", func() { b.Piece(PieceID(99)) })

	if err := b.CheckInvariants(); err != nil {
		t.Fatalf("failed applies must leave the board intact: %v", err)
	}
}

func TestCapturedPieceStaysInRoster(t *testing.T) {
	b, _ := mustFEN(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	victim, _ := b.PieceAt(sq("d5"))
	m := legalMove(t, b, "e4", "d5")
	b.ApplyOfficialMove(m, NoPieceType)

	if p := b.Piece(victim.ID); !p.Captured {
		t.Fatalf("victim should be flagged captured: %v", p)
	}
	found := false
	for _, id := range b.Roster(Black) {
		if id == victim.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("captured piece left the roster")
	}
	mustPanic(t, "moves of a captured piece", func() { b.PseudoLegalMoves(victim.ID, false) })
}
