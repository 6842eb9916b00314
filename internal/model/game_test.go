package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func move(from, to string) MoveRequest {
	return MoveRequest{From: sq(from), To: sq(to)}
}

func seatedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("g1")
	if c, err := g.AddPlayer("alice"); err != nil || c != White {
		t.Fatalf("alice: %s %v", c, err)
	}
	if c, err := g.AddPlayer("bob"); err != nil || c != Black {
		t.Fatalf("bob: %s %v", c, err)
	}
	return g
}

func TestAddPlayer(t *testing.T) {
	g := seatedGame(t)
	if c, err := g.AddPlayer("bob"); err != nil || c != Black {
		t.Fatalf("rejoin: got %s %v", c, err)
	}
	if _, err := g.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Fatalf("third player: got %v", err)
	}
	if g.CanSpectate() {
		t.Fatalf("full game should not accept spectators")
	}
	if !g.IsPlayerInGame("alice") || g.IsPlayerInGame("carol") || g.IsPlayerInGame("") {
		t.Fatalf("IsPlayerInGame mismatch")
	}
}

func TestMakeMoveValidation(t *testing.T) {
	g := seatedGame(t)
	tests := []struct {
		name   string
		player string
		req    MoveRequest
		want   error
	}{
		{"off board", "alice", MoveRequest{From: sq("e2"), To: Square{Row: 8, Col: 4}}, ErrOutOfBounds},
		{"empty square", "alice", move("e4", "e5"), ErrNoPiece},
		{"black piece on white's turn", "alice", move("e7", "e5"), ErrNotYourTurn},
		{"wrong player", "bob", move("e2", "e4"), ErrNotYourTurn},
		{"spectator", "carol", move("e2", "e4"), ErrNotYourTurn},
		{"illegal", "alice", move("e2", "e5"), ErrIllegalMove},
		{"bad promotion", "alice", MoveRequest{From: sq("e2"), To: sq("e4"), Promotion: King}, ErrInvalidPromotion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.MakeMove(tt.player, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
		})
	}
	if s := g.State(); len(s.MoveHistory) != 0 || s.ToMove != White {
		t.Fatalf("rejected moves changed the game: %+v", s)
	}
}

func TestMoveRequestMatchesGeneratedMove(t *testing.T) {
	b := NewBoard()
	p, _ := b.PieceAt(sq("a2"))
	want := move("a2", "a4").moveFor(p.ID)
	if want.IsCapture() {
		t.Fatalf("request for piece %d reads as a capture: %+v", p.ID, want)
	}
	found := false
	for _, m := range b.LegalMoves(p.ID, true) {
		found = found || m.Equal(want)
	}
	if !found {
		t.Fatalf("a2a4 not matched among legal moves")
	}
}

func TestGameFoolsMate(t *testing.T) {
	g := seatedGame(t)
	for i, mv := range []struct {
		player string
		req    MoveRequest
	}{
		{"alice", move("f2", "f3")},
		{"bob", move("e7", "e5")},
		{"alice", move("g2", "g4")},
		{"bob", move("d8", "h4")},
	} {
		if err := g.MakeMove(mv.player, mv.req); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	s := g.State()
	if s.Status != Checkmate || !s.IsCheck {
		t.Fatalf("status: %s check=%t", s.Status, s.IsCheck)
	}
	if s.Resolve == nil || *s.Resolve != ResolveCheckmate {
		t.Fatalf("resolve: %v", s.Resolve)
	}
	if s.Winner == nil || *s.Winner != Black {
		t.Fatalf("winner: %v", s.Winner)
	}
	if s.Sound != "check" {
		t.Fatalf("sound: %q", s.Sound)
	}
	if len(s.MoveHistory) != 4 || s.LastMove == nil || s.LastMove.To != sq("h4") {
		t.Fatalf("history: %+v last=%v", s.MoveHistory, s.LastMove)
	}
	if err := g.MakeMove("alice", move("a2", "a3")); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate: %v", err)
	}
	if targets, err := g.LegalMovesFrom(sq("a2")); err != nil || len(targets) != 0 {
		t.Fatalf("legal moves after mate: %v %v", targets, err)
	}

	if err := g.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	s = g.State()
	if s.Status != Normal || s.Resolve != nil || s.Winner != nil || s.ToMove != Black {
		t.Fatalf("after undo: status=%s resolve=%v winner=%v toMove=%s", s.Status, s.Resolve, s.Winner, s.ToMove)
	}
}

func TestGameSoundsAndPly(t *testing.T) {
	g, err := NewGameFromFEN("g", "r3k2r/1P6/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("NewGameFromFEN: %v", err)
	}

	if err := g.MakeMove("", move("e1", "g1")); err != nil {
		t.Fatalf("castle: %v", err)
	}
	s := g.State()
	ply := s.MoveHistory[0]
	if s.Sound != "castle" || ply.CastleRookMove == nil || ply.CastleRookMove.To != sq("f1") {
		t.Fatalf("castle ply: sound=%q %+v", s.Sound, ply)
	}

	if err := g.MakeMove("", move("a8", "a1")); err != nil {
		t.Fatalf("capture: %v", err)
	}
	s = g.State()
	ply = s.MoveHistory[1]
	if s.Sound != "capture" || ply.CapturedPiece == nil || *ply.CapturedPiece != Rook {
		t.Fatalf("capture ply: sound=%q %+v", s.Sound, ply)
	}
	if len(s.CapturedPieces.Black) != 1 || s.CapturedPieces.Black[0] != Rook {
		t.Fatalf("captured pieces: %+v", s.CapturedPieces)
	}

	if err := g.MakeMove("", MoveRequest{From: sq("b7"), To: sq("b8"), Promotion: Knight}); err != nil {
		t.Fatalf("promotion: %v", err)
	}
	s = g.State()
	ply = s.MoveHistory[2]
	if s.Sound != "promote" || ply.Promotion != Knight {
		t.Fatalf("promotion ply: sound=%q %+v", s.Sound, ply)
	}
	if p := s.Board.Board[0][1]; p == nil || p.Type != Knight || !p.Promoted {
		t.Fatalf("b8: %v", p)
	}
}

func TestGameCounters(t *testing.T) {
	g := NewGame("g")
	for _, req := range []MoveRequest{move("g1", "f3"), move("g8", "f6"), move("f3", "g1")} {
		if err := g.MakeMove("", req); err != nil {
			t.Fatalf("%v: %v", req, err)
		}
	}
	want := "rnbqkb1r/pppppppp/5n2/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 3 2"
	if got := g.FEN(); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	want = "rnbqkb1r/pppppppp/5n2/8/8/5N2/PPPPPPPP/RNBQKB1R w KQkq - 2 2"
	if got := g.FEN(); got != want {
		t.Fatalf("after undo: got %s want %s", got, want)
	}
}

func TestUndoEmpty(t *testing.T) {
	if err := NewGame("g").Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("got %v", err)
	}
}

func TestResign(t *testing.T) {
	g := seatedGame(t)
	if err := g.Resign("carol"); !errors.Is(err, ErrNotInGame) {
		t.Fatalf("outsider resign: %v", err)
	}
	if err := g.Resign("alice"); err != nil {
		t.Fatalf("resign: %v", err)
	}
	s := g.State()
	if s.Resolve == nil || *s.Resolve != ResolveResignation || s.Winner == nil || *s.Winner != Black {
		t.Fatalf("after resign: resolve=%v winner=%v", s.Resolve, s.Winner)
	}
	if err := g.Resign("bob"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("second resign: %v", err)
	}
	if err := g.MakeMove("alice", move("e2", "e4")); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after resign: %v", err)
	}
	if err := g.Undo(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("undo after resign: %v", err)
	}
}

func TestLegalMovesFrom(t *testing.T) {
	g := NewGame("g")
	got, err := g.LegalMovesFrom(sq("b1"))
	if err != nil || len(got) != 2 {
		t.Fatalf("b1: %v %v", got, err)
	}
	if got, err := g.LegalMovesFrom(sq("b8")); err != nil || len(got) != 0 {
		t.Fatalf("black knight on white's turn: %v %v", got, err)
	}
	if _, err := g.LegalMovesFrom(sq("e4")); !errors.Is(err, ErrNoPiece) {
		t.Fatalf("empty square: %v", err)
	}
	if _, err := g.LegalMovesFrom(Square{Row: -1}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("off board: %v", err)
	}
}

func TestGameStateJSON(t *testing.T) {
	g := seatedGame(t)
	if err := g.MakeMove("alice", move("e2", "e4")); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(g.State())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["toMove"] != "black" || decoded["status"] != "normal" {
		t.Fatalf("toMove=%v status=%v", decoded["toMove"], decoded["status"])
	}
	if decoded["fen"] != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Fatalf("fen: %v", decoded["fen"])
	}
	history := decoded["moveHistory"].([]interface{})
	if first := history[0].(map[string]interface{}); first["piece"] != "pawn" {
		t.Fatalf("ply: %v", first)
	}
}

func TestNewGameFromFENStalemate(t *testing.T) {
	g, err := NewGameFromFEN("g", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	s := g.State()
	if s.Status != Stalemate || s.Resolve == nil || *s.Resolve != ResolveStalemate || s.Winner != nil {
		t.Fatalf("status=%s resolve=%v winner=%v", s.Status, s.Resolve, s.Winner)
	}
	if _, err := NewGameFromFEN("g", "nonsense"); !errors.Is(err, ErrInvalidFEN) {
		t.Fatalf("bad fen: %v", err)
	}
}
