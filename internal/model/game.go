package model

import (
	"fmt"
	"sync"

	"github.com/apex/log"
)

const (
	ResolveCheckmate   = "checkmate"
	ResolveStalemate   = "stalemate"
	ResolveResignation = "resignation"
)

// The Game wraps a board with turn order, players and history. Its mutex is
// the only thing that makes the board safe to share between connections.
type Game struct {
	ID       string
	mu       sync.Mutex
	board    *Board
	toMove   Color
	halfmove int
	fullmove int
	status   Status
	resolve  *string
	winner   *Color
	players  Players
	sound    string
	history  []historyEntry
}

type historyEntry struct {
	move         Move
	ply          Ply
	prevHalfmove int
}

type GameState struct {
	ID             string         `json:"id"`
	Sound          string         `json:"sound"`
	Board          BoardState     `json:"boardState"`
	ToMove         Color          `json:"toMove"`
	MoveHistory    []Ply          `json:"moveHistory"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	IsCheck        bool           `json:"isCheck"`
	Status         Status         `json:"status"`
	Resolve        *string        `json:"resolve"`
	Winner         *Color         `json:"winner"`
	Players        Players        `json:"players"`
	LastMove       *SimpleMove    `json:"lastMove"`
	FEN            string         `json:"fen"`
}

type BoardState struct {
	Board             [boardSize][boardSize]*Piece `json:"board"`
	WhiteKingPosition Square                       `json:"whiteKingPosition"`
	BlackKingPosition Square                       `json:"blackKingPosition"`
}

// CapturedPieces lists, per colour, the enemy pieces that colour has taken.
type CapturedPieces struct {
	White []PieceType `json:"white"`
	Black []PieceType `json:"black"`
}

func NewGame(id string) *Game {
	return newGame(id, fenRecord{board: NewBoard(), turn: White, fullmove: 1})
}

// NewGameFromFEN starts a game from an arbitrary position.
func NewGameFromFEN(id, fen string) (*Game, error) {
	rec, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newGame(id, rec), nil
}

func newGame(id string, rec fenRecord) *Game {
	g := &Game{
		ID:       id,
		board:    rec.board,
		toMove:   rec.turn,
		halfmove: rec.halfmove,
		fullmove: rec.fullmove,
		players: Players{
			White: ClientPlayer{Color: White},
			Black: ClientPlayer{Color: Black},
		},
	}
	g.updateStatus()
	return g
}

func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.players.colorOf(playerID); ok {
		return c, nil
	}
	if g.players.White.ID == "" {
		g.players.White.ID = playerID
		return White, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black.ID = playerID
		return Black, nil
	}
	return White, ErrGameFull
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.players.colorOf(playerID)
	return ok
}

// CanSpectate reports whether a connection that is not a player may watch:
// only while a seat is still open.
func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.players.White.ID == "" || g.players.Black.ID == ""
}

func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state()
}

func (g *Game) FEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.board.fen(g.toMove, g.halfmove, g.fullmove)
}

// LegalMovesFrom returns the destinations of the piece on sq. A piece whose
// side is not on move, or any piece once the game is over, has none.
func (g *Game) LegalMovesFrom(sq Square) ([]Square, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !sq.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, sq)
	}
	p, ok := g.board.PieceAt(sq)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPiece, sq)
	}
	targets := make([]Square, 0)
	if p.Color != g.toMove || g.isOver() {
		return targets, nil
	}
	for _, m := range g.board.LegalMoves(p.ID, true) {
		targets = append(targets, m.To)
	}
	return targets, nil
}

func (g *Game) MakeMove(playerID string, req MoveRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.isOver() {
		return ErrGameOver
	}
	if !req.From.Valid() || !req.To.Valid() {
		return fmt.Errorf("%w: %s-%s", ErrOutOfBounds, req.From, req.To)
	}
	p, ok := g.board.PieceAt(req.From)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPiece, req.From)
	}
	if p.Color != g.toMove {
		return ErrNotYourTurn
	}
	if seat := g.players.seat(g.toMove); seat.ID != "" && seat.ID != playerID {
		return ErrNotYourTurn
	}
	if req.Promotion != NoPieceType && !req.Promotion.CanPromoteTo() {
		return fmt.Errorf("%w: %s", ErrInvalidPromotion, req.Promotion)
	}

	want := req.moveFor(p.ID)
	for _, m := range g.board.LegalMoves(p.ID, true) {
		if m.Equal(want) {
			g.execute(m, req.Promotion)
			return nil
		}
	}
	return fmt.Errorf("%w: %s-%s", ErrIllegalMove, req.From, req.To)
}

func (g *Game) execute(m Move, promotion PieceType) {
	mover := g.board.Piece(m.Piece)
	ply := Ply{Piece: mover.Type, Color: mover.Color, From: m.From, To: m.To}
	sound := "move"
	if m.IsCapture() {
		t := g.board.Piece(m.Captured).Type
		ply.CapturedPiece = &t
		sound = "capture"
	}
	if isCastle(mover.Type, m.From, m.To) {
		from, to := castleRookSquares(m.From, m.To)
		ply.CastleRookMove = &CastleRookMove{From: from, To: to}
		sound = "castle"
	}

	g.board.ApplyOfficialMove(m, promotion)

	if after := g.board.Piece(m.Piece); after.Type != mover.Type {
		ply.Promotion = after.Type
		sound = "promote"
	}
	g.history = append(g.history, historyEntry{move: m, ply: ply, prevHalfmove: g.halfmove})
	if mover.Type == Pawn || m.IsCapture() {
		g.halfmove = 0
	} else {
		g.halfmove++
	}
	if g.toMove == Black {
		g.fullmove++
	}
	g.toMove = g.toMove.Opposite()
	g.updateStatus()
	if g.status == Check || g.status == Checkmate {
		sound = "check"
	}
	g.sound = sound

	log.WithFields(log.Fields{
		"game":   g.ID,
		"move":   m.String(),
		"status": g.status.String(),
	}).Debug("move applied")
}

// Undo takes back the last move. A resigned game cannot be undone.
func (g *Game) Undo() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolve != nil && *g.resolve == ResolveResignation {
		return ErrGameOver
	}
	n := len(g.history)
	if n == 0 {
		return ErrNothingToUndo
	}
	last := g.history[n-1]
	g.history = g.history[:n-1]
	g.board.RevertMove(last.move)

	g.toMove = g.toMove.Opposite()
	if g.toMove == Black {
		g.fullmove--
	}
	g.halfmove = last.prevHalfmove
	g.sound = ""
	g.updateStatus()

	log.WithFields(log.Fields{"game": g.ID, "move": last.move.String()}).Debug("move undone")
	return nil
}

func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.players.colorOf(playerID)
	if !ok {
		return ErrNotInGame
	}
	if g.isOver() {
		return ErrGameOver
	}
	result := ResolveResignation
	winner := c.Opposite()
	g.resolve = &result
	g.winner = &winner
	g.sound = ""
	return nil
}

func (g *Game) isOver() bool {
	return g.resolve != nil
}

func (g *Game) updateStatus() {
	g.status = g.board.Status(g.toMove)
	g.resolve = nil
	g.winner = nil
	switch g.status {
	case Checkmate:
		result := ResolveCheckmate
		winner := g.toMove.Opposite()
		g.resolve = &result
		g.winner = &winner
	case Stalemate:
		result := ResolveStalemate
		g.resolve = &result
	}
}

func (g *Game) state() GameState {
	s := GameState{
		ID:             g.ID,
		Sound:          g.sound,
		Board:          g.boardState(),
		ToMove:         g.toMove,
		MoveHistory:    make([]Ply, 0, len(g.history)),
		CapturedPieces: CapturedPieces{White: make([]PieceType, 0), Black: make([]PieceType, 0)},
		IsCheck:        g.status == Check || g.status == Checkmate,
		Status:         g.status,
		Resolve:        g.resolve,
		Winner:         g.winner,
		Players:        g.players,
		FEN:            g.board.fen(g.toMove, g.halfmove, g.fullmove),
	}
	for _, e := range g.history {
		s.MoveHistory = append(s.MoveHistory, e.ply)
	}
	if n := len(g.history); n > 0 {
		last := g.history[n-1].move
		s.LastMove = &SimpleMove{From: last.From, To: last.To}
	}
	for _, p := range g.board.pieces {
		if !p.Captured {
			continue
		}
		if p.Color == Black {
			s.CapturedPieces.White = append(s.CapturedPieces.White, p.Type)
		} else {
			s.CapturedPieces.Black = append(s.CapturedPieces.Black, p.Type)
		}
	}
	return s
}

func (g *Game) boardState() BoardState {
	var bs BoardState
	for r := range g.board.grid {
		for c, id := range g.board.grid[r] {
			if id != NoPiece {
				p := g.board.pieces[id]
				bs.Board[r][c] = &p
			}
		}
	}
	bs.WhiteKingPosition = g.board.King(White).Square
	bs.BlackKingPosition = g.board.King(Black).Square
	return bs
}
