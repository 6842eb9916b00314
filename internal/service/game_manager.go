package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/benbeisheim/chessrules/internal/model"
	"github.com/benbeisheim/chessrules/internal/ws"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// GameManager is the registry of running games. Its lock guards the maps
// only; each game serialises its own moves.
type GameManager struct {
	games            map[string]*model.Game
	connections      map[string]*GameConnections
	queue            *model.Queue
	matchingChannels map[string]chan string
	pendingMatches   map[string]ws.MatchFoundEvent
	mu               sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

func NewGameManager(matchInterval time.Duration) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		connections:      make(map[string]*GameConnections),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		pendingMatches:   make(map[string]ws.MatchFoundEvent),
		done:             make(chan struct{}),
	}

	go gm.processMatchmaking(matchInterval)

	return gm
}

// Close stops the matchmaking loop.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() { close(gm.done) })
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// Remove from the map before closing so nothing sends on a closed channel.
	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		log.WithField("player", playerID).Debug("replacing matchmaking channel")
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel forgets ch without closing it; the creator
// owns the channel. The player also leaves the queue. Nothing happens if ch
// has already been replaced by a newer channel for playerID.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; !ok || current != ch {
		return
	}
	delete(gm.matchingChannels, playerID)
	gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) processMatchmaking(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.matchPlayers()
		}
	}
}

// matchPlayers pairs queued players into new games and notifies both sides.
func (gm *GameManager) matchPlayers() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			log.WithError(err).WithField("player", player1.ID).Error("adding matched player")
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			log.WithError(err).WithField("player", player2.ID).Error("adding matched player")
			continue
		}
		gm.games[gameID] = game
		gm.connections[gameID] = NewGameConnections()

		sent1 := gm.deliverMatch(player1.ID, ws.MatchFoundEvent{GameID: gameID, Color: p1Color})
		sent2 := gm.deliverMatch(player2.ID, ws.MatchFoundEvent{GameID: gameID, Color: p2Color})
		log.WithFields(log.Fields{
			"game":     gameID,
			"white":    player1.ID,
			"black":    player2.ID,
			"notified": sent1 && sent2,
		}).Info("match created")
	}
}

// deliverMatch notifies playerID's channel, or parks the event until the
// player next asks to join matchmaking. Callers hold gm.mu.
func (gm *GameManager) deliverMatch(playerID string, event ws.MatchFoundEvent) bool {
	if gm.sendMatchFound(playerID, event) {
		return true
	}
	gm.pendingMatches[playerID] = event
	return false
}

// sendMatchFound delivers event on the player's channel and retires the
// channel. Callers hold gm.mu.
func (gm *GameManager) sendMatchFound(playerID string, event ws.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	delete(gm.matchingChannels, playerID)
	defer close(ch)

	select {
	case ch <- mustJSON(event):
		return true
	default:
		log.WithField("player", playerID).Warn("matchmaking channel not ready")
		return false
	}
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) CreateGame(gameID, fen string) error {
	game := model.NewGame(gameID)
	if fen != "" {
		var err error
		if game, err = model.NewGameFromFEN(gameID, fen); err != nil {
			return err
		}
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, gameID)
	}
	gm.games[gameID] = game
	gm.connections[gameID] = NewGameConnections()
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return game, nil
}

// ListGames returns the IDs of all games in sorted order.
func (gm *GameManager) ListGames() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	ids := make([]string, 0, len(gm.games))
	for id := range gm.games {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.White, err
	}
	color, err := game.AddPlayer(playerID)
	if err != nil {
		return color, err
	}
	gm.broadcast(gameID, game)
	return color, nil
}

// JoinMatchmaking queues playerID. A player matched while no channel was
// listening gets that match back instead of being queued again.
func (gm *GameManager) JoinMatchmaking(playerID string) (*ws.MatchFoundEvent, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if event, ok := gm.pendingMatches[playerID]; ok {
		delete(gm.pendingMatches, playerID)
		return &event, nil
	}
	return nil, gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.State(), nil
}

func (gm *GameManager) LegalMoves(gameID string, from model.Square) ([]model.Square, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMovesFrom(from)
}

func (gm *GameManager) MakeMove(gameID string, playerID string, move model.MoveRequest) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.MakeMove(playerID, move); err != nil {
		return err
	}
	gm.broadcast(gameID, game)
	return nil
}

// Undo takes back the last move. Once both seats are taken only a player of
// the game may ask for it.
func (gm *GameManager) Undo(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if !game.CanSpectate() && !game.IsPlayerInGame(playerID) {
		return model.ErrNotInGame
	}
	if err := game.Undo(); err != nil {
		return err
	}
	gm.broadcast(gameID, game)
	return nil
}

func (gm *GameManager) Resign(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.Resign(playerID); err != nil {
		return err
	}
	gm.broadcast(gameID, game)
	return nil
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if !game.IsPlayerInGame(playerID) && !game.CanSpectate() {
		return ErrNotAuthorized
	}

	gm.mu.RLock()
	conns := gm.connections[gameID]
	gm.mu.RUnlock()

	if !conns.Add(playerID, conn) {
		return ErrDuplicateConnection
	}
	log.WithFields(log.Fields{"game": gameID, "player": playerID}).Info("connection registered")

	conns.Broadcast(game.State())
	return nil
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn Conn) {
	gm.mu.RLock()
	conns, exists := gm.connections[gameID]
	gm.mu.RUnlock()
	if !exists {
		return
	}
	conns.Remove(playerID, conn)
	log.WithFields(log.Fields{"game": gameID, "player": playerID}).Info("connection unregistered")
}

// Notify writes msg to playerID's connection on gameID, if it has one.
func (gm *GameManager) Notify(gameID string, playerID string, msg ws.Message) error {
	gm.mu.RLock()
	conns, exists := gm.connections[gameID]
	gm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return conns.Send(playerID, msg)
}

func (gm *GameManager) broadcast(gameID string, game *model.Game) {
	gm.mu.RLock()
	conns, exists := gm.connections[gameID]
	gm.mu.RUnlock()
	if !exists {
		return
	}
	conns.Broadcast(game.State())
}
