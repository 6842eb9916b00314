package service

import (
	"encoding/json"
	"sync"

	"github.com/apex/log"
	"github.com/benbeisheim/chessrules/internal/model"
	"github.com/benbeisheim/chessrules/internal/ws"
)

// Conn is the part of a websocket connection the server writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// GameConnections holds the live connections watching one game. Writes are
// serialised under mu because a websocket connection allows one writer.
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.Mutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// Add registers conn for playerID. A second connection for the same player
// is refused so the first one keeps receiving updates.
func (gc *GameConnections) Add(playerID string, conn Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if _, exists := gc.connections[playerID]; exists {
		return false
	}
	gc.connections[playerID] = conn
	return true
}

// Remove drops playerID's connection if it is still conn.
func (gc *GameConnections) Remove(playerID string, conn Conn) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if current, exists := gc.connections[playerID]; exists && current == conn {
		delete(gc.connections, playerID)
	}
}

func (gc *GameConnections) Len() int {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return len(gc.connections)
}

// Broadcast sends state to every connection. Connections that fail to
// accept the write are dropped.
func (gc *GameConnections) Broadcast(state model.GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.WithError(err).WithField("game", state.ID).Error("failed to marshal game state")
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	gc.mu.Lock()
	defer gc.mu.Unlock()
	for playerID, conn := range gc.connections {
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"game":   state.ID,
				"player": playerID,
			}).Warn("dropping connection after failed write")
			delete(gc.connections, playerID)
			continue
		}
	}
}

// Send writes msg to playerID only.
func (gc *GameConnections) Send(playerID string, msg ws.Message) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	conn, ok := gc.connections[playerID]
	if !ok {
		return nil
	}
	return conn.WriteJSON(msg)
}
