package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/benbeisheim/chessrules/internal/model"
	"github.com/benbeisheim/chessrules/internal/service"
	"github.com/benbeisheim/chessrules/internal/ws"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection serves /ws/game/:gameId until the client goes away.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)
	logger := log.WithFields(log.Fields{"game": gameID, "player": playerID})

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		logger.WithError(err).Warn("failed to register connection")
		writeJSON(logger, c, ws.ErrorMessage(err.Error()), "registration error")
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.WithError(err).Debug("read loop finished")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.WithError(err).Debug("unparseable message")
			wsc.sendError(gameID, playerID, "invalid message")
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			logger.WithError(err).WithField("type", string(msg.Type)).Debug("message rejected")
			wsc.sendError(gameID, playerID, err.Error())
		}
	}
}

func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		return wsc.gameService.HandleMove(gameID, playerID, move)
	case ws.MessageTypeUndo:
		return wsc.gameService.Undo(gameID, playerID)
	case ws.MessageTypeResign:
		return wsc.gameService.Resign(gameID, playerID)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(gameID, playerID, text string) {
	if err := wsc.gameService.SendError(gameID, playerID, text); err != nil {
		log.WithError(err).WithField("player", playerID).Warn("failed to send error")
	}
}

// HandleMatchmaking serves /ws/matchmaking: the player is queued and the
// connection receives one matchFound message once paired.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := c.Locals("playerID").(string)
	logger := log.WithField("player", playerID)

	matches := make(chan string, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, matches); err != nil {
		logger.WithError(err).Warn("failed to register matchmaking channel")
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, matches)

	// A replacement socket finds the player still queued and keeps waiting.
	match, err := wsc.gameService.JoinMatchmaking(playerID)
	if err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		writeJSON(logger, c, ws.ErrorMessage(err.Error()), "matchmaking error")
		return
	}
	if match != nil {
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, match)
		if err != nil {
			logger.WithError(err).Error("encoding match")
			return
		}
		writeJSON(logger, c, msg, "match")
		return
	}

	// The read loop only detects a client that leaves the queue.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case payload, ok := <-matches:
		if !ok {
			return
		}
		writeJSON(logger, c, ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(payload)}, "match")
	case <-gone:
		logger.Debug("left matchmaking")
	}
}

// writeJSON writes msg on a connection the game registry does not own and
// logs a failed write.
func writeJSON(logger *log.Entry, conn service.Conn, msg ws.Message, what string) bool {
	if err := conn.WriteJSON(msg); err != nil {
		logger.WithError(err).WithField("message", what).Warn("websocket write failed")
		return false
	}
	return true
}
