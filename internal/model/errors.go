package model

import "errors"

var (
	ErrGameFull         = errors.New("game is full")
	ErrGameOver         = errors.New("game is over")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNotInGame        = errors.New("player not in game")
	ErrOutOfBounds      = errors.New("square out of bounds")
	ErrNoPiece          = errors.New("no piece at from square")
	ErrIllegalMove      = errors.New("illegal move")
	ErrInvalidPromotion = errors.New("invalid promotion piece")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrAlreadyQueued    = errors.New("player already in queue")
)
