package service

import "errors"

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrGameExists          = errors.New("game already exists")
	ErrNotAuthorized       = errors.New("not authorized to join this game")
	ErrDuplicateConnection = errors.New("connection already exists")
)
