package audio

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrUnknownParam   = errors.New("unknown param")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidNote    = errors.New("invalid note")
	ErrInvalidValue   = errors.New("invalid value")
)
