package bridge

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidDevice    = errors.New("invalid device")
	ErrInvalidInputJSON = errors.New("invalid input event")
)
