package gpio

import "errors"

var (
	ErrInvalidPin  = errors.New("invalid GPIO pin")
	ErrPinConfig   = errors.New("failed to configure GPIO pin")
	ErrPinNotFound = errors.New("GPIO pin not found")
	ErrPeriphInit  = errors.New("failed to initialize periph.io")
	ErrNoButtons   = errors.New("no GPIO buttons configured")
)
