package api

import "errors"

// Request errors
var (
	ErrInvalidKey    = errors.New("invalid mapping key")
	ErrUnknownDevice = errors.New("unknown device")
	ErrNoEffectsDir  = errors.New("no effects directory configured")
)

// Persistence errors
var (
	ErrSaveMappings = errors.New("failed to save mappings")
)
