package effects

import "errors"

// Effect loading errors
var (
	ErrUnsupportedFormat = errors.New("unsupported effect file format")
	ErrInvalidFile       = errors.New("invalid effect file")
	ErrEmptyEffect       = errors.New("effect file contains no samples")
	ErrNotLoaded         = errors.New("effect not loaded")
)
