package command

import "errors"

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnsupported      = errors.New("target does not support operation")
	ErrNoControl        = errors.New("binding has no control")
)
