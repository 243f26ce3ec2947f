package device

import "errors"

var (
	ErrDriverExists   = errors.New("device driver already registered")
	ErrUnknownDriver  = errors.New("unknown device driver")
	ErrInvalidSpec    = errors.New("invalid device specification")
	ErrInvalidOption  = errors.New("invalid device option")
	ErrSessionState   = errors.New("session is not in the required state")
	ErrUnknownSession = errors.New("unknown session")
)
