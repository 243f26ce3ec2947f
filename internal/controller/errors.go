package controller

import "errors"

var (
	ErrInvalidPeriod = errors.New("turbo period must be greater than 0")
	ErrInvalidSlot   = errors.New("state slot out of range")
	ErrInvalidScalar = errors.New("speed scalar must be greater than 0")
	ErrInvalidEngine = errors.New("unknown GPU engine")
	ErrNoRumble      = errors.New("no force feedback devices")
)

var (
	ErrAlreadyRunning = errors.New("turbo oscillator is already running")
	ErrNotRunning     = errors.New("turbo oscillator is not running")
)
