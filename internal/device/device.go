// Package device connects physical input devices to the encoder. A Session
// owns one Device for its lifetime: it reads element values, encodes them
// and hands the resulting events to a sink, and drives the device's
// force-feedback actuator when it has one.
package device

import (
	"context"

	"github.com/larsks/inputbridge/internal/input"
)

// EffectID identifies a force-feedback effect uploaded to an actuator.
type EffectID int16

// Device is an open input device.
type Device interface {
	// Identifier is unique among connected devices, such as a device path.
	Identifier() string
	// Code is the stable device code used in mapping keys.
	Code() string
	Name() string
	// Poll blocks until element values have been queued or ctx is done.
	Poll(ctx context.Context) error
	Queue() input.Queue
	// Actuator returns nil when the device has no force feedback.
	Actuator() Actuator
	Close() error
}

// ElementLister is implemented by devices that enumerate their buttons and
// axes when opened.
type ElementLister interface {
	Elements() []input.Element
}

// Actuator plays force-feedback effects on a device.
type Actuator interface {
	Start(iterations, flags uint32) (EffectID, error)
	Stop(EffectID) error
	Release(EffectID) error
}

// Capabilities are probed once when a session is created.
type Capabilities struct {
	ForceFeedback bool `json:"forceFeedback"`
}

// Sink receives each encoded batch. It is called with the session lock
// held and must not block.
type Sink func(events []input.Event)

// Actuator flags.
const (
	// RepeatUntilStopped plays an effect until Stop is called, ignoring the
	// iteration count.
	RepeatUntilStopped uint32 = 1 << iota
)
