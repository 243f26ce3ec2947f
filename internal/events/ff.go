package events

import "unsafe"

// Force feedback effect types
const (
	FF_RUMBLE   = 0x50
	FF_PERIODIC = 0x51
	FF_CONSTANT = 0x52
	FF_GAIN     = 0x60
	FF_MAX      = 0x7f
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// The kernel's ff_effect union is sized by ff_periodic_effect, which ends in
// a user pointer; its size therefore depends on the word size.
const ffUnionWords = ((20+ptrSize-1)/ptrSize*ptrSize + ptrSize) / ptrSize

type FFTrigger struct {
	Button   uint16
	Interval uint16
}

type FFReplay struct {
	Length uint16 // milliseconds
	Delay  uint16
}

// FFRumble is the payload of an FF_RUMBLE effect.
type FFRumble struct {
	StrongMagnitude uint16
	WeakMagnitude   uint16
}

// FFEffect matches the kernel's struct ff_effect.
type FFEffect struct {
	Type      uint16
	ID        int16
	Direction uint16
	Trigger   FFTrigger
	Replay    FFReplay
	U         [ffUnionWords]uintptr
}

// NewRumbleEffect builds an unregistered (ID -1) rumble effect.
func NewRumbleEffect(strong, weak uint16, length uint16) FFEffect {
	e := FFEffect{
		Type:   FF_RUMBLE,
		ID:     -1,
		Replay: FFReplay{Length: length},
	}
	*(*FFRumble)(unsafe.Pointer(&e.U[0])) = FFRumble{StrongMagnitude: strong, WeakMagnitude: weak}
	return e
}

// Rumble returns the rumble payload of the effect.
func (e *FFEffect) Rumble() FFRumble {
	return *(*FFRumble)(unsafe.Pointer(&e.U[0]))
}

// PlayEvent is written to a device to start (count > 0) or stop (count == 0)
// an uploaded effect.
func PlayEvent(id int16, count int32) InputEvent {
	return InputEvent{Type: uint16(EV_FF), Code: uint16(id), Value: count}
}
