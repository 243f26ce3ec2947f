package evdev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/larsks/inputbridge/internal/events"
	"github.com/larsks/inputbridge/internal/input"
)

var eventSize = int(unsafe.Sizeof(events.InputEvent{}))

// decodeEvents splits a read buffer into input events. Trailing bytes that
// do not form a whole event are an error.
func decodeEvents(buf []byte) ([]events.InputEvent, error) {
	if len(buf)%eventSize != 0 {
		return nil, fmt.Errorf("short read: %d bytes is not a multiple of %d", len(buf), eventSize)
	}

	out := make([]events.InputEvent, len(buf)/eventSize)
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func elementKey(typ events.EventType, code uint16) uint32 {
	return uint32(typ)<<16 | uint32(code)
}

// ButtonElement describes a key or button code.
func ButtonElement(code uint16) input.Element {
	return input.Element{
		Code: fmt.Sprintf("BTN_%d", code),
		Name: events.GetKeyName(code),
		Type: input.Button,
		Min:  0,
		Max:  1,
	}
}

// AxisElement describes an absolute axis from its kernel range. Hats are
// reported as such so that they always encode as digital halves.
func AxisElement(code uint16, info events.AbsInfo) input.Element {
	el := input.Element{
		Code:          fmt.Sprintf("ABS_%d", code),
		Name:          events.GetAbsName(code),
		Type:          input.Axis,
		Min:           info.Minimum,
		Max:           info.Maximum,
		Bidirectional: info.Minimum < 0,
	}
	if events.IsHat(code) {
		el.Type = input.Hat
		el.Bidirectional = true
	}
	return el
}

// frameDecoder collects element values between SYN_REPORT events.
type frameDecoder struct {
	deviceCode string
	deviceName string
	elements   map[uint32]input.Element
	pending    []input.ElementValue
	dropping   bool
}

func newFrameDecoder(code, name string, elements []input.Element, keys []uint32) *frameDecoder {
	d := &frameDecoder{
		deviceCode: code,
		deviceName: name,
		elements:   make(map[uint32]input.Element, len(elements)),
	}
	for i, el := range elements {
		d.elements[keys[i]] = el
	}
	return d
}

// feed consumes one event and returns the values of a completed frame.
func (d *frameDecoder) feed(ev events.InputEvent) []input.ElementValue {
	switch events.EventType(ev.Type) {
	case events.EV_SYN:
		switch ev.Code {
		case events.SYN_REPORT:
			if d.dropping {
				// the frame after SYN_DROPPED is incomplete
				d.dropping = false
				d.pending = nil
				return nil
			}
			out := d.pending
			d.pending = nil
			return out
		case events.SYN_DROPPED:
			d.dropping = true
			d.pending = nil
		}
		return nil

	case events.EV_KEY:
		if ev.Value == events.KEY_REPEATED {
			return nil
		}
	case events.EV_ABS:
	default:
		return nil
	}

	if d.dropping {
		return nil
	}
	el, ok := d.elements[elementKey(events.EventType(ev.Type), ev.Code)]
	if !ok {
		return nil
	}
	d.pending = append(d.pending, input.ElementValue{
		DeviceCode: d.deviceCode,
		DeviceName: d.deviceName,
		Element:    el,
		Value:      ev.Value,
	})
	return nil
}
