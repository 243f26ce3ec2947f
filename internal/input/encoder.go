package input

import (
	"math"
	"strconv"
	"sync"

	"github.com/larsks/inputbridge/internal/events"
)

// DefaultThreshold is the fraction of an axis half-range that must be
// exceeded before a force-digital sub-element reads as pressed.
const DefaultThreshold = 0.5

// Suffixes of the two digital halves of a split axis.
const (
	PlusSuffix  = "+"
	MinusSuffix = "-"
)

type side int

const (
	centre side = iota
	plus
	minus
)

func (s side) suffix() string {
	if s == minus {
		return MinusSuffix
	}
	return PlusSuffix
}

// Encoder converts host and device notifications into Events. It is safe for
// use from many device goroutines at once.
//
// Split-axis state is tracked per queue, so two devices reporting the same
// device code never see each other's transitions.
type Encoder struct {
	threshold float64
	mu        sync.Mutex
	sides     map[Queue]map[string]side
}

// NewEncoder creates an Encoder. A threshold outside (0, 1) selects
// DefaultThreshold.
func NewEncoder(threshold float64) *Encoder {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Encoder{
		threshold: threshold,
		sides:     make(map[Queue]map[string]side),
	}
}

// EncodeKeyboardInput encodes a host key transition.
func (e *Encoder) EncodeKeyboardInput(keyCode int, pressed bool) Event {
	ev := Event{
		DeviceCode:  KeyboardDevice,
		DeviceName:  "Keyboard",
		ElementCode: strconv.Itoa(keyCode),
		Kind:        Digital,
		Pressed:     pressed,
	}
	if keyCode >= 0 && keyCode <= math.MaxUint16 {
		ev.ElementName = events.GetKeyName(uint16(keyCode))
	}
	if pressed {
		ev.Value = 1
	}
	return ev
}

// EncodeMouseInput encodes a mouse button transition at a screen location.
func (e *Encoder) EncodeMouseInput(button int, x, y float64, pressed bool) Event {
	ev := Event{
		DeviceCode:  MouseDevice,
		DeviceName:  "Mouse",
		ElementCode: strconv.Itoa(button),
		ElementName: "Button " + strconv.Itoa(button),
		Kind:        Location,
		Pressed:     pressed,
		X:           x,
		Y:           y,
	}
	if pressed {
		ev.Value = 1
	}
	return ev
}

// EncodeDeviceQueue drains q and encodes every pending value in arrival
// order. Values with malformed element descriptors produce no events.
func (e *Encoder) EncodeDeviceQueue(q Queue, forceDigitalInput bool) []Event {
	if q == nil {
		return nil
	}

	var out []Event
	for _, v := range q.Drain() {
		out = append(out, e.encodeValue(q, v, forceDigitalInput)...)
	}
	return out
}

// Forget discards the split-axis state kept for q, so that a reconnecting
// device starts from centre.
func (e *Encoder) Forget(q Queue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sides, q)
}

// ClearQueue discards every pending value in q.
func ClearQueue(q Queue) {
	if q != nil {
		q.Drain()
	}
}

func (e *Encoder) encodeValue(q Queue, v ElementValue, forceDigital bool) []Event {
	el := v.Element
	if v.DeviceCode == "" || el.Code == "" {
		return nil
	}

	base := Event{
		DeviceCode:  v.DeviceCode,
		DeviceName:  v.DeviceName,
		ElementCode: el.Code,
		ElementName: el.Name,
	}

	switch el.Type {
	case Button:
		base.Kind = Digital
		base.Pressed = v.Value != 0
		if base.Pressed {
			base.Value = 1
		}
		return []Event{base}

	case Axis, Hat:
		if el.Max <= el.Min {
			return nil
		}
		if el.Type == Hat || forceDigital {
			return e.split(q, base, el, v.Value)
		}
		base.Kind = Analog
		base.Value = Normalize(el, v.Value)
		base.Pressed = math.Abs(base.Value) >= 0.5
		return []Event{base}
	}

	return nil
}

func (e *Encoder) split(q Queue, base Event, el Element, raw int32) []Event {
	offset := midpointOffset(el, raw)

	next := centre
	switch {
	case offset >= e.threshold:
		next = plus
	case offset <= -e.threshold:
		next = minus
	}

	key := base.Key()
	e.mu.Lock()
	sides := e.sides[q]
	prev := sides[key]
	if prev == next {
		e.mu.Unlock()
		return nil
	}
	switch {
	case next == centre:
		delete(sides, key)
	case sides == nil:
		e.sides[q] = map[string]side{key: next}
	default:
		sides[key] = next
	}
	e.mu.Unlock()

	var out []Event
	if prev != centre {
		out = append(out, halfEvent(base, prev, false))
	}
	if next != centre {
		out = append(out, halfEvent(base, next, true))
	}
	return out
}

func halfEvent(base Event, s side, pressed bool) Event {
	ev := base
	ev.ElementCode += s.suffix()
	if ev.ElementName != "" {
		ev.ElementName += s.suffix()
	}
	ev.Kind = Digital
	ev.Pressed = pressed
	ev.Value = 0
	if pressed {
		ev.Value = 1
	}
	return ev
}

// Normalize maps a raw element value onto [-1, 1] for bidirectional elements
// and [0, 1] for unidirectional ones.
func Normalize(el Element, raw int32) float64 {
	if el.Max <= el.Min {
		return 0
	}
	n := (float64(raw) - float64(el.Min)) / (float64(el.Max) - float64(el.Min))
	n = math.Max(0, math.Min(1, n))
	if el.Bidirectional {
		return 2*n - 1
	}
	return n
}

// midpointOffset is the signed distance of raw from the middle of the
// element range, in [-1, 1].
func midpointOffset(el Element, raw int32) float64 {
	bidi := el
	bidi.Bidirectional = true
	return Normalize(bidi, raw)
}
