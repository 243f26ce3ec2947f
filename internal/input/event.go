// Package input holds the canonical input event model and the encoder that
// turns keyboard, mouse and device element notifications into it.
package input

import (
	"fmt"
	"strings"
)

// Kind classifies an Event.
type Kind int

const (
	Digital Kind = iota
	Analog
	Location
)

func (k Kind) String() string {
	switch k {
	case Digital:
		return "digital"
	case Analog:
		return "analog"
	case Location:
		return "location"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a kind name. An empty name is Digital.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "digital":
		return Digital, nil
	case "analog":
		return Analog, nil
	case "location":
		return Location, nil
	}
	return Digital, fmt.Errorf("unknown event kind: %s", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Device codes used for host input.
const (
	KeyboardDevice = "keyboard"
	MouseDevice    = "mouse"
)

// Event is one normalized input notification. Value is in [-1, 1] for
// bidirectional analog elements and [0, 1] for unidirectional ones.
type Event struct {
	DeviceCode  string  `json:"deviceCode"`
	DeviceName  string  `json:"deviceName,omitempty"`
	ElementCode string  `json:"elementCode"`
	ElementName string  `json:"elementName,omitempty"`
	Kind        Kind    `json:"kind"`
	Pressed     bool    `json:"pressed"`
	Value       float64 `json:"value"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Key returns the mapping key of the event.
func (e Event) Key() string {
	return Key(e.DeviceCode, e.ElementCode)
}

// Key builds a mapping key in "<deviceCode>:<elementCode>" form.
func Key(deviceCode, elementCode string) string {
	return deviceCode + ":" + elementCode
}

// SplitKey separates a mapping key into device and element codes. Device
// codes may not contain a colon; element codes may.
func SplitKey(key string) (deviceCode, elementCode string, ok bool) {
	deviceCode, elementCode, ok = strings.Cut(key, ":")
	if !ok || deviceCode == "" || elementCode == "" {
		return "", "", false
	}
	return deviceCode, elementCode, true
}
