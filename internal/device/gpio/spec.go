package gpio

import (
	"fmt"
	"strings"

	"github.com/larsks/inputbridge/internal/device"
)

// Button is one input pin and the element name it reports.
type Button struct {
	Pin  PinSpec
	Name string
}

// Spec describes a GPIO device:
//
//	<code>:<pin>[=<name>],<pin>[=<name>]...[;rumble=<pin>]
//
// for example "dpad:GPIO16=Up,GPIO20:active-low=Down;rumble=GPIO21".
type Spec struct {
	Code    string
	Buttons []Button
	Rumble  *PinSpec
}

func ParseSpec(s string) (Spec, error) {
	code, rest, ok := strings.Cut(s, ":")
	code = strings.TrimSpace(code)
	if !ok || code == "" {
		return Spec{}, fmt.Errorf("%w: %q: expected <code>:<buttons>", device.ErrInvalidSpec, s)
	}

	sections := strings.Split(rest, ";")
	spec := Spec{Code: code}

	seen := make(map[int]bool)
	for _, item := range strings.Split(sections[0], ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		pinPart, name, _ := strings.Cut(item, "=")
		pin, err := ParsePin(pinPart)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %v", device.ErrInvalidSpec, err)
		}
		if seen[pin.Line] {
			return Spec{}, fmt.Errorf("%w: %s used twice", device.ErrInvalidSpec, pin.Name())
		}
		seen[pin.Line] = true

		name = strings.TrimSpace(name)
		if name == "" {
			name = pin.Name()
		}
		spec.Buttons = append(spec.Buttons, Button{Pin: pin, Name: name})
	}
	if len(spec.Buttons) == 0 {
		return Spec{}, fmt.Errorf("%w: %q", ErrNoButtons, s)
	}

	for _, section := range sections[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(section), "=")
		switch strings.ToLower(key) {
		case "rumble":
			pin, err := ParsePin(value)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: rumble: %v", device.ErrInvalidSpec, err)
			}
			if seen[pin.Line] {
				return Spec{}, fmt.Errorf("%w: %s used twice", device.ErrInvalidSpec, pin.Name())
			}
			spec.Rumble = &pin
		default:
			return Spec{}, fmt.Errorf("%w: unknown section %q", device.ErrInvalidSpec, key)
		}
	}
	return spec, nil
}
