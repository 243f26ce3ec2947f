package gpio

import (
	"fmt"
	"strconv"
	"strings"
)

// Polarity is the electrical level that means "pressed" or "on".
type Polarity int

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	case ActiveLow:
		return "active-low"
	default:
		return "unknown"
	}
}

// PullMode is the bias applied to an input line.
type PullMode int

const (
	PullAuto PullMode = iota // pull away from the active level
	PullNone
	PullUp
	PullDown
)

func (pm PullMode) String() string {
	switch pm {
	case PullNone:
		return "pull-none"
	case PullUp:
		return "pull-up"
	case PullDown:
		return "pull-down"
	case PullAuto:
		return "pull-auto"
	default:
		return "unknown"
	}
}

// Resolve turns PullAuto into a concrete mode for the given polarity.
func (pm PullMode) Resolve(p Polarity) PullMode {
	if pm != PullAuto {
		return pm
	}
	if p == ActiveHigh {
		return PullDown
	}
	return PullUp
}

// PinSpec is one parsed pin: "GPIO18", "18:active-low" or
// "GPIO18:active-low:pull-up".
type PinSpec struct {
	Line     int
	Polarity Polarity
	Pull     PullMode
}

// Name is the canonical pin name, also used as the element code.
func (ps PinSpec) Name() string {
	return fmt.Sprintf("GPIO%d", ps.Line)
}

func (ps PinSpec) String() string {
	return fmt.Sprintf("%s:%s:%s", ps.Name(), ps.Polarity, ps.Pull)
}

func ParsePin(spec string) (PinSpec, error) {
	parts := strings.Split(spec, ":")

	line, err := ParsePinNumber(strings.TrimSpace(parts[0]))
	if err != nil {
		return PinSpec{}, err
	}

	ps := PinSpec{Line: line, Polarity: ActiveHigh, Pull: PullAuto}
	for _, part := range parts[1:] {
		switch param := strings.ToLower(strings.TrimSpace(part)); param {
		case "active-high":
			ps.Polarity = ActiveHigh
		case "active-low":
			ps.Polarity = ActiveLow
		case "pull-none":
			ps.Pull = PullNone
		case "pull-up":
			ps.Pull = PullUp
		case "pull-down":
			ps.Pull = PullDown
		case "pull-auto":
			ps.Pull = PullAuto
		default:
			return PinSpec{}, fmt.Errorf("%w: unknown pin parameter %q", ErrInvalidPin, param)
		}
	}
	return ps, nil
}

// ParsePinNumber accepts "GPIO16" (any case) or "16".
func ParsePinNumber(name string) (int, error) {
	num := name
	if len(name) > 4 && strings.EqualFold(name[:4], "GPIO") {
		num = name[4:]
	}
	line, err := strconv.Atoi(num)
	if err != nil || line < 0 {
		return 0, fmt.Errorf("%w: %q (expected GPIO<number> or <number>)", ErrInvalidPin, name)
	}
	return line, nil
}
