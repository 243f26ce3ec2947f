package command

import (
	"fmt"
	"strings"
)

// ControlID identifies one input of the emulated console's controller.
type ControlID int

// NoControl marks a binding that does not drive a controller input.
const NoControl ControlID = -1

const (
	ControlRight ControlID = iota
	ControlLeft
	ControlDown
	ControlUp
	ControlSelect
	ControlStart
	ControlB
	ControlA
	ControlY
	ControlX
	ControlL
	ControlR
	ControlDebug
	ControlLid
	ControlTouch
	ControlMicrophone
	ControlPaddle
)

var controlNames = []string{
	"right", "left", "down", "up", "select", "start",
	"b", "a", "y", "x", "l", "r",
	"debug", "lid", "touch", "microphone", "paddle",
}

// ControlCount is the number of controller inputs.
var ControlCount = len(controlNames)

func (c ControlID) String() string {
	if c >= 0 && int(c) < len(controlNames) {
		return controlNames[c]
	}
	if c == NoControl {
		return "none"
	}
	return fmt.Sprintf("control(%d)", int(c))
}

// ParseControl resolves a control name; "" and "none" yield NoControl.
func ParseControl(name string) (ControlID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return NoControl, nil
	}
	for i, n := range controlNames {
		if n == name {
			return ControlID(i), nil
		}
	}
	return NoControl, fmt.Errorf("unknown control: %s", name)
}

func (c ControlID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ControlID) UnmarshalText(text []byte) error {
	parsed, err := ParseControl(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
