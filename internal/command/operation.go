package command

import (
	"fmt"
	"sort"
)

// Operation identifies the behavior a binding triggers.
type Operation int

const (
	OpNone Operation = iota
	OpControllerButton
	OpControllerTurbo
	OpTouch
	OpMicrophone
	OpPaddle
	OpAutoholdSet
	OpAutoholdClear
	OpRumble
	OpLoadStateSlot
	OpSaveStateSlot
	OpCopyScreen
	OpRotateDisplay
	OpToggleAllDisplays
	OpHoldToggleSpeed
	OpToggleSpeedLimiter
	OpToggleAutoFrameSkip
	OpToggleCheats
	OpToggleExecutePause
	OpCoreExecute
	OpCorePause
	OpFrameAdvance
	OpFrameJump
	OpReset
	OpToggleMute
	OpToggleGPUState
)

var operationNames = map[Operation]string{
	OpNone:                "none",
	OpControllerButton:    "controller-button",
	OpControllerTurbo:     "controller-turbo",
	OpTouch:               "touch",
	OpMicrophone:          "microphone",
	OpPaddle:              "paddle",
	OpAutoholdSet:         "autohold-set",
	OpAutoholdClear:       "autohold-clear",
	OpRumble:              "rumble",
	OpLoadStateSlot:       "load-state-slot",
	OpSaveStateSlot:       "save-state-slot",
	OpCopyScreen:          "copy-screen",
	OpRotateDisplay:       "rotate-display",
	OpToggleAllDisplays:   "toggle-all-displays",
	OpHoldToggleSpeed:     "hold-toggle-speed",
	OpToggleSpeedLimiter:  "toggle-speed-limiter",
	OpToggleAutoFrameSkip: "toggle-auto-frame-skip",
	OpToggleCheats:        "toggle-cheats",
	OpToggleExecutePause:  "toggle-execute-pause",
	OpCoreExecute:         "core-execute",
	OpCorePause:           "core-pause",
	OpFrameAdvance:        "frame-advance",
	OpFrameJump:           "frame-jump",
	OpReset:               "reset",
	OpToggleMute:          "toggle-mute",
	OpToggleGPUState:      "toggle-gpu-state",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// ParseOperation resolves an operation name as produced by String.
func ParseOperation(name string) (Operation, error) {
	for op, n := range operationNames {
		if n == name {
			return op, nil
		}
	}
	return OpNone, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
}

// OperationNames lists every operation name in sorted order.
func OperationNames() []string {
	names := make([]string, 0, len(operationNames))
	for _, n := range operationNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (op Operation) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
