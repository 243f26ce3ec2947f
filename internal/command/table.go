package command

import "fmt"

// Func implements one operation.
type Func func(b Binding, inv Invocation, target Target) error

// Mode tells the dispatcher whether an operation may block.
type Mode int

const (
	Inline Mode = iota
	Async
)

type entry struct {
	fn   Func
	mode Mode
}

var table = map[Operation]entry{
	OpNone:             {noop, Inline},
	OpControllerButton: {controllerButton, Inline},
	OpControllerTurbo:  {controllerTurbo, Inline},
	OpTouch:            {touch, Inline},
	OpMicrophone:       {microphone, Inline},
	OpPaddle:           {paddle, Inline},
	OpAutoholdSet:      {autoholdSet, Inline},
	OpAutoholdClear:    {autoholdClear, Inline},
	OpRumble:           {rumble, Async},
	OpHoldToggleSpeed:  {holdToggleSpeed, Inline},

	OpLoadStateSlot:       {oneShot(func(c Console, b Binding) error { return c.LoadStateSlot(b.IntValue) }), Async},
	OpSaveStateSlot:       {oneShot(func(c Console, b Binding) error { return c.SaveStateSlot(b.IntValue) }), Async},
	OpCopyScreen:          {oneShot(func(c Console, _ Binding) error { return c.CopyScreen() }), Inline},
	OpRotateDisplay:       {oneShot(func(c Console, b Binding) error { return c.RotateDisplay(b.IntValue) }), Inline},
	OpToggleAllDisplays:   {oneShot(func(c Console, _ Binding) error { return c.ToggleAllDisplays() }), Inline},
	OpToggleSpeedLimiter:  {oneShot(func(c Console, _ Binding) error { return c.ToggleSpeedLimiter() }), Inline},
	OpToggleAutoFrameSkip: {oneShot(func(c Console, _ Binding) error { return c.ToggleAutoFrameSkip() }), Inline},
	OpToggleCheats:        {oneShot(func(c Console, _ Binding) error { return c.ToggleCheats() }), Inline},
	OpToggleExecutePause:  {oneShot(func(c Console, _ Binding) error { return c.ToggleExecutePause() }), Inline},
	OpCoreExecute:         {oneShot(func(c Console, _ Binding) error { return c.Execute() }), Inline},
	OpCorePause:           {oneShot(func(c Console, _ Binding) error { return c.Pause() }), Inline},
	OpFrameAdvance:        {oneShot(func(c Console, _ Binding) error { return c.FrameAdvance() }), Inline},
	OpFrameJump:           {oneShot(func(c Console, b Binding) error { return c.FrameJump(b.IntValue) }), Inline},
	OpReset:               {oneShot(func(c Console, _ Binding) error { return c.Reset() }), Inline},
	OpToggleMute:          {oneShot(func(c Console, _ Binding) error { return c.ToggleMute() }), Inline},
	OpToggleGPUState:      {oneShot(func(c Console, b Binding) error { return c.ToggleGPUState(b.IntValue) }), Inline},
}

// Lookup returns the implementation of op.
func Lookup(op Operation) (Func, Mode, error) {
	e, ok := table[op]
	if !ok {
		return nil, Inline, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return e.fn, e.mode, nil
}
