package controller

import "fmt"

const StateSlots = 10

// ConsoleState is the emulator-level state changed by console commands.
type ConsoleState struct {
	Running       bool    `json:"running"`
	Muted         bool    `json:"muted"`
	SpeedLimiter  bool    `json:"speedLimiter"`
	AutoFrameSkip bool    `json:"autoFrameSkip"`
	Cheats        bool    `json:"cheats"`
	AllDisplays   bool    `json:"allDisplays"`
	Rotation      int     `json:"rotation"`
	Speed         float64 `json:"speed"`
	GPUEngines    [2]bool `json:"gpuEngines"`
	LastSlot      int     `json:"lastSlot"`
}

func newConsoleState() ConsoleState {
	return ConsoleState{
		Running:      true,
		SpeedLimiter: true,
		AllDisplays:  true,
		Speed:        1.0,
		GPUEngines:   [2]bool{true, true},
		LastSlot:     -1,
	}
}

type commandEvent struct {
	Command string `json:"command"`
	Value   any    `json:"value,omitempty"`
}

// consoleCommand applies fn to the console state, then publishes the new
// state and the command.
func (t *Target) consoleCommand(name string, value any, fn func(*ConsoleState)) {
	t.update(func() { fn(&t.console) })
	t.publish(CommandTopic+"/"+name, commandEvent{Command: name, Value: value}, false)
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= StateSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}

func (t *Target) LoadStateSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	t.consoleCommand("load-state-slot", slot, func(c *ConsoleState) { c.LastSlot = slot })
	return nil
}

func (t *Target) SaveStateSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	t.consoleCommand("save-state-slot", slot, func(c *ConsoleState) { c.LastSlot = slot })
	return nil
}

func (t *Target) CopyScreen() error {
	t.consoleCommand("copy-screen", nil, func(*ConsoleState) {})
	return nil
}

// RotateDisplay turns the display by degrees, keeping the rotation in
// [0, 360).
func (t *Target) RotateDisplay(degrees int) error {
	t.consoleCommand("rotate-display", degrees, func(c *ConsoleState) {
		c.Rotation = ((c.Rotation+degrees)%360 + 360) % 360
	})
	return nil
}

func (t *Target) ToggleAllDisplays() error {
	t.consoleCommand("toggle-all-displays", nil, func(c *ConsoleState) { c.AllDisplays = !c.AllDisplays })
	return nil
}

func (t *Target) SetSpeedScalar(scalar float64) error {
	if scalar <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScalar, scalar)
	}
	t.consoleCommand("set-speed", scalar, func(c *ConsoleState) { c.Speed = scalar })
	return nil
}

func (t *Target) ToggleSpeedLimiter() error {
	t.consoleCommand("toggle-speed-limiter", nil, func(c *ConsoleState) { c.SpeedLimiter = !c.SpeedLimiter })
	return nil
}

func (t *Target) ToggleAutoFrameSkip() error {
	t.consoleCommand("toggle-auto-frame-skip", nil, func(c *ConsoleState) { c.AutoFrameSkip = !c.AutoFrameSkip })
	return nil
}

func (t *Target) ToggleCheats() error {
	t.consoleCommand("toggle-cheats", nil, func(c *ConsoleState) { c.Cheats = !c.Cheats })
	return nil
}

func (t *Target) ToggleExecutePause() error {
	t.consoleCommand("toggle-execute-pause", nil, func(c *ConsoleState) { c.Running = !c.Running })
	return nil
}

func (t *Target) Execute() error {
	t.consoleCommand("core-execute", nil, func(c *ConsoleState) { c.Running = true })
	return nil
}

func (t *Target) Pause() error {
	t.consoleCommand("core-pause", nil, func(c *ConsoleState) { c.Running = false })
	return nil
}

// FrameAdvance runs a single frame and leaves the core paused.
func (t *Target) FrameAdvance() error {
	t.consoleCommand("frame-advance", nil, func(c *ConsoleState) { c.Running = false })
	return nil
}

func (t *Target) FrameJump(frame int) error {
	if frame < 0 {
		return fmt.Errorf("invalid frame %d", frame)
	}
	t.consoleCommand("frame-jump", frame, func(*ConsoleState) {})
	return nil
}

func (t *Target) Reset() error {
	t.consoleCommand("reset", nil, func(c *ConsoleState) { c.Running = true })
	return nil
}

func (t *Target) ToggleMute() error {
	t.consoleCommand("toggle-mute", nil, func(c *ConsoleState) { c.Muted = !c.Muted })
	return nil
}

func (t *Target) ToggleGPUState(engine int) error {
	if engine < 0 || engine > 1 {
		return fmt.Errorf("%w: %d", ErrInvalidEngine, engine)
	}
	t.consoleCommand("toggle-gpu-state", engine, func(c *ConsoleState) { c.GPUEngines[engine] = !c.GPUEngines[engine] })
	return nil
}
