package command

import "github.com/larsks/inputbridge/internal/effects"

// Target is the emulator instance operations act on. Operations reach it
// through the capability interfaces below; the dispatch engine never
// inspects it.
type Target any

// Controller is the emulated console's controller.
type Controller interface {
	SetButton(control ControlID, pressed bool)
	Button(control ControlID) bool
	SetTurbo(control ControlID, held bool)
	SetAutoholdMode(active bool)
	LatchAutohold(control ControlID)
	ClearAutohold()
	SetTouch(x, y float64, pressed bool)
	SetPaddle(value float64)
}

// Microphone accepts sample streams for the emulated microphone.
type Microphone interface {
	StartMicrophone(g *effects.Generator)
	StopMicrophone()
}

// Rumbler drives force feedback on connected devices.
type Rumbler interface {
	StartRumble(iterations int) error
	StopRumble() error
}

// Console exposes emulator-level operations.
type Console interface {
	LoadStateSlot(slot int) error
	SaveStateSlot(slot int) error
	CopyScreen() error
	RotateDisplay(degrees int) error
	ToggleAllDisplays() error
	SetSpeedScalar(scalar float64) error
	ToggleSpeedLimiter() error
	ToggleAutoFrameSkip() error
	ToggleCheats() error
	ToggleExecutePause() error
	Execute() error
	Pause() error
	FrameAdvance() error
	FrameJump(frame int) error
	Reset() error
	ToggleMute() error
	ToggleGPUState(engine int) error
}
