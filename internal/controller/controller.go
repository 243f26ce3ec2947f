// Package controller is the emulated console the dispatch engine drives. It
// keeps the virtual controller and console state, publishes every change,
// and forwards rumble to connected devices.
package controller

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/larsks/inputbridge/internal/command"
	"github.com/larsks/inputbridge/internal/effects"
	"github.com/larsks/inputbridge/internal/mqtt"
)

const DefaultTurboPeriod = 66 * time.Millisecond

// Publisher sends JSON notifications to a subtopic.
type Publisher interface {
	PublishJSON(subtopic string, v any, retained bool) error
}

// ForceFeedback starts and stops effects on connected devices.
type ForceFeedback interface {
	StartForceFeedback(iterations, flags uint32) error
	StopForceFeedback() error
}

const (
	StateTopic   = "controller/state"
	CommandTopic = "command"
)

// Touch is the touch screen position.
type Touch struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Pressed bool    `json:"pressed"`
}

// State is a snapshot of the virtual controller and console.
type State struct {
	Buttons      map[string]bool `json:"buttons"`
	Autohold     []string        `json:"autohold,omitempty"`
	AutoholdMode bool            `json:"autoholdMode"`
	Touch        Touch           `json:"touch"`
	Paddle       float64         `json:"paddle"`
	Microphone   string          `json:"microphone,omitempty"`
	Console      ConsoleState    `json:"console"`
}

// Target implements every command capability.
type Target struct {
	publisher Publisher
	rumble    ForceFeedback

	mu           sync.Mutex
	held         []bool
	latched      []bool
	turboHeld    []bool
	turboPhase   bool
	autoholdMode bool
	touch        Touch
	paddle       float64
	mic          *effects.Stream
	console      ConsoleState

	turboMu sync.Mutex
	turbo   *oscillator
}

var (
	_ command.Controller = (*Target)(nil)
	_ command.Microphone = (*Target)(nil)
	_ command.Rumbler    = (*Target)(nil)
	_ command.Console    = (*Target)(nil)
)

type Option func(*Target)

// WithPublisher publishes state and console commands through p.
func WithPublisher(p Publisher) Option {
	return func(t *Target) { t.publisher = p }
}

// WithForceFeedback forwards rumble commands to ff.
func WithForceFeedback(ff ForceFeedback) Option {
	return func(t *Target) { t.rumble = ff }
}

func New(turboPeriod time.Duration, opts ...Option) (*Target, error) {
	t := &Target{
		held:      make([]bool, command.ControlCount),
		latched:   make([]bool, command.ControlCount),
		turboHeld: make([]bool, command.ControlCount),
		console:   newConsoleState(),
	}
	osc, err := newOscillator(turboPeriod, t.turboTick)
	if err != nil {
		return nil, err
	}
	t.turbo = osc
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func valid(c command.ControlID) bool {
	return c >= 0 && int(c) < command.ControlCount
}

func (t *Target) pressedLocked(c command.ControlID) bool {
	return t.held[c] || t.latched[c] || (t.turboHeld[c] && t.turboPhase)
}

// State returns a snapshot of the controller and console.
func (t *Target) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Target) stateLocked() State {
	s := State{
		Buttons:      make(map[string]bool, command.ControlCount),
		AutoholdMode: t.autoholdMode,
		Touch:        t.touch,
		Paddle:       t.paddle,
		Console:      t.console,
	}
	for i := 0; i < command.ControlCount; i++ {
		c := command.ControlID(i)
		s.Buttons[c.String()] = t.pressedLocked(c)
		if t.latched[i] {
			s.Autohold = append(s.Autohold, c.String())
		}
	}
	if t.mic != nil {
		s.Microphone = t.mic.Generator().Path()
	}
	return s
}

// update runs fn under the lock and publishes the resulting state.
func (t *Target) update(fn func()) {
	t.mu.Lock()
	fn()
	s := t.stateLocked()
	t.mu.Unlock()
	t.publish(StateTopic, s, true)
}

func (t *Target) publish(subtopic string, v any, retained bool) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishJSON(subtopic, v, retained); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
		log.Printf("failed to publish %s: %v", subtopic, err)
	}
}

// Pressed reports whether control reads as pressed, including latches and
// the turbo phase.
func (t *Target) Pressed(c command.ControlID) bool {
	if !valid(c) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pressedLocked(c)
}

func (t *Target) SetButton(c command.ControlID, pressed bool) {
	if !valid(c) {
		return
	}
	t.update(func() {
		t.held[c] = pressed
		if pressed && t.autoholdMode {
			t.latched[c] = true
		}
	})
}

// Button reports the held state of control, ignoring latches and turbo.
func (t *Target) Button(c command.ControlID) bool {
	if !valid(c) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.held[c]
}

// SetTurbo marks control as held for turbo. The oscillator runs while any
// turbo control is held.
func (t *Target) SetTurbo(c command.ControlID, held bool) {
	if !valid(c) {
		return
	}

	t.turboMu.Lock()
	defer t.turboMu.Unlock()

	var anyHeld bool
	t.update(func() {
		t.turboHeld[c] = held
		for _, h := range t.turboHeld {
			anyHeld = anyHeld || h
		}
		if !anyHeld {
			t.turboPhase = false
		} else if held && !t.turbo.IsRunning() {
			t.turboPhase = true
		}
	})

	switch {
	case anyHeld && !t.turbo.IsRunning():
		_ = t.turbo.Start()
	case !anyHeld && t.turbo.IsRunning():
		_ = t.turbo.Stop()
	}
}

func (t *Target) turboTick(phase bool) {
	t.update(func() { t.turboPhase = phase })
}

func (t *Target) SetAutoholdMode(active bool) {
	t.update(func() { t.autoholdMode = active })
}

func (t *Target) LatchAutohold(c command.ControlID) {
	if !valid(c) {
		return
	}
	t.update(func() { t.latched[c] = true })
}

func (t *Target) ClearAutohold() {
	t.update(func() {
		for i := range t.latched {
			t.latched[i] = false
		}
	})
}

func (t *Target) SetTouch(x, y float64, pressed bool) {
	t.update(func() { t.touch = Touch{X: x, Y: y, Pressed: pressed} })
}

func (t *Target) SetPaddle(value float64) {
	t.update(func() { t.paddle = value })
}

// StartMicrophone loops g into the microphone until stopped.
func (t *Target) StartMicrophone(g *effects.Generator) {
	t.update(func() { t.mic = g.Stream(true) })
}

func (t *Target) StopMicrophone() {
	t.update(func() { t.mic = nil })
}

// ReadMicrophone fills dst with the next microphone block. Silence is
// returned while no sample is playing.
func (t *Target) ReadMicrophone(dst []float32) {
	t.mu.Lock()
	mic := t.mic
	t.mu.Unlock()

	n := 0
	if mic != nil {
		n = mic.ReadBlock(dst)
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func (t *Target) StartRumble(iterations int) error {
	if t.rumble == nil {
		return ErrNoRumble
	}
	t.publish(CommandTopic+"/rumble", map[string]int{"iterations": iterations}, false)
	return t.rumble.StartForceFeedback(uint32(max(iterations, 1)), 0)
}

func (t *Target) StopRumble() error {
	if t.rumble == nil {
		return ErrNoRumble
	}
	t.publish(CommandTopic+"/rumble", map[string]int{"iterations": 0}, false)
	return t.rumble.StopForceFeedback()
}

// Close stops the turbo oscillator.
func (t *Target) Close() {
	t.turboMu.Lock()
	defer t.turboMu.Unlock()
	if t.turbo.IsRunning() {
		_ = t.turbo.Stop()
	}
}
