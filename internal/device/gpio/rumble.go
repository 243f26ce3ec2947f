package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/larsks/inputbridge/internal/device"
)

// outputPin is the part of a periph pin the motor needs.
type outputPin interface {
	Out(l pgpio.Level) error
	Name() string
}

// motor pulses a vibration motor wired to an output pin.
type motor struct {
	pin   outputPin
	on    pgpio.Level
	pulse time.Duration

	mu      sync.Mutex
	nextID  device.EffectID
	active  device.EffectID
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var _ device.Actuator = (*motor)(nil)

// openMotor finds a pin through periph and drives it to its off level.
func openMotor(spec PinSpec, pulse time.Duration) (*motor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeriphInit, err)
	}
	pin := gpioreg.ByName(spec.Name())
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, spec.Name())
	}
	return newMotor(pin, spec.Polarity, pulse)
}

func newMotor(pin outputPin, polarity Polarity, pulse time.Duration) (*motor, error) {
	m := &motor{
		pin:   pin,
		on:    polarity == ActiveHigh,
		pulse: pulse,
	}
	if err := pin.Out(!m.on); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPinConfig, pin.Name(), err)
	}
	return m, nil
}

// Start replaces any running pattern with iterations on/off pulses.
func (m *motor) Start(iterations, flags uint32) (device.EffectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.halt()

	m.nextID++
	m.active = m.nextID
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	forever := flags&device.RepeatUntilStopped != 0
	go m.pulseLoop(iterations, forever, m.stopCh, m.doneCh)
	return m.active, nil
}

func (m *motor) pulseLoop(iterations uint32, forever bool, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	wait := func() bool {
		select {
		case <-stopCh:
			return false
		case <-time.After(m.pulse):
			return true
		}
	}

	for i := uint32(0); forever || i < iterations; i++ {
		if err := m.pin.Out(m.on); err != nil {
			log.Printf("rumble pin %s: %v", m.pin.Name(), err)
			return
		}
		if !wait() {
			return
		}
		if err := m.pin.Out(!m.on); err != nil {
			log.Printf("rumble pin %s: %v", m.pin.Name(), err)
			return
		}
		if !wait() {
			return
		}
	}
}

// halt stops the running pattern and leaves the motor off. Callers hold mu.
func (m *motor) halt() {
	if !m.running {
		return
	}
	close(m.stopCh)
	<-m.doneCh
	m.running = false
	if err := m.pin.Out(!m.on); err != nil {
		log.Printf("rumble pin %s: %v", m.pin.Name(), err)
	}
}

func (m *motor) Stop(id device.EffectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running && m.active == id {
		m.halt()
	}
	return nil
}

// Release frees nothing; a motor has no uploaded effects.
func (m *motor) Release(id device.EffectID) error {
	return m.Stop(id)
}

func (m *motor) off() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halt()
}
