package gpio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgpio "periph.io/x/conn/v3/gpio"

	"github.com/larsks/inputbridge/internal/device"
)

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("dpad:GPIO16=Up, GPIO20:active-low=Down,GPIO21;rumble=GPIO26")
	require.NoError(t, err)
	assert.Equal(t, "dpad", spec.Code)
	require.Len(t, spec.Buttons, 3)
	assert.Equal(t, "Up", spec.Buttons[0].Name)
	assert.Equal(t, ActiveLow, spec.Buttons[1].Pin.Polarity)
	assert.Equal(t, "GPIO21", spec.Buttons[2].Name, "name defaults to the pin")
	require.NotNil(t, spec.Rumble)
	assert.Equal(t, 26, spec.Rumble.Line)

	for _, bad := range []string{
		"",
		"GPIO16",
		"pad:",
		"pad:GPIO16,GPIO16",
		"pad:GPIO16;rumble=GPIO16",
		"pad:GPIO16;lights=GPIO3",
		"pad:GPIOx",
	} {
		_, err := ParseSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestFactoryValidate(t *testing.T) {
	f := &Factory{}
	assert.NoError(t, f.ValidateSpec("pad:GPIO16", map[string]any{"debounce": "20ms", "chip": "gpiochip1"}))
	assert.ErrorIs(t, f.ValidateSpec("pad:GPIO16", map[string]any{"bounce": "20ms"}), device.ErrInvalidOption)
	assert.ErrorIs(t, f.ValidateSpec("pad:GPIO16", map[string]any{"rumble-pulse": "0s"}), device.ErrInvalidOption)
	assert.ErrorIs(t, f.ValidateSpec("nope", nil), device.ErrInvalidSpec)
	assert.Contains(t, device.Drivers(), "gpio")
}

func TestDebouncer(t *testing.T) {
	start := time.Unix(0, 0)
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }

	d := newDebouncer(10*time.Millisecond, false)

	_, changed := d.update(true, at(0))
	assert.False(t, changed)
	_, changed = d.update(false, at(3))
	assert.False(t, changed, "bounce restarts the timer")
	_, changed = d.update(true, at(5))
	assert.False(t, changed)
	_, changed = d.update(true, at(12))
	assert.False(t, changed, "not yet steady for the delay")

	state, changed := d.update(true, at(15))
	assert.True(t, changed)
	assert.True(t, state)

	_, changed = d.update(true, at(40))
	assert.False(t, changed, "reported once")

	d.update(false, at(50))
	d.update(true, at(52))
	_, changed = d.update(true, at(70))
	assert.False(t, changed, "glitch back to the reported state is not a change")
}

type fakeLine struct {
	mu     sync.Mutex
	level  int
	err    error
	closed bool
}

func (l *fakeLine) Value() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level, l.err
}

func (l *fakeLine) set(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func TestDeviceScan(t *testing.T) {
	spec, err := ParseSpec("pad:GPIO16=Up,GPIO20:active-low=Down")
	require.NoError(t, err)
	up := &fakeLine{level: 0}
	down := &fakeLine{level: 1}

	d := newDevice(spec, Options{Debounce: 5 * time.Millisecond}, []line{up, down}, nil)
	assert.Nil(t, d.Actuator())
	elements := d.Elements()
	require.Len(t, elements, 2)
	assert.Equal(t, "GPIO16", elements[0].Code)
	assert.Equal(t, "Down", elements[1].Name)

	start := time.Now()
	assert.False(t, d.scan(start), "initial levels are not changes")

	up.set(1)
	down.set(0)
	d.scan(start.Add(time.Millisecond))
	assert.True(t, d.scan(start.Add(10*time.Millisecond)))

	values := d.Queue().Drain()
	require.Len(t, values, 2)
	assert.Equal(t, "GPIO16", values[0].Element.Code)
	assert.Equal(t, "Up", values[0].Element.Name)
	assert.Equal(t, int32(1), values[0].Value)
	assert.Equal(t, "GPIO20", values[1].Element.Code)
	assert.Equal(t, int32(1), values[1].Value, "active-low pin reads pressed at level 0")
	assert.Equal(t, "pad", values[1].DeviceCode)

	require.NoError(t, d.Close())
	assert.True(t, up.closed)
	assert.True(t, down.closed)
}

func TestDevicePoll(t *testing.T) {
	spec, err := ParseSpec("pad:GPIO16")
	require.NoError(t, err)
	l := &fakeLine{}
	d := newDevice(spec, Options{Debounce: time.Millisecond}, []line{l}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Poll(ctx), context.DeadlineExceeded)

	l.set(1)
	require.NoError(t, d.Poll(context.Background()))
	assert.Len(t, d.Queue().Drain(), 1)
}

func TestReadErrorKeepsState(t *testing.T) {
	spec, err := ParseSpec("pad:GPIO16")
	require.NoError(t, err)
	l := &fakeLine{level: 1}
	d := newDevice(spec, Options{}, []line{l}, nil)

	l.mu.Lock()
	l.err = errors.New("line gone")
	l.mu.Unlock()
	assert.False(t, d.scan(time.Now().Add(time.Second)))
}

type fakePin struct {
	mu     sync.Mutex
	levels []pgpio.Level
	fail   bool
}

func (p *fakePin) Out(l pgpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("pin busy")
	}
	p.levels = append(p.levels, l)
	return nil
}

func (p *fakePin) Name() string { return "GPIO26" }

func (p *fakePin) history() []pgpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pgpio.Level(nil), p.levels...)
}

func TestMotorPulses(t *testing.T) {
	pin := &fakePin{}
	m, err := newMotor(pin, ActiveHigh, time.Millisecond)
	require.NoError(t, err)

	id, err := m.Start(2, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(pin.history()) == 5 }, time.Second, time.Millisecond)
	assert.Equal(t, []pgpio.Level{pgpio.Low, pgpio.High, pgpio.Low, pgpio.High, pgpio.Low}, pin.history())

	require.NoError(t, m.Stop(id))
	require.NoError(t, m.Release(id))
}

func TestMotorStopUntilStopped(t *testing.T) {
	pin := &fakePin{}
	m, err := newMotor(pin, ActiveLow, time.Hour)
	require.NoError(t, err)

	id, err := m.Start(0, device.RepeatUntilStopped)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(pin.history()) == 2 }, time.Second, time.Millisecond)

	second, err := m.Start(1, 0)
	require.NoError(t, err)
	assert.NotEqual(t, id, second)

	require.NoError(t, m.Stop(id), "stopping a replaced effect is a no-op")
	require.NoError(t, m.Stop(second))

	h := pin.history()
	assert.Equal(t, pgpio.High, h[len(h)-1], "active-low motor is left high")
}

func TestMotorInitFailure(t *testing.T) {
	_, err := newMotor(&fakePin{fail: true}, ActiveHigh, time.Millisecond)
	assert.ErrorIs(t, err, ErrPinConfig)
}
