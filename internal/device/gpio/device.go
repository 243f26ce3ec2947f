// Package gpio turns GPIO push buttons into an input device, with an
// optional vibration motor on an output pin as its force-feedback actuator.
package gpio

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/input"
)

const scanInterval = time.Millisecond

// line is the part of a gpiocdev line the device reads.
type line interface {
	Value() (int, error)
	Close() error
}

type buttonPin struct {
	line     line
	pin      PinSpec
	element  input.Element
	debounce debouncer
}

func (bp *buttonPin) read() bool {
	level, err := bp.line.Value()
	if err != nil {
		log.Printf("error reading %s: %v", bp.pin.Name(), err)
		return bp.debounce.current
	}
	return (level == 1) == (bp.pin.Polarity == ActiveHigh)
}

// Device is a set of buttons on one GPIO chip.
type Device struct {
	spec  Spec
	pins  []*buttonPin
	queue *input.MemoryQueue
	motor *motor
	close func() error
}

var (
	_ device.Device        = (*Device)(nil)
	_ device.ElementLister = (*Device)(nil)
)

// Options tune a GPIO device.
type Options struct {
	Chip     string        `mapstructure:"chip"`
	Debounce time.Duration `mapstructure:"debounce"`
	Pulse    time.Duration `mapstructure:"rumble-pulse"`
}

func DefaultOptions() Options {
	return Options{
		Chip:     "gpiochip0",
		Debounce: 50 * time.Millisecond,
		Pulse:    200 * time.Millisecond,
	}
}

// Open requests every button line from the chip and, when the spec names
// one, claims the rumble pin.
func Open(spec Spec, opts Options) (*Device, error) {
	chip, err := gpiocdev.NewChip(opts.Chip)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPIO chip %s: %w", opts.Chip, err)
	}

	lines := make([]line, 0, len(spec.Buttons))
	cleanup := func() {
		for _, l := range lines {
			l.Close()
		}
		chip.Close()
	}

	for _, b := range spec.Buttons {
		reqOpts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
		switch b.Pin.Pull.Resolve(b.Pin.Polarity) {
		case PullUp:
			reqOpts = append(reqOpts, gpiocdev.WithPullUp)
		case PullDown:
			reqOpts = append(reqOpts, gpiocdev.WithPullDown)
		}

		l, err := chip.RequestLine(b.Pin.Line, reqOpts...)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: %s: %v", ErrPinConfig, b.Pin.Name(), err)
		}
		lines = append(lines, l)
	}

	var m *motor
	if spec.Rumble != nil {
		if m, err = openMotor(*spec.Rumble, opts.Pulse); err != nil {
			cleanup()
			return nil, err
		}
	}

	d := newDevice(spec, opts, lines, m)
	d.close = chip.Close
	return d, nil
}

func newDevice(spec Spec, opts Options, lines []line, m *motor) *Device {
	d := &Device{
		spec:  spec,
		queue: input.NewMemoryQueue(len(spec.Buttons) * 4),
		motor: m,
	}
	for i, b := range spec.Buttons {
		bp := &buttonPin{
			line: lines[i],
			pin:  b.Pin,
			element: input.Element{
				Code: b.Pin.Name(),
				Name: b.Name,
				Type: input.Button,
				Max:  1,
			},
		}
		bp.debounce = newDebouncer(opts.Debounce, bp.read())
		d.pins = append(d.pins, bp)
		log.Printf("added GPIO button %s on %s (%s)", b.Name, b.Pin.Name(), b.Pin.Pull.Resolve(b.Pin.Polarity))
	}
	return d
}

func (d *Device) Identifier() string { return "gpio:" + d.spec.Code }
func (d *Device) Code() string       { return d.spec.Code }
func (d *Device) Name() string       { return fmt.Sprintf("GPIO buttons (%s)", d.spec.Code) }
func (d *Device) Queue() input.Queue { return d.queue }

func (d *Device) Elements() []input.Element {
	elements := make([]input.Element, len(d.pins))
	for i, bp := range d.pins {
		elements[i] = bp.element
	}
	return elements
}

func (d *Device) Actuator() device.Actuator {
	if d.motor == nil {
		return nil
	}
	return d.motor
}

// Poll scans the buttons until at least one debounced change is queued.
func (d *Device) Poll(ctx context.Context) error {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if d.scan(now) {
				return nil
			}
		}
	}
}

func (d *Device) scan(now time.Time) bool {
	queued := false
	for _, bp := range d.pins {
		pressed, changed := bp.debounce.update(bp.read(), now)
		if !changed {
			continue
		}
		value := int32(0)
		if pressed {
			value = 1
		}
		d.queue.Push(input.ElementValue{
			DeviceCode: d.spec.Code,
			DeviceName: d.Name(),
			Element:    bp.element,
			Value:      value,
		})
		queued = true
	}
	return queued
}

func (d *Device) Close() error {
	if d.motor != nil {
		d.motor.off()
	}
	for _, bp := range d.pins {
		if err := bp.line.Close(); err != nil {
			log.Printf("error closing GPIO line %s: %v", bp.pin.Name(), err)
		}
	}
	if d.close != nil {
		return d.close()
	}
	return nil
}
