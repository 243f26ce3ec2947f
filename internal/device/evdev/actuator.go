package evdev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/events"
)

// RumbleOptions shape the rumble effect uploaded by the actuator.
type RumbleOptions struct {
	Strong uint16        `mapstructure:"rumble-strong"`
	Weak   uint16        `mapstructure:"rumble-weak"`
	Length time.Duration `mapstructure:"rumble-length"`
}

func DefaultRumbleOptions() RumbleOptions {
	return RumbleOptions{
		Strong: 0xc000,
		Weak:   0x8000,
		Length: 250 * time.Millisecond,
	}
}

func (o RumbleOptions) lengthMS() uint16 {
	ms := o.Length.Milliseconds()
	switch {
	case ms <= 0:
		return 1
	case ms > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(ms)
}

type rumbleActuator struct {
	dev     *Device
	options RumbleOptions
}

var _ device.Actuator = (*rumbleActuator)(nil)

func (a *rumbleActuator) write(ev events.InputEvent) error {
	fd, err := a.dev.handle()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, ev); err != nil {
		return err
	}
	_, err = unix.Write(fd, buf.Bytes())
	return err
}

// Start uploads a rumble effect and plays it iterations times, or until
// stopped when flags has device.RepeatUntilStopped.
func (a *rumbleActuator) Start(iterations, flags uint32) (device.EffectID, error) {
	fd, err := a.dev.handle()
	if err != nil {
		return 0, err
	}

	effect := events.NewRumbleEffect(a.options.Strong, a.options.Weak, a.options.lengthMS())
	if err := ioctl(fd, events.EVIOCSFF(), unsafe.Pointer(&effect)); err != nil {
		return 0, fmt.Errorf("upload rumble effect: %w", err)
	}

	count := int32(min(iterations, math.MaxInt32))
	if flags&device.RepeatUntilStopped != 0 {
		count = math.MaxInt32
	}
	if err := a.write(events.PlayEvent(effect.ID, count)); err != nil {
		_ = a.Release(device.EffectID(effect.ID))
		return 0, fmt.Errorf("play effect %d: %w", effect.ID, err)
	}
	return device.EffectID(effect.ID), nil
}

func (a *rumbleActuator) Stop(id device.EffectID) error {
	return a.write(events.PlayEvent(int16(id), 0))
}

func (a *rumbleActuator) Release(id device.EffectID) error {
	fd, err := a.dev.handle()
	if err != nil {
		return err
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), events.EVIOCRMFF(), uintptr(id)); errno != 0 {
		return fmt.Errorf("erase effect %d: %w", id, errno)
	}
	return nil
}
