// Package evdev reads Linux input devices (/dev/input/event*) and drives
// their rumble motors.
package evdev

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/events"
	"github.com/larsks/inputbridge/internal/input"
)

var (
	ErrDeviceGone = errors.New("input device disconnected")
	ErrClosed     = errors.New("input device closed")
)

const (
	pollIntervalMS = 100
	readEvents     = 64
	nameSize       = 256
	queueLimit     = 256
)

// Device is an open evdev node.
type Device struct {
	path string
	name string
	code string
	id   events.InputID

	mu     sync.Mutex
	fd     int
	closed bool

	buf      []byte
	decoder  *frameDecoder
	queue    *input.MemoryQueue
	elements []input.Element
	actuator *rumbleActuator
}

var (
	_ device.Device        = (*Device)(nil)
	_ device.ElementLister = (*Device)(nil)
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Open opens an event device and enumerates its buttons and axes. Devices
// are opened read-write when permitted so that force feedback can be
// played; otherwise read-only without force feedback.
func Open(path string, rumble RumbleOptions) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	writable := err == nil
	if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EROFS) {
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	d := &Device{
		path:  path,
		fd:    fd,
		buf:   make([]byte, readEvents*eventSize),
		queue: input.NewMemoryQueue(queueLimit),
	}

	if err := d.probe(); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}

	if writable && events.TestBit(d.bitmap(events.EV_FF, events.FF_MAX), events.FF_RUMBLE) {
		d.actuator = &rumbleActuator{dev: d, options: rumble}
	}
	return d, nil
}

func (d *Device) probe() error {
	name := make([]byte, nameSize)
	if err := ioctl(d.fd, events.EVIOCGNAME(len(name)), unsafe.Pointer(&name[0])); err != nil {
		return fmt.Errorf("EVIOCGNAME: %w", err)
	}
	d.name = cstring(name)

	if err := ioctl(d.fd, events.EVIOCGID(), unsafe.Pointer(&d.id)); err != nil {
		return fmt.Errorf("EVIOCGID: %w", err)
	}

	uniq := make([]byte, nameSize)
	// not every driver reports a unique id
	_ = ioctl(d.fd, events.EVIOCGUNIQ(len(uniq)), unsafe.Pointer(&uniq[0]))
	d.code = deviceCode(d.id, cstring(uniq), filepath.Base(d.path))

	var keys []uint32
	keyBits := d.bitmap(events.EV_KEY, events.KEY_MAX)
	for code := 0; code <= events.KEY_MAX; code++ {
		if events.TestBit(keyBits, code) {
			d.elements = append(d.elements, ButtonElement(uint16(code)))
			keys = append(keys, elementKey(events.EV_KEY, uint16(code)))
		}
	}
	absBits := d.bitmap(events.EV_ABS, events.ABS_MAX)
	for code := 0; code <= events.ABS_MAX; code++ {
		if !events.TestBit(absBits, code) {
			continue
		}
		var info events.AbsInfo
		if err := ioctl(d.fd, events.EVIOCGABS(uint16(code)), unsafe.Pointer(&info)); err != nil {
			return fmt.Errorf("EVIOCGABS(%d): %w", code, err)
		}
		d.elements = append(d.elements, AxisElement(uint16(code), info))
		keys = append(keys, elementKey(events.EV_ABS, uint16(code)))
	}

	d.decoder = newFrameDecoder(d.code, d.name, d.elements, keys)
	return nil
}

// bitmap reads the capability bitmap for typ, whose largest code is last.
// A failed query yields an empty bitmap.
func (d *Device) bitmap(typ events.EventType, last int) []byte {
	bits := make([]byte, last/8+1)
	if err := ioctl(d.fd, events.EVIOCGBIT(typ, len(bits)), unsafe.Pointer(&bits[0])); err != nil {
		return nil
	}
	return bits
}

// deviceCode derives a code that stays the same across reconnects. It never
// contains a colon.
func deviceCode(id events.InputID, uniq, node string) string {
	if id.Vendor == 0 && id.Product == 0 {
		return node
	}
	code := fmt.Sprintf("%04x%04x", id.Vendor, id.Product)
	if uniq != "" {
		code += "-" + strings.NewReplacer(":", "", " ", "").Replace(uniq)
	}
	return code
}

func (d *Device) Identifier() string { return d.path }
func (d *Device) Code() string       { return d.code }
func (d *Device) Name() string       { return d.name }
func (d *Device) Queue() input.Queue { return d.queue }

// Elements returns the buttons and axes found when the device was opened.
func (d *Device) Elements() []input.Element {
	return d.elements
}

func (d *Device) Actuator() device.Actuator {
	if d.actuator == nil {
		return nil
	}
	return d.actuator
}

// Poll waits for the next complete frame of element changes and queues it.
func (d *Device) Poll(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fd, err := d.handle()
		if err != nil {
			return err
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollIntervalMS)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll %s: %w", d.path, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("%w: %s", ErrDeviceGone, d.path)
		}

		nr, err := unix.Read(fd, d.buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ENODEV) {
				return fmt.Errorf("%w: %s", ErrDeviceGone, d.path)
			}
			return fmt.Errorf("read %s: %w", d.path, err)
		}

		evs, err := decodeEvents(d.buf[:nr])
		if err != nil {
			return fmt.Errorf("read %s: %w", d.path, err)
		}

		queued := false
		for _, ev := range evs {
			if values := d.decoder.feed(ev); len(values) > 0 {
				d.queue.Push(values...)
				queued = true
			}
		}
		if queued {
			return nil
		}
	}
}

func (d *Device) handle() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return -1, ErrClosed
	}
	return d.fd, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return unix.Close(d.fd)
}

// Discover opens every device matching pattern. Devices that cannot be
// opened are returned as errors alongside the ones that could.
func Discover(pattern string, rumble RumbleOptions) ([]*Device, []error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(paths)

	var (
		devices []*Device
		errs    []error
	)
	for _, path := range paths {
		dev, err := Open(path, rumble)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		devices = append(devices, dev)
	}
	return devices, errs
}
