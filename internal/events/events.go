// Package events describes the Linux input subsystem wire format: the
// input_event record read from /dev/input/event* devices, the event type and
// code constants used to interpret it, and the force-feedback structures
// written back to those devices.
package events

import (
	"fmt"
	"syscall"
	"time"
)

// InputEvent matches the kernel's struct input_event.
type InputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Timestamp converts the kernel timeval to a time.Time.
func (e InputEvent) Timestamp() time.Time {
	return time.Unix(int64(e.Time.Sec), int64(e.Time.Usec)*1000)
}

// IsSync reports whether the event closes a frame of element changes.
func (e InputEvent) IsSync() bool {
	return EventType(e.Type) == EV_SYN && e.Code == SYN_REPORT
}

func (e InputEvent) String() string {
	return fmt.Sprintf("%s code=%d value=%d", GetEventTypeCode(EventType(e.Type)), e.Code, e.Value)
}

type EventType uint16

// Event types (from linux/input-event-codes.h)
const (
	EV_SYN       EventType = 0x00
	EV_KEY       EventType = 0x01
	EV_REL       EventType = 0x02
	EV_ABS       EventType = 0x03
	EV_MSC       EventType = 0x04
	EV_SW        EventType = 0x05
	EV_LED       EventType = 0x11
	EV_SND       EventType = 0x12
	EV_REP       EventType = 0x14
	EV_FF        EventType = 0x15
	EV_PWR       EventType = 0x16
	EV_FF_STATUS EventType = 0x17
	EV_MAX       EventType = 0x1f
)

// Synchronization codes
const (
	SYN_REPORT    = 0
	SYN_CONFIG    = 1
	SYN_MT_REPORT = 2
	SYN_DROPPED   = 3
)

// Key states
const (
	KEY_RELEASED = 0
	KEY_PRESSED  = 1
	KEY_REPEATED = 2
)

var eventTypeNames = map[EventType]string{
	EV_SYN:       "EV_SYN",
	EV_KEY:       "EV_KEY",
	EV_REL:       "EV_REL",
	EV_ABS:       "EV_ABS",
	EV_MSC:       "EV_MSC",
	EV_SW:        "EV_SW",
	EV_LED:       "EV_LED",
	EV_SND:       "EV_SND",
	EV_REP:       "EV_REP",
	EV_FF:        "EV_FF",
	EV_PWR:       "EV_PWR",
	EV_FF_STATUS: "EV_FF_STATUS",
}

// GetEventTypeCode returns the symbolic name of an event type.
func GetEventTypeCode(eventType EventType) string {
	if name, ok := eventTypeNames[eventType]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%d", eventType)
}

// GetEventTypeName resolves a symbolic event type name such as "EV_KEY".
func GetEventTypeName(eventTypeName string) (EventType, bool) {
	for t, name := range eventTypeNames {
		if name == eventTypeName {
			return t, true
		}
	}
	return 0, false
}

func GetKeyStateName(value int32) string {
	switch value {
	case KEY_RELEASED:
		return "RELEASED"
	case KEY_PRESSED:
		return "PRESSED"
	case KEY_REPEATED:
		return "REPEATED"
	default:
		return fmt.Sprintf("UNKNOWN_%d", value)
	}
}
