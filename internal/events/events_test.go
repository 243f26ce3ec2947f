package events

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestEventTypeNames(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
	}{
		{"EV_KEY", EV_KEY},
		{"EV_ABS", EV_ABS},
		{"EV_FF", EV_FF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, GetEventTypeCode(tt.eventType))
			got, ok := GetEventTypeName(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.eventType, got)
		})
	}

	_, ok := GetEventTypeName("EV_BOGUS")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN_9", GetEventTypeCode(9))
}

func TestKeyNames(t *testing.T) {
	assert.Equal(t, "A", GetKeyName(30))
	assert.Equal(t, "BTN_SOUTH", GetKeyName(BTN_SOUTH))
	assert.Equal(t, "KEY_999", GetKeyName(999))

	code, ok := LookupKeyCode("SPACE")
	assert.True(t, ok)
	assert.Equal(t, uint16(57), code)

	codes := KeyCodes()
	assert.Equal(t, uint16(1), codes[0])
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}
}

func TestAbsNames(t *testing.T) {
	assert.Equal(t, "HAT0X", GetAbsName(ABS_HAT0X))
	assert.Equal(t, "ABS_63", GetAbsName(63))
	assert.True(t, IsHat(ABS_HAT0Y))
	assert.False(t, IsHat(ABS_X))
}

func TestIoctlRequests(t *testing.T) {
	// Values from linux/input.h on 64-bit platforms.
	assert.Equal(t, uintptr(0x80084502), EVIOCGID())
	assert.Equal(t, uintptr(0x80184540), EVIOCGABS(ABS_X))
	assert.Equal(t, uintptr(0x40044581), EVIOCRMFF())
	assert.Equal(t, uintptr(0x81004506), EVIOCGNAME(256))
	if unsafe.Sizeof(uintptr(0)) == 8 {
		assert.Equal(t, uintptr(48), unsafe.Sizeof(FFEffect{}))
		assert.Equal(t, uintptr(0x40304580), EVIOCSFF())
	}
}

func TestRumbleEffect(t *testing.T) {
	e := NewRumbleEffect(0xc000, 0x4000, 250)
	assert.Equal(t, uint16(FF_RUMBLE), e.Type)
	assert.Equal(t, int16(-1), e.ID)
	assert.Equal(t, uint16(250), e.Replay.Length)
	assert.Equal(t, FFRumble{StrongMagnitude: 0xc000, WeakMagnitude: 0x4000}, e.Rumble())

	play := PlayEvent(3, 2)
	assert.Equal(t, uint16(EV_FF), play.Type)
	assert.Equal(t, uint16(3), play.Code)
	assert.Equal(t, int32(2), play.Value)
}

func TestTestBit(t *testing.T) {
	bits := []byte{0x01, 0x80}
	assert.True(t, TestBit(bits, 0))
	assert.False(t, TestBit(bits, 1))
	assert.True(t, TestBit(bits, 15))
	assert.False(t, TestBit(bits, 16))
}

func TestSyncEvent(t *testing.T) {
	assert.True(t, InputEvent{Type: uint16(EV_SYN), Code: SYN_REPORT}.IsSync())
	assert.False(t, InputEvent{Type: uint16(EV_KEY), Code: SYN_REPORT}.IsSync())
}
