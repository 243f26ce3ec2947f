package evdev

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/events"
	"github.com/larsks/inputbridge/internal/input"
)

func encode(t *testing.T, evs ...events.InputEvent) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, evs))
	return buf.Bytes()
}

func key(code uint16, value int32) events.InputEvent {
	return events.InputEvent{Type: uint16(events.EV_KEY), Code: code, Value: value}
}

func abs(code uint16, value int32) events.InputEvent {
	return events.InputEvent{Type: uint16(events.EV_ABS), Code: code, Value: value}
}

func syn(code uint16) events.InputEvent {
	return events.InputEvent{Type: uint16(events.EV_SYN), Code: code}
}

func testDecoder() *frameDecoder {
	stick := AxisElement(events.ABS_X, events.AbsInfo{Minimum: -32768, Maximum: 32767})
	south := ButtonElement(events.BTN_SOUTH)
	return newFrameDecoder("045e028e", "Test Pad",
		[]input.Element{south, stick},
		[]uint32{elementKey(events.EV_KEY, events.BTN_SOUTH), elementKey(events.EV_ABS, events.ABS_X)})
}

func TestDecodeEvents(t *testing.T) {
	buf := encode(t, key(events.BTN_SOUTH, 1), syn(events.SYN_REPORT))
	evs, err := decodeEvents(buf)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, uint16(events.BTN_SOUTH), evs[0].Code)
	assert.True(t, evs[1].IsSync())

	_, err = decodeEvents(buf[:len(buf)-1])
	assert.Error(t, err)
}

func TestFrameDecoderQueuesUntilReport(t *testing.T) {
	d := testDecoder()

	assert.Nil(t, d.feed(key(events.BTN_SOUTH, 1)))
	assert.Nil(t, d.feed(abs(events.ABS_X, 32767)))
	assert.Nil(t, d.feed(key(events.BTN_EAST, 1)), "unknown elements are ignored")

	values := d.feed(syn(events.SYN_REPORT))
	require.Len(t, values, 2)
	assert.Equal(t, "BTN_304", values[0].Element.Code)
	assert.Equal(t, int32(1), values[0].Value)
	assert.Equal(t, "ABS_0", values[1].Element.Code)
	assert.Equal(t, "045e028e", values[1].DeviceCode)
	assert.Equal(t, "Test Pad", values[1].DeviceName)

	assert.Nil(t, d.feed(syn(events.SYN_REPORT)), "empty frame")
}

func TestFrameDecoderIgnoresRepeats(t *testing.T) {
	d := testDecoder()
	d.feed(key(events.BTN_SOUTH, events.KEY_REPEATED))
	assert.Empty(t, d.feed(syn(events.SYN_REPORT)))
}

func TestFrameDecoderDropsIncompleteFrame(t *testing.T) {
	d := testDecoder()
	d.feed(key(events.BTN_SOUTH, 1))
	d.feed(syn(events.SYN_DROPPED))
	d.feed(abs(events.ABS_X, 0))
	assert.Empty(t, d.feed(syn(events.SYN_REPORT)))

	d.feed(key(events.BTN_SOUTH, 0))
	assert.Len(t, d.feed(syn(events.SYN_REPORT)), 1)
}

func TestElements(t *testing.T) {
	btn := ButtonElement(events.BTN_SOUTH)
	assert.Equal(t, "BTN_304", btn.Code)
	assert.Equal(t, "BTN_SOUTH", btn.Name)
	assert.Equal(t, input.Button, btn.Type)

	trigger := AxisElement(events.ABS_Z, events.AbsInfo{Minimum: 0, Maximum: 255})
	assert.Equal(t, input.Axis, trigger.Type)
	assert.False(t, trigger.Bidirectional)

	hat := AxisElement(events.ABS_HAT0X, events.AbsInfo{Minimum: -1, Maximum: 1})
	assert.Equal(t, input.Hat, hat.Type)
	assert.Equal(t, "ABS_16", hat.Code)
	assert.True(t, hat.Bidirectional)
}

func TestDeviceCode(t *testing.T) {
	tests := []struct {
		id   events.InputID
		uniq string
		want string
	}{
		{events.InputID{Vendor: 0x045e, Product: 0x028e}, "", "045e028e"},
		{events.InputID{Vendor: 0x054c, Product: 0x09cc}, "a4:ae:12:00:11:22", "054c09cc-a4ae12001122"},
		{events.InputID{}, "", "event7"},
	}
	for _, tt := range tests {
		got := deviceCode(tt.id, tt.uniq, "event7")
		assert.Equal(t, tt.want, got)
		assert.NotContains(t, got, ":")
	}
}

func TestFactoryOptions(t *testing.T) {
	f := &Factory{}
	assert.ErrorIs(t, f.ValidateSpec("", nil), device.ErrInvalidSpec)
	assert.ErrorIs(t, f.ValidateSpec("/dev/input/event[", nil), device.ErrInvalidSpec)
	assert.ErrorIs(t, f.ValidateSpec("/dev/input/event*", map[string]any{"colour": "red"}), device.ErrInvalidOption)
	assert.NoError(t, f.ValidateSpec("/dev/input/event*", nil))

	opts, err := decodeOptions(map[string]any{"rumble-strong": "4096", "rumble-length": "1s"})
	require.NoError(t, err)
	assert.Equal(t, uint16(4096), opts.Strong)
	assert.Equal(t, DefaultRumbleOptions().Weak, opts.Weak)
	assert.Equal(t, time.Second, opts.Length)
	assert.Equal(t, uint16(1000), opts.lengthMS())
}

func TestFactoryOpenNoMatches(t *testing.T) {
	devices, err := (&Factory{}).Open(t.TempDir()+"/event*", nil)
	assert.NoError(t, err)
	assert.Empty(t, devices)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, device.Drivers(), "evdev")
}
