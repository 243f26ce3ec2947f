package events

import (
	"fmt"
	"sort"
)

// Gamepad and joystick button codes
const (
	BTN_MISC     = 0x100
	BTN_MOUSE    = 0x110
	BTN_LEFT     = 0x110
	BTN_RIGHT    = 0x111
	BTN_MIDDLE   = 0x112
	BTN_JOYSTICK = 0x120
	BTN_GAMEPAD  = 0x130
	BTN_SOUTH    = 0x130
	BTN_EAST     = 0x131
	BTN_NORTH    = 0x133
	BTN_WEST     = 0x134
	BTN_TL       = 0x136
	BTN_TR       = 0x137
	BTN_SELECT   = 0x13a
	BTN_START    = 0x13b
	BTN_MODE     = 0x13c
	BTN_DPAD_UP  = 0x220
	KEY_MAX      = 0x2ff
)

// Absolute axis codes used by controllers
const (
	ABS_X     = 0x00
	ABS_Y     = 0x01
	ABS_Z     = 0x02
	ABS_RX    = 0x03
	ABS_RY    = 0x04
	ABS_RZ    = 0x05
	ABS_HAT0X = 0x10
	ABS_HAT0Y = 0x11
	ABS_HAT3Y = 0x17
	ABS_MAX   = 0x3f
)

var keyCodes = map[uint16]string{
	1:   "ESC",
	2:   "1",
	3:   "2",
	4:   "3",
	5:   "4",
	6:   "5",
	7:   "6",
	8:   "7",
	9:   "8",
	10:  "9",
	11:  "0",
	12:  "MINUS",
	13:  "EQUAL",
	14:  "BACKSPACE",
	15:  "TAB",
	16:  "Q",
	17:  "W",
	18:  "E",
	19:  "R",
	20:  "T",
	21:  "Y",
	22:  "U",
	23:  "I",
	24:  "O",
	25:  "P",
	26:  "LEFTBRACE",
	27:  "RIGHTBRACE",
	28:  "ENTER",
	29:  "LEFTCTRL",
	30:  "A",
	31:  "S",
	32:  "D",
	33:  "F",
	34:  "G",
	35:  "H",
	36:  "J",
	37:  "K",
	38:  "L",
	39:  "SEMICOLON",
	40:  "APOSTROPHE",
	41:  "GRAVE",
	42:  "LEFTSHIFT",
	43:  "BACKSLASH",
	44:  "Z",
	45:  "X",
	46:  "C",
	47:  "V",
	48:  "B",
	49:  "N",
	50:  "M",
	51:  "COMMA",
	52:  "DOT",
	53:  "SLASH",
	54:  "RIGHTSHIFT",
	55:  "KPASTERISK",
	56:  "LEFTALT",
	57:  "SPACE",
	58:  "CAPSLOCK",
	59:  "F1",
	60:  "F2",
	61:  "F3",
	62:  "F4",
	63:  "F5",
	64:  "F6",
	65:  "F7",
	66:  "F8",
	67:  "F9",
	68:  "F10",
	87:  "F11",
	88:  "F12",
	96:  "KPENTER",
	97:  "RIGHTCTRL",
	100: "RIGHTALT",
	102: "HOME",
	103: "UP",
	104: "PAGEUP",
	105: "LEFT",
	106: "RIGHT",
	107: "END",
	108: "DOWN",
	109: "PAGEDOWN",
	110: "INSERT",
	111: "DELETE",
	113: "MUTE",
	119: "PAUSE",

	0x110: "BTN_LEFT",
	0x111: "BTN_RIGHT",
	0x112: "BTN_MIDDLE",
	0x113: "BTN_SIDE",
	0x114: "BTN_EXTRA",

	0x120: "BTN_TRIGGER",
	0x121: "BTN_THUMB",
	0x122: "BTN_THUMB2",
	0x123: "BTN_TOP",
	0x124: "BTN_TOP2",
	0x125: "BTN_PINKIE",
	0x126: "BTN_BASE",
	0x127: "BTN_BASE2",

	0x130: "BTN_SOUTH",
	0x131: "BTN_EAST",
	0x132: "BTN_C",
	0x133: "BTN_NORTH",
	0x134: "BTN_WEST",
	0x135: "BTN_Z",
	0x136: "BTN_TL",
	0x137: "BTN_TR",
	0x138: "BTN_TL2",
	0x139: "BTN_TR2",
	0x13a: "BTN_SELECT",
	0x13b: "BTN_START",
	0x13c: "BTN_MODE",
	0x13d: "BTN_THUMBL",
	0x13e: "BTN_THUMBR",

	0x220: "BTN_DPAD_UP",
	0x221: "BTN_DPAD_DOWN",
	0x222: "BTN_DPAD_LEFT",
	0x223: "BTN_DPAD_RIGHT",
}

// Relative axis codes
var RelCodes = map[uint16]string{
	0:  "X",
	1:  "Y",
	2:  "Z",
	6:  "HWHEEL",
	8:  "WHEEL",
	9:  "MISC",
	11: "WHEEL_HI_RES",
	12: "HWHEEL_HI_RES",
}

// Absolute axis codes
var AbsCodes = map[uint16]string{
	0:  "X",
	1:  "Y",
	2:  "Z",
	3:  "RX",
	4:  "RY",
	5:  "RZ",
	6:  "THROTTLE",
	7:  "RUDDER",
	8:  "WHEEL",
	9:  "GAS",
	10: "BRAKE",
	16: "HAT0X",
	17: "HAT0Y",
	18: "HAT1X",
	19: "HAT1Y",
	20: "HAT2X",
	21: "HAT2Y",
	22: "HAT3X",
	23: "HAT3Y",
	24: "PRESSURE",
	25: "DISTANCE",
	26: "TILT_X",
	27: "TILT_Y",
	32: "VOLUME",
	40: "MISC",
}

func GetKeyName(code uint16) string {
	if name, exists := keyCodes[code]; exists {
		return name
	}
	return fmt.Sprintf("KEY_%d", code)
}

// LookupKeyCode is the reverse of GetKeyName for names in the table.
func LookupKeyCode(name string) (uint16, bool) {
	for code, n := range keyCodes {
		if n == name {
			return code, true
		}
	}
	return 0, false
}

// KeyCodes returns every named key code in ascending order.
func KeyCodes() []uint16 {
	codes := make([]uint16, 0, len(keyCodes))
	for code := range keyCodes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func GetRelName(code uint16) string {
	if name, exists := RelCodes[code]; exists {
		return name
	}
	return fmt.Sprintf("REL_%d", code)
}

func GetAbsName(code uint16) string {
	if name, exists := AbsCodes[code]; exists {
		return name
	}
	return fmt.Sprintf("ABS_%d", code)
}

// IsHat reports whether an absolute axis is a hat switch axis.
func IsHat(code uint16) bool {
	return code >= ABS_HAT0X && code <= ABS_HAT3Y
}
