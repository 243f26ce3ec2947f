package gpio

import (
	"errors"
	"testing"
)

func TestParsePinNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{name: "direct number", input: "18", expected: 18},
		{name: "GPIO prefix uppercase", input: "GPIO18", expected: 18},
		{name: "GPIO prefix lowercase", input: "gpio18", expected: 18},
		{name: "GPIO prefix mixed case", input: "GpIo18", expected: 18},
		{name: "zero pin number", input: "GPIO0", expected: 0},
		{name: "letters only", input: "invalid", wantErr: true},
		{name: "GPIO without number", input: "GPIO", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePinNumber(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPin) {
					t.Errorf("ParsePinNumber(%q) error = %v, want ErrInvalidPin", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePinNumber(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParsePinNumber(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParsePin(t *testing.T) {
	tests := []struct {
		input   string
		want    PinSpec
		wantErr bool
	}{
		{input: "GPIO16", want: PinSpec{Line: 16, Polarity: ActiveHigh, Pull: PullAuto}},
		{input: "GPIO16:active-low", want: PinSpec{Line: 16, Polarity: ActiveLow, Pull: PullAuto}},
		{input: "20:active-low:pull-none", want: PinSpec{Line: 20, Polarity: ActiveLow, Pull: PullNone}},
		{input: "GPIO5: Pull-Down ", want: PinSpec{Line: 5, Polarity: ActiveHigh, Pull: PullDown}},
		{input: "GPIO5:sideways", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePin(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePin(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePin(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePin(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPullResolve(t *testing.T) {
	if got := PullAuto.Resolve(ActiveHigh); got != PullDown {
		t.Errorf("auto pull for active-high = %s, want pull-down", got)
	}
	if got := PullAuto.Resolve(ActiveLow); got != PullUp {
		t.Errorf("auto pull for active-low = %s, want pull-up", got)
	}
	if got := PullNone.Resolve(ActiveLow); got != PullNone {
		t.Errorf("explicit pull changed to %s", got)
	}
}
