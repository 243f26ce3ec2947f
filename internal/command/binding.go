// Package command defines command bindings, the invocations produced when
// input resolves to them, and the static table of operations they run.
package command

import "github.com/larsks/inputbridge/internal/effects"

// Flags modify how an operation treats its input.
type Flags struct {
	Turbo       bool `json:"turbo,omitempty"`
	Autohold    bool `json:"autohold,omitempty"`
	Toggle      bool `json:"toggle,omitempty"`
	AllowAnalog bool `json:"allowAnalog,omitempty"`
}

// Source records the physical input a binding was mapped from, for display.
type Source struct {
	DeviceCode  string `json:"deviceCode"`
	DeviceName  string `json:"deviceName,omitempty"`
	ElementCode string `json:"elementCode"`
	ElementName string `json:"elementName,omitempty"`
}

// Binding ties a command tag to the operation it runs. IntValue, FloatValue
// and AudioPath are operation parameters: a state slot, rotation in degrees,
// a frame number, a speed scalar or a sample file.
type Binding struct {
	Tag        string    `json:"tag"`
	Operation  Operation `json:"operation"`
	Control    ControlID `json:"control"`
	Flags      Flags     `json:"flags"`
	IntValue   int       `json:"intValue,omitempty"`
	FloatValue float64   `json:"floatValue,omitempty"`
	AudioPath  string    `json:"audioPath,omitempty"`
	Source     *Source   `json:"source,omitempty"`
}

// NoOp returns the binding used for tags with no catalog entry.
func NoOp(tag string) Binding {
	return Binding{Tag: tag, Operation: OpNone, Control: NoControl}
}

// WithSource returns a copy of b carrying the given source.
func (b Binding) WithSource(src Source) Binding {
	b.Source = &src
	return b
}

// Invocation is one resolved command together with the input state that
// triggered it. Generator is set when the binding names a loaded sample.
type Invocation struct {
	Binding   Binding
	Pressed   bool
	Value     float64
	X         float64
	Y         float64
	Generator *effects.Generator
}

// Tag returns the tag of the invoked binding.
func (inv Invocation) Tag() string {
	return inv.Binding.Tag
}
