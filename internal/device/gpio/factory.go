package gpio

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/larsks/inputbridge/internal/device"
)

// Factory opens GPIO button devices from specs parsed by ParseSpec.
type Factory struct{}

func decodeOptions(options map[string]any) (Options, error) {
	opts := DefaultOptions()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return opts, err
	}
	if err := decoder.Decode(options); err != nil {
		return opts, fmt.Errorf("%w: %v", device.ErrInvalidOption, err)
	}
	if opts.Debounce < 0 || opts.Pulse <= 0 {
		return opts, fmt.Errorf("%w: durations must be positive", device.ErrInvalidOption)
	}
	return opts, nil
}

func (f *Factory) ValidateSpec(spec string, options map[string]any) error {
	if _, err := ParseSpec(spec); err != nil {
		return err
	}
	_, err := decodeOptions(options)
	return err
}

func (f *Factory) Open(spec string, options map[string]any) ([]device.Device, error) {
	parsed, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	opts, err := decodeOptions(options)
	if err != nil {
		return nil, err
	}

	d, err := Open(parsed, opts)
	if err != nil {
		return nil, err
	}
	return []device.Device{d}, nil
}

func init() {
	device.MustRegister("gpio", &Factory{})
}
