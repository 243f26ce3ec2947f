package evdev

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/mitchellh/mapstructure"

	"github.com/larsks/inputbridge/internal/device"
)

// Factory opens evdev devices. The spec is a path or glob pattern such as
// "/dev/input/event*".
type Factory struct{}

func decodeOptions(options map[string]any) (RumbleOptions, error) {
	opts := DefaultRumbleOptions()
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
	return opts, nil
}

func (f *Factory) ValidateSpec(spec string, options map[string]any) error {
	if spec == "" {
		return fmt.Errorf("%w: evdev device path is required", device.ErrInvalidSpec)
	}
	if _, err := filepath.Match(spec, ""); err != nil {
		return fmt.Errorf("%w: %s: %v", device.ErrInvalidSpec, spec, err)
	}
	_, err := decodeOptions(options)
	return err
}

func (f *Factory) Open(spec string, options map[string]any) ([]device.Device, error) {
	if err := f.ValidateSpec(spec, options); err != nil {
		return nil, err
	}
	rumble, _ := decodeOptions(options)

	found, errs := Discover(spec, rumble)
	for _, err := range errs {
		log.Printf("skipping device: %v", err)
	}
	if len(found) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}

	devices := make([]device.Device, len(found))
	for i, d := range found {
		devices[i] = d
	}
	return devices, nil
}

func init() {
	device.MustRegister("evdev", &Factory{})
}
