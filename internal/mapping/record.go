package mapping

import (
	"fmt"
	"log"

	"github.com/larsks/inputbridge/internal/command"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/mitchellh/mapstructure"
)

// Record is the persisted form of one mapping: the physical input, the
// command tag it triggers, and the attributes that differ from the tag's
// default binding.
type Record struct {
	DeviceCode  string  `mapstructure:"device-code" json:"deviceCode"`
	DeviceName  string  `mapstructure:"device-name" json:"deviceName,omitempty"`
	ElementCode string  `mapstructure:"element-code" json:"elementCode"`
	ElementName string  `mapstructure:"element-name" json:"elementName,omitempty"`
	Tag         string  `mapstructure:"tag" json:"tag"`
	Turbo       bool    `mapstructure:"turbo" json:"turbo,omitempty"`
	Autohold    bool    `mapstructure:"autohold" json:"autohold,omitempty"`
	Toggle      bool    `mapstructure:"toggle" json:"toggle,omitempty"`
	AllowAnalog bool    `mapstructure:"allow-analog" json:"allowAnalog,omitempty"`
	IntValue    int     `mapstructure:"int-value" json:"intValue,omitempty"`
	FloatValue  float64 `mapstructure:"float-value" json:"floatValue,omitempty"`
	AudioPath   string  `mapstructure:"audio-path" json:"audioPath,omitempty"`
}

// Key returns the mapping key of the record.
func (r Record) Key() string {
	return input.Key(r.DeviceCode, r.ElementCode)
}

func (r Record) Validate() error {
	switch {
	case r.DeviceCode == "":
		return fmt.Errorf("%w: device code is required", ErrInvalidRecord)
	case r.ElementCode == "":
		return fmt.Errorf("%w: element code is required", ErrInvalidRecord)
	case r.Tag == "":
		return fmt.Errorf("%w: tag is required", ErrInvalidRecord)
	}
	return nil
}

// Get returns a field, addressed by its persisted name, as a string.
func (r Record) Get(field string) (string, bool) {
	var fields map[string]any
	if err := mapstructure.Decode(r, &fields); err != nil {
		return "", false
	}
	v, ok := fields[field]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Set assigns a field, addressed by its persisted name, from a string.
func (r *Record) Set(field, value string) error {
	if _, ok := r.Get(field); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           r,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any{field: value}); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, field, err)
	}
	return nil
}

// DecodeRecord builds a record from loosely typed values, rejecting unknown
// fields.
func DecodeRecord(values map[string]any) (Record, error) {
	var r Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return r, err
	}
	if err := decoder.Decode(values); err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return r, r.Validate()
}

// Map returns the record as a map keyed by persisted field names, omitting
// empty optional fields.
func (r Record) Map() map[string]any {
	m := map[string]any{
		"device-code":  r.DeviceCode,
		"element-code": r.ElementCode,
		"tag":          r.Tag,
	}
	if r.DeviceName != "" {
		m["device-name"] = r.DeviceName
	}
	if r.ElementName != "" {
		m["element-name"] = r.ElementName
	}
	if r.Turbo {
		m["turbo"] = true
	}
	if r.Autohold {
		m["autohold"] = true
	}
	if r.Toggle {
		m["toggle"] = true
	}
	if r.AllowAnalog {
		m["allow-analog"] = true
	}
	if r.IntValue != 0 {
		m["int-value"] = r.IntValue
	}
	if r.FloatValue != 0 {
		m["float-value"] = r.FloatValue
	}
	if r.AudioPath != "" {
		m["audio-path"] = r.AudioPath
	}
	return m
}

// Binding applies the record on top of def, the default binding for its
// tag. Flags are added to the defaults; non-zero parameters replace them.
func (r Record) Binding(def command.Binding) command.Binding {
	b := def
	b.Tag = r.Tag
	b.Flags.Turbo = b.Flags.Turbo || r.Turbo
	b.Flags.Autohold = b.Flags.Autohold || r.Autohold
	b.Flags.Toggle = b.Flags.Toggle || r.Toggle
	b.Flags.AllowAnalog = b.Flags.AllowAnalog || r.AllowAnalog
	if r.IntValue != 0 {
		b.IntValue = r.IntValue
	}
	if r.FloatValue != 0 {
		b.FloatValue = r.FloatValue
	}
	if r.AudioPath != "" {
		b.AudioPath = r.AudioPath
	}
	return b.WithSource(command.Source{
		DeviceCode:  r.DeviceCode,
		DeviceName:  r.DeviceName,
		ElementCode: r.ElementCode,
		ElementName: r.ElementName,
	})
}

// RecordFromEntry converts a physical-table entry to its persisted form.
func RecordFromEntry(e Entry) Record {
	b := e.Binding
	r := Record{
		Tag:         b.Tag,
		Turbo:       b.Flags.Turbo,
		Autohold:    b.Flags.Autohold,
		Toggle:      b.Flags.Toggle,
		AllowAnalog: b.Flags.AllowAnalog,
		IntValue:    b.IntValue,
		FloatValue:  b.FloatValue,
		AudioPath:   b.AudioPath,
	}
	if b.Source != nil {
		r.DeviceName = b.Source.DeviceName
		r.ElementName = b.Source.ElementName
	}
	r.DeviceCode, r.ElementCode, _ = input.SplitKey(e.Key)
	return r
}

// Records returns the physical table in persisted form, sorted by key.
func (s *Store) Records() []Record {
	entries := s.Mappings()
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = RecordFromEntry(e)
	}
	return records
}

// LoadRecords replaces the physical table with the given records, resolving
// each against its tag's default binding. Invalid records are logged and
// skipped; the number loaded is returned.
func (s *Store) LoadRecords(records []Record) int {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			log.Printf("skipping mapping %s: %v", r.Key(), err)
			continue
		}
		entries = append(entries, Entry{Key: r.Key(), Binding: r.Binding(s.DefaultFor(r.Tag))})
	}
	s.Replace(entries)
	return len(entries)
}
