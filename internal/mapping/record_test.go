package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/larsks/inputbridge/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordGetSet(t *testing.T) {
	r := Record{DeviceCode: "keyboard", ElementCode: "65", Tag: "A"}

	v, ok := r.Get("tag")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	require.NoError(t, r.Set("turbo", "true"))
	require.NoError(t, r.Set("int-value", "3"))
	require.NoError(t, r.Set("float-value", "1.5"))
	require.NoError(t, r.Set("device-name", "Keyboard"))
	assert.True(t, r.Turbo)
	assert.Equal(t, 3, r.IntValue)
	assert.Equal(t, 1.5, r.FloatValue)
	assert.Equal(t, "Keyboard", r.DeviceName)
	assert.Equal(t, "65", r.ElementCode, "other fields are untouched")

	v, _ = r.Get("int-value")
	assert.Equal(t, "3", v)

	assert.ErrorIs(t, r.Set("colour", "blue"), ErrUnknownField)
	_, ok = r.Get("colour")
	assert.False(t, ok)
}

func TestDecodeRecord(t *testing.T) {
	r, err := DecodeRecord(map[string]any{
		"device-code":  "pad",
		"element-code": "BTN_304",
		"tag":          "B",
		"toggle":       "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pad:BTN_304", r.Key())
	assert.True(t, r.Toggle)

	_, err = DecodeRecord(map[string]any{"device-code": "pad", "element-code": "x", "tag": "A", "bogus": 1})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = DecodeRecord(map[string]any{"device-code": "pad", "tag": "A"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRecordBindingMergesDefaults(t *testing.T) {
	def := command.Binding{Tag: "A - Turbo", Operation: command.OpControllerTurbo, Control: command.ControlA, Flags: command.Flags{Turbo: true}}
	r := Record{DeviceCode: "pad", DeviceName: "Pad", ElementCode: "BTN_305", ElementName: "BTN_EAST", Tag: "A - Turbo", Autohold: true}

	b := r.Binding(def)
	assert.Equal(t, command.OpControllerTurbo, b.Operation)
	assert.Equal(t, command.ControlA, b.Control)
	assert.True(t, b.Flags.Turbo)
	assert.True(t, b.Flags.Autohold)
	require.NotNil(t, b.Source)
	assert.Equal(t, "BTN_EAST", b.Source.ElementName)

	back := RecordFromEntry(Entry{Key: r.Key(), Binding: b})
	assert.Equal(t, "pad", back.DeviceCode)
	assert.Equal(t, "BTN_305", back.ElementCode)
	assert.Equal(t, "Pad", back.DeviceName)
	assert.True(t, back.Turbo)
}

func TestLoadRecordsSkipsInvalid(t *testing.T) {
	s := NewStore(command.DefaultCatalog())
	s.AddMapping("old:1", binding("X"))

	n := s.LoadRecords([]Record{
		{DeviceCode: "keyboard", ElementCode: "30", Tag: "A"},
		{DeviceCode: "keyboard", ElementCode: "", Tag: "B"},
		{DeviceCode: "keyboard", ElementCode: "31", Tag: "Unknown Tag"},
	})
	assert.Equal(t, 2, n)

	_, ok := s.Lookup("old:1")
	assert.False(t, ok, "loading replaces the table")

	a, ok := s.Lookup("keyboard:30")
	require.True(t, ok)
	assert.Equal(t, command.ControlA, a.Control)

	unknown, ok := s.Lookup("keyboard:31")
	require.True(t, ok)
	assert.Equal(t, command.OpNone, unknown.Operation)
}

func TestFileRoundTrip(t *testing.T) {
	for _, ext := range []string{"toml", "yaml", "json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "mappings."+ext)

			s := NewStore(command.DefaultCatalog())
			s.AddMapping("keyboard:30", s.DefaultFor("A"))
			mic := s.DefaultFor("Microphone")
			mic.AudioPath = "/sounds/blow.wav"
			s.AddMapping("pad:BTN_304", mic)
			require.NoError(t, s.Save(path))

			loaded := NewStore(command.DefaultCatalog())
			require.NoError(t, loaded.Load(path))
			assert.Equal(t, s.Records(), loaded.Records())

			got, ok := loaded.Lookup("pad:BTN_304")
			require.True(t, ok)
			assert.Equal(t, "/sounds/blow.wav", got.AudioPath)
			assert.Equal(t, command.OpMicrophone, got.Operation)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(nil)
	s.AddMapping("keyboard:1", binding("A"))
	require.NoError(t, s.Load(filepath.Join(t.TempDir(), "absent.toml")))
	assert.Empty(t, s.Mappings())
}

func TestReadFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("mappings = [[[ nope"), 0o644))
	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrMappingFileRead)
}
