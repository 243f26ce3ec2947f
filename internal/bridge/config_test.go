package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/inputbridge/internal/device"
)

func loadConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cfg, cfg.LoadConfigWithFlagSet(fs)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()

	cfg, err := loadConfig(t)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, 64, cfg.QueueSize)
	assert.Equal(t, 0.5, cfg.AxisThreshold)
	assert.Equal(t, 66*time.Millisecond, cfg.Turbo.Period)
	assert.Equal(t, "inputbridge", cfg.MQTT.TopicPrefix)
	assert.True(t, cfg.WatchMappings)
	assert.Empty(t, cfg.Devices)
	assert.Empty(t, cfg.ConfigFile, "missing default config file is skipped")
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
listen-port = 9000
mapping-file = "/tmp/m.toml"
force-digital = true
queue-size = 8

[mqtt]
server-url = "mqtt://broker:1883"
topic-prefix = "bridge"

[turbo]
period = "40ms"

[[devices]]
driver = "evdev"
spec = "/dev/input/event*"
[devices.options]
rumble-strong = 40000

[[devices]]
driver = "gpio"
spec = "dpad:GPIO16=Up,GPIO20=Down"
`)

	cfg, err := loadConfig(t, "--config-file", path, "--listen-port", "9100", "--device", "gpio:buttons:GPIO5")
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 9100, cfg.ListenPort, "flags override the file")
	assert.Equal(t, "/tmp/m.toml", cfg.MappingFile)
	assert.True(t, cfg.ForceDigital)
	assert.Equal(t, 8, cfg.QueueSize)
	assert.Equal(t, "mqtt://broker:1883", cfg.MQTT.ServerURL)
	assert.Equal(t, "bridge", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 40*time.Millisecond, cfg.Turbo.Period)

	require.Len(t, cfg.Devices, 3)
	assert.Equal(t, "evdev", cfg.Devices[0].Driver)
	assert.EqualValues(t, 40000, cfg.Devices[0].Options["rumble-strong"])
	assert.Equal(t, device.Config{Driver: "gpio", Spec: "dpad:GPIO16=Up,GPIO20=Down"}, cfg.Devices[1])
	assert.Equal(t, device.Config{Driver: "gpio", Spec: "buttons:GPIO5"}, cfg.Devices[2])
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	_, err := loadConfig(t, "--config-file", filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestParseDeviceFlag(t *testing.T) {
	tests := []struct {
		value   string
		want    device.Config
		wantErr bool
	}{
		{value: "evdev:/dev/input/event3", want: device.Config{Driver: "evdev", Spec: "/dev/input/event3"}},
		{value: "gpio:pad:GPIO1=A", want: device.Config{Driver: "gpio", Spec: "pad:GPIO1=A"}},
		{value: "evdev", wantErr: true},
		{value: ":spec", wantErr: true},
		{value: "evdev:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseDeviceFlag(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDevice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "port", modify: func(c *Config) { c.ListenPort = 70000 }, wantErr: ErrInvalidConfig},
		{name: "queue size", modify: func(c *Config) { c.QueueSize = 0 }, wantErr: ErrInvalidConfig},
		{name: "threshold", modify: func(c *Config) { c.AxisThreshold = 1.5 }, wantErr: ErrInvalidConfig},
		{name: "turbo", modify: func(c *Config) { c.Turbo.Period = 0 }, wantErr: ErrInvalidConfig},
		{name: "mqtt url", modify: func(c *Config) { c.MQTT.ServerURL = "http://broker" }, wantErr: ErrInvalidConfig},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Devices = []device.Config{{Driver: "nope", Spec: "x"}} },
			wantErr: ErrInvalidDevice,
		},
		{
			name:    "bad gpio spec",
			modify:  func(c *Config) { c.Devices = []device.Config{{Driver: "gpio", Spec: "no-pins"}} },
			wantErr: ErrInvalidDevice,
		},
		{
			name: "bad gpio option",
			modify: func(c *Config) {
				c.Devices = []device.Config{{Driver: "gpio", Spec: "pad:GPIO1", Options: map[string]any{"bogus": 1}}}
			},
			wantErr: device.ErrInvalidOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
