package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	"github.com/larsks/inputbridge/internal/config"
	"github.com/larsks/inputbridge/internal/controller"
	"github.com/larsks/inputbridge/internal/device"
	"github.com/larsks/inputbridge/internal/input"
	"github.com/larsks/inputbridge/internal/mqtt"
)

const appName = "inputbridge"

func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func DefaultMappingFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "mappings.toml")
}

func DefaultEffectsDir() string {
	return filepath.Join(xdg.DataHome, appName, "effects")
}

type MQTTConfig struct {
	ServerURL   string `mapstructure:"server-url"`
	ClientID    string `mapstructure:"client-id"`
	TopicPrefix string `mapstructure:"topic-prefix"`
}

type TurboConfig struct {
	Period time.Duration `mapstructure:"period"`
}

// Config is the daemon configuration.
type Config struct {
	ConfigFile    string          `mapstructure:"config-file"`
	ListenAddress string          `mapstructure:"listen-address"`
	ListenPort    int             `mapstructure:"listen-port"`
	MappingFile   string          `mapstructure:"mapping-file"`
	WatchMappings bool            `mapstructure:"watch-mappings"`
	EffectsDir    string          `mapstructure:"effects-dir"`
	ForceDigital  bool            `mapstructure:"force-digital"`
	AxisThreshold float64         `mapstructure:"axis-threshold"`
	QueueSize     int             `mapstructure:"queue-size"`
	LogRequests   bool            `mapstructure:"log-requests"`
	MQTT          MQTTConfig      `mapstructure:"mqtt"`
	Turbo         TurboConfig     `mapstructure:"turbo"`
	Devices       []device.Config `mapstructure:"devices"`

	deviceFlags []string
}

func NewConfig() *Config {
	return &Config{
		ListenPort:    8080,
		MappingFile:   DefaultMappingFile(),
		WatchMappings: true,
		EffectsDir:    DefaultEffectsDir(),
		AxisThreshold: input.DefaultThreshold,
		QueueSize:     64,
		LogRequests:   true,
		MQTT:          MQTTConfig{TopicPrefix: mqtt.DefaultTopicPrefix},
		Turbo:         TurboConfig{Period: controller.DefaultTurboPeriod},
	}
}

func (c *Config) defaults() map[string]any {
	return map[string]any{
		"listen-address":    c.ListenAddress,
		"listen-port":       c.ListenPort,
		"mapping-file":      c.MappingFile,
		"watch-mappings":    c.WatchMappings,
		"effects-dir":       c.EffectsDir,
		"force-digital":     c.ForceDigital,
		"axis-threshold":    c.AxisThreshold,
		"queue-size":        c.QueueSize,
		"log-requests":      c.LogRequests,
		"mqtt.server-url":   c.MQTT.ServerURL,
		"mqtt.client-id":    c.MQTT.ClientID,
		"mqtt.topic-prefix": c.MQTT.TopicPrefix,
		"turbo.period":      c.Turbo.Period,
	}
}

func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config-file", DefaultConfigFile(), "Config file to use")
	fs.StringVar(&c.ListenAddress, "listen-address", c.ListenAddress, "Listen address for http server")
	fs.IntVar(&c.ListenPort, "listen-port", c.ListenPort, "Listen port for http server")
	fs.StringVar(&c.MappingFile, "mapping-file", c.MappingFile, "File holding input mappings")
	fs.BoolVar(&c.WatchMappings, "watch-mappings", c.WatchMappings, "Reload mappings when the mapping file changes")
	fs.StringVar(&c.EffectsDir, "effects-dir", c.EffectsDir, "Directory of microphone sample files")
	fs.BoolVar(&c.ForceDigital, "force-digital", c.ForceDigital, "Split every axis into two digital halves")
	fs.Float64Var(&c.AxisThreshold, "axis-threshold", c.AxisThreshold, "Fraction of an axis half-range that reads as pressed")
	fs.IntVar(&c.QueueSize, "queue-size", c.QueueSize, "Number of input batches buffered before the oldest is dropped")
	fs.BoolVar(&c.LogRequests, "log-requests", c.LogRequests, "Log every http request")
	fs.StringVar(&c.MQTT.ServerURL, "mqtt.server-url", c.MQTT.ServerURL, "MQTT broker URL (empty disables MQTT)")
	fs.StringVar(&c.MQTT.ClientID, "mqtt.client-id", c.MQTT.ClientID, "MQTT client id")
	fs.StringVar(&c.MQTT.TopicPrefix, "mqtt.topic-prefix", c.MQTT.TopicPrefix, "Prefix of every MQTT topic")
	fs.DurationVar(&c.Turbo.Period, "turbo.period", c.Turbo.Period, "Turbo half-period")
	fs.StringArrayVar(&c.deviceFlags, "device", nil, "Device to open as driver:spec (repeatable)")
}

// LoadConfigWithFlagSet loads the config file, if any, and the flags in fs.
// The default config file is optional; an explicit one must exist.
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	deviceFlags := c.deviceFlags

	if c.ConfigFile == DefaultConfigFile() {
		if _, err := os.Stat(c.ConfigFile); errors.Is(err, os.ErrNotExist) {
			c.ConfigFile = ""
		}
	} else if c.ConfigFile != "" {
		if _, err := os.Stat(c.ConfigFile); err != nil {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, c.ConfigFile)
		}
	}

	loader := config.NewConfigLoader()
	loader.SetConfigFile(c.ConfigFile)
	loader.SetDefaults(c.defaults())
	if err := loader.LoadConfigWithFlagSet(c, fs); err != nil {
		return err
	}

	for _, flag := range deviceFlags {
		dc, err := ParseDeviceFlag(flag)
		if err != nil {
			return err
		}
		c.Devices = append(c.Devices, dc)
	}

	return c.Validate()
}

// ParseDeviceFlag splits "driver:spec" at the first colon.
func ParseDeviceFlag(value string) (device.Config, error) {
	driver, spec, ok := strings.Cut(value, ":")
	if !ok || driver == "" || spec == "" {
		return device.Config{}, fmt.Errorf("%w: %q: expected driver:spec", ErrInvalidDevice, value)
	}
	return device.Config{Driver: driver, Spec: spec}, nil
}

// Validate checks every setting and device entry without opening hardware.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("listen-port %d out of range", c.ListenPort))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue-size must be positive, got %d", c.QueueSize))
	}
	if c.AxisThreshold <= 0 || c.AxisThreshold >= 1 {
		errs = append(errs, fmt.Errorf("axis-threshold must be between 0 and 1, got %v", c.AxisThreshold))
	}
	if c.Turbo.Period <= 0 {
		errs = append(errs, fmt.Errorf("turbo.period must be positive, got %v", c.Turbo.Period))
	}
	if c.MQTT.ServerURL != "" {
		if err := mqtt.ValidateURL(c.MQTT.ServerURL); err != nil {
			errs = append(errs, err)
		}
	}
	for i, dc := range c.Devices {
		if err := device.Validate(dc); err != nil {
			errs = append(errs, fmt.Errorf("%w %d (%s): %w", ErrInvalidDevice, i, dc.Driver, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) GetListenAddress() string {
	return c.ListenAddress
}

func (c *Config) GetListenPort() int {
	return c.ListenPort
}
