// Package config loads configuration structs from defaults, a config file and
// command-line flags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configurable represents a type that can be configured via flags and config files.
type Configurable interface {
	AddFlags(fs *pflag.FlagSet)
}

// ConfigLoader loads configuration with precedence defaults < config file <
// explicitly set flags.
type ConfigLoader struct {
	configFile string
	defaults   map[string]any
	flagSet    *pflag.FlagSet
	strictMode bool
}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		defaults: make(map[string]any),
	}
}

func (cl *ConfigLoader) SetConfigFile(configFile string) {
	cl.configFile = configFile
}

func (cl *ConfigLoader) SetDefault(key string, value any) {
	cl.defaults[key] = value
}

func (cl *ConfigLoader) SetDefaults(defaults map[string]any) {
	for key, value := range defaults {
		cl.defaults[key] = value
	}
}

// SetFlagSet selects the flags consulted for overrides. pflag.CommandLine is
// used when none is set.
func (cl *ConfigLoader) SetFlagSet(fs *pflag.FlagSet) {
	cl.flagSet = fs
}

// SetStrictMode makes unknown configuration keys an error.
func (cl *ConfigLoader) SetStrictMode(strict bool) {
	cl.strictMode = strict
}

// LoadConfig populates config, which must be a pointer to a struct. A
// ConfigFile field, if present, keeps the path that was loaded.
func (cl *ConfigLoader) LoadConfig(config any) error {
	if err := checkTarget(config); err != nil {
		return err
	}

	v := viper.New()
	for key, value := range cl.defaults {
		v.SetDefault(key, value)
	}

	if cl.configFile != "" {
		v.SetConfigFile(cl.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w %s: %v", ErrConfigFileRead, cl.configFile, err)
		}
	}

	fs := cl.flagSet
	if fs == nil {
		fs = pflag.CommandLine
	}
	fs.Visit(func(flag *pflag.Flag) {
		v.Set(flag.Name, flagValue(flag))
	})

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      cl.strictMode,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			expandEnvHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create decoder: %v", ErrConfigUnmarshal, err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		msg := err.Error()
		if cl.configFile != "" && strings.Contains(msg, "has invalid keys:") {
			msg = strings.Replace(msg, "* ''", fmt.Sprintf("* '%s'", cl.configFile), 1)
		}
		return fmt.Errorf("%w: %s", ErrConfigUnmarshal, msg)
	}

	if cl.configFile != "" {
		setConfigFileField(config, cl.configFile)
	}
	return nil
}

// LoadConfigWithFlagSet loads config using the flags in fs.
func (cl *ConfigLoader) LoadConfigWithFlagSet(config any, fs *pflag.FlagSet) error {
	cl.flagSet = fs
	return cl.LoadConfig(config)
}

// flagValue converts a flag to a typed value so that viper does not see the
// string form of numbers, booleans and slices.
func flagValue(flag *pflag.Flag) any {
	s := flag.Value.String()
	switch flag.Value.Type() {
	case "uint", "uint8", "uint16", "uint32", "uint64":
		if val, err := strconv.ParseUint(s, 10, 64); err == nil {
			return val
		}
	case "int", "int8", "int16", "int32", "int64":
		if val, err := strconv.ParseInt(s, 10, 64); err == nil {
			return val
		}
	case "bool":
		if val, err := strconv.ParseBool(s); err == nil {
			return val
		}
	case "float32", "float64":
		if val, err := strconv.ParseFloat(s, 64); err == nil {
			return val
		}
	case "stringSlice", "stringArray":
		if sliceFlag, ok := flag.Value.(pflag.SliceValue); ok {
			return sliceFlag.GetSlice()
		}
	}
	return s
}

var envReference = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// expandEnvHook expands $VAR and ${VAR} in string values. References to
// unset variables are left as written.
func expandEnvHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok || f.Kind() != reflect.String {
		return data, nil
	}
	return envReference.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.Trim(ref, "${}")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return ref
	}), nil
}

func checkTarget(config any) error {
	v := reflect.ValueOf(config)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("%w: got %T", ErrConfigNotPointer, config)
	}
	if v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %s", ErrConfigNotStruct, v.Elem().Kind())
	}
	return nil
}

func setConfigFileField(config any, configFile string) {
	field := reflect.ValueOf(config).Elem().FieldByName("ConfigFile")
	if field.IsValid() && field.CanSet() && field.Kind() == reflect.String {
		field.SetString(configFile)
	}
}

// LoadConfigWithFlagSet loads config from configFile and the flags in fs
// on top of defaults.
func LoadConfigWithFlagSet(config Configurable, configFile string, defaults map[string]any, fs *pflag.FlagSet) error {
	loader := NewConfigLoader()
	loader.SetConfigFile(configFile)
	loader.SetDefaults(defaults)
	loader.SetFlagSet(fs)
	return loader.LoadConfig(config)
}

// LoadStrict is LoadConfigWithFlagSet with unknown keys rejected.
func LoadStrict(config Configurable, configFile string, defaults map[string]any, fs *pflag.FlagSet) error {
	loader := NewConfigLoader()
	loader.SetConfigFile(configFile)
	loader.SetDefaults(defaults)
	loader.SetFlagSet(fs)
	loader.SetStrictMode(true)
	return loader.LoadConfig(config)
}
