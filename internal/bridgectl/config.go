package bridgectl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	"github.com/larsks/inputbridge/internal/config"
)

const defaultServerURL = "http://localhost:8080"

// ServerURLEnv overrides the default server URL.
const ServerURLEnv = "INPUTBRIDGE_SERVER_URL"

// Config holds the bridgectl configuration
type Config struct {
	ServerURL  string `mapstructure:"server-url"`
	ConfigFile string `mapstructure:"config-file"`

	// args are the positional arguments left after flag parsing.
	args []string
}

func getDefaultServerURL() string {
	if url := os.Getenv(ServerURLEnv); url != "" {
		return url
	}
	return defaultServerURL
}

func getDefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "inputbridge", "bridgectl.toml")
}

func NewConfig() *Config {
	return &Config{
		ServerURL: getDefaultServerURL(),
	}
}

func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", getDefaultConfigFile(), "Config file to use")
	fs.StringVar(&c.ServerURL, "server-url", c.ServerURL, "API server URL")
}

// Args returns the command and its arguments.
func (c *Config) Args() []string {
	return c.args
}

func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	c.args = fs.Args()

	explicit := c.ConfigFile != getDefaultConfigFile()
	if _, err := os.Stat(c.ConfigFile); os.IsNotExist(err) {
		if explicit {
			return fmt.Errorf("config file not found: %s", c.ConfigFile)
		}
		c.ConfigFile = ""
	}

	loader := config.NewConfigLoader()
	loader.SetConfigFile(c.ConfigFile)
	loader.SetDefaults(map[string]any{
		"server-url": getDefaultServerURL(),
	})
	return loader.LoadConfigWithFlagSet(c, fs)
}
