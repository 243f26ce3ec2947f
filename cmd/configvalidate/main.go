package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/larsks/inputbridge/internal/bridge"
	"github.com/larsks/inputbridge/internal/bridgectl"
	"github.com/larsks/inputbridge/internal/config"
	"github.com/larsks/inputbridge/internal/mapping"
	"github.com/larsks/inputbridge/internal/version"
)

const (
	typeBridge    = "bridge"
	typeBridgectl = "bridgectl"
	typeMappings  = "mappings"
)

func main() {
	var (
		versionFlag = pflag.Bool("version", false, "Show version and exit")
		configType  = pflag.String("type", "", "Configuration type: bridge, bridgectl, or mappings")
		configFile  = pflag.String("config", "", "Configuration file to validate")
		helpFlag    = pflag.BoolP("help", "h", false, "Show help")
	)

	pflag.Parse()

	if *versionFlag {
		version.ShowVersion()
		os.Exit(0)
	}

	if *helpFlag {
		usage()
		os.Exit(0)
	}

	if *configFile == "" || *configType == "" {
		fmt.Fprintf(os.Stderr, "Error: --config and --type are required\n\n")
		usage()
		os.Exit(1)
	}

	summary, err := validate(*configType, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ %s is a valid %s file (%s)\n", *configFile, *configType, summary)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s --type TYPE --config FILE\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Checks input bridge configuration and mapping files without opening devices.\n\n")

	fmt.Fprintf(os.Stderr, "Options:\n")
	pflag.PrintDefaults()

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --type bridge --config inputbridge.toml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --type mappings --config mappings.toml\n", os.Args[0])
}

// validate checks file as configType and returns a short summary.
func validate(configType, file string) (string, error) {
	if _, err := os.Stat(file); err != nil {
		return "", fmt.Errorf("configuration file %s does not exist", file)
	}

	switch configType {
	case typeBridge:
		return validateBridgeConfig(file)
	case typeBridgectl:
		return validateBridgectlConfig(file)
	case typeMappings:
		return validateMappings(file)
	default:
		return "", fmt.Errorf("unknown configuration type %q: must be %s, %s, or %s",
			configType, typeBridge, typeBridgectl, typeMappings)
	}
}

func validateBridgeConfig(file string) (string, error) {
	cfg := bridge.NewConfig()
	fs := pflag.NewFlagSet(typeBridge, pflag.ContinueOnError)
	cfg.AddFlags(fs)

	if err := config.LoadStrict(cfg, file, nil, fs); err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if cfg.MappingFile != "" {
		if _, err := os.Stat(cfg.MappingFile); err == nil {
			if _, err := mapping.ReadFile(cfg.MappingFile); err != nil {
				return "", fmt.Errorf("mapping-file: %w", err)
			}
		}
	}
	return fmt.Sprintf("%d device(s)", len(cfg.Devices)), nil
}

func validateBridgectlConfig(file string) (string, error) {
	cfg := bridgectl.NewConfig()
	fs := pflag.NewFlagSet(typeBridgectl, pflag.ContinueOnError)
	cfg.AddFlags(fs)

	if err := config.LoadStrict(cfg, file, nil, fs); err != nil {
		return "", err
	}
	if cfg.ServerURL == "" {
		return "", fmt.Errorf("server-url is required")
	}
	return "server " + cfg.ServerURL, nil
}

func validateMappings(file string) (string, error) {
	records, err := mapping.ReadFile(file)
	if err != nil {
		return "", err
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return "", fmt.Errorf("mapping %d: %w", i+1, err)
		}
	}
	return fmt.Sprintf("%d mapping(s)", len(records)), nil
}
