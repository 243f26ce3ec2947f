package bridgectl

import "github.com/spf13/pflag"

func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bridgectl", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	return fs
}
