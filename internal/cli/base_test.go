package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// MockConfig implements Configurable for testing
type MockConfig struct {
	ConfigFile string
	TestValue  string
	Loaded     bool
	LoadError  error
}

func (m *MockConfig) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&m.ConfigFile, "config-file", "", "Config file")
	fs.StringVar(&m.TestValue, "test-value", "default", "Test value")
}

func (m *MockConfig) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	m.Loaded = true
	return m.LoadError
}

// MockHandler implements CommandHandler for testing
type MockHandler struct {
	StartCalled bool
	StartError  error
}

func (m *MockHandler) Start(ctx context.Context, config Configurable) error {
	m.StartCalled = true
	return m.StartError
}

func parse(t *testing.T, cfg *MockConfig, args ...string) *CommandArgs {
	t.Helper()
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	cmdArgs, err := cli.ParseArgsStandardWithFlagSet(args, func() Configurable { return cfg }, fs)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return cmdArgs
}

func TestParseArgsStandard_Version(t *testing.T) {
	cfg := &MockConfig{}
	cmdArgs := parse(t, cfg, "--version")

	if cmdArgs.Command != CommandVersion {
		t.Errorf("Expected command 'version', got '%s'", cmdArgs.Command)
	}
	if cfg.Loaded {
		t.Error("Config should not be loaded for --version")
	}
}

func TestParseArgsStandard_Help(t *testing.T) {
	cmdArgs := parse(t, &MockConfig{}, "--help")

	if cmdArgs.Command != CommandHelp {
		t.Errorf("Expected command 'help', got '%s'", cmdArgs.Command)
	}
	if !strings.Contains(cmdArgs.Usage, "--test-value") {
		t.Errorf("Expected usage to list flags, got %q", cmdArgs.Usage)
	}
}

func TestParseArgsStandard_Start(t *testing.T) {
	cfg := &MockConfig{}
	cmdArgs := parse(t, cfg, "--test-value", "custom")

	if cmdArgs.Command != CommandStart {
		t.Errorf("Expected command 'start', got '%s'", cmdArgs.Command)
	}
	if cfg.TestValue != "custom" {
		t.Errorf("Expected TestValue 'custom', got '%s'", cfg.TestValue)
	}
	if !cfg.Loaded {
		t.Error("Config should have been loaded")
	}
}

func TestParseArgsStandard_Errors(t *testing.T) {
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if _, err := cli.ParseArgsStandardWithFlagSet([]string{"--bogus"}, func() Configurable { return &MockConfig{} }, fs); err == nil {
		t.Error("Expected error for unknown flag")
	}

	loadErr := errors.New("bad config")
	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, err := cli.ParseArgsStandardWithFlagSet(nil, func() Configurable { return &MockConfig{LoadError: loadErr} }, fs)
	if !errors.Is(err, loadErr) {
		t.Errorf("Expected load error, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	startErr := errors.New("start failed")

	tests := []struct {
		name        string
		command     string
		handlerErr  error
		wantStarted bool
		wantErr     error
		wantOutput  bool
	}{
		{name: "version", command: CommandVersion, wantOutput: true},
		{name: "help", command: CommandHelp, wantOutput: true},
		{name: "start", command: CommandStart, wantStarted: true},
		{name: "start error", command: CommandStart, handlerErr: startErr, wantStarted: true, wantErr: startErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			cli := NewBaseCLI(&stdout, &bytes.Buffer{})
			handler := &MockHandler{StartError: tt.handlerErr}

			err := cli.Execute(context.Background(), &CommandArgs{Command: tt.command, Config: &MockConfig{}}, handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if handler.StartCalled != tt.wantStarted {
				t.Errorf("Expected StartCalled %v", tt.wantStarted)
			}
			if tt.wantOutput && stdout.Len() == 0 {
				t.Error("Expected output")
			}
		})
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})
	handler := &MockHandler{}

	err := cli.Execute(context.Background(), &CommandArgs{Command: "unknown", Config: &MockConfig{}}, handler)
	if err == nil {
		t.Fatal("Expected error for unknown command")
	}
	if handler.StartCalled {
		t.Error("Start should not have been called for unknown command")
	}
}
