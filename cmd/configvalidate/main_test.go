package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/inputbridge/internal/mapping"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		configType string
		file       string
		content    string
		summary    string
		wantErr    string
	}{
		{
			name:       "bridge config",
			configType: typeBridge,
			file:       "inputbridge.toml",
			content: `listen-port = 9090
mapping-file = ""

[[devices]]
driver = "gpio"
spec = "dpad:GPIO16=Up,GPIO20=Down"
`,
			summary: "1 device(s)",
		},
		{
			name:       "bridge config with unknown key",
			configType: typeBridge,
			file:       "inputbridge.toml",
			content:    "listen-prot = 9090\n",
			wantErr:    "invalid keys",
		},
		{
			name:       "bridge config with bad port",
			configType: typeBridge,
			file:       "inputbridge.toml",
			content:    "listen-port = 700000\nmapping-file = \"\"\n",
			wantErr:    "listen-port",
		},
		{
			name:       "bridge config with unknown driver",
			configType: typeBridge,
			file:       "inputbridge.toml",
			content:    "mapping-file = \"\"\n[[devices]]\ndriver = \"serial\"\nspec = \"/dev/ttyS0\"\n",
			wantErr:    "serial",
		},
		{
			name:       "bridgectl config",
			configType: typeBridgectl,
			file:       "bridgectl.toml",
			content:    "server-url = \"http://pi:8080\"\n",
			summary:    "server http://pi:8080",
		},
		{
			name:       "bridgectl config with empty url",
			configType: typeBridgectl,
			file:       "bridgectl.toml",
			content:    "server-url = \"\"\n",
			wantErr:    "server-url is required",
		},
		{
			name:       "mapping file without tag",
			configType: typeMappings,
			file:       "mappings.toml",
			content:    "[[mappings]]\ndevice-code = \"keyboard\"\nelement-code = \"30\"\n",
			wantErr:    "mapping 1",
		},
		{
			name:       "unknown type",
			configType: "ui",
			file:       "x.toml",
			content:    "",
			wantErr:    "unknown configuration type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			summary, err := validate(tt.configType, path)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.summary, summary)
		})
	}
}

func TestValidateMappingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.toml")
	require.NoError(t, mapping.WriteFile(path, []mapping.Record{
		{DeviceCode: "keyboard", ElementCode: "30", Tag: "A", Turbo: true},
		{DeviceCode: "mouse", ElementCode: "0", Tag: "Touch"},
	}))

	summary, err := validate(typeMappings, path)
	require.NoError(t, err)
	assert.Equal(t, "2 mapping(s)", summary)
}

func TestValidateMissingFile(t *testing.T) {
	_, err := validate(typeMappings, filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "does not exist")
}
