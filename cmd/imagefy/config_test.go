package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parsedFlags returns the root command's flag set after parsing args.
func parsedFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	cmd := (&app{}).command()
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd.Flags()
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("", parsedFlags(t))
	require.NoError(t, err)

	assert.Equal(t, uint32(1000), config.Width)
	assert.Equal(t, uint32(1000), config.Height)
	assert.True(t, config.Progress)
	assert.False(t, config.AssumeYes)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, 10, config.Log.MaxSize)
}

func TestLoadConfig_Flags(t *testing.T) {
	config, err := LoadConfig("", parsedFlags(t, "--width", "64", "--height", "32", "-y", "--no-progress"))
	require.NoError(t, err)

	assert.Equal(t, uint32(64), config.Width)
	assert.Equal(t, uint32(32), config.Height)
	assert.True(t, config.AssumeYes)
	assert.False(t, config.Progress)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("IMAGEFY_WIDTH", "200")
	t.Setenv("IMAGEFY_LOG_LEVEL", "debug")

	config, err := LoadConfig("", parsedFlags(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(200), config.Width)
	assert.Equal(t, "debug", config.Log.Level)

	config, err = LoadConfig("", parsedFlags(t, "--width", "50"))
	require.NoError(t, err)
	assert.Equal(t, uint32(50), config.Width, "flags take priority over the environment")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagefy.yaml")
	content := `width: 320
height: 240
progress: false
log:
  level: info
  file: /tmp/imagefy.log
  max_backups: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path, parsedFlags(t, "--height", "100"))
	require.NoError(t, err)

	assert.Equal(t, uint32(320), config.Width)
	assert.Equal(t, uint32(100), config.Height)
	assert.False(t, config.Progress)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "/tmp/imagefy.log", config.Log.File)
	assert.Equal(t, 7, config.Log.MaxBackups)
	assert.Equal(t, 28, config.Log.MaxAge)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero width",
			mutate:  func(c *Config) { c.Width = 0 },
			wantErr: imagefyerrors.ErrInvalidDimensions,
		},
		{
			name:    "zero height",
			mutate:  func(c *Config) { c.Height = 0 },
			wantErr: imagefyerrors.ErrInvalidDimensions,
		},
		{
			name:    "too many pixels",
			mutate:  func(c *Config) { c.Width, c.Height = 1<<20, 1<<20 },
			wantErr: imagefyerrors.ErrInvalidDimensions,
		},
		{
			name:   "negative rotation",
			mutate: func(c *Config) { c.Log.MaxAge = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			switch {
			case tt.name == "defaults":
				assert.NoError(t, err)
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			default:
				assert.Error(t, err)
			}
		})
	}
}
