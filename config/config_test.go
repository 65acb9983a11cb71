package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Renderer.MaxFramesInFlight)
	assert.Equal(t, 5*time.Second, cfg.Renderer.FenceTimeout.Duration)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
width = 1024
height = 768

[renderer]
max_frames_in_flight = 3
vsync = false
fence_timeout = "250ms"

[log]
level = "debug"
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
	assert.Equal(t, "Vulkan engine", cfg.Window.Title)
	assert.Equal(t, 3, cfg.Renderer.MaxFramesInFlight)
	assert.False(t, cfg.Renderer.VSync)
	assert.Equal(t, 250*time.Millisecond, cfg.Renderer.FenceTimeout.Duration)
	assert.Equal(t, "shaders", cfg.Assets.ShaderDir)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
[window]
widht = 10
`))
	assert.Error(t, err)
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte(`
[renderer]
fence_timeout = "soon"
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero width":       func(c *Config) { c.Window.Width = 0 },
		"too many frames":  func(c *Config) { c.Renderer.MaxFramesInFlight = 4 },
		"no frames":        func(c *Config) { c.Renderer.MaxFramesInFlight = 0 },
		"negative timeout": func(c *Config) { c.Renderer.FenceTimeout.Duration = -time.Second },
		"missing shaders":  func(c *Config) { c.Assets.ShaderDir = "" },
		"missing models":   func(c *Config) { c.Assets.ModelDir = "" },
		"bad log level":    func(c *Config) { c.Log.Level = "loud" },
		"bad log format":   func(c *Config) { c.Log.Format = "xml" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lhll.toml")
	require.NoError(t, os.WriteFile(path, []byte("[assets]\nwatch_shaders = true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Assets.WatchShaders)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestMarshalRoundTripsThroughParse(t *testing.T) {
	cfg := Default()
	cfg.Window.Title = "resized"
	cfg.Renderer.FenceTimeout.Duration = time.Second

	data, err := cfg.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
