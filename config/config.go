package config

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

const MaxFramesInFlightLimit = 3

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Renderer struct {
	MaxFramesInFlight int        `toml:"max_frames_in_flight"`
	VSync             bool       `toml:"vsync"`
	FenceTimeout      Duration   `toml:"fence_timeout"`
	ClearColor        [4]float32 `toml:"clear_color"`
	Validation        bool       `toml:"validation"`
}

type Assets struct {
	ShaderDir    string `toml:"shader_dir"`
	ModelDir     string `toml:"model_dir"`
	WatchShaders bool   `toml:"watch_shaders"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Assets   Assets   `toml:"assets"`
	Log      Log      `toml:"log"`
}

// Duration is a time.Duration that reads and writes as a string like "2s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = parsed
	return nil
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "Vulkan engine",
			Width:  800,
			Height: 600,
		},
		Renderer: Renderer{
			MaxFramesInFlight: 2,
			VSync:             true,
			FenceTimeout:      Duration{5 * time.Second},
			ClearColor:        [4]float32{0.01, 0.01, 0.01, 1},
			Validation:        true,
		},
		Assets: Assets{
			ShaderDir: "shaders",
			ModelDir:  "models",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file over the defaults. An empty path yields the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	cfg, err = Parse(data)
	if err != nil {
		return cfg, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.MaxFramesInFlight < 1 || c.Renderer.MaxFramesInFlight > MaxFramesInFlightLimit {
		return errors.Newf("max_frames_in_flight must be between 1 and %d, got %d", MaxFramesInFlightLimit, c.Renderer.MaxFramesInFlight)
	}
	if c.Renderer.FenceTimeout.Duration < 0 {
		return errors.Newf("fence_timeout must not be negative, got %s", c.Renderer.FenceTimeout)
	}
	if c.Assets.ShaderDir == "" {
		return errors.New("assets.shader_dir must be set")
	}
	if c.Assets.ModelDir == "" {
		return errors.New("assets.model_dir must be set")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Newf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func (c Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	return data, nil
}
