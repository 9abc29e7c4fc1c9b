package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the engine configuration, usually read from athena.toml.
type Config struct {
	Application ApplicationSection `toml:"application"`
	Window      WindowSection      `toml:"window"`
	Renderer    RendererSection    `toml:"renderer"`
	Log         LogSection         `toml:"log"`
	Assets      AssetsSection      `toml:"assets"`
}

type ApplicationSection struct {
	Name string `toml:"name"`
}

type WindowSection struct {
	Title          string `toml:"title"`
	Width          uint32 `toml:"width"`
	Height         uint32 `toml:"height"`
	PosX           int32  `toml:"pos_x"`
	PosY           int32  `toml:"pos_y"`
	VSync          bool   `toml:"vsync"`
	CustomTitlebar bool   `toml:"custom_titlebar"`
	Mode           string `toml:"mode"`
	Icon           string `toml:"icon"`
}

type RendererSection struct {
	// One of "vulkan", "opengl" or "headless".
	Backend            string `toml:"backend"`
	FramesInFlight     uint32 `toml:"frames_in_flight"`
	CommandQueueSize   uint32 `toml:"command_queue_size"`
	MaxTimestamps      uint32 `toml:"max_timestamps"`
	MaxPipelineQueries uint32 `toml:"max_pipeline_queries"`
	Validation         bool   `toml:"validation"`
}

type LogSection struct {
	Level string `toml:"level"`
}

type AssetsSection struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationSection{
			Name: "Athena",
		},
		Window: WindowSection{
			Title:  "Athena",
			Width:  1280,
			Height: 720,
			PosX:   100,
			PosY:   100,
			VSync:  true,
			Mode:   "default",
		},
		Renderer: RendererSection{
			Backend:            "vulkan",
			FramesInFlight:     2,
			CommandQueueSize:   10 * 1024 * 1024,
			MaxTimestamps:      32,
			MaxPipelineQueries: 8,
		},
		Log: LogSection{
			Level: "info",
		},
		Assets: AssetsSection{
			Dir:   "assets",
			Watch: false,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is
// not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			LogWarn("config file '%s' not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := ParseConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML data into cfg and validates the result.
func ParseConfig(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window dimensions must be non-zero (%dx%d)", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	switch strings.ToLower(c.Renderer.Backend) {
	case "vulkan", "opengl", "headless":
	default:
		return fmt.Errorf("%w: unknown renderer backend %q", ErrInvalidConfig, c.Renderer.Backend)
	}
	if c.Renderer.FramesInFlight == 0 || c.Renderer.FramesInFlight > 4 {
		return fmt.Errorf("%w: frames_in_flight must be in [1, 4], got %d", ErrInvalidConfig, c.Renderer.FramesInFlight)
	}
	if c.Renderer.CommandQueueSize == 0 {
		return fmt.Errorf("%w: command_queue_size must be > 0", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Window.Mode) {
	case "", "default", "maximized", "minimized", "fullscreen":
	default:
		return fmt.Errorf("%w: unknown window mode %q", ErrInvalidConfig, c.Window.Mode)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}
