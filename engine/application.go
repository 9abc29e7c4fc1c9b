package engine

import (
	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
	"github.com/Algor1tm/Athena-sub002/engine/core"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name   string
	Engine *core.Config
	// Options for textures acquired by name through the texture library.
	TextureOptions loaders.TextureOptions
	// Stop after this many rendered frames. Zero runs until the window closes
	// or Quit is called.
	MaxFrames uint64
	// Log renderer statistics every this many seconds. Zero disables it.
	StatsInterval float64
}

// NewApplicationConfig fills an application config from the engine
// configuration, falling back to the defaults when cfg is nil.
func NewApplicationConfig(cfg *core.Config) *ApplicationConfig {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	return &ApplicationConfig{
		Name:   cfg.Application.Name,
		Engine: cfg,
		TextureOptions: loaders.TextureOptions{
			GenerateMipMaps: true,
		},
		StatsInterval: 5,
	}
}
