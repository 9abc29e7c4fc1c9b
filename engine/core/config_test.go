package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	data := []byte(`
[window]
title = "Sandbox"
width = 1600
height = 900
custom_titlebar = true

[renderer]
backend = "headless"
frames_in_flight = 3

[log]
level = "debug"
`)
	cfg := DefaultConfig()
	if err := ParseConfig(data, cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Window.Title != "Sandbox" || cfg.Window.Width != 1600 || cfg.Window.Height != 900 {
		t.Fatalf("window section not applied: %+v", cfg.Window)
	}
	if !cfg.Window.CustomTitlebar {
		t.Fatal("custom_titlebar not applied")
	}
	if cfg.Renderer.Backend != "headless" || cfg.Renderer.FramesInFlight != 3 {
		t.Fatalf("renderer section not applied: %+v", cfg.Renderer)
	}
	// Untouched keys keep their defaults.
	if cfg.Renderer.CommandQueueSize != DefaultConfig().Renderer.CommandQueueSize {
		t.Fatalf("command_queue_size changed to %d", cfg.Renderer.CommandQueueSize)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := map[string]string{
		"zero width":      "[window]\nwidth = 0\n",
		"unknown backend": "[renderer]\nbackend = \"metal\"\n",
		"too many frames": "[renderer]\nframes_in_flight = 8\n",
		"zero queue":      "[renderer]\ncommand_queue_size = 0\n",
		"bad mode":        "[window]\nmode = \"borderless\"\n",
		"bad log level":   "[log]\nlevel = \"loud\"\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			err := ParseConfig([]byte(data), DefaultConfig())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Window.Width != DefaultConfig().Window.Width {
		t.Fatal("missing file should yield defaults")
	}

	path := filepath.Join(dir, "athena.toml")
	if err := os.WriteFile(path, []byte("[application]\nname = \"Editor\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Application.Name != "Editor" {
		t.Fatalf("name %q", cfg.Application.Name)
	}

	if err := os.WriteFile(path, []byte("[window\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected a decode error")
	}
}
