/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Algor1tm/Athena-sub002/engine"
	"github.com/Algor1tm/Athena-sub002/engine/core"
	_ "github.com/Algor1tm/Athena-sub002/engine/renderer/headless"
	_ "github.com/Algor1tm/Athena-sub002/engine/renderer/opengl"
	_ "github.com/Algor1tm/Athena-sub002/engine/renderer/vulkan"
	"github.com/Algor1tm/Athena-sub002/testbed"
)

func main() {
	var (
		configPath string
		backend    string
		frames     uint64
	)

	cmd := &cobra.Command{
		Use:          "athena",
		Short:        "Runs the Athena testbed",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := core.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.Renderer.Backend = backend
			}

			appConfig := engine.NewApplicationConfig(cfg)
			appConfig.MaxFrames = frames
			tb := testbed.NewTestGame(appConfig)

			e, err := engine.New(tb.Game)
			if err != nil {
				if errors.Is(err, core.ErrUnsupportedBackend) {
					core.LogFatal("%s", err)
				}
				return err
			}
			defer e.Shutdown()

			if err := e.Initialize(); err != nil {
				return err
			}

			// signal channel to capture system calls
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
			go func() {
				<-sigCh
				e.Quit()
			}()

			return e.Run()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "athena.toml", "engine configuration file")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "renderer backend override (vulkan, opengl, headless)")
	cmd.Flags().Uint64Var(&frames, "frames", 0, "exit after this many frames, 0 runs until the window closes")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
