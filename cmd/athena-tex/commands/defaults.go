package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func newDefaultsCommand() *cobra.Command {
	var ext string
	cmd := &cobra.Command{
		Use:   "defaults <dir>",
		Short: "Export the built-in fallback textures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			factory, err := newHeadlessFactory()
			if err != nil {
				return err
			}
			defer factory.close()

			for _, def := range metadata.DefaultTextures() {
				tex, err := factory.CreateTexture(def.Info, def.Pixels)
				if err != nil {
					return err
				}
				path := filepath.Join(dir, def.Info.Name+ext)
				err = loaders.ExportTexture(factory, tex, path)
				tex.Release()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ext, "ext", ".png", "output extension")
	return cmd
}
