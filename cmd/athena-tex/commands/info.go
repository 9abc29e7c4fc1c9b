package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func newInfoCommand() *cobra.Command {
	var srgb bool
	cmd := &cobra.Command{
		Use:   "info <image>...",
		Short: "Show how images import as textures",
		Long: `Decode each image and print its size, the channel layout of the file, the
channel count after expansion and the texture format it would be uploaded
with.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				info, img, err := describe(path, srgb)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(out, "%s: %dx%d, %d source channels, %d channels, %d bits, %s, %d mips, %d bytes\n",
					path, img.Width, img.Height, img.SourceChannelCount, img.ChannelCount, img.BitDepth,
					info.Format, info.MipLevels, info.ByteSize())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&srgb, "srgb", false, "report the sRGB variant of the format")
	return cmd
}

func describe(path string, srgb bool) (metadata.TextureCreateInfo, *metadata.ImageResourceData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return metadata.TextureCreateInfo{}, nil, err
	}
	img, err := loaders.DecodeImage(data, &metadata.ImageResourceParams{})
	if err != nil {
		return metadata.TextureCreateInfo{}, nil, err
	}
	info, err := loaders.TextureInfo(img, loaders.TextureOptions{SRGB: srgb, GenerateMipMaps: true})
	if err != nil {
		return metadata.TextureCreateInfo{}, nil, err
	}
	info.Normalize()
	return info, img, nil
}
