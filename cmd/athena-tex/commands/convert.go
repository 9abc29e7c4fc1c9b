package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
)

type convertOptions struct {
	srgb   bool
	flipY  bool
	mips   bool
	resize string
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Import an image as a texture and export it again",
		Long: `Import <input> through the texture importer, upload it to the headless
renderer, read it back and encode it to <output>. The output format follows
the extension: .png, .bmp, .tif/.tiff or .jpg/.jpeg.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&opts.srgb, "srgb", false, "import as sRGB")
	cmd.Flags().BoolVar(&opts.flipY, "flip", false, "flip rows on import")
	cmd.Flags().BoolVar(&opts.mips, "mips", false, "generate the mip chain")
	cmd.Flags().StringVar(&opts.resize, "resize", "", "resample to WIDTHxHEIGHT before import")
	return cmd
}

func runConvert(cmd *cobra.Command, opts *convertOptions, input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	if opts.resize != "" {
		width, height, err := parseSize(opts.resize)
		if err != nil {
			return err
		}
		if data, err = resample(data, width, height); err != nil {
			return fmt.Errorf("resize %s: %w", input, err)
		}
	}

	factory, err := newHeadlessFactory()
	if err != nil {
		return err
	}
	defer factory.close()

	tex, err := loaders.ImportTextureFromMemory(factory, data, loaders.TextureOptions{
		Name:            strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)),
		SRGB:            opts.srgb,
		GenerateMipMaps: opts.mips,
		FlipY:           opts.flipY,
	})
	if err != nil {
		return err
	}
	defer tex.Release()

	if err := loaders.ExportTexture(factory, tex, output); err != nil {
		return err
	}
	t := tex.Get()
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%dx%d %s, %d mips)\n",
		input, output, t.Width(), t.Height(), t.Format(), t.Info().MipLevels)
	return nil
}

func parseSize(s string) (uint32, uint32, error) {
	var width, height uint32
	if n, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &width, &height); err != nil || n != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WIDTHxHEIGHT", s)
	}
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be non-zero", s)
	}
	return width, height, nil
}

// resample scales an encoded image and returns it as PNG, keeping 16-bit
// sources at 16 bits.
func resample(data []byte, width, height uint32) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, int(width), int(height))
	var dst draw.Image
	switch src.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		dst = image.NewNRGBA64(rect)
	default:
		dst = image.NewNRGBA(rect)
	}
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
