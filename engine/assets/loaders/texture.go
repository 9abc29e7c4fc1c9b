package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

var ErrUnsupportedExtension = errors.New("unsupported image file extension")

// TextureFactory is the part of the resource factory texture import and
// export need.
type TextureFactory interface {
	CreateTexture(info metadata.TextureCreateInfo, pixels []byte) (*renderer.Handle[renderer.Texture2D], error)
	ReadTexture(tex *renderer.Handle[renderer.Texture2D]) ([]byte, error)
}

type TextureOptions struct {
	// Name defaults to the file name without extension.
	Name            string
	SRGB            bool
	GenerateMipMaps bool
	FlipY           bool
	// Usage defaults to metadata.TextureUsageDefault.
	Usage   metadata.TextureUsage
	Sampler metadata.SamplerCreateInfo
}

// TextureInfo derives the create info of a decoded image.
func TextureInfo(img *metadata.ImageResourceData, opts TextureOptions) (metadata.TextureCreateInfo, error) {
	format, err := metadata.ColorFormat(img.ChannelCount, img.BitDepth, opts.SRGB)
	if err != nil {
		return metadata.TextureCreateInfo{}, err
	}
	return metadata.TextureCreateInfo{
		Name:            opts.Name,
		Type:            metadata.TextureType2d,
		Format:          format,
		Width:           img.Width,
		Height:          img.Height,
		GenerateMipMaps: opts.GenerateMipMaps,
		Usage:           opts.Usage,
		Sampler:         opts.Sampler,
	}, nil
}

// CreateTextureFromImage uploads an already decoded image.
func CreateTextureFromImage(factory TextureFactory, img *metadata.ImageResourceData, opts TextureOptions) (*renderer.Handle[renderer.Texture2D], error) {
	info, err := TextureInfo(img, opts)
	if err != nil {
		core.LogError("texture '%s' (%dx%d, %d channels, %d bits): %s", opts.Name, img.Width, img.Height, img.ChannelCount, img.BitDepth, err)
		return nil, err
	}
	return factory.CreateTexture(info, img.Pixels)
}

/**
 * @brief Loads an image file and creates a texture from it.
 * @param factory The factory of the active renderer.
 * @param path The file to load.
 * @param opts Import options.
 * @return The texture handle, nil on failure.
 */
func ImportTexture(factory TextureFactory, path string, opts TextureOptions) (*renderer.Handle[renderer.Texture2D], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		core.LogError("failed to read texture '%s': %s", path, err)
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ImportTextureFromMemory(factory, data, opts)
}

// ImportTextureFromMemory is ImportTexture for an encoded blob already in
// memory.
func ImportTextureFromMemory(factory TextureFactory, data []byte, opts TextureOptions) (*renderer.Handle[renderer.Texture2D], error) {
	if len(data) == 0 {
		err := fmt.Errorf("texture '%s': %w", opts.Name, ErrEmptyImage)
		core.LogError(err.Error())
		return nil, err
	}
	img, err := DecodeImage(data, &metadata.ImageResourceParams{FlipY: opts.FlipY})
	if err != nil {
		core.LogError("failed to decode texture '%s': %s", opts.Name, err)
		return nil, err
	}
	return CreateTextureFromImage(factory, img, opts)
}

// ExportTexture reads the base level back and encodes it by the extension
// of path: .png, .bmp, .tif/.tiff or .jpg/.jpeg.
func ExportTexture(factory TextureFactory, tex *renderer.Handle[renderer.Texture2D], path string) error {
	if tex == nil {
		err := errors.New("export: nil texture")
		core.LogError(err.Error())
		return err
	}
	t := tex.Get()
	pixels, err := factory.ReadTexture(tex)
	if err != nil {
		return err
	}
	img, err := ToImage(pixels, t.Width(), t.Height(), t.Format())
	if err != nil {
		core.LogError("failed to export texture '%s': %s", t.Name(), err)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		core.LogError("failed to export texture '%s': %s", t.Name(), err)
		return err
	}
	if err := EncodeImage(f, img, filepath.Ext(path)); err != nil {
		f.Close()
		os.Remove(path)
		core.LogError("failed to export texture '%s' to '%s': %s", t.Name(), path, err)
		return err
	}
	if err := f.Close(); err != nil {
		core.LogError("failed to export texture '%s' to '%s': %s", t.Name(), path, err)
		return err
	}
	core.LogDebug("texture '%s' exported to '%s'", t.Name(), path)
	return nil
}

func EncodeImage(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("%w: '%s'", ErrUnsupportedExtension, ext)
	}
}

// ToImage wraps texture memory in an image. 16-bit and float formats come
// out as 16 bits per channel.
func ToImage(pixels []byte, width, height uint32, format metadata.TextureFormat) (image.Image, error) {
	if width == 0 || height == 0 {
		return nil, ErrEmptyImage
	}
	if need := uint64(width) * uint64(height) * uint64(format.BytesPerPixel()); uint64(len(pixels)) < need {
		return nil, fmt.Errorf("%d bytes of pixel data, %s %dx%d needs %d", len(pixels), format, width, height, need)
	}
	rect := image.Rect(0, 0, int(width), int(height))
	count := int(width) * int(height)

	switch format {
	case metadata.TextureFormatR8:
		img := image.NewGray(rect)
		copy(img.Pix, pixels)
		return img, nil
	case metadata.TextureFormatRG8:
		img := image.NewNRGBA(rect)
		for i := 0; i < count; i++ {
			img.Pix[i*4+0] = pixels[i*2]
			img.Pix[i*4+1] = pixels[i*2]
			img.Pix[i*4+2] = pixels[i*2]
			img.Pix[i*4+3] = pixels[i*2+1]
		}
		return img, nil
	case metadata.TextureFormatRGBA8, metadata.TextureFormatRGBA8SRGB:
		img := image.NewNRGBA(rect)
		copy(img.Pix, pixels)
		return img, nil
	case metadata.TextureFormatBGRA8, metadata.TextureFormatBGRA8SRGB:
		img := image.NewNRGBA(rect)
		for i := 0; i < count; i++ {
			img.Pix[i*4+0] = pixels[i*4+2]
			img.Pix[i*4+1] = pixels[i*4+1]
			img.Pix[i*4+2] = pixels[i*4+0]
			img.Pix[i*4+3] = pixels[i*4+3]
		}
		return img, nil
	case metadata.TextureFormatR16:
		img := image.NewGray16(rect)
		for i := 0; i < count; i++ {
			img.SetGray16(i%int(width), i/int(width), color.Gray16{Y: binary.LittleEndian.Uint16(pixels[i*2:])})
		}
		return img, nil
	}

	read, channels := channelReader(pixels, format)
	if read == nil {
		return nil, fmt.Errorf("%w: cannot export %s", metadata.ErrUnsupportedFormat, format)
	}
	img := image.NewNRGBA64(rect)
	for i := 0; i < count; i++ {
		var c [4]uint16
		c[3] = 0xFFFF
		for ch := 0; ch < channels; ch++ {
			c[ch] = read(i*channels + ch)
		}
		if channels == 1 {
			c[1], c[2] = c[0], c[0]
		}
		img.SetNRGBA64(i%int(width), i/int(width), color.NRGBA64{R: c[0], G: c[1], B: c[2], A: c[3]})
	}
	return img, nil
}

// channelReader returns an accessor for the nth channel value of a 16-bit or
// float format, scaled to 16 bits.
func channelReader(pixels []byte, format metadata.TextureFormat) (func(n int) uint16, int) {
	switch format {
	case metadata.TextureFormatRG16, metadata.TextureFormatRGBA16:
		return func(n int) uint16 { return binary.LittleEndian.Uint16(pixels[n*2:]) }, int(format.Channels())
	case metadata.TextureFormatR16F, metadata.TextureFormatRGBA16F:
		return func(n int) uint16 { return unorm16(halfToFloat(binary.LittleEndian.Uint16(pixels[n*2:]))) }, int(format.Channels())
	case metadata.TextureFormatR32F, metadata.TextureFormatRG32F, metadata.TextureFormatRGBA32F:
		return func(n int) uint16 {
			return unorm16(math.Float32frombits(binary.LittleEndian.Uint32(pixels[n*4:])))
		}, int(format.Channels())
	}
	return nil, 0
}

func unorm16(v float32) uint16 {
	if v <= 0 || math.IsNaN(float64(v)) {
		return 0
	}
	if v >= 1 {
		return 0xFFFF
	}
	return uint16(v*0xFFFF + 0.5)
}

func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF
	switch {
	case exp == 0 && mant == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// Subnormal.
		v := float32(mant) / (1 << 24)
		if sign != 0 {
			v = -v
		}
		return v
	case exp == 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | mant<<13)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
}
