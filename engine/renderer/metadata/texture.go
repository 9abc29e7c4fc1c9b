package metadata

import (
	"fmt"

	"github.com/Algor1tm/Athena-sub002/engine/math"
)

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
	/** @brief The default diffuse texture name. */
	DEFAULT_DIFFUSE_TEXTURE_NAME string = "default_DIFF"
	/** @brief The default specular texture name. */
	DEFAULT_SPECULAR_TEXTURE_NAME string = "default_SPEC"
	/** @brief The default normal texture name. */
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
)

/** @brief How a texture is going to be accessed by the GPU. Bits can be combined. */
type TextureUsage uint32

const (
	TextureUsageSampled TextureUsage = 1 << iota
	TextureUsageStorage
	TextureUsageColorAttachment
	TextureUsageDepthStencilAttachment
	TextureUsageTransferSrc
	TextureUsageTransferDst

	// TextureUsageDefault is what imported textures get: sampled, uploadable
	// and readable back for export.
	TextureUsageDefault = TextureUsageSampled | TextureUsageTransferDst | TextureUsageTransferSrc
)

func (u TextureUsage) Has(flag TextureUsage) bool {
	return u&flag == flag
}

/**
 * @brief Represents various types of textures.
 */
type TextureType int

const (
	/** @brief A standard two-dimensional texture. */
	TextureType2d TextureType = iota
	/** @brief A cube texture, used for cubemaps. */
	TextureTypeCube
)

// TextureCreateInfo describes a texture. It is validated once at creation
// and never changes afterwards.
type TextureCreateInfo struct {
	Name   string
	Type   TextureType
	Format TextureFormat
	Width  uint32
	Height uint32
	// Layers defaults to 1 (6 for cube textures) when zero.
	Layers uint32
	// MipLevels defaults to 1 when zero. GenerateMipMaps overrides it with the
	// full chain length.
	MipLevels       uint32
	GenerateMipMaps bool
	Usage           TextureUsage
	Sampler         SamplerCreateInfo
}

// Normalize fills the defaulted fields. Validate calls it.
func (ci *TextureCreateInfo) Normalize() {
	if ci.Layers == 0 {
		ci.Layers = 1
		if ci.Type == TextureTypeCube {
			ci.Layers = 6
		}
	}
	if ci.GenerateMipMaps {
		ci.MipLevels = math.MipLevels(ci.Width, ci.Height)
	}
	if ci.MipLevels == 0 {
		ci.MipLevels = 1
	}
	if ci.Usage == 0 {
		ci.Usage = TextureUsageDefault
	}
}

func (ci *TextureCreateInfo) Validate() error {
	ci.Normalize()
	if ci.Width == 0 || ci.Height == 0 {
		return ci.invalid("dimensions must be non-zero (%dx%d)", ci.Width, ci.Height)
	}
	if !ci.Format.IsValid() {
		return ci.invalid("unknown format %s", ci.Format)
	}
	if maxMips := math.MipLevels(ci.Width, ci.Height); ci.MipLevels > maxMips {
		return ci.invalid("%d mip levels requested, %dx%d supports at most %d", ci.MipLevels, ci.Width, ci.Height, maxMips)
	}
	if ci.Type == TextureTypeCube {
		if ci.Layers != 6 {
			return ci.invalid("cube textures need 6 layers, got %d", ci.Layers)
		}
		if ci.Width != ci.Height {
			return ci.invalid("cube faces must be square (%dx%d)", ci.Width, ci.Height)
		}
	}

	depth := ci.Format.IsDepth()
	switch {
	case depth && !ci.Usage.Has(TextureUsageDepthStencilAttachment):
		return ci.invalid("depth format %s requires depth/stencil attachment usage", ci.Format)
	case !depth && ci.Usage.Has(TextureUsageDepthStencilAttachment):
		return ci.invalid("depth/stencil attachment usage requires a depth format, got %s", ci.Format)
	case depth && ci.Usage.Has(TextureUsageColorAttachment):
		return ci.invalid("depth format %s cannot be a color attachment", ci.Format)
	case ci.Usage.Has(TextureUsageStorage) && (depth || ci.Format.IsSRGB()):
		return ci.invalid("storage usage is not supported by %s", ci.Format)
	}
	if ci.GenerateMipMaps && depth {
		return ci.invalid("mip generation is not supported for depth format %s", ci.Format)
	}
	return ci.Sampler.Validate()
}

func (ci *TextureCreateInfo) invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: texture '%s': %s", ErrInvalidDescriptor, ci.Name, fmt.Sprintf(format, args...))
}

// ByteSize is the size of the base level of every layer.
func (ci *TextureCreateInfo) ByteSize() uint64 {
	layers := uint64(ci.Layers)
	if layers == 0 {
		layers = 1
	}
	return uint64(ci.Width) * uint64(ci.Height) * uint64(ci.Format.BytesPerPixel()) * layers
}

// DefaultTexture is a texture generated in code so that the engine never
// depends on assets for its fallbacks.
type DefaultTexture struct {
	Info   TextureCreateInfo
	Pixels []uint8
}

// DefaultTextures builds the fallback set: a 256x256 blue/white checkerboard,
// a white diffuse, a black specular and a flat normal map.
func DefaultTextures() []DefaultTexture {
	return []DefaultTexture{
		checkerboardTexture(),
		solidTexture(DEFAULT_DIFFUSE_TEXTURE_NAME, 16, [4]uint8{255, 255, 255, 255}),
		solidTexture(DEFAULT_SPECULAR_TEXTURE_NAME, 16, [4]uint8{0, 0, 0, 255}),
		// Blue, z-axis by default.
		solidTexture(DEFAULT_NORMAL_TEXTURE_NAME, 16, [4]uint8{128, 128, 255, 255}),
	}
}

func checkerboardTexture() DefaultTexture {
	const texDimension = 256
	const channels = 4
	pixels := make([]uint8, texDimension*texDimension*channels)
	for i := range pixels {
		pixels[i] = 255
	}
	for row := 0; row < texDimension; row++ {
		for col := 0; col < texDimension; col++ {
			if row%2 == col%2 {
				index := (row*texDimension + col) * channels
				pixels[index+0] = 0
				pixels[index+1] = 0
			}
		}
	}
	return DefaultTexture{
		Info: TextureCreateInfo{
			Name:   DEFAULT_TEXTURE_NAME,
			Format: TextureFormatRGBA8,
			Width:  texDimension,
			Height: texDimension,
			Usage:  TextureUsageSampled | TextureUsageTransferDst,
			Sampler: SamplerCreateInfo{
				MinFilter: TextureFilterModeNearest,
				MagFilter: TextureFilterModeNearest,
				WrapU:     TextureRepeatRepeat,
				WrapV:     TextureRepeatRepeat,
				WrapW:     TextureRepeatRepeat,
			},
		},
		Pixels: pixels,
	}
}

func solidTexture(name string, dimension uint32, color [4]uint8) DefaultTexture {
	pixels := make([]uint8, dimension*dimension*4)
	for i := 0; i < len(pixels); i += 4 {
		copy(pixels[i:i+4], color[:])
	}
	return DefaultTexture{
		Info: TextureCreateInfo{
			Name:    name,
			Format:  TextureFormatRGBA8,
			Width:   dimension,
			Height:  dimension,
			Usage:   TextureUsageSampled | TextureUsageTransferDst,
			Sampler: DefaultSampler(),
		},
		Pixels: pixels,
	}
}
