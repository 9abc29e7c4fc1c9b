package metadata

import "fmt"

/**
 * @brief Pixel formats understood by every backend. There is deliberately no
 * 3 component format: importers pad RGB data to RGBA before upload.
 */
type TextureFormat uint8

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatR8
	TextureFormatRG8
	TextureFormatRGBA8
	TextureFormatRGBA8SRGB
	TextureFormatBGRA8
	TextureFormatBGRA8SRGB
	TextureFormatR16
	TextureFormatRG16
	TextureFormatRGBA16
	TextureFormatR16F
	TextureFormatRGBA16F
	TextureFormatR32F
	TextureFormatRG32F
	TextureFormatRGBA32F
	TextureFormatDepth32F
	TextureFormatDepth24Stencil8
	textureFormatCount
)

type formatInfo struct {
	name          string
	channels      uint8
	bytesPerPixel uint32
	srgb          bool
	float         bool
	depth         bool
	stencil       bool
}

var formatTable = [textureFormatCount]formatInfo{
	TextureFormatUndefined:       {name: "Undefined"},
	TextureFormatR8:              {name: "R8", channels: 1, bytesPerPixel: 1},
	TextureFormatRG8:             {name: "RG8", channels: 2, bytesPerPixel: 2},
	TextureFormatRGBA8:           {name: "RGBA8", channels: 4, bytesPerPixel: 4},
	TextureFormatRGBA8SRGB:       {name: "RGBA8_SRGB", channels: 4, bytesPerPixel: 4, srgb: true},
	TextureFormatBGRA8:           {name: "BGRA8", channels: 4, bytesPerPixel: 4},
	TextureFormatBGRA8SRGB:       {name: "BGRA8_SRGB", channels: 4, bytesPerPixel: 4, srgb: true},
	TextureFormatR16:             {name: "R16", channels: 1, bytesPerPixel: 2},
	TextureFormatRG16:            {name: "RG16", channels: 2, bytesPerPixel: 4},
	TextureFormatRGBA16:          {name: "RGBA16", channels: 4, bytesPerPixel: 8},
	TextureFormatR16F:            {name: "R16F", channels: 1, bytesPerPixel: 2, float: true},
	TextureFormatRGBA16F:         {name: "RGBA16F", channels: 4, bytesPerPixel: 8, float: true},
	TextureFormatR32F:            {name: "R32F", channels: 1, bytesPerPixel: 4, float: true},
	TextureFormatRG32F:           {name: "RG32F", channels: 2, bytesPerPixel: 8, float: true},
	TextureFormatRGBA32F:         {name: "RGBA32F", channels: 4, bytesPerPixel: 16, float: true},
	TextureFormatDepth32F:        {name: "D32F", channels: 1, bytesPerPixel: 4, float: true, depth: true},
	TextureFormatDepth24Stencil8: {name: "D24S8", channels: 2, bytesPerPixel: 4, depth: true, stencil: true},
}

func (f TextureFormat) info() formatInfo {
	if f >= textureFormatCount {
		return formatInfo{}
	}
	return formatTable[f]
}

func (f TextureFormat) String() string {
	if f >= textureFormatCount {
		return fmt.Sprintf("TextureFormat(%d)", uint8(f))
	}
	return formatTable[f].name
}

func (f TextureFormat) IsValid() bool {
	return f != TextureFormatUndefined && f < textureFormatCount
}

func (f TextureFormat) Channels() uint8       { return f.info().channels }
func (f TextureFormat) BytesPerPixel() uint32 { return f.info().bytesPerPixel }
func (f TextureFormat) IsSRGB() bool          { return f.info().srgb }
func (f TextureFormat) IsFloat() bool         { return f.info().float }
func (f TextureFormat) IsDepth() bool         { return f.info().depth }
func (f TextureFormat) HasStencil() bool      { return f.info().stencil }

// ColorFormat picks the color format matching a channel count, a bit depth
// (8, 16 or 32 bits per channel, 32 meaning float) and the sRGB flag. Only
// 4 channel 8-bit formats have an sRGB variant.
func ColorFormat(channels uint8, bitDepth uint8, srgb bool) (TextureFormat, error) {
	switch bitDepth {
	case 8:
		switch channels {
		case 1:
			return TextureFormatR8, nil
		case 2:
			return TextureFormatRG8, nil
		case 4:
			if srgb {
				return TextureFormatRGBA8SRGB, nil
			}
			return TextureFormatRGBA8, nil
		}
	case 16:
		switch channels {
		case 1:
			return TextureFormatR16, nil
		case 2:
			return TextureFormatRG16, nil
		case 4:
			return TextureFormatRGBA16, nil
		}
	case 32:
		switch channels {
		case 1:
			return TextureFormatR32F, nil
		case 2:
			return TextureFormatRG32F, nil
		case 4:
			return TextureFormatRGBA32F, nil
		}
	}
	return TextureFormatUndefined, fmt.Errorf("%w: no format for %d channels at %d bits", ErrUnsupportedFormat, channels, bitDepth)
}
