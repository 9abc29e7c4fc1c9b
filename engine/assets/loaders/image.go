package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

var ErrEmptyImage = errors.New("image has no pixels")

// Resource is what a loader hands back: the decoded payload plus where it
// came from.
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     interface{}
}

type ImageLoader struct{}

func (il *ImageLoader) Load(path string, params interface{}) (*Resource, error) {
	typedParams, _ := params.(*metadata.ImageResourceParams)
	if typedParams == nil {
		typedParams = &metadata.ImageResourceParams{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data, typedParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(img.Pixels)),
		Data:     img,
	}, nil
}

func (il *ImageLoader) Unload(res *Resource) error {
	if res != nil {
		res.Data = nil
	}
	return nil
}

/**
 * @brief Decodes an encoded image (png, jpeg, gif, bmp, tiff or webp) into
 * tightly packed pixels. Color images always come out with 4 channels; 3
 * channel sources are padded with an opaque alpha.
 */
func DecodeImage(data []byte, params *metadata.ImageResourceParams) (*metadata.ImageResourceData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	out := &metadata.ImageResourceData{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
	out.SourceChannelCount, out.BitDepth = sourceLayout(img, data)

	switch out.SourceChannelCount {
	case 1:
		out.ChannelCount = 1
		out.Pixels = extractGray(img, out.BitDepth)
	case 2:
		out.ChannelCount = 2
		out.Pixels = extractGrayAlpha(img, out.BitDepth)
	case 3:
		out.ChannelCount = 4
		out.Pixels = ExpandToRGBA(extractRGB(img, out.BitDepth), out.BitDepth)
	default:
		out.ChannelCount = 4
		out.Pixels = extractRGBA(img, out.BitDepth)
	}

	if params != nil && params.FlipY {
		FlipRows(out.Pixels, out.Height)
	}
	return out, nil
}

// PNG color types from the IHDR chunk.
const (
	pngGray      = 0
	pngRGB       = 2
	pngPalette   = 3
	pngGrayAlpha = 4
	pngRGBA      = 6
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// sourceLayout infers the channel count and bit depth of the source. Go
// decodes gray+alpha and RGB pngs into RGBA images, so for png the header
// is consulted. Gray and RGB pngs with a tRNS color key decode with real
// alpha and gain an alpha channel.
func sourceLayout(img image.Image, data []byte) (channels uint8, bitDepth uint8) {
	if len(data) >= 26 && bytes.HasPrefix(data, pngSignature) {
		depth := uint8(8)
		if data[24] == 16 {
			depth = 16
		}
		switch data[25] {
		case pngGray:
			if !isOpaque(img) {
				return 2, depth
			}
			return 1, depth
		case pngGrayAlpha:
			return 2, depth
		case pngRGB:
			if !isOpaque(img) {
				return 4, depth
			}
			return 3, depth
		case pngPalette:
			if isOpaque(img) {
				return 3, 8
			}
			return 4, 8
		case pngRGBA:
			return 4, depth
		}
	}

	switch m := img.(type) {
	case *image.Gray:
		return 1, 8
	case *image.Gray16:
		return 1, 16
	case *image.YCbCr, *image.CMYK:
		return 3, 8
	case *image.RGBA64, *image.NRGBA64:
		if isOpaque(m) {
			return 3, 16
		}
		return 4, 16
	default:
		if isOpaque(m) {
			return 3, 8
		}
		return 4, 8
	}
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// toNRGBA converts to straight alpha, 8 or 16 bits per channel.
func toNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Rect.Min == (image.Point{}) && m.Stride == 4*m.Rect.Dx() {
		return m
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

func toNRGBA64(img image.Image) *image.NRGBA64 {
	if m, ok := img.(*image.NRGBA64); ok && m.Rect.Min == (image.Point{}) && m.Stride == 8*m.Rect.Dx() {
		return m
	}
	b := img.Bounds()
	dst := image.NewNRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

// pick copies the selected channels of every pixel. 16-bit images are stored
// big endian by the image package and little endian on the GPU.
func pick(img image.Image, bitDepth uint8, channels []int) []uint8 {
	if bitDepth == 16 {
		src := toNRGBA64(img)
		out := make([]uint8, 0, len(src.Pix)/8*len(channels)*2)
		for i := 0; i < len(src.Pix); i += 8 {
			for _, c := range channels {
				v := uint16(src.Pix[i+2*c])<<8 | uint16(src.Pix[i+2*c+1])
				out = binary.LittleEndian.AppendUint16(out, v)
			}
		}
		return out
	}
	src := toNRGBA(img)
	if len(channels) == 4 {
		return src.Pix
	}
	out := make([]uint8, 0, len(src.Pix)/4*len(channels))
	for i := 0; i < len(src.Pix); i += 4 {
		for _, c := range channels {
			out = append(out, src.Pix[i+c])
		}
	}
	return out
}

func extractGray(img image.Image, bitDepth uint8) []uint8 {
	switch m := img.(type) {
	case *image.Gray:
		if bitDepth == 8 && m.Stride == m.Rect.Dx() {
			return append([]uint8(nil), m.Pix...)
		}
	case *image.Gray16:
		out := make([]uint8, 0, m.Rect.Dx()*m.Rect.Dy()*2)
		for y := 0; y < m.Rect.Dy(); y++ {
			row := m.Pix[y*m.Stride : y*m.Stride+m.Rect.Dx()*2]
			for i := 0; i < len(row); i += 2 {
				out = append(out, row[i+1], row[i])
			}
		}
		return out
	}
	return pick(img, bitDepth, []int{0})
}

func extractGrayAlpha(img image.Image, bitDepth uint8) []uint8 {
	return pick(img, bitDepth, []int{0, 3})
}

func extractRGB(img image.Image, bitDepth uint8) []uint8 {
	return pick(img, bitDepth, []int{0, 1, 2})
}

func extractRGBA(img image.Image, bitDepth uint8) []uint8 {
	pixels := pick(img, bitDepth, []int{0, 1, 2, 3})
	if bitDepth == 8 {
		// pick may hand back the decoder's buffer.
		return append([]uint8(nil), pixels...)
	}
	return pixels
}

// ExpandToRGBA pads tightly packed 3 channel pixels with an alpha channel at
// its maximum: 255 for 8 bits, 65535 for 16 bits and 1.0 for 32-bit float.
// Any other bit depth yields nil.
func ExpandToRGBA(rgb []uint8, bitDepth uint8) []uint8 {
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 32 {
		return nil
	}
	channelSize := int(bitDepth) / 8
	pixelSize := 3 * channelSize
	count := len(rgb) / pixelSize
	out := make([]uint8, 0, count*4*channelSize)

	var alpha []uint8
	switch bitDepth {
	case 16:
		alpha = binary.LittleEndian.AppendUint16(nil, 0xFFFF)
	case 32:
		alpha = binary.LittleEndian.AppendUint32(nil, math.Float32bits(1.0))
	default:
		alpha = []uint8{0xFF}
	}
	for i := 0; i < count; i++ {
		out = append(out, rgb[i*pixelSize:(i+1)*pixelSize]...)
		out = append(out, alpha...)
	}
	return out
}

// FlipRows mirrors the pixel rows in place.
func FlipRows(pixels []uint8, height uint32) {
	if height < 2 {
		return
	}
	stride := len(pixels) / int(height)
	tmp := make([]uint8, stride)
	for top, bottom := 0, int(height)-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pixels[top*stride : (top+1)*stride]
		b := pixels[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
