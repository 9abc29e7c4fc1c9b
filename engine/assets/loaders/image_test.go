package loaders

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func opaqueRGB(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(20 * y), B: 200, A: 255})
		}
	}
	return img
}

func TestExpandToRGBA8(t *testing.T) {
	rgb := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	out := ExpandToRGBA(rgb, 8)
	if len(out) != 2*2*4 {
		t.Fatalf("got %d bytes, want 16", len(out))
	}
	for i := 0; i < 4; i++ {
		if out[i*4+3] != 255 {
			t.Errorf("pixel %d alpha = %d", i, out[i*4+3])
		}
		for c := 0; c < 3; c++ {
			if out[i*4+c] != rgb[i*3+c] {
				t.Errorf("pixel %d channel %d = %d, want %d", i, c, out[i*4+c], rgb[i*3+c])
			}
		}
	}
}

func TestExpandToRGBAWideChannels(t *testing.T) {
	rgb16 := make([]uint8, 6)
	out := ExpandToRGBA(rgb16, 16)
	if len(out) != 8 || binary.LittleEndian.Uint16(out[6:]) != 0xFFFF {
		t.Fatalf("16-bit expansion: %v", out)
	}

	rgb32 := make([]uint8, 12)
	binary.LittleEndian.PutUint32(rgb32[0:], math.Float32bits(0.5))
	out = ExpandToRGBA(rgb32, 32)
	if len(out) != 16 {
		t.Fatalf("float expansion: %d bytes", len(out))
	}
	if a := math.Float32frombits(binary.LittleEndian.Uint32(out[12:])); a != 1.0 {
		t.Fatalf("float alpha = %f", a)
	}
	if r := math.Float32frombits(binary.LittleEndian.Uint32(out[0:])); r != 0.5 {
		t.Fatalf("float red = %f", r)
	}
}

func TestExpandToRGBARejectsBitDepth(t *testing.T) {
	for _, depth := range []uint8{0, 4, 12, 64} {
		if out := ExpandToRGBA(make([]uint8, 12), depth); out != nil {
			t.Errorf("bit depth %d expanded to %d bytes", depth, len(out))
		}
	}
}

func TestDecodeRGBPNGPadsAlpha(t *testing.T) {
	const w, h = 5, 3
	img, err := DecodeImage(encodePNG(t, opaqueRGB(w, h)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.SourceChannelCount != 3 || img.ChannelCount != 4 || img.BitDepth != 8 {
		t.Fatalf("layout: source %d, channels %d, depth %d", img.SourceChannelCount, img.ChannelCount, img.BitDepth)
	}
	if len(img.Pixels) != w*h*4 {
		t.Fatalf("got %d bytes, want %d", len(img.Pixels), w*h*4)
	}
	for i := 0; i < w*h; i++ {
		if img.Pixels[i*4+3] != 255 {
			t.Fatalf("pixel %d alpha = %d", i, img.Pixels[i*4+3])
		}
	}
	// Pixel (2, 1).
	p := img.Pixels[(1*w+2)*4:]
	if p[0] != 20 || p[1] != 20 || p[2] != 200 {
		t.Fatalf("pixel (2,1) = %v", p[:4])
	}
}

func TestDecodeTransparentPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 128})
	img, err := DecodeImage(encodePNG(t, src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.SourceChannelCount != 4 || img.ChannelCount != 4 {
		t.Fatalf("channels: source %d, out %d", img.SourceChannelCount, img.ChannelCount)
	}
	if got := img.Pixels[3*4:]; got[0] != 255 || got[3] != 128 {
		t.Fatalf("pixel (1,1) = %v", got)
	}
}

// withColorKey inserts a tRNS chunk right after the IHDR chunk of an
// encoded png.
func withColorKey(t *testing.T, encoded []byte, key []byte) []byte {
	t.Helper()
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(encoded) < ihdrEnd {
		t.Fatal("png too short")
	}
	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(key)))
	chunk = append(chunk, "tRNS"...)
	chunk = append(chunk, key...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := append([]byte(nil), encoded[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, encoded[ihdrEnd:]...)
}

func TestDecodeColorKeyedPNG(t *testing.T) {
	rgb := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	rgb.SetNRGBA(0, 0, color.NRGBA{R: 255, B: 255, A: 255})
	rgb.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	encoded := encodePNG(t, rgb)
	if encoded[25] != pngRGB {
		t.Fatalf("encoder wrote color type %d", encoded[25])
	}

	img, err := DecodeImage(withColorKey(t, encoded, []byte{0, 255, 0, 0, 0, 255}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.SourceChannelCount != 4 || img.ChannelCount != 4 {
		t.Fatalf("rgb channels: source %d, out %d", img.SourceChannelCount, img.ChannelCount)
	}
	if img.Pixels[3] != 0 || img.Pixels[7] != 255 {
		t.Fatalf("rgb alpha = %d, %d", img.Pixels[3], img.Pixels[7])
	}

	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 200})
	encoded = encodePNG(t, gray)
	if encoded[25] != pngGray {
		t.Fatalf("encoder wrote color type %d", encoded[25])
	}

	img, err = DecodeImage(withColorKey(t, encoded, []byte{0, 0}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.SourceChannelCount != 2 || img.ChannelCount != 2 {
		t.Fatalf("gray channels: source %d, out %d", img.SourceChannelCount, img.ChannelCount)
	}
	want := []uint8{0, 0, 200, 255}
	if !bytes.Equal(img.Pixels, want) {
		t.Fatalf("gray pixels %v, want %v", img.Pixels, want)
	}
}

func TestDecodeGrayscale(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(2, 1, color.Gray{Y: 77})
	img, err := DecodeImage(encodePNG(t, gray), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.ChannelCount != 1 || img.BitDepth != 8 || len(img.Pixels) != 6 || img.Pixels[5] != 77 {
		t.Fatalf("gray8: %d channels, %d bits, %v", img.ChannelCount, img.BitDepth, img.Pixels)
	}

	gray16 := image.NewGray16(image.Rect(0, 0, 2, 1))
	gray16.SetGray16(1, 0, color.Gray16{Y: 0x1234})
	img, err = DecodeImage(encodePNG(t, gray16), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.ChannelCount != 1 || img.BitDepth != 16 || len(img.Pixels) != 4 {
		t.Fatalf("gray16: %d channels, %d bits, %d bytes", img.ChannelCount, img.BitDepth, len(img.Pixels))
	}
	if v := binary.LittleEndian.Uint16(img.Pixels[2:]); v != 0x1234 {
		t.Fatalf("gray16 value 0x%x", v)
	}
}

func TestDecodeJPEGAndBMP(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, opaqueRGB(8, 8), nil); err != nil {
		t.Fatal(err)
	}
	var bm bytes.Buffer
	if err := bmp.Encode(&bm, opaqueRGB(4, 4)); err != nil {
		t.Fatal(err)
	}
	for name, data := range map[string][]byte{"jpeg": jpg.Bytes(), "bmp": bm.Bytes()} {
		img, err := DecodeImage(data, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if img.ChannelCount != 4 || len(img.Pixels) != int(img.Width*img.Height*4) {
			t.Errorf("%s: %d channels, %d bytes", name, img.ChannelCount, len(img.Pixels))
		}
		for i := 3; i < len(img.Pixels); i += 4 {
			if img.Pixels[i] != 255 {
				t.Errorf("%s: alpha %d at byte %d", name, img.Pixels[i], i)
				break
			}
		}
	}
}

func TestDecodeFlipY(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 1, 3))
	gray.Pix = []uint8{1, 2, 3}
	img, err := DecodeImage(encodePNG(t, gray), &metadata.ImageResourceParams{FlipY: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img.Pixels, []uint8{3, 2, 1}) {
		t.Fatalf("flipped rows = %v", img.Pixels)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeImage([]byte("definitely not an image"), nil); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestHalfToFloat(t *testing.T) {
	tests := map[uint16]float32{
		0x0000: 0,
		0x3C00: 1,
		0xC000: -2,
		0x3800: 0.5,
		0x0001: 1.0 / (1 << 24),
	}
	for in, want := range tests {
		if got := halfToFloat(in); got != want {
			t.Errorf("halfToFloat(0x%04x) = %g, want %g", in, got, want)
		}
	}
	if !math.IsInf(float64(halfToFloat(0x7C00)), 1) {
		t.Error("0x7c00 should be +Inf")
	}
}
