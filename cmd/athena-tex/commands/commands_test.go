package commands

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestPNG(t *testing.T, dir string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "input.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func opaqueImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 0x40, A: 0xFF})
		}
	}
	return img
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, opaqueImage(16, 8))

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "rgb png",
			args: []string{"info", input},
			want: "16x8, 3 source channels, 4 channels, 8 bits, RGBA8, 5 mips, 512 bytes",
		},
		{
			name: "srgb",
			args: []string{"info", "--srgb", input},
			want: "RGBA8_SRGB",
		},
		{
			name:    "missing file",
			args:    []string{"info", filepath.Join(dir, "missing.png")},
			wantErr: true,
		},
		{
			name:    "no args",
			args:    []string{"info"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
		})
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	src := opaqueImage(8, 4)
	input := writeTestPNG(t, dir, src)

	output := filepath.Join(dir, "out.png")
	if _, err := run(t, "convert", input, output); err != nil {
		t.Fatal(err)
	}
	got := decodePNG(t, output)
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds %v, want %v", got.Bounds(), src.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, a := got.At(x, y).RGBA()
			want := src.NRGBAAt(x, y)
			if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B || a != 0xFFFF {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.At(x, y), want)
			}
		}
	}

	flipped := filepath.Join(dir, "flipped.png")
	if _, err := run(t, "convert", "--flip", input, flipped); err != nil {
		t.Fatal(err)
	}
	img := decodePNG(t, flipped)
	r, g, _, _ := img.At(3, 0).RGBA()
	want := src.NRGBAAt(3, 3)
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G {
		t.Errorf("flipped row 0 = %v, want row 3 %v", img.At(3, 0), want)
	}
}

func TestConvertResize(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, opaqueImage(8, 8))
	output := filepath.Join(dir, "small.tiff")

	out, err := run(t, "convert", "--resize", "4x2", "--mips", input, output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "4x2") || !strings.Contains(out, "3 mips") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatal(err)
	}

	for _, size := range []string{"4", "0x2", "axb"} {
		if _, err := run(t, "convert", "--resize", size, input, output); err == nil {
			t.Errorf("size %q accepted", size)
		}
	}
}

func TestConvertUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, opaqueImage(2, 2))
	output := filepath.Join(dir, "out.xyz")
	if _, err := run(t, "convert", input, output); err == nil {
		t.Fatal("unknown extension accepted")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output left behind: %v", err)
	}
}

func TestDefaultsCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "defaults")
	out, err := run(t, "defaults", dir)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(out, "\n"); lines != 4 {
		t.Fatalf("%d textures exported:\n%s", lines, out)
	}
	checker := decodePNG(t, filepath.Join(dir, "default.png"))
	if checker.Bounds().Dx() != 256 {
		t.Errorf("checkerboard width %d", checker.Bounds().Dx())
	}
	// Even cells are blue, odd cells white.
	if r, _, b, _ := checker.At(0, 0).RGBA(); r != 0 || b != 0xFFFF {
		t.Errorf("pixel (0,0) = %v", checker.At(0, 0))
	}
	if r, _, _, _ := checker.At(1, 0).RGBA(); r != 0xFFFF {
		t.Errorf("pixel (1,0) = %v", checker.At(1, 0))
	}
}
