package metadata

import (
	"errors"
	"testing"
)

func TestTextureCreateInfoValidate(t *testing.T) {
	tests := []struct {
		name string
		info TextureCreateInfo
		ok   bool
	}{
		{"color", TextureCreateInfo{Format: TextureFormatRGBA8, Width: 4, Height: 4}, true},
		{"zero width", TextureCreateInfo{Format: TextureFormatRGBA8, Width: 0, Height: 4}, false},
		{"undefined format", TextureCreateInfo{Width: 4, Height: 4}, false},
		{"depth without depth usage", TextureCreateInfo{Format: TextureFormatDepth32F, Width: 4, Height: 4, Usage: TextureUsageSampled}, false},
		{"depth attachment", TextureCreateInfo{Format: TextureFormatDepth24Stencil8, Width: 4, Height: 4, Usage: TextureUsageDepthStencilAttachment | TextureUsageSampled}, true},
		{"depth usage on color", TextureCreateInfo{Format: TextureFormatRGBA8, Width: 4, Height: 4, Usage: TextureUsageDepthStencilAttachment}, false},
		{"depth as color attachment", TextureCreateInfo{Format: TextureFormatDepth32F, Width: 4, Height: 4, Usage: TextureUsageDepthStencilAttachment | TextureUsageColorAttachment}, false},
		{"srgb storage", TextureCreateInfo{Format: TextureFormatRGBA8SRGB, Width: 4, Height: 4, Usage: TextureUsageStorage}, false},
		{"too many mips", TextureCreateInfo{Format: TextureFormatRGBA8, Width: 4, Height: 4, MipLevels: 4}, false},
		{"full chain", TextureCreateInfo{Format: TextureFormatRGBA8, Width: 4, Height: 4, MipLevels: 3}, true},
		{"cube not square", TextureCreateInfo{Type: TextureTypeCube, Format: TextureFormatRGBA8, Width: 4, Height: 8}, false},
		{"bad sampler", TextureCreateInfo{Format: TextureFormatRGBA8, Width: 4, Height: 4, Sampler: SamplerCreateInfo{MaxAnisotropy: 32}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidDescriptor) {
				t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
			}
		})
	}
}

func TestTextureCreateInfoDefaults(t *testing.T) {
	info := TextureCreateInfo{Format: TextureFormatRGBA8, Width: 300, Height: 200, GenerateMipMaps: true}
	if err := info.Validate(); err != nil {
		t.Fatal(err)
	}
	if info.MipLevels != 9 {
		t.Fatalf("mip levels %d, want 9", info.MipLevels)
	}
	if info.Layers != 1 || info.Usage != TextureUsageDefault {
		t.Fatalf("layers %d usage %b", info.Layers, info.Usage)
	}
	if info.ByteSize() != 300*200*4 {
		t.Fatalf("byte size %d", info.ByteSize())
	}

	cube := TextureCreateInfo{Type: TextureTypeCube, Format: TextureFormatRGBA8, Width: 8, Height: 8}
	if err := cube.Validate(); err != nil {
		t.Fatal(err)
	}
	if cube.Layers != 6 {
		t.Fatalf("cube layers %d", cube.Layers)
	}
}

func TestColorFormat(t *testing.T) {
	tests := []struct {
		channels, depth uint8
		srgb            bool
		want            TextureFormat
	}{
		{4, 8, false, TextureFormatRGBA8},
		{4, 8, true, TextureFormatRGBA8SRGB},
		{1, 8, true, TextureFormatR8},
		{2, 16, false, TextureFormatRG16},
		{4, 32, false, TextureFormatRGBA32F},
	}
	for _, tt := range tests {
		got, err := ColorFormat(tt.channels, tt.depth, tt.srgb)
		if err != nil || got != tt.want {
			t.Errorf("ColorFormat(%d, %d, %t) = %s, %v; want %s", tt.channels, tt.depth, tt.srgb, got, err, tt.want)
		}
	}
	if _, err := ColorFormat(3, 8, false); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("3 channel formats must not exist, got %v", err)
	}
}

func TestDefaultTexturesAreValid(t *testing.T) {
	for _, d := range DefaultTextures() {
		info := d.Info
		if err := info.Validate(); err != nil {
			t.Fatalf("%s: %v", info.Name, err)
		}
		if uint64(len(d.Pixels)) != info.ByteSize() {
			t.Fatalf("%s: %d bytes of pixels for %d", info.Name, len(d.Pixels), info.ByteSize())
		}
	}
}
