package opengl

import (
	"errors"
	"testing"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func TestEveryFormatMapped(t *testing.T) {
	for f := metadata.TextureFormatR8; f.IsValid(); f++ {
		gf, err := lookupFormat(f)
		if err != nil {
			t.Errorf("%s: %v", f, err)
			continue
		}
		if gf.internal == 0 || gf.format == 0 || gf.xtype == 0 {
			t.Errorf("%s: incomplete mapping %+v", f, gf)
		}
	}
	if _, err := lookupFormat(metadata.TextureFormatUndefined); !errors.Is(err, metadata.ErrUnsupportedFormat) {
		t.Errorf("undefined format: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestMinFilter(t *testing.T) {
	nearest, linear := metadata.TextureFilterModeNearest, metadata.TextureFilterModeLinear
	tests := []struct {
		filter, mip metadata.TextureFilter
		mipmapped   bool
		want        int32
	}{
		{nearest, nearest, false, gl.NEAREST},
		{linear, nearest, false, gl.LINEAR},
		{nearest, nearest, true, gl.NEAREST_MIPMAP_NEAREST},
		{nearest, linear, true, gl.NEAREST_MIPMAP_LINEAR},
		{linear, nearest, true, gl.LINEAR_MIPMAP_NEAREST},
		{linear, linear, true, gl.LINEAR_MIPMAP_LINEAR},
	}
	for _, tt := range tests {
		if got := minFilter(tt.filter, tt.mip, tt.mipmapped); got != tt.want {
			t.Errorf("minFilter(%d, %d, %t) = 0x%x, want 0x%x", tt.filter, tt.mip, tt.mipmapped, got, tt.want)
		}
	}
}

func TestWrapMode(t *testing.T) {
	tests := map[metadata.TextureRepeat]int32{
		metadata.TextureRepeatRepeat:         gl.REPEAT,
		metadata.TextureRepeatMirroredRepeat: gl.MIRRORED_REPEAT,
		metadata.TextureRepeatClampToEdge:    gl.CLAMP_TO_EDGE,
		metadata.TextureRepeatClampToBorder:  gl.CLAMP_TO_BORDER,
	}
	for in, want := range tests {
		if got := wrapMode(in); got != want {
			t.Errorf("wrapMode(%d) = 0x%x, want 0x%x", in, got, want)
		}
	}
}

func TestStorageFlags(t *testing.T) {
	if got := storageFlags(metadata.MemoryTypeGPUOnly); got&gl.MAP_READ_BIT != 0 {
		t.Errorf("GPU only buffers are mappable: 0x%x", got)
	}
	for _, m := range []metadata.MemoryType{metadata.MemoryTypeCPUToGPU, metadata.MemoryTypeGPUToCPU} {
		got := storageFlags(m)
		if got&gl.DYNAMIC_STORAGE_BIT == 0 || got&gl.MAP_READ_BIT == 0 {
			t.Errorf("memory %d: flags 0x%x", m, got)
		}
	}
}

func TestErrorString(t *testing.T) {
	if got := errorString(gl.INVALID_OPERATION); got != "GL_INVALID_OPERATION" {
		t.Errorf("errorString = %s", got)
	}
	if got := errorString(0x1234); got != "GLenum(0x1234)" {
		t.Errorf("errorString of unknown = %s", got)
	}
}
