package opengl

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

var ErrOpenGL = errors.New("opengl call failed")

const (
	/** @brief Timeout of a frame fence wait, in nanoseconds. */
	fenceTimeout uint64 = 5 * 1000 * 1000 * 1000
	// Presentation is double buffered by the window system.
	swapchainImageCount = 2
)

// glFormat is the internal format used for storage and the client format
// used for transfers of a texture format.
type glFormat struct {
	internal uint32
	format   uint32
	xtype    uint32
}

var formatTable = map[metadata.TextureFormat]glFormat{
	metadata.TextureFormatR8:              {internal: gl.R8, format: gl.RED, xtype: gl.UNSIGNED_BYTE},
	metadata.TextureFormatRG8:             {internal: gl.RG8, format: gl.RG, xtype: gl.UNSIGNED_BYTE},
	metadata.TextureFormatRGBA8:           {internal: gl.RGBA8, format: gl.RGBA, xtype: gl.UNSIGNED_BYTE},
	metadata.TextureFormatRGBA8SRGB:       {internal: gl.SRGB8_ALPHA8, format: gl.RGBA, xtype: gl.UNSIGNED_BYTE},
	metadata.TextureFormatBGRA8:           {internal: gl.RGBA8, format: gl.BGRA, xtype: gl.UNSIGNED_BYTE},
	metadata.TextureFormatBGRA8SRGB:       {internal: gl.SRGB8_ALPHA8, format: gl.BGRA, xtype: gl.UNSIGNED_BYTE},
	metadata.TextureFormatR16:             {internal: gl.R16, format: gl.RED, xtype: gl.UNSIGNED_SHORT},
	metadata.TextureFormatRG16:            {internal: gl.RG16, format: gl.RG, xtype: gl.UNSIGNED_SHORT},
	metadata.TextureFormatRGBA16:          {internal: gl.RGBA16, format: gl.RGBA, xtype: gl.UNSIGNED_SHORT},
	metadata.TextureFormatR16F:            {internal: gl.R16F, format: gl.RED, xtype: gl.HALF_FLOAT},
	metadata.TextureFormatRGBA16F:         {internal: gl.RGBA16F, format: gl.RGBA, xtype: gl.HALF_FLOAT},
	metadata.TextureFormatR32F:            {internal: gl.R32F, format: gl.RED, xtype: gl.FLOAT},
	metadata.TextureFormatRG32F:           {internal: gl.RG32F, format: gl.RG, xtype: gl.FLOAT},
	metadata.TextureFormatRGBA32F:         {internal: gl.RGBA32F, format: gl.RGBA, xtype: gl.FLOAT},
	metadata.TextureFormatDepth32F:        {internal: gl.DEPTH_COMPONENT32F, format: gl.DEPTH_COMPONENT, xtype: gl.FLOAT},
	metadata.TextureFormatDepth24Stencil8: {internal: gl.DEPTH24_STENCIL8, format: gl.DEPTH_STENCIL, xtype: gl.UNSIGNED_INT_24_8},
}

func lookupFormat(f metadata.TextureFormat) (glFormat, error) {
	if gf, ok := formatTable[f]; ok {
		return gf, nil
	}
	return glFormat{}, fmt.Errorf("%w: %s", metadata.ErrUnsupportedFormat, f)
}

func minFilter(filter, mip metadata.TextureFilter, mipmapped bool) int32 {
	switch {
	case !mipmapped && filter == metadata.TextureFilterModeNearest:
		return gl.NEAREST
	case !mipmapped:
		return gl.LINEAR
	case filter == metadata.TextureFilterModeNearest && mip == metadata.TextureFilterModeNearest:
		return gl.NEAREST_MIPMAP_NEAREST
	case filter == metadata.TextureFilterModeNearest:
		return gl.NEAREST_MIPMAP_LINEAR
	case mip == metadata.TextureFilterModeNearest:
		return gl.LINEAR_MIPMAP_NEAREST
	default:
		return gl.LINEAR_MIPMAP_LINEAR
	}
}

func magFilter(f metadata.TextureFilter) int32 {
	if f == metadata.TextureFilterModeNearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func wrapMode(r metadata.TextureRepeat) int32 {
	switch r {
	case metadata.TextureRepeatMirroredRepeat:
		return gl.MIRRORED_REPEAT
	case metadata.TextureRepeatClampToEdge:
		return gl.CLAMP_TO_EDGE
	case metadata.TextureRepeatClampToBorder:
		return gl.CLAMP_TO_BORDER
	default:
		return gl.REPEAT
	}
}

// Buffers are immutable storage; CPU visible memory types are mapped for
// reads as well as writes.
func storageFlags(m metadata.MemoryType) uint32 {
	flags := uint32(gl.DYNAMIC_STORAGE_BIT)
	if m.HostVisible() {
		flags |= gl.MAP_READ_BIT | gl.MAP_WRITE_BIT
	}
	return flags
}

// The counters of a pipeline statistics query, in metadata.PipelineStatistics
// field order. GL tracks each of them with a separate query object.
var pipelineStatisticTargets = [metadata.PipelineStatisticsCount]uint32{
	gl.VERTICES_SUBMITTED,
	gl.PRIMITIVES_SUBMITTED,
	gl.VERTEX_SHADER_INVOCATIONS,
	gl.CLIPPING_INPUT_PRIMITIVES,
	gl.CLIPPING_OUTPUT_PRIMITIVES,
	gl.FRAGMENT_SHADER_INVOCATIONS,
	gl.COMPUTE_SHADER_INVOCATIONS,
}

// errorString names the values of glGetError.
func errorString(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.STACK_OVERFLOW:
		return "GL_STACK_OVERFLOW"
	case gl.STACK_UNDERFLOW:
		return "GL_STACK_UNDERFLOW"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("GLenum(0x%x)", code)
	}
}

// checkError drains the GL error queue and reports the first error.
func checkError(op string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrOpenGL, op, errorString(first))
}
