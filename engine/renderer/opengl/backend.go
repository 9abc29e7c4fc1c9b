// Package opengl implements the renderer backend on OpenGL 4.6 core with
// direct state access. Every call must come from the thread owning the
// window's GL context.
package opengl

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

var ErrSurfaceRequired = errors.New("opengl backend requires a window with a GL context")

func init() {
	renderer.Register(renderer.BackendOpenGL, func() renderer.Backend { return New() })
}

type Backend struct {
	config      renderer.BackendConfig
	initialized bool
	surface     renderer.GLSurface

	deviceName    string
	version       string
	timestampBits uint32

	context   *Context
	swapchain *SwapChain
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Type() renderer.BackendType {
	return renderer.BackendOpenGL
}

func (b *Backend) Initialize(cfg *renderer.BackendConfig, surface renderer.Surface) error {
	if b.initialized {
		return core.ErrAlreadyInitialized
	}
	gs, ok := surface.(renderer.GLSurface)
	if !ok || gs == nil {
		core.LogError(ErrSurfaceRequired.Error())
		return ErrSurfaceRequired
	}
	b.surface = gs
	b.config = *cfg

	gs.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		core.LogError("failed to load OpenGL 4.6 functions: %s", err)
		return fmt.Errorf("%w: %v", ErrOpenGL, err)
	}
	b.deviceName = gl.GoStr(gl.GetString(gl.RENDERER))
	b.version = gl.GoStr(gl.GetString(gl.VERSION))

	var bits int32
	gl.GetQueryiv(gl.TIMESTAMP, gl.QUERY_COUNTER_BITS, &bits)
	b.timestampBits = uint32(bits)

	// Rows of client memory are tightly packed.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)

	if b.config.Validation {
		gl.Enable(gl.DEBUG_OUTPUT)
		gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
		gl.DebugMessageCallback(debugCallback, nil)
		core.LogInfo("OpenGL debug output enabled.")
	}
	if err := checkError("initialization"); err != nil {
		core.LogError(err.Error())
		return err
	}

	b.initialized = true
	core.LogInfo("OpenGL renderer initialized: %s (%s).", b.deviceName, b.version)
	return nil
}

func (b *Backend) Shutdown() error {
	if !b.initialized {
		return core.ErrNotInitialized
	}
	if b.swapchain != nil {
		b.swapchain.Destroy()
	}
	if b.context != nil {
		b.context.Destroy()
	}
	if b.config.Validation {
		gl.Disable(gl.DEBUG_OUTPUT)
	}
	b.initialized = false
	return nil
}

func (b *Backend) WaitIdle() error {
	if !b.initialized {
		return nil
	}
	gl.Finish()
	return nil
}

func (b *Backend) checkInitialized() error {
	if !b.initialized {
		return fmt.Errorf("opengl backend: %w", core.ErrNotInitialized)
	}
	return nil
}

func (b *Backend) CreateContext() (renderer.GraphicsContext, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	if b.context != nil {
		return nil, fmt.Errorf("opengl backend: %w: graphics context", core.ErrAlreadyInitialized)
	}
	frames := b.config.FramesInFlight
	if frames == 0 {
		frames = 1
	}
	b.context = newContext(b, frames)
	return b.context, nil
}

func (b *Backend) CreateSwapChain(info *metadata.SwapChainCreateInfo) (renderer.SwapChain, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	if b.swapchain != nil {
		return nil, fmt.Errorf("opengl backend: %w: swapchain", core.ErrAlreadyInitialized)
	}
	b.swapchain = newSwapChain(b, info)
	return b.swapchain, nil
}

func (b *Backend) CreateTexture(info *metadata.TextureCreateInfo, pixels []byte) (renderer.Texture2D, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newTexture(info, pixels)
}

func (b *Backend) CreateBuffer(info *metadata.BufferCreateInfo, data []byte) (renderer.GPUBuffer, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newBuffer(info, data)
}

func (b *Backend) CreateSampler(info *metadata.SamplerCreateInfo) (renderer.Sampler, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newSampler(info, true)
}

func (b *Backend) ReadTexture(tex renderer.Texture2D) ([]byte, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("opengl backend: texture '%s' belongs to another backend", tex.Name())
	}
	return t.read()
}

func (b *Backend) CreateQuerySet(kind metadata.QueryKind, count uint32) (profiler.QuerySet, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newQuerySet(b, kind, count)
}

func debugCallback(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		core.LogError("ERROR: [GL] Code %d : %s", id, message)
	case gl.DEBUG_SEVERITY_MEDIUM:
		core.LogWarn("WARNING: [GL] Code %d : %s", id, message)
	case gl.DEBUG_SEVERITY_LOW:
		core.LogInfo("[GL] Code %d : %s", id, message)
	default:
		core.LogDebug("[GL] Code %d : %s", id, message)
	}
}
