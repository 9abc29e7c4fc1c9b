// Package headless is a CPU implementation of the renderer backend. Images
// live in system memory, timestamps come from the monotonic clock and
// pipeline statistics are counted from the recorded operations. It backs
// the tests and the offline tools.
package headless

import (
	"fmt"
	"time"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

func init() {
	renderer.Register(renderer.BackendHeadless, func() renderer.Backend { return New() })
}

type Backend struct {
	config      renderer.BackendConfig
	initialized bool
	epoch       time.Time

	stats     metadata.PipelineStatistics
	swapchain *SwapChain
	context   *Context
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Type() renderer.BackendType {
	return renderer.BackendHeadless
}

func (b *Backend) Initialize(cfg *renderer.BackendConfig, surface renderer.Surface) error {
	if b.initialized {
		return core.ErrAlreadyInitialized
	}
	b.config = *cfg
	if surface != nil {
		b.config.Width, b.config.Height = surface.FramebufferSize()
	}
	b.epoch = time.Now()
	b.initialized = true
	core.LogDebug("headless backend initialized")
	return nil
}

func (b *Backend) Shutdown() error {
	if !b.initialized {
		return core.ErrNotInitialized
	}
	b.initialized = false
	b.swapchain = nil
	b.context = nil
	return nil
}

func (b *Backend) WaitIdle() error {
	return nil
}

// now is the GPU clock: nanoseconds since initialization.
func (b *Backend) now() uint64 {
	return uint64(time.Since(b.epoch).Nanoseconds())
}

// Statistics returns the counters accumulated since initialization.
func (b *Backend) Statistics() metadata.PipelineStatistics {
	return b.stats
}

func (b *Backend) checkInitialized() error {
	if !b.initialized {
		return fmt.Errorf("headless backend: %w", core.ErrNotInitialized)
	}
	return nil
}

func (b *Backend) CreateContext() (renderer.GraphicsContext, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	if b.context != nil {
		return nil, fmt.Errorf("headless backend: %w: graphics context", core.ErrAlreadyInitialized)
	}
	b.context = &Context{backend: b}
	return b.context, nil
}

func (b *Backend) CreateSwapChain(info *metadata.SwapChainCreateInfo) (renderer.SwapChain, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	sc := newSwapChain(b, info)
	b.swapchain = sc
	return sc, nil
}

func (b *Backend) CreateTexture(info *metadata.TextureCreateInfo, pixels []byte) (renderer.Texture2D, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newTexture(info, pixels), nil
}

func (b *Backend) CreateBuffer(info *metadata.BufferCreateInfo, data []byte) (renderer.GPUBuffer, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newBuffer(info, data), nil
}

func (b *Backend) CreateSampler(info *metadata.SamplerCreateInfo) (renderer.Sampler, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return &Sampler{info: *info}, nil
}

func (b *Backend) ReadTexture(tex renderer.Texture2D) ([]byte, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("headless backend: texture '%s' belongs to another backend", tex.Name())
	}
	if t.pixels.IsEmpty() {
		return nil, nil
	}
	out := make([]byte, t.pixels.Size())
	copy(out, t.pixels.Data())
	return out, nil
}

func (b *Backend) CreateQuerySet(kind metadata.QueryKind, count uint32) (profiler.QuerySet, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newQuerySet(b, kind, count), nil
}
