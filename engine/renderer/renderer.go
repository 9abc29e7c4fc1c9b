package renderer

import (
	"errors"
	"fmt"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/commands"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

type Config struct {
	Backend            BackendType
	ApplicationName    string
	Width              uint32
	Height             uint32
	VSync              bool
	FramesInFlight     uint32
	CommandQueueSize   uint32
	MaxTimestamps      uint32
	MaxPipelineQueries uint32
	Validation         bool
	ClearColor         math.Vec4
}

// ConfigFromEngine maps the renderer section of the engine configuration.
func ConfigFromEngine(cfg *core.Config) (*Config, error) {
	backend, err := ParseBackendType(cfg.Renderer.Backend)
	if err != nil {
		return nil, err
	}
	return &Config{
		Backend:            backend,
		ApplicationName:    cfg.Application.Name,
		Width:              cfg.Window.Width,
		Height:             cfg.Window.Height,
		VSync:              cfg.Window.VSync,
		FramesInFlight:     cfg.Renderer.FramesInFlight,
		CommandQueueSize:   cfg.Renderer.CommandQueueSize,
		MaxTimestamps:      cfg.Renderer.MaxTimestamps,
		MaxPipelineQueries: cfg.Renderer.MaxPipelineQueries,
		Validation:         cfg.Renderer.Validation,
		ClearColor:         math.NewVec4(0.1, 0.1, 0.12, 1.0),
	}, nil
}

// FrameStats is a snapshot of the renderer for overlays. GPU numbers are
// those of the frame FramesInFlight frames back.
type FrameStats struct {
	FrameNumber      uint64
	GPUTime          float64 // milliseconds
	PipelineStats    metadata.PipelineStatistics
	CommandQueueUsed uint32
	CommandQueueSize uint32
	LiveResources    int
	PendingRetire    int
}

// Renderer is the composition root of the rendering layer: it owns the
// backend, the resource factory, the command queue, the profiler, the
// retire list and the per window objects, and drives the frame.
type Renderer struct {
	config  Config
	backend Backend
	factory *ResourceFactory
	retire  *RetireList
	queue   *commands.CommandQueue
	prof    *profiler.GPUProfiler

	context   *Handle[GraphicsContext]
	swapchain *Handle[SwapChain]

	width, height uint32
	resized       bool
	frameIndex    uint32
	frameNumber   uint64
	frameActive   bool
	shutdown      bool
}

// New selects the configured backend and creates everything a frame needs.
// An unregistered backend fails with core.ErrUnsupportedBackend, which the
// application treats as fatal.
func New(cfg *Config, surface Surface) (*Renderer, error) {
	if cfg.FramesInFlight == 0 {
		return nil, fmt.Errorf("%w: frames in flight must be non-zero", core.ErrInvalidConfig)
	}
	backend, err := NewBackend(cfg.Backend)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	r := &Renderer{
		config:  *cfg,
		backend: backend,
		width:   cfg.Width,
		height:  cfg.Height,
	}
	if surface != nil {
		r.width, r.height = surface.FramebufferSize()
	}

	backendConfig := &BackendConfig{
		ApplicationName: cfg.ApplicationName,
		FramesInFlight:  cfg.FramesInFlight,
		Width:           r.width,
		Height:          r.height,
		VSync:           cfg.VSync,
		Validation:      cfg.Validation,
	}
	if err := backend.Initialize(backendConfig, surface); err != nil {
		core.LogError("failed to initialize %s backend: %s", cfg.Backend, err)
		return nil, err
	}

	r.retire = NewRetireList(cfg.FramesInFlight)
	r.factory = NewResourceFactory(backend, r.retire)
	r.queue = commands.New(cfg.CommandQueueSize)

	if r.context, err = r.factory.CreateContext(); err != nil {
		r.abort()
		return nil, err
	}
	r.swapchain, err = r.factory.CreateSwapChain(metadata.SwapChainCreateInfo{
		Width:          math.Max(r.width, 1),
		Height:         math.Max(r.height, 1),
		VSync:          cfg.VSync,
		FramesInFlight: cfg.FramesInFlight,
	})
	if err != nil {
		r.abort()
		return nil, err
	}
	if r.prof, err = profiler.New(backend, cfg.FramesInFlight, cfg.MaxTimestamps, cfg.MaxPipelineQueries); err != nil {
		r.abort()
		return nil, err
	}

	core.LogInfo("%s renderer initialized (%dx%d, %d frames in flight)", cfg.Backend, r.width, r.height, cfg.FramesInFlight)
	return r, nil
}

func (r *Renderer) abort() {
	r.backend.WaitIdle()
	if r.swapchain != nil {
		r.swapchain.Release()
	}
	if r.context != nil {
		r.context.Release()
	}
	r.retire.DrainAll()
	r.backend.Shutdown()
}

func (r *Renderer) Factory() *ResourceFactory       { return r.factory }
func (r *Renderer) Profiler() *profiler.GPUProfiler { return r.prof }
func (r *Renderer) Queue() *commands.CommandQueue   { return r.queue }
func (r *Renderer) Context() GraphicsContext        { return r.context.Get() }
func (r *Renderer) SwapChain() SwapChain            { return r.swapchain.Get() }
func (r *Renderer) BackendType() BackendType        { return r.backend.Type() }
func (r *Renderer) FrameIndex() uint32              { return r.frameIndex }
func (r *Renderer) FrameNumber() uint64             { return r.frameNumber }
func (r *Renderer) FramesInFlight() uint32          { return r.config.FramesInFlight }
func (r *Renderer) ClearColor() math.Vec4           { return r.config.ClearColor }
func (r *Renderer) SetClearColor(color math.Vec4)   { r.config.ClearColor = color }

// Submit defers op to the flush at the end of the current frame.
func (r *Renderer) Submit(op func()) {
	r.queue.Submit(op)
}

// BeginFrame returns core.ErrSwapchainBooting when the frame must be
// skipped (minimized window, swapchain recreation). Commands submitted in
// the meantime stay queued for the next frame that runs.
func (r *Renderer) BeginFrame() error {
	if r.shutdown {
		return ErrRendererShutdown
	}
	if r.frameActive {
		return ErrFrameInProgress
	}
	if r.width == 0 || r.height == 0 {
		return core.ErrSwapchainBooting
	}
	sc := r.swapchain.Get()
	if r.resized {
		if err := sc.Resize(r.width, r.height); err != nil {
			core.LogError("failed to resize swapchain to %dx%d: %s", r.width, r.height, err)
			return err
		}
		r.resized = false
	}

	if err := r.context.Get().BeginFrame(r.frameIndex); err != nil {
		core.LogError("failed to begin frame %d: %s", r.frameNumber, err)
		return err
	}
	// The fence of this slot has signaled: whatever was retired during its
	// last use is no longer referenced by the GPU.
	r.retire.AdvanceFrame()
	r.prof.Reset()

	if err := sc.AcquireNextImage(); err != nil {
		if !errors.Is(err, core.ErrSwapchainBooting) {
			core.LogError("failed to acquire swapchain image: %s", err)
		}
		// The slot has been recycled already, skip it so the retire list and
		// the profiler stay in step with the frame index.
		r.frameIndex = (r.frameIndex + 1) % r.config.FramesInFlight
		return err
	}
	r.frameActive = true
	r.context.Get().Clear(r.config.ClearColor)
	return nil
}

// EndFrame flushes the command queue into the frame, submits and presents.
func (r *Renderer) EndFrame() error {
	if !r.frameActive {
		return ErrNoFrameInProgress
	}
	r.frameActive = false

	r.queue.Flush()
	r.prof.CloseOpenQueries()

	if err := r.context.Get().EndFrame(); err != nil {
		core.LogError("failed to submit frame %d: %s", r.frameNumber, err)
		return err
	}
	if err := r.swapchain.Get().Present(); err != nil {
		if !errors.Is(err, core.ErrSwapchainBooting) {
			core.LogError("failed to present frame %d: %s", r.frameNumber, err)
			return err
		}
		r.resized = true
	}
	r.frameIndex = (r.frameIndex + 1) % r.config.FramesInFlight
	r.frameNumber++
	return nil
}

// OnResize takes the new framebuffer size. The swapchain is recreated at
// the next BeginFrame; a zero size suspends rendering.
func (r *Renderer) OnResize(width, height uint32) {
	if width == r.width && height == r.height {
		return
	}
	core.LogDebug("renderer resized: %dx%d", width, height)
	r.width, r.height = width, height
	r.resized = true
}

func (r *Renderer) SetVSync(vsync bool) {
	r.config.VSync = vsync
	r.swapchain.Get().SetVSync(vsync)
}

func (r *Renderer) Stats() FrameStats {
	return FrameStats{
		FrameNumber:      r.frameNumber,
		GPUTime:          float64(r.prof.TotalTime().Microseconds()) / 1000.0,
		PipelineStats:    r.prof.TotalPipelineStats(),
		CommandQueueUsed: r.queue.Used(),
		CommandQueueSize: r.queue.Capacity(),
		LiveResources:    r.factory.LiveResources(),
		PendingRetire:    r.retire.Pending(),
	}
}

// Shutdown runs the commands still queued, waits for the GPU and destroys
// every resource, retired or not. Handles owned elsewhere must be released
// before calling it.
func (r *Renderer) Shutdown() error {
	if r.shutdown {
		return nil
	}
	r.shutdown = true
	r.frameActive = false

	r.queue.Flush()
	if err := r.backend.WaitIdle(); err != nil {
		core.LogWarn("wait idle failed during shutdown: %s", err)
	}
	r.prof.Destroy()
	r.swapchain.Release()
	r.context.Release()
	r.retire.DrainAll()

	if live := r.factory.LiveResources(); live > 0 {
		core.LogWarn("%d GPU resources still referenced at shutdown", live)
	}
	if err := r.backend.Shutdown(); err != nil {
		core.LogError("failed to shut down %s backend: %s", r.backend.Type(), err)
		return err
	}
	core.LogInfo("renderer shut down after %d frames", r.frameNumber)
	return nil
}
