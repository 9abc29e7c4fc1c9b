package testbed

import (
	stdmath "math"

	"github.com/Algor1tm/Athena-sub002/engine"
	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
	"github.com/Algor1tm/Athena-sub002/engine/systems"
)

const (
	canvasName = "testbed_canvas"
	canvasSize = 64
	copySize   = 1 << 20
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine *engine.Engine
	width  uint32
	height uint32
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)
	state.engine = e
	e.PushLayer(newSandboxLayer(e))
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width, state.height = width, height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}

// sandboxLayer exercises the renderer every frame: a texture from the asset
// directory, a CPU written texture, a timed buffer copy and an animated
// clear color.
type sandboxLayer struct {
	engine   *engine.Engine
	textures *systems.TextureLibrary

	brick  *systems.Texture
	canvas *systems.Texture
	pixels []byte

	staging *renderer.Handle[renderer.GPUBuffer]
	device  *renderer.Handle[renderer.GPUBuffer]

	copyQuery profiler.QueryID
	timed     bool
	elapsed   float64
}

func newSandboxLayer(e *engine.Engine) *sandboxLayer {
	return &sandboxLayer{
		engine:   e,
		textures: e.SystemManager().TextureLibrary(),
	}
}

func (l *sandboxLayer) Name() string { return "sandbox" }

func (l *sandboxLayer) OnAttach() {
	var err error
	// Falls back to the default texture when the file is missing.
	if l.brick, err = l.textures.Acquire("bricks", true); err != nil {
		core.LogWarn("sandbox: %s", err)
	}
	if l.canvas, err = l.textures.AcquireWritable(canvasName, canvasSize, canvasSize, 4); err != nil {
		core.LogWarn("sandbox: %s", err)
	}
	l.pixels = make([]byte, canvasSize*canvasSize*4)

	factory := l.engine.Renderer().Factory()
	if l.staging, err = factory.CreateBuffer(metadata.BufferCreateInfo{
		Name:   "sandbox_staging",
		Size:   copySize,
		Usage:  metadata.BufferUsageTransferSrc,
		Memory: metadata.MemoryTypeCPUToGPU,
	}, make([]byte, copySize)); err != nil {
		core.LogWarn("sandbox: %s", err)
		return
	}
	if l.device, err = factory.CreateBuffer(metadata.BufferCreateInfo{
		Name:   "sandbox_device",
		Size:   copySize,
		Usage:  metadata.BufferUsageTransferDst | metadata.BufferUsageStorage,
		Memory: metadata.MemoryTypeGPUOnly,
	}, nil); err != nil {
		core.LogWarn("sandbox: %s", err)
	}
}

func (l *sandboxLayer) OnDetach() {
	if l.brick != nil {
		l.textures.Release(l.brick.Name)
	}
	if l.canvas != nil {
		l.textures.Release(l.canvas.Name)
	}
	if l.staging != nil {
		l.staging.Release()
	}
	if l.device != nil {
		l.device.Release()
	}
}

func (l *sandboxLayer) OnUpdate(deltaTime float64) {
	l.elapsed += deltaTime
	r := l.engine.Renderer()

	t := float32(l.elapsed)
	r.SetClearColor(math.NewVec4(
		0.5+0.5*float32(stdmath.Sin(float64(t))),
		0.2,
		0.5+0.5*float32(stdmath.Cos(float64(t))),
		1.0,
	))

	if l.canvas != nil {
		l.paint(t)
		if err := l.textures.WriteData(l.canvas.Name, l.pixels); err != nil {
			core.LogError("sandbox: %s", err)
		}
	}

	if l.staging == nil || l.device == nil {
		return
	}
	prof := r.Profiler()
	staging, device := l.staging.Get(), l.device.Get()
	r.Submit(func() {
		id, err := prof.BeginTimeQuery()
		l.timed = err == nil
		l.copyQuery = id
		if err := r.Context().CopyBuffer(staging, device, 0, 0, copySize); err != nil {
			core.LogError("sandbox copy: %s", err)
		}
		if l.timed {
			prof.EndTimeQuery()
		}
	})
}

// paint writes a moving gradient into the canvas pixels.
func (l *sandboxLayer) paint(t float32) {
	offset := int(t * 32)
	for y := 0; y < canvasSize; y++ {
		for x := 0; x < canvasSize; x++ {
			i := (y*canvasSize + x) * 4
			l.pixels[i+0] = byte((x + offset) * 4)
			l.pixels[i+1] = byte((y + offset) * 4)
			l.pixels[i+2] = 0x80
			l.pixels[i+3] = 0xFF
		}
	}
}

func (l *sandboxLayer) OnEvent(e core.Event) {
	core.Dispatch(e, func(ke *core.KeyPressedEvent) bool {
		if ke.IsRepeat() {
			return false
		}
		window := l.engine.Window()
		switch ke.Key() {
		case core.KEY_V:
			vsync := !l.engine.Renderer().SwapChain().VSync()
			l.engine.Renderer().SetVSync(vsync)
			if window != nil {
				window.SetVSync(vsync)
			}
			core.LogInfo("vsync %t", vsync)
			return true
		case core.KEY_F:
			if window != nil {
				mode := core.WindowModeFullscreen
				if window.State().Mode == core.WindowModeFullscreen {
					mode = core.WindowModeDefault
				}
				window.SetWindowMode(mode)
			}
			return true
		case core.KEY_P:
			stats := l.engine.Renderer().Stats()
			core.LogInfo("frame %d: gpu %.3f ms, copy %s, %d vertices, %d live resources",
				stats.FrameNumber, stats.GPUTime, l.engine.Renderer().Profiler().TimeQueryResult(l.copyQuery),
				stats.PipelineStats.InputAssemblyVertices, stats.LiveResources)
			return true
		}
		return false
	})
	core.Dispatch(e, func(te *core.TitlebarHitTestEvent) bool {
		// The top 30 pixels drag the window when the titlebar is custom.
		te.SetHit(te.Y() < 30)
		return true
	})
}
