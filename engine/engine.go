package engine

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/Algor1tm/Athena-sub002/engine/assets"
	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/platform"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *ApplicationConfig
	isRunning     bool
	isSuspended   bool
	quit          atomic.Bool
	window        *platform.Window
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	layers        *core.LayerStack
	input         *core.Input
	metrics       *core.FrameMetrics
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
	lastStats     float64
}

/**
 * @brief Boots the engine: window (unless the backend is headless), renderer,
 * asset manager and engine systems, in this order.
 */
func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = NewApplicationConfig(nil)
	}
	appConfig := g.ApplicationConfig
	if appConfig.Engine == nil {
		appConfig.Engine = core.DefaultConfig()
	}
	cfg := appConfig.Engine
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		core.LogWarn(err.Error())
	}
	core.SetLogLevel(level)

	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		config:       appConfig,
		clock:        core.NewClock(),
		layers:       core.NewLayerStack(),
		input:        core.NewInput(),
		metrics:      core.NewFrameMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}

	rendererConfig, err := renderer.ConfigFromEngine(cfg)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	var surface renderer.Surface
	if rendererConfig.Backend != renderer.BackendHeadless {
		title := cfg.Window.Title
		if title == "" {
			title = appConfig.Name
		}
		e.window, err = platform.NewWindow(platform.WindowDescriptor{
			Title:          title,
			Width:          cfg.Window.Width,
			Height:         cfg.Window.Height,
			PosX:           cfg.Window.PosX,
			PosY:           cfg.Window.PosY,
			VSync:          cfg.Window.VSync,
			CustomTitlebar: cfg.Window.CustomTitlebar,
			Mode:           core.ParseWindowMode(cfg.Window.Mode),
			Icon:           cfg.Window.Icon,
			Backend:        rendererConfig.Backend,
			Debug:          cfg.Renderer.Validation,
			EventCallback:  e.onEvent,
		})
		if err != nil {
			return nil, err
		}
		surface = e.window
		e.width, e.height = e.window.FramebufferSize()
	}

	e.renderer, err = renderer.New(rendererConfig, surface)
	if err != nil {
		e.destroyWindow()
		return nil, err
	}

	if e.assetManager, err = newAssetManager(cfg.Assets); err != nil {
		e.renderer.Shutdown()
		e.destroyWindow()
		return nil, err
	}

	e.systemManager, err = systems.NewSystemManager(systems.SystemManagerConfig{
		TextureOptions: appConfig.TextureOptions,
	}, e.renderer.Factory(), e.assetManager)
	if err != nil {
		core.LogError("failed to create the system manager: %s", err)
		if e.assetManager != nil {
			e.assetManager.Shutdown()
		}
		e.renderer.Shutdown()
		e.destroyWindow()
		return nil, err
	}

	e.currentStage = EngineStageBootComplete
	return e, nil
}

// newAssetManager indexes the asset directory. A missing directory only
// disables file backed textures.
func newAssetManager(section core.AssetsSection) (*assets.AssetManager, error) {
	if section.Dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(section.Dir); errors.Is(err, os.ErrNotExist) {
		core.LogWarn("asset directory '%s' not found, running without assets", section.Dir)
		return nil, nil
	}
	am, err := assets.NewAssetManager(section.Dir, section.Watch)
	if err != nil {
		core.LogError("failed to create the asset manager: %s", err)
		return nil, err
	}
	return am, nil
}

func (e *Engine) destroyWindow() {
	if e.window != nil {
		e.window.Destroy()
		e.window = nil
	}
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return core.ErrAlreadyInitialized
	}
	e.currentStage = EngineStageInitializing

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("%w: engine must be initialized before Run", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning && !e.quit.Load() {
		if e.window != nil {
			e.window.PollEvents()
			if e.window.ShouldClose() {
				e.isRunning = false
				break
			}
		}

		if e.isSuspended {
			// Nothing to present, give the time back to the OS.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		// Job completions and texture reloads touch the renderer, so they run
		// on this thread before the frame is recorded.
		e.systemManager.Update()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down: %s", err)
				e.isRunning = false
				break
			}
		}

		rendered, err := e.drawFrame(delta)
		if err != nil {
			e.isRunning = false
			e.currentStage = EngineStageInitialized
			return err
		}

		e.metrics.Update(time.Since(frameStart).Seconds())
		e.logStats(currentTime)

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		e.input.Update()

		// Update last time
		e.lastTime = currentTime

		if rendered && e.config.MaxFrames > 0 && e.renderer.FrameNumber() >= e.config.MaxFrames {
			e.isRunning = false
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// drawFrame records the layers into the command queue and flushes it. It
// reports false when the frame was skipped.
func (e *Engine) drawFrame(delta float64) (bool, error) {
	if err := e.renderer.BeginFrame(); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			return false, nil
		}
		core.LogError("failed to begin frame: %s", err)
		return false, err
	}
	e.layers.OnUpdate(delta)
	if err := e.renderer.EndFrame(); err != nil {
		core.LogError("failed to end frame: %s", err)
		return false, err
	}
	return true, nil
}

func (e *Engine) logStats(now float64) {
	if e.config.StatsInterval <= 0 || now-e.lastStats < e.config.StatsInterval {
		return
	}
	e.lastStats = now
	stats := e.renderer.Stats()
	fps, frameTime := e.metrics.Frame()
	core.LogDebug("frame %d: %.0f fps, cpu %.2f ms, gpu %.2f ms, queue %d/%d bytes, %d live resources (%d retired)",
		stats.FrameNumber, fps, frameTime, stats.GPUTime,
		stats.CommandQueueUsed, stats.CommandQueueSize, stats.LiveResources, stats.PendingRetire)
}

// Quit asks the main loop to stop after the current frame. Safe to call
// from any goroutine.
func (e *Engine) Quit() {
	e.quit.Store(true)
}

/**
 * @brief Tears the engine down in reverse boot order. Must be called from
 * the thread that called Run, after Run returned.
 */
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageUninitialized {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	e.layers.Clear()
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	// Textures are released while the renderer is still alive.
	if err := e.systemManager.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	err := e.renderer.Shutdown()
	e.destroyWindow()
	e.currentStage = EngineStageUninitialized
	return err
}

func (e *Engine) PushLayer(l core.Layer)   { e.layers.PushLayer(l) }
func (e *Engine) PushOverlay(l core.Layer) { e.layers.PushOverlay(l) }
func (e *Engine) PopLayer(l core.Layer)    { e.layers.PopLayer(l) }
func (e *Engine) PopOverlay(l core.Layer)  { e.layers.PopOverlay(l) }

func (e *Engine) Stage() Stage                          { return e.currentStage }
func (e *Engine) Window() *platform.Window              { return e.window }
func (e *Engine) Renderer() *renderer.Renderer          { return e.renderer }
func (e *Engine) AssetManager() *assets.AssetManager    { return e.assetManager }
func (e *Engine) SystemManager() *systems.SystemManager { return e.systemManager }
func (e *Engine) Input() *core.Input                    { return e.input }
func (e *Engine) Metrics() *core.FrameMetrics           { return e.metrics }

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// onEvent receives every window event on the frame thread, during PollEvents.
func (e *Engine) onEvent(ev core.Event) {
	e.input.OnEvent(ev)

	core.Dispatch(ev, func(*core.WindowCloseEvent) bool {
		core.LogInfo("Window close requested, shutting down.")
		e.isRunning = false
		return false
	})
	core.Dispatch(ev, e.onResized)
	core.Dispatch(ev, func(ie *core.WindowIconifyEvent) bool {
		e.setSuspended(ie.Iconified() || e.width == 0 || e.height == 0)
		return false
	})
	core.Dispatch(ev, func(ke *core.KeyPressedEvent) bool {
		if ke.Key() == core.KEY_ESCAPE {
			e.isRunning = false
			// Block anything else from processing this.
			return true
		}
		return false
	})

	if !ev.Handled() {
		e.layers.OnEvent(ev)
	}
}

func (e *Engine) onResized(re *core.WindowResizeEvent) bool {
	width, height := re.Width(), re.Height()
	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Window mode changes can fire before the renderer exists.
	if e.renderer != nil {
		e.renderer.OnResize(width, height)
	}
	// Handle minimization
	e.setSuspended(width == 0 || height == 0)
	if e.isSuspended {
		return false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}

func (e *Engine) setSuspended(suspended bool) {
	if suspended == e.isSuspended {
		return
	}
	if suspended {
		core.LogInfo("Window minimized, suspending application.")
	} else {
		core.LogInfo("Window restored, resuming application.")
	}
	e.isSuspended = suspended
}
