// Package platform is the GLFW side of the window bridge. Native callbacks
// are translated into engine events through core.WindowState, and the
// window doubles as the presentation surface of the graphics backends.
package platform

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type WindowDescriptor struct {
	Title          string
	Width          uint32
	Height         uint32
	PosX           int32
	PosY           int32
	VSync          bool
	CustomTitlebar bool
	Mode           core.WindowMode
	Icon           string
	// Backend decides which client API the window is created for.
	Backend renderer.BackendType
	// Debug requests a debug GL context.
	Debug         bool
	EventCallback core.EventCallback
}

type Window struct {
	handle  *glfw.Window
	state   *core.WindowState
	backend renderer.BackendType

	// Position and size restored when leaving fullscreen.
	windowedX, windowedY int
	windowedW, windowedH int

	// Custom titlebar drag in progress.
	dragging         bool
	dragX, dragY     float64
	cursorX, cursorY float64
}

func NewWindow(desc WindowDescriptor) (*Window, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: window size %dx%d", core.ErrInvalidConfig, desc.Width, desc.Height)
	}
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return nil, fmt.Errorf("%w: %v", core.ErrWindowCreation, err)
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if desc.CustomTitlebar {
		glfw.WindowHint(glfw.Decorated, glfw.False)
	}
	switch desc.Backend {
	case renderer.BackendOpenGL:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 6)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		if desc.Debug {
			glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
		}
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	}

	handle, err := glfw.CreateWindow(int(desc.Width), int(desc.Height), desc.Title, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return nil, fmt.Errorf("%w: %v", core.ErrWindowCreation, err)
	}

	w := &Window{
		handle:  handle,
		backend: desc.Backend,
		state:   core.NewWindowState(desc.Title, desc.Width, desc.Height, desc.VSync, desc.EventCallback),
	}
	w.state.CustomTitlebar = desc.CustomTitlebar
	// The framebuffer can differ from the requested size on HiDPI screens.
	fbWidth, fbHeight := handle.GetFramebufferSize()
	w.state.Width, w.state.Height = uint32(fbWidth), uint32(fbHeight)

	w.installCallbacks()
	handle.SetPos(int(desc.PosX), int(desc.PosY))

	if desc.Icon != "" {
		if err := w.SetIcon(desc.Icon); err != nil {
			core.LogWarn("window icon: %s", err)
		}
	}
	handle.Show()
	if desc.Mode != core.WindowModeDefault {
		w.SetWindowMode(desc.Mode)
	}

	core.LogInfo("Window created: %dx%d (%s).", w.state.Width, w.state.Height, desc.Backend)
	return w, nil
}

func (w *Window) installCallbacks() {
	w.handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.state.OnResize(uint32(width), uint32(height))
	})
	w.handle.SetCloseCallback(func(_ *glfw.Window) {
		w.state.OnClose()
	})
	w.handle.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		w.state.OnFocus(focused)
	})
	w.handle.SetMaximizeCallback(func(_ *glfw.Window, maximized bool) {
		w.state.OnMaximize(maximized)
	})
	w.handle.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		w.state.OnIconify(iconified)
	})
	w.handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		code := translateKey(key)
		if code == core.KEY_UNKNOWN {
			return
		}
		switch action {
		case glfw.Press:
			w.state.OnKey(code, true, false)
		case glfw.Repeat:
			w.state.OnKey(code, true, true)
		case glfw.Release:
			w.state.OnKey(code, false, false)
		}
	})
	w.handle.SetCharCallback(func(_ *glfw.Window, char rune) {
		w.state.OnChar(char)
	})
	w.handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		b, ok := translateButton(button)
		if !ok {
			return
		}
		pressed := action == glfw.Press
		if b == core.BUTTON_LEFT {
			w.updateTitlebarDrag(pressed)
		}
		w.state.OnMouseButton(b, pressed)
	})
	w.handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.cursorX, w.cursorY = x, y
		if w.dragging {
			wx, wy := w.handle.GetPos()
			w.handle.SetPos(wx+int(x-w.dragX), wy+int(y-w.dragY))
			return
		}
		w.state.OnCursorPos(x, y)
	})
	w.handle.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		w.state.OnScroll(xoff, yoff)
	})
}

// Undecorated windows are moved by dragging the area the listeners claim
// as titlebar.
func (w *Window) updateTitlebarDrag(pressed bool) {
	if !pressed {
		w.dragging = false
		return
	}
	if w.state.HitTestTitlebar(int32(w.cursorX), int32(w.cursorY)) {
		w.dragging = true
		w.dragX, w.dragY = w.cursorX, w.cursorY
	}
}

func (w *Window) State() *core.WindowState { return w.state }

func (w *Window) SetEventCallback(callback core.EventCallback) {
	w.state.SetEventCallback(callback)
}

// PollEvents processes pending native events. Callbacks fire synchronously
// from here.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) SetShouldClose(value bool) {
	w.handle.SetShouldClose(value)
}

func (w *Window) SetVSync(vsync bool) {
	w.state.VSync = vsync
	if w.backend == renderer.BackendOpenGL {
		w.SetSwapInterval(boolToInterval(vsync))
	}
}

func boolToInterval(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (w *Window) SetWindowMode(mode core.WindowMode) {
	if w.state.Mode == core.WindowModeFullscreen && mode != core.WindowModeFullscreen {
		w.handle.SetMonitor(nil, w.windowedX, w.windowedY, w.windowedW, w.windowedH, 0)
	}
	switch mode {
	case core.WindowModeMaximized:
		w.handle.Maximize()
	case core.WindowModeMinimized:
		w.handle.Iconify()
	case core.WindowModeFullscreen:
		if w.state.Mode != core.WindowModeFullscreen {
			w.windowedX, w.windowedY = w.handle.GetPos()
			w.windowedW, w.windowedH = w.handle.GetSize()
		}
		monitor := glfw.GetPrimaryMonitor()
		if monitor == nil {
			core.LogWarn("no monitor available for fullscreen")
			return
		}
		mode := monitor.GetVideoMode()
		w.handle.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	default:
		w.handle.Restore()
	}
	w.state.Mode = mode
}

// SetIcon loads a png file as the window icon.
func (w *Window) SetIcon(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	w.handle.SetIcon([]image.Image{img})
	return nil
}

func (w *Window) SetCursorPosition(x, y float64) {
	w.handle.SetCursorPos(x, y)
}

func (w *Window) HideCursor(hide bool) {
	if hide {
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
		return
	}
	w.handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
}

func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	glfw.Terminate()
}

// Time is the number of seconds since the window system was initialized.
func Time() float64 {
	return glfw.GetTime()
}

func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

func (w *Window) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (w *Window) CreateWindowSurface(instance interface{}) (uintptr, error) {
	if w.backend != renderer.BackendVulkan {
		return 0, errors.New("window was not created for Vulkan")
	}
	return w.handle.CreateWindowSurface(instance, nil)
}

func (w *Window) MakeContextCurrent() {
	w.handle.MakeContextCurrent()
}

func (w *Window) SwapBuffers() {
	w.handle.SwapBuffers()
}

func (w *Window) SetSwapInterval(interval int) {
	glfw.SwapInterval(interval)
}
