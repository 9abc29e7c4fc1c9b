package core

type WindowMode int

const (
	WindowModeDefault WindowMode = iota
	WindowModeMaximized
	WindowModeMinimized
	WindowModeFullscreen
)

func ParseWindowMode(s string) WindowMode {
	switch s {
	case "maximized":
		return WindowModeMaximized
	case "minimized":
		return WindowModeMinimized
	case "fullscreen":
		return WindowModeFullscreen
	default:
		return WindowModeDefault
	}
}

func (m WindowMode) String() string {
	switch m {
	case WindowModeMaximized:
		return "maximized"
	case WindowModeMinimized:
		return "minimized"
	case WindowModeFullscreen:
		return "fullscreen"
	default:
		return "default"
	}
}

// WindowState is the platform independent half of the window bridge. Native
// callbacks land here, update the cached state and fire one event through
// the registered callback on the polling thread.
type WindowState struct {
	Title          string
	Width          uint32
	Height         uint32
	VSync          bool
	CustomTitlebar bool
	Mode           WindowMode
	Focused        bool
	Maximized      bool
	Iconified      bool

	callback EventCallback
}

func NewWindowState(title string, width, height uint32, vsync bool, callback EventCallback) *WindowState {
	return &WindowState{
		Title:    title,
		Width:    width,
		Height:   height,
		VSync:    vsync,
		Focused:  true,
		callback: callback,
	}
}

func (ws *WindowState) SetEventCallback(callback EventCallback) {
	ws.callback = callback
}

func (ws *WindowState) fire(e Event) {
	if ws.callback != nil {
		ws.callback(e)
	}
}

// OnResize stores the new size before the event fires, so listeners that
// read the window size during dispatch see the new values.
func (ws *WindowState) OnResize(width, height uint32) {
	ws.Width = width
	ws.Height = height
	ws.fire(NewWindowResizeEvent(width, height))
}

func (ws *WindowState) OnClose() {
	ws.fire(NewWindowCloseEvent())
}

func (ws *WindowState) OnFocus(focused bool) {
	ws.Focused = focused
	ws.fire(NewWindowFocusEvent(focused))
}

func (ws *WindowState) OnMaximize(maximized bool) {
	ws.Maximized = maximized
	if maximized {
		ws.Mode = WindowModeMaximized
	} else if ws.Mode == WindowModeMaximized {
		ws.Mode = WindowModeDefault
	}
	ws.fire(NewWindowMaximizeEvent(maximized))
}

func (ws *WindowState) OnIconify(iconified bool) {
	ws.Iconified = iconified
	if iconified {
		ws.Mode = WindowModeMinimized
	} else if ws.Mode == WindowModeMinimized {
		ws.Mode = WindowModeDefault
	}
	ws.fire(NewWindowIconifyEvent(iconified))
}

func (ws *WindowState) OnKey(key KeyCode, pressed, repeat bool) {
	if pressed {
		ws.fire(NewKeyPressedEvent(key, repeat))
		return
	}
	ws.fire(NewKeyReleasedEvent(key))
}

func (ws *WindowState) OnChar(char rune) {
	ws.fire(NewKeyTypedEvent(char))
}

func (ws *WindowState) OnMouseButton(button Button, pressed bool) {
	if pressed {
		ws.fire(NewMouseButtonPressedEvent(button))
		return
	}
	ws.fire(NewMouseButtonReleasedEvent(button))
}

func (ws *WindowState) OnCursorPos(x, y float64) {
	ws.fire(NewMouseMovedEvent(float32(x), float32(y)))
}

func (ws *WindowState) OnScroll(xOffset, yOffset float64) {
	ws.fire(NewMouseScrolledEvent(float32(xOffset), float32(yOffset)))
}

// HitTestTitlebar asks the listeners whether (x, y) lies on the custom
// titlebar. Windows with the native decoration always answer false.
func (ws *WindowState) HitTestTitlebar(x, y int32) bool {
	if !ws.CustomTitlebar {
		return false
	}
	e := NewTitlebarHitTestEvent(x, y)
	ws.fire(e)
	return e.Hit()
}
