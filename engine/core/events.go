package core

import "fmt"

type EventType int

const (
	EventTypeNone EventType = iota
	EventTypeWindowClose
	EventTypeWindowResize
	EventTypeWindowFocus
	EventTypeWindowMaximize
	EventTypeWindowIconify
	EventTypeTitlebarHitTest
	EventTypeKeyPressed
	EventTypeKeyReleased
	EventTypeKeyTyped
	EventTypeMouseButtonPressed
	EventTypeMouseButtonReleased
	EventTypeMouseMoved
	EventTypeMouseScrolled
)

var eventTypeNames = [...]string{
	EventTypeNone:                "None",
	EventTypeWindowClose:         "WindowClose",
	EventTypeWindowResize:        "WindowResize",
	EventTypeWindowFocus:         "WindowFocus",
	EventTypeWindowMaximize:      "WindowMaximize",
	EventTypeWindowIconify:       "WindowIconify",
	EventTypeTitlebarHitTest:     "TitlebarHitTest",
	EventTypeKeyPressed:          "KeyPressed",
	EventTypeKeyReleased:         "KeyReleased",
	EventTypeKeyTyped:            "KeyTyped",
	EventTypeMouseButtonPressed:  "MouseButtonPressed",
	EventTypeMouseButtonReleased: "MouseButtonReleased",
	EventTypeMouseMoved:          "MouseMoved",
	EventTypeMouseScrolled:       "MouseScrolled",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return fmt.Sprintf("EventType(%d)", int(t))
	}
	return eventTypeNames[t]
}

// EventCategory is a bitmask, an event may belong to several categories.
type EventCategory uint32

const (
	EventCategoryApplication EventCategory = 1 << iota
	EventCategoryInput
	EventCategoryKeyboard
	EventCategoryMouse
	EventCategoryMouseButton
)

// Event is created by the window bridge, delivered synchronously and
// dropped after dispatch. Only the handled flag changes during its life.
type Event interface {
	Type() EventType
	Category() EventCategory
	Handled() bool
	SetHandled(handled bool)
	String() string
}

// InCategory reports whether e carries any bit of c.
func InCategory(e Event, c EventCategory) bool {
	return e.Category()&c != 0
}

// Dispatch calls fn when e has the concrete type E. The event is marked as
// handled when fn returns true. It returns whether fn was called.
func Dispatch[E Event](e Event, fn func(E) bool) bool {
	typed, ok := e.(E)
	if !ok {
		return false
	}
	if fn(typed) {
		e.SetHandled(true)
	}
	return true
}

type eventBase struct {
	handled bool
}

func (b *eventBase) Handled() bool           { return b.handled }
func (b *eventBase) SetHandled(handled bool) { b.handled = b.handled || handled }

// Application events

type WindowCloseEvent struct {
	eventBase
}

func NewWindowCloseEvent() *WindowCloseEvent { return &WindowCloseEvent{} }

func (e *WindowCloseEvent) Type() EventType         { return EventTypeWindowClose }
func (e *WindowCloseEvent) Category() EventCategory { return EventCategoryApplication }
func (e *WindowCloseEvent) String() string          { return "WindowCloseEvent" }

type WindowResizeEvent struct {
	eventBase
	width, height uint32
}

func NewWindowResizeEvent(width, height uint32) *WindowResizeEvent {
	return &WindowResizeEvent{width: width, height: height}
}

func (e *WindowResizeEvent) Width() uint32           { return e.width }
func (e *WindowResizeEvent) Height() uint32          { return e.height }
func (e *WindowResizeEvent) Type() EventType         { return EventTypeWindowResize }
func (e *WindowResizeEvent) Category() EventCategory { return EventCategoryApplication }
func (e *WindowResizeEvent) String() string {
	return fmt.Sprintf("WindowResizeEvent: %d, %d", e.width, e.height)
}

type WindowFocusEvent struct {
	eventBase
	focused bool
}

func NewWindowFocusEvent(focused bool) *WindowFocusEvent {
	return &WindowFocusEvent{focused: focused}
}

func (e *WindowFocusEvent) Focused() bool           { return e.focused }
func (e *WindowFocusEvent) Type() EventType         { return EventTypeWindowFocus }
func (e *WindowFocusEvent) Category() EventCategory { return EventCategoryApplication }
func (e *WindowFocusEvent) String() string {
	return fmt.Sprintf("WindowFocusEvent: %t", e.focused)
}

type WindowMaximizeEvent struct {
	eventBase
	maximized bool
}

func NewWindowMaximizeEvent(maximized bool) *WindowMaximizeEvent {
	return &WindowMaximizeEvent{maximized: maximized}
}

func (e *WindowMaximizeEvent) Maximized() bool         { return e.maximized }
func (e *WindowMaximizeEvent) Type() EventType         { return EventTypeWindowMaximize }
func (e *WindowMaximizeEvent) Category() EventCategory { return EventCategoryApplication }
func (e *WindowMaximizeEvent) String() string {
	return fmt.Sprintf("WindowMaximizeEvent: %t", e.maximized)
}

type WindowIconifyEvent struct {
	eventBase
	iconified bool
}

func NewWindowIconifyEvent(iconified bool) *WindowIconifyEvent {
	return &WindowIconifyEvent{iconified: iconified}
}

func (e *WindowIconifyEvent) Iconified() bool         { return e.iconified }
func (e *WindowIconifyEvent) Type() EventType         { return EventTypeWindowIconify }
func (e *WindowIconifyEvent) Category() EventCategory { return EventCategoryApplication }
func (e *WindowIconifyEvent) String() string {
	return fmt.Sprintf("WindowIconifyEvent: %t", e.iconified)
}

// TitlebarHitTestEvent asks the listeners whether the cursor position lies
// on the custom titlebar. A listener answers through SetHit.
type TitlebarHitTestEvent struct {
	eventBase
	x, y int32
	hit  bool
}

func NewTitlebarHitTestEvent(x, y int32) *TitlebarHitTestEvent {
	return &TitlebarHitTestEvent{x: x, y: y}
}

func (e *TitlebarHitTestEvent) X() int32                { return e.x }
func (e *TitlebarHitTestEvent) Y() int32                { return e.y }
func (e *TitlebarHitTestEvent) Hit() bool               { return e.hit }
func (e *TitlebarHitTestEvent) SetHit(hit bool)         { e.hit = hit }
func (e *TitlebarHitTestEvent) Type() EventType         { return EventTypeTitlebarHitTest }
func (e *TitlebarHitTestEvent) Category() EventCategory { return EventCategoryApplication }
func (e *TitlebarHitTestEvent) String() string {
	return fmt.Sprintf("TitlebarHitTestEvent: %d, %d (hit=%t)", e.x, e.y, e.hit)
}

// Keyboard events

type KeyPressedEvent struct {
	eventBase
	key    KeyCode
	repeat bool
}

func NewKeyPressedEvent(key KeyCode, repeat bool) *KeyPressedEvent {
	return &KeyPressedEvent{key: key, repeat: repeat}
}

func (e *KeyPressedEvent) Key() KeyCode    { return e.key }
func (e *KeyPressedEvent) IsRepeat() bool  { return e.repeat }
func (e *KeyPressedEvent) Type() EventType { return EventTypeKeyPressed }
func (e *KeyPressedEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryKeyboard
}
func (e *KeyPressedEvent) String() string {
	return fmt.Sprintf("KeyPressedEvent: %d (repeat=%t)", e.key, e.repeat)
}

type KeyReleasedEvent struct {
	eventBase
	key KeyCode
}

func NewKeyReleasedEvent(key KeyCode) *KeyReleasedEvent {
	return &KeyReleasedEvent{key: key}
}

func (e *KeyReleasedEvent) Key() KeyCode    { return e.key }
func (e *KeyReleasedEvent) Type() EventType { return EventTypeKeyReleased }
func (e *KeyReleasedEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryKeyboard
}
func (e *KeyReleasedEvent) String() string {
	return fmt.Sprintf("KeyReleasedEvent: %d", e.key)
}

type KeyTypedEvent struct {
	eventBase
	char rune
}

func NewKeyTypedEvent(char rune) *KeyTypedEvent {
	return &KeyTypedEvent{char: char}
}

func (e *KeyTypedEvent) Char() rune      { return e.char }
func (e *KeyTypedEvent) Type() EventType { return EventTypeKeyTyped }
func (e *KeyTypedEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryKeyboard
}
func (e *KeyTypedEvent) String() string {
	return fmt.Sprintf("KeyTypedEvent: %q", e.char)
}

// Mouse events

type MouseButtonPressedEvent struct {
	eventBase
	button Button
}

func NewMouseButtonPressedEvent(button Button) *MouseButtonPressedEvent {
	return &MouseButtonPressedEvent{button: button}
}

func (e *MouseButtonPressedEvent) Button() Button  { return e.button }
func (e *MouseButtonPressedEvent) Type() EventType { return EventTypeMouseButtonPressed }
func (e *MouseButtonPressedEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryMouse | EventCategoryMouseButton
}
func (e *MouseButtonPressedEvent) String() string {
	return fmt.Sprintf("MouseButtonPressedEvent: %d", e.button)
}

type MouseButtonReleasedEvent struct {
	eventBase
	button Button
}

func NewMouseButtonReleasedEvent(button Button) *MouseButtonReleasedEvent {
	return &MouseButtonReleasedEvent{button: button}
}

func (e *MouseButtonReleasedEvent) Button() Button  { return e.button }
func (e *MouseButtonReleasedEvent) Type() EventType { return EventTypeMouseButtonReleased }
func (e *MouseButtonReleasedEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryMouse | EventCategoryMouseButton
}
func (e *MouseButtonReleasedEvent) String() string {
	return fmt.Sprintf("MouseButtonReleasedEvent: %d", e.button)
}

type MouseMovedEvent struct {
	eventBase
	x, y float32
}

func NewMouseMovedEvent(x, y float32) *MouseMovedEvent {
	return &MouseMovedEvent{x: x, y: y}
}

func (e *MouseMovedEvent) X() float32      { return e.x }
func (e *MouseMovedEvent) Y() float32      { return e.y }
func (e *MouseMovedEvent) Type() EventType { return EventTypeMouseMoved }
func (e *MouseMovedEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryMouse
}
func (e *MouseMovedEvent) String() string {
	return fmt.Sprintf("MouseMovedEvent: %.1f, %.1f", e.x, e.y)
}

type MouseScrolledEvent struct {
	eventBase
	xOffset, yOffset float32
}

func NewMouseScrolledEvent(xOffset, yOffset float32) *MouseScrolledEvent {
	return &MouseScrolledEvent{xOffset: xOffset, yOffset: yOffset}
}

func (e *MouseScrolledEvent) XOffset() float32 { return e.xOffset }
func (e *MouseScrolledEvent) YOffset() float32 { return e.yOffset }
func (e *MouseScrolledEvent) Type() EventType  { return EventTypeMouseScrolled }
func (e *MouseScrolledEvent) Category() EventCategory {
	return EventCategoryInput | EventCategoryMouse
}
func (e *MouseScrolledEvent) String() string {
	return fmt.Sprintf("MouseScrolledEvent: %.1f, %.1f", e.xOffset, e.yOffset)
}

// EventCallback receives every event produced by a window.
type EventCallback func(e Event)
