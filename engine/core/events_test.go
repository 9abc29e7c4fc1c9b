package core

import "testing"

func TestDispatchMatchesConcreteType(t *testing.T) {
	e := NewWindowResizeEvent(800, 600)

	called := Dispatch(e, func(*KeyPressedEvent) bool { return true })
	if called || e.Handled() {
		t.Fatalf("dispatch to wrong type: called=%t handled=%t", called, e.Handled())
	}

	var width, height uint32
	called = Dispatch(e, func(r *WindowResizeEvent) bool {
		width, height = r.Width(), r.Height()
		return true
	})
	if !called || !e.Handled() {
		t.Fatalf("dispatch to matching type: called=%t handled=%t", called, e.Handled())
	}
	if width != 800 || height != 600 {
		t.Fatalf("unexpected payload %dx%d", width, height)
	}
}

func TestHandledIsSticky(t *testing.T) {
	e := NewKeyPressedEvent(KEY_A, false)
	e.SetHandled(true)
	e.SetHandled(false)
	if !e.Handled() {
		t.Fatal("handled flag was cleared")
	}
}

func TestEventCategories(t *testing.T) {
	tests := []struct {
		event    Event
		category EventCategory
		want     bool
	}{
		{NewKeyPressedEvent(KEY_A, false), EventCategoryKeyboard, true},
		{NewKeyPressedEvent(KEY_A, false), EventCategoryMouse, false},
		{NewMouseButtonPressedEvent(BUTTON_LEFT), EventCategoryMouseButton, true},
		{NewMouseMovedEvent(1, 2), EventCategoryInput, true},
		{NewWindowCloseEvent(), EventCategoryApplication, true},
		{NewWindowCloseEvent(), EventCategoryInput, false},
	}
	for _, tt := range tests {
		if got := InCategory(tt.event, tt.category); got != tt.want {
			t.Errorf("%s in %b: got %t, want %t", tt.event, tt.category, got, tt.want)
		}
	}
}

func TestEventTypeString(t *testing.T) {
	if EventTypeMouseScrolled.String() != "MouseScrolled" {
		t.Fatalf("unexpected name %q", EventTypeMouseScrolled.String())
	}
	if EventType(99).String() != "EventType(99)" {
		t.Fatalf("unexpected name %q", EventType(99).String())
	}
}
