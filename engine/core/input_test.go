package core

import "testing"

func TestInputTracksKeys(t *testing.T) {
	in := NewInput()
	in.OnEvent(NewKeyPressedEvent(KEY_W, false))
	if !in.IsKeyDown(KEY_W) || !in.WasKeyUp(KEY_W) {
		t.Fatal("key press not recorded")
	}

	in.Update()
	in.OnEvent(NewKeyReleasedEvent(KEY_W))
	if !in.IsKeyUp(KEY_W) || !in.WasKeyDown(KEY_W) {
		t.Fatal("key release not recorded against previous frame")
	}
}

func TestInputTracksMouse(t *testing.T) {
	in := NewInput()
	in.OnEvent(NewMouseMovedEvent(10, 20))
	in.OnEvent(NewMouseButtonPressedEvent(BUTTON_LEFT))
	in.Update()
	in.OnEvent(NewMouseMovedEvent(15, 25))

	if x, y := in.MousePosition(); x != 15 || y != 25 {
		t.Fatalf("position %v,%v", x, y)
	}
	if x, y := in.PreviousMousePosition(); x != 10 || y != 20 {
		t.Fatalf("previous position %v,%v", x, y)
	}
	if !in.IsButtonDown(BUTTON_LEFT) || !in.WasButtonDown(BUTTON_LEFT) {
		t.Fatal("button state lost")
	}
}

func TestInputIgnoresOutOfRangeCodes(t *testing.T) {
	in := NewInput()
	in.OnEvent(NewKeyPressedEvent(KeyCode(0x1FF), false))
	in.OnEvent(NewMouseButtonPressedEvent(Button(42)))
	if in.IsKeyDown(KeyCode(0x1FF)) || in.IsButtonDown(Button(42)) {
		t.Fatal("out of range codes must read as up")
	}
}

func TestInputLeavesEventsUnhandled(t *testing.T) {
	in := NewInput()
	e := NewKeyPressedEvent(KEY_SPACE, false)
	in.OnEvent(e)
	if e.Handled() {
		t.Fatal("input marked the event as handled")
	}
}
