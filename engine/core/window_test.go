package core

import "testing"

func TestResizeUpdatesStateBeforeDispatch(t *testing.T) {
	var ws *WindowState
	var seenWidth, seenHeight uint32
	ws = NewWindowState("test", 1280, 720, true, func(e Event) {
		Dispatch(e, func(*WindowResizeEvent) bool {
			seenWidth, seenHeight = ws.Width, ws.Height
			return false
		})
	})

	ws.OnResize(640, 480)
	if seenWidth != 640 || seenHeight != 480 {
		t.Fatalf("listener saw %dx%d, want 640x480", seenWidth, seenHeight)
	}
}

func TestIconifyAndMaximizeTrackMode(t *testing.T) {
	ws := NewWindowState("test", 100, 100, false, nil)
	ws.OnMaximize(true)
	if ws.Mode != WindowModeMaximized || !ws.Maximized {
		t.Fatalf("mode %s after maximize", ws.Mode)
	}
	ws.OnMaximize(false)
	ws.OnIconify(true)
	if ws.Mode != WindowModeMinimized {
		t.Fatalf("mode %s after iconify", ws.Mode)
	}
	ws.OnIconify(false)
	if ws.Mode != WindowModeDefault {
		t.Fatalf("mode %s after restore", ws.Mode)
	}
}

func TestTitlebarHitTest(t *testing.T) {
	const titlebarHeight = 30
	ws := NewWindowState("test", 800, 600, false, func(e Event) {
		Dispatch(e, func(h *TitlebarHitTestEvent) bool {
			h.SetHit(h.Y() < titlebarHeight)
			return true
		})
	})

	if ws.HitTestTitlebar(10, 10) {
		t.Fatal("native titlebar must never report a hit")
	}
	ws.CustomTitlebar = true
	if !ws.HitTestTitlebar(10, 10) {
		t.Fatal("expected hit inside the titlebar")
	}
	if ws.HitTestTitlebar(10, 200) {
		t.Fatal("unexpected hit below the titlebar")
	}
}

func TestKeyAndMouseEventsFire(t *testing.T) {
	var got []EventType
	ws := NewWindowState("test", 1, 1, false, func(e Event) { got = append(got, e.Type()) })
	ws.OnKey(KEY_W, true, false)
	ws.OnKey(KEY_W, false, false)
	ws.OnChar('w')
	ws.OnMouseButton(BUTTON_RIGHT, true)
	ws.OnCursorPos(1, 2)
	ws.OnScroll(0, 1)
	ws.OnClose()

	want := []EventType{
		EventTypeKeyPressed, EventTypeKeyReleased, EventTypeKeyTyped,
		EventTypeMouseButtonPressed, EventTypeMouseMoved, EventTypeMouseScrolled,
		EventTypeWindowClose,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestParseWindowMode(t *testing.T) {
	for _, m := range []WindowMode{WindowModeDefault, WindowModeMaximized, WindowModeMinimized, WindowModeFullscreen} {
		if ParseWindowMode(m.String()) != m {
			t.Errorf("mode %s did not parse back", m)
		}
	}
	if ParseWindowMode("bogus") != WindowModeDefault {
		t.Error("unknown mode should fall back to default")
	}
}
