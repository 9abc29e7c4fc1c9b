package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

func TestTranslateKey(t *testing.T) {
	tests := map[glfw.Key]core.KeyCode{
		glfw.Key0:           core.KEY_0,
		glfw.Key9:           core.KEY_9,
		glfw.KeyA:           core.KEY_A,
		glfw.KeyZ:           core.KEY_Z,
		glfw.KeyF1:          core.KEY_F1,
		glfw.KeyF24:         core.KEY_F24,
		glfw.KeyKP0:         core.KEY_NUMPAD0,
		glfw.KeyKP9:         core.KEY_NUMPAD9,
		glfw.KeyEscape:      core.KEY_ESCAPE,
		glfw.KeyKPEnter:     core.KEY_ENTER,
		glfw.KeyLeftShift:   core.KEY_LSHIFT,
		glfw.KeyPageDown:    core.KEY_NEXT,
		glfw.KeyGraveAccent: core.KEY_GRAVE,
		glfw.KeyUnknown:     core.KEY_UNKNOWN,
		glfw.KeyWorld1:      core.KEY_UNKNOWN,
	}
	for in, want := range tests {
		if got := translateKey(in); got != want {
			t.Errorf("translateKey(%d) = 0x%x, want 0x%x", in, got, want)
		}
	}
}

func TestTranslateButton(t *testing.T) {
	tests := []struct {
		in   glfw.MouseButton
		want core.Button
		ok   bool
	}{
		{glfw.MouseButtonLeft, core.BUTTON_LEFT, true},
		{glfw.MouseButtonRight, core.BUTTON_RIGHT, true},
		{glfw.MouseButtonMiddle, core.BUTTON_MIDDLE, true},
		{glfw.MouseButton4, 0, false},
	}
	for _, tt := range tests {
		got, ok := translateButton(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("translateButton(%d) = %d, %t", tt.in, got, ok)
		}
	}
}

func TestBoolToInterval(t *testing.T) {
	if boolToInterval(true) != 1 || boolToInterval(false) != 0 {
		t.Error("unexpected swap interval")
	}
}
