package math

import "testing"

func TestMipLevels(t *testing.T) {
	tests := []struct {
		w, h, want uint32
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 2},
		{256, 256, 9},
		{255, 17, 8},
		{1920, 1080, 11},
	}
	for _, tt := range tests {
		if got := MipLevels(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevels(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestAlign(t *testing.T) {
	if got := Align[uint64](13, 8); got != 16 {
		t.Fatalf("Align(13, 8) = %d", got)
	}
	if got := Align[uint32](256, 256); got != 256 {
		t.Fatalf("Align(256, 256) = %d", got)
	}
	if !IsPowerOfTwo[uint32](64) || IsPowerOfTwo[uint32](48) || IsPowerOfTwo[uint32](0) {
		t.Fatal("IsPowerOfTwo")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1.5, 0.0, 1.0) != 0 || Clamp(2, 0, 3) != 2 {
		t.Fatal("Clamp")
	}
}
