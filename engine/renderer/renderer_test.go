package renderer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/commands"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/headless"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func newTestRenderer(t *testing.T, framesInFlight uint32) *renderer.Renderer {
	t.Helper()
	r, err := renderer.New(&renderer.Config{
		Backend:            renderer.BackendHeadless,
		ApplicationName:    "test",
		Width:              8,
		Height:             8,
		FramesInFlight:     framesInFlight,
		CommandQueueSize:   1 << 16,
		MaxTimestamps:      4,
		MaxPipelineQueries: 4,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Shutdown() })
	return r
}

func runFrame(t *testing.T, r *renderer.Renderer) {
	t.Helper()
	if err := r.BeginFrame(); err != nil {
		t.Fatalf("begin frame: %v", err)
	}
	if err := r.EndFrame(); err != nil {
		t.Fatalf("end frame: %v", err)
	}
}

func TestUnregisteredBackendFails(t *testing.T) {
	_, err := renderer.New(&renderer.Config{Backend: renderer.BackendType(99), FramesInFlight: 2, CommandQueueSize: 64}, nil)
	if !errors.Is(err, core.ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
	if !strings.Contains(err.Error(), "forgotten import") {
		t.Fatalf("error should hint at the missing import: %v", err)
	}
}

func TestCommandsRunAtEndOfFrameInOrder(t *testing.T) {
	r := newTestRenderer(t, 2)
	var seq strings.Builder

	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	for _, c := range "ABC" {
		c := c
		r.Submit(func() { seq.WriteRune(c) })
	}
	if seq.Len() != 0 {
		t.Fatal("commands ran before the flush")
	}
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if seq.String() != "ABC" {
		t.Fatalf("got %q", seq.String())
	}
	if r.Queue().Len() != 0 {
		t.Fatal("queue not empty after the frame")
	}
}

func TestFrameSequencing(t *testing.T) {
	r := newTestRenderer(t, 2)
	if err := r.EndFrame(); !errors.Is(err, renderer.ErrNoFrameInProgress) {
		t.Fatalf("end without begin: %v", err)
	}
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.BeginFrame(); !errors.Is(err, renderer.ErrFrameInProgress) {
		t.Fatalf("double begin: %v", err)
	}
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if r.FrameNumber() != 1 || r.FrameIndex() != 1 {
		t.Fatalf("frame number %d index %d", r.FrameNumber(), r.FrameIndex())
	}
}

func TestReleasedTextureOutlivesFramesInFlight(t *testing.T) {
	const framesInFlight = 2
	r := newTestRenderer(t, framesInFlight)

	h, err := r.Factory().CreateTexture(metadata.TextureCreateInfo{
		Name: "albedo", Format: metadata.TextureFormatRGBA8, Width: 2, Height: 2,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tex := h.Get().(*headless.Texture)

	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	// The command holds a reference until it has run.
	commands.SubmitWith(r.Queue(), h.Acquire(), func(h **renderer.Handle[renderer.Texture2D]) {
		if (*h).Get().Width() != 2 {
			t.Error("texture not usable inside the command")
		}
	})
	h.Release()
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if tex.Destroyed() {
		t.Fatal("destroyed while its frame may still be in flight")
	}
	if r.Stats().PendingRetire != 1 {
		t.Fatalf("pending retire %d", r.Stats().PendingRetire)
	}

	for i := 0; i < framesInFlight-1; i++ {
		runFrame(t, r)
		if tex.Destroyed() {
			t.Fatalf("destroyed after %d frames", i+1)
		}
	}
	runFrame(t, r)
	if !tex.Destroyed() {
		t.Fatal("texture never destroyed")
	}
}

func TestFactoryRejectsInvalidDescriptors(t *testing.T) {
	r := newTestRenderer(t, 2)
	live := r.Factory().LiveResources()

	h, err := r.Factory().CreateTexture(metadata.TextureCreateInfo{Format: metadata.TextureFormatDepth32F, Width: 4, Height: 4, Usage: metadata.TextureUsageSampled}, nil)
	if h != nil || !errors.Is(err, metadata.ErrInvalidDescriptor) {
		t.Fatalf("depth texture without depth usage: %v, %v", h, err)
	}
	h, err = r.Factory().CreateTexture(metadata.TextureCreateInfo{Format: metadata.TextureFormatRGBA8, Width: 4, Height: 4}, make([]byte, 10))
	if h != nil || !errors.Is(err, renderer.ErrPixelDataSize) {
		t.Fatalf("short pixel data: %v, %v", h, err)
	}
	b, err := r.Factory().CreateBuffer(metadata.BufferCreateInfo{Size: 0, Usage: metadata.BufferUsageVertex}, nil)
	if b != nil || err == nil {
		t.Fatal("empty buffer accepted")
	}
	if r.Factory().LiveResources() != live {
		t.Fatal("failed creations leaked resources")
	}
}

func TestFactoryNamesUnnamedResources(t *testing.T) {
	r := newTestRenderer(t, 2)
	h, err := r.Factory().CreateTexture(metadata.TextureCreateInfo{Format: metadata.TextureFormatRGBA8, Width: 1, Height: 1}, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()
	if !strings.HasPrefix(h.Get().Name(), "texture-") {
		t.Fatalf("unexpected name %q", h.Get().Name())
	}
	pixels, err := r.Factory().ReadTexture(h)
	if err != nil || string(pixels) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("readback %v, %v", pixels, err)
	}
}

func TestProfilerThroughRenderer(t *testing.T) {
	const framesInFlight = 2
	r := newTestRenderer(t, framesInFlight)
	prof := r.Profiler()

	for frame := 0; frame < 4; frame++ {
		if err := r.BeginFrame(); err != nil {
			t.Fatal(err)
		}
		stats := r.Stats()
		if frame < framesInFlight && stats.PipelineStats.FragmentShaderInvocations != 0 {
			t.Fatalf("frame %d: expected empty warm-up statistics, got %+v", frame, stats.PipelineStats)
		}
		if frame >= framesInFlight && stats.PipelineStats.FragmentShaderInvocations != 8*8 {
			t.Fatalf("frame %d: fragments %d, want 64", frame, stats.PipelineStats.FragmentShaderInvocations)
		}
		r.Submit(func() {
			if _, err := prof.BeginPipelineStatsQuery(); err != nil {
				t.Error(err)
			}
			r.Context().Clear(r.ClearColor())
			if err := prof.EndPipelineStatsQuery(); err != nil {
				t.Error(err)
			}
		})
		if err := r.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEndFrameClosesOpenQueries(t *testing.T) {
	r := newTestRenderer(t, 1)
	prof := r.Profiler()

	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	r.Submit(func() {
		if _, err := prof.BeginTimeQuery(); err != nil {
			t.Error(err)
		}
	})
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if err := prof.EndTimeQuery(); err == nil {
		t.Fatal("time query left open after EndFrame")
	}

	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if prof.TimeQueryCount() != 1 {
		t.Errorf("closed query not resolved, %d results", prof.TimeQueryCount())
	}
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestMinimizedWindowSkipsFrames(t *testing.T) {
	r := newTestRenderer(t, 2)
	r.OnResize(0, 0)
	ran := false
	r.Submit(func() { ran = true })
	if err := r.BeginFrame(); !errors.Is(err, core.ErrSwapchainBooting) {
		t.Fatalf("expected ErrSwapchainBooting, got %v", err)
	}

	r.OnResize(16, 4)
	runFrame(t, r)
	if !ran {
		t.Fatal("command queued while minimized was lost")
	}
	if sc := r.SwapChain(); sc.Width() != 16 || sc.Height() != 4 {
		t.Fatalf("swapchain %dx%d", sc.Width(), sc.Height())
	}
}

func TestOutOfDateSwapchainSkipsSlot(t *testing.T) {
	r := newTestRenderer(t, 2)
	runFrame(t, r)
	r.SwapChain().(*headless.SwapChain).MarkOutOfDate()
	before := r.FrameIndex()
	if err := r.BeginFrame(); !errors.Is(err, core.ErrSwapchainBooting) {
		t.Fatalf("expected ErrSwapchainBooting, got %v", err)
	}
	if r.FrameIndex() == before {
		t.Fatal("frame slot not skipped")
	}
	runFrame(t, r)
}

func TestShutdownDestroysEverything(t *testing.T) {
	r, err := renderer.New(&renderer.Config{
		Backend: renderer.BackendHeadless, Width: 4, Height: 4,
		FramesInFlight: 3, CommandQueueSize: 1024, MaxTimestamps: 1,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	h, err := r.Factory().CreateBuffer(metadata.BufferCreateInfo{Size: 16, Usage: metadata.BufferUsageUniform, Memory: metadata.MemoryTypeCPUToGPU}, []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	buf := h.Get().(*headless.Buffer)
	runFrame(t, r)
	h.Release()

	if err := r.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !buf.Destroyed() {
		t.Fatal("retired buffer not destroyed at shutdown")
	}
	if r.Factory().LiveResources() != 0 {
		t.Fatalf("%d resources alive after shutdown", r.Factory().LiveResources())
	}
	if err := r.BeginFrame(); !errors.Is(err, renderer.ErrRendererShutdown) {
		t.Fatalf("begin after shutdown: %v", err)
	}
}
