package opengl

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// SwapChain is the default framebuffer of the window. The window system owns
// the images; presenting swaps the front and back buffers.
type SwapChain struct {
	backend    *Backend
	width      uint32
	height     uint32
	vsync      bool
	imageIndex uint32
	acquired   bool
}

func newSwapChain(b *Backend, info *metadata.SwapChainCreateInfo) *SwapChain {
	sc := &SwapChain{backend: b}
	sc.SetVSync(info.VSync)
	sc.setExtent(info.Width, info.Height)
	return sc
}

func (sc *SwapChain) Name() string       { return "swapchain" }
func (sc *SwapChain) Width() uint32      { return sc.width }
func (sc *SwapChain) Height() uint32     { return sc.height }
func (sc *SwapChain) ImageCount() uint32 { return swapchainImageCount }
func (sc *SwapChain) ImageIndex() uint32 { return sc.imageIndex }
func (sc *SwapChain) VSync() bool        { return sc.vsync }

func (sc *SwapChain) SetVSync(vsync bool) {
	sc.vsync = vsync
	interval := 0
	if vsync {
		interval = 1
	}
	sc.backend.surface.SetSwapInterval(interval)
}

func (sc *SwapChain) setExtent(width, height uint32) {
	sc.width, sc.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (sc *SwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return core.ErrSwapchainBooting
	}
	sc.setExtent(width, height)
	return nil
}

// AcquireNextImage boots out of the frame while the window is minimized
// or its framebuffer no longer matches.
func (sc *SwapChain) AcquireNextImage() error {
	width, height := sc.backend.surface.FramebufferSize()
	if width == 0 || height == 0 {
		return core.ErrSwapchainBooting
	}
	if width != sc.width || height != sc.height {
		sc.setExtent(width, height)
		return core.ErrSwapchainBooting
	}
	sc.imageIndex = (sc.imageIndex + 1) % swapchainImageCount
	sc.acquired = true
	return nil
}

func (sc *SwapChain) Present() error {
	if !sc.acquired {
		return core.ErrSwapchainBooting
	}
	sc.acquired = false
	sc.backend.surface.SwapBuffers()
	return nil
}

func (sc *SwapChain) Destroy() {
	sc.acquired = false
	if sc.backend.swapchain == sc {
		sc.backend.swapchain = nil
	}
}
