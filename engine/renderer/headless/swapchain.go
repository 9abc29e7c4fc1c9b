package headless

import (
	"github.com/Algor1tm/Athena-sub002/engine/containers"
	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// SwapChain keeps FramesInFlight+1 RGBA8 images in memory.
type SwapChain struct {
	backend    *Backend
	width      uint32
	height     uint32
	vsync      bool
	images     []containers.Buffer
	imageIndex uint32
	acquired   bool
	outOfDate  bool
	presented  uint64
}

func newSwapChain(b *Backend, info *metadata.SwapChainCreateInfo) *SwapChain {
	sc := &SwapChain{
		backend:    b,
		vsync:      info.VSync,
		images:     make([]containers.Buffer, info.FramesInFlight+1),
		imageIndex: info.FramesInFlight,
	}
	sc.allocate(info.Width, info.Height)
	return sc
}

func (sc *SwapChain) allocate(width, height uint32) {
	sc.width, sc.height = width, height
	for i := range sc.images {
		sc.images[i].Allocate(uint64(width) * uint64(height) * 4)
	}
}

func (sc *SwapChain) Name() string       { return "swapchain" }
func (sc *SwapChain) Width() uint32      { return sc.width }
func (sc *SwapChain) Height() uint32     { return sc.height }
func (sc *SwapChain) ImageCount() uint32 { return uint32(len(sc.images)) }
func (sc *SwapChain) ImageIndex() uint32 { return sc.imageIndex }
func (sc *SwapChain) VSync() bool        { return sc.vsync }
func (sc *SwapChain) SetVSync(vsync bool) {
	sc.vsync = vsync
}

// Presented counts the images presented so far.
func (sc *SwapChain) Presented() uint64 { return sc.presented }

// MarkOutOfDate makes the next acquisition fail the way a window system
// invalidating the swapchain would.
func (sc *SwapChain) MarkOutOfDate() { sc.outOfDate = true }

// Image returns the pixels of image index.
func (sc *SwapChain) Image(index uint32) []byte {
	return sc.images[index].Data()
}

func (sc *SwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return core.ErrSwapchainBooting
	}
	sc.allocate(width, height)
	sc.outOfDate = false
	return nil
}

func (sc *SwapChain) AcquireNextImage() error {
	if sc.outOfDate {
		sc.outOfDate = false
		return core.ErrSwapchainBooting
	}
	sc.imageIndex = (sc.imageIndex + 1) % uint32(len(sc.images))
	sc.acquired = true
	return nil
}

func (sc *SwapChain) Present() error {
	if !sc.acquired {
		return core.ErrSwapchainBooting
	}
	sc.acquired = false
	sc.presented++
	return nil
}

func (sc *SwapChain) Destroy() {
	for i := range sc.images {
		sc.images[i].Release()
	}
	sc.images = nil
	if sc.backend.swapchain == sc {
		sc.backend.swapchain = nil
	}
}
