package renderer

import (
	"github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// Resource is any backend object whose lifetime is managed by a Handle.
// Destroy is called by the retire list once the GPU can no longer be using
// the resource.
type Resource interface {
	Name() string
	Destroy()
}

type Texture2D interface {
	Resource
	Info() metadata.TextureCreateInfo
	Width() uint32
	Height() uint32
	Format() metadata.TextureFormat
	// Upload replaces the base level (and regenerates mips when the texture
	// was created with GenerateMipMaps). len(pixels) must match the size.
	Upload(pixels []byte) error
}

type GPUBuffer interface {
	Resource
	Info() metadata.BufferCreateInfo
	Size() uint64
	// Upload writes data at offset, going through a staging buffer when the
	// memory is not host visible.
	Upload(data []byte, offset uint64) error
}

type Sampler interface {
	Resource
	Info() metadata.SamplerCreateInfo
}

type SwapChain interface {
	Resource
	Width() uint32
	Height() uint32
	ImageCount() uint32
	ImageIndex() uint32
	VSync() bool
	// SetVSync takes effect at the next image acquisition.
	SetVSync(vsync bool)
	Resize(width, height uint32) error
	// AcquireNextImage returns core.ErrSwapchainBooting when the swapchain
	// had to be recreated and the frame must be skipped.
	AcquireNextImage() error
	// Present returns core.ErrSwapchainBooting when the surface changed
	// under the swapchain. The next frame resizes it.
	Present() error
}

// GraphicsContext records and submits the work of one frame at a time.
type GraphicsContext interface {
	Resource
	DeviceName() string
	// BeginFrame waits until the GPU is done with the previous use of the
	// frame slot and starts recording.
	BeginFrame(frameIndex uint32) error
	// EndFrame submits what was recorded since BeginFrame.
	EndFrame() error
	// Clear fills the current swapchain image.
	Clear(color math.Vec4)
	CopyBuffer(src, dst GPUBuffer, srcOffset, dstOffset, size uint64) error
	WaitIdle() error
}
