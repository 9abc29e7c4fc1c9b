package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	emath "github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type SwapChain struct {
	backend *Backend
	handle  vk.Swapchain

	ImageFormat vk.SurfaceFormat
	extent      vk.Extent2D
	images      []vk.Image
	views       []vk.ImageView
	// Fences of the frames last rendering into each image. They are owned
	// by the context.
	imagesInFlight []*Fence

	preferred  metadata.TextureFormat
	vsync      bool
	vsyncDirty bool
	// Swapchain images can be cleared with transfer commands.
	transferDst bool

	imageIndex uint32
	acquired   bool
}

func newSwapChain(b *Backend, info *metadata.SwapChainCreateInfo) (*SwapChain, error) {
	sc := &SwapChain{
		backend:   b,
		preferred: info.Format,
		vsync:     info.VSync,
	}
	if err := sc.create(info.Width, info.Height); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *SwapChain) Name() string       { return "swapchain" }
func (sc *SwapChain) Width() uint32      { return sc.extent.Width }
func (sc *SwapChain) Height() uint32     { return sc.extent.Height }
func (sc *SwapChain) ImageCount() uint32 { return uint32(len(sc.images)) }
func (sc *SwapChain) ImageIndex() uint32 { return sc.imageIndex }
func (sc *SwapChain) VSync() bool        { return sc.vsync }

func (sc *SwapChain) Format() metadata.TextureFormat {
	return textureFormat(sc.ImageFormat.Format)
}

func (sc *SwapChain) SetVSync(vsync bool) {
	if sc.vsync != vsync {
		sc.vsync = vsync
		sc.vsyncDirty = true
	}
}

func (sc *SwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return core.ErrSwapchainBooting
	}
	return sc.recreate(width, height)
}

// AcquireNextImage signals the image available semaphore of the frame
// being recorded.
func (sc *SwapChain) AcquireNextImage() error {
	frame := sc.backend.currentFrame()
	if frame == nil {
		return fmt.Errorf("%w: no frame is recording", ErrVulkan)
	}
	if sc.vsyncDirty {
		if err := sc.recreate(sc.extent.Width, sc.extent.Height); err != nil {
			return err
		}
	}

	var index uint32
	result := vk.AcquireNextImage(sc.backend.device.LogicalDevice, sc.handle, math.MaxUint64, frame.imageAvailable, vk.NullFence, &index)
	switch result {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		// Trigger swapchain recreation, then boot out of the render loop.
		width, height := sc.backend.surface.FramebufferSize()
		if err := sc.recreate(width, height); err != nil && err != core.ErrSwapchainBooting {
			return err
		}
		return core.ErrSwapchainBooting
	default:
		err := check(result, "vkAcquireNextImageKHR")
		core.LogError("Failed to acquire swapchain image: %s", err)
		return err
	}

	sc.imageIndex = index
	sc.acquired = true
	frame.imageLayout = vk.ImageLayoutUndefined
	return nil
}

// Present returns the image to the swapchain once the render complete
// semaphore of the submitted frame signals.
func (sc *SwapChain) Present() error {
	if !sc.acquired {
		return core.ErrSwapchainBooting
	}
	sc.acquired = false
	frame := sc.backend.lastSubmitted()
	if frame == nil {
		return core.ErrSwapchainBooting
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.handle},
		PImageIndices:      []uint32{sc.imageIndex},
	}

	var result vk.Result
	sc.backend.locks.SafeCall(QueueManagement, func() error {
		result = vk.QueuePresent(sc.backend.device.PresentQueue, &presentInfo)
		return nil
	})
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		// Swapchain is out of date, suboptimal or a framebuffer resize has
		// occurred. The renderer recreates it at the next frame.
		return core.ErrSwapchainBooting
	default:
		err := check(result, "vkQueuePresentKHR")
		core.LogError("Failed to present swapchain image: %s", err)
		return err
	}
}

func (sc *SwapChain) Destroy() {
	device := sc.backend.device
	device.WaitIdle()
	sc.destroyViews()
	if sc.handle != vk.NullSwapchain {
		vk.DestroySwapchain(device.LogicalDevice, sc.handle, device.Allocator)
		sc.handle = vk.NullSwapchain
	}
	if sc.backend.swapchain == sc {
		sc.backend.swapchain = nil
	}
}

func (sc *SwapChain) recreate(width, height uint32) error {
	if width == 0 || height == 0 {
		core.LogDebug("swapchain recreation requested for a %dx%d surface, booting", width, height)
		return core.ErrSwapchainBooting
	}
	// Wait for any operations to complete.
	if err := sc.backend.WaitIdle(); err != nil {
		return err
	}
	sc.destroyViews()
	return sc.create(width, height)
}

func (sc *SwapChain) destroyViews() {
	device := sc.backend.device
	// Only destroy the views, not the images, since those are owned by the
	// swapchain and are thus destroyed when it is.
	for i := range sc.views {
		vk.DestroyImageView(device.LogicalDevice, sc.views[i], device.Allocator)
	}
	sc.views = nil
	sc.images = nil
	sc.imagesInFlight = nil
}

func (sc *SwapChain) chooseFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	wanted := []vk.Format{vulkanFormat(sc.preferred), vk.FormatB8g8r8a8Unorm, vk.FormatR8g8b8a8Unorm}
	for _, w := range wanted {
		if w == vk.FormatUndefined {
			continue
		}
		for _, format := range formats {
			if format.Format == w && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return format
			}
		}
	}
	return formats[0]
}

func (sc *SwapChain) choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	if sc.vsync {
		return vk.PresentModeFifo
	}
	for _, wanted := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, mode := range modes {
			if mode == wanted {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

func (sc *SwapChain) create(width, height uint32) error {
	b := sc.backend
	device := b.device

	// Requery support, the surface may have changed.
	if err := querySwapchainSupport(device.PhysicalDevice, b.vkSurface, &device.SwapchainSupport); err != nil {
		return err
	}
	support := &device.SwapchainSupport
	capabilities := support.Capabilities

	sc.ImageFormat = sc.chooseFormat(support.Formats)
	presentMode := sc.choosePresentMode(support.PresentModes)

	extent := vk.Extent2D{Width: width, Height: height}
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		extent = capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	extent.Width = emath.Clamp(extent.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	extent.Height = emath.Clamp(extent.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	if extent.Width == 0 || extent.Height == 0 {
		return core.ErrSwapchainBooting
	}

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	sc.transferDst = capabilities.SupportedUsageFlags&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) != 0
	if sc.transferDst {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	} else {
		core.LogWarn("surface images do not support transfers, frames will not be cleared")
	}

	oldHandle := sc.handle
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          b.vkSurface,
		MinImageCount:    imageCount,
		ImageFormat:      sc.ImageFormat.Format,
		ImageColorSpace:  sc.ImageFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldHandle,
	}

	// Setup the queue family indices
	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{
			uint32(device.GraphicsQueueIndex),
			uint32(device.PresentQueueIndex),
		}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	err := check(vk.CreateSwapchain(device.LogicalDevice, &createInfo, device.Allocator, &handle), "vkCreateSwapchainKHR")
	if oldHandle != vk.NullSwapchain {
		vk.DestroySwapchain(device.LogicalDevice, oldHandle, device.Allocator)
		sc.handle = vk.NullSwapchain
	}
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	sc.handle = handle
	sc.extent = extent
	sc.vsyncDirty = false
	sc.acquired = false

	var count uint32
	if err := check(vk.GetSwapchainImages(device.LogicalDevice, sc.handle, &count, nil), "vkGetSwapchainImagesKHR"); err != nil {
		core.LogError(err.Error())
		return err
	}
	sc.images = make([]vk.Image, count)
	if err := check(vk.GetSwapchainImages(device.LogicalDevice, sc.handle, &count, sc.images), "vkGetSwapchainImagesKHR"); err != nil {
		core.LogError(err.Error())
		return err
	}

	sc.views = make([]vk.ImageView, 0, count)
	for _, image := range sc.images {
		view, err := createImageView(device, image, sc.ImageFormat.Format, vk.ImageViewType2d, colorRange())
		if err != nil {
			return err
		}
		sc.views = append(sc.views, view)
	}
	sc.imagesInFlight = make([]*Fence, count)

	core.LogInfo("Swapchain created: %dx%d, %d images, vsync %t.", extent.Width, extent.Height, count, sc.vsync)
	return nil
}

func colorRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}
