package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

type ImageCreateInfo struct {
	Width      uint32
	Height     uint32
	Format     vk.Format
	MipLevels  uint32
	Layers     uint32
	Cube       bool
	Usage      vk.ImageUsageFlags
	Memory     vk.MemoryPropertyFlags
	AspectMask vk.ImageAspectFlags
}

// Image is an optimally tiled image with its memory and a view over every
// level and layer. Layout tracks the layout of all subresources at once.
type Image struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
	Layout vk.ImageLayout

	mipLevels uint32
	layers    uint32
	aspect    vk.ImageAspectFlags
}

func NewImage(device *Device, info *ImageCreateInfo) (*Image, error) {
	img := &Image{
		Width:     info.Width,
		Height:    info.Height,
		Format:    info.Format,
		Layout:    vk.ImageLayoutUndefined,
		mipLevels: info.MipLevels,
		layers:    info.Layers,
		aspect:    info.AspectMask,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   info.Layers,
		Format:        info.Format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         info.Usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	if info.Cube {
		imageCreateInfo.Flags = vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit)
	}

	var handle vk.Image
	if err := check(vk.CreateImage(device.LogicalDevice, &imageCreateInfo, device.Allocator, &handle), "vkCreateImage"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	img.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device.LogicalDevice, img.Handle, &requirements)
	memory, err := device.allocate(requirements, info.Memory)
	if err != nil {
		core.LogError("failed to allocate image memory: %s", err)
		img.Destroy(device)
		return nil, err
	}
	img.Memory = memory

	if err := check(vk.BindImageMemory(device.LogicalDevice, img.Handle, img.Memory, 0), "vkBindImageMemory"); err != nil {
		core.LogError(err.Error())
		img.Destroy(device)
		return nil, err
	}

	viewType := vk.ImageViewType2d
	switch {
	case info.Cube:
		viewType = vk.ImageViewTypeCube
	case info.Layers > 1:
		viewType = vk.ImageViewType2dArray
	}
	view, err := createImageView(device, img.Handle, info.Format, viewType, img.subresourceRange(0, info.MipLevels))
	if err != nil {
		img.Destroy(device)
		return nil, err
	}
	img.View = view

	return img, nil
}

func createImageView(device *Device, image vk.Image, format vk.Format, viewType vk.ImageViewType, subresource vk.ImageSubresourceRange) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            image,
		ViewType:         viewType,
		Format:           format,
		SubresourceRange: subresource,
	}
	var view vk.ImageView
	if err := check(vk.CreateImageView(device.LogicalDevice, &viewCreateInfo, device.Allocator, &view), "vkCreateImageView"); err != nil {
		core.LogError(err.Error())
		return vk.NullImageView, err
	}
	return view, nil
}

func (img *Image) subresourceRange(baseMip, mipCount uint32) vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     img.aspect,
		BaseMipLevel:   baseMip,
		LevelCount:     mipCount,
		BaseArrayLayer: 0,
		LayerCount:     img.layers,
	}
}

// Copies address a single aspect: depth/stencil images copy their depth.
func (img *Image) subresourceLayers(mip uint32) vk.ImageSubresourceLayers {
	aspect := img.aspect
	if aspect&vk.ImageAspectFlags(vk.ImageAspectDepthBit) != 0 {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageSubresourceLayers{
		AspectMask:     aspect,
		MipLevel:       mip,
		BaseArrayLayer: 0,
		LayerCount:     img.layers,
	}
}

// Transition records a barrier moving every subresource to layout.
func (img *Image) Transition(cb vk.CommandBuffer, layout vk.ImageLayout) {
	if img.Layout == layout {
		return
	}
	transitionLayout(cb, img.Handle, img.subresourceRange(0, img.mipLevels), img.Layout, layout)
	img.Layout = layout
}

func transitionLayout(cb vk.CommandBuffer, image vk.Image, subresource vk.ImageSubresourceRange, oldLayout, newLayout vk.ImageLayout) {
	srcAccess, srcStage := layoutAccess(oldLayout)
	dstAccess, dstStage := layoutAccess(newLayout)
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    subresource,
	}
	vk.CmdPipelineBarrier(cb, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// layoutAccess gives the accesses that must be visible and the stage that
// uses an image in a given layout.
func layoutAccess(layout vk.ImageLayout) (vk.AccessFlags, vk.PipelineStageFlags) {
	switch layout {
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferSrcOptimal:
		return vk.AccessFlags(vk.AccessTransferReadBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit | vk.PipelineStageComputeShaderBit)
	case vk.ImageLayoutColorAttachmentOptimal:
		return vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit), vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit), vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	case vk.ImageLayoutGeneral:
		return vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit), vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	case vk.ImageLayoutPresentSrc:
		return 0, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	default:
		return 0, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
}

// CopyFromBuffer copies tightly packed base level data of every layer.
// The image must be in TransferDstOptimal.
func (img *Image) CopyFromBuffer(cb vk.CommandBuffer, buffer vk.Buffer) {
	region := vk.BufferImageCopy{
		ImageSubresource: img.subresourceLayers(0),
		ImageExtent:      vk.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cb, buffer, img.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// CopyToBuffer copies the base level of every layer. The image must be in
// TransferSrcOptimal.
func (img *Image) CopyToBuffer(cb vk.CommandBuffer, buffer vk.Buffer) {
	region := vk.BufferImageCopy{
		ImageSubresource: img.subresourceLayers(0),
		ImageExtent:      vk.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
	}
	vk.CmdCopyImageToBuffer(cb, img.Handle, vk.ImageLayoutTransferSrcOptimal, buffer, 1, []vk.BufferImageCopy{region})
}

// GenerateMipmaps fills levels 1..n from the base level with blits. Every
// level must be in TransferDstOptimal; all of them end in finalLayout.
func (img *Image) GenerateMipmaps(device *Device, cb vk.CommandBuffer, finalLayout vk.ImageLayout) {
	blitFilter := vk.FilterLinear
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, img.Format, &properties)
	properties.Deref()
	if vk.FormatFeatureFlagBits(properties.OptimalTilingFeatures)&vk.FormatFeatureSampledImageFilterLinearBit == 0 {
		core.LogWarn("format %d does not support linear blits, generating mip maps with nearest filtering", img.Format)
		blitFilter = vk.FilterNearest
	}

	width, height := int32(img.Width), int32(img.Height)
	for level := uint32(1); level < img.mipLevels; level++ {
		transitionLayout(cb, img.Handle, img.subresourceRange(level-1, 1), vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal)

		nextWidth, nextHeight := max(width/2, 1), max(height/2, 1)
		blit := vk.ImageBlit{
			SrcSubresource: img.subresourceLayers(level - 1),
			SrcOffsets:     [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: width, Y: height, Z: 1}},
			DstSubresource: img.subresourceLayers(level),
			DstOffsets:     [2]vk.Offset3D{{X: 0, Y: 0, Z: 0}, {X: nextWidth, Y: nextHeight, Z: 1}},
		}
		vk.CmdBlitImage(cb,
			img.Handle, vk.ImageLayoutTransferSrcOptimal,
			img.Handle, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, blitFilter)

		transitionLayout(cb, img.Handle, img.subresourceRange(level-1, 1), vk.ImageLayoutTransferSrcOptimal, finalLayout)
		width, height = nextWidth, nextHeight
	}
	transitionLayout(cb, img.Handle, img.subresourceRange(img.mipLevels-1, 1), vk.ImageLayoutTransferDstOptimal, finalLayout)
	img.Layout = finalLayout
}

func (img *Image) Destroy(device *Device) {
	if img.View != vk.NullImageView {
		vk.DestroyImageView(device.LogicalDevice, img.View, device.Allocator)
		img.View = vk.NullImageView
	}
	if img.Handle != vk.NullImage {
		vk.DestroyImage(device.LogicalDevice, img.Handle, device.Allocator)
		img.Handle = vk.NullImage
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device.LogicalDevice, img.Memory, device.Allocator)
		img.Memory = vk.NullDeviceMemory
	}
}
