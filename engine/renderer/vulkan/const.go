package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

const (
	/** @brief Timeout of a frame fence wait, in nanoseconds. */
	fenceTimeout uint64 = 5 * 1000 * 1000 * 1000
	engineName          = "Athena"
)

var formatTable = map[metadata.TextureFormat]vk.Format{
	metadata.TextureFormatR8:              vk.FormatR8Unorm,
	metadata.TextureFormatRG8:             vk.FormatR8g8Unorm,
	metadata.TextureFormatRGBA8:           vk.FormatR8g8b8a8Unorm,
	metadata.TextureFormatRGBA8SRGB:       vk.FormatR8g8b8a8Srgb,
	metadata.TextureFormatBGRA8:           vk.FormatB8g8r8a8Unorm,
	metadata.TextureFormatBGRA8SRGB:       vk.FormatB8g8r8a8Srgb,
	metadata.TextureFormatR16:             vk.FormatR16Unorm,
	metadata.TextureFormatRG16:            vk.FormatR16g16Unorm,
	metadata.TextureFormatRGBA16:          vk.FormatR16g16b16a16Unorm,
	metadata.TextureFormatR16F:            vk.FormatR16Sfloat,
	metadata.TextureFormatRGBA16F:         vk.FormatR16g16b16a16Sfloat,
	metadata.TextureFormatR32F:            vk.FormatR32Sfloat,
	metadata.TextureFormatRG32F:           vk.FormatR32g32Sfloat,
	metadata.TextureFormatRGBA32F:         vk.FormatR32g32b32a32Sfloat,
	metadata.TextureFormatDepth32F:        vk.FormatD32Sfloat,
	metadata.TextureFormatDepth24Stencil8: vk.FormatD24UnormS8Uint,
}

func vulkanFormat(f metadata.TextureFormat) vk.Format {
	if vf, ok := formatTable[f]; ok {
		return vf
	}
	return vk.FormatUndefined
}

func textureFormat(f vk.Format) metadata.TextureFormat {
	for tf, vf := range formatTable {
		if vf == f {
			return tf
		}
	}
	return metadata.TextureFormatUndefined
}

func aspectMask(f metadata.TextureFormat) vk.ImageAspectFlags {
	switch {
	case f.HasStencil():
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	case f.IsDepth():
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	default:
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
}

// Uploads and readbacks always go through transfers, so both transfer bits
// are set whatever the descriptor asks for.
func imageUsage(u metadata.TextureUsage) vk.ImageUsageFlags {
	flags := vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
	if u.Has(metadata.TextureUsageSampled) {
		flags |= vk.ImageUsageSampledBit
	}
	if u.Has(metadata.TextureUsageStorage) {
		flags |= vk.ImageUsageStorageBit
	}
	if u.Has(metadata.TextureUsageColorAttachment) {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u.Has(metadata.TextureUsageDepthStencilAttachment) {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	return vk.ImageUsageFlags(flags)
}

func bufferUsage(u metadata.BufferUsage) vk.BufferUsageFlags {
	flags := vk.BufferUsageTransferDstBit
	if u.Has(metadata.BufferUsageVertex) {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if u.Has(metadata.BufferUsageIndex) {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if u.Has(metadata.BufferUsageUniform) {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if u.Has(metadata.BufferUsageStorage) {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if u.Has(metadata.BufferUsageTransferSrc) {
		flags |= vk.BufferUsageTransferSrcBit
	}
	return vk.BufferUsageFlags(flags)
}

func memoryProperties(m metadata.MemoryType) vk.MemoryPropertyFlags {
	switch m {
	case metadata.MemoryTypeCPUToGPU:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	case metadata.MemoryTypeGPUToCPU:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit | vk.MemoryPropertyHostCachedBit)
	default:
		return vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	}
}

func filter(f metadata.TextureFilter) vk.Filter {
	if f == metadata.TextureFilterModeNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func mipmapMode(f metadata.TextureFilter) vk.SamplerMipmapMode {
	if f == metadata.TextureFilterModeNearest {
		return vk.SamplerMipmapModeNearest
	}
	return vk.SamplerMipmapModeLinear
}

func addressMode(r metadata.TextureRepeat) vk.SamplerAddressMode {
	switch r {
	case metadata.TextureRepeatMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case metadata.TextureRepeatClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case metadata.TextureRepeatClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	default:
		return vk.SamplerAddressModeRepeat
	}
}
