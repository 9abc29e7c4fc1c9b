package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

const lodClampNone = 1000.0

type Texture struct {
	backend *Backend
	info    metadata.TextureCreateInfo
	image   *Image
	sampler vk.Sampler
}

func newTexture(b *Backend, info *metadata.TextureCreateInfo, pixels []byte) (*Texture, error) {
	format := vulkanFormat(info.Format)
	if format == vk.FormatUndefined {
		return nil, fmt.Errorf("%w: %s", metadata.ErrUnsupportedFormat, info.Format)
	}

	img, err := NewImage(b.device, &ImageCreateInfo{
		Width:      info.Width,
		Height:     info.Height,
		Format:     format,
		MipLevels:  info.MipLevels,
		Layers:     info.Layers,
		Cube:       info.Type == metadata.TextureTypeCube,
		Usage:      imageUsage(info.Usage),
		Memory:     vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		AspectMask: aspectMask(info.Format),
	})
	if err != nil {
		return nil, err
	}
	t := &Texture{backend: b, info: *info, image: img}

	if info.Usage.Has(metadata.TextureUsageSampled) {
		sampler, err := createSampler(b.device, &info.Sampler, float32(info.MipLevels))
		if err != nil {
			t.Destroy()
			return nil, err
		}
		t.sampler = sampler
	}

	if len(pixels) > 0 {
		err = t.Upload(pixels)
	} else {
		err = runSingleUse(b.device, b.locks, func(cb vk.CommandBuffer) {
			img.Transition(cb, t.finalLayout())
		})
	}
	if err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *Texture) Name() string                     { return t.info.Name }
func (t *Texture) Info() metadata.TextureCreateInfo { return t.info }
func (t *Texture) Width() uint32                    { return t.info.Width }
func (t *Texture) Height() uint32                   { return t.info.Height }
func (t *Texture) Format() metadata.TextureFormat   { return t.info.Format }
func (t *Texture) Image() *Image                    { return t.image }
func (t *Texture) Sampler() vk.Sampler              { return t.sampler }

// finalLayout is the layout the texture rests in between transfers.
func (t *Texture) finalLayout() vk.ImageLayout {
	usage := t.info.Usage
	switch {
	case usage.Has(metadata.TextureUsageSampled):
		return vk.ImageLayoutShaderReadOnlyOptimal
	case usage.Has(metadata.TextureUsageStorage):
		return vk.ImageLayoutGeneral
	case usage.Has(metadata.TextureUsageColorAttachment):
		return vk.ImageLayoutColorAttachmentOptimal
	case usage.Has(metadata.TextureUsageDepthStencilAttachment):
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	default:
		return vk.ImageLayoutTransferSrcOptimal
	}
}

func (t *Texture) Upload(pixels []byte) error {
	if uint64(len(pixels)) != t.info.ByteSize() {
		return fmt.Errorf("%w: texture '%s' expects %d bytes, got %d", renderer.ErrPixelDataSize, t.info.Name, t.info.ByteSize(), len(pixels))
	}
	device := t.backend.device
	staging, err := newStagingBuffer(device, uint64(len(pixels)), false)
	if err != nil {
		return err
	}
	defer staging.destroy(device)
	if err := staging.write(device, pixels, 0); err != nil {
		return err
	}

	return runSingleUse(device, t.backend.locks, func(cb vk.CommandBuffer) {
		// The previous content is overwritten entirely.
		t.image.Layout = vk.ImageLayoutUndefined
		t.image.Transition(cb, vk.ImageLayoutTransferDstOptimal)
		t.image.CopyFromBuffer(cb, staging.Handle)
		if t.info.GenerateMipMaps && t.info.MipLevels > 1 {
			t.image.GenerateMipmaps(device, cb, t.finalLayout())
		} else {
			t.image.Transition(cb, t.finalLayout())
		}
	})
}

// read copies the base level of every layer back to CPU memory.
func (t *Texture) read() ([]byte, error) {
	device := t.backend.device
	size := t.info.ByteSize()
	staging, err := newStagingBuffer(device, size, true)
	if err != nil {
		return nil, err
	}
	defer staging.destroy(device)

	err = runSingleUse(device, t.backend.locks, func(cb vk.CommandBuffer) {
		t.image.Transition(cb, vk.ImageLayoutTransferSrcOptimal)
		t.image.CopyToBuffer(cb, staging.Handle)
		t.image.Transition(cb, t.finalLayout())
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if err := staging.read(device, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Texture) Destroy() {
	device := t.backend.device
	if t.sampler != nil {
		vk.DestroySampler(device.LogicalDevice, t.sampler, device.Allocator)
		t.sampler = nil
	}
	if t.image != nil {
		t.image.Destroy(device)
		t.image = nil
	}
}

func createSampler(device *Device, info *metadata.SamplerCreateInfo, maxLod float32) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter(info.MagFilter),
		MinFilter:               filter(info.MinFilter),
		MipmapMode:              mipmapMode(info.MipFilter),
		AddressModeU:            addressMode(info.WrapU),
		AddressModeV:            addressMode(info.WrapV),
		AddressModeW:            addressMode(info.WrapW),
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  info.MinLod,
		MaxLod:                  maxLod,
	}
	if info.MaxLod > 0 {
		samplerInfo.MaxLod = info.MaxLod
	}
	if info.MaxAnisotropy > 1 && device.SamplerAnisotropy {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = min(info.MaxAnisotropy, device.Properties.Limits.MaxSamplerAnisotropy)
	}

	var sampler vk.Sampler
	if err := check(vk.CreateSampler(device.LogicalDevice, &samplerInfo, device.Allocator, &sampler), "vkCreateSampler"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return sampler, nil
}

// Sampler is a standalone sampler object.
type Sampler struct {
	backend *Backend
	info    metadata.SamplerCreateInfo
	handle  vk.Sampler
}

func newSampler(b *Backend, info *metadata.SamplerCreateInfo) (*Sampler, error) {
	handle, err := createSampler(b.device, info, lodClampNone)
	if err != nil {
		return nil, err
	}
	return &Sampler{backend: b, info: *info, handle: handle}, nil
}

func (s *Sampler) Name() string                     { return "sampler" }
func (s *Sampler) Info() metadata.SamplerCreateInfo { return s.info }
func (s *Sampler) Handle() vk.Sampler               { return s.handle }

func (s *Sampler) Destroy() {
	if s.handle != nil {
		vk.DestroySampler(s.backend.device.LogicalDevice, s.handle, s.backend.device.Allocator)
		s.handle = nil
	}
}
