package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// rawBuffer is a VkBuffer bound to its own allocation.
type rawBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
}

func newRawBuffer(device *Device, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*rawBuffer, error) {
	b := &rawBuffer{Size: size}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := check(vk.CreateBuffer(device.LogicalDevice, &bufferCreateInfo, device.Allocator, &handle), "vkCreateBuffer"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	b.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device.LogicalDevice, b.Handle, &requirements)
	memory, err := device.allocate(requirements, properties)
	if err != nil {
		core.LogError("failed to allocate buffer memory: %s", err)
		b.destroy(device)
		return nil, err
	}
	b.Memory = memory

	if err := check(vk.BindBufferMemory(device.LogicalDevice, b.Handle, b.Memory, 0), "vkBindBufferMemory"); err != nil {
		core.LogError(err.Error())
		b.destroy(device)
		return nil, err
	}
	return b, nil
}

func newStagingBuffer(device *Device, size uint64, readback bool) (*rawBuffer, error) {
	memory := metadata.MemoryTypeCPUToGPU
	if readback {
		memory = metadata.MemoryTypeGPUToCPU
	}
	return newRawBuffer(device, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit|vk.BufferUsageTransferDstBit),
		memoryProperties(memory))
}

// write copies data into host visible memory at offset.
func (b *rawBuffer) write(device *Device, data []byte, offset uint64) error {
	var mapped unsafe.Pointer
	if err := check(vk.MapMemory(device.LogicalDevice, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &mapped), "vkMapMemory"); err != nil {
		return err
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(device.LogicalDevice, b.Memory)
	return nil
}

// read copies len(dst) bytes of host visible memory into dst.
func (b *rawBuffer) read(device *Device, dst []byte) error {
	var mapped unsafe.Pointer
	if err := check(vk.MapMemory(device.LogicalDevice, b.Memory, 0, vk.DeviceSize(len(dst)), 0, &mapped), "vkMapMemory"); err != nil {
		return err
	}
	copy(dst, unsafe.Slice((*byte)(mapped), len(dst)))
	vk.UnmapMemory(device.LogicalDevice, b.Memory)
	return nil
}

func (b *rawBuffer) destroy(device *Device) {
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device.LogicalDevice, b.Handle, device.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device.LogicalDevice, b.Memory, device.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}

type Buffer struct {
	backend *Backend
	info    metadata.BufferCreateInfo
	buffer  *rawBuffer
}

func newBuffer(b *Backend, info *metadata.BufferCreateInfo, data []byte) (*Buffer, error) {
	raw, err := newRawBuffer(b.device, info.Size, bufferUsage(info.Usage), memoryProperties(info.Memory))
	if err != nil {
		return nil, err
	}
	buf := &Buffer{backend: b, info: *info, buffer: raw}
	if len(data) > 0 {
		if err := buf.Upload(data, 0); err != nil {
			raw.destroy(b.device)
			return nil, err
		}
	}
	return buf, nil
}

func (buf *Buffer) Name() string                    { return buf.info.Name }
func (buf *Buffer) Info() metadata.BufferCreateInfo { return buf.info }
func (buf *Buffer) Size() uint64                    { return buf.info.Size }

func (buf *Buffer) Upload(data []byte, offset uint64) error {
	if offset+uint64(len(data)) > buf.info.Size {
		return fmt.Errorf("%w: buffer '%s': %d bytes at offset %d exceed size %d",
			metadata.ErrInvalidDescriptor, buf.info.Name, len(data), offset, buf.info.Size)
	}
	if len(data) == 0 {
		return nil
	}
	device := buf.backend.device
	if buf.info.Memory.HostVisible() {
		return buf.buffer.write(device, data, offset)
	}

	staging, err := newStagingBuffer(device, uint64(len(data)), false)
	if err != nil {
		return err
	}
	defer staging.destroy(device)
	if err := staging.write(device, data, 0); err != nil {
		return err
	}
	return runSingleUse(device, buf.backend.locks, func(cb vk.CommandBuffer) {
		region := vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: vk.DeviceSize(offset),
			Size:      vk.DeviceSize(len(data)),
		}
		vk.CmdCopyBuffer(cb, staging.Handle, buf.buffer.Handle, 1, []vk.BufferCopy{region})
	})
}

// Read copies the content of a host visible buffer.
func (buf *Buffer) Read() ([]byte, error) {
	if !buf.info.Memory.HostVisible() {
		return nil, fmt.Errorf("buffer '%s' is not host visible", buf.info.Name)
	}
	out := make([]byte, buf.info.Size)
	if err := buf.buffer.read(buf.backend.device, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (buf *Buffer) Destroy() {
	if buf.buffer != nil {
		buf.buffer.destroy(buf.backend.device)
		buf.buffer = nil
	}
}
