package metadata

import "fmt"

type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

func (u BufferUsage) Has(flag BufferUsage) bool {
	return u&flag == flag
}

// MemoryType tells where a buffer lives and who may map it.
type MemoryType int

const (
	MemoryTypeGPUOnly MemoryType = iota
	MemoryTypeCPUToGPU
	MemoryTypeGPUToCPU
)

func (m MemoryType) HostVisible() bool {
	return m == MemoryTypeCPUToGPU || m == MemoryTypeGPUToCPU
}

type BufferCreateInfo struct {
	Name   string
	Size   uint64
	Usage  BufferUsage
	Memory MemoryType
}

func (ci *BufferCreateInfo) Validate() error {
	if ci.Size == 0 {
		return fmt.Errorf("%w: buffer '%s': size must be non-zero", ErrInvalidDescriptor, ci.Name)
	}
	if ci.Usage == 0 {
		return fmt.Errorf("%w: buffer '%s': no usage flags", ErrInvalidDescriptor, ci.Name)
	}
	if ci.Memory < MemoryTypeGPUOnly || ci.Memory > MemoryTypeGPUToCPU {
		return fmt.Errorf("%w: buffer '%s': unknown memory type %d", ErrInvalidDescriptor, ci.Name, ci.Memory)
	}
	// Readback buffers are only ever copy targets.
	if ci.Memory == MemoryTypeGPUToCPU && ci.Usage&^(BufferUsageTransferDst|BufferUsageStorage) != 0 {
		return fmt.Errorf("%w: buffer '%s': readback memory only supports transfer-dst and storage usage", ErrInvalidDescriptor, ci.Name)
	}
	return nil
}
