package containers

import (
	"fmt"
	"unsafe"
)

// noCopy lets `go vet -copylocks` flag accidental copies of owning types.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Buffer owns a raw byte region. A zero size always means no allocation is
// held. Buffers are handed around by pointer: copying the struct would make
// two owners of the same bytes, use Copy to duplicate.
type Buffer struct {
	noCopy noCopy
	data   []byte
}

func NewBuffer(size uint64) *Buffer {
	b := &Buffer{}
	b.Allocate(size)
	return b
}

// Allocate drops the current allocation and reserves size zeroed bytes.
func (b *Buffer) Allocate(size uint64) {
	b.Release()
	if size == 0 {
		return
	}
	b.data = make([]byte, size)
}

// Release frees the allocation. Calling it on an empty buffer is a no-op.
func (b *Buffer) Release() {
	b.data = nil
}

// Copy duplicates src into a fresh allocation.
func (b *Buffer) Copy(src *Buffer) {
	b.CopyBytes(src.data)
}

// CopyBytes duplicates p into a fresh allocation.
func (b *Buffer) CopyBytes(p []byte) {
	b.Allocate(uint64(len(p)))
	copy(b.data, p)
}

// Move adopts p without copying. The buffer becomes the sole owner: the
// caller must not keep writing through p.
func (b *Buffer) Move(p []byte) {
	b.Release()
	if len(p) == 0 {
		return
	}
	b.data = p[:len(p):len(p)]
}

// Write copies data at offset. The buffer never grows: writing past the
// end is a programming error and panics.
func (b *Buffer) Write(data []byte, offset uint64) {
	end := offset + uint64(len(data))
	if end > uint64(len(b.data)) || end < offset {
		panic(fmt.Sprintf("containers: buffer write out of range (offset %d + size %d > capacity %d)", offset, len(data), len(b.data)))
	}
	copy(b.data[offset:end], data)
}

// Data exposes the owned bytes. The slice stays owned by the buffer.
func (b *Buffer) Data() []byte {
	return b.data
}

func (b *Buffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *Buffer) IsEmpty() bool {
	return len(b.data) == 0
}

// Equal compares identity (backing memory and size), not content.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.Size() != other.Size() {
		return false
	}
	if b.IsEmpty() {
		return true
	}
	return unsafe.SliceData(b.data) == unsafe.SliceData(other.data)
}
