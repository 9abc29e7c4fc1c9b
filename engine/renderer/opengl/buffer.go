package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type Buffer struct {
	info   metadata.BufferCreateInfo
	handle uint32
}

func newBuffer(info *metadata.BufferCreateInfo, data []byte) (*Buffer, error) {
	buf := &Buffer{info: *info}
	gl.CreateBuffers(1, &buf.handle)

	var initial unsafe.Pointer
	if uint64(len(data)) == info.Size {
		initial = unsafe.Pointer(&data[0])
	}
	gl.NamedBufferStorage(buf.handle, int(info.Size), initial, storageFlags(info.Memory))
	if err := checkError("glNamedBufferStorage"); err != nil {
		core.LogError("failed to allocate buffer '%s': %s", info.Name, err)
		buf.Destroy()
		return nil, err
	}
	if initial == nil && len(data) > 0 {
		if err := buf.Upload(data, 0); err != nil {
			buf.Destroy()
			return nil, err
		}
	}
	return buf, nil
}

func (buf *Buffer) Name() string                    { return buf.info.Name }
func (buf *Buffer) Info() metadata.BufferCreateInfo { return buf.info }
func (buf *Buffer) Size() uint64                    { return buf.info.Size }
func (buf *Buffer) Handle() uint32                  { return buf.handle }

func (buf *Buffer) Upload(data []byte, offset uint64) error {
	if offset+uint64(len(data)) > buf.info.Size {
		return fmt.Errorf("%w: buffer '%s': %d bytes at offset %d exceed size %d",
			metadata.ErrInvalidDescriptor, buf.info.Name, len(data), offset, buf.info.Size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.NamedBufferSubData(buf.handle, int(offset), len(data), unsafe.Pointer(&data[0]))
	return checkError("glNamedBufferSubData")
}

// Read copies the content of a host visible buffer.
func (buf *Buffer) Read() ([]byte, error) {
	if !buf.info.Memory.HostVisible() {
		return nil, fmt.Errorf("buffer '%s' is not host visible", buf.info.Name)
	}
	out := make([]byte, buf.info.Size)
	gl.GetNamedBufferSubData(buf.handle, 0, len(out), unsafe.Pointer(&out[0]))
	if err := checkError("glGetNamedBufferSubData"); err != nil {
		return nil, err
	}
	return out, nil
}

func (buf *Buffer) Destroy() {
	if buf.handle != 0 {
		gl.DeleteBuffers(1, &buf.handle)
		buf.handle = 0
	}
}
