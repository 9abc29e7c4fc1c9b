package headless

import (
	"fmt"

	"github.com/Algor1tm/Athena-sub002/engine/containers"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type Texture struct {
	info      metadata.TextureCreateInfo
	pixels    containers.Buffer
	destroyed bool
}

func newTexture(info *metadata.TextureCreateInfo, pixels []byte) *Texture {
	t := &Texture{info: *info}
	if pixels != nil {
		t.pixels.CopyBytes(pixels)
	} else {
		t.pixels.Allocate(info.ByteSize())
	}
	return t
}

func (t *Texture) Name() string                     { return t.info.Name }
func (t *Texture) Info() metadata.TextureCreateInfo { return t.info }
func (t *Texture) Width() uint32                    { return t.info.Width }
func (t *Texture) Height() uint32                   { return t.info.Height }
func (t *Texture) Format() metadata.TextureFormat   { return t.info.Format }

// Destroyed reports whether the retire list already destroyed the texture.
func (t *Texture) Destroyed() bool { return t.destroyed }

func (t *Texture) Upload(pixels []byte) error {
	if uint64(len(pixels)) != t.info.ByteSize() {
		return fmt.Errorf("texture '%s': %d bytes uploaded, %d expected", t.info.Name, len(pixels), t.info.ByteSize())
	}
	t.pixels.Write(pixels, 0)
	return nil
}

func (t *Texture) Destroy() {
	t.pixels.Release()
	t.destroyed = true
}

type Buffer struct {
	info      metadata.BufferCreateInfo
	data      containers.Buffer
	destroyed bool
}

func newBuffer(info *metadata.BufferCreateInfo, data []byte) *Buffer {
	b := &Buffer{info: *info}
	b.data.Allocate(info.Size)
	if len(data) > 0 {
		b.data.Write(data, 0)
	}
	return b
}

func (b *Buffer) Name() string                    { return b.info.Name }
func (b *Buffer) Info() metadata.BufferCreateInfo { return b.info }
func (b *Buffer) Size() uint64                    { return b.info.Size }
func (b *Buffer) Destroyed() bool                 { return b.destroyed }

// Bytes exposes the buffer memory for inspection.
func (b *Buffer) Bytes() []byte { return b.data.Data() }

func (b *Buffer) Upload(data []byte, offset uint64) error {
	if offset+uint64(len(data)) > b.info.Size {
		return fmt.Errorf("buffer '%s': upload of %d bytes at %d exceeds %d bytes", b.info.Name, len(data), offset, b.info.Size)
	}
	b.data.Write(data, offset)
	return nil
}

func (b *Buffer) Destroy() {
	b.data.Release()
	b.destroyed = true
}

type Sampler struct {
	info      metadata.SamplerCreateInfo
	destroyed bool
}

func (s *Sampler) Name() string                     { return "sampler" }
func (s *Sampler) Info() metadata.SamplerCreateInfo { return s.info }
func (s *Sampler) Destroy()                         { s.destroyed = true }
