package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// Texture is an immutable storage texture. Sampling state lives on a
// sampler object created alongside when the texture is sampled.
type Texture struct {
	info    metadata.TextureCreateInfo
	format  glFormat
	target  uint32
	handle  uint32
	sampler *Sampler
}

func textureTarget(info *metadata.TextureCreateInfo) uint32 {
	switch {
	case info.Type == metadata.TextureTypeCube:
		return gl.TEXTURE_CUBE_MAP
	case info.Layers > 1:
		return gl.TEXTURE_2D_ARRAY
	default:
		return gl.TEXTURE_2D
	}
}

func newTexture(info *metadata.TextureCreateInfo, pixels []byte) (*Texture, error) {
	format, err := lookupFormat(info.Format)
	if err != nil {
		return nil, err
	}
	t := &Texture{
		info:   *info,
		format: format,
		target: textureTarget(info),
	}

	gl.CreateTextures(t.target, 1, &t.handle)
	if t.target == gl.TEXTURE_2D_ARRAY {
		gl.TextureStorage3D(t.handle, int32(info.MipLevels), format.internal, int32(info.Width), int32(info.Height), int32(info.Layers))
	} else {
		// Cube maps allocate their six faces from the 2D call.
		gl.TextureStorage2D(t.handle, int32(info.MipLevels), format.internal, int32(info.Width), int32(info.Height))
	}
	gl.TextureParameteri(t.handle, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TextureParameteri(t.handle, gl.TEXTURE_MAX_LEVEL, int32(info.MipLevels-1))
	if err := checkError("glTextureStorage"); err != nil {
		core.LogError("failed to allocate texture '%s': %s", info.Name, err)
		t.Destroy()
		return nil, err
	}

	if info.Usage.Has(metadata.TextureUsageSampled) {
		sampler, err := newSampler(&info.Sampler, info.MipLevels > 1)
		if err != nil {
			t.Destroy()
			return nil, err
		}
		t.sampler = sampler
	}

	if len(pixels) > 0 {
		if err := t.Upload(pixels); err != nil {
			t.Destroy()
			return nil, err
		}
	}
	return t, nil
}

func (t *Texture) Name() string                     { return t.info.Name }
func (t *Texture) Info() metadata.TextureCreateInfo { return t.info }
func (t *Texture) Width() uint32                    { return t.info.Width }
func (t *Texture) Height() uint32                   { return t.info.Height }
func (t *Texture) Format() metadata.TextureFormat   { return t.info.Format }
func (t *Texture) Handle() uint32                   { return t.handle }

// Bind makes the texture and its sampler visible to shaders at unit.
func (t *Texture) Bind(unit uint32) {
	gl.BindTextureUnit(unit, t.handle)
	if t.sampler != nil {
		gl.BindSampler(unit, t.sampler.handle)
	}
}

func (t *Texture) Upload(pixels []byte) error {
	if uint64(len(pixels)) != t.info.ByteSize() {
		return fmt.Errorf("%w: texture '%s' expects %d bytes, got %d", renderer.ErrPixelDataSize, t.info.Name, t.info.ByteSize(), len(pixels))
	}
	width, height := int32(t.info.Width), int32(t.info.Height)
	if t.target == gl.TEXTURE_2D {
		gl.TextureSubImage2D(t.handle, 0, 0, 0, width, height, t.format.format, t.format.xtype, unsafe.Pointer(&pixels[0]))
	} else {
		// Layers and cube faces are addressed as the z offset.
		gl.TextureSubImage3D(t.handle, 0, 0, 0, 0, width, height, int32(t.info.Layers), t.format.format, t.format.xtype, unsafe.Pointer(&pixels[0]))
	}
	if t.info.GenerateMipMaps && t.info.MipLevels > 1 {
		gl.GenerateTextureMipmap(t.handle)
	}
	if err := checkError("glTextureSubImage"); err != nil {
		core.LogError("failed to upload texture '%s': %s", t.info.Name, err)
		return err
	}
	return nil
}

// read copies the base level of every layer back to CPU memory.
func (t *Texture) read() ([]byte, error) {
	size := t.info.ByteSize()
	out := make([]byte, size)
	gl.GetTextureImage(t.handle, 0, t.format.format, t.format.xtype, int32(size), unsafe.Pointer(&out[0]))
	if err := checkError("glGetTextureImage"); err != nil {
		core.LogError("failed to read texture '%s': %s", t.info.Name, err)
		return nil, err
	}
	return out, nil
}

func (t *Texture) Destroy() {
	if t.sampler != nil {
		t.sampler.Destroy()
		t.sampler = nil
	}
	if t.handle != 0 {
		gl.DeleteTextures(1, &t.handle)
		t.handle = 0
	}
}

type Sampler struct {
	info   metadata.SamplerCreateInfo
	handle uint32
}

func newSampler(info *metadata.SamplerCreateInfo, mipmapped bool) (*Sampler, error) {
	s := &Sampler{info: *info}
	gl.CreateSamplers(1, &s.handle)
	gl.SamplerParameteri(s.handle, gl.TEXTURE_MIN_FILTER, minFilter(info.MinFilter, info.MipFilter, mipmapped))
	gl.SamplerParameteri(s.handle, gl.TEXTURE_MAG_FILTER, magFilter(info.MagFilter))
	gl.SamplerParameteri(s.handle, gl.TEXTURE_WRAP_S, wrapMode(info.WrapU))
	gl.SamplerParameteri(s.handle, gl.TEXTURE_WRAP_T, wrapMode(info.WrapV))
	gl.SamplerParameteri(s.handle, gl.TEXTURE_WRAP_R, wrapMode(info.WrapW))
	gl.SamplerParameterf(s.handle, gl.TEXTURE_MIN_LOD, info.MinLod)
	if info.MaxLod > 0 {
		gl.SamplerParameterf(s.handle, gl.TEXTURE_MAX_LOD, info.MaxLod)
	}
	if info.MaxAnisotropy > 1 {
		var limit float32
		gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &limit)
		gl.SamplerParameterf(s.handle, gl.TEXTURE_MAX_ANISOTROPY, min(info.MaxAnisotropy, limit))
	}
	if err := checkError("glSamplerParameter"); err != nil {
		core.LogError("failed to create sampler: %s", err)
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Sampler) Name() string                     { return "sampler" }
func (s *Sampler) Info() metadata.SamplerCreateInfo { return s.info }
func (s *Sampler) Handle() uint32                   { return s.handle }

func (s *Sampler) Destroy() {
	if s.handle != 0 {
		gl.DeleteSamplers(1, &s.handle)
		s.handle = 0
	}
}
