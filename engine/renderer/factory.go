package renderer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// ResourceFactory validates descriptors, creates resources on the active
// backend and wraps them in handles tied to the retire list. Failures are
// logged and returned with a nil handle.
type ResourceFactory struct {
	backend Backend
	retire  *RetireList

	mu  sync.Mutex
	ids *core.IDPool
}

func NewResourceFactory(backend Backend, retire *RetireList) *ResourceFactory {
	return &ResourceFactory{
		backend: backend,
		retire:  retire,
		ids:     core.NewIDPool(256),
	}
}

func (f *ResourceFactory) Backend() Backend {
	return f.backend
}

// tracked returns the id of a resource to the pool once it is destroyed.
type tracked struct {
	Resource
	id      uint32
	factory *ResourceFactory
}

func (t tracked) Destroy() {
	t.Resource.Destroy()
	t.factory.mu.Lock()
	if err := t.factory.ids.Release(t.id); err != nil {
		core.LogWarn("resource '%s': %s", t.Name(), err)
	}
	t.factory.mu.Unlock()
}

func (f *ResourceFactory) acquireID(r Resource) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids.Acquire(r)
}

func (f *ResourceFactory) retireResource(id uint32, r Resource) {
	f.retire.Retire(tracked{Resource: r, id: id, factory: f})
}

func wrap[T Resource](f *ResourceFactory, r T) *Handle[T] {
	return newHandle(f.acquireID(r), r, f.retireResource)
}

// LiveResources counts resources that have not been destroyed yet,
// including retired ones still waiting for the GPU.
func (f *ResourceFactory) LiveResources() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids.InUse()
}

func defaultName(kind string) string {
	return kind + "-" + uuid.NewString()
}

func (f *ResourceFactory) CreateTexture(info metadata.TextureCreateInfo, pixels []byte) (*Handle[Texture2D], error) {
	if info.Name == "" {
		info.Name = defaultName("texture")
	}
	if err := info.Validate(); err != nil {
		core.LogError("failed to create texture '%s' (%dx%d %s): %s", info.Name, info.Width, info.Height, info.Format, err)
		return nil, err
	}
	if pixels != nil && uint64(len(pixels)) != info.ByteSize() {
		err := fmt.Errorf("%w: texture '%s' expects %d bytes, got %d", ErrPixelDataSize, info.Name, info.ByteSize(), len(pixels))
		core.LogError(err.Error())
		return nil, err
	}
	tex, err := f.backend.CreateTexture(&info, pixels)
	if err != nil {
		core.LogError("backend %s failed to create texture '%s' (%dx%d %s): %s", f.backend.Type(), info.Name, info.Width, info.Height, info.Format, err)
		return nil, err
	}
	core.LogDebug("texture '%s' created (%dx%d %s, %d mips)", info.Name, info.Width, info.Height, info.Format, info.MipLevels)
	return wrap(f, tex), nil
}

func (f *ResourceFactory) CreateBuffer(info metadata.BufferCreateInfo, data []byte) (*Handle[GPUBuffer], error) {
	if info.Name == "" {
		info.Name = defaultName("buffer")
	}
	if err := info.Validate(); err != nil {
		core.LogError("failed to create buffer '%s' (%d bytes): %s", info.Name, info.Size, err)
		return nil, err
	}
	if uint64(len(data)) > info.Size {
		err := fmt.Errorf("%w: buffer '%s': %d bytes of initial data for %d bytes", metadata.ErrInvalidDescriptor, info.Name, len(data), info.Size)
		core.LogError(err.Error())
		return nil, err
	}
	buf, err := f.backend.CreateBuffer(&info, data)
	if err != nil {
		core.LogError("backend %s failed to create buffer '%s' (%d bytes): %s", f.backend.Type(), info.Name, info.Size, err)
		return nil, err
	}
	return wrap(f, buf), nil
}

func (f *ResourceFactory) CreateSampler(info metadata.SamplerCreateInfo) (*Handle[Sampler], error) {
	if err := info.Validate(); err != nil {
		core.LogError("failed to create sampler: %s", err)
		return nil, err
	}
	s, err := f.backend.CreateSampler(&info)
	if err != nil {
		core.LogError("backend %s failed to create sampler: %s", f.backend.Type(), err)
		return nil, err
	}
	return wrap(f, s), nil
}

func (f *ResourceFactory) CreateSwapChain(info metadata.SwapChainCreateInfo) (*Handle[SwapChain], error) {
	if err := info.Validate(); err != nil {
		core.LogError("failed to create swapchain (%dx%d): %s", info.Width, info.Height, err)
		return nil, err
	}
	sc, err := f.backend.CreateSwapChain(&info)
	if err != nil {
		core.LogError("backend %s failed to create swapchain (%dx%d): %s", f.backend.Type(), info.Width, info.Height, err)
		return nil, err
	}
	return wrap(f, sc), nil
}

func (f *ResourceFactory) CreateContext() (*Handle[GraphicsContext], error) {
	ctx, err := f.backend.CreateContext()
	if err != nil {
		core.LogError("backend %s failed to create graphics context: %s", f.backend.Type(), err)
		return nil, err
	}
	core.LogInfo("graphics context created on '%s'", ctx.DeviceName())
	return wrap(f, ctx), nil
}

// ReadTexture copies the base level of the texture back to the CPU. A
// readback with no data is an error.
func (f *ResourceFactory) ReadTexture(tex *Handle[Texture2D]) ([]byte, error) {
	if tex == nil {
		return nil, fmt.Errorf("%w: nil texture handle", metadata.ErrInvalidDescriptor)
	}
	pixels, err := f.backend.ReadTexture(tex.Get())
	if err != nil {
		core.LogError("failed to read back texture '%s': %s", tex.Get().Name(), err)
		return nil, err
	}
	if len(pixels) == 0 {
		err := fmt.Errorf("%w: '%s' (%dx%d)", ErrEmptyReadback, tex.Get().Name(), tex.Get().Width(), tex.Get().Height())
		core.LogError(err.Error())
		return nil, err
	}
	return pixels, nil
}
