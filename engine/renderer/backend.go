package renderer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

type BackendType uint8

const (
	BackendHeadless BackendType = iota
	BackendOpenGL
	BackendVulkan
)

func (t BackendType) String() string {
	switch t {
	case BackendHeadless:
		return "headless"
	case BackendOpenGL:
		return "opengl"
	case BackendVulkan:
		return "vulkan"
	default:
		return fmt.Sprintf("BackendType(%d)", uint8(t))
	}
}

func ParseBackendType(s string) (BackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "headless":
		return BackendHeadless, nil
	case "opengl", "gl":
		return BackendOpenGL, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrUnsupportedBackend, s)
}

type BackendConfig struct {
	ApplicationName string
	FramesInFlight  uint32
	Width           uint32
	Height          uint32
	VSync           bool
	// Validation enables API validation layers / debug output when available.
	Validation bool
}

// Backend is one graphics API implementation. Exactly one backend is
// selected per process, at startup.
type Backend interface {
	profiler.QueryBackend

	Type() BackendType
	// Initialize connects the backend to the window surface. A nil surface
	// is only accepted by backends that can render offscreen.
	Initialize(cfg *BackendConfig, surface Surface) error
	Shutdown() error
	// WaitIdle blocks until the GPU has finished all submitted work.
	WaitIdle() error

	CreateContext() (GraphicsContext, error)
	CreateSwapChain(info *metadata.SwapChainCreateInfo) (SwapChain, error)
	CreateTexture(info *metadata.TextureCreateInfo, pixels []byte) (Texture2D, error)
	CreateBuffer(info *metadata.BufferCreateInfo, data []byte) (GPUBuffer, error)
	CreateSampler(info *metadata.SamplerCreateInfo) (Sampler, error)
	// ReadTexture copies the base level of tex back to CPU memory.
	ReadTexture(tex Texture2D) ([]byte, error)
}

// BackendFactory creates an uninitialized backend.
type BackendFactory func() Backend

var (
	registryMu sync.RWMutex
	registry   = map[BackendType]BackendFactory{}
)

// Register makes a backend available by type. Backends call it from their
// package init, so the application selects backends with blank imports.
// Registering nil or the same type twice panics.
func Register(t BackendType, factory BackendFactory) {
	if factory == nil {
		panic("renderer: Register factory is nil")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[t]; dup {
		panic("renderer: Register called twice for backend " + t.String())
	}
	registry[t] = factory
}

// NewBackend creates a registered backend.
func NewBackend(t BackendType) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (forgotten import?)", core.ErrUnsupportedBackend, t)
	}
	return factory(), nil
}

// Backends lists the registered backend types.
func Backends() []BackendType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]BackendType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
