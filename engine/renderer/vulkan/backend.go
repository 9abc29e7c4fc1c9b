// Package vulkan implements the renderer backend on top of Vulkan 1.1. The
// window provides the loader entry point and the presentation surface.
package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

var ErrSurfaceRequired = errors.New("vulkan backend requires a window surface")

func init() {
	renderer.Register(renderer.BackendVulkan, func() renderer.Backend { return New() })
}

type Backend struct {
	config      renderer.BackendConfig
	initialized bool

	surface   renderer.VulkanSurface
	instance  vk.Instance
	allocator *vk.AllocationCallbacks
	vkSurface vk.Surface
	// Only set when validation is enabled.
	debugCallback vk.DebugReportCallback

	device    *Device
	locks     *LockPool
	context   *Context
	swapchain *SwapChain

	// Query sets reset while no frame was recording. They are reset at the
	// start of the next frame.
	pendingResets []*QuerySet
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Type() renderer.BackendType {
	return renderer.BackendVulkan
}

func (b *Backend) Initialize(cfg *renderer.BackendConfig, surface renderer.Surface) error {
	if b.initialized {
		return core.ErrAlreadyInitialized
	}
	vs, ok := surface.(renderer.VulkanSurface)
	if !ok || vs == nil {
		core.LogError(ErrSurfaceRequired.Error())
		return ErrSurfaceRequired
	}
	b.surface = vs
	b.config = *cfg

	procAddr := vs.GetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("%w: GetInstanceProcAddress is nil", ErrVulkan)
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	if err := b.createInstance(); err != nil {
		return err
	}
	if b.config.Validation {
		if err := b.createDebugCallback(); err != nil {
			b.destroyInstance()
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surfacePtr, err := vs.CreateWindowSurface(b.instance)
	if err != nil || surfacePtr == 0 {
		core.LogError("Failed to create platform surface: %v", err)
		b.destroyInstance()
		return fmt.Errorf("%w: window surface: %v", ErrVulkan, err)
	}
	b.vkSurface = vk.SurfaceFromPointer(surfacePtr)
	core.LogDebug("Vulkan surface created.")

	device, err := NewDevice(b.instance, b.vkSurface, b.allocator)
	if err != nil {
		core.LogError("Failed to create device!")
		b.destroyInstance()
		return err
	}
	b.device = device
	b.locks = NewLockPool()
	b.initialized = true

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (b *Backend) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   SafeString(b.config.ApplicationName),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PEngineName:        SafeString(engineName),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// The window reports the generic surface extension along with its own.
	extensions := b.surface.RequiredInstanceExtensions()
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if b.config.Validation {
		if hasInstanceLayer(validationLayerName) {
			layers = append(layers, validationLayerName)
			extensions = append(extensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation requested but %s is not installed, continuing without it", validationLayerName)
			b.config.Validation = false
		}
	}
	for _, ext := range extensions {
		core.LogDebug("Instance extension: %s", ext)
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = SafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = SafeStrings(layers)

	var instance vk.Instance
	if err := check(vk.CreateInstance(&createInfo, b.allocator, &instance), "vkCreateInstance"); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(instance); err != nil {
		core.LogError(err.Error())
		vk.DestroyInstance(instance, b.allocator)
		return err
	}
	b.instance = instance
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if cString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (b *Backend) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if err := check(vk.CreateDebugReportCallback(b.instance, &debugCreateInfo, b.allocator, &dbg), "vkCreateDebugReportCallbackEXT"); err != nil {
		core.LogError(err.Error())
		return err
	}
	b.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (b *Backend) destroyInstance() {
	if b.vkSurface != vk.NullSurface {
		vk.DestroySurface(b.instance, b.vkSurface, b.allocator)
		b.vkSurface = vk.NullSurface
	}
	if b.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(b.instance, b.debugCallback, b.allocator)
		b.debugCallback = vk.NullDebugReportCallback
	}
	if b.instance != nil {
		vk.DestroyInstance(b.instance, b.allocator)
		b.instance = nil
	}
}

func (b *Backend) Shutdown() error {
	if !b.initialized {
		return core.ErrNotInitialized
	}
	// Destroy in the opposite order of creation.
	b.WaitIdle()
	if b.swapchain != nil {
		b.swapchain.Destroy()
	}
	if b.context != nil {
		b.context.Destroy()
	}
	b.pendingResets = nil

	core.LogDebug("Destroying Vulkan device...")
	b.device.Destroy()
	b.device = nil

	core.LogDebug("Destroying Vulkan instance...")
	b.destroyInstance()

	b.initialized = false
	return nil
}

func (b *Backend) WaitIdle() error {
	if b.device == nil {
		return nil
	}
	return b.locks.SafeCall(QueueManagement, b.device.WaitIdle)
}

func (b *Backend) checkInitialized() error {
	if !b.initialized {
		return fmt.Errorf("vulkan backend: %w", core.ErrNotInitialized)
	}
	return nil
}

func (b *Backend) CreateContext() (renderer.GraphicsContext, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	if b.context != nil {
		return nil, fmt.Errorf("vulkan backend: %w: graphics context", core.ErrAlreadyInitialized)
	}
	frames := b.config.FramesInFlight
	if frames == 0 {
		frames = 1
	}
	c, err := newContext(b, frames)
	if err != nil {
		return nil, err
	}
	b.context = c
	return c, nil
}

func (b *Backend) CreateSwapChain(info *metadata.SwapChainCreateInfo) (renderer.SwapChain, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	if b.swapchain != nil {
		return nil, fmt.Errorf("vulkan backend: %w: swapchain", core.ErrAlreadyInitialized)
	}
	sc, err := newSwapChain(b, info)
	if err != nil {
		return nil, err
	}
	b.swapchain = sc
	return sc, nil
}

func (b *Backend) CreateTexture(info *metadata.TextureCreateInfo, pixels []byte) (renderer.Texture2D, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newTexture(b, info, pixels)
}

func (b *Backend) CreateBuffer(info *metadata.BufferCreateInfo, data []byte) (renderer.GPUBuffer, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newBuffer(b, info, data)
}

func (b *Backend) CreateSampler(info *metadata.SamplerCreateInfo) (renderer.Sampler, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newSampler(b, info)
}

func (b *Backend) ReadTexture(tex renderer.Texture2D) ([]byte, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("vulkan backend: texture '%s' belongs to another backend", tex.Name())
	}
	return t.read()
}

func (b *Backend) CreateQuerySet(kind metadata.QueryKind, count uint32) (profiler.QuerySet, error) {
	if err := b.checkInitialized(); err != nil {
		return nil, err
	}
	return newQuerySet(b, kind, count)
}

func (b *Backend) currentFrame() *frame {
	if b.context == nil {
		return nil
	}
	return b.context.current
}

func (b *Backend) lastSubmitted() *frame {
	if b.context == nil {
		return nil
	}
	return b.context.submitted
}

func (b *Backend) recordingCommandBuffer() vk.CommandBuffer {
	if b.context == nil {
		return nil
	}
	return b.context.commandBuffer()
}

func (b *Backend) deferQueryReset(q *QuerySet) {
	for _, pending := range b.pendingResets {
		if pending == q {
			return
		}
	}
	b.pendingResets = append(b.pendingResets, q)
}

func (b *Backend) cancelQueryReset(q *QuerySet) {
	for i, pending := range b.pendingResets {
		if pending == q {
			b.pendingResets = append(b.pendingResets[:i], b.pendingResets[i+1:]...)
			return
		}
	}
}

func (b *Backend) flushQueryResets(cb vk.CommandBuffer) {
	for _, q := range b.pendingResets {
		q.recordReset(cb)
	}
	b.pendingResets = b.pendingResets[:0]
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
