package renderer

import "unsafe"

// Surface is the window side of a backend: whatever it presents into. The
// platform window implements it together with the API specific interfaces
// below.
type Surface interface {
	FramebufferSize() (width, height uint32)
}

// VulkanSurface can host a Vulkan swapchain.
type VulkanSurface interface {
	Surface
	RequiredInstanceExtensions() []string
	// GetInstanceProcAddress returns the loader entry point.
	GetInstanceProcAddress() unsafe.Pointer
	// CreateWindowSurface creates a VkSurfaceKHR for instance (a VkInstance).
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

// GLSurface owns an OpenGL context.
type GLSurface interface {
	Surface
	MakeContextCurrent()
	SwapBuffers()
	SetSwapInterval(interval int)
}
