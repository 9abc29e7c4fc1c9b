package metadata

import "fmt"

type SwapChainCreateInfo struct {
	Width          uint32
	Height         uint32
	VSync          bool
	FramesInFlight uint32
	// Preferred surface format, backends fall back to what the surface offers.
	Format TextureFormat
}

func (ci *SwapChainCreateInfo) Validate() error {
	if ci.Width == 0 || ci.Height == 0 {
		return fmt.Errorf("%w: swapchain: dimensions must be non-zero (%dx%d)", ErrInvalidDescriptor, ci.Width, ci.Height)
	}
	if ci.FramesInFlight == 0 || ci.FramesInFlight > 4 {
		return fmt.Errorf("%w: swapchain: frames in flight must be in [1, 4], got %d", ErrInvalidDescriptor, ci.FramesInFlight)
	}
	if ci.Format != TextureFormatUndefined && (ci.Format.IsDepth() || ci.Format.Channels() != 4) {
		return fmt.Errorf("%w: swapchain: %s is not a presentable format", ErrInvalidDescriptor, ci.Format)
	}
	return nil
}
