package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

type Fence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(device *Device, createSignaled bool) (*Fence, error) {
	fence := &Fence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := check(vk.CreateFence(device.LogicalDevice, &fenceCreateInfo, device.Allocator, &handle), "vkCreateFence"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (f *Fence) Destroy(device *Device) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(device.LogicalDevice, f.Handle, device.Allocator)
		f.Handle = vk.NullFence
	}
	f.IsSignaled = false
}

// Wait blocks until the fence signals or timeoutNs elapses.
func (f *Fence) Wait(device *Device, timeoutNs uint64) error {
	if f.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(device.LogicalDevice, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		f.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("fence wait timed out after %dms", timeoutNs/1000000)
		return fmt.Errorf("%w: fence wait timed out", ErrVulkan)
	default:
		err := check(result, "vkWaitForFences")
		core.LogError(err.Error())
		return err
	}
}

func (f *Fence) Reset(device *Device) error {
	if !f.IsSignaled {
		return nil
	}
	if err := check(vk.ResetFences(device.LogicalDevice, 1, []vk.Fence{f.Handle}), "vkResetFences"); err != nil {
		core.LogError(err.Error())
		return err
	}
	f.IsSignaled = false
	return nil
}
