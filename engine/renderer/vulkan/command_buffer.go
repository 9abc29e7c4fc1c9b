package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type CommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State CommandBufferState
}

func NewCommandBuffer(device *Device, pool vk.CommandPool, isPrimary bool) (*CommandBuffer, error) {
	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := check(vk.AllocateCommandBuffers(device.LogicalDevice, &allocateInfo, handles), "vkAllocateCommandBuffers"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return &CommandBuffer{
		Handle: handles[0],
		State:  COMMAND_BUFFER_STATE_READY,
	}, nil
}

func (cb *CommandBuffer) Free(device *Device, pool vk.CommandPool) {
	if cb.Handle != nil {
		vk.FreeCommandBuffers(device.LogicalDevice, pool, 1, []vk.CommandBuffer{cb.Handle})
	}
	cb.Handle = nil
	cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (cb *CommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := check(vk.BeginCommandBuffer(cb.Handle, &beginInfo), "vkBeginCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (cb *CommandBuffer) End() error {
	if err := check(vk.EndCommandBuffer(cb.Handle), "vkEndCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (cb *CommandBuffer) UpdateSubmitted() {
	cb.State = COMMAND_BUFFER_STATE_SUBMITTED
}

// Reset returns the buffer to the ready state. A buffer abandoned while
// recording (a skipped frame) is reset the same way.
func (cb *CommandBuffer) Reset() error {
	if cb.State == COMMAND_BUFFER_STATE_READY {
		return nil
	}
	if err := check(vk.ResetCommandBuffer(cb.Handle, 0), "vkResetCommandBuffer"); err != nil {
		core.LogError(err.Error())
		return err
	}
	cb.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (cb *CommandBuffer) IsRecording() bool {
	return cb.State == COMMAND_BUFFER_STATE_RECORDING
}

// runSingleUse records fn into a one-off command buffer from the transfer
// pool, submits it to the graphics queue and waits for completion. It is
// safe to call from any goroutine.
func runSingleUse(device *Device, locks *LockPool, fn func(cb vk.CommandBuffer)) error {
	return locks.SafeCall(TransferManagement, func() error {
		cb, err := NewCommandBuffer(device, device.TransferCommandPool, true)
		if err != nil {
			return err
		}
		defer cb.Free(device, device.TransferCommandPool)

		if err := cb.Begin(true, false, false); err != nil {
			return err
		}
		fn(cb.Handle)
		if err := cb.End(); err != nil {
			return err
		}

		fence, err := NewFence(device, false)
		if err != nil {
			return err
		}
		defer fence.Destroy(device)

		submitInfo := vk.SubmitInfo{
			SType:              vk.StructureTypeSubmitInfo,
			CommandBufferCount: 1,
			PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
		}
		err = locks.SafeCall(QueueManagement, func() error {
			return check(vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle), "vkQueueSubmit")
		})
		if err != nil {
			core.LogError(err.Error())
			return err
		}
		cb.UpdateSubmitted()
		return fence.Wait(device, ^uint64(0))
	})
}
