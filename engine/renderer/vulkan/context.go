package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
)

// frame holds the synchronization objects of one frame in flight.
type frame struct {
	commandBuffer *CommandBuffer
	inFlight      *Fence
	// Signaled by the swapchain when the acquired image can be written.
	imageAvailable vk.Semaphore
	// Signaled by the queue when the frame is done, waited on by present.
	renderComplete vk.Semaphore
	// Layout of the acquired swapchain image within this frame.
	imageLayout vk.ImageLayout
}

type Context struct {
	backend   *Backend
	frames    []*frame
	current   *frame
	submitted *frame
}

func newContext(b *Backend, framesInFlight uint32) (*Context, error) {
	c := &Context{backend: b}
	device := b.device
	for i := uint32(0); i < framesInFlight; i++ {
		f := &frame{imageLayout: vk.ImageLayoutUndefined}
		c.frames = append(c.frames, f)

		cb, err := NewCommandBuffer(device, device.GraphicsCommandPool, true)
		if err != nil {
			c.Destroy()
			return nil, err
		}
		f.commandBuffer = cb

		semaphoreCreateInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		if err := check(vk.CreateSemaphore(device.LogicalDevice, &semaphoreCreateInfo, device.Allocator, &f.imageAvailable), "vkCreateSemaphore"); err != nil {
			core.LogError(err.Error())
			c.Destroy()
			return nil, err
		}
		if err := check(vk.CreateSemaphore(device.LogicalDevice, &semaphoreCreateInfo, device.Allocator, &f.renderComplete), "vkCreateSemaphore"); err != nil {
			core.LogError(err.Error())
			c.Destroy()
			return nil, err
		}

		// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
		// This will prevent the application from waiting indefinitely for the first frame to render since it
		// cannot be rendered until a frame is "rendered" before it.
		fence, err := NewFence(device, true)
		if err != nil {
			c.Destroy()
			return nil, err
		}
		f.inFlight = fence
	}
	core.LogDebug("Vulkan context created with %d frames in flight.", framesInFlight)
	return c, nil
}

func (c *Context) Name() string       { return "vulkan-context" }
func (c *Context) DeviceName() string { return c.backend.device.Name }

// commandBuffer returns the frame command buffer while it is recording.
func (c *Context) commandBuffer() vk.CommandBuffer {
	if c.current == nil || !c.current.commandBuffer.IsRecording() {
		return nil
	}
	return c.current.commandBuffer.Handle
}

func (c *Context) BeginFrame(frameIndex uint32) error {
	device := c.backend.device
	f := c.frames[frameIndex%uint32(len(c.frames))]

	// Wait for the execution of the previous use of this slot to complete.
	if err := f.inFlight.Wait(device, fenceTimeout); err != nil {
		core.LogWarn("In-flight fence wait failure: %s", err)
		return err
	}
	// A frame abandoned while recording is reset here as well.
	if err := f.commandBuffer.Reset(); err != nil {
		return err
	}
	if err := f.commandBuffer.Begin(false, false, false); err != nil {
		return err
	}
	c.current = f
	f.imageLayout = vk.ImageLayoutUndefined

	c.backend.flushQueryResets(f.commandBuffer.Handle)
	return nil
}

func (c *Context) Clear(color math.Vec4) {
	cb := c.commandBuffer()
	sc := c.backend.swapchain
	if cb == nil || sc == nil || !sc.acquired || !sc.transferDst {
		return
	}
	image := sc.images[sc.imageIndex]
	transitionLayout(cb, image, colorRange(), c.current.imageLayout, vk.ImageLayoutTransferDstOptimal)
	c.current.imageLayout = vk.ImageLayoutTransferDstOptimal

	clearColor := vk.ClearColorValue{}
	floats := (*[4]float32)(unsafe.Pointer(&clearColor))
	floats[0] = color.X
	floats[1] = color.Y
	floats[2] = color.Z
	floats[3] = color.W
	vk.CmdClearColorImage(cb, image, vk.ImageLayoutTransferDstOptimal, &clearColor, 1, []vk.ImageSubresourceRange{colorRange()})
}

func (c *Context) EndFrame() error {
	f := c.current
	if f == nil || !f.commandBuffer.IsRecording() {
		return fmt.Errorf("vulkan context: %w", renderer.ErrNoFrameInProgress)
	}
	device := c.backend.device
	sc := c.backend.swapchain
	presenting := sc != nil && sc.acquired

	if presenting {
		transitionLayout(f.commandBuffer.Handle, sc.images[sc.imageIndex], colorRange(), f.imageLayout, vk.ImageLayoutPresentSrc)
		f.imageLayout = vk.ImageLayoutPresentSrc
	}
	if err := f.commandBuffer.End(); err != nil {
		return err
	}

	if presenting {
		// Make sure the previous frame is not using this image (i.e. its fence is being waited on)
		if inFlight := sc.imagesInFlight[sc.imageIndex]; inFlight != nil && inFlight != f.inFlight {
			if err := inFlight.Wait(device, fenceTimeout); err != nil {
				core.LogWarn("Image in-flight fence wait failure: %s", err)
				return err
			}
		}
		// Mark the image fence as in-use by this frame.
		sc.imagesInFlight[sc.imageIndex] = f.inFlight
	}

	// Reset the fence for use on the next frame
	if err := f.inFlight.Reset(device); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{f.commandBuffer.Handle},
	}
	if presenting {
		// The image must be available before it is cleared or transitioned.
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{f.imageAvailable}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageTransferBit | vk.PipelineStageColorAttachmentOutputBit),
		}
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{f.renderComplete}
	}

	err := c.backend.locks.SafeCall(QueueManagement, func() error {
		return check(vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, f.inFlight.Handle), "vkQueueSubmit")
	})
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	f.commandBuffer.UpdateSubmitted()
	c.submitted = f
	c.current = nil
	return nil
}

func (c *Context) CopyBuffer(src, dst renderer.GPUBuffer, srcOffset, dstOffset, size uint64) error {
	s, ok1 := src.(*Buffer)
	d, ok2 := dst.(*Buffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("vulkan context: buffers belong to another backend")
	}
	if srcOffset+size > s.Size() || dstOffset+size > d.Size() {
		return fmt.Errorf("vulkan context: copy of %d bytes out of range", size)
	}
	record := func(cb vk.CommandBuffer) {
		region := vk.BufferCopy{
			SrcOffset: vk.DeviceSize(srcOffset),
			DstOffset: vk.DeviceSize(dstOffset),
			Size:      vk.DeviceSize(size),
		}
		vk.CmdCopyBuffer(cb, s.buffer.Handle, d.buffer.Handle, 1, []vk.BufferCopy{region})
		barrier := vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccessMask: vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessTransferWriteBit),
		}
		vk.CmdPipelineBarrier(cb,
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
			0, 1, []vk.MemoryBarrier{barrier}, 0, nil, 0, nil)
	}

	if cb := c.commandBuffer(); cb != nil {
		record(cb)
		return nil
	}
	return runSingleUse(c.backend.device, c.backend.locks, record)
}

func (c *Context) WaitIdle() error {
	return c.backend.WaitIdle()
}

func (c *Context) Destroy() {
	device := c.backend.device
	device.WaitIdle()

	for _, f := range c.frames {
		if f.imageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(device.LogicalDevice, f.imageAvailable, device.Allocator)
			f.imageAvailable = vk.NullSemaphore
		}
		if f.renderComplete != vk.NullSemaphore {
			vk.DestroySemaphore(device.LogicalDevice, f.renderComplete, device.Allocator)
			f.renderComplete = vk.NullSemaphore
		}
		if f.inFlight != nil {
			f.inFlight.Destroy(device)
		}
		if f.commandBuffer != nil {
			f.commandBuffer.Free(device, device.GraphicsCommandPool)
		}
	}
	c.frames = nil
	c.current = nil
	c.submitted = nil

	if sc := c.backend.swapchain; sc != nil {
		// The fences referenced there are gone.
		for i := range sc.imagesInFlight {
			sc.imagesInFlight[i] = nil
		}
	}
	if c.backend.context == c {
		c.backend.context = nil
	}
}
