package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
)

// Context issues GL commands directly; frames in flight are bounded with
// one fence sync per slot.
type Context struct {
	backend   *Backend
	fences    []uintptr
	slot      uint32
	recording bool
}

func newContext(b *Backend, framesInFlight uint32) *Context {
	return &Context{
		backend: b,
		fences:  make([]uintptr, framesInFlight),
	}
}

func (c *Context) Name() string       { return "opengl-context" }
func (c *Context) DeviceName() string { return c.backend.deviceName }

// waitFence blocks until the commands fenced in slot are done, then
// releases the fence.
func (c *Context) waitFence(slot uint32, timeout uint64) error {
	fence := c.fences[slot]
	if fence == 0 {
		return nil
	}
	result := gl.ClientWaitSync(fence, gl.SYNC_FLUSH_COMMANDS_BIT, timeout)
	switch result {
	case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
		gl.DeleteSync(fence)
		c.fences[slot] = 0
		return nil
	case gl.TIMEOUT_EXPIRED:
		return fmt.Errorf("%w: frame fence timed out", ErrOpenGL)
	default:
		return fmt.Errorf("%w: glClientWaitSync failed", ErrOpenGL)
	}
}

func (c *Context) BeginFrame(frameIndex uint32) error {
	slot := frameIndex % uint32(len(c.fences))
	if err := c.waitFence(slot, fenceTimeout); err != nil {
		core.LogWarn("In-flight fence wait failure: %s", err)
		return err
	}
	c.slot = slot
	c.recording = true
	return nil
}

func (c *Context) Clear(color math.Vec4) {
	sc := c.backend.swapchain
	if !c.recording || sc == nil || !sc.acquired {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ClearColor(color.X, color.Y, color.Z, color.W)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
}

func (c *Context) EndFrame() error {
	if !c.recording {
		return fmt.Errorf("opengl context: %w", renderer.ErrNoFrameInProgress)
	}
	c.recording = false
	c.fences[c.slot] = gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	gl.Flush()
	return checkError("glFenceSync")
}

func (c *Context) CopyBuffer(src, dst renderer.GPUBuffer, srcOffset, dstOffset, size uint64) error {
	s, ok1 := src.(*Buffer)
	d, ok2 := dst.(*Buffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("opengl context: buffers belong to another backend")
	}
	if srcOffset+size > s.Size() || dstOffset+size > d.Size() {
		return fmt.Errorf("opengl context: copy of %d bytes out of range", size)
	}
	gl.CopyNamedBufferSubData(s.handle, d.handle, int(srcOffset), int(dstOffset), int(size))
	return checkError("glCopyNamedBufferSubData")
}

func (c *Context) WaitIdle() error {
	return c.backend.WaitIdle()
}

func (c *Context) Destroy() {
	gl.Finish()
	for i, fence := range c.fences {
		if fence != 0 {
			gl.DeleteSync(fence)
			c.fences[i] = 0
		}
	}
	c.recording = false
	if c.backend.context == c {
		c.backend.context = nil
	}
}
