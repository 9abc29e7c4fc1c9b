package headless

import (
	"fmt"

	"github.com/Algor1tm/Athena-sub002/engine/math"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type Context struct {
	backend    *Backend
	recording  bool
	frameIndex uint32
	submitted  uint64
}

func (c *Context) Name() string       { return "headless-context" }
func (c *Context) DeviceName() string { return "Athena software device" }

// Submitted counts the frames submitted so far.
func (c *Context) Submitted() uint64 { return c.submitted }

// Recording reports whether a frame is being recorded.
func (c *Context) Recording() bool { return c.recording }

func (c *Context) BeginFrame(frameIndex uint32) error {
	// A frame that was begun but never ended is discarded.
	c.recording = true
	c.frameIndex = frameIndex
	return nil
}

func (c *Context) EndFrame() error {
	if !c.recording {
		return fmt.Errorf("headless context: %w", renderer.ErrNoFrameInProgress)
	}
	c.recording = false
	c.submitted++
	return nil
}

// Clear fills the current swapchain image, accounted as one full screen
// triangle.
func (c *Context) Clear(color math.Vec4) {
	sc := c.backend.swapchain
	if !c.recording || sc == nil || !sc.acquired {
		return
	}
	px := [4]uint8{
		uint8(math.Clamp(color.X, 0, 1) * 255),
		uint8(math.Clamp(color.Y, 0, 1) * 255),
		uint8(math.Clamp(color.Z, 0, 1) * 255),
		uint8(math.Clamp(color.W, 0, 1) * 255),
	}
	image := sc.images[sc.imageIndex].Data()
	for i := 0; i+4 <= len(image); i += 4 {
		copy(image[i:i+4], px[:])
	}

	fragments := uint64(sc.width) * uint64(sc.height)
	c.backend.stats = c.backend.stats.Add(metadata.PipelineStatistics{
		InputAssemblyVertices:     3,
		InputAssemblyPrimitives:   1,
		VertexShaderInvocations:   3,
		ClippingInvocations:       1,
		ClippingPrimitives:        1,
		FragmentShaderInvocations: fragments,
	})
}

func (c *Context) CopyBuffer(src, dst renderer.GPUBuffer, srcOffset, dstOffset, size uint64) error {
	s, ok1 := src.(*Buffer)
	d, ok2 := dst.(*Buffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("headless context: buffers belong to another backend")
	}
	if srcOffset+size > s.Size() || dstOffset+size > d.Size() {
		return fmt.Errorf("headless context: copy of %d bytes out of range", size)
	}
	d.data.Write(s.data.Data()[srcOffset:srcOffset+size], dstOffset)
	return nil
}

func (c *Context) WaitIdle() error { return nil }

func (c *Context) Destroy() {
	c.recording = false
	if c.backend.context == c {
		c.backend.context = nil
	}
}
