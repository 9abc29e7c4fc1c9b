package vulkan

import (
	"errors"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func TestFormatTableRoundTrip(t *testing.T) {
	for tf, vf := range formatTable {
		if got := vulkanFormat(tf); got != vf {
			t.Errorf("vulkanFormat(%s) = %d, want %d", tf, got, vf)
		}
		if got := textureFormat(vf); got != tf {
			t.Errorf("textureFormat(%d) = %s, want %s", vf, got, tf)
		}
	}
	if got := vulkanFormat(metadata.TextureFormatUndefined); got != vk.FormatUndefined {
		t.Errorf("undefined format mapped to %d", got)
	}
}

func TestAspectMask(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	stencil := vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	color := vk.ImageAspectFlags(vk.ImageAspectColorBit)

	if got := aspectMask(metadata.TextureFormatRGBA8); got != color {
		t.Errorf("color aspect = %d", got)
	}
	if got := aspectMask(metadata.TextureFormatDepth32F); got != depth {
		t.Errorf("depth aspect = %d", got)
	}
	if got := aspectMask(metadata.TextureFormatDepth24Stencil8); got != depth|stencil {
		t.Errorf("depth stencil aspect = %d", got)
	}
}

func TestUsageAlwaysTransfers(t *testing.T) {
	transfer := vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit)
	if got := imageUsage(0); got != transfer {
		t.Errorf("imageUsage(0) = %d, want %d", got, transfer)
	}
	usage := imageUsage(metadata.TextureUsageSampled | metadata.TextureUsageColorAttachment)
	if usage&vk.ImageUsageFlags(vk.ImageUsageSampledBit) == 0 || usage&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) == 0 {
		t.Errorf("imageUsage dropped requested bits: %d", usage)
	}
	if usage&vk.ImageUsageFlags(vk.ImageUsageStorageBit) != 0 {
		t.Errorf("imageUsage added storage: %d", usage)
	}

	if got := bufferUsage(metadata.BufferUsageVertex); got&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) == 0 {
		t.Errorf("bufferUsage without transfer dst: %d", got)
	}
}

func TestMemoryProperties(t *testing.T) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	if got := memoryProperties(metadata.MemoryTypeGPUOnly); got&hostVisible != 0 {
		t.Errorf("GPU only memory is host visible: %d", got)
	}
	if got := memoryProperties(metadata.MemoryTypeCPUToGPU); got&hostVisible == 0 {
		t.Errorf("upload memory is not host visible: %d", got)
	}
	if got := memoryProperties(metadata.MemoryTypeGPUToCPU); got&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit) == 0 {
		t.Errorf("readback memory is not cached: %d", got)
	}
}

func TestResultHelpers(t *testing.T) {
	if err := check(vk.Success, "vkNothing"); err != nil {
		t.Fatalf("check(Success) = %v", err)
	}
	err := check(vk.ErrorDeviceLost, "vkQueueSubmit")
	if !errors.Is(err, ErrVulkan) {
		t.Fatalf("expected ErrVulkan, got %v", err)
	}
	if got := ResultString(vk.ErrorOutOfDate); got != "VK_ERROR_OUT_OF_DATE_KHR" {
		t.Errorf("ResultString = %s", got)
	}
	if !ResultIsSuccess(vk.Suboptimal) || ResultIsSuccess(vk.ErrorOutOfDate) {
		t.Error("ResultIsSuccess misclassifies results")
	}
}

func TestStrings(t *testing.T) {
	if got := SafeString("abc"); got != "abc\x00" {
		t.Errorf("SafeString = %q", got)
	}
	if got := SafeString("abc\x00"); got != "abc\x00" {
		t.Errorf("SafeString terminated twice: %q", got)
	}
	in := []string{"a", "b"}
	out := SafeStrings(in)
	if in[0] != "a" || out[0] != "a\x00" || out[1] != "b\x00" {
		t.Errorf("SafeStrings = %q (input %q)", out, in)
	}

	var name [16]byte
	copy(name[:], "llvmpipe")
	if got := cString(name[:]); got != "llvmpipe" {
		t.Errorf("cString = %q", got)
	}
	if got := cString([]byte("full")); got != "full" {
		t.Errorf("cString without terminator = %q", got)
	}
}

func TestLockPoolSerializesGroup(t *testing.T) {
	lp := NewLockPool()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lp.SafeCall(QueueManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 32 {
		t.Fatalf("counter = %d, want 32", counter)
	}

	want := errors.New("boom")
	if err := lp.SafeCall(TransferManagement, func() error { return want }); err != want {
		t.Fatalf("SafeCall returned %v", err)
	}
}

func TestPresentModeSelection(t *testing.T) {
	sc := &SwapChain{vsync: true}
	all := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo}
	if got := sc.choosePresentMode(all); got != vk.PresentModeFifo {
		t.Errorf("vsync mode = %d", got)
	}
	sc.vsync = false
	if got := sc.choosePresentMode(all); got != vk.PresentModeMailbox {
		t.Errorf("uncapped mode = %d", got)
	}
	if got := sc.choosePresentMode([]vk.PresentMode{vk.PresentModeFifo}); got != vk.PresentModeFifo {
		t.Errorf("fallback mode = %d", got)
	}
}

func TestSurfaceFormatSelection(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatA2b10g10r10UnormPack32, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	sc := &SwapChain{preferred: metadata.TextureFormatBGRA8SRGB}
	if got := sc.chooseFormat(formats); got.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("preferred format not chosen: %d", got.Format)
	}
	sc.preferred = metadata.TextureFormatRGBA16F
	if got := sc.chooseFormat(formats); got.Format != vk.FormatB8g8r8a8Unorm {
		t.Errorf("fallback format = %d", got.Format)
	}
	sc.preferred = metadata.TextureFormatUndefined
	if got := sc.chooseFormat(formats[:1]); got.Format != vk.FormatA2b10g10r10UnormPack32 {
		t.Errorf("first format not used: %d", got.Format)
	}
}
