package swapchain

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

var (
	unorm = khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	srgb  = khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
)

func TestChooseSurfaceFormat(t *testing.T) {
	_, ok := ChooseSurfaceFormat(nil, nil)
	assert.False(t, ok)

	format, ok := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm, srgb}, nil)
	assert.True(t, ok)
	assert.Equal(t, srgb, format)

	format, _ = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm}, nil)
	assert.Equal(t, unorm, format)
}

func TestChooseSurfaceFormatKeepsPreviousFormat(t *testing.T) {
	format, _ := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{srgb, unorm}, &unorm)
	assert.Equal(t, unorm, format)

	gone := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	format, _ = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm, srgb}, &gone)
	assert.Equal(t, srgb, format)
}

func TestChoosePresentMode(t *testing.T) {
	modes := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}

	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode(modes, true))
	assert.Equal(t, khr_surface.PresentModeMailbox, ChoosePresentMode(modes, false))
	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeFIFO}, false))
}

func TestChooseExtent(t *testing.T) {
	fixed := &khr_surface.SurfaceCapabilities{CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600}}
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, ChooseExtent(fixed, core1_0.Extent2D{Width: 1024, Height: 768}))

	free := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 1000, Height: 1000},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 1000, Height: 768}, ChooseExtent(free, core1_0.Extent2D{Width: 1024, Height: 768}))
	assert.Equal(t, core1_0.Extent2D{Width: 1, Height: 1}, ChooseExtent(free, core1_0.Extent2D{}))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, 3, ChooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2}))
	assert.Equal(t, 2, ChooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	assert.Equal(t, 4, ChooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 8}))
}

func TestFramesInFlight(t *testing.T) {
	assert.Equal(t, 2, FramesInFlight(2, 3))
	assert.Equal(t, 2, FramesInFlight(3, 2))
	assert.Equal(t, 1, FramesInFlight(0, 3))
}

func TestNeedsRebuild(t *testing.T) {
	assert.True(t, NeedsRebuild(ErrOutOfDate))
	assert.True(t, NeedsRebuild(errors.Wrap(ErrSuboptimal, "present")))
	assert.False(t, NeedsRebuild(ErrFormatChanged))
	assert.False(t, NeedsRebuild(nil))
}
