package swapchain

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// ChooseSurfaceFormat keeps the previous chain's format when the surface still
// offers it, then prefers B8G8R8A8 sRGB, then takes whatever comes first.
func ChooseSurfaceFormat(available []khr_surface.SurfaceFormat, previous *khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, bool) {
	if len(available) == 0 {
		return khr_surface.SurfaceFormat{}, false
	}

	if previous != nil {
		for _, format := range available {
			if format == *previous {
				return format, true
			}
		}
	}

	for _, format := range available {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format, true
		}
	}

	return available[0], true
}

// ChoosePresentMode returns mailbox when vsync is off and the surface offers
// it. FIFO is always available.
func ChoosePresentMode(available []khr_surface.PresentMode, vsync bool) khr_surface.PresentMode {
	if !vsync {
		for _, presentMode := range available {
			if presentMode == khr_surface.PresentModeMailbox {
				return presentMode
			}
		}
	}

	return khr_surface.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent unless the surface leaves it
// to the application (width -1), in which case the window extent is clamped.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, window core1_0.Extent2D) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(window.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(window.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum. A max of zero means unbounded.
func ChooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// FramesInFlight is the number of frame slots for a chain of imageCount images.
func FramesInFlight(maxFramesInFlight, imageCount int) int {
	if maxFramesInFlight < 1 {
		maxFramesInFlight = 1
	}
	return min(maxFramesInFlight, imageCount)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
