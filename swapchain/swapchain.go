// Package swapchain owns everything whose validity depends on the surface
// extent and format: the presentable images and their views, per-image depth
// buffers, the render pass, framebuffers and the frame-slot sync objects.
//
// A chain is never resized in place. New builds a complete replacement from
// the previous chain, and the caller destroys the previous one afterwards.
package swapchain

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/lhll/device"
	"github.com/vkngwrapper/lhll/logx"
)

const DefaultMaxFramesInFlight = 2

type Options struct {
	MaxFramesInFlight int
	VSync             bool
	// FenceTimeout bounds every fence wait. Zero waits forever.
	FenceTimeout time.Duration
	Logger       *slog.Logger
}

// Formats is implemented by anything with a color and depth attachment format.
type Formats interface {
	ImageFormat() core1_0.Format
	DepthFormat() core1_0.Format
}

type frameSlot struct {
	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	inFlight       core1_0.Fence
}

type SwapChain struct {
	logger *slog.Logger

	device        core1_0.Device
	extension     khr_swapchain.Extension
	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue
	handle        khr_swapchain.Swapchain

	surfaceFormat khr_surface.SurfaceFormat
	presentMode   khr_surface.PresentMode
	depthFormat   core1_0.Format
	extent        core1_0.Extent2D

	images       []core1_0.Image
	imageViews   []core1_0.ImageView
	depthImages  []core1_0.Image
	depthMemory  []core1_0.DeviceMemory
	depthViews   []core1_0.ImageView
	renderPass   core1_0.RenderPass
	framebuffers []core1_0.Framebuffer

	frames         []frameSlot
	imagesInFlight []core1_0.Fence
	currentFrame   int
	acquiredImage  int
	fenceTimeout   time.Duration

	release *device.Releaser
}

// New builds a chain for windowExtent. When previous is not nil it is handed
// to the driver as the old swapchain and its format and frame position carry
// over; previous stays valid and must be destroyed by the caller.
func New(dev *device.Device, windowExtent core1_0.Extent2D, previous *SwapChain, opts Options) (*SwapChain, error) {
	if opts.MaxFramesInFlight == 0 {
		opts.MaxFramesInFlight = DefaultMaxFramesInFlight
	}

	s := &SwapChain{
		logger:        logx.OrDiscard(opts.Logger).With("component", "swapchain"),
		device:        dev.Device(),
		extension:     dev.SwapchainExtension(),
		graphicsQueue: dev.GraphicsQueue(),
		presentQueue:  dev.PresentQueue(),
		acquiredImage: -1,
		fenceTimeout:  opts.FenceTimeout,
	}
	if s.fenceTimeout <= 0 {
		s.fenceTimeout = common.NoTimeout
	}

	var scope device.Releaser
	defer scope.Release()

	if err := s.createSwapchain(dev, windowExtent, previous, opts.VSync, &scope); err != nil {
		return nil, err
	}
	if err := s.createImageViews(dev, &scope); err != nil {
		return nil, err
	}
	if err := s.createRenderPass(dev, &scope); err != nil {
		return nil, err
	}
	if err := s.createDepthResources(dev, &scope); err != nil {
		return nil, err
	}
	if err := s.createFramebuffers(&scope); err != nil {
		return nil, err
	}
	if err := s.createSyncObjects(FramesInFlight(opts.MaxFramesInFlight, len(s.images)), &scope); err != nil {
		return nil, err
	}

	if previous != nil {
		s.currentFrame = previous.currentFrame % len(s.frames)
	}

	s.release = scope.Take()
	s.logger.Info("swap chain created",
		"width", s.extent.Width,
		"height", s.extent.Height,
		"images", len(s.images),
		"frames_in_flight", len(s.frames),
		"present_mode", s.presentMode,
		"recreated", previous != nil)
	return s, nil
}

func (s *SwapChain) createSwapchain(dev *device.Device, windowExtent core1_0.Extent2D, previous *SwapChain, vsync bool, scope *device.Releaser) error {
	support, err := dev.SwapChainSupport()
	if err != nil {
		return err
	}
	if !support.Adequate() {
		return errors.Wrapf(ErrUnsupportedSurface, "%d formats, %d present modes", len(support.Formats), len(support.PresentModes))
	}

	var previousFormat *khr_surface.SurfaceFormat
	var oldSwapchain khr_swapchain.Swapchain
	if previous != nil {
		previousFormat = &previous.surfaceFormat
		oldSwapchain = previous.handle
	}

	surfaceFormat, _ := ChooseSurfaceFormat(support.Formats, previousFormat)
	presentMode := ChoosePresentMode(support.PresentModes, vsync)
	extent := ChooseExtent(support.Capabilities, windowExtent)
	imageCount := ChooseImageCount(support.Capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if families := dev.QueueFamilies().Unique(); len(families) > 1 {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = families
	}

	handle, _, err := s.extension.CreateSwapchain(s.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: dev.Surface(),

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
		OldSwapchain:   oldSwapchain,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	scope.Add(func() { handle.Destroy(nil) })

	s.handle = handle
	s.surfaceFormat = surfaceFormat
	s.presentMode = presentMode
	s.extent = extent
	return nil
}

func (s *SwapChain) createImageViews(dev *device.Device, scope *device.Releaser) error {
	images, _, err := s.handle.SwapchainImages()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	s.images = images

	for _, image := range images {
		view, err := dev.CreateImageView(image, s.surfaceFormat.Format, core1_0.ImageAspectColor)
		if err != nil {
			return err
		}
		scope.Add(func() { view.Destroy(nil) })

		s.imageViews = append(s.imageViews, view)
	}

	return nil
}

func (s *SwapChain) createRenderPass(dev *device.Device, scope *device.Releaser) error {
	depthFormat, err := dev.FindDepthFormat()
	if err != nil {
		return err
	}
	s.depthFormat = depthFormat

	renderPass, _, err := s.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         s.surfaceFormat.Format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         depthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	scope.Add(func() { renderPass.Destroy(nil) })

	s.renderPass = renderPass
	return nil
}

func (s *SwapChain) createDepthResources(dev *device.Device, scope *device.Releaser) error {
	for range s.images {
		image, memory, err := dev.CreateImage(s.extent.Width,
			s.extent.Height,
			s.depthFormat,
			core1_0.ImageTilingOptimal,
			core1_0.ImageUsageDepthStencilAttachment,
			core1_0.MemoryPropertyDeviceLocal)
		if err != nil {
			return err
		}
		scope.Add(func() {
			image.Destroy(nil)
			memory.Free(nil)
		})

		view, err := dev.CreateImageView(image, s.depthFormat, core1_0.ImageAspectDepth)
		if err != nil {
			return err
		}
		scope.Add(func() { view.Destroy(nil) })

		s.depthImages = append(s.depthImages, image)
		s.depthMemory = append(s.depthMemory, memory)
		s.depthViews = append(s.depthViews, view)
	}

	return nil
}

func (s *SwapChain) createFramebuffers(scope *device.Releaser) error {
	for i, imageView := range s.imageViews {
		framebuffer, _, err := s.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: s.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
				s.depthViews[i],
			},
			Width:  s.extent.Width,
			Height: s.extent.Height,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		scope.Add(func() { framebuffer.Destroy(nil) })

		s.framebuffers = append(s.framebuffers, framebuffer)
	}

	return nil
}

func (s *SwapChain) createSyncObjects(framesInFlight int, scope *device.Releaser) error {
	for i := 0; i < framesInFlight; i++ {
		imageAvailable, _, err := s.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "create image available semaphore")
		}
		scope.Add(func() { imageAvailable.Destroy(nil) })

		renderFinished, _, err := s.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "create render finished semaphore")
		}
		scope.Add(func() { renderFinished.Destroy(nil) })

		inFlight, _, err := s.device.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return errors.Wrap(err, "create in flight fence")
		}
		scope.Add(func() { inFlight.Destroy(nil) })

		s.frames = append(s.frames, frameSlot{
			imageAvailable: imageAvailable,
			renderFinished: renderFinished,
			inFlight:       inFlight,
		})
	}

	s.imagesInFlight = make([]core1_0.Fence, len(s.images))
	return nil
}

func (s *SwapChain) RenderPass() core1_0.RenderPass { return s.renderPass }
func (s *SwapChain) Extent() core1_0.Extent2D       { return s.extent }
func (s *SwapChain) ImageCount() int                { return len(s.images) }
func (s *SwapChain) FramesInFlight() int            { return len(s.frames) }
func (s *SwapChain) CurrentFrame() int              { return s.currentFrame }
func (s *SwapChain) ImageFormat() core1_0.Format    { return s.surfaceFormat.Format }
func (s *SwapChain) DepthFormat() core1_0.Format    { return s.depthFormat }

func (s *SwapChain) Framebuffer(imageIndex int) core1_0.Framebuffer {
	return s.framebuffers[imageIndex]
}

func (s *SwapChain) ExtentAspectRatio() float32 {
	if s.extent.Height == 0 {
		return 0
	}
	return float32(s.extent.Width) / float32(s.extent.Height)
}

// CompareFormats reports whether other renders to the same color and depth formats.
func (s *SwapChain) CompareFormats(other Formats) bool {
	return s.ImageFormat() == other.ImageFormat() && s.DepthFormat() == other.DepthFormat()
}

// Destroy releases every object the chain created. The caller makes sure the
// GPU is no longer using them.
func (s *SwapChain) Destroy() {
	if s.release != nil {
		s.release.Release()
		s.release = nil
	}
}
