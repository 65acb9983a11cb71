// Package renderer drives the per-frame loop on top of a swap chain. It hands
// render systems a command buffer that is ready to record, brackets the render
// pass, submits the frame and rebuilds the swap chain whenever the surface
// goes stale.
package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/logx"
	"github.com/vkngwrapper/lhll/swapchain"
)

type Window interface {
	Extent() core1_0.Extent2D
	ShouldClose() bool
	WasResized() bool
	ResetResizedFlag()
	WaitEvents()
}

type Device interface {
	AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error)
	FreeCommandBuffers(buffers []core1_0.CommandBuffer)
	WaitIdle() error
}

// Chain is the part of a swap chain the renderer drives.
type Chain interface {
	swapchain.Formats

	AcquireNextImage() (int, error)
	SubmitCommandBuffers(buffer core1_0.CommandBuffer, imageIndex int) error
	RenderPass() core1_0.RenderPass
	Framebuffer(imageIndex int) core1_0.Framebuffer
	Extent() core1_0.Extent2D
	ExtentAspectRatio() float32
	FramesInFlight() int
	CurrentFrame() int
	CompareFormats(other swapchain.Formats) bool
	Destroy()
}

// ChainFactory builds a chain for extent. previous is nil for the first chain
// and must stay valid after the call.
type ChainFactory func(extent core1_0.Extent2D, previous Chain) (Chain, error)

type Options struct {
	ClearColor [4]float32
	Logger     *slog.Logger
}

type Renderer struct {
	logger *slog.Logger

	window   Window
	device   Device
	newChain ChainFactory

	chain          chainState
	commandBuffers []core1_0.CommandBuffer
	clearColor     [4]float32

	currentImageIndex int
	currentFrameIndex int
	frameStarted      bool
	renderPassOpen    bool
}

func New(window Window, device Device, newChain ChainFactory, opts Options) (*Renderer, error) {
	r := &Renderer{
		logger:     logx.OrDiscard(opts.Logger).With("component", "renderer"),
		window:     window,
		device:     device,
		newChain:   newChain,
		clearColor: opts.ClearColor,
	}

	if err := r.recreateSwapChain(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) IsFrameInProgress() bool { return r.frameStarted }

func (r *Renderer) CurrentCommandBuffer() core1_0.CommandBuffer {
	r.assertFrameInProgress("get command buffer")
	return r.commandBuffers[r.currentFrameIndex]
}

// FrameIndex is the frame slot being recorded, in [0, FramesInFlight).
func (r *Renderer) FrameIndex() int {
	r.assertFrameInProgress("get frame index")
	return r.currentFrameIndex
}

// ImageIndex is the swap chain image acquired for the current frame.
func (r *Renderer) ImageIndex() int {
	r.assertFrameInProgress("get image index")
	return r.currentImageIndex
}

func (r *Renderer) Extent() core1_0.Extent2D {
	if r.chain.active == nil {
		return core1_0.Extent2D{}
	}
	return r.chain.active.Extent()
}

// AspectRatio is zero until a swap chain exists.
func (r *Renderer) AspectRatio() float32 {
	if r.chain.active == nil {
		return 0
	}
	return r.chain.active.ExtentAspectRatio()
}

func (r *Renderer) RenderPass() core1_0.RenderPass {
	return r.chain.current().RenderPass()
}

// FramesInFlight is the number of frame slots, and so the number of per-frame
// resources callers need.
func (r *Renderer) FramesInFlight() int {
	return r.chain.current().FramesInFlight()
}

// BeginFrame acquires the next image and starts recording its frame slot's
// command buffer. It returns a nil buffer when there is nothing to draw this
// tick, for example because the swap chain was out of date and has been
// rebuilt; callers skip rendering and try again.
func (r *Renderer) BeginFrame() (core1_0.CommandBuffer, error) {
	if r.frameStarted {
		panic(errors.AssertionFailedf("cannot begin a frame while one is already in progress"))
	}

	chain := r.chain.active
	if chain == nil {
		return nil, r.recreateSwapChain()
	}

	imageIndex, err := chain.AcquireNextImage()
	if errors.Is(err, swapchain.ErrOutOfDate) {
		r.logger.Debug("skipping frame, swap chain is out of date")
		// The rebuild below already picks up the new window extent.
		r.window.ResetResizedFlag()
		return nil, r.recreateSwapChain()
	} else if err != nil {
		return nil, errors.Wrap(err, "acquire next image")
	}

	frameIndex := chain.CurrentFrame()
	buffer := r.commandBuffers[frameIndex]
	if _, err := buffer.Begin(core1_0.CommandBufferBeginInfo{}); err != nil {
		return nil, errors.Wrap(err, "begin recording command buffer")
	}

	r.currentImageIndex = imageIndex
	r.currentFrameIndex = frameIndex
	r.frameStarted = true
	return buffer, nil
}

// EndFrame finishes recording and submits the frame. A stale swap chain or a
// resized window triggers a rebuild here; neither is reported as an error.
// Any other submit failure is returned even if the window was resized.
func (r *Renderer) EndFrame() error {
	r.assertFrameInProgress("end frame")
	if r.renderPassOpen {
		panic(errors.AssertionFailedf("cannot end a frame inside an open render pass"))
	}
	r.frameStarted = false

	buffer := r.commandBuffers[r.currentFrameIndex]
	if _, err := buffer.End(); err != nil {
		return errors.Wrap(err, "record command buffer")
	}

	err := r.chain.current().SubmitCommandBuffers(buffer, r.currentImageIndex)
	if err != nil && !swapchain.NeedsRebuild(err) {
		return errors.Wrap(err, "submit frame")
	}

	if err != nil || r.window.WasResized() {
		r.window.ResetResizedFlag()
		return r.recreateSwapChain()
	}
	return nil
}

// BeginSwapChainRenderPass opens the render pass on the acquired image's
// framebuffer and points viewport and scissor at the current extent.
func (r *Renderer) BeginSwapChainRenderPass(buffer core1_0.CommandBuffer) error {
	r.assertCurrentBuffer(buffer, "begin render pass")
	if r.renderPassOpen {
		panic(errors.AssertionFailedf("render pass is already open"))
	}

	chain := r.chain.current()
	extent := chain.Extent()

	err := buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  chain.RenderPass(),
			Framebuffer: chain.Framebuffer(r.currentImageIndex),
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(r.clearColor),
				core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			},
		})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}
	r.renderPassOpen = true

	buffer.CmdSetViewport([]core1_0.Viewport{
		{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	})
	buffer.CmdSetScissor([]core1_0.Rect2D{
		{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
	})
	return nil
}

func (r *Renderer) EndSwapChainRenderPass(buffer core1_0.CommandBuffer) {
	r.assertCurrentBuffer(buffer, "end render pass")
	if !r.renderPassOpen {
		panic(errors.AssertionFailedf("no render pass is open"))
	}

	buffer.CmdEndRenderPass()
	r.renderPassOpen = false
}

// Destroy waits for the device to go idle, then frees the command buffers and
// every chain the renderer still owns.
func (r *Renderer) Destroy() {
	if err := r.device.WaitIdle(); err != nil {
		r.logger.Error("device did not go idle before renderer destroy", "error", err)
	}

	r.device.FreeCommandBuffers(r.commandBuffers)
	r.commandBuffers = nil

	if r.chain.retiring != nil {
		r.chain.retiring.Destroy()
	}
	if r.chain.active != nil {
		r.chain.active.Destroy()
	}
	r.chain = chainState{}
}

func (r *Renderer) recreateSwapChain() error {
	extent := r.window.Extent()
	for extent.Width == 0 || extent.Height == 0 {
		if r.window.ShouldClose() {
			return nil
		}
		r.window.WaitEvents()
		extent = r.window.Extent()
	}

	if err := r.device.WaitIdle(); err != nil {
		return err
	}

	r.logger.Info("building swap chain", "width", extent.Width, "height", extent.Height, "phase", r.chain.phase)

	next, err := r.newChain(extent, r.chain.active)
	if err != nil {
		return errors.Wrap(err, "create swap chain")
	}

	if err := r.chain.install(next); err != nil {
		return err
	}

	return r.allocateCommandBuffers(next.FramesInFlight())
}

func (r *Renderer) allocateCommandBuffers(count int) error {
	if len(r.commandBuffers) == count {
		return nil
	}

	r.device.FreeCommandBuffers(r.commandBuffers)
	r.commandBuffers = nil

	buffers, err := r.device.AllocateCommandBuffers(count)
	if err != nil {
		return err
	}
	r.commandBuffers = buffers
	return nil
}

func (r *Renderer) assertFrameInProgress(action string) {
	if !r.frameStarted {
		panic(errors.AssertionFailedf("cannot %s when no frame is in progress", action))
	}
}

func (r *Renderer) assertCurrentBuffer(buffer core1_0.CommandBuffer, action string) {
	r.assertFrameInProgress(action)
	if buffer != r.commandBuffers[r.currentFrameIndex] {
		panic(errors.AssertionFailedf("cannot %s on a command buffer from a different frame", action))
	}
}
