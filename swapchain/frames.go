package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// AcquireNextImage waits until the current frame slot is free, then acquires
// the next presentable image and signals the slot's image-available semaphore.
// ErrOutOfDate means nothing was acquired and the chain must be rebuilt.
// A suboptimal acquire is still a success.
func (s *SwapChain) AcquireNextImage() (int, error) {
	if s.acquiredImage >= 0 {
		panic(errors.AssertionFailedf("acquire while image %d is still waiting to be submitted", s.acquiredImage))
	}

	slot := s.frames[s.currentFrame]
	if err := s.waitForFence(slot.inFlight); err != nil {
		return -1, err
	}

	imageIndex, res, err := s.handle.AcquireNextImage(s.fenceTimeout, slot.imageAvailable, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return -1, ErrOutOfDate
	} else if err != nil {
		return -1, errors.Wrap(err, "acquire swap chain image")
	} else if res == core1_0.VKTimeout {
		return -1, errors.Wrapf(ErrFenceTimeout, "acquire after %s", s.fenceTimeout)
	}

	if imageIndex < 0 || imageIndex >= len(s.images) {
		return -1, errors.AssertionFailedf("driver returned image %d for a chain of %d", imageIndex, len(s.images))
	}

	s.acquiredImage = imageIndex
	return imageIndex, nil
}

// SubmitCommandBuffers submits buffer for the image acquired this frame and
// queues it for presentation. The frame slot advances once the submission is
// queued, even if presentation then reports the chain stale. ErrOutOfDate and
// ErrSuboptimal both mean the chain must be rebuilt.
func (s *SwapChain) SubmitCommandBuffers(buffer core1_0.CommandBuffer, imageIndex int) error {
	if s.acquiredImage < 0 || imageIndex != s.acquiredImage {
		panic(errors.AssertionFailedf("submit of image %d without a matching acquire (acquired %d)", imageIndex, s.acquiredImage))
	}
	s.acquiredImage = -1

	slot := s.frames[s.currentFrame]

	// Another slot may still be rendering to this image
	if fence := s.imagesInFlight[imageIndex]; fence != nil {
		if err := s.waitForFence(fence); err != nil {
			return err
		}
	}
	s.imagesInFlight[imageIndex] = slot.inFlight

	if _, err := s.device.ResetFences([]core1_0.Fence{slot.inFlight}); err != nil {
		return errors.Wrap(err, "reset in flight fence")
	}

	_, err := s.graphicsQueue.Submit(slot.inFlight, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{slot.imageAvailable},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{buffer},
			SignalSemaphores: []core1_0.Semaphore{slot.renderFinished},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit draw command buffer")
	}

	s.currentFrame = (s.currentFrame + 1) % len(s.frames)

	res, err := s.extension.QueuePresent(s.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{slot.renderFinished},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return ErrOutOfDate
	} else if res == khr_swapchain.VKSuboptimal {
		return ErrSuboptimal
	} else if err != nil {
		return errors.Wrap(err, "present swap chain image")
	}

	return nil
}

func (s *SwapChain) waitForFence(fence core1_0.Fence) error {
	res, err := s.device.WaitForFences(true, s.fenceTimeout, []core1_0.Fence{fence})
	if err != nil {
		return errors.Wrap(err, "wait for frame fence")
	}
	if res == core1_0.VKTimeout {
		return errors.Wrapf(ErrFenceTimeout, "after %s", s.fenceTimeout)
	}
	return nil
}
