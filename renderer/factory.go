package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/device"
	"github.com/vkngwrapper/lhll/swapchain"
)

// SwapChainFactory builds real swap chains on dev.
func SwapChainFactory(dev *device.Device, opts swapchain.Options) ChainFactory {
	return func(extent core1_0.Extent2D, previous Chain) (Chain, error) {
		var old *swapchain.SwapChain
		if previous != nil {
			var ok bool
			old, ok = previous.(*swapchain.SwapChain)
			if !ok {
				return nil, errors.AssertionFailedf("cannot rebuild a swap chain from %T", previous)
			}
		}

		chain, err := swapchain.New(dev, extent, old, opts)
		if err != nil {
			return nil, err
		}
		return chain, nil
	}
}
