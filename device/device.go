// Package device opens the Vulkan instance, picks a GPU and owns the logical
// device, its queues and the command pool everything else allocates from.
package device

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/lhll/logx"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// SurfaceSource is the window the device presents to.
type SurfaceSource interface {
	InstanceExtensions() []string
	CreateSurface(instance core1_0.Instance, surfaceLoader khr_surface.Extension) (khr_surface.Surface, error)
}

type Options struct {
	ApplicationName string
	Validation      bool
	Logger          *slog.Logger
}

type Device struct {
	logger *slog.Logger

	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	properties     *core1_0.PhysicalDeviceProperties
	device         core1_0.Device
	queueFamilies  QueueFamilyIndices

	graphicsQueue      core1_0.Queue
	presentQueue       core1_0.Queue
	swapchainExtension khr_swapchain.Extension
	commandPool        core1_0.CommandPool

	release *Releaser
}

func New(loader core.Loader, window SurfaceSource, opts Options) (*Device, error) {
	d := &Device{
		logger: logx.OrDiscard(opts.Logger).With("component", "device"),
		loader: loader,
	}

	var scope Releaser
	defer scope.Release()

	if err := d.createInstance(window.InstanceExtensions(), opts); err != nil {
		return nil, err
	}
	scope.Add(func() { d.instance.Destroy(nil) })

	if opts.Validation {
		if err := d.setupDebugMessenger(); err != nil {
			return nil, err
		}
		scope.Add(func() { d.debugMessenger.Destroy(nil) })
	}

	surface, err := window.CreateSurface(d.instance, khr_surface.CreateExtensionFromInstance(d.instance))
	if err != nil {
		return nil, err
	}
	d.surface = surface
	scope.Add(func() { d.surface.Destroy(nil) })

	if err := d.pickPhysicalDevice(); err != nil {
		return nil, err
	}

	if err := d.createLogicalDevice(); err != nil {
		return nil, err
	}
	scope.Add(func() { d.device.Destroy(nil) })

	if err := d.createCommandPool(); err != nil {
		return nil, err
	}
	scope.Add(func() { d.commandPool.Destroy(nil) })

	d.release = scope.Take()
	return d, nil
}

func (d *Device) createLogicalDevice() error {
	indices, err := d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return err
	}
	d.queueFamilies = indices

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Portability drivers (MoltenVK) require the subset extension when they advertise it
	extensions, _, err := d.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}

	if _, supported := extensions[khr_portability_subset.ExtensionName]; supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.device, _, err = d.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	d.graphicsQueue = d.device.GetQueue(*indices.GraphicsFamily, 0)
	d.presentQueue = d.device.GetQueue(*indices.PresentFamily, 0)
	d.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(d.device)
	return nil
}

func (d *Device) createCommandPool() error {
	pool, _, err := d.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *d.queueFamilies.GraphicsFamily,
		Flags:            core1_0.CommandPoolCreateTransient | core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	d.commandPool = pool
	return nil
}

func (d *Device) Device() core1_0.Device                        { return d.device }
func (d *Device) PhysicalDevice() core1_0.PhysicalDevice        { return d.physicalDevice }
func (d *Device) Properties() *core1_0.PhysicalDeviceProperties { return d.properties }
func (d *Device) Surface() khr_surface.Surface                  { return d.surface }
func (d *Device) QueueFamilies() QueueFamilyIndices             { return d.queueFamilies }
func (d *Device) GraphicsQueue() core1_0.Queue                  { return d.graphicsQueue }
func (d *Device) PresentQueue() core1_0.Queue                   { return d.presentQueue }
func (d *Device) SwapchainExtension() khr_swapchain.Extension   { return d.swapchainExtension }
func (d *Device) CommandPool() core1_0.CommandPool              { return d.commandPool }

func (d *Device) SwapChainSupport() (SwapChainSupportDetails, error) {
	return d.querySwapChainSupport(d.physicalDevice)
}

func (d *Device) AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error) {
	buffers, _, err := d.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d command buffers", count)
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []core1_0.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	d.device.FreeCommandBuffers(buffers)
}

func (d *Device) WaitIdle() error {
	if _, err := d.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	return nil
}

// Destroy waits for the GPU to finish, then releases the pool, device,
// surface, messenger and instance.
func (d *Device) Destroy() {
	if d.device != nil {
		if err := d.WaitIdle(); err != nil {
			d.logger.Error("device did not go idle before destroy", "error", err)
		}
	}
	if d.release != nil {
		d.release.Release()
	}
}
