package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

var depthFormatCandidates = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

func (d *Device) FindMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.physicalDevice.MemoryProperties()
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("failed to find a memory type for filter %b with properties %s", typeFilter, properties)
}

func (d *Device) FindSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := d.physicalDevice.FormatProperties(format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

func (d *Device) FindDepthFormat() (core1_0.Format, error) {
	return d.FindSupportedFormat(depthFormatCandidates,
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment)
}

// CreateBuffer creates a buffer bound to freshly allocated memory. Nothing
// is left allocated when it fails.
func (d *Device) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	var scope Releaser
	defer scope.Release()

	buffer, _, err := d.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "create buffer of %d bytes", size)
	}
	scope.Add(func() { buffer.Destroy(nil) })

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := d.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return nil, nil, err
	}

	memory, _, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "allocate buffer memory")
	}
	scope.Add(func() { memory.Free(nil) })

	if _, err = buffer.BindBufferMemory(memory, 0); err != nil {
		return nil, nil, errors.Wrap(err, "bind buffer memory")
	}

	scope.Take()
	return buffer, memory, nil
}

func (d *Device) CreateImage(width, height int, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	var scope Releaser
	defer scope.Release()

	image, _, err := d.device.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "create %dx%d image", width, height)
	}
	scope.Add(func() { image.Destroy(nil) })

	memReqs := image.MemoryRequirements()
	memoryIndex, err := d.FindMemoryType(memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		return nil, nil, err
	}

	imageMemory, _, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "allocate image memory")
	}
	scope.Add(func() { imageMemory.Free(nil) })

	if _, err = image.BindImageMemory(imageMemory, 0); err != nil {
		return nil, nil, errors.Wrap(err, "bind image memory")
	}

	scope.Take()
	return image, imageMemory, nil
}

func (d *Device) CreateImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := d.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return imageView, nil
}

func (d *Device) BeginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, err := d.AllocateCommandBuffers(1)
	if err != nil {
		return nil, err
	}

	buffer := buffers[0]
	_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		d.FreeCommandBuffers(buffers)
		return nil, errors.Wrap(err, "begin single time commands")
	}
	return buffer, nil
}

// EndSingleTimeCommands submits buffer, waits for the graphics queue to drain
// and frees it.
func (d *Device) EndSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	defer d.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})

	if _, err := buffer.End(); err != nil {
		return errors.Wrap(err, "end single time commands")
	}

	_, err := d.graphicsQueue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit single time commands")
	}

	if _, err = d.graphicsQueue.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for graphics queue")
	}
	return nil
}

func (d *Device) CopyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := d.BeginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = buffer.CmdCopyBuffer(srcBuffer, dstBuffer, []core1_0.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	})
	if err != nil {
		d.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})
		return errors.Wrap(err, "record buffer copy")
	}

	return d.EndSingleTimeCommands(buffer)
}
