// Package buffer wraps a Vulkan buffer holding instanceCount fixed-size
// instances, each starting on an aligned offset.
package buffer

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/device"
)

type Buffer struct {
	device *device.Device

	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	mapped unsafe.Pointer

	instanceSize   int
	instanceCount  int
	alignmentSize  int
	bufferSize     int
	usageFlags     core1_0.BufferUsageFlags
	memoryProperty core1_0.MemoryPropertyFlags
}

// Alignment rounds instanceSize up to a multiple of minOffsetAlignment, which
// Vulkan guarantees is a power of two. Zero means no alignment requirement.
func Alignment(instanceSize, minOffsetAlignment int) int {
	if minOffsetAlignment > 0 {
		return (instanceSize + minOffsetAlignment - 1) &^ (minOffsetAlignment - 1)
	}
	return instanceSize
}

func New(dev *device.Device, instanceSize, instanceCount int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags, minOffsetAlignment int) (*Buffer, error) {
	if instanceSize <= 0 || instanceCount <= 0 {
		return nil, errors.Newf("buffer needs a positive instance size and count, got %d x %d", instanceSize, instanceCount)
	}

	alignmentSize := Alignment(instanceSize, minOffsetAlignment)
	bufferSize := alignmentSize * instanceCount

	handle, memory, err := dev.CreateBuffer(bufferSize, usage, properties)
	if err != nil {
		return nil, err
	}

	return &Buffer{
		device:         dev,
		buffer:         handle,
		memory:         memory,
		instanceSize:   instanceSize,
		instanceCount:  instanceCount,
		alignmentSize:  alignmentSize,
		bufferSize:     bufferSize,
		usageFlags:     usage,
		memoryProperty: properties,
	}, nil
}

// Map maps the whole buffer. The memory must be host visible.
func (b *Buffer) Map() error {
	if b.mapped != nil {
		return nil
	}

	ptr, _, err := b.memory.Map(0, b.bufferSize, 0)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	b.mapped = ptr
	return nil
}

func (b *Buffer) Unmap() {
	if b.mapped != nil {
		b.memory.Unmap()
		b.mapped = nil
	}
}

// WriteToBuffer encodes data with the device byte order at offset. The buffer must be mapped.
func (b *Buffer) WriteToBuffer(data any, offset int) error {
	if b.mapped == nil {
		return errors.New("cannot write to an unmapped buffer")
	}

	encoded, err := Encode(data)
	if err != nil {
		return err
	}
	if offset < 0 || offset+len(encoded) > b.bufferSize {
		return errors.Newf("write of %d bytes at offset %d overflows %d byte buffer", len(encoded), offset, b.bufferSize)
	}

	dst := unsafe.Slice((*byte)(unsafe.Add(b.mapped, offset)), len(encoded))
	copy(dst, encoded)
	return nil
}

func (b *Buffer) WriteToIndex(data any, index int) error {
	if index < 0 || index >= b.instanceCount {
		return errors.Newf("instance index %d out of range [0,%d)", index, b.instanceCount)
	}
	return b.WriteToBuffer(data, index*b.alignmentSize)
}

// Flush makes host writes visible to the device. Only needed for memory that
// is not host coherent.
func (b *Buffer) Flush() error {
	if b.memoryProperty&core1_0.MemoryPropertyHostCoherent != 0 {
		return nil
	}

	_, err := b.device.Device().FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{
			Memory: b.memory,
			Offset: 0,
			Size:   b.bufferSize,
		},
	})
	if err != nil {
		return errors.Wrap(err, "flush buffer memory")
	}
	return nil
}

func (b *Buffer) DescriptorInfo() core1_0.DescriptorBufferInfo {
	return b.DescriptorInfoForIndex(0)
}

func (b *Buffer) DescriptorInfoForIndex(index int) core1_0.DescriptorBufferInfo {
	return core1_0.DescriptorBufferInfo{
		Buffer: b.buffer,
		Offset: index * b.alignmentSize,
		Range:  b.instanceSize,
	}
}

func (b *Buffer) Buffer() core1_0.Buffer { return b.buffer }
func (b *Buffer) Size() int              { return b.bufferSize }
func (b *Buffer) InstanceCount() int     { return b.instanceCount }
func (b *Buffer) InstanceSize() int      { return b.instanceSize }
func (b *Buffer) AlignmentSize() int     { return b.alignmentSize }

func (b *Buffer) Destroy() {
	b.Unmap()
	if b.buffer != nil {
		b.buffer.Destroy(nil)
		b.buffer = nil
	}
	if b.memory != nil {
		b.memory.Free(nil)
		b.memory = nil
	}
}

// Encode lays data out the way shaders read it from device memory.
func Encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, common.ByteOrder, data); err != nil {
		return nil, errors.Wrap(err, "encode buffer data")
	}
	return buf.Bytes(), nil
}

// Upload copies data into a new device-local buffer through a host-visible
// staging buffer.
func Upload(dev *device.Device, data any, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	encoded, err := Encode(data)
	if err != nil {
		return nil, err
	}

	staging, err := New(dev, len(encoded), 1, core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, 0)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err = staging.Map(); err != nil {
		return nil, err
	}
	if err = staging.WriteToBuffer(encoded, 0); err != nil {
		return nil, err
	}
	staging.Unmap()

	target, err := New(dev, len(encoded), 1, usage|core1_0.BufferUsageTransferDst, core1_0.MemoryPropertyDeviceLocal, 0)
	if err != nil {
		return nil, err
	}

	if err = dev.CopyBuffer(staging.Buffer(), target.Buffer(), len(encoded)); err != nil {
		target.Destroy()
		return nil, err
	}
	return target, nil
}
