// Package model loads meshes and uploads them into device-local vertex and
// index buffers.
package model

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/buffer"
	"github.com/vkngwrapper/lhll/device"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

func BindingDescriptions() []core1_0.VertexInputBindingDescription {
	v := Vertex{}
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    int(unsafe.Sizeof(v)),
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func AttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Normal)),
		},
		{
			Binding:  0,
			Location: 3,
			Format:   core1_0.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.UV)),
		},
	}
}

// Model is an immutable mesh on the GPU. Models without indices are drawn as
// a plain triangle list.
type Model struct {
	vertexBuffer *buffer.Buffer
	vertexCount  int

	indexBuffer *buffer.Buffer
	indexCount  int
}

func New(dev *device.Device, builder *Builder) (*Model, error) {
	if len(builder.Vertices) < 3 {
		return nil, errors.Newf("model has %d vertices, need at least 3", len(builder.Vertices))
	}

	vertexBuffer, err := buffer.Upload(dev, builder.Vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertices")
	}

	m := &Model{
		vertexBuffer: vertexBuffer,
		vertexCount:  len(builder.Vertices),
	}

	if len(builder.Indices) > 0 {
		m.indexBuffer, err = buffer.Upload(dev, builder.Indices, core1_0.BufferUsageIndexBuffer)
		if err != nil {
			m.Destroy()
			return nil, errors.Wrap(err, "upload indices")
		}
		m.indexCount = len(builder.Indices)
	}

	return m, nil
}

// FromFile loads an OBJ file and uploads it.
func FromFile(dev *device.Device, path string) (*Model, error) {
	var builder Builder
	if err := builder.LoadModel(path); err != nil {
		return nil, err
	}
	return New(dev, &builder)
}

func (m *Model) Bind(commandBuffer core1_0.CommandBuffer) {
	commandBuffer.CmdBindVertexBuffers(0, []core1_0.Buffer{m.vertexBuffer.Buffer()}, []int{0})
	if m.indexBuffer != nil {
		commandBuffer.CmdBindIndexBuffer(m.indexBuffer.Buffer(), 0, core1_0.IndexTypeUInt32)
	}
}

func (m *Model) Draw(commandBuffer core1_0.CommandBuffer) {
	if m.indexBuffer != nil {
		commandBuffer.CmdDrawIndexed(m.indexCount, 1, 0, 0, 0)
	} else {
		commandBuffer.CmdDraw(m.vertexCount, 1, 0, 0)
	}
}

func (m *Model) VertexCount() int { return m.vertexCount }
func (m *Model) IndexCount() int  { return m.indexCount }

func (m *Model) Destroy() {
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
		m.indexBuffer = nil
	}
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
}
