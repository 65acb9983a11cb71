package game

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
)

type ID uint32

// IDAllocator hands out object ids in increasing order. The zero value starts at 0.
type IDAllocator struct {
	next ID
}

func (a *IDAllocator) Next() ID {
	id := a.next
	a.next++
	return id
}

// Model is anything an object can bind and draw into a command buffer that is
// already inside a render pass.
type Model interface {
	Bind(commandBuffer core1_0.CommandBuffer)
	Draw(commandBuffer core1_0.CommandBuffer)
}

type Object struct {
	id ID

	Model     Model
	Color     mgl32.Vec3
	Transform Transform
}

func NewObject(ids *IDAllocator) *Object {
	return &Object{
		id:        ids.Next(),
		Transform: NewTransform(),
	}
}

func (o *Object) ID() ID {
	return o.id
}

// Map holds objects by id. Iteration order is unspecified.
type Map map[ID]*Object

func (m Map) Add(o *Object) {
	m[o.ID()] = o
}

func (m Map) Remove(id ID) {
	delete(m, id)
}
