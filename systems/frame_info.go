// Package systems holds render systems. A render system records draw calls
// into a command buffer that is already inside the swap chain render pass; it
// never acquires, submits, or opens and closes render passes.
package systems

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/camera"
	"github.com/vkngwrapper/lhll/game"
)

// FrameInfo is everything a render system may read while recording one frame.
type FrameInfo struct {
	FrameIndex          int
	FrameTime           float32
	CommandBuffer       core1_0.CommandBuffer
	Camera              *camera.Camera
	GlobalDescriptorSet core1_0.DescriptorSet
	GameObjects         game.Map
}

// GlobalUBO is the per-frame uniform block shared by every system. Fields are
// vec4 aligned to match std140.
type GlobalUBO struct {
	ProjectionView mgl32.Mat4
	LightDirection mgl32.Vec4
}

func DefaultLightDirection() mgl32.Vec4 {
	return mgl32.Vec3{1, -3, -1}.Normalize().Vec4(0)
}
