package systems

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/buffer"
	"github.com/vkngwrapper/lhll/game"
	"github.com/vkngwrapper/lhll/logx"
	"github.com/vkngwrapper/lhll/pipeline"
)

func TestPushConstantsFitMinimumLimit(t *testing.T) {
	var ids game.IDAllocator
	data, err := buffer.Encode(NewPushConstants(game.NewObject(&ids)))
	require.NoError(t, err)
	assert.Len(t, data, maxPushSize)
}

func TestNewPushConstants(t *testing.T) {
	var ids game.IDAllocator
	object := game.NewObject(&ids)
	object.Color = mgl32.Vec3{0.1, 0.8, 0.1}
	object.Transform.Translation = mgl32.Vec3{0, 0.5, 2.5}
	object.Transform.Scale = mgl32.Vec3{2, 2, 2}

	push := NewPushConstants(object)
	assert.Equal(t, object.Transform.Mat4(), push.ModelMatrix)
	assert.Equal(t, mgl32.Vec4{0.1, 0.8, 0.1, 1}, push.Color)

	// Uniform scale of 2 gives a normal matrix of 0.5 * identity.
	assert.InDelta(t, 0.5, push.NormalMatrix[0].X(), 1e-6)
	assert.InDelta(t, 0.5, push.NormalMatrix[1].Y(), 1e-6)
	assert.InDelta(t, 0.5, push.NormalMatrix[2].Z(), 1e-6)
	for _, column := range push.NormalMatrix {
		assert.Zero(t, column.W())
	}
}

func TestSpinWrapsAngles(t *testing.T) {
	var ids game.IDAllocator
	object := game.NewObject(&ids)
	object.Transform.Rotation = mgl32.Vec3{2*math32.Pi - spinX/2, 2*math32.Pi - spinY/2, 0.25}

	Spin(object)

	assert.InDelta(t, spinX/2, object.Transform.Rotation.X(), 1e-4)
	assert.InDelta(t, spinY/2, object.Transform.Rotation.Y(), 1e-4)
	assert.Equal(t, float32(0.25), object.Transform.Rotation.Z())

	for i := 0; i < 20000; i++ {
		Spin(object)
	}
	assert.Less(t, object.Transform.Rotation.Y(), float32(2*math32.Pi))
	assert.GreaterOrEqual(t, object.Transform.Rotation.Y(), float32(0))
}

func TestGlobalUBOLayout(t *testing.T) {
	data, err := buffer.Encode(GlobalUBO{
		ProjectionView: mgl32.Ident4(),
		LightDirection: DefaultLightDirection(),
	})
	require.NoError(t, err)
	assert.Len(t, data, 80)

	light := DefaultLightDirection()
	assert.InDelta(t, 1, light.Vec3().Len(), 1e-6)
	assert.Zero(t, light.W())
}

type fakeRenderPass struct {
	core1_0.RenderPass
	name string
}

type pipelineBuilds struct {
	renderPasses []core1_0.RenderPass
	err          error
}

func (b *pipelineBuilds) build(device core1_0.Device, vertPath, fragPath string, cfg pipeline.Config) (*pipeline.Pipeline, error) {
	b.renderPasses = append(b.renderPasses, cfg.RenderPass)
	if b.err != nil {
		return nil, b.err
	}
	return &pipeline.Pipeline{}, nil
}

func newReloadableSystem(renderPass core1_0.RenderPass, builds *pipelineBuilds) *SimpleRenderSystem {
	return &SimpleRenderSystem{
		logger:      logx.Discard(),
		renderPass:  renderPass,
		pipeline:    &pipeline.Pipeline{},
		newPipeline: builds.build,
	}
}

func TestReloadShadersUsesCurrentRenderPass(t *testing.T) {
	built := &fakeRenderPass{name: "built"}
	rebuilt := &fakeRenderPass{name: "rebuilt"}
	builds := &pipelineBuilds{}
	s := newReloadableSystem(built, builds)
	old := s.pipeline

	require.NoError(t, s.ReloadShaders(rebuilt))

	require.Len(t, builds.renderPasses, 1)
	assert.Same(t, rebuilt, builds.renderPasses[0])
	assert.NotSame(t, old, s.pipeline)
}

func TestFailedReloadKeepsPipeline(t *testing.T) {
	builds := &pipelineBuilds{err: errors.New("bad spirv")}
	s := newReloadableSystem(&fakeRenderPass{name: "built"}, builds)
	old := s.pipeline

	err := s.ReloadShaders(&fakeRenderPass{name: "rebuilt"})
	assert.ErrorContains(t, err, "bad spirv")
	assert.Same(t, old, s.pipeline)
}
