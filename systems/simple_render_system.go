package systems

import (
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/buffer"
	"github.com/vkngwrapper/lhll/game"
	"github.com/vkngwrapper/lhll/logx"
	"github.com/vkngwrapper/lhll/model"
	"github.com/vkngwrapper/lhll/pipeline"
)

const (
	VertShader = "simple_shader.vert.spv"
	FragShader = "simple_shader.frag.spv"

	pushStages = core1_0.StageVertex | core1_0.StageFragment
	// Guaranteed minimum maxPushConstantsSize
	maxPushSize = 128

	spinY float32 = 0.001
	spinX float32 = 0.0005
)

// PushConstants is the per-object payload. The normal matrix is stored as
// three vec4 columns to match std430 mat3 layout.
type PushConstants struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix [3]mgl32.Vec4
	Color        mgl32.Vec4
}

func NewPushConstants(object *game.Object) PushConstants {
	normal := object.Transform.NormalMatrix()
	return PushConstants{
		ModelMatrix: object.Transform.Mat4(),
		NormalMatrix: [3]mgl32.Vec4{
			normal.Col(0).Vec4(0),
			normal.Col(1).Vec4(0),
			normal.Col(2).Vec4(0),
		},
		Color: object.Color.Vec4(1),
	}
}

type SimpleRenderSystem struct {
	logger *slog.Logger

	device         core1_0.Device
	renderPass     core1_0.RenderPass
	pipelineLayout core1_0.PipelineLayout
	pipeline       *pipeline.Pipeline
	newPipeline    func(device core1_0.Device, vertPath, fragPath string, cfg pipeline.Config) (*pipeline.Pipeline, error)

	vertPath string
	fragPath string
}

func NewSimpleRenderSystem(device core1_0.Device, renderPass core1_0.RenderPass, globalSetLayout core1_0.DescriptorSetLayout, shaderDir string, logger *slog.Logger) (*SimpleRenderSystem, error) {
	s := &SimpleRenderSystem{
		logger:      logx.OrDiscard(logger).With("component", "simple-render-system"),
		device:      device,
		renderPass:  renderPass,
		newPipeline: pipeline.New,
		vertPath:    filepath.Join(shaderDir, VertShader),
		fragPath:    filepath.Join(shaderDir, FragShader),
	}

	if err := s.createPipelineLayout(globalSetLayout); err != nil {
		return nil, err
	}

	p, err := s.createPipeline()
	if err != nil {
		s.pipelineLayout.Destroy(nil)
		return nil, err
	}
	s.pipeline = p

	return s, nil
}

func (s *SimpleRenderSystem) createPipelineLayout(globalSetLayout core1_0.DescriptorSetLayout) error {
	layout, _, err := s.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: []core1_0.DescriptorSetLayout{
			globalSetLayout,
		},
		PushConstantRanges: []core1_0.PushConstantRange{
			{
				StageFlags: pushStages,
				Offset:     0,
				Size:       maxPushSize,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	s.pipelineLayout = layout
	return nil
}

func (s *SimpleRenderSystem) createPipeline() (*pipeline.Pipeline, error) {
	cfg := pipeline.DefaultConfig()
	cfg.BindingDescriptions = model.BindingDescriptions()
	cfg.AttributeDescriptions = model.AttributeDescriptions()
	cfg.Layout = s.pipelineLayout
	cfg.RenderPass = s.renderPass

	return s.newPipeline(s.device, s.vertPath, s.fragPath, cfg)
}

// Uses reports whether the system's pipeline is built from the shader at path.
func (s *SimpleRenderSystem) Uses(path string) bool {
	return s.pipeline.Uses(path)
}

// ReloadShaders rebuilds the pipeline from the shader files on disk against
// renderPass, the swap chain's current render pass. Earlier render passes may
// already be destroyed by a rebuild. The old pipeline stays in use if the
// rebuild fails. The device must be idle.
func (s *SimpleRenderSystem) ReloadShaders(renderPass core1_0.RenderPass) error {
	s.renderPass = renderPass

	p, err := s.createPipeline()
	if err != nil {
		return errors.Wrap(err, "reload shaders")
	}

	s.pipeline.Destroy()
	s.pipeline = p
	s.logger.Info("shaders reloaded", "vert", s.vertPath, "frag", s.fragPath)
	return nil
}

// RenderGameObjects spins every object a little and draws it.
func (s *SimpleRenderSystem) RenderGameObjects(frame FrameInfo) error {
	s.pipeline.Bind(frame.CommandBuffer)

	frame.CommandBuffer.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, s.pipelineLayout, []core1_0.DescriptorSet{
		frame.GlobalDescriptorSet,
	}, nil)

	for _, object := range frame.GameObjects {
		if object.Model == nil {
			continue
		}

		Spin(object)

		data, err := buffer.Encode(NewPushConstants(object))
		if err != nil {
			return err
		}
		frame.CommandBuffer.CmdPushConstants(s.pipelineLayout, pushStages, 0, data)

		object.Model.Bind(frame.CommandBuffer)
		object.Model.Draw(frame.CommandBuffer)
	}

	return nil
}

func (s *SimpleRenderSystem) Destroy() {
	if s.pipeline != nil {
		s.pipeline.Destroy()
		s.pipeline = nil
	}
	if s.pipelineLayout != nil {
		s.pipelineLayout.Destroy(nil)
		s.pipelineLayout = nil
	}
}

// Spin advances the idle animation by one frame, keeping angles in [0, 2π).
func Spin(object *game.Object) {
	rotation := &object.Transform.Rotation
	rotation[1] = game.WrapAngle(rotation[1] + spinY)
	rotation[0] = game.WrapAngle(rotation[0] + spinX)
}
