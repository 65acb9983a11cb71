// Package pipeline builds graphics pipelines from compiled SPIR-V shaders and
// watches the shader directory so pipelines can be rebuilt while running.
package pipeline

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

const spirvMagic = 0x07230203

var ErrInvalidShader = errors.New("not a SPIR-V module")

type Pipeline struct {
	pipeline core1_0.Pipeline

	vertPath string
	fragPath string
}

func New(device core1_0.Device, vertPath, fragPath string, cfg Config) (*Pipeline, error) {
	if cfg.Layout == nil {
		return nil, errors.AssertionFailedf("pipeline config has no layout")
	}
	if cfg.RenderPass == nil {
		return nil, errors.AssertionFailedf("pipeline config has no render pass")
	}

	vertShader, err := createShaderModule(device, vertPath)
	if err != nil {
		return nil, err
	}
	defer vertShader.Destroy(nil)

	fragShader, err := createShaderModule(device, fragPath)
	if err != nil {
		return nil, err
	}
	defer fragShader.Destroy(nil)

	pipelines, _, err := device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
				VertexBindingDescriptions:   cfg.BindingDescriptions,
				VertexAttributeDescriptions: cfg.AttributeDescriptions,
			},
			InputAssemblyState: &cfg.InputAssembly,
			ViewportState:      &cfg.Viewport,
			RasterizationState: &cfg.Rasterization,
			MultisampleState:   &cfg.Multisample,
			DepthStencilState:  &cfg.DepthStencil,
			ColorBlendState:    &cfg.ColorBlend,
			DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
				DynamicStates: cfg.DynamicStates,
			},
			Layout:            cfg.Layout,
			RenderPass:        cfg.RenderPass,
			Subpass:           cfg.Subpass,
			BasePipelineIndex: -1,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create graphics pipeline from %s and %s", vertPath, fragPath)
	}

	return &Pipeline{
		pipeline: pipelines[0],
		vertPath: filepath.Clean(vertPath),
		fragPath: filepath.Clean(fragPath),
	}, nil
}

func (p *Pipeline) Bind(buffer core1_0.CommandBuffer) {
	buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, p.pipeline)
}

// Uses reports whether path is one of the pipeline's shader files.
func (p *Pipeline) Uses(path string) bool {
	path = filepath.Clean(path)
	return path == p.vertPath || path == p.fragPath
}

func (p *Pipeline) Destroy() {
	if p.pipeline != nil {
		p.pipeline.Destroy(nil)
		p.pipeline = nil
	}
}

func createShaderModule(device core1_0.Device, path string) (core1_0.ShaderModule, error) {
	code, err := ReadShader(path)
	if err != nil {
		return nil, err
	}

	module, _, err := device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %s", path)
	}
	return module, nil
}

// ReadShader loads a compiled SPIR-V file as 32-bit words.
func ReadShader(path string) ([]uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}

	code, err := bytesToBytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) < 4 || len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidShader, "length %d is not a whole number of words", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Wrapf(ErrInvalidShader, "magic number %#x", byteCode[0])
	}
	return byteCode, nil
}
