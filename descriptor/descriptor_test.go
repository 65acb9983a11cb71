package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

func TestAddBindingRejectsDuplicates(t *testing.T) {
	b := NewSetLayoutBuilder(nil).
		AddBinding(0, core1_0.DescriptorTypeUniformBuffer, core1_0.StageVertex|core1_0.StageFragment, 1)

	assert.Panics(t, func() {
		b.AddBinding(0, core1_0.DescriptorTypeCombinedImageSampler, core1_0.StageFragment, 1)
	})

	b.AddBinding(1, core1_0.DescriptorTypeCombinedImageSampler, core1_0.StageFragment, 1)
	assert.Len(t, b.bindings, 2)
	assert.Equal(t, core1_0.DescriptorTypeUniformBuffer, b.bindings[0].DescriptorType)
}

func TestPoolBuilderDefaults(t *testing.T) {
	b := NewPoolBuilder(nil)
	assert.Equal(t, DefaultMaxSets, b.maxSets)

	b.SetMaxSets(3).AddPoolSize(core1_0.DescriptorTypeUniformBuffer, 3)
	assert.Equal(t, 3, b.maxSets)
	require.Len(t, b.poolSizes, 1)
	assert.Equal(t, 3, b.poolSizes[0].DescriptorCount)

	_, err := NewPoolBuilder(nil).Build()
	assert.Error(t, err)
}

func testLayout() *SetLayout {
	return &SetLayout{
		bindings: map[int]core1_0.DescriptorSetLayoutBinding{
			0: {Binding: 0, DescriptorType: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 1},
			1: {Binding: 1, DescriptorType: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 1},
			2: {Binding: 2, DescriptorType: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 4},
		},
	}
}

func TestWriterTakesTypeFromLayout(t *testing.T) {
	w := NewWriter(testLayout(), nil).
		WriteBuffer(0, core1_0.DescriptorBufferInfo{Offset: 0, Range: 64}).
		WriteImage(1, core1_0.DescriptorImageInfo{ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal})

	require.Len(t, w.writes, 2)
	assert.Equal(t, core1_0.DescriptorTypeUniformBuffer, w.writes[0].DescriptorType)
	assert.Equal(t, 64, w.writes[0].BufferInfo[0].Range)
	assert.Equal(t, core1_0.DescriptorTypeCombinedImageSampler, w.writes[1].DescriptorType)
	assert.Len(t, w.writes[1].ImageInfo, 1)
}

func TestWriterRejectsBadBindings(t *testing.T) {
	w := NewWriter(testLayout(), nil)

	assert.Panics(t, func() { w.WriteBuffer(7, core1_0.DescriptorBufferInfo{}) })
	assert.Panics(t, func() { w.WriteBuffer(2, core1_0.DescriptorBufferInfo{}) })
	assert.Empty(t, w.writes)
}
