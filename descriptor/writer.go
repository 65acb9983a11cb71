package descriptor

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// Writer collects the writes for one descriptor set and applies them in a
// single update.
type Writer struct {
	layout *SetLayout
	pool   *Pool
	writes []core1_0.WriteDescriptorSet
}

func NewWriter(layout *SetLayout, pool *Pool) *Writer {
	return &Writer{layout: layout, pool: pool}
}

func (w *Writer) WriteBuffer(binding int, info core1_0.DescriptorBufferInfo) *Writer {
	description := w.singleBinding(binding)
	w.writes = append(w.writes, core1_0.WriteDescriptorSet{
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorType:  description.DescriptorType,
		BufferInfo:      []core1_0.DescriptorBufferInfo{info},
	})
	return w
}

func (w *Writer) WriteImage(binding int, info core1_0.DescriptorImageInfo) *Writer {
	description := w.singleBinding(binding)
	w.writes = append(w.writes, core1_0.WriteDescriptorSet{
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorType:  description.DescriptorType,
		ImageInfo:       []core1_0.DescriptorImageInfo{info},
	})
	return w
}

func (w *Writer) singleBinding(binding int) core1_0.DescriptorSetLayoutBinding {
	description, ok := w.layout.Binding(binding)
	if !ok {
		panic(errors.AssertionFailedf("layout does not contain binding %d", binding))
	}
	if description.DescriptorCount != 1 {
		panic(errors.AssertionFailedf("binding %d expects %d descriptors, writer only writes one", binding, description.DescriptorCount))
	}
	return description
}

// Build allocates a set from the pool and writes into it.
func (w *Writer) Build() (core1_0.DescriptorSet, error) {
	set, err := w.pool.Allocate(w.layout)
	if err != nil {
		return nil, err
	}
	if err := w.Overwrite(set); err != nil {
		return nil, err
	}
	return set, nil
}

func (w *Writer) Overwrite(set core1_0.DescriptorSet) error {
	writes := make([]core1_0.WriteDescriptorSet, len(w.writes))
	for i, write := range w.writes {
		write.DstSet = set
		writes[i] = write
	}

	if err := w.pool.device.UpdateDescriptorSets(writes, nil); err != nil {
		return errors.Wrap(err, "update descriptor set")
	}
	return nil
}
