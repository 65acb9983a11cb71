// Package descriptor wraps descriptor set layouts, pools and writes behind
// small builders.
package descriptor

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

const DefaultMaxSets = 1000

type SetLayoutBuilder struct {
	device   core1_0.Device
	bindings map[int]core1_0.DescriptorSetLayoutBinding
}

func NewSetLayoutBuilder(device core1_0.Device) *SetLayoutBuilder {
	return &SetLayoutBuilder{
		device:   device,
		bindings: make(map[int]core1_0.DescriptorSetLayoutBinding),
	}
}

// AddBinding declares a binding. Declaring the same binding twice is a
// programming error.
func (b *SetLayoutBuilder) AddBinding(binding int, descriptorType core1_0.DescriptorType, stageFlags core1_0.ShaderStageFlags, count int) *SetLayoutBuilder {
	if _, exists := b.bindings[binding]; exists {
		panic(errors.AssertionFailedf("descriptor binding %d is already in use", binding))
	}

	b.bindings[binding] = core1_0.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: count,
		StageFlags:      stageFlags,
	}
	return b
}

func (b *SetLayoutBuilder) Build() (*SetLayout, error) {
	var bindings []core1_0.DescriptorSetLayoutBinding
	for _, binding := range b.bindings {
		bindings = append(bindings, binding)
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Binding < bindings[j].Binding })

	layout, _, err := b.device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}

	return &SetLayout{
		layout:   layout,
		bindings: b.bindings,
	}, nil
}

type SetLayout struct {
	layout   core1_0.DescriptorSetLayout
	bindings map[int]core1_0.DescriptorSetLayoutBinding
}

func (l *SetLayout) Handle() core1_0.DescriptorSetLayout { return l.layout }

func (l *SetLayout) Binding(binding int) (core1_0.DescriptorSetLayoutBinding, bool) {
	b, ok := l.bindings[binding]
	return b, ok
}

func (l *SetLayout) Destroy() {
	if l.layout != nil {
		l.layout.Destroy(nil)
		l.layout = nil
	}
}

type PoolBuilder struct {
	device    core1_0.Device
	poolSizes []core1_0.DescriptorPoolSize
	maxSets   int
	flags     core1_0.DescriptorPoolCreateFlags
}

func NewPoolBuilder(device core1_0.Device) *PoolBuilder {
	return &PoolBuilder{
		device:  device,
		maxSets: DefaultMaxSets,
	}
}

func (b *PoolBuilder) AddPoolSize(descriptorType core1_0.DescriptorType, count int) *PoolBuilder {
	b.poolSizes = append(b.poolSizes, core1_0.DescriptorPoolSize{
		Type:            descriptorType,
		DescriptorCount: count,
	})
	return b
}

func (b *PoolBuilder) SetPoolFlags(flags core1_0.DescriptorPoolCreateFlags) *PoolBuilder {
	b.flags = flags
	return b
}

func (b *PoolBuilder) SetMaxSets(count int) *PoolBuilder {
	b.maxSets = count
	return b
}

func (b *PoolBuilder) Build() (*Pool, error) {
	if len(b.poolSizes) == 0 {
		return nil, errors.New("descriptor pool needs at least one pool size")
	}

	pool, _, err := b.device.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		Flags:     b.flags,
		MaxSets:   b.maxSets,
		PoolSizes: b.poolSizes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}

	return &Pool{device: b.device, pool: pool}, nil
}

type Pool struct {
	device core1_0.Device
	pool   core1_0.DescriptorPool
}

func (p *Pool) Allocate(layout *SetLayout) (core1_0.DescriptorSet, error) {
	sets, _, err := p.device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.pool,
		SetLayouts:     []core1_0.DescriptorSetLayout{layout.Handle()},
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor set")
	}
	return sets[0], nil
}

// Free returns sets to the pool. The pool must have been built with
// DescriptorPoolCreateFreeDescriptorSet.
func (p *Pool) Free(sets []core1_0.DescriptorSet) error {
	if len(sets) == 0 {
		return nil
	}
	if _, err := p.device.FreeDescriptorSets(sets); err != nil {
		return errors.Wrap(err, "free descriptor sets")
	}
	return nil
}

func (p *Pool) Reset() error {
	if _, err := p.pool.Reset(0); err != nil {
		return errors.Wrap(err, "reset descriptor pool")
	}
	return nil
}

func (p *Pool) Destroy() {
	if p.pool != nil {
		p.pool.Destroy(nil)
		p.pool = nil
	}
}
