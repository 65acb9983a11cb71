package buffer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignment(t *testing.T) {
	assert.Equal(t, 80, Alignment(80, 0))
	assert.Equal(t, 80, Alignment(80, 1))
	assert.Equal(t, 80, Alignment(80, 16))
	assert.Equal(t, 256, Alignment(80, 256))
	assert.Equal(t, 512, Alignment(257, 256))
	assert.Equal(t, 64, Alignment(64, 64))
}

func TestEncodeUsesPackedLayout(t *testing.T) {
	data, err := Encode(struct {
		Transform mgl32.Mat4
		Color     mgl32.Vec4
	}{
		Transform: mgl32.Ident4(),
		Color:     mgl32.Vec4{1, 0, 0, 1},
	})
	require.NoError(t, err)
	assert.Len(t, data, 80)

	indices, err := Encode([]uint32{0, 1, 2})
	require.NoError(t, err)
	assert.Len(t, indices, 12)
}

func TestEncodeRejectsVariableSizedData(t *testing.T) {
	_, err := Encode(map[string]int{"a": 1})
	assert.Error(t, err)
}

func TestWriteRequiresMapping(t *testing.T) {
	b := &Buffer{bufferSize: 16, instanceSize: 16, instanceCount: 1, alignmentSize: 16}
	assert.Error(t, b.WriteToBuffer([]uint32{1}, 0))
	assert.Error(t, b.WriteToIndex([]uint32{1}, 1))
}

func TestWriteIntoMappedMemory(t *testing.T) {
	backing := make([]byte, 64)
	b := &Buffer{bufferSize: 64, instanceSize: 8, instanceCount: 2, alignmentSize: 32}
	b.mapped = unsafePointer(backing)

	require.NoError(t, b.WriteToIndex([]uint32{7, 9}, 1))
	assert.Equal(t, []byte{7, 0, 0, 0, 9, 0, 0, 0}, backing[32:40])
	assert.Equal(t, make([]byte, 32), backing[:32])

	assert.Error(t, b.WriteToBuffer(make([]byte, 8), 60), "write past the end")

	info := b.DescriptorInfoForIndex(1)
	assert.Equal(t, 32, info.Offset)
	assert.Equal(t, 8, info.Range)
}
