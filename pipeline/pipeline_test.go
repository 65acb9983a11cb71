package pipeline

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

func spirv(words ...uint32) []byte {
	b := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(b, spirvMagic)
	for i, word := range words {
		binary.LittleEndian.PutUint32(b[4*(i+1):], word)
	}
	return b
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestReadShader(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.spv")
	writeFile(t, valid, spirv(0x00010000, 0xdeadbeef))
	code, err := ReadShader(valid)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000, 0xdeadbeef}, code)

	ragged := filepath.Join(dir, "ragged.spv")
	writeFile(t, ragged, append(spirv(), 0x01))
	_, err = ReadShader(ragged)
	assert.ErrorIs(t, err, ErrInvalidShader)

	glsl := filepath.Join(dir, "shader.vert")
	writeFile(t, glsl, []byte("#version 450\n\x00\x00\x00"))
	_, err = ReadShader(glsl)
	assert.ErrorIs(t, err, ErrInvalidShader)

	_, err = ReadShader(filepath.Join(dir, "missing.spv"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.ElementsMatch(t, []core1_0.DynamicState{core1_0.DynamicStateViewport, core1_0.DynamicStateScissor}, cfg.DynamicStates)
	assert.Len(t, cfg.Viewport.Viewports, 1)
	assert.Len(t, cfg.Viewport.Scissors, 1)
	assert.True(t, cfg.DepthStencil.DepthTestEnable)
	assert.Equal(t, core1_0.CompareOpLess, cfg.DepthStencil.DepthCompareOp)
	assert.Equal(t, core1_0.PrimitiveTopologyTriangleList, cfg.InputAssembly.Topology)
	assert.Equal(t, core1_0.CullModeNone, cfg.Rasterization.CullMode)
	require.Len(t, cfg.ColorBlend.Attachments, 1)
	assert.False(t, cfg.ColorBlend.Attachments[0].BlendEnabled)
}

func TestNewRequiresLayoutAndRenderPass(t *testing.T) {
	_, err := New(nil, "a.spv", "b.spv", DefaultConfig())
	assert.ErrorContains(t, err, "no layout")
}

func TestUses(t *testing.T) {
	p := &Pipeline{vertPath: filepath.Clean("shaders/simple.vert.spv"), fragPath: filepath.Clean("shaders/simple.frag.spv")}

	assert.True(t, p.Uses("shaders/simple.vert.spv"))
	assert.True(t, p.Uses("./shaders/../shaders/simple.frag.spv"))
	assert.False(t, p.Uses("shaders/other.frag.spv"))
}

func TestWatcherReportsShaderChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, nil)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))
	path := filepath.Join(dir, "simple.frag.spv")
	writeFile(t, path, spirv())

	select {
	case changed := <-w.Changes():
		assert.Equal(t, path, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestChangedDeduplicates(t *testing.T) {
	w := &Watcher{changes: make(chan string, 4)}
	w.changes <- "a.spv"
	w.changes <- "b.spv"
	w.changes <- "a.spv"

	assert.Equal(t, []string{"a.spv", "b.spv"}, w.Changed())
	assert.Empty(t, w.Changed())
}
