package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/lhll/logx"
)

func newTestWindow() *Window {
	return &Window{logger: logx.Discard()}
}

func TestQuitClosesWindow(t *testing.T) {
	w := newTestWindow()
	assert.False(t, w.ShouldClose())

	w.handleEvent(&sdl.QuitEvent{})
	assert.True(t, w.ShouldClose())
}

func TestCloseEventClosesWindow(t *testing.T) {
	w := newTestWindow()
	w.handleEvent(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_CLOSE})
	assert.True(t, w.ShouldClose())
}

func TestResizeFlagIsStickyUntilReset(t *testing.T) {
	w := newTestWindow()

	w.handleEvent(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 1024, Data2: 768})
	assert.True(t, w.WasResized())

	w.handleEvent(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED})
	assert.True(t, w.WasResized())

	w.ResetResizedFlag()
	assert.False(t, w.WasResized())
}

func TestMinimizeAndRestore(t *testing.T) {
	w := newTestWindow()

	w.handleEvent(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED})
	assert.True(t, w.minimized)
	assert.False(t, w.WasResized())

	w.handleEvent(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESTORED})
	assert.False(t, w.minimized)
	assert.True(t, w.WasResized())
}

func TestMinimizedExtentIsZero(t *testing.T) {
	w := newTestWindow()
	w.minimized = true

	extent := w.Extent()
	assert.Zero(t, extent.Width)
	assert.Zero(t, extent.Height)
}
