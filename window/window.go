// Package window owns the SDL window the engine presents to.
package window

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
	"github.com/vkngwrapper/lhll/logx"
)

// waitEventsTimeout bounds WaitEvents so a caller polling for a nonzero
// extent still notices a close request.
const waitEventsTimeout = 100

type Options struct {
	Title  string
	Width  int
	Height int
	Logger *slog.Logger
}

type Window struct {
	window *sdl.Window
	logger *slog.Logger

	shouldClose bool
	resized     bool
	minimized   bool
}

func New(opts Options) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	handle, err := sdl.CreateWindow(opts.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(opts.Width), int32(opts.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{
		window: handle,
		logger: logx.OrDiscard(opts.Logger).With("component", "window"),
	}, nil
}

// Loader returns a Vulkan loader bound to the library SDL loaded for this window.
func (w *Window) Loader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "create vulkan loader")
	}
	return loader, nil
}

func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance, surfaceLoader khr_surface.Extension) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(instance, surfaceLoader, w.window)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return surface, nil
}

// Extent is the drawable size in pixels. A minimized window reports 0x0.
func (w *Window) Extent() core1_0.Extent2D {
	if w.minimized || w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return core1_0.Extent2D{}
	}

	width, height := w.window.VulkanGetDrawableSize()
	return core1_0.Extent2D{Width: int(width), Height: int(height)}
}

func (w *Window) ShouldClose() bool {
	return w.shouldClose
}

func (w *Window) WasResized() bool {
	return w.resized
}

func (w *Window) ResetResizedFlag() {
	w.resized = false
}

// PollEvents drains pending events without blocking.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handleEvent(event)
	}
}

// WaitEvents blocks until an event arrives or a short timeout passes, then
// drains whatever is pending.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEventTimeout(waitEventsTimeout); event != nil {
		w.handleEvent(event)
	}
	w.PollEvents()
}

func (w *Window) KeyPressed(key sdl.Scancode) bool {
	state := sdl.GetKeyboardState()
	if int(key) >= len(state) {
		return false
	}
	return state[key] != 0
}

func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
