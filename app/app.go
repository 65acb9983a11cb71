// Package app wires the window, device, renderer and render systems together
// and runs the frame loop.
package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/lhll/buffer"
	"github.com/vkngwrapper/lhll/camera"
	"github.com/vkngwrapper/lhll/config"
	"github.com/vkngwrapper/lhll/controller"
	"github.com/vkngwrapper/lhll/descriptor"
	"github.com/vkngwrapper/lhll/device"
	"github.com/vkngwrapper/lhll/game"
	"github.com/vkngwrapper/lhll/logx"
	"github.com/vkngwrapper/lhll/model"
	"github.com/vkngwrapper/lhll/pipeline"
	"github.com/vkngwrapper/lhll/renderer"
	"github.com/vkngwrapper/lhll/swapchain"
	"github.com/vkngwrapper/lhll/systems"
	"github.com/vkngwrapper/lhll/window"
)

const (
	fieldOfView = 50
	nearPlane   = 0.1
	farPlane    = 10
)

type App struct {
	cfg    config.Config
	logger *slog.Logger

	window   *window.Window
	device   *device.Device
	renderer *renderer.Renderer

	globalPool      *descriptor.Pool
	globalSetLayout *descriptor.SetLayout
	uboBuffers      []*buffer.Buffer
	globalSets      []core1_0.DescriptorSet

	renderSystem *systems.SimpleRenderSystem
	watcher      *pipeline.Watcher

	ids     game.IDAllocator
	objects game.Map

	release device.Releaser
}

// Run opens the window and renders until it is closed.
func Run(cfg config.Config, logger *slog.Logger) error {
	a, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logx.OrDiscard(logger),
		objects: game.Map{},
	}

	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	var err error

	a.window, err = window.New(window.Options{
		Title:  a.cfg.Window.Title,
		Width:  a.cfg.Window.Width,
		Height: a.cfg.Window.Height,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	a.release.Add(a.window.Destroy)

	loader, err := a.window.Loader()
	if err != nil {
		return err
	}

	a.device, err = device.New(loader, a.window, device.Options{
		ApplicationName: a.cfg.Window.Title,
		Validation:      a.cfg.Renderer.Validation,
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}
	a.release.Add(a.device.Destroy)

	chains := renderer.SwapChainFactory(a.device, swapchain.Options{
		MaxFramesInFlight: a.cfg.Renderer.MaxFramesInFlight,
		VSync:             a.cfg.Renderer.VSync,
		FenceTimeout:      a.cfg.Renderer.FenceTimeout.Duration,
		Logger:            a.logger,
	})
	a.renderer, err = renderer.New(a.window, a.device, chains, renderer.Options{
		ClearColor: a.cfg.Renderer.ClearColor,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	a.release.Add(a.renderer.Destroy)

	// Closed while still minimized, there is no swap chain to build on.
	if a.window.ShouldClose() {
		return nil
	}

	if err := a.createGlobalDescriptors(); err != nil {
		return err
	}

	a.renderSystem, err = systems.NewSimpleRenderSystem(a.device.Device(), a.renderer.RenderPass(), a.globalSetLayout.Handle(), a.cfg.Assets.ShaderDir, a.logger)
	if err != nil {
		return err
	}
	a.release.Add(a.renderSystem.Destroy)

	if a.cfg.Assets.WatchShaders {
		a.watcher, err = pipeline.Watch(a.cfg.Assets.ShaderDir, a.logger)
		if err != nil {
			return err
		}
		a.release.Add(func() {
			if err := a.watcher.Close(); err != nil {
				a.logger.Warn("closing shader watcher", "error", err)
			}
		})
	}

	return a.loadGameObjects()
}

// createGlobalDescriptors makes one uniform buffer and descriptor set per
// possible frame slot. The slot count can shrink when the swap chain is
// rebuilt, so size for the configured maximum.
func (a *App) createGlobalDescriptors() error {
	slots := a.cfg.Renderer.MaxFramesInFlight
	vkDevice := a.device.Device()

	var err error
	a.globalPool, err = descriptor.NewPoolBuilder(vkDevice).
		SetMaxSets(slots).
		AddPoolSize(core1_0.DescriptorTypeUniformBuffer, slots).
		Build()
	if err != nil {
		return err
	}
	a.release.Add(a.globalPool.Destroy)

	a.globalSetLayout, err = descriptor.NewSetLayoutBuilder(vkDevice).
		AddBinding(0, core1_0.DescriptorTypeUniformBuffer, core1_0.StageVertex|core1_0.StageFragment, 1).
		Build()
	if err != nil {
		return err
	}
	a.release.Add(a.globalSetLayout.Destroy)

	uboSize := len(mustEncode(systems.GlobalUBO{}))
	for i := 0; i < slots; i++ {
		ubo, err := buffer.New(a.device, uboSize, 1,
			core1_0.BufferUsageUniformBuffer,
			core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, 0)
		if err != nil {
			return err
		}
		a.release.Add(ubo.Destroy)

		if err := ubo.Map(); err != nil {
			return err
		}
		a.uboBuffers = append(a.uboBuffers, ubo)

		set, err := descriptor.NewWriter(a.globalSetLayout, a.globalPool).
			WriteBuffer(0, ubo.DescriptorInfo()).
			Build()
		if err != nil {
			return err
		}
		a.globalSets = append(a.globalSets, set)
	}

	return nil
}

func mustEncode(data any) []byte {
	encoded, err := buffer.Encode(data)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "encode %T", data))
	}
	return encoded
}

// loadGameObjects places every model in the model directory in a row in
// front of the camera.
func (a *App) loadGameObjects() error {
	paths, err := filepath.Glob(filepath.Join(a.cfg.Assets.ModelDir, "*.obj"))
	if err != nil {
		return errors.Wrap(err, "list models")
	}
	if len(paths) == 0 {
		return errors.Wrapf(os.ErrNotExist, "no .obj models in %s", a.cfg.Assets.ModelDir)
	}
	sort.Strings(paths)

	for i, path := range paths {
		m, err := model.FromFile(a.device, path)
		if err != nil {
			return err
		}
		a.release.Add(m.Destroy)

		object := game.NewObject(&a.ids)
		object.Model = m
		object.Color = palette[i%len(palette)]
		object.Transform = rowPlacement(i, len(paths))
		a.objects.Add(object)

		a.logger.Debug("loaded model", "path", path, "id", object.ID(), "vertices", m.VertexCount(), "indices", m.IndexCount())
	}

	return nil
}

// rowPlacement spaces count objects one unit apart along x, centered on the
// camera's default target.
func rowPlacement(index, count int) game.Transform {
	t := game.NewTransform()
	t.Translation = mgl32.Vec3{float32(index) - float32(count-1)/2, 0.5, 2.5}
	t.Scale = mgl32.Vec3{0.5, 0.5, 0.5}
	return t
}

var palette = []mgl32.Vec3{
	{0.8, 0.8, 0.8},
	{0.1, 0.8, 0.1},
	{0.8, 0.1, 0.1},
	{0.1, 0.1, 0.8},
}

func (a *App) Run() error {
	if a.renderSystem == nil {
		return nil
	}

	cam := camera.New()
	cam.SetViewTarget(mgl32.Vec3{-1, -2, 2}, mgl32.Vec3{0, 0, 2.5}, mgl32.Vec3{0, -1, 0})

	viewer := game.NewObject(&a.ids)
	movement := controller.NewKeyboardMovement()

	lastTime := hrtime.Now()
	for {
		a.window.PollEvents()
		if a.window.ShouldClose() {
			break
		}

		now := hrtime.Now()
		frameTime := float32((now - lastTime).Seconds())
		lastTime = now

		a.reloadShaders()

		movement.MoveInPlaneXZ(a.window, frameTime, viewer)
		cam.SetViewYXZ(viewer.Transform.Translation, viewer.Transform.Rotation)

		if aspect := a.renderer.AspectRatio(); aspect > 0 {
			cam.SetPerspectiveProjection(mgl32.DegToRad(fieldOfView), aspect, nearPlane, farPlane)
		}

		if err := a.drawFrame(cam, frameTime); err != nil {
			return err
		}
	}

	return a.device.WaitIdle()
}

func (a *App) drawFrame(cam *camera.Camera, frameTime float32) error {
	commandBuffer, err := a.renderer.BeginFrame()
	if err != nil {
		return err
	}
	if commandBuffer == nil {
		return nil
	}

	frame := systems.FrameInfo{
		FrameIndex:          a.renderer.FrameIndex(),
		FrameTime:           frameTime,
		CommandBuffer:       commandBuffer,
		Camera:              cam,
		GlobalDescriptorSet: a.globalSets[a.renderer.FrameIndex()],
		GameObjects:         a.objects,
	}

	ubo := a.uboBuffers[frame.FrameIndex]
	err = ubo.WriteToBuffer(systems.GlobalUBO{
		ProjectionView: cam.ProjectionView(),
		LightDirection: systems.DefaultLightDirection(),
	}, 0)
	if err != nil {
		return err
	}
	if err := ubo.Flush(); err != nil {
		return err
	}

	if err := a.renderer.BeginSwapChainRenderPass(commandBuffer); err != nil {
		return err
	}
	if err := a.renderSystem.RenderGameObjects(frame); err != nil {
		return err
	}
	a.renderer.EndSwapChainRenderPass(commandBuffer)

	return a.renderer.EndFrame()
}

// reloadShaders rebuilds pipelines whose shaders changed on disk. A shader
// that fails to load leaves the previous pipeline in place.
func (a *App) reloadShaders() {
	if a.watcher == nil {
		return
	}

	changed := a.watcher.Changed()
	reload := false
	for _, path := range changed {
		if a.renderSystem.Uses(path) {
			reload = true
		}
	}
	if !reload {
		return
	}

	if err := a.device.WaitIdle(); err != nil {
		a.logger.Error("waiting for idle before shader reload", "error", err)
		return
	}
	if err := a.renderSystem.ReloadShaders(a.renderer.RenderPass()); err != nil {
		a.logger.Error("shader reload failed, keeping previous pipeline", "error", err)
	}
}

// Close waits for the GPU to finish and releases everything in reverse order
// of creation. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.device != nil {
		if err := a.device.WaitIdle(); err != nil {
			a.logger.Error("device did not go idle before shutdown", "error", err)
		}
	}
	a.release.Release()
}
