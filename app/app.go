package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swarm/core"
	"github.com/gekko3d/swarm/gpu"
)

// App is the host harness around the integrate kernel: window, device,
// buffers, the compute pass and the render pass that consumes its output.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Buffers    *gpu.FieldBufferManager
	Integrate  *gpu.IntegratePass
	RenderPass *gpu.FieldRenderPass

	Field  *core.Field
	Camera *core.Camera
	Log    core.Logger

	// CPUIntegrate switches integration to the host reference path, with a
	// full transform re-upload each tick.
	CPUIntegrate bool

	Profiler *Profiler
	Tick     uint64

	FrameCount     int
	FPS            float64
	FPSTime        float64
	LastRenderTime float64
	FrameMillis    float64
}

func NewApp(window *glfw.Window, field *core.Field, logger core.Logger) *App {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	w, h := window.GetFramebufferSize()
	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / float32(h)
	}
	return &App{
		Window:   window,
		Field:    field,
		Camera:   core.NewCamera(aspect),
		Log:      logger,
		Profiler: NewProfiler(),
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)

	surface := a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))
	a.Surface = surface

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, a.Device, a.Config)

	a.Buffers = gpu.NewFieldBufferManager(a.Device)
	if err := a.Buffers.Upload(a.Field); err != nil {
		return fmt.Errorf("upload field: %w", err)
	}
	if err := a.Buffers.CreateBindGroupLayout(); err != nil {
		return fmt.Errorf("field bind group layout: %w", err)
	}

	a.Integrate, err = gpu.NewIntegratePass(a.Device, a.Field.Grid, a.Buffers.BindGroupLayout)
	if err != nil {
		return fmt.Errorf("integrate pipeline: %w", err)
	}
	if err := a.Buffers.EnsureBindGroup(); err != nil {
		return fmt.Errorf("field bind group: %w", err)
	}

	a.RenderPass, err = gpu.NewFieldRenderPass(a.Device, format)
	if err != nil {
		return fmt.Errorf("render pipeline: %w", err)
	}

	a.LastRenderTime = glfw.GetTime()
	a.Log.Infof("Initialized: %d instances, grid width %d", a.Field.Count(), a.Field.Grid.Width)
	return nil
}

func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.Config.Width = uint32(width)
	a.Config.Height = uint32(height)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	a.Camera.Aspect = float32(width) / float32(height)
}

// HandleScroll dollies the camera along z.
func (a *App) HandleScroll(yoff float64) {
	a.Camera.Dolly(float32(yoff) * 10.0)
}

// Frame runs one simulation tick and one render. The integrate pass and the
// render pass that reads the transform buffer are recorded into the same
// encoder, so the queue serializes them; no extra synchronization is needed.
func (a *App) Frame() error {
	a.Profiler.BeginScope("frame")

	// The preconditions the kernel cannot check: validate before every
	// dispatch.
	if err := a.Field.Validate(); err != nil {
		return fmt.Errorf("dispatch precondition: %w", err)
	}

	if a.CPUIntegrate {
		a.Profiler.BeginScope("integrate_cpu")
		if err := a.Field.StepCPU(); err != nil {
			return err
		}
		a.Buffers.WriteTransforms(a.Field.Transforms)
		a.Profiler.EndScope("integrate_cpu")
	}

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}

	if !a.CPUIntegrate {
		a.Integrate.Dispatch(encoder, a.Buffers.BindGroup, a.Buffers.Count)
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	a.RenderPass.Record(rPass, a.Buffers.TransformBuf, a.Buffers.Count)
	rPass.End()

	a.RenderPass.UpdateCamera(a.Queue, a.Camera.ViewProjection())

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder finish: %w", err)
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	a.Tick++
	a.Profiler.EndScope("frame")
	a.FrameMillis = a.Profiler.Millis("frame")
	a.updateFPS()
	return nil
}

func (a *App) updateFPS() {
	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			a.Log.Debugf("%.1f fps, %.2f ms frame, %d instances", a.FPS, a.FrameMillis, a.Field.Count())
		}
	}
	a.LastRenderTime = now
}
