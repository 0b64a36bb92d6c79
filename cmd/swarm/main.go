package main

import (
	"flag"
	"math/rand"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swarm/app"
	"github.com/gekko3d/swarm/core"
	"github.com/gekko3d/swarm/telemetry"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	count := flag.Int("count", 2_000_000, "Instance count")
	gridWidth := flag.Uint("grid-width", core.DefaultGridWidth, "Dispatch grid row width")
	seed := flag.Int64("seed", 0, "Spawn seed (0 = random)")
	cpu := flag.Bool("cpu", false, "Integrate on the CPU instead of the GPU")
	palette := flag.Bool("palette", false, "Use the named-color palette instead of the positional gradient")
	telemetryAddr := flag.String("telemetry", "", "Telemetry listen address (empty = disabled)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := core.NewDefaultLogger("swarm", *debug)

	cfg := core.DefaultSpawnConfig(*count)
	if *seed != 0 {
		cfg.Rand = rand.New(rand.NewSource(*seed))
	}
	if *palette {
		cfg.Palette = core.DefaultPalette()
	}
	field := core.SpawnField(cfg)
	field.Grid.Width = uint32(*gridWidth)
	if err := field.Validate(); err != nil {
		logger.Errorf("Invalid field configuration: %v", err)
		return
	}
	logger.Infof("Spawned field %s with %d instances", field.Id, field.Count())

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1500, 900, "Swarm", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, field, logger)
	application.CPUIntegrate = *cpu
	if err := application.Init(); err != nil {
		panic(err)
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.HandleScroll(yoff)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	var tele *telemetry.Server
	if *telemetryAddr != "" {
		tele = telemetry.NewServer(logger)
		go func() {
			if err := tele.ListenAndServe(*telemetryAddr); err != nil {
				logger.Errorf("Telemetry server stopped: %v", err)
			}
		}()
	}

	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := application.Frame(); err != nil {
			logger.Errorf("Frame failed: %v", err)
			continue
		}

		if tele != nil && application.Tick%30 == 0 {
			tele.Publish(telemetry.Stats{
				FieldId:     field.Id,
				Tick:        application.Tick,
				Instances:   field.Count(),
				FrameMillis: application.FrameMillis,
				FPS:         application.FPS,
			})
		}
	}
}
