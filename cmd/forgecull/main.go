// Command forgecull is the §6 CLI entrypoint: it parses the scene-mode
// selector and glTF paths, opens a window, constructs the renderer façade
// (engine/forge), loads the requested scene on a background loader
// goroutine while the main thread presents a waiting screen, then drives
// the steady-state draw loop until the user quits (Escape) or the device is
// lost. Grounded on engine/engine.go's Run/ProcessMessages pattern and
// examples/scene.go's camera/window wiring, but replaces oxy-go's
// three-goroutine engine loop with the two-thread (main + loader) model
// spec §5 requires.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/duskforge/forgecull/engine/camera"
	"github.com/duskforge/forgecull/engine/renderer"
	"github.com/duskforge/forgecull/engine/window"
	"github.com/duskforge/forgecull/forgeconfig"
	"github.com/duskforge/forgecull/forgelog"
)

func main() {
	cfg, err := forgeconfig.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	win := window.NewWindow(
		window.WithTitle("forgecull — "+cfg.Mode.String()),
		window.WithWidth(cfg.Width),
		window.WithHeight(cfg.Height),
	)

	presentMode := renderer.PresentModeVSync
	if cfg.PresentMode == "uncapped" {
		presentMode = renderer.PresentModeUncapped
	}
	msaa := renderer.MSAAOff
	if cfg.MSAA == 4 {
		msaa = renderer.MSAA4x
	} else if cfg.MSAA == 8 {
		msaa = renderer.MSAA8x
	} else if cfg.MSAA == 16 {
		msaa = renderer.MSAA16x
	}

	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(msaa),
	)

	cam := camera.NewCamera(
		camera.WithFov(float32(70.0*math.Pi/180.0)),
		camera.WithAspect(float32(cfg.Width)/float32(cfg.Height)),
		camera.WithNear(0.1),
		camera.WithFar(650),
		camera.WithController(camera.NewCameraController(
			camera.WithRadius(5),
			camera.WithTarget(0, 0, 0),
			camera.WithPanSpeed(20.0),
			camera.WithZoomSpeed(8.0),
			camera.WithRadiusBounds(0.1, 10000),
			camera.WithMouseSensitivity(0.002),
		)),
	)

	app := newApp(cfg, win, r, cam)
	forgelog.Info("forgecull starting", "mode", cfg.Mode.String(), "scenes", cfg.ScenePaths)

	app.run()

	if app.exitCode != 0 {
		os.Exit(app.exitCode)
	}
}
