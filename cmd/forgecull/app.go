package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/duskforge/forgecull/common"
	"github.com/duskforge/forgecull/engine/camera"
	"github.com/duskforge/forgecull/engine/cull"
	"github.com/duskforge/forgecull/engine/forge"
	"github.com/duskforge/forgecull/engine/profiler"
	"github.com/duskforge/forgecull/engine/renderer"
	"github.com/duskforge/forgecull/engine/window"
	"github.com/duskforge/forgecull/forgeconfig"
	"github.com/duskforge/forgecull/forgeerr"
	"github.com/duskforge/forgecull/forgelog"
)

// engineState is the cooperative state machine spec §5/§8 describes:
// LOADING → RUNNING, with SUSPENDED (zero-size window) and SHUTDOWN /
// SHUTDOWN_AFTER_LOAD as terminal-bound states. State transitions use
// atomic writes (spec §5: "Either thread may transition the engine state;
// state transitions use atomic writes").
type engineState int32

const (
	stateLoading engineState = iota
	stateRunning
	stateSuspended
	stateShutdownAfterLoad
	stateShutdown
)

// shutdownTimeout is the default wall-clock guard spec §5 names ("a
// configurable timeout (default 1s) downgrades a wait into a forced device
// teardown with a warning").
const shutdownTimeout = time.Second

// app is the composition root for one forgecull process: window, renderer,
// camera, and the forge façade, plus the small amount of CLI-level state
// (key velocity, frustum freeze, pyramid debug level, engine state) that
// doesn't belong inside engine/forge itself.
type app struct {
	cfg  *forgeconfig.Config
	win  window.Window
	r    renderer.Renderer
	cam  camera.Camera
	f    *forge.Forge
	prof *profiler.FrameProfiler

	state          atomic.Int32
	preSuspend     atomic.Int32
	freezeFrustum  atomic.Bool
	pyramidDebug   atomic.Int32
	keyW, keyA     atomic.Bool
	keyS, keyD     atomic.Bool
	keyQ, keyE     atomic.Bool
	frozenFrustum  common.Frustum
	haveFrozen     bool
	lastFrame      time.Time
	loadDone       chan error
	closed         atomic.Bool
	exitCode       int
}

// closeWindow closes the OS window exactly once. window.Window.Close
// destroys the underlying GLFW window and terminates GLFW outright, so it
// must never run twice: once from onTick (Escape / fatal error, so
// ProcessMessages' IsRunning loop notices and returns) and once more from
// shutdown (the OS close button path, where GLFW's own ShouldClose flips
// true without us ever calling Close first).
func (a *app) closeWindow() {
	if a.closed.CompareAndSwap(false, true) {
		if err := a.win.Close(); err != nil {
			forgelog.Warn("window close failed", "err", err)
		}
	}
}

func newApp(cfg *forgeconfig.Config, win window.Window, r renderer.Renderer, cam camera.Camera) *app {
	a := &app{
		cfg:      cfg,
		win:      win,
		r:        r,
		cam:      cam,
		f: forge.Init(forge.Config{
			FramesInFlight:     cfg.FramesInFlight,
			StagingRegionBytes: 16 << 20,
			OcclusionMode:      cfg.Occlusion,
			InstancedMode:      cfg.Instanced,
			ScreenWidth:        cfg.Width,
			ScreenHeight:       cfg.Height,
		}, r),
		loadDone: make(chan error, 1),
		prof:     profiler.NewFrameProfiler(),
	}
	a.state.Store(int32(stateLoading))
	a.wireInput()
	return a
}

// wireInput registers the key/mouse/resize callbacks spec §6 names: Escape =
// shutdown, WASD = camera velocity, F1 = freeze culling frustum, F3/F4 =
// raise/lower the pyramid debug level, resize(0,0) = suspend.
func (a *app) wireInput() {
	a.win.SetKeyDownCallback(func(key uint32) {
		switch key {
		case common.KeyEsc:
			a.requestShutdown()
		case common.KeyF1:
			a.freezeFrustum.Store(!a.freezeFrustum.Load())
		case common.KeyF3:
			if lvl := a.pyramidDebug.Load(); lvl < 4 {
				a.pyramidDebug.Store(lvl + 1)
			}
		case common.KeyF4:
			if lvl := a.pyramidDebug.Load(); lvl > 0 {
				a.pyramidDebug.Store(lvl - 1)
			}
		case common.KeyW:
			a.keyW.Store(true)
		case common.KeyA:
			a.keyA.Store(true)
		case common.KeyS:
			a.keyS.Store(true)
		case common.KeyD:
			a.keyD.Store(true)
		case common.KeyQ:
			a.keyQ.Store(true)
		case common.KeyE:
			a.keyE.Store(true)
		}
	})
	a.win.SetKeyUpCallback(func(key uint32) {
		switch key {
		case common.KeyW:
			a.keyW.Store(false)
		case common.KeyA:
			a.keyA.Store(false)
		case common.KeyS:
			a.keyS.Store(false)
		case common.KeyD:
			a.keyD.Store(false)
		case common.KeyQ:
			a.keyQ.Store(false)
		case common.KeyE:
			a.keyE.Store(false)
		}
	})
	a.win.SetResizeCallback(func(w, h int) {
		if w == 0 || h == 0 {
			if engineState(a.state.Load()) == stateRunning {
				a.preSuspend.Store(a.state.Load())
				a.state.Store(int32(stateSuspended))
			}
			return
		}
		if engineState(a.state.Load()) == stateSuspended {
			a.state.Store(a.preSuspend.Load())
		}
		a.cam.SetAspect(float32(w) / float32(h))
		a.r.Resize(w, h)
	})
}

func (a *app) requestShutdown() {
	switch engineState(a.state.Load()) {
	case stateShutdown, stateShutdownAfterLoad:
	default:
		a.state.Store(int32(stateShutdown))
	}
}

// run starts the loader goroutine, then pumps the OS message loop on the
// calling (main) thread — the only two threads spec §5 allows. window.
// ProcessMessages blocks and calls onTick once per message-pump iteration,
// which is the "OS message-pump poll" suspension point spec §5 names.
func (a *app) run() {
	go a.loadAndSetup()

	a.lastFrame = time.Now()
	a.win.SetUpdateCallback(a.onTick)
	a.win.ProcessMessages()

	a.shutdown()
}

// loadAndSetup runs entirely on the loader thread (spec §5 C2/C3/C4 scene
// ingestion while the main thread renders draw_while_waiting), and signals
// completion over loadDone — the idiomatic-Go analogue of spec §5's
// "single mutex-protected condition variable" (a buffered channel is a
// condition variable plus its predicate rolled into one primitive; the main
// thread's non-blocking select in onTick is the "wait" half).
func (a *app) loadAndSetup() {
	err := loadScene(a.f, a.cfg)
	if err == nil {
		err = a.f.SetupForRendering()
	}
	a.loadDone <- err
}

// onTick is the per-message-pump-iteration callback (spec §4.11 update +
// draw_frame, §8 "0 draw objects still presents a cleared image" via
// DrawWhileWaiting during LOADING/SUSPENDED).
func (a *app) onTick() {
	now := time.Now()
	dt := float32(now.Sub(a.lastFrame).Seconds())
	a.lastFrame = now

	switch engineState(a.state.Load()) {
	case stateLoading:
		select {
		case err := <-a.loadDone:
			if err != nil {
				forgelog.Error("scene load failed", "err", err)
				a.exitCode = 1
				a.state.Store(int32(stateShutdownAfterLoad))
				return
			}
			a.f.FinalSetup()
			a.state.Store(int32(stateRunning))
		default:
			if err := a.f.DrawWhileWaiting(); err != nil {
				forgelog.Error("draw_while_waiting failed", "err", err)
			}
		}
	case stateShutdownAfterLoad:
		_ = a.f.DrawWhileWaiting()
		a.state.Store(int32(stateShutdown))
	case stateSuspended:
		// Resize to 0x0 suspends all rendering (spec §8 boundary behavior)
		// until a non-zero resize arrives via the callback in wireInput.
	case stateRunning:
		a.drawFrame(dt)
	case stateShutdown:
		// Closing here marks the window not-running so ProcessMessages' for
		// loop exits on its next IsRunning check; the device teardown itself
		// happens once in app.shutdown after ProcessMessages returns.
		a.closeWindow()
	}
}

func (a *app) drawFrame(dt float32) {
	a.prof.Tick()
	a.applyCameraVelocity(dt)
	a.cam.Update()

	viewProj := a.cam.ViewProjectionMatrix()
	frustum := common.ExtractFrustumFromMatrix(viewProj[:])
	if a.freezeFrustum.Load() {
		if !a.haveFrozen {
			a.frozenFrustum = frustum
			a.haveFrozen = true
		}
		frustum = a.frozenFrustum
	} else {
		a.haveFrozen = false
	}

	x, y, z := a.cam.Controller().Position()
	view := cull.View{
		Frustum:          frustum,
		CameraPosition:   [3]float32{x, y, z},
		FovYRadians:      a.cam.Fov(),
		ScreenHeight:     float32(a.cfg.Height),
		TargetPixelError: cull.DefaultTargetPixelError,
	}

	var sampler cull.OcclusionSampler
	if a.cfg.Occlusion {
		sampler = a.occlusionSampler()
	}

	result, err := a.f.DrawFrame(view, sampler)
	if err != nil {
		if forgeerr.Is(err, forgeerr.KindDeviceLost) {
			forgelog.Error("device lost, shutting down", "err", err)
			a.exitCode = 1
			a.state.Store(int32(stateShutdown))
			return
		}
		forgelog.Warn("draw_frame failed", "err", err)
		return
	}
	_ = result
}

// occlusionSampler returns the sampler DrawFrame uses for the late occlusion
// retest. It always returns nil: the CLI does not read the depth pyramid
// back, so DrawFrame skips the retest even in occlusion mode.
func (a *app) occlusionSampler() cull.OcclusionSampler {
	return nil
}

func (a *app) applyCameraVelocity(dt float32) {
	ctrl := a.cam.Controller()
	speed := dt
	if a.keyW.Load() {
		ctrl.PanForward(speed)
	}
	if a.keyS.Load() {
		ctrl.PanForward(-speed)
	}
	if a.keyA.Load() {
		ctrl.PanRight(-speed)
	}
	if a.keyD.Load() {
		ctrl.PanRight(speed)
	}
	if a.keyQ.Load() {
		ctrl.PanUp(speed)
	}
	if a.keyE.Load() {
		ctrl.PanUp(-speed)
	}
}

// shutdown runs once window.ProcessMessages returns (the user closed the
// window or requestShutdown fired): wait for in-flight frames to retire, or
// force a teardown past shutdownTimeout (spec §5/§7 "a configurable timeout
// downgrades a wait into a forced device teardown with a warning").
func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		a.f.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		forgelog.Warn("shutdown timed out, forcing device teardown", "timeout", shutdownTimeout)
	}

	// Covers the OS close-button path, where GLFW's own ShouldClose flag
	// flipped true without onTick ever observing stateShutdown first.
	a.closeWindow()
}
