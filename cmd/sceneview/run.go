package main

import (
	"context"
	"time"

	"sceneview/internal/config"
	"sceneview/internal/engine"
	"sceneview/internal/gpu/gles"
	"sceneview/internal/input"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
	"github.com/xlab/closer"
)

// Run opens a window and renders the demo scene until it is closed.
func Run(ctx *cli.Context) error {
	s, err := setup(ctx)
	if err != nil {
		return err
	}
	if p := ctx.String("pipeline"); p != "" {
		s.Pipeline = p
		config.Set(s)
	}
	if fps := ctx.Int("fps"); fps >= 0 {
		config.SetFPSLimit(fps)
	}
	minVersion, err := s.ContextVersion()
	if err != nil {
		return err
	}

	// An interrupt cancels the loop and waits for the render thread to
	// release the context before closer exits the process.
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	closer.Bind(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			logger.Warning("render thread did not stop in time")
		}
	})

	window, err := openWindow(windowOptions{title: s.Title, width: s.Width, height: s.Height, visible: true})
	if err != nil {
		return err
	}
	defer closeWindow(window)

	device, err := gles.NewDevice()
	if err != nil {
		return err
	}
	defer device.Destroy()
	if err := device.Capabilities().Verify(minVersion); err != nil {
		return err
	}

	renderers, err := gles.NewRenderers()
	if err != nil {
		return err
	}
	defer renderers.Destroy()
	renderers.Background = mgl32.Vec4(s.ClearColor)

	demo := newDemoScene(device, renderers.Table(), s)
	defer demo.view.Destroy()
	current := s.Pipeline
	if err := demo.usePreset(current, s); err != nil {
		return err
	}

	if path := ctx.GlobalString("config"); path != "" {
		go watchSettings(runCtx, path, func(ns config.Settings) {
			c := ns.ClearColor
			demo.view.SetBackgroundColor(c[0], c[1], c[2], c[3])
			renderers.Background = mgl32.Vec4(c)
			if ns.Pipeline == current {
				return
			}
			if err := demo.usePreset(ns.Pipeline, ns); err != nil {
				logger.Warningf("keeping %s: %v", current, err)
				return
			}
			current = ns.Pipeline
		}, demo.view.Post)
	}

	keys := input.NewManager()
	keys.Attach(window)
	spinning := true
	var eng *engine.Engine
	update := func(dt time.Duration) {
		defer keys.PostUpdate()
		secs := float32(dt.Seconds())
		switch {
		case keys.JustPressed(input.ActionQuit):
			window.SetShouldClose(true)
		case keys.JustPressed(input.ActionCyclePreset):
			next := nextPreset(current)
			if err := demo.usePreset(next, config.Get()); err != nil {
				logger.Warningf("cannot switch to %s: %v", next, err)
				return
			}
			current = next
		case keys.JustPressed(input.ActionToggleSpin):
			spinning = !spinning
		case keys.JustPressed(input.ActionShowStats):
			ps := demo.view.Pool().Stats()
			logger.Noticef("%d frames (%d dropped, %d failed); pool %d in use, %d free, %.1f MiB",
				eng.Frames(), eng.Dropped(), eng.Failed(), ps.InUse, ps.Free, float64(ps.Bytes)/(1<<20))
		case keys.JustPressed(input.ActionHideView):
			demo.view.SetViewportVisible(!demo.view.ViewportVisible())
		}
		var yaw, zoom float32
		if keys.IsActive(input.ActionOrbitLeft) {
			yaw -= orbitSpeed * secs
		}
		if keys.IsActive(input.ActionOrbitRight) {
			yaw += orbitSpeed * secs
		}
		if keys.IsActive(input.ActionZoomIn) {
			zoom -= zoomSpeed * secs
		}
		if keys.IsActive(input.ActionZoomOut) {
			zoom += zoomSpeed * secs
		}
		if yaw != 0 || zoom != 0 {
			demo.orbit(yaw, zoom)
		}
		if spinning {
			demo.spin(spinSpeed * secs)
		}
	}

	eng = engine.New(windowSurface{window: window}, engine.WithUpdate(update))
	eng.AddView(demo.view)
	return eng.Run(runCtx)
}

const (
	// radians per second
	orbitSpeed = 1.2
	spinSpeed  = 0.8
	// units per second
	zoomSpeed = 8
)

// watchSettings reloads the settings file and hands each change to apply
// through post, which runs it on the render thread.
func watchSettings(ctx context.Context, path string, apply func(config.Settings), post func(func())) {
	err := config.Watch(ctx, path, func(s config.Settings) {
		post(func() { apply(s) })
	})
	if err != nil {
		logger.Warningf("settings will not reload: %v", err)
	}
}
