package main

import (
	"image"

	"sceneview/internal/capture"
	"sceneview/internal/config"
	"sceneview/internal/gpu"
	"sceneview/internal/gpu/gles"
	"sceneview/internal/render"
	"sceneview/internal/render/preset"
	"sceneview/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// Capture renders the demo scene into an off-screen target and writes it
// to an image file.
func Capture(ctx *cli.Context) error {
	s, err := setup(ctx)
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if _, err := capture.FormatFromPath(out); err != nil {
		return err
	}
	s.Width, s.Height = ctx.Int("width"), ctx.Int("height")
	s.Samples = ctx.Int("samples")
	s.Clamp()

	var (
		device gpu.Device
		table  *render.PipelineTable
	)
	if ctx.Bool("headless") {
		device = gpu.NewRecorder(gpu.DefaultCapabilities())
		table = render.NewDiscardTable()
	} else {
		window, dev, err := openDevice(s.Title, s.Width, s.Height)
		if err != nil {
			return err
		}
		defer closeWindow(window)
		defer dev.Destroy()

		renderers, err := gles.NewRenderers()
		if err != nil {
			return err
		}
		defer renderers.Destroy()
		renderers.Background = mgl32.Vec4(s.ClearColor)
		device, table = dev, renderers.Table()
	}

	img, err := captureFrames(device, table, s, max(ctx.Int("frames"), 1))
	if err != nil {
		return err
	}
	return capture.WriteFile(out, img)
}

// captureFrames renders frames of the demo scene at s.Width x s.Height and
// reads back the last one.
func captureFrames(device gpu.Device, table *render.PipelineTable, s config.Settings, frames int) (*image.RGBA, error) {
	demo := newDemoScene(device, table, s, scene.WithViewport(gpu.Rect{W: s.Width, H: s.Height}))
	defer demo.view.Destroy()
	demo.view.SetOnScreenRenderEnabled(false)

	o := demo.options(s)
	o.Width, o.Height = s.Width, s.Height
	fr, output := preset.OffScreen(demo.view, o)
	if err := demo.view.AddOffScreenRender(fr); err != nil {
		return nil, err
	}
	for i := 0; i < frames; i++ {
		if err := demo.view.RenderFrame(); err != nil {
			return nil, err
		}
	}
	logger.Infof("rendered %d frames off-screen", frames)
	return capture.Output(device, fr, output)
}
