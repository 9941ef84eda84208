package main

import (
	"fmt"
	"math"

	"sceneview/internal/config"
	"sceneview/internal/gpu"
	"sceneview/internal/object"
	"sceneview/internal/render"
	"sceneview/internal/render/preset"
	"sceneview/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// demoScene is a ground plane with a ring of cubes, seen from above and to
// the side.
type demoScene struct {
	view  *scene.View
	table *render.PipelineTable
	quad  *object.Object
	cubes []*object.Object

	yaw, radius float32
}

const (
	cameraHeight = 5
	minRadius    = 4
	maxRadius    = 30
)

var cubeColors = []mgl32.Vec4{
	{0.90, 0.30, 0.25, 1},
	{0.95, 0.75, 0.20, 1},
	{0.30, 0.75, 0.35, 1},
	{0.25, 0.55, 0.90, 1},
	{0.65, 0.35, 0.85, 1},
	{0.90, 0.90, 0.90, 1},
}

func newDemoScene(device gpu.Device, table *render.PipelineTable, s config.Settings, opts ...scene.Option) *demoScene {
	c := s.ClearColor
	opts = append([]scene.Option{
		scene.WithCamera(scene.NewCamera(s.Width, s.Height)),
		scene.WithPoolIdleFrames(s.PoolIdleFrames),
		scene.WithBackgroundColor(c[0], c[1], c[2], c[3]),
	}, opts...)
	d := &demoScene{
		view:   scene.NewView(device, opts...),
		table:  table,
		quad:   object.NewScreenQuad(table),
		yaw:    0.9,
		radius: 11,
	}
	d.orbit(0, 0)

	ground := object.New("ground", table, object.Plane(20))
	ground.Color = mgl32.Vec4{0.45, 0.55, 0.40, 1}
	d.view.Graph().Add(ground)

	for i, color := range cubeColors {
		cube := object.New(fmt.Sprintf("cube-%d", i), table, object.Cube())
		cube.Color = color
		angle := float64(i) * 2 * math.Pi / float64(len(cubeColors))
		x, z := float32(3*math.Cos(angle)), float32(3*math.Sin(angle))
		cube.Model = mgl32.Translate3D(x, 0.5, z).Mul4(mgl32.HomogRotate3DY(float32(angle)))
		d.cubes = append(d.cubes, cube)
		d.view.Graph().Add(cube)
	}
	return d
}

// orbit moves the camera around the scene by dYaw radians and dRadius
// units.
func (d *demoScene) orbit(dYaw, dRadius float32) {
	d.yaw += dYaw
	d.radius = min(max(d.radius+dRadius, minRadius), maxRadius)
	y, r := float64(d.yaw), float64(d.radius)
	eye := mgl32.Vec3{float32(r * math.Cos(y)), cameraHeight, float32(r * math.Sin(y))}
	d.view.Camera().LookAt(eye, mgl32.Vec3{0, 0.5, 0})
}

// spin turns every cube about its own vertical axis.
func (d *demoScene) spin(radians float32) {
	r := mgl32.HomogRotate3DY(radians)
	for _, c := range d.cubes {
		c.Model = c.Model.Mul4(r)
	}
}

func (d *demoScene) options(s config.Settings) preset.Options {
	return preset.Options{
		ClearColor: s.ClearColor,
		Quad:       d.quad,
		Samples:    s.Samples,
	}
}

// usePreset makes the named preset the on-screen render and destroys the
// one it replaces.
func (d *demoScene) usePreset(name string, s config.Settings) error {
	fr, err := preset.ByName(d.view, name, d.options(s))
	if err != nil {
		return err
	}
	prev := d.view.OnScreenRender()
	if err := d.view.SetOnScreenRender(fr); err != nil {
		fr.Destroy()
		return fmt.Errorf("preset %s: %w", name, err)
	}
	if prev != nil {
		prev.Destroy()
	}
	logger.Noticef("rendering with %s", fr.Label())
	return nil
}

// nextPreset returns the preset after name in Names order.
func nextPreset(name string) string {
	names := preset.Names()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
