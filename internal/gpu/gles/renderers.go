package gles

import (
	"errors"
	"fmt"

	"sceneview/internal/object"
	"sceneview/internal/render"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupportedObject is returned when a renderer is asked to draw
// something that is not an *object.Object.
var ErrUnsupportedObject = errors.New("gles: renderable is not an object")

// Light is the single directional light shared by every lit pipeline.
type Light struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Ambient   float32
	// Extent is the half size of the box the shadow map covers.
	Extent float32
}

// DefaultLight shines down and slightly forward.
func DefaultLight() Light {
	return Light{
		Direction: mgl32.Vec3{-0.4, -1, -0.3},
		Color:     mgl32.Vec3{0.9, 0.9, 0.85},
		Ambient:   0.2,
		Extent:    10,
	}
}

// ViewProjection maps world space to the shadow map.
func (l Light) ViewProjection() mgl32.Mat4 {
	dir := l.Direction.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if abs(dir.Dot(up)) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	eye := dir.Mul(-2 * l.Extent)
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, up)
	proj := mgl32.Ortho(-l.Extent, l.Extent, -l.Extent, l.Extent, 0.1, 4*l.Extent)
	return proj.Mul4(view)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

type program struct {
	pipeline render.PipelineType
	vert     string
	frag     string
	quad     bool
	samplers []string
}

var programs = []program{
	{pipeline: render.Unlit, vert: "scene", frag: "unlit"},
	{pipeline: render.LitForward, vert: "scene", frag: "lit"},
	{pipeline: render.GBufferWrite, vert: "scene", frag: "gbuffer"},
	{pipeline: render.DeferredLitQuad, vert: "quad", frag: "deferred_lit", quad: true, samplers: []string{"uAlbedo", "uNormal"}},
	{pipeline: render.PostProcessQuad, vert: "quad", frag: "post", quad: true, samplers: []string{"uScene"}},
	{pipeline: render.ShadowMapWrite, vert: "shadow_map", frag: "shadow_map"},
	{pipeline: render.ShadowForward, vert: "shadow_lit", frag: "shadow_lit", samplers: []string{"uShadowMap"}},
}

// Renderers holds one object renderer per pipeline the backend supports.
type Renderers struct {
	Light      Light
	Background mgl32.Vec4
	Vignette   float32

	meshes    *meshCache
	renderers []*objectRenderer
	table     *render.PipelineTable
}

// NewRenderers compiles every program. The GL context must be current.
func NewRenderers() (*Renderers, error) {
	rs := &Renderers{
		Light:    DefaultLight(),
		Vignette: 0.35,
		meshes:   newMeshCache(),
		table:    render.NewPipelineTable(),
	}
	for _, p := range programs {
		shader, err := NewShader(p.vert, p.frag)
		if err != nil {
			rs.Destroy()
			return nil, fmt.Errorf("%s: %w", p.pipeline, err)
		}
		r := &objectRenderer{program: p, shader: shader, set: rs}
		rs.renderers = append(rs.renderers, r)
		rs.table.Register(r)
	}
	logger.Debugf("compiled %d pipelines", len(rs.renderers))
	return rs, nil
}

// Table returns the pipeline table objects draw through.
func (rs *Renderers) Table() *render.PipelineTable { return rs.table }

func (rs *Renderers) Destroy() {
	for _, r := range rs.renderers {
		r.shader.Delete()
	}
	rs.renderers = nil
	rs.meshes.destroy()
}

type objectRenderer struct {
	program
	shader *Shader
	set    *Renderers
}

var _ render.ObjectRenderer = (*objectRenderer)(nil)

func (r *objectRenderer) Pipeline() render.PipelineType { return r.pipeline }

// EnsureState switches program and fixed state unless the previous draw
// used the same renderer.
func (r *objectRenderer) EnsureState(last render.ObjectRenderer) {
	if last == render.ObjectRenderer(r) {
		return
	}
	r.shader.Use()
	if r.quad {
		gl.Disable(gl.DEPTH_TEST)
	} else {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthMask(true)
	}
	for unit, name := range r.samplers {
		r.shader.SetInt(name, int32(unit))
	}
	l := r.set.Light
	r.shader.SetVector3("uLightDir", l.Direction)
	r.shader.SetVector3("uLightColor", l.Color)
	r.shader.SetFloat("uAmbient", l.Ambient)
	r.shader.SetMatrix4("uLightViewProj", l.ViewProjection())
	r.shader.SetVector4("uBackground", r.set.Background)
	r.shader.SetFloat("uVignette", r.set.Vignette)
}

func (r *objectRenderer) SetCameraMatrices(_, _, viewProjection mgl32.Mat4) {
	if !r.quad {
		r.shader.SetMatrix4("uViewProj", viewProjection)
	}
}

func (r *objectRenderer) PrepareForObject(obj render.Renderable) error {
	o, ok := obj.(*object.Object)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedObject, obj)
	}
	if !r.quad {
		r.shader.SetMatrix4("uModel", o.Model)
	}
	r.shader.SetVector4("uColor", o.Color)
	return nil
}

func (r *objectRenderer) IssueDrawCalls(obj render.Renderable) error {
	o, ok := obj.(*object.Object)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedObject, obj)
	}
	r.set.meshes.get(o.Geometry).draw()
	return nil
}
