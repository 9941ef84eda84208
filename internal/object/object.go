package object

import (
	"fmt"

	"sceneview/internal/render"

	"github.com/go-gl/mathgl/mgl32"
)

// Object is a drawable piece of geometry. It draws through whatever
// renderer its pipeline table holds for the requested pipeline.
type Object struct {
	Name     string
	Geometry *Geometry
	Model    mgl32.Mat4
	Color    mgl32.Vec4
	Hidden   bool

	table *render.PipelineTable
}

// New returns a white object at the origin.
func New(name string, table *render.PipelineTable, g *Geometry) *Object {
	return &Object{
		Name:     name,
		Geometry: g,
		Model:    mgl32.Ident4(),
		Color:    mgl32.Vec4{1, 1, 1, 1},
		table:    table,
	}
}

// NewScreenQuad returns the full-screen quad drawn by screen-quad subpasses.
func NewScreenQuad(table *render.PipelineTable) *Object {
	return New("screen-quad", table, Quad())
}

// SetPosition replaces the model matrix with a translation.
func (o *Object) SetPosition(p mgl32.Vec3) {
	o.Model = mgl32.Translate3D(p.X(), p.Y(), p.Z())
}

func (o *Object) Visible() bool { return !o.Hidden }

// Bounds returns the world-space AABB of the transformed geometry.
func (o *Object) Bounds() (lo, hi mgl32.Vec3) {
	g := o.Geometry
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{g.Min.X(), g.Min.Y(), g.Min.Z()}
		if i&1 != 0 {
			c[0] = g.Max.X()
		}
		if i&2 != 0 {
			c[1] = g.Max.Y()
		}
		if i&4 != 0 {
			c[2] = g.Max.Z()
		}
		w := mgl32.TransformCoordinate(c, o.Model)
		if i == 0 {
			lo, hi = w, w
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], w[k])
			hi[k] = max(hi[k], w[k])
		}
	}
	return lo, hi
}

// Render draws the object with the table's renderer for pipeline.
func (o *Object) Render(pipeline render.PipelineType, last render.ObjectRenderer, view, projection, viewProjection mgl32.Mat4) (render.ObjectRenderer, error) {
	r, err := o.table.Lookup(pipeline)
	if err != nil {
		return last, fmt.Errorf("object %s: %w", o.Name, err)
	}
	r.EnsureState(last)
	r.SetCameraMatrices(view, projection, viewProjection)
	if err := r.PrepareForObject(o); err != nil {
		return r, fmt.Errorf("object %s: %w", o.Name, err)
	}
	if err := r.IssueDrawCalls(o); err != nil {
		return r, fmt.Errorf("object %s: %w", o.Name, err)
	}
	return r, nil
}
