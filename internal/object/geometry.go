package object

import "github.com/go-gl/mathgl/mgl32"

// Geometry is CPU-side triangle data: interleaved position and normal,
// six floats per vertex. Backends upload it on first draw.
type Geometry struct {
	Name     string
	Vertices []float32
	Min, Max mgl32.Vec3
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices) / 6
}

// NewGeometry computes the bounds of vertices.
func NewGeometry(name string, vertices []float32) *Geometry {
	g := &Geometry{Name: name, Vertices: vertices}
	for i := 0; i+2 < len(vertices); i += 6 {
		p := mgl32.Vec3{vertices[i], vertices[i+1], vertices[i+2]}
		if i == 0 {
			g.Min, g.Max = p, p
			continue
		}
		for k := 0; k < 3; k++ {
			g.Min[k] = min(g.Min[k], p[k])
			g.Max[k] = max(g.Max[k], p[k])
		}
	}
	return g
}

var cubeVertices = []float32{
	-0.5, -0.5, 0.5, 0, 0, 1,
	0.5, -0.5, 0.5, 0, 0, 1,
	0.5, 0.5, 0.5, 0, 0, 1,
	0.5, 0.5, 0.5, 0, 0, 1,
	-0.5, 0.5, 0.5, 0, 0, 1,
	-0.5, -0.5, 0.5, 0, 0, 1,
	0.5, -0.5, -0.5, 0, 0, -1,
	-0.5, -0.5, -0.5, 0, 0, -1,
	-0.5, 0.5, -0.5, 0, 0, -1,
	-0.5, 0.5, -0.5, 0, 0, -1,
	0.5, 0.5, -0.5, 0, 0, -1,
	0.5, -0.5, -0.5, 0, 0, -1,
	-0.5, -0.5, -0.5, -1, 0, 0,
	-0.5, -0.5, 0.5, -1, 0, 0,
	-0.5, 0.5, 0.5, -1, 0, 0,
	-0.5, 0.5, 0.5, -1, 0, 0,
	-0.5, 0.5, -0.5, -1, 0, 0,
	-0.5, -0.5, -0.5, -1, 0, 0,
	0.5, -0.5, 0.5, 1, 0, 0,
	0.5, -0.5, -0.5, 1, 0, 0,
	0.5, 0.5, -0.5, 1, 0, 0,
	0.5, 0.5, -0.5, 1, 0, 0,
	0.5, 0.5, 0.5, 1, 0, 0,
	0.5, -0.5, 0.5, 1, 0, 0,
	-0.5, 0.5, 0.5, 0, 1, 0,
	0.5, 0.5, 0.5, 0, 1, 0,
	0.5, 0.5, -0.5, 0, 1, 0,
	0.5, 0.5, -0.5, 0, 1, 0,
	-0.5, 0.5, -0.5, 0, 1, 0,
	-0.5, 0.5, 0.5, 0, 1, 0,
	-0.5, -0.5, -0.5, 0, -1, 0,
	0.5, -0.5, -0.5, 0, -1, 0,
	0.5, -0.5, 0.5, 0, -1, 0,
	0.5, -0.5, 0.5, 0, -1, 0,
	-0.5, -0.5, 0.5, 0, -1, 0,
	-0.5, -0.5, -0.5, 0, -1, 0,
}

var quadVertices = []float32{
	-1, -1, 0, 0, 0, 1,
	1, -1, 0, 0, 0, 1,
	1, 1, 0, 0, 0, 1,
	1, 1, 0, 0, 0, 1,
	-1, 1, 0, 0, 0, 1,
	-1, -1, 0, 0, 0, 1,
}

var (
	cube = NewGeometry("cube", cubeVertices)
	quad = NewGeometry("quad", quadVertices)
)

// Cube is a unit cube centered on the origin.
func Cube() *Geometry { return cube }

// Quad covers clip space; screen-quad pipelines draw it untransformed.
func Quad() *Geometry { return quad }

// Plane is a size x size quad in the XZ plane facing +Y.
func Plane(size float32) *Geometry {
	h := size / 2
	return NewGeometry("plane", []float32{
		-h, 0, h, 0, 1, 0,
		h, 0, h, 0, 1, 0,
		h, 0, -h, 0, 1, 0,
		h, 0, -h, 0, 1, 0,
		-h, 0, -h, 0, 1, 0,
		-h, 0, h, 0, 1, 0,
	})
}
