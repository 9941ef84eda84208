package gles

import (
	"sceneview/internal/object"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type mesh struct {
	vao, vbo uint32
	count    int32
}

// meshCache uploads each geometry once and keeps it for the device's
// lifetime.
type meshCache struct {
	meshes map[*object.Geometry]*mesh
}

func newMeshCache() *meshCache {
	return &meshCache{meshes: make(map[*object.Geometry]*mesh)}
}

func (c *meshCache) get(g *object.Geometry) *mesh {
	if m, ok := c.meshes[g]; ok {
		return m
	}
	m := &mesh{count: int32(g.VertexCount())}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(g.Vertices)*4, gl.Ptr(g.Vertices), gl.STATIC_DRAW)

	// position
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	// normal
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)

	gl.BindVertexArray(0)
	c.meshes[g] = m
	logger.Debugf("uploaded mesh %s (%d vertices)", g.Name, m.count)
	return m
}

func (m *mesh) draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, m.count)
}

func (c *meshCache) destroy() {
	for g, m := range c.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		delete(c.meshes, g)
	}
}
