package scene

import (
	"slices"
	"sync"

	"sceneview/internal/render"
)

// Graph is the flat list of objects a view draws. Add and Remove may be
// called from any goroutine; changes land at the start of the next frame.
type Graph struct {
	mu      sync.Mutex
	pending []graphChange

	objects []render.Renderable
}

type graphChange struct {
	obj    render.Renderable
	remove bool
}

func NewGraph() *Graph {
	return &Graph{}
}

// Add queues obj for drawing.
func (g *Graph) Add(obj render.Renderable) {
	g.mu.Lock()
	g.pending = append(g.pending, graphChange{obj: obj})
	g.mu.Unlock()
}

// Remove queues obj for removal.
func (g *Graph) Remove(obj render.Renderable) {
	g.mu.Lock()
	g.pending = append(g.pending, graphChange{obj: obj, remove: true})
	g.mu.Unlock()
}

// Sync applies queued changes in order. Render thread only.
func (g *Graph) Sync() {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, c := range pending {
		if c.remove {
			if i := slices.Index(g.objects, c.obj); i >= 0 {
				g.objects = slices.Delete(g.objects, i, i+1)
			}
			continue
		}
		if !slices.Contains(g.objects, c.obj) {
			g.objects = append(g.objects, c.obj)
		}
	}
}

// Objects returns the synced object list. Render thread only.
func (g *Graph) Objects() []render.Renderable {
	return g.objects
}

// Len returns the number of synced objects.
func (g *Graph) Len() int {
	return len(g.objects)
}
