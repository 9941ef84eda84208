package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// PipelineType selects the object-processing function a subpass applies.
type PipelineType int

const (
	NoOp PipelineType = iota
	FixedFunction
	Unlit
	LitForward
	GBufferWrite
	DeferredLitQuad
	ShadowMapWrite
	ShadowForward
	DeferredShadowQuad
	PostProcessQuad

	pipelineTypeCount
)

var pipelineNames = [pipelineTypeCount]string{
	NoOp:               "no-op",
	FixedFunction:      "fixed-function",
	Unlit:              "unlit",
	LitForward:         "lit-forward",
	GBufferWrite:       "gbuffer-write",
	DeferredLitQuad:    "deferred-lit-quad",
	ShadowMapWrite:     "shadow-map-write",
	ShadowForward:      "shadow-forward",
	DeferredShadowQuad: "deferred-shadow-quad",
	PostProcessQuad:    "post-process-quad",
}

func (p PipelineType) String() string {
	if p < 0 || p >= pipelineTypeCount {
		return fmt.Sprintf("PipelineType(%d)", int(p))
	}
	return pipelineNames[p]
}

// Valid reports whether p is one of the known pipeline functions.
func (p PipelineType) Valid() bool {
	return p >= NoOp && p < pipelineTypeCount
}

// IsScreenQuad reports whether the pipeline draws a full-screen quad from
// upstream buffers instead of scene geometry.
func (p PipelineType) IsScreenQuad() bool {
	switch p {
	case DeferredLitQuad, DeferredShadowQuad, PostProcessQuad:
		return true
	}
	return false
}

// DrawsSkybox reports whether a scene-consuming subpass of this type draws
// the view's skybox before the scene objects.
func (p PipelineType) DrawsSkybox() bool {
	switch p {
	case Unlit, LitForward, ShadowForward:
		return true
	}
	return false
}

// PipelineTypes returns every pipeline function in declaration order.
func PipelineTypes() []PipelineType {
	out := make([]PipelineType, 0, pipelineTypeCount)
	for p := NoOp; p < pipelineTypeCount; p++ {
		out = append(out, p)
	}
	return out
}

// ObjectRenderer issues the draws for one pipeline function.
type ObjectRenderer interface {
	Pipeline() PipelineType
	// EnsureState transitions graphics state from whatever last left behind.
	// last may be nil at the start of a frame.
	EnsureState(last ObjectRenderer)
	SetCameraMatrices(view, projection, viewProjection mgl32.Mat4)
	PrepareForObject(obj Renderable) error
	IssueDrawCalls(obj Renderable) error
}

// Renderable is anything a subpass can draw. Render returns the renderer it
// used so the caller can pass it as last to the next object.
type Renderable interface {
	Render(pipeline PipelineType, last ObjectRenderer, view, projection, viewProjection mgl32.Mat4) (ObjectRenderer, error)
}

// PipelineTable maps pipeline functions to the renderer that implements
// them. The set is closed, so a fixed array is enough.
type PipelineTable struct {
	renderers [pipelineTypeCount]ObjectRenderer
}

// NewPipelineTable returns a table holding the given renderers.
func NewPipelineTable(renderers ...ObjectRenderer) *PipelineTable {
	t := &PipelineTable{}
	for _, r := range renderers {
		t.Register(r)
	}
	return t
}

// Register installs r for its pipeline function, replacing any previous one.
func (t *PipelineTable) Register(r ObjectRenderer) {
	p := r.Pipeline()
	if !p.Valid() || p == NoOp {
		failIllegal("cannot register a renderer for pipeline %s", p)
	}
	t.renderers[p] = r
}

// Lookup returns the renderer for p.
func (t *PipelineTable) Lookup(p PipelineType) (ObjectRenderer, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: unknown pipeline %d", ErrNoObjectRenderer, int(p))
	}
	r := t.renderers[p]
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoObjectRenderer, p)
	}
	return r, nil
}

// Has reports whether p has a renderer.
func (t *PipelineTable) Has(p PipelineType) bool {
	return p.Valid() && t.renderers[p] != nil
}

// discardRenderer accepts every object and draws nothing.
type discardRenderer PipelineType

func (d discardRenderer) Pipeline() PipelineType             { return PipelineType(d) }
func (discardRenderer) EnsureState(ObjectRenderer)           {}
func (discardRenderer) SetCameraMatrices(_, _, _ mgl32.Mat4) {}
func (discardRenderer) PrepareForObject(Renderable) error    { return nil }
func (discardRenderer) IssueDrawCalls(Renderable) error      { return nil }

// NewDiscardTable returns a table whose renderers draw nothing, for
// headless runs on a device without a backend.
func NewDiscardTable() *PipelineTable {
	t := &PipelineTable{}
	for _, p := range PipelineTypes() {
		if p != NoOp {
			t.Register(discardRenderer(p))
		}
	}
	return t
}
