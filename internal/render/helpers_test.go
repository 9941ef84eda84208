package render

import (
	"testing"

	"sceneview/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testView struct {
	dev      *gpu.Recorder
	pool     *AttachmentPool
	skybox   Renderable
	objects  []Renderable
	viewport gpu.Rect
	state    FrameState
}

func newTestView() *testView {
	dev := gpu.NewRecorder(gpu.DefaultCapabilities())
	return &testView{
		dev:      dev,
		pool:     NewAttachmentPool(dev, DefaultPoolIdleFrames),
		viewport: gpu.Rect{X: 10, Y: 20, W: 640, H: 480},
	}
}

func (v *testView) Device() gpu.Device                   { return v.dev }
func (v *testView) Capabilities() gpu.Capabilities       { return v.dev.Caps }
func (v *testView) Pool() *AttachmentPool                { return v.pool }
func (v *testView) Skybox() Renderable                   { return v.skybox }
func (v *testView) ViewMatrix() mgl32.Mat4               { return mgl32.Ident4() }
func (v *testView) ProjectionMatrix() mgl32.Mat4         { return mgl32.Ident4() }
func (v *testView) ViewProjectionMatrix() mgl32.Mat4     { return mgl32.Ident4() }
func (v *testView) Viewport() gpu.Rect                   { return v.viewport }
func (v *testView) ViewportLeft() int                    { return v.viewport.X }
func (v *testView) ViewportTop() int                     { return v.viewport.Y }
func (v *testView) RenderableSceneObjects() []Renderable { return v.objects }
func (v *testView) FrameState() *FrameState              { return &v.state }

// drawLog records every object draw and hands out one renderer per
// pipeline.
type drawLog struct {
	entries   []string
	lasts     []ObjectRenderer
	renderers map[PipelineType]*testRenderer
	fail      map[string]error
}

func newDrawLog() *drawLog {
	return &drawLog{renderers: make(map[PipelineType]*testRenderer), fail: make(map[string]error)}
}

func (l *drawLog) renderer(p PipelineType) *testRenderer {
	r := l.renderers[p]
	if r == nil {
		r = &testRenderer{pipeline: p}
		l.renderers[p] = r
	}
	return r
}

func (l *drawLog) object(name string) *testObject {
	return &testObject{name: name, log: l}
}

type testRenderer struct {
	pipeline PipelineType
}

func (r *testRenderer) Pipeline() PipelineType               { return r.pipeline }
func (r *testRenderer) EnsureState(ObjectRenderer)           {}
func (r *testRenderer) SetCameraMatrices(_, _, _ mgl32.Mat4) {}
func (r *testRenderer) PrepareForObject(Renderable) error    { return nil }
func (r *testRenderer) IssueDrawCalls(Renderable) error      { return nil }

type testObject struct {
	name string
	log  *drawLog
}

func (o *testObject) Render(p PipelineType, last ObjectRenderer, _, _, _ mgl32.Mat4) (ObjectRenderer, error) {
	if err := o.log.fail[o.name]; err != nil {
		return nil, err
	}
	o.log.entries = append(o.log.entries, o.name+"@"+p.String())
	o.log.lasts = append(o.log.lasts, last)
	return o.log.renderer(p), nil
}

// testLeaf is a minimal component for exercising Composite.
type testLeaf struct {
	component
	name    string
	events  *[]string
	initErr error
}

func newTestLeaf(view SceneView, name string, events *[]string, min gpu.ContextVersion) *testLeaf {
	l := &testLeaf{component: newComponent(view), name: name, events: events}
	l.minVersion = min
	return l
}

func (l *testLeaf) Initialize() error {
	l.beginInitialize()
	*l.events = append(*l.events, "init "+l.name)
	return l.initErr
}

func (l *testLeaf) Render() error {
	l.checkRender()
	*l.events = append(*l.events, "render "+l.name)
	return nil
}

func (l *testLeaf) Destroy() {
	l.markDestroyed()
	*l.events = append(*l.events, "destroy "+l.name)
}

func requireIllegal(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, ErrIllegalState)
	}()
	fn()
}

func colorDepth() []AttachmentDescriptor {
	return []AttachmentDescriptor{Attachment(gpu.RGBA8), Attachment(gpu.Depth24Stencil8)}
}

func singlePassFrame(v *testView, pipeline PipelineType, attachments []AttachmentDescriptor, roles AttachmentRoles, opts ...SubpassOption) *FrameRender {
	s := NewSubpass(v, pipeline, roles, opts...)
	p := NewRenderPass(v, attachments, s)
	return NewFrameRender(v, "test", NewRenderPassChain(v, p))
}

func viewports(dev *gpu.Recorder) []gpu.Rect {
	var out []gpu.Rect
	for _, c := range dev.Find("Viewport") {
		out = append(out, c.Args[0].(gpu.Rect))
	}
	return out
}

func boundFramebuffers(dev *gpu.Recorder) []gpu.Handle {
	var out []gpu.Handle
	for _, c := range dev.Find("BindFramebuffer") {
		out = append(out, c.Args[0].(gpu.Handle))
	}
	return out
}
