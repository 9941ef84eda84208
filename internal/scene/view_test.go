package scene

import (
	"testing"

	"sceneview/internal/gpu"
	"sceneview/internal/render"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	name   string
	at     mgl32.Vec3
	hidden bool
	drawn  *[]string
}

func (p *probe) Render(pipeline render.PipelineType, _ render.ObjectRenderer, _, _, _ mgl32.Mat4) (render.ObjectRenderer, error) {
	*p.drawn = append(*p.drawn, p.name)
	return nil, nil
}

func (p *probe) Visible() bool { return !p.hidden }

func (p *probe) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	h := mgl32.Vec3{0.5, 0.5, 0.5}
	return p.at.Sub(h), p.at.Add(h)
}

func newTestView(opts ...Option) (*View, *gpu.Recorder) {
	rec := gpu.NewRecorder(gpu.DefaultCapabilities())
	opts = append([]Option{WithViewport(gpu.Rect{W: 200, H: 100})}, opts...)
	return NewView(rec, opts...), rec
}

func unlitFrame(v *View, name string) *render.FrameRender {
	pass := render.NewRenderPass(v,
		[]render.AttachmentDescriptor{render.Attachment(gpu.RGBA8)},
		render.NewSubpass(v, render.Unlit, render.DepthColor(render.NoAttachment, 0)),
	)
	return render.NewFrameRender(v, name, render.NewRenderPassChain(v, pass))
}

func TestOnScreenRenderSwitch(t *testing.T) {
	v, _ := newTestView()
	defer v.Destroy()

	a, b := unlitFrame(v, "a"), unlitFrame(v, "b")
	require.NoError(t, v.SetOnScreenRender(a))
	assert.True(t, a.Initialized())
	assert.True(t, a.RendersToScreen())
	assert.ErrorIs(t, v.SetOnScreenRender(a), ErrAlreadyCurrent)

	require.NoError(t, v.SetOnScreenRender(b))
	assert.Same(t, b, v.OnScreenRender())
	assert.False(t, a.RendersToScreen())
	assert.True(t, b.RendersToScreen())

	assert.Same(t, b, v.RemoveOnScreenRender())
	assert.False(t, b.RendersToScreen())
	assert.Nil(t, v.OnScreenRender())
	a.Destroy()
	b.Destroy()
}

func TestOffScreenRenders(t *testing.T) {
	v, rec := newTestView()
	defer v.Destroy()

	fr := unlitFrame(v, "capture")
	require.NoError(t, v.AddOffScreenRender(fr))
	assert.ErrorIs(t, v.AddOffScreenRender(fr), ErrAlreadyCurrent)
	assert.False(t, fr.RendersToScreen())

	require.NoError(t, v.RenderFrame())
	assert.Equal(t, 1, rec.Count("CreateFramebuffer"))

	require.NoError(t, v.RemoveOffScreenRender(fr))
	assert.ErrorIs(t, v.RemoveOffScreenRender(fr), ErrUnknownRender)
	assert.Empty(t, v.OffScreenRenders())
	fr.Destroy()
}

func TestFailedFrameIsNeverInstalled(t *testing.T) {
	v, _ := newTestView()
	defer v.Destroy()

	pass := render.NewRenderPass(v,
		[]render.AttachmentDescriptor{render.Attachment(gpu.RGBA8)},
		render.NewSubpass(v, render.Unlit, render.DepthColor(render.NoAttachment, 0), render.WithMinVersion(gpu.GLES32)),
	)
	fr := render.NewFrameRender(v, "too-new", render.NewRenderPassChain(v, pass))

	assert.ErrorIs(t, v.SetOnScreenRender(fr), gpu.ErrUnsupportedVersion)
	assert.True(t, fr.Failed())
	assert.False(t, fr.Initialized())

	assert.ErrorIs(t, v.SetOnScreenRender(fr), ErrInitializeFailed)
	assert.ErrorIs(t, v.AddOffScreenRender(fr), ErrInitializeFailed)
	assert.Nil(t, v.OnScreenRender())
	assert.Empty(t, v.OffScreenRenders())
	require.NoError(t, v.RenderFrame())
	fr.Destroy()
}

func TestFrameCannotBeOnAndOffScreen(t *testing.T) {
	v, rec := newTestView()
	defer v.Destroy()

	fr := unlitFrame(v, "both")
	require.NoError(t, v.AddOffScreenRender(fr))
	assert.ErrorIs(t, v.SetOnScreenRender(fr), ErrAlreadyCurrent)
	assert.Nil(t, v.OnScreenRender())
	assert.False(t, fr.RendersToScreen())

	require.NoError(t, v.RenderFrame())
	assert.Equal(t, 1, rec.Count("Viewport"))
}

func TestRenderFrameDrawsVisibleObjects(t *testing.T) {
	v, _ := newTestView()
	defer v.Destroy()

	var drawn []string
	v.Graph().Add(&probe{name: "front", drawn: &drawn})
	v.Graph().Add(&probe{name: "behind", at: mgl32.Vec3{0, 0, 50}, drawn: &drawn})
	v.Graph().Add(&probe{name: "hidden", hidden: true, drawn: &drawn})
	require.NoError(t, v.SetOnScreenRender(unlitFrame(v, "main")))

	require.NoError(t, v.RenderFrame())
	assert.Equal(t, []string{"front"}, drawn)
	assert.Equal(t, uint64(1), v.Frame())
	assert.Equal(t, uint64(1), v.FrameState().Frame)
	assert.Equal(t, 3, v.Graph().Len())

	v.SetOnScreenRenderEnabled(false)
	require.NoError(t, v.RenderFrame())
	assert.Len(t, drawn, 1)
	assert.Equal(t, uint64(2), v.Frame())
}

func TestTasksRunAtFrameStart(t *testing.T) {
	v, rec := newTestView()
	defer v.Destroy()
	require.NoError(t, v.SetOnScreenRender(unlitFrame(v, "main")))

	cam := NewCamera(1, 1)
	cam.LookAt(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{})
	cam.Up = mgl32.Vec3{0, 0, -1}
	v.SetCamera(cam)
	v.SetViewport(gpu.Rect{X: 5, Y: 6, W: 40, H: 30})
	assert.NotSame(t, cam, v.Camera())

	require.NoError(t, v.RenderFrame())
	assert.Same(t, cam, v.Camera())
	assert.Equal(t, gpu.Rect{X: 5, Y: 6, W: 40, H: 30}, v.Viewport())
	assert.InDelta(t, 40.0/30.0, cam.AspectRatio, 1e-6)

	vp := rec.Find("Viewport")
	require.NotEmpty(t, vp)
	assert.Equal(t, gpu.Rect{X: 5, Y: 6, W: 40, H: 30}, vp[len(vp)-1].Args[0])
}

func TestSurfaceTracking(t *testing.T) {
	rec := gpu.NewRecorder(gpu.DefaultCapabilities())
	v := NewView(rec)
	defer v.Destroy()

	require.NoError(t, v.SetOnScreenRender(unlitFrame(v, "main")))
	require.NoError(t, v.RenderFrame())
	assert.Equal(t, uint64(0), v.Frame(), "empty viewport skips the frame")

	v.SetSurfaceSize(800, 600)
	assert.Equal(t, gpu.Rect{W: 800, H: 600}, v.Viewport())
	require.NoError(t, v.RenderFrame())
	assert.Equal(t, uint64(1), v.Frame())

	v.SetViewport(gpu.Rect{W: 100, H: 100})
	require.NoError(t, v.RenderFrame())
	v.SetSurfaceSize(1024, 768)
	assert.Equal(t, gpu.Rect{W: 100, H: 100}, v.Viewport())

	v.SetViewport(gpu.Rect{})
	require.NoError(t, v.RenderFrame())
	assert.Equal(t, gpu.Rect{W: 1024, H: 768}, v.Viewport())
}

func TestNoProjection(t *testing.T) {
	cam := NewCamera(1, 1)
	cam.FOV = 0
	v, _ := newTestView(WithCamera(cam))
	defer v.Destroy()
	require.NoError(t, v.SetOnScreenRender(unlitFrame(v, "main")))
	assert.ErrorIs(t, v.RenderFrame(), ErrNoProjection)
}

func TestHiddenViewSkipsFrames(t *testing.T) {
	v, rec := newTestView()
	defer v.Destroy()
	require.NoError(t, v.SetOnScreenRender(unlitFrame(v, "main")))

	v.SetViewportVisible(false)
	assert.False(t, v.ViewportVisible())
	require.NoError(t, v.RenderFrame())
	assert.Zero(t, rec.Count("Viewport"))

	v.SetDepthOrder(3)
	assert.Equal(t, 3, v.DepthOrder())
	v.SetBackgroundColor(1, 0, 0, 1)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, v.BackgroundColor())
}

func TestGraphQueuesChanges(t *testing.T) {
	g := NewGraph()
	var drawn []string
	a := &probe{name: "a", drawn: &drawn}
	b := &probe{name: "b", drawn: &drawn}

	g.Add(a)
	g.Add(b)
	g.Add(a)
	assert.Zero(t, g.Len())
	g.Sync()
	assert.Equal(t, []render.Renderable{a, b}, g.Objects())

	g.Remove(a)
	g.Sync()
	assert.Equal(t, []render.Renderable{b}, g.Objects())
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(100, 100)
	proj, ok := cam.ProjectionMatrix()
	require.True(t, ok)
	f := extractFrustum(proj.Mul4(cam.ViewMatrix()))

	assert.True(t, f.intersectsAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
	assert.False(t, f.intersectsAABB(mgl32.Vec3{-1, -1, 10}, mgl32.Vec3{1, 1, 12}))
	assert.False(t, f.intersectsAABB(mgl32.Vec3{100, -1, -1}, mgl32.Vec3{102, 1, 1}))
	assert.False(t, f.intersectsAABB(mgl32.Vec3{-1, -1, -2000}, mgl32.Vec3{1, 1, -1990}))
}
