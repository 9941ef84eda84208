package preset

import (
	"testing"

	"sceneview/internal/gpu"
	"sceneview/internal/object"
	"sceneview/internal/render"
	"sceneview/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRenderer struct {
	pipeline render.PipelineType
	draws    int
}

func (r *countingRenderer) Pipeline() render.PipelineType            { return r.pipeline }
func (r *countingRenderer) EnsureState(render.ObjectRenderer)        {}
func (r *countingRenderer) SetCameraMatrices(_, _, _ mgl32.Mat4)     {}
func (r *countingRenderer) PrepareForObject(render.Renderable) error { return nil }

func (r *countingRenderer) IssueDrawCalls(render.Renderable) error {
	r.draws++
	return nil
}

type fixture struct {
	rec       *gpu.Recorder
	view      *scene.View
	renderers map[render.PipelineType]*countingRenderer
	quad      *object.Object
}

func newFixture(t *testing.T, caps gpu.Capabilities) *fixture {
	t.Helper()
	f := &fixture{
		rec:       gpu.NewRecorder(caps),
		renderers: make(map[render.PipelineType]*countingRenderer),
	}
	table := render.NewPipelineTable()
	for _, p := range render.PipelineTypes() {
		if p == render.NoOp {
			continue
		}
		r := &countingRenderer{pipeline: p}
		f.renderers[p] = r
		table.Register(r)
	}
	f.view = scene.NewView(f.rec, scene.WithViewport(gpu.Rect{W: 320, H: 240}))
	f.view.Graph().Add(object.New("box", table, object.Cube()))
	f.quad = object.NewScreenQuad(table)
	t.Cleanup(f.view.Destroy)
	return f
}

func (f *fixture) options() Options {
	return Options{ClearColor: [4]float32{0.1, 0.2, 0.3, 1}, Quad: f.quad}
}

func (f *fixture) draws(p render.PipelineType) int {
	return f.renderers[p].draws
}

func TestPresetsRenderOnScreen(t *testing.T) {
	cases := []struct {
		name  string
		draws map[render.PipelineType]int
	}{
		{"forward", map[render.PipelineType]int{render.LitForward: 1}},
		{"unlit", map[render.PipelineType]int{render.Unlit: 1}},
		{"post-process", map[render.PipelineType]int{render.LitForward: 1, render.PostProcessQuad: 1}},
		{"deferred", map[render.PipelineType]int{render.GBufferWrite: 1, render.DeferredLitQuad: 1}},
		{"shadow", map[render.PipelineType]int{render.ShadowMapWrite: 1, render.ShadowForward: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, gpu.DefaultCapabilities())
			fr, err := ByName(f.view, tc.name, f.options())
			require.NoError(t, err)
			require.NoError(t, f.view.SetOnScreenRender(fr))
			require.NoError(t, f.view.RenderFrame())

			for p, n := range tc.draws {
				assert.Equal(t, n, f.draws(p), "draws of %s", p)
			}
			assert.Equal(t, gpu.NoHandle, f.rec.Bound(), "last subpass draws to the screen")
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"deferred", "forward", "post-process", "shadow", "unlit"}, Names())

	f := newFixture(t, gpu.DefaultCapabilities())
	_, err := ByName(f.view, "raytraced", f.options())
	assert.Error(t, err)
}

func TestQuadPresetsNeedQuad(t *testing.T) {
	f := newFixture(t, gpu.DefaultCapabilities())
	assert.Panics(t, func() { PostProcess(f.view, Options{}) })
	assert.Panics(t, func() { Deferred(f.view, Options{}) })
	assert.NotPanics(t, func() { Forward(f.view, Options{}) })
}

func TestDeferredGBuffer(t *testing.T) {
	f := newFixture(t, gpu.DefaultCapabilities())
	fr := Deferred(f.view, f.options())
	require.NoError(t, f.view.SetOnScreenRender(fr))
	// the lighting subpass runs anywhere; the G-buffer formats gate the frame
	assert.Equal(t, gpu.GLES20, fr.MinVersion())
	require.NoError(t, f.view.RenderFrame())

	gbuffer := fr.Passes()[0]
	assert.True(t, gbuffer.Sampled(1))
	assert.True(t, gbuffer.Sampled(2))
	assert.False(t, gbuffer.Sampled(0))
	assert.Equal(t, 2, f.rec.Count("CreateTexture"))
	assert.Equal(t, 1, f.rec.Count("CreateRenderbuffer"))
	assert.Equal(t, 2, f.rec.Count("BindTexture"))
	assert.Nil(t, fr.FinalPass().Framebuffer())
	assert.Equal(t, 1, f.rec.Count("CreateFramebuffer"))
}

func TestDeferredNeedsGLES30(t *testing.T) {
	caps := gpu.DefaultCapabilities()
	caps.Version = gpu.GLES20
	f := newFixture(t, caps)

	fr := Deferred(f.view, f.options())
	err := f.view.SetOnScreenRender(fr)
	assert.ErrorIs(t, err, gpu.ErrUnsupportedVersion)
	assert.Nil(t, f.view.OnScreenRender())

	require.NoError(t, f.view.SetOnScreenRender(Forward(f.view, f.options())))
}

func TestShadowMapHasFixedSize(t *testing.T) {
	f := newFixture(t, gpu.DefaultCapabilities())
	fr := Shadow(f.view, Options{ShadowSize: 512})
	require.NoError(t, f.view.SetOnScreenRender(fr))
	assert.False(t, fr.TargetSizeTracksViewport())
	require.NoError(t, f.view.RenderFrame())

	var rects []gpu.Rect
	for _, c := range f.rec.Find("Viewport") {
		rects = append(rects, c.Args[0].(gpu.Rect))
	}
	assert.Equal(t, []gpu.Rect{{W: 512, H: 512}, {W: 320, H: 240}}, rects)

	tex := f.rec.Find("CreateTexture")
	require.Len(t, tex, 1)
	assert.Equal(t, []any{gpu.Depth16, 1, 512, 512}, tex[0].Args)
}

func TestOffScreenOutput(t *testing.T) {
	f := newFixture(t, gpu.DefaultCapabilities())
	fr, out := OffScreen(f.view, Options{Width: 64, Height: 32})
	assert.Equal(t, 1, out)
	require.NoError(t, f.view.AddOffScreenRender(fr))
	assert.False(t, fr.RenderableToScreen())
	assert.ErrorIs(t, f.view.SetOnScreenRender(fr), scene.ErrNotScreenRenderable)

	require.NoError(t, f.view.RenderFrame())
	b := fr.Output(out)
	require.NotNil(t, b)
	assert.True(t, b.Key.Sampled)
	assert.Equal(t, 64, b.Key.Width)
	assert.Equal(t, 32, b.Key.Height)

	require.NoError(t, f.view.RenderFrame())
	assert.Same(t, b, fr.Output(out), "preserved buffer is reused")
}

func TestOffScreenMultisampled(t *testing.T) {
	f := newFixture(t, gpu.DefaultCapabilities())
	fr, out := OffScreen(f.view, Options{Samples: 4})
	assert.Equal(t, 2, out)
	require.NoError(t, f.view.AddOffScreenRender(fr))
	require.NoError(t, f.view.RenderFrame())

	assert.Equal(t, 1, f.rec.Count("ResolveAttachment"))
	b := fr.Output(out)
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Key.Samples)
	assert.Equal(t, 320, b.Key.Width)
}
