package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"sceneview/internal/gpu"
	"sceneview/internal/render"
	"sceneview/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	width, height int
	polls, swaps  int
	closeAfter    int
}

func (s *fakeSurface) Size() (int, int) { return s.width, s.height }
func (s *fakeSurface) PollEvents()      { s.polls++ }
func (s *fakeSurface) SwapBuffers()     { s.swaps++ }

func (s *fakeSurface) ShouldClose() bool {
	return s.closeAfter > 0 && s.swaps >= s.closeAfter
}

func newView(t *testing.T) (*scene.View, *gpu.Recorder) {
	t.Helper()
	rec := gpu.NewRecorder(gpu.DefaultCapabilities())
	v := scene.NewView(rec)
	pass := render.NewRenderPass(v,
		[]render.AttachmentDescriptor{render.Attachment(gpu.RGBA8)},
		render.NewSubpass(v, render.Unlit, render.DepthColor(render.NoAttachment, 0)),
	)
	require.NoError(t, v.SetOnScreenRender(render.NewFrameRender(v, "main", render.NewRenderPassChain(v, pass))))
	t.Cleanup(v.Destroy)
	return v, rec
}

func TestRenderOncePropagatesSurfaceSize(t *testing.T) {
	surface := &fakeSurface{width: 320, height: 200}
	e := New(surface, WithFPS(0))
	v, rec := newView(t)
	e.AddView(v)
	e.AddView(v)
	assert.Len(t, e.Views(), 1)

	require.NoError(t, e.RunFrames(2))
	assert.Equal(t, gpu.Rect{W: 320, H: 200}, v.Viewport())
	assert.Equal(t, uint64(2), v.Frame())
	assert.Equal(t, 2, surface.swaps)
	assert.Equal(t, 2, surface.polls)
	assert.Equal(t, uint64(2), e.Frames())
	assert.Equal(t, 2, rec.Count("Viewport"))

	surface.width = 640
	require.NoError(t, e.RenderOnce())
	assert.Equal(t, gpu.Rect{W: 640, H: 200}, v.Viewport())

	e.RemoveView(v)
	require.NoError(t, e.RenderOnce())
	assert.Equal(t, uint64(3), v.Frame())
}

func TestViewsDrawInDepthOrder(t *testing.T) {
	surface := &fakeSurface{width: 100, height: 100}
	e := New(surface, WithFPS(0))
	front, _ := newView(t)
	back, _ := newView(t)
	front.SetDepthOrder(2)
	back.SetDepthOrder(1)
	e.AddView(front)
	e.AddView(back)

	require.NoError(t, e.RenderOnce())
	assert.Equal(t, []*scene.View{back, front}, e.Views())
}

func TestRunStopsWhenSurfaceCloses(t *testing.T) {
	surface := &fakeSurface{width: 64, height: 64, closeAfter: 3}
	e := New(surface, WithFPS(0))
	v, _ := newView(t)
	e.AddView(v)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, uint64(3), e.Frames())
	assert.Zero(t, e.Failed())
}

func TestRunCountsFailedFrames(t *testing.T) {
	surface := &fakeSurface{width: 64, height: 64, closeAfter: 2}
	e := New(surface, WithFPS(0))
	cam := scene.NewCamera(1, 1)
	cam.FarPlane = 0
	v, _ := newView(t)
	v.SetCamera(cam)
	e.AddView(v)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, uint64(2), e.Failed())
	assert.ErrorIs(t, e.RunFrames(1), scene.ErrNoProjection)
}

func TestRunHonoursContext(t *testing.T) {
	surface := &fakeSurface{width: 64, height: 64}
	e := New(surface, WithFPS(200))
	v, _ := newView(t)
	e.AddView(v)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Positive(t, e.Frames())
	assert.LessOrEqual(t, e.Frames(), uint64(25))
}

func TestLimiter(t *testing.T) {
	var fps atomic.Int32
	l := NewLimiter(func() int { return int(fps.Load()) })
	assert.Zero(t, l.Interval())
	assert.Zero(t, l.Wait(context.Background()))

	fps.Store(100)
	assert.Equal(t, 10*time.Millisecond, l.Interval())
	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.Equal(t, 10*time.Millisecond, l.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	// a cancelled context cuts the wait short
	fps.Store(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	l.Wait(ctx)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestUpdateRunsBeforeViews(t *testing.T) {
	surface := &fakeSurface{width: 64, height: 64}
	v, _ := newView(t)
	var dts []time.Duration
	e := New(surface, WithFPS(0), WithUpdate(func(dt time.Duration) {
		dts = append(dts, dt)
		// tasks posted here run in this frame
		v.Post(func() { v.SetDepthOrder(len(dts)) })
	}))
	e.AddView(v)

	require.NoError(t, e.RunFrames(3))
	require.Len(t, dts, 3)
	assert.Zero(t, dts[0])
	assert.Positive(t, dts[2])
	assert.Equal(t, 3, v.DepthOrder())
}
