package render

import (
	"errors"
	"testing"

	"sceneview/internal/gpu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeMinVersionIsLowestChild(t *testing.T) {
	cases := []struct {
		name     string
		children []gpu.ContextVersion
		want     gpu.ContextVersion
	}{
		{"single", []gpu.ContextVersion{gpu.GLES31}, gpu.GLES31},
		{"two", []gpu.ContextVersion{gpu.GLES30, gpu.GLES20}, gpu.GLES20},
		{"three", []gpu.ContextVersion{gpu.GLES20, gpu.GLES30, gpu.GLES31}, gpu.GLES20},
		{"lowest in the middle", []gpu.ContextVersion{gpu.GLES31, gpu.GLES20, gpu.GLES30}, gpu.GLES20},
		{"all equal", []gpu.ContextVersion{gpu.GLES30, gpu.GLES30}, gpu.GLES30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestView()
			var events []string
			c := NewComposite[*testLeaf](v)
			for i, min := range tc.children {
				c.AddChild(newTestLeaf(v, string(rune('a'+i)), &events, min))
			}
			require.NoError(t, c.Initialize())
			assert.Equal(t, tc.want, c.MinVersion())
		})
	}
}

func TestNestedCompositesDeriveBeforeInitialize(t *testing.T) {
	v := newTestView()
	var events []string
	inner1 := NewComposite(v, newTestLeaf(v, "a", &events, gpu.GLES30), newTestLeaf(v, "b", &events, gpu.GLES31))
	inner2 := NewComposite(v, newTestLeaf(v, "c", &events, gpu.GLES32))
	outer := NewComposite(v, inner1, inner2)

	require.NoError(t, outer.Initialize())
	assert.Equal(t, gpu.GLES30, inner1.MinVersion())
	assert.Equal(t, gpu.GLES32, inner2.MinVersion())
	assert.Equal(t, gpu.GLES30, outer.MinVersion())
	assert.Equal(t, []string{"init a", "init b", "init c"}, events)
}

func TestCompositeLifecycleOrder(t *testing.T) {
	v := newTestView()
	var events []string
	c := NewComposite(v, newTestLeaf(v, "a", &events, gpu.GLES20), newTestLeaf(v, "b", &events, gpu.GLES20))

	require.NoError(t, c.Initialize())
	require.NoError(t, c.Render())
	require.NoError(t, c.Render())
	c.Destroy()

	assert.Equal(t, []string{
		"init a", "init b",
		"render a", "render b",
		"render a", "render b",
		"destroy a", "destroy b",
	}, events)
}

func TestCompositeInitializeStopsAtFirstError(t *testing.T) {
	v := newTestView()
	var events []string
	a := newTestLeaf(v, "a", &events, gpu.GLES20)
	a.initErr = errors.New("boom")
	c := NewComposite(v, a, newTestLeaf(v, "b", &events, gpu.GLES20))

	assert.EqualError(t, c.Initialize(), "boom")
	assert.Equal(t, []string{"init a"}, events)
}

func TestCompositeAggregateFlags(t *testing.T) {
	v := newTestView()
	var events []string
	a := newTestLeaf(v, "a", &events, gpu.GLES20)
	a.targetSizeTracksViewport = false
	b := newTestLeaf(v, "b", &events, gpu.GLES20)
	b.renderableToScreen = false

	c := NewComposite(v, a, b)
	require.NoError(t, c.Initialize())
	assert.False(t, c.TargetSizeTracksViewport())
	assert.False(t, c.RenderableToScreen())

	a2 := newTestLeaf(v, "a2", &events, gpu.GLES20)
	a2.renderableToScreen = false
	c2 := NewComposite(v, a2, newTestLeaf(v, "b2", &events, gpu.GLES20))
	require.NoError(t, c2.Initialize())
	assert.True(t, c2.RenderableToScreen())
	assert.True(t, c2.TargetSizeTracksViewport())
}

func TestCompositeScreenRoutingReachesLastChildOnly(t *testing.T) {
	v := newTestView()
	var events []string
	a := newTestLeaf(v, "a", &events, gpu.GLES20)
	b := newTestLeaf(v, "b", &events, gpu.GLES20)
	c := NewComposite(v, a, b)
	require.NoError(t, c.Initialize())

	c.setRendersToScreen(true)
	assert.True(t, c.RendersToScreen())
	assert.False(t, a.RendersToScreen())
	assert.True(t, b.RendersToScreen())

	c.setRendersToScreen(false)
	assert.False(t, b.RendersToScreen())
}

func TestCompositeMisuse(t *testing.T) {
	v := newTestView()
	var events []string

	empty := NewComposite[*testLeaf](v)
	requireIllegal(t, func() { _ = empty.Initialize() })

	c := NewComposite(v, newTestLeaf(v, "a", &events, gpu.GLES20))
	requireIllegal(t, func() { c.setRendersToScreen(true) })
	requireIllegal(t, func() { _ = c.Render() })
	requireIllegal(t, func() { c.Last() })

	require.NoError(t, c.Initialize())
	requireIllegal(t, func() { c.AddChild(newTestLeaf(v, "late", &events, gpu.GLES20)) })
	assert.Equal(t, 1, c.ChildCount())
	assert.Equal(t, "a", c.Last().name)
	requireIllegal(t, func() { _ = c.Initialize() })

	c.Destroy()
	requireIllegal(t, func() { _ = c.Render() })
	requireIllegal(t, func() { c.Destroy() })
}

func TestScreenRoutingToUnrenderableChildPanics(t *testing.T) {
	v := newTestView()
	var events []string
	b := newTestLeaf(v, "b", &events, gpu.GLES20)
	b.renderableToScreen = false
	c := NewComposite(v, newTestLeaf(v, "a", &events, gpu.GLES20), b)
	require.NoError(t, c.Initialize())

	requireIllegal(t, func() { c.setRendersToScreen(true) })
	assert.NotPanics(t, func() { c.setRendersToScreen(false) })
}

func TestPipelineTable(t *testing.T) {
	table := NewPipelineTable(&testRenderer{pipeline: Unlit})
	r, err := table.Lookup(Unlit)
	require.NoError(t, err)
	assert.Equal(t, Unlit, r.Pipeline())
	assert.True(t, table.Has(Unlit))

	_, err = table.Lookup(LitForward)
	assert.ErrorIs(t, err, ErrNoObjectRenderer)
	_, err = table.Lookup(PipelineType(99))
	assert.ErrorIs(t, err, ErrNoObjectRenderer)

	requireIllegal(t, func() { table.Register(&testRenderer{pipeline: NoOp}) })

	assert.True(t, PostProcessQuad.IsScreenQuad())
	assert.False(t, GBufferWrite.IsScreenQuad())
	assert.True(t, LitForward.DrawsSkybox())
	assert.Len(t, PipelineTypes(), int(pipelineTypeCount))
	assert.Equal(t, "deferred-lit-quad", DeferredLitQuad.String())
}

func TestDiscardTableCoversEveryPipeline(t *testing.T) {
	table := NewDiscardTable()
	assert.False(t, table.Has(NoOp))
	for _, p := range PipelineTypes()[1:] {
		r, err := table.Lookup(p)
		require.NoError(t, err, p.String())
		assert.Equal(t, p, r.Pipeline())
		assert.NoError(t, r.IssueDrawCalls(nil))
	}
}

func TestFailedInitializeCanOnlyBeDestroyed(t *testing.T) {
	v := newTestView()
	var events []string
	b := newTestLeaf(v, "b", &events, gpu.GLES20)
	b.initErr = errors.New("no")
	c := NewComposite(v, newTestLeaf(v, "a", &events, gpu.GLES20), b)

	require.Error(t, c.Initialize())
	assert.True(t, c.Failed())
	assert.False(t, c.Initialized())
	requireIllegal(t, func() { _ = c.Initialize() })
	requireIllegal(t, func() { _ = c.Render() })

	c.Destroy()
	assert.False(t, c.Failed())
	assert.Equal(t, []string{"init a", "init b", "destroy a", "destroy b"}, events)
}
