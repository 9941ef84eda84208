// Package preset builds the frame renders the application ships with.
package preset

import (
	"fmt"
	"sort"

	"sceneview/internal/gpu"
	"sceneview/internal/render"
)

// DefaultShadowSize is the shadow map edge used when Options leaves it unset.
const DefaultShadowSize = 1024

// Options tune a preset. Zero values select defaults.
type Options struct {
	ClearColor [4]float32
	// Quad is drawn by screen-quad subpasses; presets that have one require it.
	Quad render.Renderable
	// Samples enables multisampling where the preset supports it.
	Samples int
	// ShadowSize is the shadow map edge in pixels.
	ShadowSize int
	// Width and Height fix the off-screen target size. Zero follows the
	// viewport.
	Width, Height int
}

func (o Options) clear() render.SubpassOption {
	c := o.ClearColor
	return render.WithClearColor(c[0], c[1], c[2], c[3])
}

func (o Options) quad(preset string) render.Renderable {
	if o.Quad == nil {
		panic(fmt.Errorf("%w: preset %s needs a screen quad", render.ErrIllegalState, preset))
	}
	return o.Quad
}

// Builder builds a frame render for a view.
type Builder func(view render.SceneView, o Options) *render.FrameRender

var builders = map[string]Builder{
	"forward":      Forward,
	"unlit":        Unlit,
	"post-process": PostProcess,
	"deferred":     Deferred,
	"shadow":       Shadow,
}

// Names lists the presets ByName accepts.
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named preset.
func ByName(view render.SceneView, name string, o Options) (*render.FrameRender, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline preset %q (have %v)", name, Names())
	}
	return b(view, o), nil
}

// SinglePass renders the scene with one pipeline straight into a color and
// depth attachment.
func SinglePass(view render.SceneView, name string, pipeline render.PipelineType, o Options) *render.FrameRender {
	pass := render.NewRenderPass(view,
		[]render.AttachmentDescriptor{
			render.Attachment(gpu.Depth16),
			render.Attachment(gpu.RGBA8),
		},
		render.NewSubpass(view, pipeline, render.DepthColor(0, 1), o.clear()),
	)
	return render.NewFrameRender(view, name, render.NewRenderPassChain(view, pass))
}

// Forward is the default single lit pass.
func Forward(view render.SceneView, o Options) *render.FrameRender {
	return SinglePass(view, "forward", render.LitForward, o)
}

func Unlit(view render.SceneView, o Options) *render.FrameRender {
	return SinglePass(view, "unlit", render.Unlit, o)
}

// PostProcess draws the lit scene into a texture and filters it onto the
// output with a screen quad in a second subpass of the same pass.
func PostProcess(view render.SceneView, o Options) *render.FrameRender {
	pass := render.NewRenderPass(view,
		[]render.AttachmentDescriptor{
			render.Attachment(gpu.Depth16),
			render.Attachment(gpu.RGBA8),
			render.Attachment(gpu.RGBA8),
		},
		render.NewSubpass(view, render.LitForward, render.DepthColor(0, 1), o.clear()),
		render.NewSubpass(view, render.PostProcessQuad,
			render.DepthColor(render.NoAttachment, 2).WithInputs(1),
			render.WithObjects(o.quad("post-process")), o.clear()),
	)
	return render.NewFrameRender(view, "post-process", render.NewRenderPassChain(view, pass))
}

// Deferred writes albedo and normals into a G-buffer and lights them with a
// screen quad in a second pass.
func Deferred(view render.SceneView, o Options) *render.FrameRender {
	gbuffer := render.NewRenderPass(view,
		[]render.AttachmentDescriptor{
			render.Attachment(gpu.Depth24Stencil8),
			render.Attachment(gpu.RGBA8),
			render.Attachment(gpu.RGBA16F),
		},
		render.NewSubpass(view, render.GBufferWrite, render.DepthColor(0, 1, 2),
			render.WithMinVersion(gpu.GLES30), render.WithClearColor(0, 0, 0, 0)),
	)
	lighting := render.NewRenderPass(view,
		[]render.AttachmentDescriptor{
			render.Attachment(gpu.RGBA8),
			render.Attachment(gpu.RGBA8).Loaded(),
			render.Attachment(gpu.RGBA16F).Loaded(),
		},
		render.NewSubpass(view, render.DeferredLitQuad,
			render.DepthColor(render.NoAttachment, 0).WithInputs(1, 2),
			render.WithObjects(o.quad("deferred")), o.clear()),
	)
	chain := render.NewRenderPassChain(view, gbuffer, lighting).
		Route(0, 1, 1).
		Route(0, 2, 2)
	return render.NewFrameRender(view, "deferred", chain)
}

// Shadow renders a depth-only shadow map at a fixed size, then draws the
// scene sampling it.
func Shadow(view render.SceneView, o Options) *render.FrameRender {
	size := o.ShadowSize
	if size <= 0 {
		size = DefaultShadowSize
	}
	shadowMap := render.NewRenderPass(view,
		[]render.AttachmentDescriptor{render.Attachment(gpu.Depth16)},
		render.NewSubpass(view, render.ShadowMapWrite, render.DepthColor(0),
			render.WithFixedTargetSize(size, size)),
	)
	forward := render.NewRenderPass(view,
		[]render.AttachmentDescriptor{
			render.Attachment(gpu.Depth16),
			render.Attachment(gpu.RGBA8),
			render.Attachment(gpu.Depth16).Loaded(),
		},
		render.NewSubpass(view, render.ShadowForward,
			render.DepthColor(0, 1).WithInputs(2), o.clear()),
	)
	chain := render.NewRenderPassChain(view, shadowMap, forward).Route(0, 0, 2)
	return render.NewFrameRender(view, "shadow", chain)
}

// OffScreen renders the lit scene into a preserved color buffer that
// outlives the frame, for capture. It returns the frame and the index of
// the attachment FrameRender.Output reads. With Samples > 1 the scene is
// drawn multisampled and resolved into the output.
func OffScreen(view render.SceneView, o Options) (*render.FrameRender, int) {
	opts := []render.SubpassOption{o.clear(), render.NotRenderableToScreen()}
	if o.Width > 0 && o.Height > 0 {
		opts = append(opts, render.WithFixedTargetSize(o.Width, o.Height))
	}

	var (
		attachments []render.AttachmentDescriptor
		roles       render.AttachmentRoles
		output      int
	)
	if o.Samples > 1 {
		attachments = []render.AttachmentDescriptor{
			render.Attachment(gpu.Depth16).Multisampled(o.Samples),
			render.Attachment(gpu.RGBA8).Multisampled(o.Samples),
			render.Attachment(gpu.RGBA8).Preserved(),
		}
		roles = render.DepthColor(0, 1).WithResolves(2)
		output = 2
		opts = append(opts, render.WithMinVersion(gpu.GLES30))
	} else {
		attachments = []render.AttachmentDescriptor{
			render.Attachment(gpu.Depth16),
			render.Attachment(gpu.RGBA8).Preserved(),
		}
		roles = render.DepthColor(0, 1)
		output = 1
	}
	pass := render.NewRenderPass(view, attachments,
		render.NewSubpass(view, render.LitForward, roles, opts...))
	return render.NewFrameRender(view, "off-screen", render.NewRenderPassChain(view, pass)), output
}
