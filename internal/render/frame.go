package render

import (
	"fmt"

	"sceneview/internal/profiling"
)

// FrameRender is the root of a render tree: the chains that together draw
// one frame of a view, either to the screen or off-screen.
type FrameRender struct {
	Composite[*RenderPassChain]
	name string
}

// NewFrameRender returns a frame render over chains. name labels the tree
// in logs and profiles.
func NewFrameRender(view SceneView, name string, chains ...*RenderPassChain) *FrameRender {
	if name == "" {
		name = "frame"
	}
	f := &FrameRender{name: name}
	f.init(view, name, "chain")
	f.prepared = f.prepare
	for _, c := range chains {
		f.AddChild(c)
	}
	return f
}

func (f *FrameRender) Name() string { return f.name }

func (f *FrameRender) prepare() error {
	if err := f.view.Capabilities().Verify(f.MinVersion()); err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}
	subs := f.Subpasses()
	if first := subs[0]; first.pipeline.IsScreenQuad() {
		failIllegal("%s: first subpass %s does not consume scene objects", f.name, first.pipeline)
	}
	if last := subs[len(subs)-1]; !last.roles.HasOutput() {
		failIllegal("%s: last subpass writes no attachment", f.name)
	}
	logger.Infof("%s: %d chains, %d passes, %d subpasses, needs %s", f.name, f.ChildCount(), len(f.Passes()), len(subs), f.MinVersion())
	return nil
}

// SetRendersToScreen routes the final subpass to the default framebuffer
// or off it. It panics if the frame cannot render to the screen.
func (f *FrameRender) SetRendersToScreen(rendersToScreen bool) {
	f.setRendersToScreen(rendersToScreen)
}

// Passes returns every pass in render order.
func (f *FrameRender) Passes() []*RenderPass {
	var out []*RenderPass
	for _, c := range f.Children() {
		out = append(out, c.Children()...)
	}
	return out
}

// Subpasses returns every subpass in render order.
func (f *FrameRender) Subpasses() []*Subpass {
	var out []*Subpass
	for _, p := range f.Passes() {
		out = append(out, p.Children()...)
	}
	return out
}

// FinalPass returns the pass that renders last.
func (f *FrameRender) FinalPass() *RenderPass {
	return f.Last().Last()
}

// Output returns the preserved buffer of attachment i of the final pass
// after the last frame, or nil.
func (f *FrameRender) Output(i int) *AttachmentBuffer {
	p := f.FinalPass()
	if i < 0 || i >= len(p.attachments) {
		return nil
	}
	return p.Preserved(i)
}

// Render draws one frame.
func (f *FrameRender) Render() error {
	f.checkRender()
	defer profiling.Track(f.name)()
	return f.RenderChildren()
}
