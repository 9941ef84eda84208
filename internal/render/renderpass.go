package render

import (
	"fmt"

	"sceneview/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// frameInputs is what a pass samples from its view at the start of each
// frame so every subpass sees the same values.
type frameInputs struct {
	skybox         Renderable
	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4
	width, height  int
}

// RenderPass is an ordered list of subpasses sharing a set of attachments.
// Subpass 0 draws the scene objects; later subpasses consume what earlier
// ones wrote.
type RenderPass struct {
	Composite[*Subpass]

	attachments []AttachmentDescriptor
	// sampled attachments are read after being written, so they are backed
	// by textures.
	sampled []bool

	framebuffer *Framebuffer
	chain       *RenderPassChain
	chainIndex  int

	fixedWidth  int
	fixedHeight int

	frame     frameInputs
	buffers   []*AttachmentBuffer
	held      []bool
	written   []bool
	preserved []*AttachmentBuffer
}

// NewRenderPass returns a pass over attachments running subpasses in order.
func NewRenderPass(view SceneView, attachments []AttachmentDescriptor, subpasses ...*Subpass) *RenderPass {
	if len(attachments) == 0 {
		failIllegal("render pass without attachments")
	}
	n := len(attachments)
	p := &RenderPass{
		attachments: append([]AttachmentDescriptor(nil), attachments...),
		sampled:     make([]bool, n),
		chainIndex:  -1,
		buffers:     make([]*AttachmentBuffer, n),
		held:        make([]bool, n),
		written:     make([]bool, n),
		preserved:   make([]*AttachmentBuffer, n),
	}
	p.init(view, "pass", "subpass")
	p.adopt = func(s *Subpass, index int) {
		if s.pass != nil && s.pass != p {
			failIllegal("subpass already belongs to another pass")
		}
		s.pass = p
		s.index = index
	}
	p.validate = p.validateRoles
	p.prepared = p.prepare
	for _, s := range subpasses {
		p.AddChild(s)
	}
	return p
}

// Attachments returns the attachment descriptors.
func (p *RenderPass) Attachments() []AttachmentDescriptor { return p.attachments }

// Sampled reports whether attachment i is backed by a texture.
func (p *RenderPass) Sampled(i int) bool { return p.sampled[i] }

// Framebuffer returns the off-screen framebuffer, or nil if the pass draws
// straight to the screen.
func (p *RenderPass) Framebuffer() *Framebuffer { return p.framebuffer }

// Chain returns the owning chain, or nil.
func (p *RenderPass) Chain() *RenderPassChain { return p.chain }

// RendersFromSceneObjects reports whether subpass i draws the view's scene
// objects. Only the first one does.
func (p *RenderPass) RendersFromSceneObjects(i int) bool {
	return i == 0
}

// SubpassRendersToScreen reports whether subpass i draws into the default
// framebuffer.
func (p *RenderPass) SubpassRendersToScreen(i int) bool {
	return i == p.ChildCount()-1 && p.RendersToScreen()
}

// UsesFramebufferObject reports whether any subpass draws off-screen.
func (p *RenderPass) UsesFramebufferObject() bool {
	return !p.RendersToScreen() || p.ChildCount() > 1
}

// TargetSize is the size of the pass's buffers for the current frame.
func (p *RenderPass) TargetSize() (int, int) {
	return p.frame.width, p.frame.height
}

func (p *RenderPass) validateRoles() {
	for i, s := range p.Children() {
		s.roles.validate(fmt.Sprintf("%s subpass %d", p.label, i), p.attachments)
		for _, in := range s.roles.Inputs {
			p.sampled[in] = true
		}
		if i == 0 {
			p.fixedWidth, p.fixedHeight = s.fixedWidth, s.fixedHeight
		} else if s.fixedWidth != p.fixedWidth || s.fixedHeight != p.fixedHeight {
			// subpasses share one framebuffer, so they share one size
			failIllegal("%s subpass %d: target size %dx%d, pass uses %dx%d",
				p.label, i, s.fixedWidth, s.fixedHeight, p.fixedWidth, p.fixedHeight)
		}
	}
	for i, d := range p.attachments {
		if d.PreserveAfterLastUse {
			p.sampled[i] = true
		}
	}
}

func (p *RenderPass) prepare() error {
	caps := p.view.Capabilities()
	for i, d := range p.attachments {
		if err := caps.CheckAttachment(d.Format, d.samples(), 1, 1); err != nil {
			return fmt.Errorf("%s attachment %d: %w", p.label, i, err)
		}
	}
	return nil
}

// ensureFramebufferObject allocates the framebuffer once the pass needs one.
func (p *RenderPass) ensureFramebufferObject() {
	if p.UsesFramebufferObject() && p.framebuffer == nil {
		p.framebuffer = newFramebuffer(p.view.Device())
	}
}

func (p *RenderPass) setRendersToScreen(rendersToScreen bool) {
	p.Composite.setRendersToScreen(rendersToScreen)
	p.ensureFramebufferObject()
}

// Render acquires the pass's buffers, runs every subpass and hands the
// buffers on.
func (p *RenderPass) Render() error {
	p.checkRender()
	defer profiling.Track(p.label)()

	p.ensureFramebufferObject()
	p.updateFrameInputs()
	err := p.acquireAttachmentBuffers()
	if err == nil {
		err = p.RenderChildren()
	}
	p.releaseAttachmentBuffers(err == nil)
	return err
}

func (p *RenderPass) updateFrameInputs() {
	v := p.view
	p.frame.skybox = v.Skybox()
	p.frame.view = v.ViewMatrix()
	p.frame.projection = v.ProjectionMatrix()
	p.frame.viewProjection = v.ViewProjectionMatrix()
	if p.TargetSizeTracksViewport() {
		vp := v.Viewport()
		p.frame.width, p.frame.height = vp.W, vp.H
	} else {
		p.frame.width, p.frame.height = p.fixedWidth, p.fixedHeight
	}
	for i := range p.written {
		p.written[i] = false
	}
}

// needsBuffer reports whether attachment i needs a pooled buffer this
// frame. Attachments only the on-screen subpass writes live in the default
// framebuffer.
func (p *RenderPass) needsBuffer(i int) bool {
	if !p.UsesFramebufferObject() {
		return false
	}
	if !p.RendersToScreen() || p.sampled[i] {
		return true
	}
	last := p.ChildCount() - 1
	for k, s := range p.Children() {
		if k != last && s.roles.Uses(i) {
			return true
		}
	}
	return false
}

func (p *RenderPass) acquireAttachmentBuffers() error {
	pool := p.view.Pool()
	for i, d := range p.attachments {
		if p.chain != nil {
			if b := p.chain.takeRouted(p.chainIndex, i); b != nil {
				p.buffers[i], p.held[i] = b, true
				continue
			}
		}
		if !p.needsBuffer(i) {
			continue
		}
		key := AttachmentKey{
			Format:  d.Format,
			Width:   p.frame.width,
			Height:  p.frame.height,
			Samples: d.samples(),
			Sampled: p.sampled[i],
		}
		if prev := p.preserved[i]; prev != nil && prev.Key == key {
			prev.Retain()
			p.buffers[i], p.held[i] = prev, true
			continue
		}
		b, err := pool.Acquire(key)
		if err != nil {
			return fmt.Errorf("%s attachment %d: %w", p.label, i, err)
		}
		p.buffers[i], p.held[i] = b, true
	}
	return nil
}

// releaseAttachmentBuffers hands routed buffers to the next pass, keeps
// preserved ones and returns the rest to the pool.
func (p *RenderPass) releaseAttachmentBuffers(handOff bool) {
	pool := p.view.Pool()
	for i, b := range p.buffers {
		if b == nil {
			continue
		}
		if handOff && p.chain != nil {
			p.chain.handOff(p.chainIndex, i, b)
		}
		if p.attachments[i].PreserveAfterLastUse && handOff {
			p.preserve(i, b)
		}
		if p.held[i] {
			pool.Release(b)
		}
		p.buffers[i], p.held[i] = nil, false
	}
}

func (p *RenderPass) preserve(i int, b *AttachmentBuffer) {
	prev := p.preserved[i]
	if prev == b {
		return
	}
	b.Retain()
	if prev != nil {
		p.view.Pool().Release(prev)
	}
	p.preserved[i] = b
}

// Preserved returns the buffer kept for attachment i after the last frame.
func (p *RenderPass) Preserved(i int) *AttachmentBuffer {
	return p.preserved[i]
}

func (p *RenderPass) needsClear(i int) bool {
	return p.attachments[i].ClearBeforeFirstUse && !p.written[i]
}

func (p *RenderPass) markWritten(r AttachmentRoles) {
	for _, i := range r.Colors {
		p.written[i] = true
	}
	if r.DepthStencil != NoAttachment {
		p.written[r.DepthStencil] = true
	}
	for _, i := range r.Resolves {
		if i != NoAttachment {
			p.written[i] = true
		}
	}
}

// Destroy destroys the subpasses and frees the framebuffer and preserved
// buffers.
func (p *RenderPass) Destroy() {
	p.Composite.Destroy()
	pool := p.view.Pool()
	for i, b := range p.preserved {
		if b != nil {
			pool.Release(b)
			p.preserved[i] = nil
		}
	}
	if p.framebuffer != nil {
		p.framebuffer.Destroy()
	}
}
