package render

import (
	"fmt"

	"sceneview/internal/gpu"
	"sceneview/internal/profiling"
)

// SubpassOption configures a Subpass.
type SubpassOption func(*Subpass)

// WithMinVersion sets the lowest context version the subpass needs.
func WithMinVersion(v gpu.ContextVersion) SubpassOption {
	return func(s *Subpass) { s.minVersion = v }
}

// NotRenderableToScreen keeps the subpass off the default framebuffer.
func NotRenderableToScreen() SubpassOption {
	return func(s *Subpass) { s.renderableToScreen = false }
}

// WithFixedTargetSize renders into buffers of a fixed size instead of
// following the viewport. Such a subpass cannot render to the screen.
func WithFixedTargetSize(width, height int) SubpassOption {
	return func(s *Subpass) {
		if width <= 0 || height <= 0 {
			failIllegal("fixed target size %dx%d", width, height)
		}
		s.targetSizeTracksViewport = false
		s.renderableToScreen = false
		s.fixedWidth, s.fixedHeight = width, height
	}
}

// WithObjects adds objects the subpass draws itself, after any scene
// objects. Screen quads are attached this way.
func WithObjects(objects ...Renderable) SubpassOption {
	return func(s *Subpass) { s.objects = append(s.objects, objects...) }
}

// WithClearColor sets the color used when the subpass clears its color
// attachments.
func WithClearColor(r, g, b, a float32) SubpassOption {
	return func(s *Subpass) { s.clearColor = [4]float32{r, g, b, a} }
}

// Subpass is the leaf of the render tree: one pipeline function drawing
// into a set of its pass's attachments.
type Subpass struct {
	component

	pipeline   PipelineType
	roles      AttachmentRoles
	objects    []Renderable
	clearColor [4]float32

	fixedWidth  int
	fixedHeight int

	pass                    *RenderPass
	index                   int
	rendersFromSceneObjects bool
}

// NewSubpass returns a subpass applying pipeline with the given roles.
// Without options it can render to the screen, tracks the viewport and
// needs only the minimum context version.
func NewSubpass(view SceneView, pipeline PipelineType, roles AttachmentRoles, opts ...SubpassOption) *Subpass {
	if !pipeline.Valid() {
		failIllegal("unknown pipeline %d", int(pipeline))
	}
	s := &Subpass{
		component: newComponent(view),
		pipeline:  pipeline,
		roles:     roles,
		index:     -1,
	}
	s.label = "subpass"
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Subpass) Pipeline() PipelineType { return s.pipeline }

func (s *Subpass) Roles() AttachmentRoles { return s.roles }

// Pass returns the owning pass, or nil before the subpass is added to one.
func (s *Subpass) Pass() *RenderPass { return s.pass }

// Index is the subpass's position in its pass.
func (s *Subpass) Index() int { return s.index }

// RendersFromSceneObjects reports whether the subpass draws the view's
// scene objects. Valid after Initialize.
func (s *Subpass) RendersFromSceneObjects() bool { return s.rendersFromSceneObjects }

// FixedTargetSize returns the fixed size, or zeros when the subpass tracks
// the viewport.
func (s *Subpass) FixedTargetSize() (int, int) { return s.fixedWidth, s.fixedHeight }

func (s *Subpass) Initialize() error {
	s.beginInitialize()
	if s.pass == nil {
		failIllegal("%s: subpass is not part of a render pass", s.label)
	}
	s.rendersFromSceneObjects = s.pass.RendersFromSceneObjects(s.index) && !s.pipeline.IsScreenQuad()
	if err := s.view.Capabilities().CheckColorAttachments(len(s.roles.Colors)); err != nil {
		return s.endInitialize(fmt.Errorf("%s: %w", s.label, err))
	}
	logger.Debugf("%s: %s, scene objects %t", s.label, s.pipeline, s.rendersFromSceneObjects)
	return nil
}

// Render binds the target, attaches buffers, sets the viewport, clears
// what needs clearing and draws.
func (s *Subpass) Render() error {
	s.checkRender()
	defer profiling.Track(s.label)()

	onScreen := s.pass.SubpassRendersToScreen(s.index)
	if err := s.ensureFramebuffer(onScreen); err != nil {
		return err
	}
	if err := s.ensureAttachments(onScreen); err != nil {
		return err
	}
	s.ensureViewportScissor(onScreen)
	s.clearOutputAttachments(onScreen)
	if err := s.renderObjects(); err != nil {
		return err
	}
	s.resolve(onScreen)
	s.pass.markWritten(s.roles)
	return nil
}

func (s *Subpass) ensureFramebuffer(onScreen bool) error {
	if onScreen {
		s.view.Device().BindFramebuffer(gpu.NoHandle)
		return nil
	}
	fb := s.pass.framebuffer
	if fb == nil {
		failIllegal("%s: off-screen subpass without a framebuffer", s.label)
	}
	if err := fb.ensure(); err != nil {
		return fmt.Errorf("%s: %w", s.label, err)
	}
	fb.Bind()
	return nil
}

func (s *Subpass) ensureAttachments(onScreen bool) error {
	dev := s.view.Device()
	for unit, i := range s.roles.Inputs {
		b := s.pass.buffers[i]
		if b == nil {
			return fmt.Errorf("%s: input attachment %d has no buffer", s.label, i)
		}
		if !b.Key.Sampled {
			failIllegal("%s: input attachment %d is not a texture", s.label, i)
		}
		dev.BindTexture(unit, b.Handle)
	}
	if onScreen {
		return nil
	}

	var want [attachmentPointCount]*AttachmentBuffer
	for k, i := range s.roles.Colors {
		want[gpu.ColorPoint(k)] = s.pass.buffers[i]
	}
	if d := s.roles.DepthStencil; d != NoAttachment {
		want[gpu.DepthPoint(s.pass.attachments[d].Format)] = s.pass.buffers[d]
	}
	if err := s.pass.framebuffer.sync(&want); err != nil {
		return fmt.Errorf("%s: %w", s.label, err)
	}
	return nil
}

func (s *Subpass) ensureViewportScissor(onScreen bool) {
	w, h := s.pass.TargetSize()
	r := gpu.Rect{W: w, H: h}
	if onScreen {
		r.X, r.Y = s.view.ViewportLeft(), s.view.ViewportTop()
	}
	dev := s.view.Device()
	dev.Viewport(r)
	dev.Scissor(r)
}

func (s *Subpass) clearOutputAttachments(onScreen bool) {
	dev := s.view.Device()
	for k, i := range s.roles.Colors {
		if s.pass.needsClear(i) {
			dev.ClearAttachment(gpu.ColorPoint(k), s.clearColor, 1, 0)
		}
	}
	if d := s.roles.DepthStencil; d != NoAttachment && s.pass.needsClear(d) {
		dev.ClearAttachment(gpu.DepthPoint(s.pass.attachments[d].Format), s.clearColor, 1, 0)
	}
}

func (s *Subpass) renderObjects() error {
	if s.pipeline == NoOp {
		return nil
	}
	state := s.view.FrameState()
	fi := &s.pass.frame
	draw := func(obj Renderable) error {
		r, err := obj.Render(s.pipeline, state.LastUsed, fi.view, fi.projection, fi.viewProjection)
		if err != nil {
			return fmt.Errorf("%s: %w", s.label, err)
		}
		if r != nil {
			state.LastUsed = r
		}
		return nil
	}
	if s.rendersFromSceneObjects {
		if fi.skybox != nil && s.pipeline.DrawsSkybox() {
			if err := draw(fi.skybox); err != nil {
				return err
			}
		}
		for _, obj := range s.view.RenderableSceneObjects() {
			if err := draw(obj); err != nil {
				return err
			}
		}
	}
	for _, obj := range s.objects {
		if err := draw(obj); err != nil {
			return err
		}
	}
	return nil
}

func (s *Subpass) resolve(onScreen bool) {
	if onScreen || len(s.roles.Resolves) == 0 {
		return
	}
	w, h := s.pass.TargetSize()
	for k, i := range s.roles.Resolves {
		if i == NoAttachment || s.pass.buffers[i] == nil {
			continue
		}
		s.view.Device().ResolveAttachment(s.pass.framebuffer.Handle(), gpu.ColorPoint(k), s.pass.buffers[i].Handle, gpu.Rect{W: w, H: h})
	}
}

func (s *Subpass) Destroy() {
	s.markDestroyed()
}
