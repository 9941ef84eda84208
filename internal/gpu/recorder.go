package gpu

import (
	"fmt"
	"strings"
)

// Call is one recorded Device invocation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Op + "(" + strings.Join(parts, ", ") + ")"
}

// Recorder is a Device that performs no GPU work and records every call.
// It backs headless runs and tests.
type Recorder struct {
	Caps  Capabilities
	Calls []Call

	// Incomplete makes CheckFramebuffer fail for the listed framebuffers.
	Incomplete map[Handle]bool
	// FailAllocations makes buffer creation fail.
	FailAllocations bool
	// Pixels, if set, supplies the bytes ReadPixels returns.
	Pixels func(point AttachmentPoint, r Rect) []byte

	next         Handle
	framebuffers map[Handle]map[AttachmentPoint]Handle
	buffers      map[Handle]string
	bound        Handle
}

// NewRecorder returns a recorder reporting the given capabilities.
func NewRecorder(caps Capabilities) *Recorder {
	return &Recorder{
		Caps:         caps,
		Incomplete:   make(map[Handle]bool),
		framebuffers: make(map[Handle]map[AttachmentPoint]Handle),
		buffers:      make(map[Handle]string),
	}
}

// DefaultCapabilities is a plausible GLES 3.0 class device.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Version:               GLES30,
		VersionString:         "OpenGL ES 3.0 recorder",
		Vendor:                "sceneview",
		Renderer:              "recorder",
		MaxTextureSize:        4096,
		MaxRenderbufferSize:   4096,
		MaxSamples:            4,
		MaxColorAttachments:   4,
		MaxDrawBuffers:        4,
		MaxTextureImageUnits:  16,
		MaxViewportWidth:      4096,
		MaxViewportHeight:     4096,
		MaxCombinedTextureUse: 32,
	}
}

func (r *Recorder) record(op string, args ...any) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

func (r *Recorder) alloc() Handle {
	r.next++
	return r.next
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Find returns the recorded calls named op.
func (r *Recorder) Find(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops the recorded calls but keeps object state.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}

// Live returns the number of live renderbuffers and textures.
func (r *Recorder) Live() int {
	return len(r.buffers)
}

// Attached returns what is attached to fb at point.
func (r *Recorder) Attached(fb Handle, point AttachmentPoint) Handle {
	return r.framebuffers[fb][point]
}

// Bound returns the currently bound framebuffer.
func (r *Recorder) Bound() Handle {
	return r.bound
}

func (r *Recorder) Capabilities() Capabilities {
	return r.Caps
}

func (r *Recorder) CreateFramebuffer() (Handle, error) {
	h := r.alloc()
	r.framebuffers[h] = make(map[AttachmentPoint]Handle)
	r.record("CreateFramebuffer", h)
	return h, nil
}

func (r *Recorder) DeleteFramebuffer(fb Handle) {
	delete(r.framebuffers, fb)
	r.record("DeleteFramebuffer", fb)
}

func (r *Recorder) BindFramebuffer(fb Handle) {
	r.bound = fb
	r.record("BindFramebuffer", fb)
}

func (r *Recorder) CheckFramebuffer(fb Handle) error {
	r.record("CheckFramebuffer", fb)
	if r.Incomplete[fb] {
		return fmt.Errorf("%w: framebuffer %d", ErrFramebufferIncomplete, fb)
	}
	return nil
}

func (r *Recorder) DrawBuffers(points []AttachmentPoint) {
	r.record("DrawBuffers", append([]AttachmentPoint(nil), points...))
}

func (r *Recorder) CreateRenderbuffer(format Format, samples, width, height int) (Handle, error) {
	if r.FailAllocations {
		return NoHandle, fmt.Errorf("%w: renderbuffer %s", ErrAllocation, format)
	}
	h := r.alloc()
	r.buffers[h] = "renderbuffer"
	r.record("CreateRenderbuffer", format, samples, width, height)
	return h, nil
}

func (r *Recorder) DeleteRenderbuffer(rb Handle) {
	delete(r.buffers, rb)
	r.record("DeleteRenderbuffer", rb)
}

func (r *Recorder) CreateTexture(format Format, samples, width, height int) (Handle, error) {
	if r.FailAllocations {
		return NoHandle, fmt.Errorf("%w: texture %s", ErrAllocation, format)
	}
	h := r.alloc()
	r.buffers[h] = "texture"
	r.record("CreateTexture", format, samples, width, height)
	return h, nil
}

func (r *Recorder) DeleteTexture(tex Handle) {
	delete(r.buffers, tex)
	r.record("DeleteTexture", tex)
}

func (r *Recorder) AttachRenderbuffer(fb Handle, point AttachmentPoint, rb Handle) {
	if m, ok := r.framebuffers[fb]; ok {
		m[point] = rb
	}
	r.record("AttachRenderbuffer", fb, point, rb)
}

func (r *Recorder) AttachTexture(fb Handle, point AttachmentPoint, tex Handle) {
	if m, ok := r.framebuffers[fb]; ok {
		m[point] = tex
	}
	r.record("AttachTexture", fb, point, tex)
}

func (r *Recorder) BindTexture(unit int, tex Handle) {
	r.record("BindTexture", unit, tex)
}

func (r *Recorder) Viewport(rect Rect) {
	r.record("Viewport", rect)
}

func (r *Recorder) Scissor(rect Rect) {
	r.record("Scissor", rect)
}

func (r *Recorder) ClearAttachment(point AttachmentPoint, rgba [4]float32, depth float32, stencil int) {
	r.record("ClearAttachment", point)
}

func (r *Recorder) ResolveAttachment(src Handle, point AttachmentPoint, dst Handle, rect Rect) {
	r.record("ResolveAttachment", src, point, dst, rect)
}

func (r *Recorder) ReadPixels(point AttachmentPoint, rect Rect) ([]byte, error) {
	r.record("ReadPixels", point, rect)
	if rect.Empty() {
		return nil, nil
	}
	if r.Pixels != nil {
		return r.Pixels(point, rect), nil
	}
	return make([]byte, rect.W*rect.H*4), nil
}
