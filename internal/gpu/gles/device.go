// Package gles implements gpu.Device and the object renderers on OpenGL
// through go-gl.
package gles

import (
	"fmt"

	"sceneview/internal/gpu"
	"sceneview/internal/log"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var logger = log.New("gles")

type glFormat struct {
	internal uint32
	format   uint32
	xtype    uint32
}

var formats = map[gpu.Format]glFormat{
	gpu.RGBA8:           {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.RGBA16F:         {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	gpu.R8:              {gl.R8, gl.RED, gl.UNSIGNED_BYTE},
	gpu.Depth16:         {gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT},
	gpu.Depth24Stencil8: {gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8},
	gpu.Depth32F:        {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
}

func lookupFormat(f gpu.Format) (glFormat, error) {
	gf, ok := formats[f]
	if !ok {
		return glFormat{}, fmt.Errorf("%w: format %s", gpu.ErrUnsupportedCapability, f)
	}
	return gf, nil
}

func attachmentEnum(p gpu.AttachmentPoint) uint32 {
	switch {
	case p.IsColor():
		return gl.COLOR_ATTACHMENT0 + uint32(p-gpu.Color0)
	case p == gpu.DepthAttachment:
		return gl.DEPTH_ATTACHMENT
	case p == gpu.StencilAttachment:
		return gl.STENCIL_ATTACHMENT
	}
	return gl.DEPTH_STENCIL_ATTACHMENT
}

// Device drives the current GL context. It must be created and used on the
// thread that owns the context.
type Device struct {
	caps gpu.Capabilities

	// texture target per handle; multisampled textures bind differently.
	targets       map[gpu.Handle]uint32
	renderbuffers map[gpu.Handle]bool
	bound         gpu.Handle
	resolveFB     uint32
}

var _ gpu.Device = (*Device)(nil)

// NewDevice queries the current context and returns a device for it.
func NewDevice() (*Device, error) {
	caps, err := QueryCapabilities()
	if err != nil {
		return nil, err
	}
	logger.Infof("%s on %s (%s)", caps.Version, caps.Renderer, caps.VersionString)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.Enable(gl.SCISSOR_TEST)

	return &Device{
		caps:          caps,
		targets:       make(map[gpu.Handle]uint32),
		renderbuffers: make(map[gpu.Handle]bool),
	}, nil
}

func (d *Device) Capabilities() gpu.Capabilities { return d.caps }

func (d *Device) CreateFramebuffer() (gpu.Handle, error) {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	if fb == 0 {
		return gpu.NoHandle, fmt.Errorf("%w: framebuffer", gpu.ErrAllocation)
	}
	return gpu.Handle(fb), nil
}

func (d *Device) DeleteFramebuffer(fb gpu.Handle) {
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
	if d.bound == fb {
		d.bound = gpu.NoHandle
	}
}

func (d *Device) BindFramebuffer(fb gpu.Handle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	d.bound = fb
}

func (d *Device) CheckFramebuffer(fb gpu.Handle) error {
	if d.bound != fb {
		d.BindFramebuffer(fb)
	}
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: framebuffer %d status 0x%x", gpu.ErrFramebufferIncomplete, fb, status)
	}
	return nil
}

func (d *Device) DrawBuffers(points []gpu.AttachmentPoint) {
	if len(points) == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, len(points))
	for i, p := range points {
		bufs[i] = attachmentEnum(p)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

func (d *Device) CreateRenderbuffer(format gpu.Format, samples, width, height int) (gpu.Handle, error) {
	gf, err := lookupFormat(format)
	if err != nil {
		return gpu.NoHandle, err
	}
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	if rb == 0 {
		return gpu.NoHandle, fmt.Errorf("%w: renderbuffer %s", gpu.ErrAllocation, format)
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	if samples > 1 {
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, int32(samples), gf.internal, int32(width), int32(height))
	} else {
		gl.RenderbufferStorage(gl.RENDERBUFFER, gf.internal, int32(width), int32(height))
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteRenderbuffers(1, &rb)
		return gpu.NoHandle, fmt.Errorf("%w: renderbuffer %s %dx%d x%d: GL error 0x%x", gpu.ErrAllocation, format, width, height, samples, e)
	}
	d.renderbuffers[gpu.Handle(rb)] = true
	return gpu.Handle(rb), nil
}

func (d *Device) DeleteRenderbuffer(rb gpu.Handle) {
	id := uint32(rb)
	gl.DeleteRenderbuffers(1, &id)
	delete(d.renderbuffers, rb)
}

func (d *Device) CreateTexture(format gpu.Format, samples, width, height int) (gpu.Handle, error) {
	gf, err := lookupFormat(format)
	if err != nil {
		return gpu.NoHandle, err
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return gpu.NoHandle, fmt.Errorf("%w: texture %s", gpu.ErrAllocation, format)
	}
	target := uint32(gl.TEXTURE_2D)
	if samples > 1 {
		target = gl.TEXTURE_2D_MULTISAMPLE
		gl.BindTexture(target, tex)
		gl.TexImage2DMultisample(target, int32(samples), gf.internal, int32(width), int32(height), true)
	} else {
		gl.BindTexture(target, tex)
		gl.TexImage2D(target, 0, int32(gf.internal), int32(width), int32(height), 0, gf.format, gf.xtype, nil)
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(target, 0)
	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteTextures(1, &tex)
		return gpu.NoHandle, fmt.Errorf("%w: texture %s %dx%d x%d: GL error 0x%x", gpu.ErrAllocation, format, width, height, samples, e)
	}
	d.targets[gpu.Handle(tex)] = target
	return gpu.Handle(tex), nil
}

func (d *Device) DeleteTexture(tex gpu.Handle) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
	delete(d.targets, tex)
}

func (d *Device) AttachRenderbuffer(fb gpu.Handle, point gpu.AttachmentPoint, rb gpu.Handle) {
	if d.bound != fb {
		d.BindFramebuffer(fb)
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, attachmentEnum(point), gl.RENDERBUFFER, uint32(rb))
}

func (d *Device) AttachTexture(fb gpu.Handle, point gpu.AttachmentPoint, tex gpu.Handle) {
	if d.bound != fb {
		d.BindFramebuffer(fb)
	}
	target, ok := d.targets[tex]
	if !ok {
		target = gl.TEXTURE_2D
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachmentEnum(point), target, uint32(tex), 0)
}

func (d *Device) BindTexture(unit int, tex gpu.Handle) {
	target, ok := d.targets[tex]
	if !ok {
		target = gl.TEXTURE_2D
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(target, uint32(tex))
}

func (d *Device) Viewport(r gpu.Rect) {
	gl.Viewport(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))
}

func (d *Device) Scissor(r gpu.Rect) {
	gl.Scissor(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))
}

func (d *Device) ClearAttachment(point gpu.AttachmentPoint, rgba [4]float32, depth float32, stencil int) {
	switch {
	case point.IsColor():
		gl.ClearBufferfv(gl.COLOR, int32(point-gpu.Color0), &rgba[0])
	case point == gpu.DepthStencilAttachment:
		gl.DepthMask(true)
		gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, depth, int32(stencil))
	case point == gpu.DepthAttachment:
		gl.DepthMask(true)
		gl.ClearBufferfv(gl.DEPTH, 0, &depth)
	default:
		s := int32(stencil)
		gl.ClearBufferiv(gl.STENCIL, 0, &s)
	}
}

func (d *Device) ResolveAttachment(src gpu.Handle, point gpu.AttachmentPoint, dst gpu.Handle, r gpu.Rect) {
	if d.resolveFB == 0 {
		gl.GenFramebuffers(1, &d.resolveFB)
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, d.resolveFB)
	if d.renderbuffers[dst] {
		gl.FramebufferRenderbuffer(gl.DRAW_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, uint32(dst))
	} else {
		gl.FramebufferTexture2D(gl.DRAW_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(dst), 0)
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(src))
	gl.ReadBuffer(attachmentEnum(point))

	x0, y0, x1, y1 := int32(r.X), int32(r.Y), int32(r.X+r.W), int32(r.Y+r.H)
	gl.BlitFramebuffer(x0, y0, x1, y1, x0, y0, x1, y1, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.bound))
}

func (d *Device) ReadPixels(point gpu.AttachmentPoint, r gpu.Rect) ([]byte, error) {
	if r.Empty() {
		return nil, nil
	}
	if d.bound == gpu.NoHandle {
		gl.ReadBuffer(gl.BACK)
	} else {
		gl.ReadBuffer(attachmentEnum(point))
	}
	buf := make([]byte, r.W*r.H*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(r.X), int32(r.Y), int32(r.W), int32(r.H), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("gles: read pixels %+v: GL error 0x%x", r, e)
	}
	return buf, nil
}

// Destroy frees objects the device created for itself.
func (d *Device) Destroy() {
	if d.resolveFB != 0 {
		gl.DeleteFramebuffers(1, &d.resolveFB)
		d.resolveFB = 0
	}
}
