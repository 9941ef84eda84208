package gpu

// Device is the narrow slice of a graphics API the render composition core
// uses. Every method must be called on the render thread.
type Device interface {
	Capabilities() Capabilities

	CreateFramebuffer() (Handle, error)
	DeleteFramebuffer(fb Handle)
	// BindFramebuffer makes fb the draw target; NoHandle selects the default
	// framebuffer.
	BindFramebuffer(fb Handle)
	CheckFramebuffer(fb Handle) error
	DrawBuffers(points []AttachmentPoint)

	CreateRenderbuffer(format Format, samples, width, height int) (Handle, error)
	DeleteRenderbuffer(rb Handle)
	CreateTexture(format Format, samples, width, height int) (Handle, error)
	DeleteTexture(tex Handle)

	AttachRenderbuffer(fb Handle, point AttachmentPoint, rb Handle)
	AttachTexture(fb Handle, point AttachmentPoint, tex Handle)
	BindTexture(unit int, tex Handle)

	Viewport(r Rect)
	Scissor(r Rect)
	// ClearAttachment clears one attachment of the bound framebuffer. Color
	// points use rgba, depth points use depth and stencil.
	ClearAttachment(point AttachmentPoint, rgba [4]float32, depth float32, stencil int)
	// ResolveAttachment resolves the multisampled color attachment at point
	// of src into the single-sampled buffer dst.
	ResolveAttachment(src Handle, point AttachmentPoint, dst Handle, r Rect)

	// ReadPixels reads RGBA8 pixels from a color attachment of the bound
	// framebuffer, bottom row first.
	ReadPixels(point AttachmentPoint, r Rect) ([]byte, error)
}
