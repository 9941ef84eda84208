package gpu

import "fmt"

// Format is the internal format of an attachment buffer.
type Format int

const (
	FormatUndefined Format = iota
	RGBA8
	RGBA16F
	R8
	Depth16
	Depth24Stencil8
	Depth32F
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case RGBA8:
		return "RGBA8"
	case RGBA16F:
		return "RGBA16F"
	case R8:
		return "R8"
	case Depth16:
		return "D16"
	case Depth24Stencil8:
		return "D24S8"
	case Depth32F:
		return "D32F"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsDepth reports whether the format carries depth.
func (f Format) IsDepth() bool {
	return f == Depth16 || f == Depth24Stencil8 || f == Depth32F
}

// HasStencil reports whether the format carries stencil.
func (f Format) HasStencil() bool {
	return f == Depth24Stencil8
}

// BytesPerPixel is the storage size of one sample.
func (f Format) BytesPerPixel() int {
	switch f {
	case R8:
		return 1
	case Depth16:
		return 2
	case RGBA8, Depth24Stencil8, Depth32F:
		return 4
	case RGBA16F:
		return 8
	}
	return 0
}

// MinVersion is the lowest context that can render into the format.
func (f Format) MinVersion() ContextVersion {
	switch f {
	case RGBA16F, R8, Depth24Stencil8, Depth32F:
		return GLES30
	}
	return GLES20
}

// AttachmentPoint is a framebuffer binding slot.
type AttachmentPoint int

const (
	Color0 AttachmentPoint = iota
	Color1
	Color2
	Color3
	Color4
	Color5
	Color6
	Color7
	DepthAttachment
	StencilAttachment
	DepthStencilAttachment
)

// ColorPoint returns the i-th color attachment point.
func ColorPoint(i int) AttachmentPoint {
	if i < 0 || i > int(Color7) {
		panic(fmt.Sprintf("gpu: color attachment %d out of range", i))
	}
	return Color0 + AttachmentPoint(i)
}

// DepthPoint returns the attachment point a depth format binds to.
func DepthPoint(f Format) AttachmentPoint {
	if f.HasStencil() {
		return DepthStencilAttachment
	}
	return DepthAttachment
}

// IsColor reports whether p is a color attachment point.
func (p AttachmentPoint) IsColor() bool {
	return p >= Color0 && p <= Color7
}

func (p AttachmentPoint) String() string {
	switch {
	case p.IsColor():
		return fmt.Sprintf("color%d", int(p-Color0))
	case p == DepthAttachment:
		return "depth"
	case p == StencilAttachment:
		return "stencil"
	case p == DepthStencilAttachment:
		return "depth-stencil"
	}
	return fmt.Sprintf("AttachmentPoint(%d)", int(p))
}

// Rect is a pixel rectangle; X and Y are the lower-left corner.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Handle names a GPU object. NoHandle is never a valid object and, when
// bound as a framebuffer, selects the default (on-screen) framebuffer.
type Handle uint32

const NoHandle Handle = 0
