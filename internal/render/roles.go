package render

import (
	"slices"

	"sceneview/internal/gpu"
)

// NoAttachment marks an unused depth-stencil slot.
const NoAttachment = -1

// AttachmentDescriptor describes one attachment of a render pass. Subpasses
// refer to it by its index in the pass's list.
type AttachmentDescriptor struct {
	Format  gpu.Format
	Samples int
	// ClearBeforeFirstUse clears the buffer the first time a subpass writes
	// it each frame.
	ClearBeforeFirstUse bool
	// PreserveAfterLastUse keeps the contents after the pass finishes so the
	// frame can expose them.
	PreserveAfterLastUse bool
}

// Attachment returns a single-sampled descriptor cleared before first use.
func Attachment(format gpu.Format) AttachmentDescriptor {
	return AttachmentDescriptor{Format: format, Samples: 1, ClearBeforeFirstUse: true}
}

// Multisampled returns a copy of d with the given sample count.
func (d AttachmentDescriptor) Multisampled(samples int) AttachmentDescriptor {
	d.Samples = samples
	return d
}

// Preserved returns a copy of d whose contents survive the pass.
func (d AttachmentDescriptor) Preserved() AttachmentDescriptor {
	d.PreserveAfterLastUse = true
	return d
}

// Loaded returns a copy of d that is not cleared before first use.
func (d AttachmentDescriptor) Loaded() AttachmentDescriptor {
	d.ClearBeforeFirstUse = false
	return d
}

func (d AttachmentDescriptor) samples() int {
	if d.Samples < 1 {
		return 1
	}
	return d.Samples
}

// AttachmentRoles assigns pass attachments to a subpass. Indexes refer to
// the pass's descriptor list. Build it with DepthColor or set every field;
// the zero DepthStencil is attachment 0, not NoAttachment.
type AttachmentRoles struct {
	Inputs       []int
	DepthStencil int
	Colors       []int
	// Resolves, when set, has one entry per color: the single-sampled
	// attachment the color resolves into, or NoAttachment.
	Resolves  []int
	Preserves []int
}

// DepthColor returns roles writing the given depth-stencil and color
// attachments with no inputs, resolves or preserves.
func DepthColor(depthStencil int, colors ...int) AttachmentRoles {
	return AttachmentRoles{
		DepthStencil: depthStencil,
		Colors:       append([]int(nil), colors...),
	}
}

// WithInputs returns a copy of r reading the given attachments.
func (r AttachmentRoles) WithInputs(inputs ...int) AttachmentRoles {
	r.Inputs = append([]int(nil), inputs...)
	return r
}

// WithResolves returns a copy of r resolving its colors into resolves.
func (r AttachmentRoles) WithResolves(resolves ...int) AttachmentRoles {
	r.Resolves = append([]int(nil), resolves...)
	return r
}

// WithPreserves returns a copy of r preserving the given attachments.
func (r AttachmentRoles) WithPreserves(preserves ...int) AttachmentRoles {
	r.Preserves = append([]int(nil), preserves...)
	return r
}

// Writes reports whether the subpass writes attachment i.
func (r AttachmentRoles) Writes(i int) bool {
	return i == r.DepthStencil || slices.Contains(r.Colors, i) || slices.Contains(r.Resolves, i)
}

// Reads reports whether the subpass reads attachment i as an input.
func (r AttachmentRoles) Reads(i int) bool {
	return slices.Contains(r.Inputs, i)
}

// Uses reports whether attachment i has any role in the subpass.
func (r AttachmentRoles) Uses(i int) bool {
	return r.Writes(i) || r.Reads(i) || slices.Contains(r.Preserves, i)
}

// HasOutput reports whether the subpass writes at least one attachment.
func (r AttachmentRoles) HasOutput() bool {
	return r.DepthStencil != NoAttachment || len(r.Colors) > 0
}

func (r AttachmentRoles) validate(where string, attachments []AttachmentDescriptor) {
	n := len(attachments)
	inRange := func(role string, i int) {
		if i < 0 || i >= n {
			failIllegal("%s: %s attachment %d out of range [0,%d)", where, role, i, n)
		}
	}
	for _, i := range r.Inputs {
		inRange("input", i)
	}
	if r.DepthStencil != NoAttachment {
		inRange("depth-stencil", r.DepthStencil)
		if !attachments[r.DepthStencil].Format.IsDepth() {
			failIllegal("%s: depth-stencil attachment %d has color format %s", where, r.DepthStencil, attachments[r.DepthStencil].Format)
		}
		if r.Reads(r.DepthStencil) {
			failIllegal("%s: attachment %d is both input and depth-stencil", where, r.DepthStencil)
		}
	}
	for k, i := range r.Colors {
		inRange("color", i)
		if attachments[i].Format.IsDepth() {
			failIllegal("%s: color attachment %d has depth format %s", where, i, attachments[i].Format)
		}
		if slices.Index(r.Colors, i) != k {
			failIllegal("%s: color attachment %d listed twice", where, i)
		}
		if r.Reads(i) {
			failIllegal("%s: attachment %d is both input and color", where, i)
		}
	}
	if len(r.Resolves) > 0 && len(r.Resolves) != len(r.Colors) {
		failIllegal("%s: %d resolves for %d colors", where, len(r.Resolves), len(r.Colors))
	}
	for k, i := range r.Resolves {
		if i == NoAttachment {
			continue
		}
		inRange("resolve", i)
		if attachments[i].samples() != 1 || attachments[r.Colors[k]].samples() == 1 {
			failIllegal("%s: resolve %d -> %d needs a multisampled source and a single-sampled target", where, r.Colors[k], i)
		}
		if attachments[i].Format != attachments[r.Colors[k]].Format {
			failIllegal("%s: resolve %d -> %d changes format", where, r.Colors[k], i)
		}
	}
	for _, i := range r.Preserves {
		inRange("preserve", i)
		if r.Writes(i) || r.Reads(i) {
			failIllegal("%s: preserved attachment %d is also used", where, i)
		}
	}
}
