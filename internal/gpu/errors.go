package gpu

import "errors"

var (
	ErrUnsupportedCapability = errors.New("gpu: unsupported capability")
	ErrUnsupportedVersion    = errors.New("gpu: unsupported context version")
	ErrFramebufferIncomplete = errors.New("gpu: framebuffer incomplete")
	ErrAllocation            = errors.New("gpu: object allocation failed")
)
