package render

import (
	"fmt"

	"sceneview/internal/gpu"
)

const attachmentPointCount = int(gpu.DepthStencilAttachment) + 1

// Framebuffer wraps an off-screen framebuffer object. The GPU object is
// created on first use and the attachment set is only touched when it
// changes.
type Framebuffer struct {
	device   gpu.Device
	handle   gpu.Handle
	attached [attachmentPointCount]*AttachmentBuffer
	complete bool
	draw     []gpu.AttachmentPoint
}

func newFramebuffer(device gpu.Device) *Framebuffer {
	return &Framebuffer{device: device}
}

// Handle returns the GPU handle, or NoHandle before first use.
func (f *Framebuffer) Handle() gpu.Handle { return f.handle }

func (f *Framebuffer) ensure() error {
	if f.handle != gpu.NoHandle {
		return nil
	}
	h, err := f.device.CreateFramebuffer()
	if err != nil {
		return fmt.Errorf("creating framebuffer: %w", err)
	}
	f.handle = h
	return nil
}

// Bind makes the framebuffer the draw target.
func (f *Framebuffer) Bind() {
	if f.handle == gpu.NoHandle {
		failIllegal("binding a framebuffer that was never created")
	}
	f.device.BindFramebuffer(f.handle)
}

// sync makes the attachments match want, then checks completeness if
// anything changed. The framebuffer must be bound.
func (f *Framebuffer) sync(want *[attachmentPointCount]*AttachmentBuffer) error {
	for i := range f.attached {
		point := gpu.AttachmentPoint(i)
		b := want[i]
		if f.attached[i] == b {
			continue
		}
		switch {
		case b == nil:
			f.device.AttachRenderbuffer(f.handle, point, gpu.NoHandle)
		case b.Key.Sampled:
			f.device.AttachTexture(f.handle, point, b.Handle)
		default:
			f.device.AttachRenderbuffer(f.handle, point, b.Handle)
		}
		f.attached[i] = b
		f.complete = false
	}

	if f.complete {
		return nil
	}
	f.draw = f.draw[:0]
	for i := gpu.Color0; i <= gpu.Color7; i++ {
		if want[i] != nil {
			f.draw = append(f.draw, i)
		}
	}
	f.device.DrawBuffers(f.draw)
	if err := f.device.CheckFramebuffer(f.handle); err != nil {
		return err
	}
	f.complete = true
	return nil
}

// Attached returns the buffer at point.
func (f *Framebuffer) Attached(point gpu.AttachmentPoint) *AttachmentBuffer {
	return f.attached[point]
}

// Destroy deletes the GPU object. Attached buffers belong to the pool.
func (f *Framebuffer) Destroy() {
	if f.handle != gpu.NoHandle {
		f.device.DeleteFramebuffer(f.handle)
	}
	f.handle = gpu.NoHandle
	f.attached = [attachmentPointCount]*AttachmentBuffer{}
	f.complete = false
	f.draw = nil
}
