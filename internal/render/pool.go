package render

import (
	"fmt"
	"sort"

	"sceneview/internal/gpu"
)

// DefaultPoolIdleFrames is how long a free buffer survives in the pool.
const DefaultPoolIdleFrames = 3

// AttachmentKey identifies interchangeable attachment buffers.
type AttachmentKey struct {
	Format  gpu.Format
	Width   int
	Height  int
	Samples int
	// Sampled buffers are textures so later work can read them; the rest are
	// renderbuffers.
	Sampled bool
}

func (k AttachmentKey) String() string {
	kind := "rb"
	if k.Sampled {
		kind = "tex"
	}
	return fmt.Sprintf("%s %dx%d x%d %s", k.Format, k.Width, k.Height, k.Samples, kind)
}

// AttachmentBuffer is a pooled texture or renderbuffer. It is reference
// counted; the last Release returns it to the pool.
type AttachmentBuffer struct {
	Key    AttachmentKey
	Handle gpu.Handle

	refs     int
	lastUsed uint64
}

// Retain adds a reference.
func (b *AttachmentBuffer) Retain() {
	if b.refs <= 0 {
		failIllegal("retaining free attachment buffer %d", b.Handle)
	}
	b.refs++
}

// Refs returns the number of live references.
func (b *AttachmentBuffer) Refs() int { return b.refs }

// AttachmentPool recycles attachment buffers across passes and frames. It is
// used from the render thread only.
type AttachmentPool struct {
	device     gpu.Device
	idleFrames uint64
	frame      uint64

	free  map[AttachmentKey][]*AttachmentBuffer
	inUse map[*AttachmentBuffer]struct{}
}

// NewAttachmentPool returns a pool that deletes buffers left free for more
// than idleFrames frames.
func NewAttachmentPool(device gpu.Device, idleFrames int) *AttachmentPool {
	if idleFrames < 1 {
		idleFrames = DefaultPoolIdleFrames
	}
	return &AttachmentPool{
		device:     device,
		idleFrames: uint64(idleFrames),
		free:       make(map[AttachmentKey][]*AttachmentBuffer),
		inUse:      make(map[*AttachmentBuffer]struct{}),
	}
}

// Acquire returns a buffer for key holding one reference.
func (p *AttachmentPool) Acquire(key AttachmentKey) (*AttachmentBuffer, error) {
	if key.Samples < 1 {
		key.Samples = 1
	}
	if key.Width <= 0 || key.Height <= 0 {
		return nil, fmt.Errorf("%w: attachment size %dx%d", gpu.ErrAllocation, key.Width, key.Height)
	}
	if list := p.free[key]; len(list) > 0 {
		b := list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		b.refs = 1
		p.inUse[b] = struct{}{}
		return b, nil
	}
	if err := p.device.Capabilities().CheckAttachment(key.Format, key.Samples, key.Width, key.Height); err != nil {
		return nil, err
	}
	var (
		h   gpu.Handle
		err error
	)
	if key.Sampled {
		h, err = p.device.CreateTexture(key.Format, key.Samples, key.Width, key.Height)
	} else {
		h, err = p.device.CreateRenderbuffer(key.Format, key.Samples, key.Width, key.Height)
	}
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", key, err)
	}
	b := &AttachmentBuffer{Key: key, Handle: h, refs: 1}
	p.inUse[b] = struct{}{}
	logger.Debugf("pool: created %s as %d", key, h)
	return b, nil
}

// Release drops one reference. The last one returns b to the pool.
func (p *AttachmentPool) Release(b *AttachmentBuffer) {
	if b.refs <= 0 {
		failIllegal("releasing free attachment buffer %d", b.Handle)
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	delete(p.inUse, b)
	b.lastUsed = p.frame
	p.free[b.Key] = append(p.free[b.Key], b)
}

// BeginFrame advances the pool's frame counter.
func (p *AttachmentPool) BeginFrame() {
	p.frame++
}

// EndFrame deletes buffers that stayed free for too long.
func (p *AttachmentPool) EndFrame() {
	for key, list := range p.free {
		kept := list[:0]
		for _, b := range list {
			if p.frame-b.lastUsed >= p.idleFrames {
				p.delete(b)
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) == 0 {
			delete(p.free, key)
		} else {
			p.free[key] = kept
		}
	}
}

func (p *AttachmentPool) delete(b *AttachmentBuffer) {
	if b.Key.Sampled {
		p.device.DeleteTexture(b.Handle)
	} else {
		p.device.DeleteRenderbuffer(b.Handle)
	}
	logger.Debugf("pool: deleted %s %d", b.Key, b.Handle)
	b.Handle = gpu.NoHandle
}

// PoolStats summarizes the pool's contents.
type PoolStats struct {
	InUse int
	Free  int
	Bytes int
}

// Stats reports the current buffer counts and their approximate size.
func (p *AttachmentPool) Stats() PoolStats {
	var s PoolStats
	size := func(k AttachmentKey) int {
		return k.Width * k.Height * k.Samples * k.Format.BytesPerPixel()
	}
	for b := range p.inUse {
		s.InUse++
		s.Bytes += size(b.Key)
	}
	for _, list := range p.free {
		for _, b := range list {
			s.Free++
			s.Bytes += size(b.Key)
		}
	}
	return s
}

// FreeKeys returns the keys with free buffers, sorted for display.
func (p *AttachmentPool) FreeKeys() []AttachmentKey {
	keys := make([]AttachmentKey, 0, len(p.free))
	for k := range p.free {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Destroy deletes every buffer. Buffers still referenced are logged and
// deleted anyway.
func (p *AttachmentPool) Destroy() {
	if len(p.inUse) > 0 {
		logger.Warningf("pool: destroying %d attachment buffers still in use", len(p.inUse))
	}
	for b := range p.inUse {
		p.delete(b)
		b.refs = 0
	}
	for _, list := range p.free {
		for _, b := range list {
			p.delete(b)
		}
	}
	p.inUse = make(map[*AttachmentBuffer]struct{})
	p.free = make(map[AttachmentKey][]*AttachmentBuffer)
}
