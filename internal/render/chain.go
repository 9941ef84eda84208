package render

import "sceneview/internal/profiling"

// Route hands an attachment written by one pass to the next pass in the
// chain, where it appears as ToAttachment.
type Route struct {
	FromPass       int
	FromAttachment int
	ToAttachment   int
}

type routeTarget struct {
	pass       int
	attachment int
}

// RenderPassChain runs render passes in order. Later passes can read the
// buffers earlier ones produced through routes.
type RenderPassChain struct {
	Composite[*RenderPass]

	routes  []Route
	pending map[routeTarget]*AttachmentBuffer
}

// NewRenderPassChain returns a chain over passes.
func NewRenderPassChain(view SceneView, passes ...*RenderPass) *RenderPassChain {
	c := &RenderPassChain{pending: make(map[routeTarget]*AttachmentBuffer)}
	c.init(view, "chain", "pass")
	c.adopt = func(p *RenderPass, index int) {
		if p.chain != nil && p.chain != c {
			failIllegal("render pass already belongs to another chain")
		}
		p.chain = c
		p.chainIndex = index
	}
	c.validate = c.validateRoutes
	for _, p := range passes {
		c.AddChild(p)
	}
	return c
}

// Route feeds attachment fromAttachment of pass fromPass into attachment
// toAttachment of pass fromPass+1. Routes are fixed once the chain is
// initialized.
func (c *RenderPassChain) Route(fromPass, fromAttachment, toAttachment int) *RenderPassChain {
	if c.Committed() {
		failIllegal("%s: route added after initialize", c.label)
	}
	c.routes = append(c.routes, Route{FromPass: fromPass, FromAttachment: fromAttachment, ToAttachment: toAttachment})
	return c
}

// Routes returns the declared routes.
func (c *RenderPassChain) Routes() []Route { return c.routes }

func (c *RenderPassChain) validateRoutes() {
	n := c.ChildCount()
	seen := make(map[routeTarget]bool, len(c.routes))
	for _, r := range c.routes {
		if r.FromPass < 0 || r.FromPass >= n-1 {
			failIllegal("%s: route from pass %d has no next pass", c.label, r.FromPass)
		}
		from, to := c.Child(r.FromPass), c.Child(r.FromPass+1)
		if r.FromAttachment < 0 || r.FromAttachment >= len(from.attachments) {
			failIllegal("%s: route from unknown attachment %d of pass %d", c.label, r.FromAttachment, r.FromPass)
		}
		if r.ToAttachment < 0 || r.ToAttachment >= len(to.attachments) {
			failIllegal("%s: route to unknown attachment %d of pass %d", c.label, r.ToAttachment, r.FromPass+1)
		}
		src, dst := from.attachments[r.FromAttachment], to.attachments[r.ToAttachment]
		if src.Format != dst.Format || src.samples() != dst.samples() {
			failIllegal("%s: route %d.%d -> %d.%d joins %s x%d with %s x%d", c.label,
				r.FromPass, r.FromAttachment, r.FromPass+1, r.ToAttachment,
				src.Format, src.samples(), dst.Format, dst.samples())
		}
		t := routeTarget{pass: r.FromPass + 1, attachment: r.ToAttachment}
		if seen[t] {
			failIllegal("%s: attachment %d of pass %d routed twice", c.label, r.ToAttachment, r.FromPass+1)
		}
		seen[t] = true
		// Both ends must agree on the buffer kind.
		from.sampled[r.FromAttachment] = true
		to.sampled[r.ToAttachment] = true
	}
}

// handOff gives every route leaving attachment i of pass a reference to b.
func (c *RenderPassChain) handOff(pass, i int, b *AttachmentBuffer) {
	for _, r := range c.routes {
		if r.FromPass != pass || r.FromAttachment != i {
			continue
		}
		t := routeTarget{pass: pass + 1, attachment: r.ToAttachment}
		if prev := c.pending[t]; prev != nil {
			c.view.Pool().Release(prev)
		}
		b.Retain()
		c.pending[t] = b
	}
}

// takeRouted returns the buffer routed into attachment i of pass, passing
// its reference to the caller, or nil.
func (c *RenderPassChain) takeRouted(pass, i int) *AttachmentBuffer {
	t := routeTarget{pass: pass, attachment: i}
	b := c.pending[t]
	if b != nil {
		delete(c.pending, t)
	}
	return b
}

func (c *RenderPassChain) dropPending() {
	for t, b := range c.pending {
		c.view.Pool().Release(b)
		delete(c.pending, t)
	}
}

// Render runs the passes in order.
func (c *RenderPassChain) Render() error {
	c.checkRender()
	defer profiling.Track(c.label)()

	c.dropPending()
	err := c.RenderChildren()
	c.dropPending()
	return err
}

// Destroy destroys the passes and drops any routed buffers.
func (c *RenderPassChain) Destroy() {
	c.dropPending()
	c.Composite.Destroy()
}
