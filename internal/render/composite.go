package render

import (
	"strconv"

	"sceneview/internal/gpu"
)

// Composite is a component made of an ordered list of children. It keeps the
// invariants every composite shares: children are fixed once committed,
// aggregate properties are derived from them, screen routing flows to the
// last child, and the lifecycle calls fan out in list order.
type Composite[T Component] struct {
	component

	children  []T
	first     T
	last      T
	committed bool
	derived   bool
	childKind string

	// addChildren declares the children when the composite is initialized.
	addChildren func(add func(T))
	// adopt runs for each child as it is added.
	adopt func(child T, index int)
	// validate runs once the child list is committed.
	validate func()
	// prepared runs after derivation and before the children initialize.
	prepared func() error
}

// NewComposite returns a composite over children. It is mainly useful for
// grouping custom components; frames, chains and passes build their own.
func NewComposite[T Component](view SceneView, children ...T) *Composite[T] {
	c := &Composite[T]{}
	c.init(view, "group", "child")
	for _, child := range children {
		c.AddChild(child)
	}
	return c
}

func (c *Composite[T]) init(view SceneView, label, childKind string) {
	c.component = newComponent(view)
	c.label = label
	c.childKind = childKind
}

// AddChild appends a child. It panics once the children are committed.
func (c *Composite[T]) AddChild(child T) {
	if c.committed {
		failIllegal("%s: child added after commit", c.label)
	}
	index := len(c.children)
	c.children = append(c.children, child)
	if c.adopt != nil {
		c.adopt(child, index)
	}
}

// CommitChildren freezes the child list. A composite needs at least one child.
func (c *Composite[T]) CommitChildren() {
	if c.committed {
		failIllegal("%s: children committed twice", c.label)
	}
	if len(c.children) == 0 {
		failIllegal("%s: no children", c.label)
	}
	c.first = c.children[0]
	c.last = c.children[len(c.children)-1]
	c.committed = true
}

// derive declares, commits and validates the children, derives the children
// of composite children, then computes this composite's aggregates. It runs
// at most once, from the parent's derivation or from Initialize.
func (c *Composite[T]) derive() {
	if c.derived {
		return
	}
	if c.addChildren != nil {
		c.addChildren(c.AddChild)
	}
	c.CommitChildren()
	if c.validate != nil {
		c.validate()
	}
	for i, child := range c.children {
		child.setLabel(c.label + "/" + c.childKind + strconv.Itoa(i))
		if d, ok := any(child).(interface{ derive() }); ok {
			d.derive()
		}
	}
	c.setMinVersion()
	c.setRenderableToScreen()
	c.setTargetSizeTracksViewport()
	c.derived = true
}

// setMinVersion takes the lowest version any child requires.
func (c *Composite[T]) setMinVersion() {
	v := gpu.MaxVersion
	for _, child := range c.children {
		if cv := child.MinVersion(); cv < v {
			v = cv
		}
	}
	c.minVersion = v
}

// Only the last child can draw to the screen, so the composite can too
// exactly when it can.
func (c *Composite[T]) setRenderableToScreen() {
	c.renderableToScreen = c.last.RenderableToScreen()
}

func (c *Composite[T]) setTargetSizeTracksViewport() {
	tracks := true
	for _, child := range c.children {
		if !child.TargetSizeTracksViewport() {
			tracks = false
			break
		}
	}
	c.targetSizeTracksViewport = tracks
}

// Initialize builds and validates the subtree and initializes the children
// in order. An error leaves the tree partially initialized and marks it
// failed; Destroy tears it down.
func (c *Composite[T]) Initialize() error {
	c.beginInitialize()
	c.derive()
	if c.prepared != nil {
		if err := c.prepared(); err != nil {
			return c.endInitialize(err)
		}
	}
	return c.endInitialize(c.InitializeChildren())
}

// InitializeChildren initializes every child in list order.
func (c *Composite[T]) InitializeChildren() error {
	for _, child := range c.children {
		if err := child.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composite[T]) setRendersToScreen(rendersToScreen bool) {
	if !c.committed {
		failIllegal("%s: screen routing set before initialize", c.label)
	}
	c.component.setRendersToScreen(rendersToScreen)
	c.last.setRendersToScreen(rendersToScreen)
}

// Render renders every child in list order and stops at the first error.
func (c *Composite[T]) Render() error {
	c.checkRender()
	return c.RenderChildren()
}

// RenderChildren renders every child in list order.
func (c *Composite[T]) RenderChildren() error {
	for _, child := range c.children {
		if err := child.Render(); err != nil {
			return err
		}
	}
	return nil
}

// Destroy destroys the children in list order.
func (c *Composite[T]) Destroy() {
	c.markDestroyed()
	for _, child := range c.children {
		child.Destroy()
	}
}

// Children returns the committed child list.
func (c *Composite[T]) Children() []T { return c.children }

// ChildCount returns the number of children added so far.
func (c *Composite[T]) ChildCount() int { return len(c.children) }

// Child returns the child at index.
func (c *Composite[T]) Child(index int) T { return c.children[index] }

// First returns the first child. It panics before commit.
func (c *Composite[T]) First() T {
	if !c.committed {
		failIllegal("%s: children not committed", c.label)
	}
	return c.first
}

// Last returns the last child. It panics before commit.
func (c *Composite[T]) Last() T {
	if !c.committed {
		failIllegal("%s: children not committed", c.label)
	}
	return c.last
}

// Committed reports whether the child list is frozen.
func (c *Composite[T]) Committed() bool { return c.committed }
