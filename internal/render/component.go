package render

import (
	"strconv"

	"sceneview/internal/gpu"
	"sceneview/internal/log"
)

var logger = log.New("render")

const (
	// RenderableToScreen is the default screen capability of a leaf.
	RenderableToScreen = true
	// TargetSizeTracksViewport is the default sizing policy of a leaf.
	TargetSizeTracksViewport = true
)

// Component is a node of the render tree: a Subpass leaf or one of the
// composites built on Composite. The tree is closed to this package.
//
// Initialize is called once before any Render; Render once per frame;
// Destroy once at teardown. All three run on the render thread only.
type Component interface {
	Initialize() error
	Render() error
	Destroy()

	MinVersion() gpu.ContextVersion
	RenderableToScreen() bool
	RendersToScreen() bool
	TargetSizeTracksViewport() bool
	Label() string

	setRendersToScreen(rendersToScreen bool)
	setLabel(label string)
}

type lifecycle int

const (
	created lifecycle = iota
	initialized
	failed
	destroyed
)

func (l lifecycle) String() string {
	switch l {
	case created:
		return "created"
	case initialized:
		return "initialized"
	case failed:
		return "failed"
	case destroyed:
		return "destroyed"
	}
	return "lifecycle(" + strconv.Itoa(int(l)) + ")"
}

// component holds the state common to every node.
type component struct {
	view  SceneView
	label string
	state lifecycle

	minVersion               gpu.ContextVersion
	renderableToScreen       bool
	rendersToScreen          bool
	targetSizeTracksViewport bool
}

func newComponent(view SceneView) component {
	if view == nil {
		failIllegal("render component needs a scene view")
	}
	return component{
		view:                     view,
		minVersion:               gpu.MinVersion,
		renderableToScreen:       RenderableToScreen,
		targetSizeTracksViewport: TargetSizeTracksViewport,
	}
}

// SceneView returns the owning view.
func (c *component) SceneView() SceneView { return c.view }

func (c *component) MinVersion() gpu.ContextVersion { return c.minVersion }

func (c *component) RenderableToScreen() bool { return c.renderableToScreen }

func (c *component) RendersToScreen() bool { return c.rendersToScreen }

func (c *component) TargetSizeTracksViewport() bool { return c.targetSizeTracksViewport }

// Label is the component's path in its tree, e.g. "main/chain0/pass1".
func (c *component) Label() string { return c.label }

func (c *component) setLabel(label string) { c.label = label }

func (c *component) setRendersToScreen(rendersToScreen bool) {
	if rendersToScreen && !c.renderableToScreen {
		failIllegal("%s cannot be rendered to the screen", c.label)
	}
	c.rendersToScreen = rendersToScreen
}

func (c *component) beginInitialize() {
	if c.state != created {
		failIllegal("%s: initialize called while %s", c.label, c.state)
	}
	c.state = initialized
}

// endInitialize marks the component failed when err is set. A failed
// component can only be destroyed.
func (c *component) endInitialize(err error) error {
	if err != nil {
		c.state = failed
	}
	return err
}

func (c *component) checkRender() {
	if c.state != initialized {
		failIllegal("%s: render called while %s", c.label, c.state)
	}
}

func (c *component) markDestroyed() {
	if c.state == destroyed {
		failIllegal("%s: destroyed twice", c.label)
	}
	c.state = destroyed
}

// Initialized reports whether Initialize has run and Destroy has not.
func (c *component) Initialized() bool { return c.state == initialized }

// Failed reports whether Initialize returned an error.
func (c *component) Failed() bool { return c.state == failed }
