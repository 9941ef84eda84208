package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"sceneview/internal/gpu"
	"sceneview/internal/log"
	"sceneview/internal/profiling"
	"sceneview/internal/render"

	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("scene")

var (
	ErrNoProjection        = errors.New("scene: camera has no projection")
	ErrAlreadyCurrent      = errors.New("scene: frame render is already attached to this view")
	ErrInitializeFailed    = errors.New("scene: frame render failed to initialize")
	ErrNotScreenRenderable = errors.New("scene: frame render cannot render to the screen")
	ErrUnknownRender       = errors.New("scene: frame render not attached to this view")
)

// Option configures a View.
type Option func(*View)

// WithViewport pins the viewport instead of following the surface.
func WithViewport(r gpu.Rect) Option {
	return func(v *View) {
		v.viewport = r
		v.trackSurface = r.Empty()
	}
}

func WithCamera(c *Camera) Option {
	return func(v *View) { v.camera = c }
}

func WithSkybox(skybox render.Renderable) Option {
	return func(v *View) { v.skybox = skybox }
}

// WithPoolIdleFrames sets how long unused attachment buffers are kept.
func WithPoolIdleFrames(n int) Option {
	return func(v *View) { v.poolIdleFrames = n }
}

func WithBackgroundColor(r, g, b, a float32) Option {
	return func(v *View) { v.background = [4]float32{r, g, b, a} }
}

// View presents a scene graph through a camera and viewport. It owns the
// attachment pool its frame renders draw from and implements
// render.SceneView for them.
type View struct {
	device         gpu.Device
	caps           gpu.Capabilities
	pool           *render.AttachmentPool
	poolIdleFrames int
	graph          *Graph

	tasksMu sync.Mutex
	tasks   []func()

	camera     *Camera
	skybox     render.Renderable
	background [4]float32

	surfaceWidth  int
	surfaceHeight int
	viewport      gpu.Rect
	trackSurface  bool

	viewM     mgl32.Mat4
	projM     mgl32.Mat4
	viewProjM mgl32.Mat4
	visible   []render.Renderable
	state     render.FrameState
	frame     uint64

	onScreen        *render.FrameRender
	onScreenEnabled bool
	offScreen       []*render.FrameRender

	hidden     atomic.Bool
	depthOrder atomic.Int32
	destroyed  bool
}

var _ render.SceneView = (*View)(nil)

// NewView returns a view drawing through device. Without WithViewport the
// viewport covers the whole surface.
func NewView(device gpu.Device, opts ...Option) *View {
	v := &View{
		device:          device,
		caps:            device.Capabilities(),
		graph:           NewGraph(),
		trackSurface:    true,
		onScreenEnabled: true,
		poolIdleFrames:  render.DefaultPoolIdleFrames,
		background:      [4]float32{0, 0, 0, 1},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.pool = render.NewAttachmentPool(device, v.poolIdleFrames)
	if v.camera == nil {
		v.camera = NewCamera(v.viewport.W, v.viewport.H)
	}
	return v
}

// render.SceneView

func (v *View) Device() gpu.Device                          { return v.device }
func (v *View) Capabilities() gpu.Capabilities              { return v.caps }
func (v *View) Pool() *render.AttachmentPool                { return v.pool }
func (v *View) Skybox() render.Renderable                   { return v.skybox }
func (v *View) ViewMatrix() mgl32.Mat4                      { return v.viewM }
func (v *View) ProjectionMatrix() mgl32.Mat4                { return v.projM }
func (v *View) ViewProjectionMatrix() mgl32.Mat4            { return v.viewProjM }
func (v *View) Viewport() gpu.Rect                          { return v.viewport }
func (v *View) ViewportLeft() int                           { return v.viewport.X }
func (v *View) ViewportTop() int                            { return v.viewport.Y }
func (v *View) RenderableSceneObjects() []render.Renderable { return v.visible }
func (v *View) FrameState() *render.FrameState              { return &v.state }

// Graph returns the view's scene graph.
func (v *View) Graph() *Graph { return v.graph }

// Camera returns the current camera. Render thread only.
func (v *View) Camera() *Camera { return v.camera }

// BackgroundColor is the clear color presets use for this view.
func (v *View) BackgroundColor() [4]float32 { return v.background }

// Post queues fn to run on the render thread at the start of the next
// frame. Safe from any goroutine.
func (v *View) Post(fn func()) {
	v.tasksMu.Lock()
	v.tasks = append(v.tasks, fn)
	v.tasksMu.Unlock()
}

func (v *View) runTasks() {
	v.tasksMu.Lock()
	tasks := v.tasks
	v.tasks = nil
	v.tasksMu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// SetCamera switches cameras at the next frame.
func (v *View) SetCamera(c *Camera) {
	v.Post(func() {
		if c != v.camera {
			logger.Debugf("switching camera")
			v.camera = c
		}
	})
}

// SetSkybox replaces the skybox at the next frame.
func (v *View) SetSkybox(skybox render.Renderable) {
	v.Post(func() { v.skybox = skybox })
}

// SetViewport pins the viewport at the next frame. An empty rectangle makes
// it follow the surface again.
func (v *View) SetViewport(r gpu.Rect) {
	v.Post(func() {
		v.trackSurface = r.Empty()
		if v.trackSurface {
			r = gpu.Rect{W: v.surfaceWidth, H: v.surfaceHeight}
		}
		v.viewport = r
	})
}

// SetSurfaceSize is the surface size notification. Render thread only.
func (v *View) SetSurfaceSize(width, height int) {
	v.surfaceWidth, v.surfaceHeight = width, height
	if v.trackSurface {
		v.viewport = gpu.Rect{W: width, H: height}
	}
	logger.Infof("surface %dx%d, viewport %+v", width, height, v.viewport)
}

// SetBackgroundColor sets the clear color used by presets built afterwards.
func (v *View) SetBackgroundColor(r, g, b, a float32) {
	v.background = [4]float32{r, g, b, a}
}

// SetViewportVisible hides or shows the whole view.
func (v *View) SetViewportVisible(visible bool) { v.hidden.Store(!visible) }

func (v *View) ViewportVisible() bool { return !v.hidden.Load() }

// SetDepthOrder orders views drawn onto the same surface; lower draws first.
func (v *View) SetDepthOrder(order int) { v.depthOrder.Store(int32(order)) }

func (v *View) DepthOrder() int { return int(v.depthOrder.Load()) }

// SetOnScreenRender makes fr the render drawn to the screen. fr is
// initialized if needed; the previous on-screen render is moved off the
// screen but not destroyed.
func (v *View) SetOnScreenRender(fr *render.FrameRender) error {
	if fr == v.onScreen || slices.Contains(v.offScreen, fr) {
		return fmt.Errorf("%w: %s", ErrAlreadyCurrent, fr.Name())
	}
	if err := initialize(fr); err != nil {
		return err
	}
	if !fr.RenderableToScreen() {
		return fmt.Errorf("%w: %s", ErrNotScreenRenderable, fr.Name())
	}
	if v.onScreen != nil {
		v.onScreen.SetRendersToScreen(false)
	}
	fr.SetRendersToScreen(true)
	v.onScreen = fr
	logger.Noticef("on-screen render is now %s", fr.Name())
	return nil
}

// RemoveOnScreenRender moves the on-screen render off the screen and
// returns it.
func (v *View) RemoveOnScreenRender() *render.FrameRender {
	fr := v.onScreen
	if fr != nil {
		fr.SetRendersToScreen(false)
		v.onScreen = nil
	}
	return fr
}

func (v *View) OnScreenRender() *render.FrameRender { return v.onScreen }

// SetOnScreenRenderEnabled pauses or resumes the on-screen render.
// Off-screen renders keep running.
func (v *View) SetOnScreenRenderEnabled(enabled bool) { v.onScreenEnabled = enabled }

func (v *View) OnScreenRenderEnabled() bool { return v.onScreenEnabled }

// AddOffScreenRender initializes fr if needed and draws it every frame
// after the on-screen render.
func (v *View) AddOffScreenRender(fr *render.FrameRender) error {
	if slices.Contains(v.offScreen, fr) || fr == v.onScreen {
		return fmt.Errorf("%w: %s", ErrAlreadyCurrent, fr.Name())
	}
	if err := initialize(fr); err != nil {
		return err
	}
	v.offScreen = append(v.offScreen, fr)
	logger.Infof("added off-screen render %s", fr.Name())
	return nil
}

// initialize brings fr up unless it already is. A frame whose earlier
// Initialize failed is refused; the caller must destroy it.
func initialize(fr *render.FrameRender) error {
	switch {
	case fr.Failed():
		return fmt.Errorf("%w: %s", ErrInitializeFailed, fr.Name())
	case fr.Initialized():
		return nil
	}
	if err := fr.Initialize(); err != nil {
		return fmt.Errorf("initializing %s: %w", fr.Name(), err)
	}
	return nil
}

// RemoveOffScreenRender stops drawing fr. The caller owns it afterwards.
func (v *View) RemoveOffScreenRender(fr *render.FrameRender) error {
	i := slices.Index(v.offScreen, fr)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRender, fr.Name())
	}
	v.offScreen = slices.Delete(v.offScreen, i, i+1)
	return nil
}

func (v *View) OffScreenRenders() []*render.FrameRender { return v.offScreen }

// Frame returns the number of frames rendered.
func (v *View) Frame() uint64 { return v.frame }

// RenderFrame draws one frame: queued tasks, matrices, visible objects, then
// the on-screen render and every off-screen render.
func (v *View) RenderFrame() error {
	defer profiling.Track("scene.RenderFrame")()

	v.runTasks()
	v.graph.Sync()
	if v.hidden.Load() {
		return nil
	}
	if v.viewport.Empty() {
		logger.Debugf("skipping frame: empty viewport")
		return nil
	}
	if err := v.updateMatrices(); err != nil {
		return err
	}
	v.collectVisible()

	v.frame++
	v.state.Reset(v.frame)
	v.pool.BeginFrame()
	defer v.pool.EndFrame()

	if v.onScreen != nil && v.onScreenEnabled {
		if err := v.onScreen.Render(); err != nil {
			return fmt.Errorf("on-screen render %s: %w", v.onScreen.Name(), err)
		}
	}
	for _, fr := range v.offScreen {
		if err := fr.Render(); err != nil {
			return fmt.Errorf("off-screen render %s: %w", fr.Name(), err)
		}
	}
	return nil
}

func (v *View) updateMatrices() error {
	if v.camera == nil {
		return ErrNoProjection
	}
	v.camera.SetAspect(v.viewport.W, v.viewport.H)
	proj, ok := v.camera.ProjectionMatrix()
	if !ok {
		return ErrNoProjection
	}
	v.projM = proj
	v.viewM = v.camera.ViewMatrix()
	v.viewProjM = proj.Mul4(v.viewM)
	return nil
}

func (v *View) collectVisible() {
	f := extractFrustum(v.viewProjM)
	v.visible = v.visible[:0]
	for _, obj := range v.graph.Objects() {
		if h, ok := obj.(Hideable); ok && !h.Visible() {
			continue
		}
		if b, ok := obj.(Bounded); ok {
			lo, hi := b.Bounds()
			if !f.intersectsAABB(lo, hi) {
				continue
			}
		}
		v.visible = append(v.visible, obj)
	}
}

// Destroy destroys every attached frame render and the attachment pool.
func (v *View) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	if v.onScreen != nil {
		v.onScreen.Destroy()
		v.onScreen = nil
	}
	for _, fr := range v.offScreen {
		fr.Destroy()
	}
	v.offScreen = nil
	v.pool.Destroy()
}
