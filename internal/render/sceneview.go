package render

import (
	"sceneview/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// SceneView is what the render tree needs from the view that owns it.
// All methods are called on the render thread.
type SceneView interface {
	Device() gpu.Device
	Capabilities() gpu.Capabilities
	Pool() *AttachmentPool

	Skybox() Renderable
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
	ViewProjectionMatrix() mgl32.Mat4

	// Viewport is the on-screen viewport; its size is the render target size
	// of every viewport-tracking pass.
	Viewport() gpu.Rect
	ViewportLeft() int
	ViewportTop() int

	// RenderableSceneObjects is the camera-visible object list of the
	// current frame.
	RenderableSceneObjects() []Renderable
	FrameState() *FrameState
}

// FrameState is the per-frame state threaded through every draw. LastUsed
// lets consecutive draws skip redundant state changes across subpass and
// pass boundaries.
type FrameState struct {
	Frame    uint64
	LastUsed ObjectRenderer
}

// Reset starts a new frame.
func (s *FrameState) Reset(frame uint64) {
	s.Frame = frame
	s.LastUsed = nil
}
