package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera handles the view and projection matrices
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		Position:  mgl32.Vec3{0, 0, 5},
		Up:        mgl32.Vec3{0, 1, 0},
		FOV:       60.0,
		NearPlane: 0.1,
		FarPlane:  1000.0,
	}
	c.SetAspect(width, height)
	return c
}

// SetAspect updates the aspect ratio for a width x height target. A zero
// size leaves the projection undefined.
func (c *Camera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		c.AspectRatio = 0
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

// LookAt places the camera at eye looking at target.
func (c *Camera) LookAt(eye, target mgl32.Vec3) {
	c.Position = eye
	c.Target = target
}

// ProjectionMatrix returns the perspective projection. ok is false while
// the projection is undefined.
func (c *Camera) ProjectionMatrix() (m mgl32.Mat4, ok bool) {
	if c.AspectRatio <= 0 || c.FOV <= 0 || c.FarPlane <= c.NearPlane {
		return mgl32.Mat4{}, false
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane), true
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}
