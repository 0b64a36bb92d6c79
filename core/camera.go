package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a simple look-at camera. The field grows mostly along z, so the
// default sits far back on +z looking into the scatter volume.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	Aspect float32
	FovY   float32 // degrees
	Near   float32
	Far    float32
}

func NewCamera(aspect float32) *Camera {
	return &Camera{
		Eye:    mgl32.Vec3{0, 1, 1000},
		Target: mgl32.Vec3{0, 0, -100},
		Up:     mgl32.Vec3{0, 1, 0},
		Aspect: aspect,
		FovY:   20.0,
		Near:   0.1,
		Far:    10000.0,
	}
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Eye, c.Target, c.Up)
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// Dolly moves the eye along z and keeps the target one unit ahead, matching
// scroll-wheel zoom behavior.
func (c *Camera) Dolly(dz float32) {
	c.Eye[2] += dz
	c.Target = c.Eye.Add(mgl32.Vec3{0, 0, -1})
}
