package core

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceTransform matches the WGSL layout shared by integrate.wgsl and
// instanced.wgsl:
//
//	struct InstanceTransform { model: mat4x4<f32>, color: vec4<f32> }
//
// The model matrix is column-major; its fourth column carries the world-space
// translation. The color rides alongside for the render pass and is never
// touched by the integrator.
type InstanceTransform struct {
	Model mgl32.Mat4
	Color [4]float32
}

// KinematicState matches the WGSL storage layout:
//
//	struct KinematicState { velocity: vec3<f32> }
//
// A vec3 in a storage array occupies 16 bytes, hence the trailing pad.
type KinematicState struct {
	Velocity [3]float32
	_        float32
}

const (
	InstanceTransformSize = uint64(unsafe.Sizeof(InstanceTransform{}))
	KinematicStateSize    = uint64(unsafe.Sizeof(KinematicState{}))
)

// NewInstanceTransform builds a transform from position, rotation and color.
func NewInstanceTransform(position mgl32.Vec3, rotation mgl32.Quat, color [4]float32) InstanceTransform {
	translate := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	return InstanceTransform{
		Model: translate.Mul4(rotation.Mat4()),
		Color: color,
	}
}

// Translation returns the xyz of the fourth matrix column.
func (t *InstanceTransform) Translation() mgl32.Vec3 {
	return mgl32.Vec3{t.Model[12], t.Model[13], t.Model[14]}
}

// SetTranslation overwrites the xyz of the fourth matrix column. The
// homogeneous w component is left as-is.
func (t *InstanceTransform) SetTranslation(p mgl32.Vec3) {
	t.Model[12] = p.X()
	t.Model[13] = p.Y()
	t.Model[14] = p.Z()
}

// VelocityVec returns the velocity as an mgl32 vector.
func (k *KinematicState) VelocityVec() mgl32.Vec3 {
	return mgl32.Vec3{k.Velocity[0], k.Velocity[1], k.Velocity[2]}
}
