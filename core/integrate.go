package core

import (
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// StateSource exposes per-slot kinematic reads. The integrator never writes
// through it.
type StateSource interface {
	VelocityAt(i int) mgl32.Vec3
}

// TransformStore exposes per-slot transform read-modify-write access.
type TransformStore interface {
	TransformAt(i int) InstanceTransform
	SetTransformAt(i int, t InstanceTransform)
}

// advance is the kernel body for one slot: translation += velocity, basis
// columns, homogeneous w and color untouched.
func advance(t InstanceTransform, v mgl32.Vec3) InstanceTransform {
	t.Model[12] += v.X()
	t.Model[13] += v.Y()
	t.Model[14] += v.Z()
	return t
}

// Integrate advances slots [0, count) by one tick. Each slot is a pure
// function of its own pair of records, so chunks run on separate goroutines
// without coordination, mirroring the unordered invocation model of the GPU
// kernel.
func Integrate(count int, src StateSource, store TransformStore) {
	if count <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > count {
		workers = 1
	}
	chunk := (count + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < count; start += chunk {
		end := start + chunk
		if end > count {
			end = count
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				store.SetTransformAt(i, advance(store.TransformAt(i), src.VelocityAt(i)))
			}
		}(start, end)
	}
	wg.Wait()
}

// SliceStates adapts a kinematic slice to StateSource.
type SliceStates []KinematicState

func (s SliceStates) VelocityAt(i int) mgl32.Vec3 {
	return s[i].VelocityVec()
}

// SliceTransforms adapts a transform slice to TransformStore.
type SliceTransforms []InstanceTransform

func (s SliceTransforms) TransformAt(i int) InstanceTransform {
	return s[i]
}

func (s SliceTransforms) SetTransformAt(i int, t InstanceTransform) {
	s[i] = t
}
