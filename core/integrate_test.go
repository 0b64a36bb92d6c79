package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func makeSlot(pos mgl32.Vec3, vel mgl32.Vec3, color [4]float32) (InstanceTransform, KinematicState) {
	t := NewInstanceTransform(pos, mgl32.QuatIdent(), color)
	s := KinematicState{Velocity: [3]float32{vel.X(), vel.Y(), vel.Z()}}
	return t, s
}

func TestIntegrate_ConcreteScenario(t *testing.T) {
	t0, s0 := makeSlot(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0.5, 0, 0}, [4]float32{1, 0, 0, 1})
	t1, s1 := makeSlot(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, 1, 0}, [4]float32{0, 1, 0, 1})

	transforms := SliceTransforms{t0, t1}
	states := SliceStates{s0, s1}

	Integrate(2, states, transforms)

	got0 := transforms[0].Translation()
	if got0 != (mgl32.Vec3{1.5, 2, 3}) {
		t.Errorf("slot 0 translation = %v, want (1.5,2,3)", got0)
	}
	got1 := transforms[1].Translation()
	if got1 != (mgl32.Vec3{-1, 1, 0}) {
		t.Errorf("slot 1 translation = %v, want (-1,1,0)", got1)
	}

	// Homogeneous w and colors untouched.
	if transforms[0].Model[15] != 1.0 || transforms[1].Model[15] != 1.0 {
		t.Errorf("homogeneous component must stay 1.0")
	}
	if transforms[0].Color != [4]float32{1, 0, 0, 1} || transforms[1].Color != [4]float32{0, 1, 0, 1} {
		t.Errorf("colors must pass through unchanged")
	}
}

func TestIntegrate_OnlyTranslationColumnChanges(t *testing.T) {
	rot := mgl32.QuatRotate(0.7, mgl32.Vec3{0, 0, 1})
	tr := NewInstanceTransform(mgl32.Vec3{4, 5, 6}, rot, [4]float32{0.2, 0.4, 0.6, 0.8})
	before := tr

	transforms := SliceTransforms{tr}
	states := SliceStates{{Velocity: [3]float32{0.1, -0.2, 0.3}}}
	Integrate(1, states, transforms)

	after := transforms[0]
	// All fields outside the translation xyz must be bit-identical.
	for i := 0; i < 12; i++ {
		if math.Float32bits(after.Model[i]) != math.Float32bits(before.Model[i]) {
			t.Errorf("basis column element %d changed: %v -> %v", i, before.Model[i], after.Model[i])
		}
	}
	if math.Float32bits(after.Model[15]) != math.Float32bits(before.Model[15]) {
		t.Errorf("homogeneous component changed")
	}
	for i := 0; i < 4; i++ {
		if math.Float32bits(after.Color[i]) != math.Float32bits(before.Color[i]) {
			t.Errorf("color component %d changed", i)
		}
	}
}

func TestIntegrate_ZeroVelocityIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	f := SpawnField(SpawnConfig{Count: 512, Extent: mgl32.Vec3{100, 100, 100}, Speed: 0.5, Rand: rng})
	for i := range f.States {
		f.States[i].Velocity = [3]float32{0, 0, 0}
	}
	before := make([]InstanceTransform, len(f.Transforms))
	copy(before, f.Transforms)

	require.NoError(t, f.StepCPU())

	for i := range f.Transforms {
		if f.Transforms[i] != before[i] {
			t.Fatalf("slot %d changed under zero velocity", i)
		}
	}
}

func TestIntegrate_LinearityOverRepeatedTicks(t *testing.T) {
	const k = 16
	vel := mgl32.Vec3{0.25, -0.5, 1.0}
	tr, st := makeSlot(mgl32.Vec3{10, 20, 30}, vel, [4]float32{1, 1, 1, 1})

	transforms := SliceTransforms{tr}
	states := SliceStates{st}
	for i := 0; i < k; i++ {
		Integrate(1, states, transforms)
	}

	want := mgl32.Vec3{10, 20, 30}.Add(vel.Mul(k))
	got := transforms[0].Translation()
	const eps = 1e-4
	if got.Sub(want).Len() > eps {
		t.Errorf("after %d ticks translation = %v, want %v", k, got, want)
	}
}

func TestIntegrate_SlotIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	f := SpawnField(SpawnConfig{Count: 64, Extent: mgl32.Vec3{50, 50, 50}, Speed: 1, Rand: rng})

	// Run once on a pristine copy.
	ref := make([]InstanceTransform, len(f.Transforms))
	copy(ref, f.Transforms)
	Integrate(len(ref), SliceStates(f.States), SliceTransforms(ref))

	// Permute every slot except 7, keeping pairs aligned, and run again.
	perm := rand.New(rand.NewSource(7)).Perm(len(f.Transforms))
	permT := make([]InstanceTransform, len(f.Transforms))
	permS := make([]KinematicState, len(f.States))
	for dst, src := range perm {
		permT[dst] = f.Transforms[src]
		permS[dst] = f.States[src]
	}
	// Pin slot 7 to its original pair.
	permT[7] = f.Transforms[7]
	permS[7] = f.States[7]

	Integrate(len(permT), SliceStates(permS), SliceTransforms(permT))

	if permT[7] != ref[7] {
		t.Errorf("slot 7 result depends on other slots' data")
	}
}

func TestIntegrate_PartialCount(t *testing.T) {
	t0, s0 := makeSlot(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, [4]float32{1, 1, 1, 1})
	t1, s1 := makeSlot(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, [4]float32{1, 1, 1, 1})

	transforms := SliceTransforms{t0, t1}
	states := SliceStates{s0, s1}
	Integrate(1, states, transforms)

	require.Equal(t, mgl32.Vec3{1, 0, 0}, transforms[0].Translation())
	require.Equal(t, mgl32.Vec3{0, 0, 0}, transforms[1].Translation(), "slot beyond count must not move")
}
