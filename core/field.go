package core

import (
	"image/color"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/colornames"
)

// Field is the host-owned instance population: two parallel, index-aligned
// containers plus the addressing configuration shared with the kernel.
// Reordering one slice without the other corrupts the slot mapping, so the
// slices are only ever mutated in lockstep.
type Field struct {
	Id         string
	Transforms []InstanceTransform
	States     []KinematicState
	Grid       DispatchGrid
}

// SpawnConfig controls the initial scatter. Extent spans the half-size of the
// spawn box per axis; Speed scales the unit-length random velocities.
type SpawnConfig struct {
	Count  int
	Extent mgl32.Vec3
	Speed  float32

	// Palette, when non-empty, tints instances from these colors instead of
	// the positional gradient.
	Palette []color.RGBA

	Rand *rand.Rand
}

func DefaultSpawnConfig(count int) SpawnConfig {
	return SpawnConfig{
		Count:  count,
		Extent: mgl32.Vec3{850, 820, 1000},
		Speed:  0.2,
	}
}

// DefaultPalette is a handful of bright tints for palette-based spawns.
func DefaultPalette() []color.RGBA {
	return []color.RGBA{
		colornames.Aqua,
		colornames.Springgreen,
		colornames.Gold,
		colornames.Orchid,
		colornames.Tomato,
	}
}

// SpawnField scatters cfg.Count instances uniformly in the spawn box with
// unit-speed random headings scaled by cfg.Speed.
func SpawnField(cfg SpawnConfig) *Field {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	f := &Field{
		Id:         uuid.NewString(),
		Transforms: make([]InstanceTransform, cfg.Count),
		States:     make([]KinematicState, cfg.Count),
		Grid:       NewDispatchGrid(),
	}

	for i := 0; i < cfg.Count; i++ {
		x := (rng.Float32() - 0.5) * cfg.Extent.X()
		y := (rng.Float32() - 0.5) * cfg.Extent.Y()
		z := (rng.Float32() - 0.1) * cfg.Extent.Z()
		pos := mgl32.Vec3{x, y, z}

		var c [4]float32
		if len(cfg.Palette) > 0 {
			base := cfg.Palette[rng.Intn(len(cfg.Palette))]
			jitter := 0.85 + rng.Float32()*0.15
			c = [4]float32{
				float32(base.R) / 255.0 * jitter,
				float32(base.G) / 255.0 * jitter,
				float32(base.B) / 255.0 * jitter,
				1.0,
			}
		} else {
			// Positional gradient: redder toward +x, always bright green-ish.
			c = [4]float32{
				0.12 + rng.Float32()/4.0 + (x/cfg.Extent.X()+0.5)/2.0,
				0.75 + rng.Float32()/5.0,
				rng.Float32(),
				1.0,
			}
		}

		f.Transforms[i] = NewInstanceTransform(pos, mgl32.QuatIdent(), c)

		dir := mgl32.Vec3{
			rng.Float32() - 0.5,
			rng.Float32() - 0.5,
			rng.Float32() - 0.5,
		}
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		vel := dir.Mul(cfg.Speed)
		f.States[i] = KinematicState{Velocity: [3]float32{vel.X(), vel.Y(), vel.Z()}}
	}

	return f
}

// Count returns the instance population size.
func (f *Field) Count() int {
	return len(f.Transforms)
}

// Validate re-checks the dispatch preconditions against the current slices.
func (f *Field) Validate() error {
	return f.Grid.Validate(f.Count(), f.Transforms, f.States)
}

// StepCPU advances the field by one tick on the host. Reference semantics for
// the GPU kernel, and the fallback integration path when no device is in play.
func (f *Field) StepCPU() error {
	if err := f.Validate(); err != nil {
		return err
	}
	Integrate(f.Count(), SliceStates(f.States), SliceTransforms(f.Transforms))
	return nil
}
