package core

import (
	"errors"
	"fmt"
)

// DefaultGridWidth is the row width of the 2-D dispatch grid. It only has to
// exceed any plausible single-row instance count so a flat instance array can
// be addressed by a 2-D invocation grid without index collision.
const DefaultGridWidth = 10000

var ErrZeroGridWidth = errors.New("dispatch grid width must be non-zero")

// DispatchGrid is the single shared addressing configuration: the same Width
// sizes the compute dispatch on the host and is uploaded to the kernel as a
// uniform, so the two can never drift apart.
type DispatchGrid struct {
	Width uint32
}

func NewDispatchGrid() DispatchGrid {
	return DispatchGrid{Width: DefaultGridWidth}
}

// LinearIndex maps a 2-D invocation coordinate to an instance slot. This is
// the same formula integrate.wgsl evaluates per invocation.
func (g DispatchGrid) LinearIndex(x, y uint32) uint32 {
	return x + y*g.Width
}

// Dims returns the invocation extents covering n slots, row-major. The x
// extent never exceeds the grid width.
func (g DispatchGrid) Dims(n uint32) (x, y uint32) {
	if n == 0 || g.Width == 0 {
		return 0, 0
	}
	if n <= g.Width {
		return n, 1
	}
	return g.Width, (n + g.Width - 1) / g.Width
}

// Validate checks the host-side preconditions the kernel itself cannot: the
// two buffers must be index-aligned and the dispatch must not cover more
// invocations than there are slots. The kernel has no error channel, so a
// violation caught here is the only detection the system gets.
func (g DispatchGrid) Validate(count int, transforms []InstanceTransform, states []KinematicState) error {
	if g.Width == 0 {
		return ErrZeroGridWidth
	}
	if len(transforms) != len(states) {
		return fmt.Errorf("buffer length mismatch: %d transforms vs %d kinematic states", len(transforms), len(states))
	}
	if count < 0 {
		return fmt.Errorf("negative instance count %d", count)
	}
	if count > len(transforms) {
		return fmt.Errorf("over-dispatch: %d instances but only %d slots", count, len(transforms))
	}
	return nil
}
