package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchGrid_LinearIndexBoundary(t *testing.T) {
	g := NewDispatchGrid()

	// Last slot of row 0 and first slot of row 1 must be distinct neighbors.
	if got := g.LinearIndex(9999, 0); got != 9999 {
		t.Errorf("LinearIndex(9999,0) = %d, want 9999", got)
	}
	if got := g.LinearIndex(0, 1); got != 10000 {
		t.Errorf("LinearIndex(0,1) = %d, want 10000", got)
	}
	if got := g.LinearIndex(3, 2); got != 20003 {
		t.Errorf("LinearIndex(3,2) = %d, want 20003", got)
	}
}

func TestDispatchGrid_Dims(t *testing.T) {
	g := NewDispatchGrid()

	cases := []struct {
		n, wantX, wantY uint32
	}{
		{0, 0, 0},
		{1, 1, 1},
		{9999, 9999, 1},
		{10000, 10000, 1},
		{10001, 10000, 2},
		{2_000_000, 10000, 200},
		{2_000_001, 10000, 201},
	}
	for _, c := range cases {
		x, y := g.Dims(c.n)
		if x != c.wantX || y != c.wantY {
			t.Errorf("Dims(%d) = (%d,%d), want (%d,%d)", c.n, x, y, c.wantX, c.wantY)
		}
	}
}

func TestDispatchGrid_DimsCoverEverySlotExactlyOnce(t *testing.T) {
	g := DispatchGrid{Width: 7}

	for _, n := range []uint32{1, 6, 7, 8, 13, 14, 50} {
		x, y := g.Dims(n)
		require.LessOrEqual(t, x, g.Width)

		seen := make(map[uint32]int)
		for iy := uint32(0); iy < y; iy++ {
			for ix := uint32(0); ix < x; ix++ {
				i := g.LinearIndex(ix, iy)
				if i < n {
					seen[i]++
				}
			}
		}
		for i := uint32(0); i < n; i++ {
			assert.Equal(t, 1, seen[i], "slot %d of %d", i, n)
		}
	}
}

func TestDispatchGrid_Validate(t *testing.T) {
	g := NewDispatchGrid()
	transforms := make([]InstanceTransform, 4)
	states := make([]KinematicState, 4)

	require.NoError(t, g.Validate(4, transforms, states))
	require.NoError(t, g.Validate(0, nil, nil))

	// Buffer size mismatch.
	err := g.Validate(3, transforms, states[:3])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")

	// Over-dispatch.
	err = g.Validate(5, transforms, states)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "over-dispatch")

	// Degenerate width.
	bad := DispatchGrid{Width: 0}
	require.ErrorIs(t, bad.Validate(4, transforms, states), ErrZeroGridWidth)
}
