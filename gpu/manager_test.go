package gpu

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/swarm/core"
)

func TestWorkgroups(t *testing.T) {
	cases := []struct {
		x, y, wantX, wantY uint32
	}{
		{1, 1, 1, 1},
		{8, 1, 1, 1},
		{9, 1, 2, 1},
		{10000, 200, 1250, 25},
		{10000, 201, 1250, 26},
	}
	for _, c := range cases {
		wx, wy := workgroups(c.x, c.y)
		if wx != c.wantX || wy != c.wantY {
			t.Errorf("workgroups(%d,%d) = (%d,%d), want (%d,%d)", c.x, c.y, wx, wy, c.wantX, c.wantY)
		}
	}
}

func TestWorkgroupsCoverAllInvocations(t *testing.T) {
	grid := core.NewDispatchGrid()
	for _, n := range []uint32{1, 9999, 10000, 10001, 2_000_000} {
		x, y := grid.Dims(n)
		wx, wy := workgroups(x, y)
		require.GreaterOrEqual(t, wx*workgroupDim, x, "n=%d", n)
		require.GreaterOrEqual(t, wy*workgroupDim, y, "n=%d", n)
	}
}

func TestPackGridParams(t *testing.T) {
	buf := packGridParams(10000, 2_000_000)
	require.Len(t, buf, 16)
	assert.Equal(t, uint32(10000), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(2_000_000), binary.LittleEndian.Uint32(buf[4:]))
}

func TestTransformBytesRoundTrip(t *testing.T) {
	transforms := []core.InstanceTransform{
		core.NewInstanceTransform(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), [4]float32{0.1, 0.2, 0.3, 1}),
		core.NewInstanceTransform(mgl32.Vec3{-4, 5, -6}, mgl32.QuatIdent(), [4]float32{0.9, 0.8, 0.7, 1}),
	}

	raw := transformBytes(transforms)
	require.Len(t, raw, 2*int(core.InstanceTransformSize))

	back := unsafe.Slice((*core.InstanceTransform)(unsafe.Pointer(&raw[0])), 2)
	assert.Equal(t, transforms[0], back[0])
	assert.Equal(t, transforms[1], back[1])
}

func TestStateBytesStride(t *testing.T) {
	states := []core.KinematicState{
		{Velocity: [3]float32{1, 2, 3}},
		{Velocity: [3]float32{4, 5, 6}},
	}
	raw := stateBytes(states)
	require.Len(t, raw, 32)

	// Second record starts at the 16-byte WGSL stride.
	x := mgl32.Vec3{
		float32frombytes(raw[16:20]),
		float32frombytes(raw[20:24]),
		float32frombytes(raw[24:28]),
	}
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, x)
}

func float32frombytes(b []byte) float32 {
	return *(*float32)(unsafe.Pointer(&b[0]))
}
