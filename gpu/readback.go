package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/core"
)

// ReadTransforms copies the transform buffer back to host memory and blocks
// until the map completes. Verification and tooling only; the frame loop
// never reads back.
func (m *FieldBufferManager) ReadTransforms(maxPolls int) ([]core.InstanceTransform, error) {
	if m.TransformBuf == nil || m.Count == 0 {
		return nil, nil
	}

	size := uint64(m.Count) * core.InstanceTransformSize
	m.ensureBuffer("TransformReadback", &m.ReadbackBuf, size,
		wgpu.BufferUsageCopyDst|wgpu.BufferUsageMapRead)

	encoder, err := m.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	encoder.CopyBufferToBuffer(m.TransformBuf, 0, m.ReadbackBuf, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	m.Device.GetQueue().Submit(cmd)

	if maxPolls <= 0 {
		maxPolls = 1000
	}
	done := false
	mapped := false
	m.ReadbackBuf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		done = true
		mapped = status == wgpu.BufferMapAsyncStatusSuccess
	})
	for i := 0; i < maxPolls && !done; i++ {
		m.Device.Poll(true, nil)
	}
	if !done {
		return nil, fmt.Errorf("transform readback: map did not complete after %d polls", maxPolls)
	}
	if !mapped {
		return nil, fmt.Errorf("transform readback: map failed")
	}

	data := m.ReadbackBuf.GetMappedRange(0, uint(size))
	out := make([]core.InstanceTransform, m.Count)
	copy(out, unsafe.Slice((*core.InstanceTransform)(unsafe.Pointer(&data[0])), m.Count))
	m.ReadbackBuf.Unmap()

	return out, nil
}
