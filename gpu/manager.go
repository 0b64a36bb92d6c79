package gpu

import (
	"encoding/binary"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/core"
)

// FieldBufferManager owns the two storage buffers backing one instance field
// and the grid-params uniform shared with the integrate kernel.
//
// Binding layout (group 0):
//
//	binding 0  kinematic state   storage, read-write (read-only in practice)
//	binding 1  instance transforms  storage, read-write; doubles as the
//	           instance vertex buffer for the render pass
//	binding 2  grid params       uniform {grid_width, count}
type FieldBufferManager struct {
	Device *wgpu.Device

	StateBuf     *wgpu.Buffer
	TransformBuf *wgpu.Buffer
	ParamsBuf    *wgpu.Buffer

	BindGroupLayout *wgpu.BindGroupLayout
	BindGroup       *wgpu.BindGroup

	ReadbackBuf *wgpu.Buffer

	Count uint32
}

func NewFieldBufferManager(device *wgpu.Device) *FieldBufferManager {
	return &FieldBufferManager{Device: device}
}

func (m *FieldBufferManager) ensureBuffer(name string, buf **wgpu.Buffer, size uint64, usage wgpu.BufferUsage) bool {
	if size%4 != 0 {
		size += 4 - (size % 4)
	}

	current := *buf
	if current != nil && current.GetSize() >= size {
		return false
	}
	if current != nil {
		current.Release()
	}

	newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		panic(err)
	}
	*buf = newBuf
	return true
}

// Upload pushes the whole field to the GPU, growing buffers as needed.
// Any buffer reallocation invalidates the cached bind group.
func (m *FieldBufferManager) Upload(field *core.Field) error {
	if err := field.Validate(); err != nil {
		return err
	}
	m.Count = uint32(field.Count())

	stateSize := uint64(len(field.States)) * core.KinematicStateSize
	transformSize := uint64(len(field.Transforms)) * core.InstanceTransformSize

	grewState := m.ensureBuffer("KinematicStateBuf", &m.StateBuf, stateSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	grewTransform := m.ensureBuffer("InstanceTransformBuf", &m.TransformBuf, transformSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if grewState || grewTransform {
		m.BindGroup = nil
	}

	queue := m.Device.GetQueue()
	if len(field.States) > 0 {
		queue.WriteBuffer(m.StateBuf, 0, stateBytes(field.States))
	}
	if len(field.Transforms) > 0 {
		queue.WriteBuffer(m.TransformBuf, 0, transformBytes(field.Transforms))
	}

	m.writeParams(field.Grid)
	return nil
}

// WriteTransforms re-uploads only the transform buffer. Used by the CPU
// integration path, which mutates transforms host-side every tick.
func (m *FieldBufferManager) WriteTransforms(transforms []core.InstanceTransform) {
	if len(transforms) == 0 || m.TransformBuf == nil {
		return
	}
	m.Device.GetQueue().WriteBuffer(m.TransformBuf, 0, transformBytes(transforms))
}

func (m *FieldBufferManager) writeParams(grid core.DispatchGrid) {
	if m.ParamsBuf == nil {
		var err error
		m.ParamsBuf, err = m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "GridParamsUB",
			Size:  16,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
	}
	m.Device.GetQueue().WriteBuffer(m.ParamsBuf, 0, packGridParams(grid.Width, m.Count))
}

// CreateBindGroupLayout builds the explicit group-0 layout shared by the
// integrate pipeline and this manager's bind group.
func (m *FieldBufferManager) CreateBindGroupLayout() error {
	if m.BindGroupLayout != nil {
		return nil
	}
	bgl, err := m.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "FieldBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeStorage,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeStorage,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 16,
				},
			},
		},
	})
	if err != nil {
		return err
	}
	m.BindGroupLayout = bgl
	return nil
}

// EnsureBindGroup (re)builds the bind group after buffer reallocation.
func (m *FieldBufferManager) EnsureBindGroup() error {
	if m.BindGroup != nil {
		return nil
	}
	if err := m.CreateBindGroupLayout(); err != nil {
		return err
	}
	bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "FieldBG",
		Layout: m.BindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.StateBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: m.TransformBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: m.ParamsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	m.BindGroup = bg
	return nil
}

func (m *FieldBufferManager) Release() {
	for _, buf := range []*wgpu.Buffer{m.StateBuf, m.TransformBuf, m.ParamsBuf, m.ReadbackBuf} {
		if buf != nil {
			buf.Release()
		}
	}
	m.StateBuf, m.TransformBuf, m.ParamsBuf, m.ReadbackBuf = nil, nil, nil, nil
	m.BindGroup = nil
}

func packGridParams(gridWidth, count uint32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], gridWidth)
	binary.LittleEndian.PutUint32(buf[4:], count)
	return buf
}

func stateBytes(states []core.KinematicState) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&states[0])), len(states)*int(core.KinematicStateSize))
}

func transformBytes(transforms []core.InstanceTransform) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&transforms[0])), len(transforms)*int(core.InstanceTransformSize))
}
