package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/core"
	"github.com/gekko3d/swarm/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// ParticleVertex matches the WGSL VertexInput in instanced.wgsl.
type ParticleVertex struct {
	Pos    [3]float32
	Corner [2]float32
}

// Unit quad, two triangles.
var quadVertices = []ParticleVertex{
	{Pos: [3]float32{-0.5, -0.5, 0}, Corner: [2]float32{0, 0}},
	{Pos: [3]float32{0.5, -0.5, 0}, Corner: [2]float32{1, 0}},
	{Pos: [3]float32{-0.5, 0.5, 0}, Corner: [2]float32{0, 1}},
	{Pos: [3]float32{0.5, 0.5, 0}, Corner: [2]float32{1, 1}},
}

var quadIndices = []uint16{0, 1, 2, 3, 2, 1}

// FieldRenderPass draws the instance population as alpha-blended billboards.
// The instance buffer it consumes is the transform buffer the integrate
// kernel writes, so no CPU copy sits between simulation and render.
type FieldRenderPass struct {
	Pipeline        *wgpu.RenderPipeline
	CameraBuf       *wgpu.Buffer
	CameraBindGroup *wgpu.BindGroup
	VertexBuffer    *wgpu.Buffer
	IndexBuffer     *wgpu.Buffer
	IndexCount      uint32
}

func NewFieldRenderPass(device *wgpu.Device, format wgpu.TextureFormat) (*FieldRenderPass, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Instanced VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.InstancedWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ParticleCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "ParticlePipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(ParticleVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
					},
				},
				{
					ArrayStride: core.InstanceTransformSize,
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 6},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	p := &FieldRenderPass{Pipeline: pipeline, IndexCount: uint32(len(quadIndices))}

	p.VertexBuffer, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Quad Vertex Buffer",
		Contents: unsafe.Slice((*byte)(unsafe.Pointer(&quadVertices[0])), len(quadVertices)*int(unsafe.Sizeof(ParticleVertex{}))),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}
	p.IndexBuffer, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Quad Index Buffer",
		Contents: wgpu.ToBytes(quadIndices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return nil, err
	}

	p.CameraBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CameraUB",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	p.CameraBindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ParticleCameraBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.CameraBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// UpdateCamera uploads the view-projection matrix.
func (p *FieldRenderPass) UpdateCamera(queue *wgpu.Queue, viewProj mgl32.Mat4) {
	queue.WriteBuffer(p.CameraBuf, 0, unsafe.Slice((*byte)(unsafe.Pointer(&viewProj[0])), 64))
}

// Record draws instanceCount billboards from the given instance buffer.
func (p *FieldRenderPass) Record(pass *wgpu.RenderPassEncoder, instanceBuf *wgpu.Buffer, instanceCount uint32) {
	if instanceCount == 0 {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.CameraBindGroup, nil)
	pass.SetVertexBuffer(0, p.VertexBuffer, 0, p.VertexBuffer.GetSize())
	pass.SetVertexBuffer(1, instanceBuf, 0, instanceBuf.GetSize())
	pass.SetIndexBuffer(p.IndexBuffer, wgpu.IndexFormatUint16, 0, p.IndexBuffer.GetSize())
	pass.DrawIndexed(p.IndexCount, instanceCount, 0, 0, 0)
}
