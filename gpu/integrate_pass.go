package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/core"
	"github.com/gekko3d/swarm/shaders"
)

const workgroupDim = 8 // matches @workgroup_size(8, 8) in integrate.wgsl

// IntegratePass owns the compute pipeline that advances every instance
// transform by its velocity once per dispatch.
type IntegratePass struct {
	Pipeline *wgpu.ComputePipeline
	Grid     core.DispatchGrid
}

func NewIntegratePass(device *wgpu.Device, grid core.DispatchGrid, bgl *wgpu.BindGroupLayout) (*IntegratePass, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Integrate CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.IntegrateWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "Integrate Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, err
	}

	return &IntegratePass{Pipeline: pipeline, Grid: grid}, nil
}

// workgroups converts invocation extents to workgroup counts, rounding up.
// The kernel's count guard retires the spill invocations of the last row.
func workgroups(x, y uint32) (wx, wy uint32) {
	return (x + workgroupDim - 1) / workgroupDim, (y + workgroupDim - 1) / workgroupDim
}

// Dispatch records one integration tick over count instances. The caller has
// already validated the field against the grid; the encoder guarantees the
// compute pass completes before any subsequent pass reads the transforms.
func (p *IntegratePass) Dispatch(encoder *wgpu.CommandEncoder, bindGroup *wgpu.BindGroup, count uint32) {
	if count == 0 {
		return
	}

	x, y := p.Grid.Dims(count)
	wx, wy := workgroups(x, y)

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(wx, wy, 1)
	pass.End()
}
