package shaders

import (
	_ "embed"
)

//go:embed integrate.wgsl
var IntegrateWGSL string

//go:embed instanced.wgsl
var InstancedWGSL string
