// Package native implements gpucore.Device and gpucore.CommandEncoder on a
// gogpu/wgpu HAL device.
//
// A host application that already owns a device passes it through
// [NewFromProvider]; standalone programs open a HAL adapter and call [New].
// Shaders are handed to the backend as WGSL unless [WithShaderSource]
// selects SPIR-V compiled by naga.
package native
