// Package gpucore provides the GPU abstraction used by the postfx pipeline.
//
// This package defines the [Device], [CommandEncoder] and [RenderPass]
// interfaces, which abstract over GPU backend implementations so that the
// effect chain, the render-target pool and the pipeline cache can run against:
//   - gogpu/wgpu HAL devices (backend/native)
//   - the recording device used by tests and dry runs (backend/recorder)
//
// # Architecture
//
//	               +-----------------+
//	               |     postfx      |
//	               | (PostProcess)   |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| native adapter  |          |    recorder     |
//	|  (hal.Device)   |          | (no GPU, plans) |
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	+-----------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [TextureID], etc.).
// Devices are responsible for tracking the mapping between IDs and actual
// backend resources. The zero ID is never a valid resource.
//
// # Static Tables
//
// [SurfaceFormat], [BlendFactor], [BlendOperation], [BlendMode],
// [PrimitiveTopology], [CompareFunction] and [DepthFormat] are small closed
// enumerations. Each exposes a Count constant that pipeline keys use to size
// their bit fields, and a GPU method that maps to the gputypes equivalent.
package gpucore
