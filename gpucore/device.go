package gpucore

// Device creates and destroys GPU resources.
//
// Implementations include:
//   - backend/native: gogpu/wgpu HAL device
//   - backend/recorder: in-memory device for tests and dry runs
//
// Destroying an unknown or already destroyed ID is a no-op.
type Device interface {
	// CreateShaderModule compiles WGSL source into a shader module.
	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// CreateRenderPipeline creates a render pipeline and the bind group
	// layout described by desc.Bindings.
	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)

	// DestroyRenderPipeline releases a pipeline and its layouts.
	DestroyRenderPipeline(id RenderPipelineID)

	// CreateBuffer creates a GPU buffer.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// WriteBuffer uploads data into a buffer at the given byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// CreateTexture creates a 2D texture.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// CreateTextureView creates the default 2D view of a texture.
	CreateTextureView(tex TextureID) (TextureViewID, error)

	// DestroyTextureView releases a texture view.
	DestroyTextureView(id TextureViewID)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// CreateSampler creates a sampler.
	CreateSampler(desc *SamplerDesc) (SamplerID, error)

	// DestroySampler releases a sampler.
	DestroySampler(id SamplerID)

	// CreateBindGroup creates a bind group against the layout of
	// desc.Pipeline.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)
}

// CommandEncoder records render passes for later submission.
// The encoder is owned by the caller; postfx only begins and ends passes.
type CommandEncoder interface {
	BeginRenderPass(desc *RenderPassDesc) RenderPass
}

// RenderPass records draw commands into one color attachment.
type RenderPass interface {
	SetPipeline(id RenderPipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	SetVertexBuffer(slot uint32, buf BufferID, offset uint64)
	// SetIndexBuffer binds a buffer of uint16 indices.
	SetIndexBuffer(buf BufferID, offset uint64)
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	SetScissorRect(x, y, width, height uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	End()
}

// ShaderModuleDesc describes a shader module.
type ShaderModuleDesc struct {
	Label string
	WGSL  string
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureDesc describes a 2D texture with a single mip level.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format SurfaceFormat
	Usage  TextureUsage
}

// SamplerDesc describes a sampler. It is comparable and used as a cache key.
type SamplerDesc struct {
	Filter  FilterMode
	Address AddressMode
}

// BindGroupEntry binds exactly one of Buffer, TextureView or Sampler.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      BufferID
	Offset      uint64
	Size        uint64
	TextureView TextureViewID
	Sampler     SamplerID
}

// BindGroupDesc describes bind group 0 of a pipeline.
type BindGroupDesc struct {
	Label    string
	Pipeline RenderPipelineID
	Entries  []BindGroupEntry
}

// LoadOp selects how a color attachment starts a pass.
type LoadOp uint8

// Load operations.
const (
	// LoadKeep preserves existing contents.
	LoadKeep LoadOp = iota
	// LoadClear clears to RenderPassDesc.Clear.
	LoadClear
)

// RenderPassDesc describes a render pass with one color attachment and an
// optional depth attachment.
type RenderPassDesc struct {
	Label  string
	Target TextureViewID
	Load   LoadOp
	Clear  [4]float64

	// DepthTarget is InvalidID when the pass has no depth attachment.
	DepthTarget TextureViewID
}
