// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/postfx/gpucore"
)

// Device errors.
var (
	// ErrNilDevice is returned when a Device is created without a HAL device
	// or queue.
	ErrNilDevice = errors.New("native: device is nil")

	// ErrUnknownResource is returned when a descriptor references an ID the
	// device never created or already destroyed.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrWriteOutOfRange is returned when WriteBuffer would write past the
	// end of a buffer.
	ErrWriteOutOfRange = errors.New("native: write out of buffer range")

	// ErrNoHALProvider is returned by NewFromProvider when the provider does
	// not expose HAL types.
	ErrNoHALProvider = errors.New("native: provider does not expose HAL types")
)

// ShaderSource selects how WGSL reaches the HAL device.
type ShaderSource uint8

const (
	// SourceWGSL hands WGSL text to the backend, which translates it.
	SourceWGSL ShaderSource = iota

	// SourceSPIRV compiles WGSL to SPIR-V with naga before creating the
	// module.
	SourceSPIRV
)

// Option configures a Device.
type Option func(*Device)

// WithShaderSource selects the shader module source kind. The default is
// SourceWGSL.
func WithShaderSource(s ShaderSource) Option {
	return func(d *Device) {
		d.source = s
	}
}

type pipelineEntry struct {
	pipeline hal.RenderPipeline
	layout   hal.PipelineLayout
	group    hal.BindGroupLayout
	bindings []gpucore.BindingType
}

type bufferEntry struct {
	buf  hal.Buffer
	size uint64
}

// Device implements gpucore.Device on a gogpu/wgpu HAL device.
//
// Resources are addressed by monotonically increasing IDs; an ID is never
// reused, so a stale ID fails with ErrUnknownResource instead of aliasing
// a newer resource.
//
// Device is safe for concurrent use. It does not own the HAL device or queue.
type Device struct {
	mu     sync.RWMutex
	next   uint64
	device hal.Device
	queue  hal.Queue
	source ShaderSource

	shaders    map[gpucore.ShaderModuleID]hal.ShaderModule
	pipelines  map[gpucore.RenderPipelineID]*pipelineEntry
	buffers    map[gpucore.BufferID]bufferEntry
	textures   map[gpucore.TextureID]hal.Texture
	views      map[gpucore.TextureViewID]hal.TextureView
	samplers   map[gpucore.SamplerID]hal.Sampler
	bindGroups map[gpucore.BindGroupID]hal.BindGroup
}

var _ gpucore.Device = (*Device)(nil)

// New wraps a HAL device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	d := &Device{
		device:     device,
		queue:      queue,
		shaders:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		pipelines:  make(map[gpucore.RenderPipelineID]*pipelineEntry),
		buffers:    make(map[gpucore.BufferID]bufferEntry),
		textures:   make(map[gpucore.TextureID]hal.Texture),
		views:      make(map[gpucore.TextureViewID]hal.TextureView),
		samplers:   make(map[gpucore.SamplerID]hal.Sampler),
		bindGroups: make(map[gpucore.BindGroupID]hal.BindGroup),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewFromProvider wraps the HAL device and queue of a host application's
// gpucontext.DeviceProvider. The provider must implement HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	slogger().Debug("native: device from provider",
		"surface_format", provider.SurfaceFormat(),
		"adapter", provider.AdapterInfo().Name,
	)
	return New(device, queue, opts...)
}

// SurfaceFormat maps a provider's surface format to a postfx format.
func SurfaceFormat(provider gpucontext.DeviceProvider) (gpucore.SurfaceFormat, bool) {
	return gpucore.FormatFromGPU(provider.SurfaceFormat())
}

// HAL returns the wrapped HAL device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) {
	return d.device, d.queue
}

func (d *Device) nextID() uint64 {
	d.next++
	return d.next
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	src := hal.ShaderSource{WGSL: desc.WGSL}
	if d.source == SourceSPIRV {
		words, err := CompileShaderToSPIRV(desc.WGSL)
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("native: shader %q: %w", desc.Label, err)
		}
		src = hal.ShaderSource{SPIRV: words}
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: src,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.ShaderModuleID(d.nextID())
	d.shaders[id] = module
	return id, nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaders[id]
	delete(d.shaders, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// layoutEntries builds bind group layout entries where the binding number is
// the index in bindings.
func layoutEntries(bindings []gpucore.BindingType) ([]gputypes.BindGroupLayoutEntry, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, len(bindings))
	for i, b := range bindings {
		e := gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		}
		switch b {
		case gpucore.BindingUniform:
			e.Buffer = &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform,
			}
		case gpucore.BindingTexture:
			e.Visibility = gputypes.ShaderStageFragment
			e.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case gpucore.BindingSampler:
			e.Visibility = gputypes.ShaderStageFragment
			e.Sampler = &gputypes.SamplerBindingLayout{
				Type: gputypes.SamplerBindingTypeFiltering,
			}
		default:
			return nil, fmt.Errorf("native: unknown binding type %d at %d", b, i)
		}
		entries[i] = e
	}
	return entries, nil
}

func depthStencil(s gpucore.DepthState) *hal.DepthStencilState {
	if !s.Enabled() {
		return nil
	}
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            s.Format.GPU(),
		DepthWriteEnabled: s.Write,
		DepthCompare:      s.Compare.GPU(),
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0xFFFFFFFF,
		StencilWriteMask:  0xFFFFFFFF,
	}
}

// CreateRenderPipeline implements gpucore.Device. It creates the bind group
// layout and pipeline layout alongside the pipeline.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.RLock()
	module, ok := d.shaders[desc.Module]
	d.mu.RUnlock()
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.Module)
	}

	entries, err := layoutEntries(desc.Bindings)
	if err != nil {
		return gpucore.InvalidID, err
	}
	group, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "-bgl",
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}
	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "-layout",
		BindGroupLayouts: []hal.BindGroupLayout{group},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(group)
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, err)
	}

	buffers := make([]gputypes.VertexBufferLayout, len(desc.Vertex))
	for i, l := range desc.Vertex {
		buffers[i] = l.GPU()
	}
	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: desc.Topology.GPU(),
			CullMode: gputypes.CullModeNone,
		},
		DepthStencil: depthStencil(desc.Depth),
		Multisample:  gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.Format.GPU(),
				Blend:     desc.Blend.GPU(),
				WriteMask: desc.WriteMask.GPU(),
			}},
		},
	})
	if err != nil {
		d.device.DestroyPipelineLayout(layout)
		d.device.DestroyBindGroupLayout(group)
		return gpucore.InvalidID, fmt.Errorf("native: create render pipeline %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.RenderPipelineID(d.nextID())
	d.pipelines[id] = &pipelineEntry{
		pipeline: pipeline,
		layout:   layout,
		group:    group,
		bindings: append([]gpucore.BindingType(nil), desc.Bindings...),
	}
	return id, nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	p, ok := d.pipelines[id]
	delete(d.pipelines, id)
	d.mu.Unlock()
	if !ok {
		return
	}
	d.device.DestroyRenderPipeline(p.pipeline)
	d.device.DestroyPipelineLayout(p.layout)
	d.device.DestroyBindGroupLayout(p.group)
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage.GPU(),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BufferID(d.nextID())
	d.buffers[id] = bufferEntry{buf: buf, size: desc.Size}
	return id, nil
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %d+%d > %d", ErrWriteOutOfRange, offset, len(data), b.size)
	}
	return d.queue.WriteBuffer(b.buf, offset, data)
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	b, ok := d.buffers[id]
	delete(d.buffers, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyBuffer(b.buf)
	}
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: texture %q has size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // checked positive above
			Height:             uint32(desc.Height), //nolint:gosec // checked positive above
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format.GPU(),
		Usage:         desc.Usage.GPU(),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureID(d.nextID())
	d.textures[id] = tex
	return id, nil
}

// CreateTextureView implements gpucore.Device.
func (d *Device) CreateTextureView(texID gpucore.TextureID) (gpucore.TextureViewID, error) {
	d.mu.RLock()
	tex, ok := d.textures[texID]
	d.mu.RUnlock()
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d", ErrUnknownResource, texID)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture view: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureViewID(d.nextID())
	d.views[id] = view
	return id, nil
}

// DestroyTextureView implements gpucore.Device.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	view, ok := d.views[id]
	delete(d.views, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyTextureView(view)
	}
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	tex, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyTexture(tex)
	}
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	addr := desc.Address.GPU()
	filter := desc.Filter.GPU()
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "postfx-sampler",
		AddressModeU: addr,
		AddressModeV: addr,
		AddressModeW: addr,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create sampler: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.SamplerID(d.nextID())
	d.samplers[id] = sampler
	return id, nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	s, ok := d.samplers[id]
	delete(d.samplers, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroySampler(s)
	}
}

// bindingResource resolves one entry against the expected binding type.
// Caller holds d.mu.
func (d *Device) bindingResource(want gpucore.BindingType, e gpucore.BindGroupEntry) (gputypes.BindingResource, error) {
	switch want {
	case gpucore.BindingUniform:
		b, ok := d.buffers[e.Buffer]
		if !ok {
			return nil, fmt.Errorf("%w: buffer %d at binding %d", ErrUnknownResource, e.Buffer, e.Binding)
		}
		return gputypes.BufferBinding{
			Buffer: b.buf.NativeHandle(),
			Offset: e.Offset,
			Size:   e.Size,
		}, nil
	case gpucore.BindingTexture:
		v, ok := d.views[e.TextureView]
		if !ok {
			return nil, fmt.Errorf("%w: texture view %d at binding %d", ErrUnknownResource, e.TextureView, e.Binding)
		}
		return gputypes.TextureViewBinding{TextureView: v.NativeHandle()}, nil
	case gpucore.BindingSampler:
		s, ok := d.samplers[e.Sampler]
		if !ok {
			return nil, fmt.Errorf("%w: sampler %d at binding %d", ErrUnknownResource, e.Sampler, e.Binding)
		}
		return gputypes.SamplerBinding{Sampler: s.NativeHandle()}, nil
	default:
		return nil, fmt.Errorf("native: unknown binding type %d", want)
	}
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.RLock()
	p, ok := d.pipelines[desc.Pipeline]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline %d", ErrUnknownResource, desc.Pipeline)
	}
	if len(desc.Entries) != len(p.bindings) {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("native: bind group %q has %d entries, layout wants %d",
			desc.Label, len(desc.Entries), len(p.bindings))
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		if int(e.Binding) >= len(p.bindings) {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group %q binding %d out of range", desc.Label, e.Binding)
		}
		res, err := d.bindingResource(p.bindings[e.Binding], e)
		if err != nil {
			d.mu.RUnlock()
			return gpucore.InvalidID, err
		}
		entries[i] = gputypes.BindGroupEntry{Binding: e.Binding, Resource: res}
	}
	layout := p.group
	d.mu.RUnlock()

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BindGroupID(d.nextID())
	d.bindGroups[id] = group
	return id, nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	g, ok := d.bindGroups[id]
	delete(d.bindGroups, id)
	d.mu.Unlock()
	if ok {
		d.device.DestroyBindGroup(g)
	}
}

// Live returns the number of resources the device currently tracks.
func (d *Device) Live() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.shaders) + len(d.pipelines) + len(d.buffers) + len(d.textures) +
		len(d.views) + len(d.samplers) + len(d.bindGroups)
}

func (d *Device) lookupPipeline(id gpucore.RenderPipelineID) (hal.RenderPipeline, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.pipelines[id]
	if !ok {
		return nil, false
	}
	return p.pipeline, true
}

func (d *Device) lookupBindGroup(id gpucore.BindGroupID) (hal.BindGroup, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.bindGroups[id]
	return g, ok
}

func (d *Device) lookupBuffer(id gpucore.BufferID) (hal.Buffer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buffers[id]
	return b.buf, ok
}

func (d *Device) lookupView(id gpucore.TextureViewID) (hal.TextureView, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.views[id]
	return v, ok
}
