// Package recorder provides a gpucore.Device that records resource usage and
// render passes without touching a GPU.
//
// It is used by tests and by cmd/postfxplan to show what a chain would do.
// Every pass is checked for sampling from the texture it renders into; such
// passes are reported by [Encoder.Hazards].
package recorder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/postfx/gpucore"
)

// Op names a device operation for failure injection.
type Op string

// Operations that can be made to fail with [Device.FailOn].
const (
	OpCreateShaderModule   Op = "CreateShaderModule"
	OpCreateRenderPipeline Op = "CreateRenderPipeline"
	OpCreateBuffer         Op = "CreateBuffer"
	OpCreateTexture        Op = "CreateTexture"
	OpCreateTextureView    Op = "CreateTextureView"
	OpCreateSampler        Op = "CreateSampler"
	OpCreateBindGroup      Op = "CreateBindGroup"
)

// ErrUnknownResource is returned when a descriptor references an ID the
// device never created or already destroyed.
var ErrUnknownResource = errors.New("recorder: unknown resource")

// Device is an in-memory gpucore.Device.
//
// Device is safe for concurrent use.
type Device struct {
	mu   sync.Mutex
	next uint64

	shaders    map[gpucore.ShaderModuleID]string
	pipelines  map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc
	buffers    map[gpucore.BufferID]*buffer
	textures   map[gpucore.TextureID]gpucore.TextureDesc
	views      map[gpucore.TextureViewID]gpucore.TextureID
	samplers   map[gpucore.SamplerID]gpucore.SamplerDesc
	bindGroups map[gpucore.BindGroupID]gpucore.BindGroupDesc

	fail    map[Op]error
	created map[Op]int
}

type buffer struct {
	desc gpucore.BufferDesc
	data []byte
}

// New creates an empty recording device.
func New() *Device {
	return &Device{
		shaders:    make(map[gpucore.ShaderModuleID]string),
		pipelines:  make(map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc),
		buffers:    make(map[gpucore.BufferID]*buffer),
		textures:   make(map[gpucore.TextureID]gpucore.TextureDesc),
		views:      make(map[gpucore.TextureViewID]gpucore.TextureID),
		samplers:   make(map[gpucore.SamplerID]gpucore.SamplerDesc),
		bindGroups: make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
		fail:       make(map[Op]error),
		created:    make(map[Op]int),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (d *Device) FailOn(op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, op)
		return
	}
	d.fail[op] = err
}

// Created returns how many successful calls of op were made.
func (d *Device) Created(op Op) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[op]
}

// begin must be called with d.mu held.
func (d *Device) begin(op Op) (uint64, error) {
	if err := d.fail[op]; err != nil {
		return 0, err
	}
	d.next++
	d.created[op]++
	return d.next, nil
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.WGSL == "" {
		return 0, fmt.Errorf("recorder: shader %q has no source", desc.Label)
	}
	id, err := d.begin(OpCreateShaderModule)
	if err != nil {
		return 0, err
	}
	d.shaders[gpucore.ShaderModuleID(id)] = desc.Label
	return gpucore.ShaderModuleID(id), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, id)
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.shaders[desc.Module]; !ok {
		return 0, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.Module)
	}
	if !desc.Format.Valid() {
		return 0, fmt.Errorf("recorder: pipeline %q has invalid format %v", desc.Label, desc.Format)
	}
	id, err := d.begin(OpCreateRenderPipeline)
	if err != nil {
		return 0, err
	}
	cp := *desc
	cp.Bindings = append([]gpucore.BindingType(nil), desc.Bindings...)
	d.pipelines[gpucore.RenderPipelineID(id)] = cp
	return gpucore.RenderPipelineID(id), nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelines, id)
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Size == 0 {
		return 0, fmt.Errorf("recorder: buffer %q has zero size", desc.Label)
	}
	id, err := d.begin(OpCreateBuffer)
	if err != nil {
		return 0, err
	}
	d.buffers[gpucore.BufferID(id)] = &buffer{desc: *desc, data: make([]byte, desc.Size)}
	return gpucore.BufferID(id), nil
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("recorder: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, b.desc.Label, len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// BufferData returns a copy of a buffer's contents.
func (d *Device) BufferData(id gpucore.BufferID) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("recorder: texture %q has size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	id, err := d.begin(OpCreateTexture)
	if err != nil {
		return 0, err
	}
	d.textures[gpucore.TextureID(id)] = *desc
	return gpucore.TextureID(id), nil
}

// CreateTextureView implements gpucore.Device.
func (d *Device) CreateTextureView(tex gpucore.TextureID) (gpucore.TextureViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[tex]; !ok {
		return 0, fmt.Errorf("%w: texture %d", ErrUnknownResource, tex)
	}
	id, err := d.begin(OpCreateTextureView)
	if err != nil {
		return 0, err
	}
	d.views[gpucore.TextureViewID(id)] = tex
	return gpucore.TextureViewID(id), nil
}

// DestroyTextureView implements gpucore.Device.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.views, id)
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.begin(OpCreateSampler)
	if err != nil {
		return 0, err
	}
	d.samplers[gpucore.SamplerID(id)] = *desc
	return gpucore.SamplerID(id), nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.samplers, id)
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pipelines[desc.Pipeline]
	if !ok {
		return 0, fmt.Errorf("%w: pipeline %d", ErrUnknownResource, desc.Pipeline)
	}
	if len(desc.Entries) != len(p.Bindings) {
		return 0, fmt.Errorf("recorder: bind group %q has %d entries, layout wants %d",
			desc.Label, len(desc.Entries), len(p.Bindings))
	}
	for _, e := range desc.Entries {
		if int(e.Binding) >= len(p.Bindings) {
			return 0, fmt.Errorf("recorder: binding %d out of range", e.Binding)
		}
		if err := d.checkEntry(p.Bindings[e.Binding], e); err != nil {
			return 0, err
		}
	}
	id, err := d.begin(OpCreateBindGroup)
	if err != nil {
		return 0, err
	}
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	d.bindGroups[gpucore.BindGroupID(id)] = cp
	return gpucore.BindGroupID(id), nil
}

func (d *Device) checkEntry(bt gpucore.BindingType, e gpucore.BindGroupEntry) error {
	switch bt {
	case gpucore.BindingUniform:
		if _, ok := d.buffers[e.Buffer]; !ok {
			return fmt.Errorf("%w: uniform buffer %d at binding %d", ErrUnknownResource, e.Buffer, e.Binding)
		}
	case gpucore.BindingTexture:
		if _, ok := d.views[e.TextureView]; !ok {
			return fmt.Errorf("%w: texture view %d at binding %d", ErrUnknownResource, e.TextureView, e.Binding)
		}
	case gpucore.BindingSampler:
		if _, ok := d.samplers[e.Sampler]; !ok {
			return fmt.Errorf("%w: sampler %d at binding %d", ErrUnknownResource, e.Sampler, e.Binding)
		}
	}
	return nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroups, id)
}

// Stats counts live resources.
type Stats struct {
	ShaderModules int
	Pipelines     int
	Buffers       int
	Textures      int
	TextureViews  int
	Samplers      int
	BindGroups    int
}

// Live returns the number of resources created and not yet destroyed.
func (d *Device) Live() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		ShaderModules: len(d.shaders),
		Pipelines:     len(d.pipelines),
		Buffers:       len(d.buffers),
		Textures:      len(d.textures),
		TextureViews:  len(d.views),
		Samplers:      len(d.samplers),
		BindGroups:    len(d.bindGroups),
	}
}

// Pipeline returns the descriptor a pipeline was created with.
func (d *Device) Pipeline(id gpucore.RenderPipelineID) (gpucore.RenderPipelineDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pipelines[id]
	return p, ok
}

// BindGroup returns the descriptor of a live bind group.
func (d *Device) BindGroup(id gpucore.BindGroupID) (gpucore.BindGroupDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bg, ok := d.bindGroups[id]
	return bg, ok
}

// textureOfView returns the texture behind a view, or 0.
func (d *Device) textureOfView(v gpucore.TextureViewID) gpucore.TextureID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.views[v]
}

// sampledTextures returns the textures bound for sampling by a bind group.
func (d *Device) sampledTextures(bg gpucore.BindGroupID) []gpucore.TextureID {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.bindGroups[bg]
	if !ok {
		return nil
	}
	var out []gpucore.TextureID
	for _, e := range desc.Entries {
		if e.TextureView == gpucore.InvalidID {
			continue
		}
		if tex, ok := d.views[e.TextureView]; ok {
			out = append(out, tex)
		}
	}
	return out
}
