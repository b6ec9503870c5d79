package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/postfx/gpucore"
)

// Manager errors.
var (
	// ErrNilDevice is returned when a manager is created without a device.
	ErrNilDevice = errors.New("pipeline: device is nil")

	// ErrUnknownMaterial is returned for a material name that was never
	// registered.
	ErrUnknownMaterial = errors.New("pipeline: unknown material")

	// ErrMaterialConflict is returned when a name is registered twice with a
	// different description.
	ErrMaterialConflict = errors.New("pipeline: material registered with different source")

	// ErrInvalidKey is returned for keys whose format cannot be rendered to.
	ErrInvalidKey = errors.New("pipeline: invalid key")

	// ErrClosed is returned after DestroyAll.
	ErrClosed = errors.New("pipeline: manager destroyed")
)

// MaterialDesc describes a shader program and the resources it binds.
// The same material is compiled into one pipeline per Key.
type MaterialDesc struct {
	Name          string
	WGSL          string
	VertexEntry   string
	FragmentEntry string
	Vertex        []gpucore.VertexLayout
	Bindings      []gpucore.BindingType
}

func (d *MaterialDesc) equal(o *MaterialDesc) bool {
	if d.Name != o.Name || d.WGSL != o.WGSL ||
		d.VertexEntry != o.VertexEntry || d.FragmentEntry != o.FragmentEntry ||
		len(d.Vertex) != len(o.Vertex) || len(d.Bindings) != len(o.Bindings) {
		return false
	}
	for i := range d.Bindings {
		if d.Bindings[i] != o.Bindings[i] {
			return false
		}
	}
	for i := range d.Vertex {
		a, b := d.Vertex[i], o.Vertex[i]
		if a.Stride != b.Stride || a.Instance != b.Instance || len(a.Attributes) != len(b.Attributes) {
			return false
		}
		for j := range a.Attributes {
			if a.Attributes[j] != b.Attributes[j] {
				return false
			}
		}
	}
	return true
}

type material struct {
	desc      MaterialDesc
	module    gpucore.ShaderModuleID
	pipelines map[Key]gpucore.RenderPipelineID
}

// Stats reports cache activity.
type Stats struct {
	Materials int
	Pipelines int
	Samplers  int
	Hits      uint64
	Misses    uint64
}

// HitRate returns the fraction of CheckPipeline calls served from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Manager compiles materials into pipelines on demand and caches them for
// the lifetime of the device.
//
// Pipelines are created by CheckPipeline, which may fail, and looked up by
// Pipeline, which may not. Callers check every key they will draw with
// before recording any pass.
//
// Manager is safe for concurrent use. It uses RWMutex with double-check
// locking so that lookups of existing pipelines only take the read lock.
type Manager struct {
	mu        sync.RWMutex
	device    gpucore.Device
	materials map[string]*material
	samplers  map[gpucore.SamplerDesc]gpucore.SamplerID
	closed    bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewManager creates an empty manager for device.
func NewManager(device gpucore.Device) (*Manager, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &Manager{
		device:    device,
		materials: make(map[string]*material),
		samplers:  make(map[gpucore.SamplerDesc]gpucore.SamplerID),
	}, nil
}

// Register adds a material. Registering the same description again is a
// no-op. No GPU work happens until the first CheckPipeline.
func (m *Manager) Register(desc MaterialDesc) error {
	if desc.Name == "" || desc.WGSL == "" {
		return fmt.Errorf("pipeline: material %q: name and source are required", desc.Name)
	}
	if desc.VertexEntry == "" {
		desc.VertexEntry = "vs_main"
	}
	if desc.FragmentEntry == "" {
		desc.FragmentEntry = "fs_main"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if existing, ok := m.materials[desc.Name]; ok {
		if existing.desc.equal(&desc) {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrMaterialConflict, desc.Name)
	}
	m.materials[desc.Name] = &material{
		desc:      desc,
		pipelines: make(map[Key]gpucore.RenderPipelineID),
	}
	return nil
}

// Registered reports whether name was registered.
func (m *Manager) Registered(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.materials[name]
	return ok
}

// CheckPipeline ensures the pipeline for (name, key) exists, compiling the
// material's shader module and the pipeline if needed. It is idempotent.
func (m *Manager) CheckPipeline(name string, key Key) error {
	key = key.Canonical()

	// Fast path: read lock
	m.mu.RLock()
	if mat, ok := m.materials[name]; ok {
		if _, ok := mat.pipelines[key]; ok {
			m.mu.RUnlock()
			m.hits.Add(1)
			return nil
		}
	}
	m.mu.RUnlock()

	// Slow path: write lock with double-check
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	mat, ok := m.materials[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}
	if _, ok := mat.pipelines[key]; ok {
		m.hits.Add(1)
		return nil
	}
	if !key.Format.Valid() {
		return fmt.Errorf("%w: %s format %v", ErrInvalidKey, name, key.Format)
	}

	if mat.module == gpucore.InvalidID {
		mod, err := m.device.CreateShaderModule(&gpucore.ShaderModuleDesc{
			Label: name,
			WGSL:  mat.desc.WGSL,
		})
		if err != nil {
			return fmt.Errorf("pipeline: compile %s: %w", name, err)
		}
		mat.module = mod
	}

	id, err := m.device.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label:         fmt.Sprintf("%s/%s", name, key),
		Module:        mat.module,
		VertexEntry:   mat.desc.VertexEntry,
		FragmentEntry: mat.desc.FragmentEntry,
		Vertex:        mat.desc.Vertex,
		Bindings:      mat.desc.Bindings,
		Format:        key.Format,
		Blend:         key.Blend,
		WriteMask:     key.WriteMask,
		Topology:      key.Topology,
		Depth:         key.Depth,
	})
	if err != nil {
		return fmt.Errorf("pipeline: create %s/%s: %w", name, key, err)
	}
	mat.pipelines[key] = id
	m.misses.Add(1)

	slogger().Debug("pipeline: created",
		"material", name,
		"format", key.Format.String(),
		"key", key.Packed(),
	)
	return nil
}

// Pipeline returns the pipeline for (name, key). It panics if CheckPipeline
// has not succeeded for the pair; that is a programming error in the caller.
func (m *Manager) Pipeline(name string, key Key) gpucore.RenderPipelineID {
	key = key.Canonical()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if mat, ok := m.materials[name]; ok {
		if id, ok := mat.pipelines[key]; ok {
			return id
		}
	}
	panic(fmt.Sprintf("pipeline: %s/%s used before CheckPipeline", name, key))
}

// Has reports whether the pipeline for (name, key) exists.
func (m *Manager) Has(name string, key Key) bool {
	key = key.Canonical()

	m.mu.RLock()
	defer m.mu.RUnlock()
	mat, ok := m.materials[name]
	if !ok {
		return false
	}
	_, ok = mat.pipelines[key]
	return ok
}

// Bindings returns the binding layout of a registered material.
func (m *Manager) Bindings(name string) ([]gpucore.BindingType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mat, ok := m.materials[name]
	if !ok {
		return nil, false
	}
	return mat.desc.Bindings, true
}

// Sampler returns a shared sampler for desc, creating it on first use.
func (m *Manager) Sampler(desc gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	m.mu.RLock()
	id, ok := m.samplers[desc]
	m.mu.RUnlock()
	if ok {
		return id, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return gpucore.InvalidID, ErrClosed
	}
	if id, ok := m.samplers[desc]; ok {
		return id, nil
	}
	id, err := m.device.CreateSampler(&desc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("pipeline: create sampler: %w", err)
	}
	m.samplers[desc] = id
	return id, nil
}

// Stats returns cache statistics. Counters are read atomically and may not
// be perfectly synchronized with the sizes.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	s := Stats{
		Materials: len(m.materials),
		Samplers:  len(m.samplers),
	}
	for _, mat := range m.materials {
		s.Pipelines += len(mat.pipelines)
	}
	m.mu.RUnlock()
	s.Hits = m.hits.Load()
	s.Misses = m.misses.Load()
	return s
}

// DestroyAll releases every pipeline, shader module and sampler. The
// manager cannot be used afterwards.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, mat := range m.materials {
		for _, id := range mat.pipelines {
			m.device.DestroyRenderPipeline(id)
		}
		if mat.module != gpucore.InvalidID {
			m.device.DestroyShaderModule(mat.module)
		}
	}
	for _, id := range m.samplers {
		m.device.DestroySampler(id)
	}
	clear(m.materials)
	clear(m.samplers)
}
