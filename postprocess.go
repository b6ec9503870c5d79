package postfx

import (
	"fmt"
	"log/slog"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/postfx/atlas"
	"github.com/gogpu/postfx/effect"
	"github.com/gogpu/postfx/geometry"
	"github.com/gogpu/postfx/gpucore"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/pool"
)

// Composite describes how the final stage writes the destination.
type Composite struct {
	// Format is the destination format. Pipelines of the final stage are
	// built for it.
	Format gpucore.SurfaceFormat

	// Blend is how the final stage combines with the destination.
	Blend gpucore.BlendMode

	// Matrix transforms the quad of the final stage, row-major. The zero
	// matrix means identity.
	Matrix f32.Mat4

	// Alpha multiplies the output of the final stage. Zero means opaque;
	// set Transparent for a fully transparent output.
	Alpha       float32
	Transparent bool

	// Depth is the depth written by the final stage when DepthState is
	// enabled.
	Depth      float32
	DepthState gpucore.DepthState

	// DepthView is the depth attachment used with DepthState.
	DepthView gpucore.TextureViewID
}

// NewComposite returns an opaque, untransformed composite into format that
// replaces the destination.
func NewComposite(format gpucore.SurfaceFormat) Composite {
	return Composite{Format: format, Blend: gpucore.BlendNone, Matrix: effect.Identity, Alpha: 1}
}

// transforms reports whether the composite changes the image even without
// any effect.
func (c Composite) transforms() bool {
	return c.opacity() != 1 || !effect.IsIdentity(c.Matrix)
}

func (c Composite) opacity() float32 {
	switch {
	case c.Transparent:
		return 0
	case c.Alpha == 0:
		return 1
	}
	return c.Alpha
}

// Destination is where DrawFinal writes. Either Surface is set, or the
// destination is allocated from the pool with the given size and the
// composite's format.
type Destination struct {
	Surface gpucore.SurfaceDesc

	// Width and Height size a pool-allocated destination. Zero means the
	// size of the source.
	Width, Height int
}

// ToSurface returns a destination that writes into s.
func ToSurface(s gpucore.SurfaceDesc) Destination {
	return Destination{Surface: s}
}

// Allocated returns a destination allocated from the pool. It stays valid
// until Reset or the next Check.
func Allocated(width, height int) Destination {
	return Destination{Width: width, Height: height}
}

func (d Destination) allocated() bool {
	return d.Surface.Texture == gpucore.InvalidID
}

// Stats reports the work of the current frame and the caches.
type Stats struct {
	// Renders is the number of stage renders since Check.
	Renders int
	// Draws is the number of GPU draws since Check, internal passes of
	// multi-pass stages included.
	Draws          int
	Instances      int
	DroppedStripes int

	// Allocations and Live describe the pool since the last reset.
	Allocations int
	Live        int

	Pipelines pipeline.Stats
	Atlas     atlas.Stats
}

// PostProcess runs a chain of post-processing effects over a source
// surface.
//
// Each frame the caller mutates Effects, calls Check, records the chain
// with Draw (or DrawFront and DrawFinal), submits the encoder and calls
// Reset once the result is no longer needed.
//
// PostProcess is not safe for concurrent use.
type PostProcess struct {
	device    gpucore.Device
	atlas     *atlas.Atlas
	pipelines *pipeline.Manager
	geometry  *geometry.Provider
	targets   *pool.Pool
	renderer  *effect.Renderer
	log       *slog.Logger

	ownsAtlas     bool
	ownsPipelines bool

	effects Effects
	flags   Flags
	comp    Composite
	key     pipeline.Key
	checked bool
	renders int

	// front is the pool entry DrawFront returned, consumed by DrawFinal.
	front     pool.ID
	frontDesc gpucore.SurfaceDesc

	closed bool
}

// New creates a PostProcess that records into encoders of device.
func New(device gpucore.Device, opts ...Option) (*PostProcess, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkFormat("intermediate", o.intermediate); err != nil {
		return nil, err
	}

	p := &PostProcess{
		device: device,
		atlas:  o.atlas,
		log:    o.logger,
	}
	if p.log == nil {
		p.log = Logger()
	}
	if p.atlas == nil {
		p.atlas = atlas.New(device, o.atlasConfig)
		p.ownsAtlas = true
	}
	p.pipelines = o.pipelines
	if p.pipelines == nil {
		m, err := pipeline.NewManager(device)
		if err != nil {
			p.closeOwned()
			return nil, err
		}
		p.pipelines = m
		p.ownsPipelines = true
	}
	p.geometry = geometry.New(device)
	p.targets = pool.New(p.atlas)

	r, err := effect.NewRenderer(device, p.pipelines, p.geometry, p.targets, effect.Config{
		Intermediate:       o.intermediate,
		MaxGlitchInstances: o.maxGlitch,
		GlitchSeed:         o.glitchSeed,
	})
	if err != nil {
		p.closeOwned()
		return nil, fmt.Errorf("postfx: register materials: %w", err)
	}
	p.renderer = r
	return p, nil
}

// Effects returns the parameter blocks. Changes take effect at the next
// Check.
func (p *PostProcess) Effects() *Effects {
	return &p.effects
}

// Flags returns the stages selected by the last Check. The slice is reused
// by the next Check.
func (p *PostProcess) Flags() Flags {
	return p.flags
}

// Glitch returns the horizon glitch stripe generator.
func (p *PostProcess) Glitch() *effect.GlitchState {
	return p.renderer.Glitch()
}

// Check starts a frame. It releases the previous frame's surfaces and
// transient resources, selects the active stages, advances the glitch
// generator by dt milliseconds and builds every pipeline the chain will use.
//
// The previous frame's commands must have been submitted.
func (p *PostProcess) Check(dt float32, comp Composite) error {
	if p.closed {
		return ErrClosed
	}
	p.checked = false
	if err := checkFormat("composite", comp.Format); err != nil {
		return err
	}

	p.Reset()
	p.renderer.BeginFrame()
	p.renders = 0

	p.flags = p.effects.Active(p.flags[:0], comp.transforms())
	p.renderer.Advance(&p.effects, dt)

	p.comp = comp
	p.key = pipeline.NewKey(comp.Format, comp.Blend).WithDepth(comp.DepthState).Canonical()
	last := len(p.flags) - 1
	for i, k := range p.flags {
		key := p.renderer.InternalKey()
		if i == last {
			key = p.key
		}
		if err := p.renderer.Prepare(k, key); err != nil {
			return fmt.Errorf("postfx: prepare %v: %w", k, err)
		}
	}

	p.checked = true
	p.log.Debug("postfx: chain checked", "flags", p.flags.String(), "key", p.key.String())
	return nil
}

// DrawFront records every stage but the last. Each stage renders into a
// pool surface that does not share a texture with its input, and the input
// is released once the stage is recorded. It returns the input of the last
// stage, which is src itself when fewer than two stages are active.
//
// On error every surface allocated by the call is released and the zero
// SurfaceDesc is returned.
func (p *PostProcess) DrawFront(enc gpucore.CommandEncoder, src gpucore.SurfaceDesc) (gpucore.SurfaceDesc, error) {
	if err := p.ready(); err != nil {
		return gpucore.SurfaceDesc{}, err
	}
	p.dropFront()
	if len(p.flags) <= 1 {
		return src, nil
	}
	if !src.Valid() {
		return gpucore.SurfaceDesc{}, fmt.Errorf("%w: source %v", ErrInvalidSurface, src)
	}

	in := effect.Input{ID: p.targets.RecordExisting(src), Surface: src}
	for _, k := range p.flags[:len(p.flags)-1] {
		id, err := p.targets.Allocate(in.ID, src.Width, src.Height, p.renderer.Intermediate())
		if err != nil {
			p.targets.Release(in.ID)
			return gpucore.SurfaceDesc{}, fmt.Errorf("%w: %v output: %w", ErrInsufficientTargets, k, err)
		}
		dst := effect.Target{
			ID:      id,
			Surface: p.targets.MustGet(id),
			Key:     p.renderer.InternalKey(),
			Matrix:  effect.ColumnMajor(effect.Identity),
			Alpha:   1,
		}
		err = p.renderer.Render(enc, k, &p.effects, in, dst)
		p.targets.Release(in.ID)
		if err != nil {
			p.targets.Release(id)
			p.log.Warn("postfx: stage failed", "stage", k.String(), "err", err)
			return gpucore.SurfaceDesc{}, fmt.Errorf("postfx: %v: %w", k, err)
		}
		p.renders++
		in = effect.Input{ID: id, Surface: dst.Surface}
	}

	p.front, p.frontDesc = in.ID, in.Surface
	return in.Surface, nil
}

// DrawFinal records the last stage into dst with the composite of the last
// Check and returns the written surface. When no stage is active it records
// nothing and returns src.
//
// src is normally the result of DrawFront. A pool-allocated destination
// stays valid until Reset or the next Check. On error every surface
// allocated by the call is released and the zero SurfaceDesc is returned.
func (p *PostProcess) DrawFinal(enc gpucore.CommandEncoder, src gpucore.SurfaceDesc, dst Destination) (gpucore.SurfaceDesc, error) {
	if err := p.ready(); err != nil {
		return gpucore.SurfaceDesc{}, err
	}
	k, ok := p.flags.Last()
	if !ok {
		p.dropFront()
		return src, nil
	}
	if !src.Valid() {
		p.dropFront()
		return gpucore.SurfaceDesc{}, fmt.Errorf("%w: source %v", ErrInvalidSurface, src)
	}

	in := p.input(src)
	defer p.targets.Release(in.ID)

	var dstID pool.ID
	if dst.allocated() {
		w, h := dst.Width, dst.Height
		if w <= 0 || h <= 0 {
			w, h = src.Width, src.Height
		}
		id, err := p.targets.Allocate(in.ID, w, h, p.comp.Format)
		if err != nil {
			return gpucore.SurfaceDesc{}, fmt.Errorf("%w: destination: %w", ErrInsufficientTargets, err)
		}
		dstID = id
	} else {
		s := dst.Surface
		switch {
		case !s.Valid():
			return gpucore.SurfaceDesc{}, fmt.Errorf("%w: destination %v", ErrInvalidSurface, s)
		case s.Format != p.comp.Format:
			return gpucore.SurfaceDesc{}, fmt.Errorf("%w: %v, checked with %v", ErrFormatMismatch, s.Format, p.comp.Format)
		case s.Texture == src.Texture:
			return gpucore.SurfaceDesc{}, fmt.Errorf("%w: texture %d", ErrAliasedDestination, s.Texture)
		}
		dstID = p.targets.RecordExisting(s)
	}

	target := effect.Target{
		ID:        dstID,
		Surface:   p.targets.MustGet(dstID),
		Key:       p.key,
		Matrix:    effect.ColumnMajor(p.comp.Matrix),
		Alpha:     p.comp.opacity(),
		Depth:     p.comp.Depth,
		DepthView: p.comp.DepthView,
	}
	if err := p.renderer.Render(enc, k, &p.effects, in, target); err != nil {
		p.targets.Release(dstID)
		p.log.Warn("postfx: stage failed", "stage", k.String(), "err", err)
		return gpucore.SurfaceDesc{}, fmt.Errorf("postfx: %v: %w", k, err)
	}
	p.renders++
	if !p.targets.Owned(dstID) {
		p.targets.Release(dstID)
	}
	return target.Surface, nil
}

// Draw records the whole chain from src into dst.
func (p *PostProcess) Draw(enc gpucore.CommandEncoder, src gpucore.SurfaceDesc, dst Destination) (gpucore.SurfaceDesc, error) {
	mid, err := p.DrawFront(enc, src)
	if err != nil {
		return gpucore.SurfaceDesc{}, err
	}
	return p.DrawFinal(enc, mid, dst)
}

// input returns the pool entry to read src from: the surface DrawFront
// returned when src is that surface, a borrowed entry otherwise.
func (p *PostProcess) input(src gpucore.SurfaceDesc) effect.Input {
	if p.front != pool.NoID && src == p.frontDesc {
		in := effect.Input{ID: p.front, Surface: src}
		p.front = pool.NoID
		return in
	}
	p.dropFront()
	return effect.Input{ID: p.targets.RecordExisting(src), Surface: src}
}

// dropFront releases a DrawFront result that DrawFinal did not consume.
func (p *PostProcess) dropFront() {
	if p.front != pool.NoID {
		p.targets.Release(p.front)
		p.front = pool.NoID
	}
}

func (p *PostProcess) ready() error {
	switch {
	case p.closed:
		return ErrClosed
	case !p.checked:
		return ErrNotChecked
	}
	return nil
}

// Reset releases every surface of the frame, including a pool-allocated
// destination returned by DrawFinal.
func (p *PostProcess) Reset() {
	p.front = pool.NoID
	p.targets.Reset()
}

// Stats returns the counters of the current frame and the caches.
func (p *PostProcess) Stats() Stats {
	rs := p.renderer.Stats()
	return Stats{
		Renders:        p.renders,
		Draws:          rs.Draws,
		Instances:      rs.Instances,
		DroppedStripes: rs.DroppedStripes,
		Allocations:    p.targets.Allocations(),
		Live:           p.targets.Live(),
		Pipelines:      p.pipelines.Stats(),
		Atlas:          p.atlas.Stats(),
	}
}

// Close releases every GPU resource the PostProcess created. A shared
// atlas or pipeline manager is left alone. Close is idempotent.
func (p *PostProcess) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.checked = false
	p.Reset()
	p.renderer.Close()
	p.closeOwned()
}

func (p *PostProcess) closeOwned() {
	if p.geometry != nil {
		p.geometry.Close()
	}
	if p.ownsPipelines && p.pipelines != nil {
		p.pipelines.DestroyAll()
	}
	if p.ownsAtlas && p.atlas != nil {
		p.atlas.Close()
	}
}
