package effect

import (
	"errors"
	"fmt"

	"github.com/gogpu/postfx/geometry"
	"github.com/gogpu/postfx/gpucore"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/pool"
)

// Renderer errors.
var (
	// ErrInsufficientTargets is returned when a multi-pass stage cannot
	// obtain the distinct intermediate surfaces it needs, either because
	// the source is too small to halve or because the pool is exhausted.
	ErrInsufficientTargets = errors.New("effect: insufficient render targets")

	// ErrStageDisabled is returned when a stage is rendered whose parameters
	// were removed or disabled after the chain was checked.
	ErrStageDisabled = errors.New("effect: stage is not enabled")
)

// MinLevelSize is the exclusive lower bound of a dual-filter level: halving
// stops before either dimension would reach it.
const MinLevelSize = 4

// DefaultMaxGlitchInstances bounds the glitch instance count, base instance
// included.
const DefaultMaxGlitchInstances = 64

// DualLevels returns the sizes of the down-sample chain for a w×h source.
// Each level halves the previous one; the chain ends after iteration levels
// or before a dimension would drop to MinLevelSize or below.
func DualLevels(w, h, iteration int) [][2]int {
	var levels [][2]int
	for range iteration {
		w, h = w/2, h/2
		if w <= MinLevelSize || h <= MinLevelSize {
			break
		}
		levels = append(levels, [2]int{w, h})
	}
	return levels
}

// Input is a surface a stage samples, with its pool ID for exclusion.
type Input struct {
	ID      pool.ID
	Surface gpucore.SurfaceDesc
}

// Target is the surface a stage writes and the state it writes with.
type Target struct {
	ID      pool.ID
	Surface gpucore.SurfaceDesc
	Key     pipeline.Key
	Matrix  [16]float32 // column-major
	Alpha   float32
	Depth   float32

	// DepthView is the depth attachment, or InvalidID.
	DepthView gpucore.TextureViewID
}

// Config configures a Renderer.
type Config struct {
	// Intermediate is the format of internal levels. Defaults to RGBA8Unorm.
	Intermediate gpucore.SurfaceFormat

	// MaxGlitchInstances caps the glitch draw. Defaults to
	// DefaultMaxGlitchInstances.
	MaxGlitchInstances int

	// GlitchSeed seeds the stripe generator.
	GlitchSeed uint64
}

// Stats counts the work recorded since the last BeginFrame.
type Stats struct {
	Draws          int
	Instances      int
	DroppedStripes int
}

// Renderer draws effect stages. It is stateless apart from the glitch
// generator and the per-frame arena.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	device    gpucore.Device
	pipelines *pipeline.Manager
	geometry  *geometry.Provider
	targets   *pool.Pool
	cfg       Config

	glitch *GlitchState
	layout StripeLayout
	arena  frameArena
	stats  Stats
}

// NewRenderer registers every material with pipelines and returns a
// renderer that allocates internal levels from targets.
func NewRenderer(
	device gpucore.Device,
	pipelines *pipeline.Manager,
	geo *geometry.Provider,
	targets *pool.Pool,
	cfg Config,
) (*Renderer, error) {
	if cfg.Intermediate == gpucore.FormatUndefined {
		cfg.Intermediate = gpucore.FormatRGBA8Unorm
	}
	if cfg.MaxGlitchInstances <= 0 {
		cfg.MaxGlitchInstances = DefaultMaxGlitchInstances
	}
	for _, m := range Materials() {
		if err := pipelines.Register(m); err != nil {
			return nil, err
		}
	}
	return &Renderer{
		device:    device,
		pipelines: pipelines,
		geometry:  geo,
		targets:   targets,
		cfg:       cfg,
		glitch:    NewGlitchState(cfg.GlitchSeed),
		arena:     frameArena{device: device},
	}, nil
}

// Intermediate returns the format of internal surfaces.
func (r *Renderer) Intermediate() gpucore.SurfaceFormat {
	return r.cfg.Intermediate
}

// InternalKey is the key of passes into intermediate surfaces.
func (r *Renderer) InternalKey() pipeline.Key {
	return pipeline.NewKey(r.cfg.Intermediate, gpucore.BlendNone)
}

// Prepare builds every pipeline a stage of kind k needs when its output is
// written with key, plus the shared sampler and quad.
func (r *Renderer) Prepare(k Kind, key pipeline.Key) error {
	final, internal := k.Materials()
	if err := r.pipelines.CheckPipeline(final, key); err != nil {
		return err
	}
	for _, m := range internal {
		if err := r.pipelines.CheckPipeline(m, r.InternalKey()); err != nil {
			return err
		}
	}
	if _, err := r.sampler(); err != nil {
		return err
	}
	_, _, err := r.geometry.Quad()
	return err
}

// BeginFrame retires the previous frame's transient resources. The caller
// must have submitted the previous frame's commands.
func (r *Renderer) BeginFrame() {
	r.arena.retire()
	r.stats = Stats{}
}

// Advance steps the glitch generator by dt milliseconds when the glitch
// stage is enabled.
func (r *Renderer) Advance(set *Set, dt float32) {
	if !set.Enabled(HorizonGlitchKind) {
		return
	}
	r.layout = r.glitch.Advance(set.HorizonGlitch, dt)
}

// Glitch returns the stripe generator.
func (r *Renderer) Glitch() *GlitchState {
	return r.glitch
}

// Stats returns the counters of the current frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Close destroys the arena's resources. Pipelines and geometry belong to
// their own owners.
func (r *Renderer) Close() {
	r.arena.close()
}

// Render records stage k reading src and writing dst. Multi-pass stages
// allocate their levels from the pool and release them before returning,
// also on error.
func (r *Renderer) Render(enc gpucore.CommandEncoder, k Kind, set *Set, src Input, dst Target) error {
	if k != FinalCopy && !set.Enabled(k) {
		return fmt.Errorf("%w: %v", ErrStageDisabled, k)
	}
	w, h := dst.Surface.Width, dst.Surface.Height

	switch k {
	case ColorEffect:
		return r.draw(enc, MaterialColor, src.Surface, nil, dst, packColor(set, w, h), nil)
	case BlurDirectKind:
		return r.draw(enc, MaterialBlurDirect, src.Surface, nil, dst, packBlurDirect(set.BlurDirect, w, h), nil)
	case BlurDualKind:
		return r.blurDual(enc, set.BlurDual, src, dst)
	case BlurRadialKind:
		return r.draw(enc, MaterialBlurRadial, src.Surface, nil, dst, packBlurRadial(set.BlurRadial, w, h), nil)
	case BlurBokehKind:
		return r.draw(enc, MaterialBlurBokeh, src.Surface, nil, dst, packBlurBokeh(set.BlurBokeh, w, h), nil)
	case BloomDualKind:
		return r.bloom(enc, set.BloomDual, src, dst)
	case RadialWaveKind:
		return r.draw(enc, MaterialRadialWave, src.Surface, nil, dst, packRadialWave(set.RadialWave, w, h), nil)
	case HorizonGlitchKind:
		inst, dropped := r.layout.Instances(r.cfg.MaxGlitchInstances)
		if dropped > 0 {
			r.stats.DroppedStripes += dropped
			slogger().Warn("effect: glitch stripes dropped", "dropped", dropped, "max", r.cfg.MaxGlitchInstances)
		}
		return r.draw(enc, MaterialHorizonGlitch, src.Surface, nil, dst, packHorizonGlitch(set.HorizonGlitch), inst)
	case FilterSobelKind:
		return r.draw(enc, MaterialFilterSobel, src.Surface, nil, dst, packFilterSobel(set.FilterSobel, w, h), nil)
	case CopyIntensityKind:
		return r.draw(enc, MaterialCopyIntensity, src.Surface, nil, dst, packCopyIntensity(set.CopyIntensity, w, h), nil)
	default:
		return r.draw(enc, MaterialCopy, src.Surface, nil, dst, Block{}, nil)
	}
}

func (r *Renderer) blurDual(enc gpucore.CommandEncoder, p *BlurDual, src Input, dst Target) error {
	levels := DualLevels(src.Surface.Width, src.Surface.Height, p.Iteration)
	if len(levels) == 0 {
		return fmt.Errorf("%w: %dx%d source cannot be halved above %d texels",
			ErrInsufficientTargets, src.Surface.Width, src.Surface.Height, MinLevelSize)
	}

	ids, err := r.downChain(enc, p.Radius, src, dst.ID, levels)
	defer r.release(ids)
	if err != nil {
		return err
	}

	intensity := p.Intensity
	if intensity == 0 {
		intensity = 1
	}
	return r.upChain(enc, p.Radius, intensity, p.SimplifiedUp, ids, dst)
}

func (r *Renderer) bloom(enc gpucore.CommandEncoder, p *BloomDual, src Input, dst Target) error {
	w, h := src.Surface.Width/2, src.Surface.Height/2
	if w <= MinLevelSize || h <= MinLevelSize {
		return fmt.Errorf("%w: %dx%d source too small for bloom",
			ErrInsufficientTargets, src.Surface.Width, src.Surface.Height)
	}

	bright, err := r.targets.AllocateExcluding([]pool.ID{src.ID, dst.ID}, w, h, r.cfg.Intermediate)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientTargets, err)
	}
	defer r.targets.Release(bright)

	if err := r.draw(enc, MaterialBloomFilter, src.Surface, nil, r.level(bright), packBloomFilter(p), nil); err != nil {
		return err
	}

	brightIn := Input{ID: bright, Surface: r.targets.MustGet(bright)}
	ids, err := r.downChain(enc, p.Radius, brightIn, dst.ID, DualLevels(w, h, p.Iteration))
	defer r.release(ids)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if err := r.upChain(enc, p.Radius, 1, false, ids, r.level(bright)); err != nil {
			return err
		}
	}

	bs := r.targets.MustGet(bright)
	return r.draw(enc, MaterialBloomCombine, src.Surface, []gpucore.SurfaceDesc{bs}, dst, packBloomCombine(p, bs), nil)
}

// downChain renders src into successively smaller levels. Each level avoids
// the backing of its predecessor and of avoid. The returned IDs must be
// released by the caller, also when an error is returned.
func (r *Renderer) downChain(enc gpucore.CommandEncoder, radius int, src Input, avoid pool.ID, levels [][2]int) ([]pool.ID, error) {
	ids := make([]pool.ID, 0, len(levels))
	prev := src
	for _, lv := range levels {
		id, err := r.targets.AllocateExcluding([]pool.ID{prev.ID, avoid}, lv[0], lv[1], r.cfg.Intermediate)
		if err != nil {
			return ids, fmt.Errorf("%w: level %dx%d: %w", ErrInsufficientTargets, lv[0], lv[1], err)
		}
		ids = append(ids, id)

		block := packDual(radius, 1, prev.Surface.Width, prev.Surface.Height)
		if err := r.draw(enc, MaterialBlurDualDown, prev.Surface, nil, r.level(id), block, nil); err != nil {
			return ids, err
		}
		prev = Input{ID: id, Surface: r.targets.MustGet(id)}
	}
	return ids, nil
}

// upChain renders the levels back up, smallest first, and writes the
// largest into dst with intensity. With simplified set the smallest level
// is written into dst directly. ids must not be empty.
func (r *Renderer) upChain(enc gpucore.CommandEncoder, radius int, intensity float32, simplified bool, ids []pool.ID, dst Target) error {
	last := len(ids) - 1
	if !simplified {
		for i := last; i > 0; i-- {
			from := r.targets.MustGet(ids[i])
			block := packDual(radius, 1, from.Width, from.Height)
			if err := r.draw(enc, MaterialBlurDualUp, from, nil, r.level(ids[i-1]), block, nil); err != nil {
				return err
			}
		}
		last = 0
	}
	from := r.targets.MustGet(ids[last])
	return r.draw(enc, MaterialBlurDualUp, from, nil, dst, packDual(radius, intensity, from.Width, from.Height), nil)
}

func (r *Renderer) release(ids []pool.ID) {
	for _, id := range ids {
		r.targets.Release(id)
	}
}

// level returns the target of an internal pass into a pool surface.
func (r *Renderer) level(id pool.ID) Target {
	return Target{
		ID:      id,
		Surface: r.targets.MustGet(id),
		Key:     r.InternalKey(),
		Matrix:  ColumnMajor(Identity),
		Alpha:   1,
	}
}

func (r *Renderer) sampler() (gpucore.SamplerID, error) {
	return r.pipelines.Sampler(gpucore.SamplerDesc{
		Filter:  gpucore.FilterLinear,
		Address: gpucore.AddressClampToEdge,
	})
}

// draw records one pass with one draw of the quad. extra surfaces are bound
// as textures from binding 3 on.
func (r *Renderer) draw(
	enc gpucore.CommandEncoder,
	material string,
	src gpucore.SurfaceDesc,
	extra []gpucore.SurfaceDesc,
	dst Target,
	block Block,
	instances [][4]float32,
) error {
	pipe := r.pipelines.Pipeline(material, dst.Key)

	sampler, err := r.sampler()
	if err != nil {
		return err
	}
	u := NewUniforms(src, dst.Matrix, dst.Alpha, dst.Depth)
	u.Effect = block
	ubo, err := r.arena.uniform(u.Bytes())
	if err != nil {
		return err
	}

	entries := []gpucore.BindGroupEntry{
		{Binding: 0, Buffer: ubo, Size: UniformSize},
		{Binding: 1, Sampler: sampler},
		{Binding: 2, TextureView: src.View},
	}
	for i, s := range extra {
		entries = append(entries, gpucore.BindGroupEntry{Binding: uint32(3 + i), TextureView: s.View})
	}
	group, err := r.arena.bindGroup(&gpucore.BindGroupDesc{Label: material, Pipeline: pipe, Entries: entries})
	if err != nil {
		return err
	}

	vb, ib, err := r.geometry.Quad()
	if err != nil {
		return err
	}
	count := uint32(1)
	var ivb gpucore.BufferID
	if len(instances) > 0 {
		if ivb, err = r.geometry.Instances(instances); err != nil {
			return err
		}
		count = uint32(len(instances))
	}

	d := dst.Surface
	pass := enc.BeginRenderPass(&gpucore.RenderPassDesc{
		Label:       material,
		Target:      d.View,
		Load:        gpucore.LoadKeep,
		DepthTarget: dst.DepthView,
	})
	pass.SetViewport(float32(d.X), float32(d.Y), float32(d.Width), float32(d.Height), 0, 1)
	pass.SetScissorRect(uint32(d.X), uint32(d.Y), uint32(d.Width), uint32(d.Height))
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, group)
	pass.SetVertexBuffer(0, vb, 0)
	if ivb != gpucore.InvalidID {
		pass.SetVertexBuffer(1, ivb, 0)
	}
	pass.SetIndexBuffer(ib, 0)
	pass.DrawIndexed(geometry.QuadIndexCount, count)
	pass.End()

	r.stats.Draws++
	r.stats.Instances += int(count)
	return nil
}
