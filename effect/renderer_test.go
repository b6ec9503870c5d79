// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package effect

import (
	"errors"
	"testing"

	"github.com/gogpu/postfx/atlas"
	"github.com/gogpu/postfx/backend/recorder"
	"github.com/gogpu/postfx/geometry"
	"github.com/gogpu/postfx/gpucore"
	"github.com/gogpu/postfx/pipeline"
	"github.com/gogpu/postfx/pool"
)

type fixture struct {
	dev      *recorder.Device
	atlas    *atlas.Atlas
	pool     *pool.Pool
	renderer *Renderer
}

func newFixture(t *testing.T, cfg atlas.Config) *fixture {
	t.Helper()
	dev := recorder.New()
	a := atlas.New(dev, cfg)
	mgr, err := pipeline.NewManager(dev)
	if err != nil {
		t.Fatal(err)
	}
	geo := geometry.New(dev)
	p := pool.New(a)
	r, err := NewRenderer(dev, mgr, geo, p, Config{GlitchSeed: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		r.Close()
		geo.Close()
		mgr.DestroyAll()
		a.Close()
	})
	return &fixture{dev: dev, atlas: a, pool: p, renderer: r}
}

// surface creates a caller-owned texture and records it in the pool.
func (f *fixture) surface(t *testing.T, w, h int, format gpucore.SurfaceFormat) Input {
	t.Helper()
	tex, err := f.dev.CreateTexture(&gpucore.TextureDesc{Width: w, Height: h, Format: format})
	if err != nil {
		t.Fatal(err)
	}
	view, err := f.dev.CreateTextureView(tex)
	if err != nil {
		t.Fatal(err)
	}
	s := gpucore.NewSurfaceDesc(tex, view, w, h, format)
	return Input{ID: f.pool.RecordExisting(s), Surface: s}
}

func (f *fixture) target(t *testing.T, w, h int, mode gpucore.BlendMode) Target {
	t.Helper()
	in := f.surface(t, w, h, gpucore.FormatBGRA8Unorm)
	key := pipeline.NewKey(gpucore.FormatBGRA8Unorm, mode)
	return Target{ID: in.ID, Surface: in.Surface, Key: key, Matrix: ColumnMajor(Identity), Alpha: 1}
}

func (f *fixture) render(t *testing.T, k Kind, set *Set, src Input, dst Target) (*recorder.Encoder, error) {
	t.Helper()
	if err := f.renderer.Prepare(k, dst.Key); err != nil {
		t.Fatal(err)
	}
	enc := f.dev.NewEncoder()
	return enc, f.renderer.Render(enc, k, set, src, dst)
}

func TestRenderSingleDrawStages(t *testing.T) {
	set := &Set{
		HSB:           &HSB{Hue: 30},
		BlurDirect:    &BlurDirect{Radius: 4, Iteration: 2, Direction: [2]float32{1, 0}},
		BlurRadial:    &BlurRadial{Radius: 8, Iteration: 4, Center: [2]float32{0.5, 0.5}},
		BlurBokeh:     &BlurBokeh{Radius: 6, Iteration: 16},
		RadialWave:    &RadialWave{Cycle: 2, End: 1, Weight: 0.05},
		FilterSobel:   &FilterSobel{Size: 1},
		CopyIntensity: &CopyIntensity{Intensity: 1},
	}
	kinds := []Kind{ColorEffect, BlurDirectKind, BlurRadialKind, BlurBokehKind, RadialWaveKind, FilterSobelKind, CopyIntensityKind, FinalCopy}

	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			f := newFixture(t, atlas.Config{})
			src := f.surface(t, 320, 240, gpucore.FormatBGRA8Unorm)
			dst := f.target(t, 320, 240, gpucore.BlendAlpha)

			enc, err := f.render(t, k, set, src, dst)
			if err != nil {
				t.Fatal(err)
			}
			if enc.Draws() != 1 {
				t.Errorf("draws = %d, want 1", enc.Draws())
			}
			if enc.Hazards() != 0 {
				t.Errorf("hazards = %d, want 0", enc.Hazards())
			}
			p := enc.Passes()[0]
			if p.Target != dst.Surface.View || !p.Ended || p.Load != gpucore.LoadKeep {
				t.Errorf("pass = %+v", p)
			}
			if p.Viewport != [6]float32{0, 0, 320, 240, 0, 1} {
				t.Errorf("viewport = %v", p.Viewport)
			}
			if f.pool.Allocations() != 0 {
				t.Errorf("single-pass stage allocated %d surfaces", f.pool.Allocations())
			}
		})
	}
}

func TestRenderDualBlurScenario(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 1024, 768, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 1024, 768, gpucore.BlendAlpha)
	set := &Set{BlurDual: &BlurDual{Radius: 1, Iteration: 3, Intensity: 1}}

	enc, err := f.render(t, BlurDualKind, set, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n := f.pool.Allocations(); n != 3 {
		t.Errorf("allocations = %d, want 3", n)
	}
	if n := f.pool.Live(); n != 0 {
		t.Errorf("live surfaces after render = %d, want 0", n)
	}

	passes := enc.Passes()
	if len(passes) != 6 {
		t.Fatalf("passes = %d, want 3 down + 3 up", len(passes))
	}
	wantViewports := [][2]float32{{512, 384}, {256, 192}, {128, 96}, {256, 192}, {512, 384}, {1024, 768}}
	for i, p := range passes {
		if got := [2]float32{p.Viewport[2], p.Viewport[3]}; got != wantViewports[i] {
			t.Errorf("pass %d (%s) viewport = %v, want %v", i, p.Label, got, wantViewports[i])
		}
	}
	if passes[5].Target != dst.Surface.View {
		t.Error("last up pass does not write the destination")
	}
	if enc.Hazards() != 0 {
		t.Errorf("hazards = %d, want 0", enc.Hazards())
	}
}

func TestRenderDualBlurSimplified(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 1024, 768, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 1024, 768, gpucore.BlendNone)
	set := &Set{BlurDual: &BlurDual{Radius: 2, Iteration: 3, SimplifiedUp: true}}

	enc, err := f.render(t, BlurDualKind, set, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Draws() != 4 {
		t.Errorf("draws = %d, want 3 down + 1 composite", enc.Draws())
	}
	if f.pool.Live() != 0 {
		t.Errorf("live = %d, want 0", f.pool.Live())
	}
}

func TestRenderDualBlurTooSmall(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 8, 8, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 8, 8, gpucore.BlendNone)
	set := &Set{BlurDual: &BlurDual{Radius: 1, Iteration: 3}}

	enc, err := f.render(t, BlurDualKind, set, src, dst)
	if !errors.Is(err, ErrInsufficientTargets) {
		t.Fatalf("err = %v, want ErrInsufficientTargets", err)
	}
	if enc.Draws() != 0 || f.pool.Live() != 0 {
		t.Errorf("draws = %d, live = %d; want 0, 0", enc.Draws(), f.pool.Live())
	}
}

func TestRenderDualBlurReleasesOnAllocationFailure(t *testing.T) {
	// Consecutive levels need distinct pages; a single page leaves the
	// second level without one.
	f := newFixture(t, atlas.Config{PageSize: 512, MaxPages: 1})
	src := f.surface(t, 1024, 768, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 1024, 768, gpucore.BlendNone)
	set := &Set{BlurDual: &BlurDual{Radius: 1, Iteration: 3}}

	_, err := f.render(t, BlurDualKind, set, src, dst)
	if !errors.Is(err, ErrInsufficientTargets) || !errors.Is(err, atlas.ErrAtlasFull) {
		t.Fatalf("err = %v, want ErrInsufficientTargets wrapping ErrAtlasFull", err)
	}
	if f.pool.Live() != 0 {
		t.Errorf("live = %d after failure, want 0", f.pool.Live())
	}
	if st := f.atlas.Stats(); st.Live != 0 {
		t.Errorf("atlas live slots = %d, want 0", st.Live)
	}
}

func TestRenderBloom(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 800, 600, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 800, 600, gpucore.BlendAlpha)
	set := &Set{BloomDual: &BloomDual{Radius: 1, Iteration: 2, Intensity: 0.8, Threshold: 0.7, ThresholdKnee: 0.1}}

	enc, err := f.render(t, BloomDualKind, set, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	// filter + 2 down + 2 up + combine
	if enc.Draws() != 6 {
		t.Errorf("draws = %d, want 6", enc.Draws())
	}
	if f.pool.Allocations() != 3 || f.pool.Live() != 0 {
		t.Errorf("allocations = %d, live = %d; want 3, 0", f.pool.Allocations(), f.pool.Live())
	}
	if enc.Hazards() != 0 {
		t.Errorf("hazards = %d, want 0", enc.Hazards())
	}
	last := enc.Passes()[len(enc.Passes())-1]
	if last.Label != MaterialBloomCombine || last.Target != dst.Surface.View {
		t.Errorf("last pass = %s into %d", last.Label, last.Target)
	}
}

func TestRenderGlitchInstances(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 256, 256, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 256, 256, gpucore.BlendNone)
	set := &Set{HorizonGlitch: &HorizonGlitch{
		Probability: 1, MinCount: 3, MaxCount: 3, MinSize: 0.05, MaxSize: 0.1, Strength: 0.1,
	}}
	f.renderer.Advance(set, 16)

	enc, err := f.render(t, HorizonGlitchKind, set, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	draws := enc.Passes()[0].Draws
	if len(draws) != 1 || draws[0].InstanceCount != 4 {
		t.Errorf("draws = %+v, want one draw of 4 instances", draws)
	}
}

func TestRenderGlitchCap(t *testing.T) {
	dev := recorder.New()
	a := atlas.New(dev, atlas.Config{})
	defer a.Close()
	mgr, _ := pipeline.NewManager(dev)
	defer mgr.DestroyAll()
	geo := geometry.New(dev)
	defer geo.Close()
	r, err := NewRenderer(dev, mgr, geo, pool.New(a), Config{MaxGlitchInstances: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	f := &fixture{dev: dev, atlas: a, pool: r.targets, renderer: r}

	src := f.surface(t, 64, 64, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 64, 64, gpucore.BlendNone)
	set := &Set{HorizonGlitch: &HorizonGlitch{
		Probability: 1, MinCount: 10, MaxCount: 10, MaxSize: 0.05, Strength: 0.1,
	}}
	r.Advance(set, 16)

	enc, err := f.render(t, HorizonGlitchKind, set, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if got := enc.Passes()[0].Draws[0].InstanceCount; got != 3 {
		t.Errorf("instances = %d, want cap 3", got)
	}
	if st := r.Stats(); st.DroppedStripes != 8 {
		t.Errorf("dropped = %d, want 8", st.DroppedStripes)
	}
}

func TestRenderDisabledStage(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 64, 64, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 64, 64, gpucore.BlendNone)

	_, err := f.render(t, BlurDualKind, &Set{}, src, dst)
	if !errors.Is(err, ErrStageDisabled) {
		t.Errorf("err = %v, want ErrStageDisabled", err)
	}
}

func TestUniformUpload(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 800, 600, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 800, 600, gpucore.BlendAlpha)
	dst.Alpha = 0.5
	set := &Set{ColorBalance: &ColorBalance{R: 200, G: 255, B: 255}}

	if _, err := f.render(t, ColorEffect, set, src, dst); err != nil {
		t.Fatal(err)
	}
	ubo := f.renderer.arena.used[0]
	data, ok := f.dev.BufferData(ubo)
	if !ok || len(data) != UniformSize {
		t.Fatalf("uniform buffer = %d bytes, %v", len(data), ok)
	}
	u := NewUniforms(src.Surface, dst.Matrix, 0.5, 0)
	u.Effect = packColor(set, 800, 600)
	want := u.Bytes()
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("uniform byte %d = %d, want %d", i, data[i], want[i])
		}
	}
}

func TestBeginFrameRecyclesArena(t *testing.T) {
	f := newFixture(t, atlas.Config{})
	src := f.surface(t, 64, 64, gpucore.FormatBGRA8Unorm)
	dst := f.target(t, 64, 64, gpucore.BlendNone)
	set := &Set{FilterSobel: &FilterSobel{Size: 1}}

	for frame := 0; frame < 3; frame++ {
		f.renderer.BeginFrame()
		if _, err := f.render(t, FilterSobelKind, set, src, dst); err != nil {
			t.Fatal(err)
		}
	}
	// quad vertices + indices + one recycled uniform buffer
	if n := f.dev.Live().Buffers; n != 3 {
		t.Errorf("live buffers = %d, want 3", n)
	}
	if n := f.dev.Live().BindGroups; n != 1 {
		t.Errorf("live bind groups = %d, want 1 (current frame only)", n)
	}

	f.renderer.Close()
	if n := f.dev.Live().BindGroups; n != 0 {
		t.Errorf("bind groups after Close = %d, want 0", n)
	}
}
