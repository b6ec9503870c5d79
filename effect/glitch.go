// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package effect

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// Lifetime bounds of one stripe layout, in milliseconds.
const (
	GlitchMinLifetime = 40
	GlitchMaxLifetime = 200
)

// GlitchPhase is the phase of a GlitchState.
type GlitchPhase uint8

// Glitch phases.
const (
	// GlitchResetting generates a new layout on the next Advance.
	GlitchResetting GlitchPhase = iota
	// GlitchActive keeps the current layout until its lifetime ends.
	GlitchActive
)

func (p GlitchPhase) String() string {
	if p == GlitchActive {
		return "Active"
	}
	return "Resetting"
}

// Stripe is one shifted band, in uv units of the target.
type Stripe struct {
	Y      float32 // top edge
	Height float32
	Shift  float32 // horizontal displacement
	Fade   float32 // 0..1 weight of the color fade
}

// StripeLayout is the set of stripes to draw this frame.
type StripeLayout struct {
	Stripes []Stripe
}

// Instances returns the per-instance vertex data: the full-target base
// instance followed by at most limit-1 stripes. The second result is the
// number of stripes that did not fit.
func (l StripeLayout) Instances(limit int) (data [][4]float32, dropped int) {
	limit = max(limit, 1)
	data = make([][4]float32, 0, min(len(l.Stripes)+1, limit))
	data = append(data, [4]float32{0, 1, 0, 0})
	for _, s := range l.Stripes {
		if len(data) == limit {
			break
		}
		data = append(data, [4]float32{s.Y, s.Height, s.Shift, s.Fade})
	}
	return data, len(l.Stripes) + 1 - len(data)
}

// GlitchState generates horizon-glitch stripe layouts. It starts in the
// Resetting phase. Layouts depend only on the seed, the parameters and the
// sequence of Advance calls.
type GlitchState struct {
	rng      *rand.Rand
	phase    GlitchPhase
	age      float32
	lifetime float32
	layout   StripeLayout
}

// NewGlitchState returns a state seeded with seed.
func NewGlitchState(seed uint64) *GlitchState {
	return &GlitchState{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Phase returns the current phase.
func (g *GlitchState) Phase() GlitchPhase {
	return g.phase
}

// Layout returns the current layout without advancing.
func (g *GlitchState) Layout() StripeLayout {
	return g.layout
}

// Advance ages the current layout by dt milliseconds and regenerates it
// once its lifetime has passed. A returned layout is never modified by later
// calls.
func (g *GlitchState) Advance(p *HorizonGlitch, dt float32) StripeLayout {
	if g.phase == GlitchActive {
		g.age += max(dt, 0)
		if g.age >= g.lifetime {
			g.phase = GlitchResetting
		}
	}
	if g.phase == GlitchResetting {
		g.regenerate(p)
		g.age = 0
		g.phase = GlitchActive
	}
	return g.layout
}

func (g *GlitchState) regenerate(p *HorizonGlitch) {
	g.lifetime = GlitchMinLifetime + g.rng.Float32()*(GlitchMaxLifetime-GlitchMinLifetime)
	g.layout.Stripes = nil
	if g.rng.Float32() >= p.Probability {
		return
	}

	lo, hi := max(p.MinCount, 0), max(p.MaxCount, 0)
	if lo > hi {
		lo = hi
	}
	count := lo + g.rng.IntN(hi-lo+1)
	g.layout.Stripes = make([]Stripe, 0, count)

	minSize := math32.Max(0, math32.Min(p.MinSize, p.MaxSize))
	for range count {
		h := minSize + g.rng.Float32()*(p.MaxSize-minSize)
		g.layout.Stripes = append(g.layout.Stripes, Stripe{
			Y:      g.rng.Float32() * math32.Max(0, 1-h),
			Height: h,
			Shift:  (g.rng.Float32()*2 - 1) * p.Strength,
			Fade:   g.rng.Float32(),
		})
	}
}
