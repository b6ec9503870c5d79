// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package effect

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/postfx/gpucore"
)

// Uniform block layout, in floats.
const (
	// BlockVec4s is the number of vec4 slots in the per-effect block.
	BlockVec4s = 8

	// UniformFloats is the size of the uniform block in floats.
	UniformFloats = 16 + BlockVec4s*4 + 4 + 4

	// UniformSize is the size of the uniform block in bytes.
	UniformSize = UniformFloats * 4
)

// Block is the per-effect part of the uniform data. Values are normalized:
// pixel distances are divided by the resolution they are sampled at, angles
// are in radians and byte colors are divided by 255.
type Block [BlockVec4s][4]float32

// Uniforms is the data bound at binding 0 of every material. It matches the
// Params struct in shaders/common.wgsl.
type Uniforms struct {
	Matrix     [16]float32 // column-major
	Effect     Block
	UVRect     [4]float32
	DepthAlpha [4]float32 // depth, alpha, 1/full width, 1/full height
}

// Identity is the identity transform.
var Identity = f32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// IsIdentity reports whether m is the zero matrix or the identity, both of
// which mean "no transform".
func IsIdentity(m f32.Mat4) bool {
	return m == f32.Mat4{} || m == Identity
}

// ColumnMajor converts the row-major m into the column-major layout WGSL
// expects. The zero matrix is treated as the identity.
func ColumnMajor(m f32.Mat4) [16]float32 {
	if m == (f32.Mat4{}) {
		m = Identity
	}
	var out [16]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c*4+r] = m[r*4+c]
		}
	}
	return out
}

// NewUniforms fills the fixed part of the uniform block for sampling src.
func NewUniforms(src gpucore.SurfaceDesc, matrix [16]float32, alpha, depth float32) Uniforms {
	ts := src.TexelSize()
	return Uniforms{
		Matrix:     matrix,
		UVRect:     src.UVRect(),
		DepthAlpha: [4]float32{depth, alpha, ts[0], ts[1]},
	}
}

// Bytes encodes u in little-endian order.
func (u *Uniforms) Bytes() []byte {
	buf := make([]byte, 0, UniformSize)
	put := func(vs ...float32) {
		for _, v := range vs {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	put(u.Matrix[:]...)
	for i := range u.Effect {
		put(u.Effect[i][:]...)
	}
	put(u.UVRect[:]...)
	put(u.DepthAlpha[:]...)
	return buf
}

func byteColor(r, g, b, a uint8) [4]float32 {
	return [4]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

func aspect(w, h int) float32 {
	if h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// Factors returns the per-channel multipliers 2^((c-min)/100), where min is
// the smallest channel.
func (p *ColorBalance) Factors() [3]float32 {
	center := min(p.R, p.G, p.B)
	f := func(c uint8) float32 {
		return math32.Pow(2, float32(int(c)-int(center))/100)
	}
	return [3]float32{f(p.R), f(p.G), f(p.B)}
}

// packColor combines every enabled color sub-effect into one block.
func packColor(s *Set, w, h int) Block {
	var b Block
	if p := s.HSB; p != nil && p.Enabled() {
		b[0] = [4]float32{radians(float32(p.Hue)), float32(p.Saturate) / 100, float32(p.Brightness) / 100, 1}
	}
	if p := s.ColorBalance; p != nil && p.Enabled() {
		f := p.Factors()
		b[1] = [4]float32{f[0], f[1], f[2], 1}
	}
	if p := s.ColorScale; p != nil && p.Enabled() {
		b[2] = [4]float32{float32(p.ShadowIn) / 255, float32(p.ShadowOut) / 255, p.Mid, 1}
		b[3] = [4]float32{float32(p.HighlightIn) / 255, float32(p.HighlightOut) / 255, 0, 0}
	}
	if p := s.Vignette; p != nil && p.Enabled() {
		c := byteColor(p.R, p.G, p.B, 255)
		b[4] = [4]float32{c[0], c[1], c[2], 1}
		b[5] = [4]float32{p.Begin, p.End, p.Scale, p.Fade}
	}
	if p := s.ColorFilter; p != nil && p.Enabled() {
		c := byteColor(p.R, p.G, p.B, 255)
		b[6] = [4]float32{c[0], c[1], c[2], 1}
	}
	b[7][0] = aspect(w, h)
	return b
}

func packBlurDirect(p *BlurDirect, w, h int) Block {
	var b Block
	dir := p.Direction
	if l := math32.Hypot(dir[0], dir[1]); l > 0 {
		dir = f32.Vec2{dir[0] / l, dir[1] / l}
	}
	// Taps are spread evenly over the radius.
	step := float32(p.Radius) / float32(p.Iteration)
	b[0] = [4]float32{dir[0] * step / float32(w), dir[1] * step / float32(h), float32(p.Iteration), 0}
	return b
}

// packDual returns the block of one dual-filter pass sampling a source of
// size w×h.
func packDual(radius int, intensity float32, w, h int) Block {
	var b Block
	b[0] = [4]float32{float32(radius) / float32(w), float32(radius) / float32(h), intensity, 0}
	return b
}

func packBlurRadial(p *BlurRadial, w, h int) Block {
	var b Block
	length := float32(p.Radius) / math32.Max(float32(w), float32(h))
	b[0] = [4]float32{p.Center[0], p.Center[1], length, float32(p.Iteration)}
	b[1] = [4]float32{p.Start, p.Fade, 0, 0}
	return b
}

func packBlurBokeh(p *BlurBokeh, w, h int) Block {
	var b Block
	b[0] = [4]float32{p.Radius / float32(w), p.Radius / float32(h), float32(p.Iteration), 0}
	b[1] = [4]float32{p.Center[0], p.Center[1], p.Start, p.Fade}
	return b
}

func packBloomFilter(p *BloomDual) Block {
	var b Block
	b[0] = [4]float32{p.Threshold, p.ThresholdKnee, 0, 0}
	return b
}

func packBloomCombine(p *BloomDual, bloom gpucore.SurfaceDesc) Block {
	var b Block
	b[0] = [4]float32{p.Intensity, 0, 0, 0}
	b[1] = bloom.UVRect()
	return b
}

func packRadialWave(p *RadialWave, w, h int) Block {
	var b Block
	ratio := float32(1)
	if p.AspectRatio {
		ratio = aspect(w, h)
	}
	b[0] = [4]float32{p.Center[0], p.Center[1], p.Start, p.End}
	b[1] = [4]float32{p.Cycle, p.Weight, ratio, 0}
	return b
}

func packHorizonGlitch(p *HorizonGlitch) Block {
	var b Block
	b[0] = [4]float32{math32.Max(0, math32.Min(1, p.Fade)), 0, 0, 0}
	return b
}

func packFilterSobel(p *FilterSobel, w, h int) Block {
	var b Block
	b[0] = [4]float32{float32(p.Size) / float32(w), float32(p.Size) / float32(h), p.Clip, 0}
	b[1] = byteColor(p.Color[0], p.Color[1], p.Color[2], p.Color[3])
	b[2] = byteColor(p.BgColor[0], p.BgColor[1], p.BgColor[2], p.BgColor[3])
	return b
}

func packCopyIntensity(p *CopyIntensity, w, h int) Block {
	var b Block
	b[0] = [4]float32{p.Intensity, float32(p.Polygon), p.Radius, radians(p.Angle)}
	b[1] = byteColor(p.BgColor[0], p.BgColor[1], p.BgColor[2], p.BgColor[3])
	b[2] = [4]float32{aspect(w, h), 0, 0, 0}
	return b
}
