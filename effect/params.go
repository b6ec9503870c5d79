package effect

import (
	"golang.org/x/image/math/f32"
)

// HSB shifts hue, saturation and brightness.
type HSB struct {
	Hue        int16 `yaml:"hue"`        // degrees, -180..180
	Saturate   int8  `yaml:"saturate"`   // percent, -100..100
	Brightness int8  `yaml:"brightness"` // percent, -100..100
}

// Enabled reports whether any adjustment is non-zero.
func (p *HSB) Enabled() bool {
	return p.Hue != 0 || p.Saturate != 0 || p.Brightness != 0
}

// ColorBalance scales channels relative to the weakest one.
type ColorBalance struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Enabled reports whether the channels differ.
func (p *ColorBalance) Enabled() bool {
	return p.R != p.G || p.G != p.B
}

// ColorScale remaps shadows, midtones and highlights like a levels tool.
type ColorScale struct {
	ShadowIn     uint8   `yaml:"shadow_in"`
	ShadowOut    uint8   `yaml:"shadow_out"`
	Mid          float32 `yaml:"mid"`
	HighlightIn  uint8   `yaml:"highlight_in"`
	HighlightOut uint8   `yaml:"highlight_out"`
}

// IdentityColorScale leaves every level unchanged.
var IdentityColorScale = ColorScale{Mid: 1, HighlightIn: 255, HighlightOut: 255}

// Enabled reports whether the scale differs from the identity.
func (p *ColorScale) Enabled() bool {
	return *p != IdentityColorScale
}

// Vignette darkens toward the edges with a colored falloff.
type Vignette struct {
	R     uint8   `yaml:"r"`
	G     uint8   `yaml:"g"`
	B     uint8   `yaml:"b"`
	Begin float32 `yaml:"begin"`
	End   float32 `yaml:"end"`
	Scale float32 `yaml:"scale"`
	Fade  float32 `yaml:"fade"`
}

// Enabled reports whether the vignette has a visible ring.
func (p *Vignette) Enabled() bool {
	return p.Scale > 0 && p.End > p.Begin
}

// ColorFilter multiplies every pixel by a color.
type ColorFilter struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Enabled reports whether the filter is not white.
func (p *ColorFilter) Enabled() bool {
	return p.R != 255 || p.G != 255 || p.B != 255
}

// BlurDirect blurs along one direction.
type BlurDirect struct {
	Radius    int      `yaml:"radius"` // pixels
	Iteration int      `yaml:"iteration"`
	Direction f32.Vec2 `yaml:"direction"`
}

// Enabled reports whether the blur has extent.
func (p *BlurDirect) Enabled() bool {
	return p.Radius > 0 && p.Iteration > 0 && (p.Direction[0] != 0 || p.Direction[1] != 0)
}

// BlurDual is a dual-filter blur: a chain of half-size down samples followed
// by up samples.
type BlurDual struct {
	Radius       int     `yaml:"radius"` // pixels at each level
	Iteration    int     `yaml:"iteration"`
	Intensity    float32 `yaml:"intensity"`
	SimplifiedUp bool    `yaml:"simplified_up"`
}

// Enabled reports whether the blur has at least one level.
func (p *BlurDual) Enabled() bool {
	return p.Radius > 0 && p.Iteration > 0
}

// BlurRadial blurs along rays from a center.
type BlurRadial struct {
	Radius    int      `yaml:"radius"` // pixels
	Iteration int      `yaml:"iteration"`
	Center    f32.Vec2 `yaml:"center"` // normalized
	Start     float32  `yaml:"start"`
	Fade      float32  `yaml:"fade"`
}

// Enabled reports whether the blur has extent.
func (p *BlurRadial) Enabled() bool {
	return p.Radius > 0 && p.Iteration > 0
}

// BlurBokeh is a golden-angle disc blur that keeps the center sharp.
type BlurBokeh struct {
	Radius    float32  `yaml:"radius"` // pixels
	Iteration int      `yaml:"iteration"`
	Center    f32.Vec2 `yaml:"center"` // normalized
	Start     float32  `yaml:"start"`
	Fade      float32  `yaml:"fade"`
}

// Enabled reports whether the blur has extent.
func (p *BlurBokeh) Enabled() bool {
	return p.Radius > 0 && p.Iteration > 0
}

// BloomDual extracts bright pixels, blurs them with the dual filter and adds
// them back.
type BloomDual struct {
	Radius        int     `yaml:"radius"`
	Iteration     int     `yaml:"iteration"`
	Intensity     float32 `yaml:"intensity"`
	Threshold     float32 `yaml:"threshold"`
	ThresholdKnee float32 `yaml:"threshold_knee"`
}

// Enabled reports whether the bloom adds anything.
func (p *BloomDual) Enabled() bool {
	return p.Radius > 0 && p.Iteration > 0 && p.Intensity > 0
}

// RadialWave displaces pixels along a ring travelling outwards from Center.
type RadialWave struct {
	AspectRatio bool     `yaml:"aspect_ratio"` // keep rings circular on non-square targets
	Center      f32.Vec2 `yaml:"center"`       // normalized
	Start       float32  `yaml:"start"`
	End         float32  `yaml:"end"`
	Cycle       float32  `yaml:"cycle"`
	Weight      float32  `yaml:"weight"`
}

// Enabled reports whether the wave displaces anything.
func (p *RadialWave) Enabled() bool {
	return p.Weight != 0 && p.Cycle > 0 && p.End > p.Start
}

// HorizonGlitch shifts random horizontal stripes. The stripes are generated
// by a GlitchState, not stored here.
type HorizonGlitch struct {
	Probability float32 `yaml:"probability"` // chance that a new layout has stripes, 0..1
	MaxCount    int     `yaml:"max_count"`
	MinCount    int     `yaml:"min_count"`
	MaxSize     float32 `yaml:"max_size"` // fraction of the height
	MinSize     float32 `yaml:"min_size"`
	Strength    float32 `yaml:"strength"` // maximum shift, fraction of the width
	Fade        float32 `yaml:"fade"`     // color fade inside stripes, 0..1
}

// Enabled reports whether stripes can appear.
func (p *HorizonGlitch) Enabled() bool {
	return p.Probability > 0 && p.MaxCount > 0 && p.Strength != 0 && p.MaxSize > 0
}

// FilterSobel draws edges found by a Sobel operator.
type FilterSobel struct {
	Size    int      `yaml:"size"` // sampling distance in pixels
	Clip    float32  `yaml:"clip"` // edge magnitudes below Clip are background
	Color   [4]uint8 `yaml:"color"`
	BgColor [4]uint8 `yaml:"bg_color"`
}

// Enabled reports whether the filter samples anything.
func (p *FilterSobel) Enabled() bool {
	return p.Size > 0
}

// CopyIntensity copies the source scaled by Intensity, optionally masked by
// a regular polygon. Polygon < 3 disables the mask.
type CopyIntensity struct {
	Intensity float32  `yaml:"intensity"`
	Polygon   int      `yaml:"polygon"`
	Radius    float32  `yaml:"radius"` // normalized to the shorter side
	Angle     float32  `yaml:"angle"`  // degrees
	BgColor   [4]uint8 `yaml:"bg_color"`
}

// Enabled is always true; a non-nil CopyIntensity always runs.
func (p *CopyIntensity) Enabled() bool {
	return true
}

// Set holds the optional parameter blocks of every effect. A nil block is
// disabled.
type Set struct {
	HSB           *HSB           `yaml:"hsb,omitempty"`
	ColorBalance  *ColorBalance  `yaml:"color_balance,omitempty"`
	ColorScale    *ColorScale    `yaml:"color_scale,omitempty"`
	Vignette      *Vignette      `yaml:"vignette,omitempty"`
	ColorFilter   *ColorFilter   `yaml:"color_filter,omitempty"`
	BlurDirect    *BlurDirect    `yaml:"blur_direct,omitempty"`
	BlurDual      *BlurDual      `yaml:"blur_dual,omitempty"`
	BlurRadial    *BlurRadial    `yaml:"blur_radial,omitempty"`
	BlurBokeh     *BlurBokeh     `yaml:"blur_bokeh,omitempty"`
	BloomDual     *BloomDual     `yaml:"bloom_dual,omitempty"`
	RadialWave    *RadialWave    `yaml:"radial_wave,omitempty"`
	HorizonGlitch *HorizonGlitch `yaml:"horizon_glitch,omitempty"`
	FilterSobel   *FilterSobel   `yaml:"filter_sobel,omitempty"`
	CopyIntensity *CopyIntensity `yaml:"copy_intensity,omitempty"`
}

// ColorEnabled reports whether any color sub-effect is enabled.
func (s *Set) ColorEnabled() bool {
	return (s.HSB != nil && s.HSB.Enabled()) ||
		(s.ColorBalance != nil && s.ColorBalance.Enabled()) ||
		(s.ColorScale != nil && s.ColorScale.Enabled()) ||
		(s.Vignette != nil && s.Vignette.Enabled()) ||
		(s.ColorFilter != nil && s.ColorFilter.Enabled())
}

// Enabled reports whether the stage of kind k would run.
func (s *Set) Enabled(k Kind) bool {
	switch k {
	case ColorEffect:
		return s.ColorEnabled()
	case BlurDirectKind:
		return s.BlurDirect != nil && s.BlurDirect.Enabled()
	case BlurDualKind:
		return s.BlurDual != nil && s.BlurDual.Enabled()
	case BlurRadialKind:
		return s.BlurRadial != nil && s.BlurRadial.Enabled()
	case BlurBokehKind:
		return s.BlurBokeh != nil && s.BlurBokeh.Enabled()
	case BloomDualKind:
		return s.BloomDual != nil && s.BloomDual.Enabled()
	case RadialWaveKind:
		return s.RadialWave != nil && s.RadialWave.Enabled()
	case HorizonGlitchKind:
		return s.HorizonGlitch != nil && s.HorizonGlitch.Enabled()
	case FilterSobelKind:
		return s.FilterSobel != nil && s.FilterSobel.Enabled()
	case CopyIntensityKind:
		return s.CopyIntensity != nil && s.CopyIntensity.Enabled()
	}
	return false
}

// Active appends the enabled stage kinds to dst in execution order and
// returns the extended slice. When nothing is enabled and finalCopy is set,
// a single FinalCopy stage is appended.
func (s *Set) Active(dst []Kind, finalCopy bool) []Kind {
	n := len(dst)
	for k := ColorEffect; k < FinalCopy; k++ {
		if s.Enabled(k) {
			dst = append(dst, k)
		}
	}
	if len(dst) == n && finalCopy {
		dst = append(dst, FinalCopy)
	}
	return dst
}
