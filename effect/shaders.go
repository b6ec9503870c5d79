package effect

import (
	_ "embed"

	"github.com/gogpu/postfx/geometry"
	"github.com/gogpu/postfx/gpucore"
	"github.com/gogpu/postfx/pipeline"
)

// Material names registered with the pipeline manager.
const (
	MaterialCopy          = "postfx/copy"
	MaterialCopyIntensity = "postfx/copy_intensity"
	MaterialColor         = "postfx/color"
	MaterialBlurDirect    = "postfx/blur_direct"
	MaterialBlurDualDown  = "postfx/blur_dual_down"
	MaterialBlurDualUp    = "postfx/blur_dual_up"
	MaterialBlurRadial    = "postfx/blur_radial"
	MaterialBlurBokeh     = "postfx/blur_bokeh"
	MaterialBloomFilter   = "postfx/bloom_filter"
	MaterialBloomCombine  = "postfx/bloom_combine"
	MaterialRadialWave    = "postfx/radial_wave"
	MaterialHorizonGlitch = "postfx/horizon_glitch"
	MaterialFilterSobel   = "postfx/filter_sobel"
)

//go:embed shaders/common.wgsl
var commonWGSL string

//go:embed shaders/quad.wgsl
var quadWGSL string

//go:embed shaders/copy.wgsl
var copyWGSL string

//go:embed shaders/copy_intensity.wgsl
var copyIntensityWGSL string

//go:embed shaders/color.wgsl
var colorWGSL string

//go:embed shaders/blur_direct.wgsl
var blurDirectWGSL string

//go:embed shaders/blur_dual_down.wgsl
var blurDualDownWGSL string

//go:embed shaders/blur_dual_up.wgsl
var blurDualUpWGSL string

//go:embed shaders/blur_radial.wgsl
var blurRadialWGSL string

//go:embed shaders/blur_bokeh.wgsl
var blurBokehWGSL string

//go:embed shaders/bloom_filter.wgsl
var bloomFilterWGSL string

//go:embed shaders/bloom_combine.wgsl
var bloomCombineWGSL string

//go:embed shaders/radial_wave.wgsl
var radialWaveWGSL string

//go:embed shaders/horizon_glitch.wgsl
var horizonGlitchWGSL string

//go:embed shaders/filter_sobel.wgsl
var filterSobelWGSL string

var sampledBindings = []gpucore.BindingType{
	gpucore.BindingUniform,
	gpucore.BindingSampler,
	gpucore.BindingTexture,
}

// Materials returns the description of every post-processing material.
// Shader sources are the shared declarations, the quad vertex stage unless
// the material brings its own, and the material's fragment stage.
func Materials() []pipeline.MaterialDesc {
	quad := func(name, body string) pipeline.MaterialDesc {
		return pipeline.MaterialDesc{
			Name:     name,
			WGSL:     commonWGSL + "\n" + quadWGSL + "\n" + body,
			Vertex:   []gpucore.VertexLayout{geometry.QuadLayout},
			Bindings: sampledBindings,
		}
	}

	combine := quad(MaterialBloomCombine, bloomCombineWGSL)
	combine.Bindings = append(append([]gpucore.BindingType(nil), sampledBindings...), gpucore.BindingTexture)

	return []pipeline.MaterialDesc{
		quad(MaterialCopy, copyWGSL),
		quad(MaterialCopyIntensity, copyIntensityWGSL),
		quad(MaterialColor, colorWGSL),
		quad(MaterialBlurDirect, blurDirectWGSL),
		quad(MaterialBlurDualDown, blurDualDownWGSL),
		quad(MaterialBlurDualUp, blurDualUpWGSL),
		quad(MaterialBlurRadial, blurRadialWGSL),
		quad(MaterialBlurBokeh, blurBokehWGSL),
		quad(MaterialBloomFilter, bloomFilterWGSL),
		combine,
		quad(MaterialRadialWave, radialWaveWGSL),
		{
			Name:     MaterialHorizonGlitch,
			WGSL:     commonWGSL + "\n" + horizonGlitchWGSL,
			Vertex:   []gpucore.VertexLayout{geometry.QuadLayout, geometry.InstanceLayout},
			Bindings: sampledBindings,
		},
		quad(MaterialFilterSobel, filterSobelWGSL),
	}
}
