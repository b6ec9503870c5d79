package postfx

import (
	"log/slog"

	"github.com/gogpu/postfx/atlas"
	"github.com/gogpu/postfx/gpucore"
	"github.com/gogpu/postfx/pipeline"
)

// Option configures a PostProcess during creation.
//
// Example:
//
//	pp, err := postfx.New(device,
//	    postfx.WithIntermediateFormat(gpucore.FormatRGBA16Float),
//	    postfx.WithGlitchSeed(42),
//	)
type Option func(*options)

// options holds optional configuration for PostProcess creation.
type options struct {
	atlas        *atlas.Atlas
	atlasConfig  atlas.Config
	pipelines    *pipeline.Manager
	intermediate gpucore.SurfaceFormat
	glitchSeed   uint64
	maxGlitch    int
	logger       *slog.Logger
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		intermediate: gpucore.FormatRGBA8Unorm,
		glitchSeed:   1,
	}
}

// WithAtlas makes the PostProcess allocate intermediate surfaces from a
// shared atlas instead of creating its own. A shared atlas is not closed by
// PostProcess.Close.
//
// Example:
//
//	shared := atlas.New(device, atlas.Config{})
//	a, _ := postfx.New(device, postfx.WithAtlas(shared))
//	b, _ := postfx.New(device, postfx.WithAtlas(shared))
func WithAtlas(a *atlas.Atlas) Option {
	return func(o *options) {
		o.atlas = a
	}
}

// WithAtlasConfig configures the atlas the PostProcess creates for itself.
// It has no effect together with WithAtlas.
func WithAtlasConfig(c atlas.Config) Option {
	return func(o *options) {
		o.atlasConfig = c
	}
}

// WithPipelineManager shares a pipeline manager between several
// PostProcess instances on one device. A shared manager is not destroyed by
// PostProcess.Close.
func WithPipelineManager(m *pipeline.Manager) Option {
	return func(o *options) {
		o.pipelines = m
	}
}

// WithIntermediateFormat sets the format of the surfaces between stages.
// The default is gpucore.FormatRGBA8Unorm.
func WithIntermediateFormat(f gpucore.SurfaceFormat) Option {
	return func(o *options) {
		o.intermediate = f
	}
}

// WithGlitchSeed seeds the horizon glitch stripe generator. Two instances
// with the same seed and the same Check calls produce the same stripes.
func WithGlitchSeed(seed uint64) Option {
	return func(o *options) {
		o.glitchSeed = seed
	}
}

// WithMaxGlitchInstances caps the instances of one glitch draw. Stripes
// beyond the cap are dropped.
func WithMaxGlitchInstances(n int) Option {
	return func(o *options) {
		o.maxGlitch = n
	}
}

// WithLogger sets the logger of this PostProcess. Sub-packages keep using
// the logger installed with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
