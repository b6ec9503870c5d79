// Package postfx runs a chain of image post-processing effects on the GPU.
//
// # Overview
//
// A [PostProcess] owns a set of optional effect parameter blocks
// ([Effects]). Every frame it selects the enabled effects in a fixed order,
// allocates short-lived intermediate surfaces from a shared atlas, and
// records one render pass per stage into a caller-supplied command encoder.
// The last stage writes the caller's destination with the requested blend
// mode, transform and alpha.
//
// # Quick Start
//
//	pp, err := postfx.New(device)
//	if err != nil {
//	    return err
//	}
//	defer pp.Close()
//
//	fx := pp.Effects()
//	fx.BlurDual = &effect.BlurDual{Radius: 2, Iteration: 3, Intensity: 1}
//	fx.ColorBalance = &effect.ColorBalance{R: 200, G: 255, B: 255}
//
//	// each frame
//	if err := pp.Check(dt, postfx.NewComposite(gpucore.FormatBGRA8Unorm)); err != nil {
//	    return err
//	}
//	out, err := pp.Draw(enc, scene, postfx.ToSurface(backbuffer))
//	// submit enc, present out
//	pp.Reset()
//
// # Stage order
//
// Stages run in this order: color grading, directional blur, dual blur,
// radial blur, bokeh blur, bloom, radial wave, horizon glitch, edge filter
// and intensity copy. When none is enabled but the composite has an alpha
// other than 1 or a transform, a single copy stage writes the destination.
// With no stage at all the source is returned unchanged and nothing is
// recorded.
//
// # Architecture
//
// The package is organized into:
//   - gpucore: resource IDs, device interfaces and format/blend tables
//   - atlas: paged surface allocator with exclusion
//   - pool: per-frame surface arena addressed by stable IDs
//   - pipeline: pipeline keys and the check-then-get pipeline cache
//   - geometry: fullscreen quad and glitch instance buffers
//   - effect: parameter blocks, uniform packing, shaders and renderers
//   - backend/native: device on gogpu/wgpu hal
//   - backend/recorder: device that records passes without a GPU
//
// # Surfaces
//
// A [gpucore.SurfaceDesc] is a sub-rectangle of a texture. Intermediate
// surfaces share atlas pages, so a stage that samples one surface never
// renders into a surface on the same page.
package postfx

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
