// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "github.com/gogpu/gputypes"

// SurfaceFormat is the symbolic pixel format of a surface.
type SurfaceFormat uint8

// Surface formats.
const (
	// FormatUndefined is the zero value and never a valid render target.
	FormatUndefined SurfaceFormat = iota

	// FormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	FormatRGBA8Unorm

	// FormatRGBA8UnormSRGB is 8-bit RGBA in sRGB color space.
	FormatRGBA8UnormSRGB

	// FormatBGRA8Unorm is 8-bit BGRA, the common swapchain format.
	FormatBGRA8Unorm

	// FormatBGRA8UnormSRGB is 8-bit BGRA in sRGB color space.
	FormatBGRA8UnormSRGB

	// FormatRGBA16Float is 16-bit float RGBA.
	FormatRGBA16Float

	// FormatR8Unorm is a single 8-bit red channel.
	FormatR8Unorm

	surfaceFormatEnd
)

// SurfaceFormatCount is the number of SurfaceFormat values including
// FormatUndefined.
const SurfaceFormatCount = int(surfaceFormatEnd)

type formatInfo struct {
	name          string
	gpu           gputypes.TextureFormat
	bytesPerPixel int
	renderable    bool
}

var surfaceFormats = [SurfaceFormatCount]formatInfo{
	FormatUndefined:      {"Undefined", gputypes.TextureFormatUndefined, 0, false},
	FormatRGBA8Unorm:     {"RGBA8Unorm", gputypes.TextureFormatRGBA8Unorm, 4, true},
	FormatRGBA8UnormSRGB: {"RGBA8UnormSRGB", gputypes.TextureFormatRGBA8UnormSrgb, 4, true},
	FormatBGRA8Unorm:     {"BGRA8Unorm", gputypes.TextureFormatBGRA8Unorm, 4, true},
	FormatBGRA8UnormSRGB: {"BGRA8UnormSRGB", gputypes.TextureFormatBGRA8UnormSrgb, 4, true},
	FormatRGBA16Float:    {"RGBA16Float", gputypes.TextureFormatRGBA16Float, 8, true},
	FormatR8Unorm:        {"R8Unorm", gputypes.TextureFormatR8Unorm, 1, true},
}

// Valid reports whether f names a known, defined format.
func (f SurfaceFormat) Valid() bool {
	return f > FormatUndefined && f < surfaceFormatEnd
}

// GPU returns the gputypes texture format for f.
// Unknown formats map to TextureFormatUndefined.
func (f SurfaceFormat) GPU() gputypes.TextureFormat {
	if int(f) >= SurfaceFormatCount {
		return gputypes.TextureFormatUndefined
	}
	return surfaceFormats[f].gpu
}

// BytesPerPixel returns the texel size of f, or 0 if unknown.
func (f SurfaceFormat) BytesPerPixel() int {
	if int(f) >= SurfaceFormatCount {
		return 0
	}
	return surfaceFormats[f].bytesPerPixel
}

// IsSRGB reports whether sampling f applies an sRGB decode.
func (f SurfaceFormat) IsSRGB() bool {
	return f == FormatRGBA8UnormSRGB || f == FormatBGRA8UnormSRGB
}

// ColorChannels reports whether f stores all four color channels.
func (f SurfaceFormat) ColorChannels() bool {
	return f.Valid() && f != FormatR8Unorm
}

// String returns the format name.
func (f SurfaceFormat) String() string {
	if int(f) >= SurfaceFormatCount {
		return "Unknown"
	}
	return surfaceFormats[f].name
}

// FormatFromGPU maps a gputypes texture format back to a SurfaceFormat.
// It returns false for formats the post-processing chain does not handle.
func FormatFromGPU(tf gputypes.TextureFormat) (SurfaceFormat, bool) {
	for i := FormatRGBA8Unorm; i < surfaceFormatEnd; i++ {
		if surfaceFormats[i].gpu == tf {
			return i, true
		}
	}
	return FormatUndefined, false
}
