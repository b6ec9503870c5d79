// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "github.com/gogpu/gputypes"

// BlendFactor is a blend equation multiplier.
type BlendFactor uint8

// Blend factors.
const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrc
	BlendFactorOneMinusSrc
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDst
	BlendFactorOneMinusDst
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha

	blendFactorEnd
)

// BlendFactorCount is the number of BlendFactor values.
const BlendFactorCount = int(blendFactorEnd)

var blendFactors = [BlendFactorCount]gputypes.BlendFactor{
	BlendFactorZero:             gputypes.BlendFactorZero,
	BlendFactorOne:              gputypes.BlendFactorOne,
	BlendFactorSrc:              gputypes.BlendFactorSrc,
	BlendFactorOneMinusSrc:      gputypes.BlendFactorOneMinusSrc,
	BlendFactorSrcAlpha:         gputypes.BlendFactorSrcAlpha,
	BlendFactorOneMinusSrcAlpha: gputypes.BlendFactorOneMinusSrcAlpha,
	BlendFactorDst:              gputypes.BlendFactorDst,
	BlendFactorOneMinusDst:      gputypes.BlendFactorOneMinusDst,
	BlendFactorDstAlpha:         gputypes.BlendFactorDstAlpha,
	BlendFactorOneMinusDstAlpha: gputypes.BlendFactorOneMinusDstAlpha,
}

// GPU returns the gputypes blend factor.
func (f BlendFactor) GPU() gputypes.BlendFactor {
	if int(f) >= BlendFactorCount {
		return gputypes.BlendFactorUndefined
	}
	return blendFactors[f]
}

// BlendOperation combines the weighted source and destination.
type BlendOperation uint8

// Blend operations.
const (
	BlendOpAdd BlendOperation = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax

	blendOperationEnd
)

// BlendOperationCount is the number of BlendOperation values.
const BlendOperationCount = int(blendOperationEnd)

var blendOperations = [BlendOperationCount]gputypes.BlendOperation{
	BlendOpAdd:             gputypes.BlendOperationAdd,
	BlendOpSubtract:        gputypes.BlendOperationSubtract,
	BlendOpReverseSubtract: gputypes.BlendOperationReverseSubtract,
	BlendOpMin:             gputypes.BlendOperationMin,
	BlendOpMax:             gputypes.BlendOperationMax,
}

// GPU returns the gputypes blend operation.
func (op BlendOperation) GPU() gputypes.BlendOperation {
	if int(op) >= BlendOperationCount {
		return gputypes.BlendOperationUndefined
	}
	return blendOperations[op]
}

// BlendComponent describes blending of either the color or the alpha channel.
type BlendComponent struct {
	Src BlendFactor
	Dst BlendFactor
	Op  BlendOperation
}

// BlendState is the full blend configuration of a color target.
// A disabled state is always the zero value, so two disabled states compare
// equal regardless of how they were built.
type BlendState struct {
	Enabled bool
	Color   BlendComponent
	Alpha   BlendComponent
}

// GPU returns the gputypes blend state, or nil when blending is disabled.
func (s BlendState) GPU() *gputypes.BlendState {
	if !s.Enabled {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: s.Color.Src.GPU(),
			DstFactor: s.Color.Dst.GPU(),
			Operation: s.Color.Op.GPU(),
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: s.Alpha.Src.GPU(),
			DstFactor: s.Alpha.Dst.GPU(),
			Operation: s.Alpha.Op.GPU(),
		},
	}
}

// BlendMode is a named blend configuration used when compositing into a
// destination.
type BlendMode uint8

// Blend modes.
const (
	// BlendNone replaces the destination.
	BlendNone BlendMode = iota

	// BlendAlpha is straight (non-premultiplied) source-over.
	BlendAlpha

	// BlendPremultiplied is premultiplied source-over.
	BlendPremultiplied

	// BlendAdditive adds the source to the destination.
	BlendAdditive

	// BlendMultiply multiplies the destination by the source.
	BlendMultiply

	// BlendScreen inverts, multiplies and inverts again.
	BlendScreen

	blendModeEnd
)

// BlendModeCount is the number of BlendMode values.
const BlendModeCount = int(blendModeEnd)

var blendModes = [BlendModeCount]struct {
	name  string
	state BlendState
}{
	BlendNone: {"None", BlendState{}},
	BlendAlpha: {"Alpha", BlendState{
		Enabled: true,
		Color:   BlendComponent{BlendFactorSrcAlpha, BlendFactorOneMinusSrcAlpha, BlendOpAdd},
		Alpha:   BlendComponent{BlendFactorOne, BlendFactorOneMinusSrcAlpha, BlendOpAdd},
	}},
	BlendPremultiplied: {"Premultiplied", BlendState{
		Enabled: true,
		Color:   BlendComponent{BlendFactorOne, BlendFactorOneMinusSrcAlpha, BlendOpAdd},
		Alpha:   BlendComponent{BlendFactorOne, BlendFactorOneMinusSrcAlpha, BlendOpAdd},
	}},
	BlendAdditive: {"Additive", BlendState{
		Enabled: true,
		Color:   BlendComponent{BlendFactorOne, BlendFactorOne, BlendOpAdd},
		Alpha:   BlendComponent{BlendFactorOne, BlendFactorOne, BlendOpAdd},
	}},
	BlendMultiply: {"Multiply", BlendState{
		Enabled: true,
		Color:   BlendComponent{BlendFactorDst, BlendFactorZero, BlendOpAdd},
		Alpha:   BlendComponent{BlendFactorDstAlpha, BlendFactorZero, BlendOpAdd},
	}},
	BlendScreen: {"Screen", BlendState{
		Enabled: true,
		Color:   BlendComponent{BlendFactorOne, BlendFactorOneMinusSrc, BlendOpAdd},
		Alpha:   BlendComponent{BlendFactorOne, BlendFactorOneMinusSrcAlpha, BlendOpAdd},
	}},
}

// State returns the blend state for m. Unknown modes behave like BlendNone.
func (m BlendMode) State() BlendState {
	if int(m) >= BlendModeCount {
		return BlendState{}
	}
	return blendModes[m].state
}

// String returns the mode name.
func (m BlendMode) String() string {
	if int(m) >= BlendModeCount {
		return "Unknown"
	}
	return blendModes[m].name
}

// ColorWriteMask selects which channels a color target writes.
type ColorWriteMask uint8

// Write mask bits.
const (
	WriteRed   ColorWriteMask = 1 << 0
	WriteGreen ColorWriteMask = 1 << 1
	WriteBlue  ColorWriteMask = 1 << 2
	WriteAlpha ColorWriteMask = 1 << 3
	WriteAll                  = WriteRed | WriteGreen | WriteBlue | WriteAlpha
)

// GPU returns the gputypes write mask.
func (m ColorWriteMask) GPU() gputypes.ColorWriteMask {
	var out gputypes.ColorWriteMask
	if m&WriteRed != 0 {
		out |= gputypes.ColorWriteMaskRed
	}
	if m&WriteGreen != 0 {
		out |= gputypes.ColorWriteMaskGreen
	}
	if m&WriteBlue != 0 {
		out |= gputypes.ColorWriteMaskBlue
	}
	if m&WriteAlpha != 0 {
		out |= gputypes.ColorWriteMaskAlpha
	}
	return out
}
