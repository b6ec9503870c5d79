// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"

	"github.com/gogpu/postfx/gpucore"
)

// Key is the fixed-function state that selects one pipeline variant of a
// material. Key is comparable and is used directly as a map key.
type Key struct {
	Format    gpucore.SurfaceFormat
	Blend     gpucore.BlendState
	WriteMask gpucore.ColorWriteMask
	Topology  gpucore.PrimitiveTopology
	Depth     gpucore.DepthState
}

// NewKey returns the key for a triangle-list draw into format with mode,
// writing all channels and without depth.
func NewKey(format gpucore.SurfaceFormat, mode gpucore.BlendMode) Key {
	return Key{
		Format:    format,
		Blend:     mode.State(),
		WriteMask: gpucore.WriteAll,
		Topology:  gpucore.TopologyTriangleList,
	}
}

// WithDepth returns a copy of k using the depth state d.
func (k Key) WithDepth(d gpucore.DepthState) Key {
	k.Depth = d
	return k
}

// Canonical clears fields that have no effect, so that keys describing the
// same pipeline compare equal.
func (k Key) Canonical() Key {
	if !k.Blend.Enabled {
		k.Blend = gpucore.BlendState{}
	}
	k.Depth = k.Depth.Canonical()
	return k
}

// Field widths of the packed key. Each width must hold every value of its
// enumeration; the constant block below fails to compile otherwise.
const (
	formatBits      = 3
	enabledBits     = 1
	factorBits      = 4
	opBits          = 3
	maskBits        = 4
	topologyBits    = 3
	depthFormatBits = 2
	compareBits     = 3

	// PackedBits is the number of significant bits in Packed.
	PackedBits = formatBits + enabledBits + 4*factorBits + 2*opBits + maskBits +
		topologyBits + depthFormatBits + enabledBits + compareBits
)

const (
	_ = uint64(1<<formatBits - gpucore.SurfaceFormatCount)
	_ = uint64(1<<factorBits - gpucore.BlendFactorCount)
	_ = uint64(1<<opBits - gpucore.BlendOperationCount)
	_ = uint64(1<<maskBits - int(gpucore.WriteAll) - 1)
	_ = uint64(1<<topologyBits - gpucore.PrimitiveTopologyCount)
	_ = uint64(1<<depthFormatBits - gpucore.DepthFormatCount)
	_ = uint64(1<<compareBits - gpucore.CompareFunctionCount)
	_ = uint64(64 - PackedBits)
)

// Packed concatenates the canonical key into one integer. Distinct canonical
// keys yield distinct values. It is used for logs and labels; the cache itself
// is keyed by Key.
func (k Key) Packed() uint64 {
	k = k.Canonical()

	var v uint64
	put := func(x uint64, bits uint) {
		v = v<<bits | x&(1<<bits-1)
	}
	put(uint64(k.Format), formatBits)
	put(boolBit(k.Blend.Enabled), enabledBits)
	put(uint64(k.Blend.Color.Src), factorBits)
	put(uint64(k.Blend.Color.Dst), factorBits)
	put(uint64(k.Blend.Alpha.Src), factorBits)
	put(uint64(k.Blend.Alpha.Dst), factorBits)
	put(uint64(k.Blend.Color.Op), opBits)
	put(uint64(k.Blend.Alpha.Op), opBits)
	put(uint64(k.WriteMask), maskBits)
	put(uint64(k.Topology), topologyBits)
	put(uint64(k.Depth.Format), depthFormatBits)
	put(boolBit(k.Depth.Write), enabledBits)
	put(uint64(k.Depth.Compare), compareBits)
	return v
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// String returns a compact description for logs.
func (k Key) String() string {
	return fmt.Sprintf("%s/%#x", k.Format, k.Packed())
}
