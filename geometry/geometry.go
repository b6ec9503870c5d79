// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geometry provides the shared vertex data for post-processing draws:
// a full-surface quad and a per-frame instance buffer.
package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/postfx/gpucore"
)

// QuadIndexCount is the number of indices of the quad.
const QuadIndexCount = 6

// QuadStride is the byte stride of one quad vertex: vec2 position, vec2 uv.
const QuadStride = 16

// InstanceStride is the byte stride of one instance: a single vec4.
const InstanceStride = 16

// ErrClosed is returned after Close.
var ErrClosed = errors.New("geometry: provider closed")

// quadVertices covers clip space with v = 0 at the top of the surface.
var quadVertices = [4][4]float32{
	{-1, -1, 0, 1},
	{1, -1, 1, 1},
	{1, 1, 1, 0},
	{-1, 1, 0, 0},
}

var quadIndices = [QuadIndexCount]uint16{0, 1, 2, 0, 2, 3}

// QuadLayout is the vertex buffer layout of the quad at slot 0.
var QuadLayout = gpucore.VertexLayout{
	Stride: QuadStride,
	Attributes: []gpucore.VertexAttribute{
		{Format: gpucore.VertexFloat32x2, Offset: 0, Location: 0},
		{Format: gpucore.VertexFloat32x2, Offset: 8, Location: 1},
	},
}

// InstanceLayout is the layout of the instance buffer at slot 1.
var InstanceLayout = gpucore.VertexLayout{
	Stride:   InstanceStride,
	Instance: true,
	Attributes: []gpucore.VertexAttribute{
		{Format: gpucore.VertexFloat32x4, Offset: 0, Location: 2},
	},
}

// Provider owns the quad buffers and a growable instance buffer. The quad
// is uploaded on first use and reused for the provider's lifetime.
//
// Provider is not safe for concurrent use.
type Provider struct {
	device gpucore.Device

	vertices gpucore.BufferID
	indices  gpucore.BufferID

	instances   gpucore.BufferID
	instanceCap int // in instances

	closed bool
}

// New creates a provider. No GPU resources are created until needed.
func New(device gpucore.Device) *Provider {
	return &Provider{device: device}
}

// Quad returns the vertex and index buffers of the full-surface quad.
func (p *Provider) Quad() (vertices, indices gpucore.BufferID, err error) {
	if p.closed {
		return 0, 0, ErrClosed
	}
	if p.vertices != gpucore.InvalidID {
		return p.vertices, p.indices, nil
	}

	vb, err := p.upload("postfx quad vertices", gpucore.BufferUsageVertex, quadVertexBytes())
	if err != nil {
		return 0, 0, err
	}
	// Index data is padded to a four-byte multiple for WriteBuffer.
	ib, err := p.upload("postfx quad indices", gpucore.BufferUsageIndex, quadIndexBytes())
	if err != nil {
		p.device.DestroyBuffer(vb)
		return 0, 0, err
	}
	p.vertices, p.indices = vb, ib
	return vb, ib, nil
}

// Instances uploads data as consecutive vec4 instances and returns the
// buffer holding them. The buffer grows to the next power of two when needed
// and is otherwise reused; callers must upload before every frame that
// draws with it.
func (p *Provider) Instances(data [][4]float32) (gpucore.BufferID, error) {
	if p.closed {
		return 0, ErrClosed
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("geometry: no instances")
	}
	if len(data) > p.instanceCap {
		capacity := 8
		for capacity < len(data) {
			capacity *= 2
		}
		id, err := p.device.CreateBuffer(&gpucore.BufferDesc{
			Label: "postfx instances",
			Size:  uint64(capacity * InstanceStride),
			Usage: gpucore.BufferUsageVertex | gpucore.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, fmt.Errorf("geometry: instance buffer: %w", err)
		}
		if p.instances != gpucore.InvalidID {
			p.device.DestroyBuffer(p.instances)
		}
		p.instances, p.instanceCap = id, capacity
		slogger().Debug("geometry: instance buffer grown", "capacity", capacity)
	}

	buf := make([]byte, 0, len(data)*InstanceStride)
	for _, v := range data {
		buf = appendFloats(buf, v[:]...)
	}
	if err := p.device.WriteBuffer(p.instances, 0, buf); err != nil {
		return 0, fmt.Errorf("geometry: upload instances: %w", err)
	}
	return p.instances, nil
}

// InstanceCapacity returns how many instances fit without growing.
func (p *Provider) InstanceCapacity() int {
	return p.instanceCap
}

// Close destroys every buffer. Close is idempotent.
func (p *Provider) Close() {
	if p.closed {
		return
	}
	p.closed = true
	for _, id := range []gpucore.BufferID{p.vertices, p.indices, p.instances} {
		if id != gpucore.InvalidID {
			p.device.DestroyBuffer(id)
		}
	}
	p.vertices, p.indices, p.instances, p.instanceCap = 0, 0, 0, 0
}

func (p *Provider) upload(label string, usage gpucore.BufferUsage, data []byte) (gpucore.BufferID, error) {
	id, err := p.device.CreateBuffer(&gpucore.BufferDesc{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("geometry: %s: %w", label, err)
	}
	if err := p.device.WriteBuffer(id, 0, data); err != nil {
		p.device.DestroyBuffer(id)
		return 0, fmt.Errorf("geometry: %s: %w", label, err)
	}
	return id, nil
}

func quadVertexBytes() []byte {
	buf := make([]byte, 0, len(quadVertices)*QuadStride)
	for _, v := range quadVertices {
		buf = appendFloats(buf, v[:]...)
	}
	return buf
}

func quadIndexBytes() []byte {
	buf := make([]byte, 0, 16)
	for _, i := range quadIndices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
