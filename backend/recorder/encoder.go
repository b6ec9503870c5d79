// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recorder

import (
	"fmt"
	"io"

	"github.com/gogpu/postfx/gpucore"
)

// Draw is one recorded indexed draw.
type Draw struct {
	Pipeline      gpucore.RenderPipelineID
	BindGroup     gpucore.BindGroupID
	IndexCount    uint32
	InstanceCount uint32
}

// Pass is one recorded render pass.
type Pass struct {
	Label    string
	Target   gpucore.TextureViewID
	Texture  gpucore.TextureID
	Load     gpucore.LoadOp
	Viewport [6]float32
	Scissor  [4]uint32
	Draws    []Draw

	// Hazard is set when a draw samples the texture the pass renders into.
	Hazard bool
	Ended  bool
}

// Encoder is a gpucore.CommandEncoder that records passes.
type Encoder struct {
	dev    *Device
	passes []*Pass
}

// NewEncoder returns an encoder that resolves resources through d.
func (d *Device) NewEncoder() *Encoder {
	return &Encoder{dev: d}
}

// BeginRenderPass implements gpucore.CommandEncoder.
func (e *Encoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPass {
	p := &Pass{
		Label:   desc.Label,
		Target:  desc.Target,
		Texture: e.dev.textureOfView(desc.Target),
		Load:    desc.Load,
	}
	e.passes = append(e.passes, p)
	return &renderPass{enc: e, pass: p}
}

// Passes returns the recorded passes in order.
func (e *Encoder) Passes() []*Pass {
	return e.passes
}

// Draws returns the total number of draws across all passes.
func (e *Encoder) Draws() int {
	n := 0
	for _, p := range e.passes {
		n += len(p.Draws)
	}
	return n
}

// Hazards returns the number of passes that sample their own target.
func (e *Encoder) Hazards() int {
	n := 0
	for _, p := range e.passes {
		if p.Hazard {
			n++
		}
	}
	return n
}

// Reset forgets all recorded passes.
func (e *Encoder) Reset() {
	e.passes = e.passes[:0]
}

// WriteTo prints one line per pass.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, p := range e.passes {
		n, err := fmt.Fprintf(w, "%3d  %-22s tex=%-3d viewport=%gx%g@%g,%g draws=%d",
			i, p.Label, p.Texture, p.Viewport[2], p.Viewport[3], p.Viewport[0], p.Viewport[1], len(p.Draws))
		total += int64(n)
		if err != nil {
			return total, err
		}
		for _, d := range p.Draws {
			if d.InstanceCount > 1 {
				n, err = fmt.Fprintf(w, " instances=%d", d.InstanceCount)
				total += int64(n)
				if err != nil {
					return total, err
				}
			}
		}
		if p.Hazard {
			n, err = fmt.Fprint(w, " HAZARD")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err = fmt.Fprintln(w)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type renderPass struct {
	enc       *Encoder
	pass      *Pass
	pipeline  gpucore.RenderPipelineID
	bindGroup gpucore.BindGroupID
}

func (r *renderPass) SetPipeline(id gpucore.RenderPipelineID) { r.pipeline = id }

func (r *renderPass) SetBindGroup(_ uint32, group gpucore.BindGroupID) {
	r.bindGroup = group
	for _, tex := range r.enc.dev.sampledTextures(group) {
		if tex == r.pass.Texture {
			r.pass.Hazard = true
		}
	}
}

func (r *renderPass) SetVertexBuffer(uint32, gpucore.BufferID, uint64) {}

func (r *renderPass) SetIndexBuffer(gpucore.BufferID, uint64) {}

func (r *renderPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	r.pass.Viewport = [6]float32{x, y, width, height, minDepth, maxDepth}
}

func (r *renderPass) SetScissorRect(x, y, width, height uint32) {
	r.pass.Scissor = [4]uint32{x, y, width, height}
}

func (r *renderPass) DrawIndexed(indexCount, instanceCount uint32) {
	r.pass.Draws = append(r.pass.Draws, Draw{
		Pipeline:      r.pipeline,
		BindGroup:     r.bindGroup,
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
	})
}

func (r *renderPass) End() { r.pass.Ended = true }

// Submit implements backend.Encoder. The recorded passes stay available.
func (e *Encoder) Submit() error { return nil }
