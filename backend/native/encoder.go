// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/postfx/gpucore"
)

// Command encoder errors.
var (
	// ErrEncoderFinished is returned when an encoder is used after Finish
	// or Discard.
	ErrEncoderFinished = errors.New("native: encoder already finished")

	// ErrEncoderLocked is returned when Finish is called while a pass is
	// still recording.
	ErrEncoderLocked = errors.New("native: encoder is locked (pass in progress)")
)

// EncoderState is the state of an Encoder.
type EncoderState int

const (
	// EncoderRecording accepts new passes.
	EncoderRecording EncoderState = iota
	// EncoderLocked has a render pass in progress.
	EncoderLocked
	// EncoderFinished has been finished or discarded.
	EncoderFinished
)

// String returns the string representation of the state.
func (s EncoderState) String() string {
	switch s {
	case EncoderRecording:
		return "Recording"
	case EncoderLocked:
		return "Locked"
	case EncoderFinished:
		return "Finished"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Encoder implements gpucore.CommandEncoder on a HAL command encoder.
//
// State machine:
//
//	Recording -> BeginRenderPass -> Locked
//	Locked    -> RenderPass.End  -> Recording
//	Recording -> Finish/Discard  -> Finished
//
// gpucore.RenderPass methods cannot fail, so an unknown ID is remembered
// and reported by Finish; the offending command is skipped.
//
// Encoder is NOT safe for concurrent use.
type Encoder struct {
	mu     sync.Mutex
	device *Device
	raw    hal.CommandEncoder
	label  string
	state  EncoderState
	passes int
	err    error
}

var _ gpucore.CommandEncoder = (*Encoder)(nil)

// NewEncoder creates an encoder in the Recording state.
func (d *Device) NewEncoder(label string) (*Encoder, error) {
	raw, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := raw.BeginEncoding(label); err != nil {
		raw.Destroy()
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	return &Encoder{device: d, raw: raw, label: label}, nil
}

// State returns the current state.
func (e *Encoder) State() EncoderState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Passes returns the number of render passes begun so far.
func (e *Encoder) Passes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passes
}

func (e *Encoder) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		e.err = err
	}
}

// BeginRenderPass implements gpucore.CommandEncoder.
func (e *Encoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPass {
	e.mu.Lock()
	defer e.mu.Unlock()

	pass := &renderPass{enc: e}
	switch e.state {
	case EncoderFinished:
		e.setErr(ErrEncoderFinished)
		return pass
	case EncoderLocked:
		e.setErr(fmt.Errorf("native: pass %q begun while another is recording", desc.Label))
		return pass
	}

	target, ok := e.device.lookupView(desc.Target)
	if !ok {
		e.setErr(fmt.Errorf("%w: target view %d of pass %q", ErrUnknownResource, desc.Target, desc.Label))
		return pass
	}

	color := hal.RenderPassColorAttachment{
		View:    target,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if desc.Load == gpucore.LoadClear {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = gputypes.Color{R: desc.Clear[0], G: desc.Clear[1], B: desc.Clear[2], A: desc.Clear[3]}
	}
	rp := &hal.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	}
	if desc.DepthTarget != gpucore.InvalidID {
		depth, ok := e.device.lookupView(desc.DepthTarget)
		if !ok {
			e.setErr(fmt.Errorf("%w: depth view %d of pass %q", ErrUnknownResource, desc.DepthTarget, desc.Label))
			return pass
		}
		rp.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:         depth,
			DepthLoadOp:  gputypes.LoadOpLoad,
			DepthStoreOp: gputypes.StoreOpStore,
		}
	}

	pass.raw = e.raw.BeginRenderPass(rp)
	e.state = EncoderLocked
	e.passes++
	return pass
}

// setErr records the first error. Caller holds e.mu.
func (e *Encoder) setErr(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Finish ends encoding and returns the command buffer. It returns the first
// error recorded by a pass, after discarding the encoding.
func (e *Encoder) Finish() (hal.CommandBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case EncoderFinished:
		return nil, ErrEncoderFinished
	case EncoderLocked:
		return nil, ErrEncoderLocked
	}
	e.state = EncoderFinished
	if e.err != nil {
		e.raw.DiscardEncoding()
		return nil, e.err
	}
	cb, err := e.raw.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}
	return cb, nil
}

// Submit finishes the encoder and submits it to the device queue.
func (e *Encoder) Submit() (uint64, error) {
	cb, err := e.Finish()
	if err != nil {
		return 0, err
	}
	idx, err := e.device.queue.Submit([]hal.CommandBuffer{cb})
	if err != nil {
		return 0, fmt.Errorf("native: submit: %w", err)
	}
	slogger().Debug("native: submitted", "label", e.label, "passes", e.passes, "index", idx)
	return idx, nil
}

// Discard abandons the recorded commands.
func (e *Encoder) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EncoderFinished {
		return
	}
	e.state = EncoderFinished
	e.raw.DiscardEncoding()
}

// renderPass implements gpucore.RenderPass. A pass whose raw encoder is nil
// failed to begin and ignores every command.
type renderPass struct {
	enc   *Encoder
	raw   hal.RenderPassEncoder
	ended bool
}

func (p *renderPass) live() bool {
	return p.raw != nil && !p.ended
}

func (p *renderPass) SetPipeline(id gpucore.RenderPipelineID) {
	if !p.live() {
		return
	}
	pl, ok := p.enc.device.lookupPipeline(id)
	if !ok {
		p.enc.fail(fmt.Errorf("%w: pipeline %d", ErrUnknownResource, id))
		return
	}
	p.raw.SetPipeline(pl)
}

func (p *renderPass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if !p.live() {
		return
	}
	g, ok := p.enc.device.lookupBindGroup(id)
	if !ok {
		p.enc.fail(fmt.Errorf("%w: bind group %d", ErrUnknownResource, id))
		return
	}
	p.raw.SetBindGroup(index, g, nil)
}

func (p *renderPass) SetVertexBuffer(slot uint32, id gpucore.BufferID, offset uint64) {
	if !p.live() {
		return
	}
	b, ok := p.enc.device.lookupBuffer(id)
	if !ok {
		p.enc.fail(fmt.Errorf("%w: vertex buffer %d", ErrUnknownResource, id))
		return
	}
	p.raw.SetVertexBuffer(slot, b, offset)
}

func (p *renderPass) SetIndexBuffer(id gpucore.BufferID, offset uint64) {
	if !p.live() {
		return
	}
	b, ok := p.enc.device.lookupBuffer(id)
	if !ok {
		p.enc.fail(fmt.Errorf("%w: index buffer %d", ErrUnknownResource, id))
		return
	}
	p.raw.SetIndexBuffer(b, gputypes.IndexFormatUint16, offset)
}

func (p *renderPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	if p.live() {
		p.raw.SetViewport(x, y, width, height, minDepth, maxDepth)
	}
}

func (p *renderPass) SetScissorRect(x, y, width, height uint32) {
	if p.live() {
		p.raw.SetScissorRect(x, y, width, height)
	}
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount uint32) {
	if p.live() {
		p.raw.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
	}
}

func (p *renderPass) End() {
	if p.raw == nil || p.ended {
		return
	}
	p.ended = true
	p.raw.End()
	p.enc.mu.Lock()
	p.enc.state = EncoderRecording
	p.enc.mu.Unlock()
}
