// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !(js && wasm)

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/postfx/backend"
	"github.com/gogpu/postfx/gpucore"
)

// init registers the headless HAL backend on package import.
func init() {
	backend.Register(backend.BackendNoop, func() backend.Backend {
		return &noopBackend{}
	})
}

// noopBackend runs Device on the wgpu noop adapter. Every descriptor goes
// through the HAL translation but nothing is drawn.
type noopBackend struct {
	hal hal.Device
	dev *Device
}

func (b *noopBackend) Name() string { return backend.BackendNoop }

func (b *noopBackend) Init() error {
	if b.dev != nil {
		return nil
	}
	open, err := (&noop.Adapter{}).Open(0, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("native: open noop adapter: %w", err)
	}
	dev, err := New(open.Device, open.Queue)
	if err != nil {
		open.Device.Destroy()
		return err
	}
	b.hal = open.Device
	b.dev = dev
	return nil
}

func (b *noopBackend) Close() {
	if b.hal != nil {
		b.hal.Destroy()
	}
	b.hal = nil
	b.dev = nil
}

func (b *noopBackend) Device() gpucore.Device {
	if b.dev == nil {
		return nil
	}
	return b.dev
}

func (b *noopBackend) NewEncoder(label string) (backend.Encoder, error) {
	if b.dev == nil {
		return nil, backend.ErrNotInitialized
	}
	enc, err := b.dev.NewEncoder(label)
	if err != nil {
		return nil, err
	}
	return submitter{enc}, nil
}

// submitter adapts Encoder.Submit to backend.Encoder.
type submitter struct {
	*Encoder
}

func (s submitter) Submit() error {
	_, err := s.Encoder.Submit()
	return err
}
