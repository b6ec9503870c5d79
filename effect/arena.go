package effect

import (
	"fmt"

	"github.com/gogpu/postfx/gpucore"
)

// frameArena owns the uniform buffers and bind groups recorded during one
// frame. They must outlive command submission, so they are retired at the
// start of the next frame rather than after each draw. Uniform buffers are
// recycled; bind groups reference per-frame views and are destroyed.
type frameArena struct {
	device gpucore.Device

	free   []gpucore.BufferID
	used   []gpucore.BufferID
	groups []gpucore.BindGroupID
}

func (a *frameArena) uniform(data []byte) (gpucore.BufferID, error) {
	var id gpucore.BufferID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		var err error
		id, err = a.device.CreateBuffer(&gpucore.BufferDesc{
			Label: "postfx uniforms",
			Size:  UniformSize,
			Usage: gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, fmt.Errorf("effect: uniform buffer: %w", err)
		}
	}
	a.used = append(a.used, id)
	if err := a.device.WriteBuffer(id, 0, data); err != nil {
		return 0, fmt.Errorf("effect: upload uniforms: %w", err)
	}
	return id, nil
}

func (a *frameArena) bindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	id, err := a.device.CreateBindGroup(desc)
	if err != nil {
		return 0, fmt.Errorf("effect: bind group %s: %w", desc.Label, err)
	}
	a.groups = append(a.groups, id)
	return id, nil
}

// retire releases the previous frame's bind groups and makes its uniform
// buffers available again.
func (a *frameArena) retire() {
	for _, id := range a.groups {
		a.device.DestroyBindGroup(id)
	}
	a.groups = a.groups[:0]
	a.free = append(a.free, a.used...)
	a.used = a.used[:0]
}

func (a *frameArena) close() {
	a.retire()
	for _, id := range a.free {
		a.device.DestroyBuffer(id)
	}
	a.free = nil
}
