package geometry

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/postfx/backend/recorder"
)

func TestQuadLazyAndShared(t *testing.T) {
	dev := recorder.New()
	p := New(dev)
	defer p.Close()

	if n := dev.Created(recorder.OpCreateBuffer); n != 0 {
		t.Fatalf("buffers before first use = %d, want 0", n)
	}
	vb, ib, err := p.Quad()
	if err != nil {
		t.Fatal(err)
	}
	vb2, ib2, _ := p.Quad()
	if vb != vb2 || ib != ib2 {
		t.Error("Quad() returned new buffers on second call")
	}
	if n := dev.Created(recorder.OpCreateBuffer); n != 2 {
		t.Errorf("buffers created = %d, want 2", n)
	}
}

func TestQuadContents(t *testing.T) {
	dev := recorder.New()
	p := New(dev)
	defer p.Close()

	vb, ib, err := p.Quad()
	if err != nil {
		t.Fatal(err)
	}

	data, _ := dev.BufferData(vb)
	if len(data) != 4*QuadStride {
		t.Fatalf("vertex bytes = %d, want %d", len(data), 4*QuadStride)
	}
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	// Top-left vertex in clip space maps to uv (0, 0).
	if x, y, u, v := f(12), f(13), f(14), f(15); x != -1 || y != 1 || u != 0 || v != 0 {
		t.Errorf("vertex 3 = (%v, %v, %v, %v), want (-1, 1, 0, 0)", x, y, u, v)
	}

	idx, _ := dev.BufferData(ib)
	if len(idx)%4 != 0 {
		t.Errorf("index buffer size %d is not a multiple of 4", len(idx))
	}
	want := []uint16{0, 1, 2, 0, 2, 3}
	for i, w := range want {
		if got := binary.LittleEndian.Uint16(idx[i*2:]); got != w {
			t.Errorf("index %d = %d, want %d", i, got, w)
		}
	}
}

func TestInstancesGrow(t *testing.T) {
	dev := recorder.New()
	p := New(dev)
	defer p.Close()

	if _, err := p.Instances(nil); err == nil {
		t.Error("Instances(nil) should fail")
	}

	small := make([][4]float32, 3)
	small[2] = [4]float32{1, 2, 3, 4}
	a, err := p.Instances(small)
	if err != nil {
		t.Fatal(err)
	}
	if p.InstanceCapacity() != 8 {
		t.Errorf("capacity = %d, want 8", p.InstanceCapacity())
	}
	data, _ := dev.BufferData(a)
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[2*InstanceStride+12:])); got != 4 {
		t.Errorf("instance 2 w = %v, want 4", got)
	}

	b, _ := p.Instances(make([][4]float32, 8))
	if b != a {
		t.Error("buffer replaced although capacity sufficed")
	}
	c, err := p.Instances(make([][4]float32, 20))
	if err != nil {
		t.Fatal(err)
	}
	if c == a || p.InstanceCapacity() != 32 {
		t.Errorf("after growth: same buffer=%v capacity=%d", c == a, p.InstanceCapacity())
	}
	if n := dev.Live().Buffers; n != 1 {
		t.Errorf("live buffers = %d, want 1 (old instance buffer destroyed)", n)
	}
}

func TestClose(t *testing.T) {
	dev := recorder.New()
	p := New(dev)
	_, _, _ = p.Quad()
	_, _ = p.Instances(make([][4]float32, 1))

	p.Close()
	p.Close()
	if n := dev.Live().Buffers; n != 0 {
		t.Errorf("live buffers after Close = %d, want 0", n)
	}
	if _, _, err := p.Quad(); !errors.Is(err, ErrClosed) {
		t.Errorf("Quad() after Close: err = %v, want ErrClosed", err)
	}
}

func TestQuadDeviceFailure(t *testing.T) {
	dev := recorder.New()
	boom := errors.New("oom")
	dev.FailOn(recorder.OpCreateBuffer, boom)
	p := New(dev)
	defer p.Close()

	if _, _, err := p.Quad(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
	dev.FailOn(recorder.OpCreateBuffer, nil)
	if _, _, err := p.Quad(); err != nil {
		t.Errorf("retry: %v", err)
	}
}
