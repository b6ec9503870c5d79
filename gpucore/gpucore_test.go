package gpucore

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestSurfaceFormatGPU(t *testing.T) {
	tests := []struct {
		format SurfaceFormat
		want   gputypes.TextureFormat
	}{
		{FormatUndefined, gputypes.TextureFormatUndefined},
		{FormatRGBA8Unorm, gputypes.TextureFormatRGBA8Unorm},
		{FormatRGBA8UnormSRGB, gputypes.TextureFormatRGBA8UnormSrgb},
		{FormatBGRA8Unorm, gputypes.TextureFormatBGRA8Unorm},
		{FormatBGRA8UnormSRGB, gputypes.TextureFormatBGRA8UnormSrgb},
		{FormatRGBA16Float, gputypes.TextureFormatRGBA16Float},
		{FormatR8Unorm, gputypes.TextureFormatR8Unorm},
		{SurfaceFormat(200), gputypes.TextureFormatUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.GPU(); got != tt.want {
				t.Errorf("GPU() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatFromGPURoundTrip(t *testing.T) {
	for f := FormatRGBA8Unorm; f < surfaceFormatEnd; f++ {
		got, ok := FormatFromGPU(f.GPU())
		if !ok || got != f {
			t.Errorf("FormatFromGPU(%v) = %v, %v; want %v, true", f.GPU(), got, ok, f)
		}
	}

	if _, ok := FormatFromGPU(gputypes.TextureFormatDepth32Float); ok {
		t.Error("FormatFromGPU(Depth32Float) should not map to a surface format")
	}
}

func TestSurfaceFormatValid(t *testing.T) {
	if FormatUndefined.Valid() {
		t.Error("FormatUndefined.Valid() = true, want false")
	}
	if !FormatBGRA8Unorm.Valid() {
		t.Error("FormatBGRA8Unorm.Valid() = false, want true")
	}
	if SurfaceFormat(SurfaceFormatCount).Valid() {
		t.Error("out of range format reported valid")
	}
	if FormatR8Unorm.ColorChannels() {
		t.Error("FormatR8Unorm.ColorChannels() = true, want false")
	}
}

func TestBlendModeState(t *testing.T) {
	if BlendNone.State().Enabled {
		t.Error("BlendNone should disable blending")
	}
	if BlendNone.State().GPU() != nil {
		t.Error("BlendNone.State().GPU() should be nil")
	}

	got := BlendPremultiplied.State().GPU()
	want := gputypes.BlendStatePremultiplied()
	if got == nil || *got != want {
		t.Errorf("BlendPremultiplied GPU state = %+v, want %+v", got, want)
	}

	alpha := BlendAlpha.State().GPU()
	if alpha == nil || *alpha != gputypes.BlendStateAlpha() {
		t.Errorf("BlendAlpha GPU state = %+v, want %+v", alpha, gputypes.BlendStateAlpha())
	}

	seen := make(map[BlendState]BlendMode)
	for m := BlendMode(0); int(m) < BlendModeCount; m++ {
		s := m.State()
		if prev, dup := seen[s]; dup {
			t.Errorf("modes %v and %v share a blend state", prev, m)
		}
		seen[s] = m
	}
}

func TestBlendFactorTableComplete(t *testing.T) {
	for f := BlendFactor(0); int(f) < BlendFactorCount; f++ {
		if f.GPU() == gputypes.BlendFactorUndefined {
			t.Errorf("BlendFactor(%d) maps to Undefined", f)
		}
	}
	for op := BlendOperation(0); int(op) < BlendOperationCount; op++ {
		if op.GPU() == gputypes.BlendOperationUndefined {
			t.Errorf("BlendOperation(%d) maps to Undefined", op)
		}
	}
}

func TestColorWriteMaskGPU(t *testing.T) {
	if got := WriteAll.GPU(); got != gputypes.ColorWriteMaskAll {
		t.Errorf("WriteAll.GPU() = %v, want %v", got, gputypes.ColorWriteMaskAll)
	}
	if got := (WriteRed | WriteAlpha).GPU(); got != gputypes.ColorWriteMaskRed|gputypes.ColorWriteMaskAlpha {
		t.Errorf("(Red|Alpha).GPU() = %v", got)
	}
}

func TestDepthStateCanonical(t *testing.T) {
	a := DepthState{Write: true, Compare: CompareLess}
	if a.Enabled() {
		t.Error("depth without format should be disabled")
	}
	if a.Canonical() != (DepthState{}) {
		t.Errorf("Canonical() = %+v, want zero", a.Canonical())
	}

	b := DepthState{Format: Depth24Plus, Write: true, Compare: CompareLess}
	if b.Canonical() != b {
		t.Errorf("Canonical() changed an enabled state: %+v", b.Canonical())
	}
}

func TestSurfaceDescUVRect(t *testing.T) {
	s := SurfaceDesc{X: 512, Y: 256, Width: 256, Height: 128, FullWidth: 1024, FullHeight: 512}
	got := s.UVRect()
	want := [4]float32{0.5, 0.5, 0.25, 0.25}
	if got != want {
		t.Errorf("UVRect() = %v, want %v", got, want)
	}
	if !s.Valid() {
		t.Error("Valid() = false, want true")
	}

	s.X = 900
	if s.Valid() {
		t.Error("region past the texture edge reported valid")
	}
}

func TestNewSurfaceDesc(t *testing.T) {
	s := NewSurfaceDesc(7, 8, 800, 600, FormatBGRA8Unorm)
	if s.UVRect() != [4]float32{0, 0, 1, 1} {
		t.Errorf("full surface UVRect() = %v", s.UVRect())
	}
	if s.TexelSize() != [2]float32{1.0 / 800, 1.0 / 600} {
		t.Errorf("TexelSize() = %v", s.TexelSize())
	}
}

func TestVertexLayoutGPU(t *testing.T) {
	l := VertexLayout{
		Stride:   16,
		Instance: true,
		Attributes: []VertexAttribute{
			{Format: VertexFloat32x4, Offset: 0, Location: 2},
		},
	}
	g := l.GPU()
	if g.StepMode != gputypes.VertexStepModeInstance {
		t.Errorf("StepMode = %v, want Instance", g.StepMode)
	}
	if len(g.Attributes) != 1 || g.Attributes[0].Format != gputypes.VertexFormatFloat32x4 || g.Attributes[0].ShaderLocation != 2 {
		t.Errorf("Attributes = %+v", g.Attributes)
	}
}
