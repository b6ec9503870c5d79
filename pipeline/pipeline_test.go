package pipeline

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/postfx/backend/recorder"
	"github.com/gogpu/postfx/gpucore"
)

const testWGSL = `@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`

func testMaterial(name string) MaterialDesc {
	return MaterialDesc{
		Name:     name,
		WGSL:     testWGSL,
		Bindings: []gpucore.BindingType{gpucore.BindingUniform, gpucore.BindingSampler, gpucore.BindingTexture},
	}
}

func newTestManager(t *testing.T) (*Manager, *recorder.Device) {
	t.Helper()
	dev := recorder.New()
	m, err := NewManager(dev)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.DestroyAll)
	return m, dev
}

func TestKeyPackedDistinct(t *testing.T) {
	base := NewKey(gpucore.FormatBGRA8Unorm, gpucore.BlendAlpha)

	srcDst := base
	srcDst.Blend.Color.Src = gpucore.BlendFactorDst

	alphaOp := base
	alphaOp.Blend.Alpha.Op = gpucore.BlendOpMax

	noRed := base
	noRed.WriteMask = gpucore.WriteAll &^ gpucore.WriteRed

	keys := []Key{
		base,
		srcDst,
		alphaOp,
		noRed,
		NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendAlpha),
		NewKey(gpucore.FormatBGRA8Unorm, gpucore.BlendNone),
		NewKey(gpucore.FormatBGRA8Unorm, gpucore.BlendAdditive),
		NewKey(gpucore.FormatBGRA8Unorm, gpucore.BlendPremultiplied),
		base.WithDepth(gpucore.DepthState{Format: gpucore.Depth24Plus, Compare: gpucore.CompareLess}),
		base.WithDepth(gpucore.DepthState{Format: gpucore.Depth24Plus, Write: true, Compare: gpucore.CompareLess}),
	}

	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] == keys[j] {
				t.Fatalf("keys %d and %d are equal: %v", i, j, keys[i])
			}
		}
	}

	seen := make(map[uint64]int)
	for i, k := range keys {
		p := k.Packed()
		if j, dup := seen[p]; dup {
			t.Errorf("keys %d and %d pack to the same value %#x", j, i, p)
		}
		seen[p] = i
		if p>>PackedBits != 0 {
			t.Errorf("key %d packs beyond %d bits: %#x", i, PackedBits, p)
		}
	}
}

func TestKeyPackedStable(t *testing.T) {
	a := NewKey(gpucore.FormatRGBA16Float, gpucore.BlendScreen)
	b := NewKey(gpucore.FormatRGBA16Float, gpucore.BlendScreen)
	if a != b || a.Packed() != b.Packed() {
		t.Errorf("equal tuples differ: %v vs %v", a, b)
	}
}

func TestKeyCanonical(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
	}{
		{
			name: "disabled blend ignores factors",
			a:    NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendNone),
			b: Key{
				Format:    gpucore.FormatRGBA8Unorm,
				Blend:     gpucore.BlendState{Color: gpucore.BlendComponent{Src: gpucore.BlendFactorDst}},
				WriteMask: gpucore.WriteAll,
			},
		},
		{
			name: "disabled depth ignores compare",
			a:    NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendAlpha),
			b: NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendAlpha).
				WithDepth(gpucore.DepthState{Write: true, Compare: gpucore.CompareGreater}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.Canonical() != tt.b.Canonical() {
				t.Errorf("Canonical() differs: %+v vs %+v", tt.a.Canonical(), tt.b.Canonical())
			}
			if tt.a.Packed() != tt.b.Packed() {
				t.Errorf("Packed() = %#x, want %#x", tt.b.Packed(), tt.a.Packed())
			}
		})
	}
}

func TestNewManagerNilDevice(t *testing.T) {
	if _, err := NewManager(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("err = %v, want ErrNilDevice", err)
	}
}

func TestRegister(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Register(testMaterial("copy")); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(testMaterial("copy")); err != nil {
		t.Errorf("re-registering the same material: %v", err)
	}

	other := testMaterial("copy")
	other.Bindings = other.Bindings[:1]
	if err := m.Register(other); !errors.Is(err, ErrMaterialConflict) {
		t.Errorf("conflicting register: err = %v, want ErrMaterialConflict", err)
	}
	if err := m.Register(MaterialDesc{Name: "empty"}); err == nil {
		t.Error("material without source accepted")
	}
	if !m.Registered("copy") || m.Registered("empty") {
		t.Error("Registered() reports the wrong set")
	}
	if b, ok := m.Bindings("copy"); !ok || len(b) != 3 {
		t.Errorf("Bindings() = %v, %v", b, ok)
	}
}

func TestCheckPipelineIdempotent(t *testing.T) {
	m, dev := newTestManager(t)
	if err := m.Register(testMaterial("color")); err != nil {
		t.Fatal(err)
	}

	key := NewKey(gpucore.FormatBGRA8Unorm, gpucore.BlendAlpha)
	for i := 0; i < 3; i++ {
		if err := m.CheckPipeline("color", key); err != nil {
			t.Fatalf("CheckPipeline #%d: %v", i, err)
		}
	}
	if n := dev.Created(recorder.OpCreateRenderPipeline); n != 1 {
		t.Errorf("pipelines created = %d, want 1", n)
	}
	if n := dev.Created(recorder.OpCreateShaderModule); n != 1 {
		t.Errorf("shader modules created = %d, want 1", n)
	}

	st := m.Stats()
	if st.Hits != 2 || st.Misses != 1 || st.Pipelines != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, 1 pipeline", st)
	}
	if r := st.HitRate(); r < 0.66 || r > 0.67 {
		t.Errorf("HitRate() = %v, want 2/3", r)
	}

	id := m.Pipeline("color", key)
	desc, ok := dev.Pipeline(id)
	if !ok {
		t.Fatal("Pipeline() returned an id unknown to the device")
	}
	if desc.Format != gpucore.FormatBGRA8Unorm || desc.Blend != gpucore.BlendAlpha.State() {
		t.Errorf("pipeline built with %v/%+v", desc.Format, desc.Blend)
	}
	if desc.VertexEntry != "vs_main" || desc.FragmentEntry != "fs_main" {
		t.Errorf("entry points = %q/%q", desc.VertexEntry, desc.FragmentEntry)
	}
}

func TestCheckPipelineVariantsShareModule(t *testing.T) {
	m, dev := newTestManager(t)
	_ = m.Register(testMaterial("blur"))

	for mode := gpucore.BlendMode(0); int(mode) < gpucore.BlendModeCount; mode++ {
		if err := m.CheckPipeline("blur", NewKey(gpucore.FormatRGBA8Unorm, mode)); err != nil {
			t.Fatal(err)
		}
	}
	if n := dev.Created(recorder.OpCreateRenderPipeline); n != gpucore.BlendModeCount {
		t.Errorf("pipelines = %d, want %d", n, gpucore.BlendModeCount)
	}
	if n := dev.Created(recorder.OpCreateShaderModule); n != 1 {
		t.Errorf("shader modules = %d, want 1", n)
	}
}

func TestCheckPipelineErrors(t *testing.T) {
	m, dev := newTestManager(t)
	_ = m.Register(testMaterial("copy"))
	key := NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendNone)

	if err := m.CheckPipeline("missing", key); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("unknown material: err = %v", err)
	}
	if err := m.CheckPipeline("copy", NewKey(gpucore.FormatUndefined, gpucore.BlendNone)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("undefined format: err = %v", err)
	}

	boom := errors.New("driver lost")
	dev.FailOn(recorder.OpCreateRenderPipeline, boom)
	if err := m.CheckPipeline("copy", key); !errors.Is(err, boom) {
		t.Errorf("device failure: err = %v, want wrapped %v", err, boom)
	}
	if m.Has("copy", key) {
		t.Error("failed pipeline was cached")
	}

	dev.FailOn(recorder.OpCreateRenderPipeline, nil)
	if err := m.CheckPipeline("copy", key); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestPipelinePanicsBeforeCheck(t *testing.T) {
	m, _ := newTestManager(t)
	_ = m.Register(testMaterial("copy"))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Pipeline() before CheckPipeline did not panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "copy") {
			t.Errorf("panic message %q does not name the material", msg)
		}
	}()
	m.Pipeline("copy", NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendNone))
}

func TestSamplerCache(t *testing.T) {
	m, dev := newTestManager(t)

	linear := gpucore.SamplerDesc{Filter: gpucore.FilterLinear, Address: gpucore.AddressClampToEdge}
	a, err := m.Sampler(linear)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.Sampler(linear)
	c, _ := m.Sampler(gpucore.SamplerDesc{Filter: gpucore.FilterNearest, Address: gpucore.AddressClampToEdge})
	if a != b || a == c {
		t.Errorf("sampler ids = %d, %d, %d", a, b, c)
	}
	if n := dev.Created(recorder.OpCreateSampler); n != 2 {
		t.Errorf("samplers created = %d, want 2", n)
	}
}

func TestDestroyAll(t *testing.T) {
	dev := recorder.New()
	m, _ := NewManager(dev)
	_ = m.Register(testMaterial("copy"))
	_ = m.CheckPipeline("copy", NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendNone))
	_ = m.CheckPipeline("copy", NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendAlpha))
	_, _ = m.Sampler(gpucore.SamplerDesc{})

	m.DestroyAll()
	m.DestroyAll()
	if live := dev.Live(); live.Pipelines != 0 || live.ShaderModules != 0 || live.Samplers != 0 {
		t.Errorf("after DestroyAll: %+v", live)
	}
	if err := m.CheckPipeline("copy", NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendNone)); !errors.Is(err, ErrClosed) {
		t.Errorf("CheckPipeline after DestroyAll: err = %v, want ErrClosed", err)
	}
}

func TestCheckPipelineConcurrent(t *testing.T) {
	m, dev := newTestManager(t)
	_ = m.Register(testMaterial("copy"))
	key := NewKey(gpucore.FormatRGBA8Unorm, gpucore.BlendAlpha)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.CheckPipeline("copy", key); err != nil {
				t.Error(err)
			}
			_ = m.Pipeline("copy", key)
		}()
	}
	wg.Wait()
	if n := dev.Created(recorder.OpCreateRenderPipeline); n != 1 {
		t.Errorf("pipelines created = %d, want 1", n)
	}
}
