package postfx

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/postfx/atlas"
	"github.com/gogpu/postfx/effect"
	"github.com/gogpu/postfx/gpucore"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.intermediate != gpucore.FormatRGBA8Unorm {
		t.Errorf("intermediate = %v, want RGBA8Unorm", o.intermediate)
	}
	if o.glitchSeed != 1 {
		t.Errorf("glitchSeed = %d, want 1", o.glitchSeed)
	}
	if o.atlas != nil || o.pipelines != nil || o.logger != nil {
		t.Error("shared resources set by default")
	}
}

func TestOptionsApply(t *testing.T) {
	cfg := atlas.Config{PageSize: 512, MaxPages: 2}
	o := defaultOptions()
	for _, opt := range []Option{
		WithAtlasConfig(cfg),
		WithIntermediateFormat(gpucore.FormatRGBA16Float),
		WithGlitchSeed(7),
		WithMaxGlitchInstances(3),
	} {
		opt(&o)
	}
	if o.atlasConfig != cfg {
		t.Errorf("atlasConfig = %+v, want %+v", o.atlasConfig, cfg)
	}
	if o.intermediate != gpucore.FormatRGBA16Float || o.glitchSeed != 7 || o.maxGlitch != 3 {
		t.Errorf("options = %+v", o)
	}
}

func TestWithIntermediateFormat(t *testing.T) {
	pp, dev := newTestPostProcess(t, WithIntermediateFormat(gpucore.FormatRGBA16Float))
	fx := pp.Effects()
	fx.ColorBalance = &effect.ColorBalance{R: 200, G: 255, B: 255}
	fx.BlurDual = &effect.BlurDual{Radius: 1, Iteration: 2, Intensity: 1}
	src := callerSurface(t, dev, 320, 240, testFormat)

	if err := pp.Check(16, NewComposite(testFormat)); err != nil {
		t.Fatal(err)
	}
	mid, err := pp.DrawFront(dev.NewEncoder(), src)
	if err != nil {
		t.Fatal(err)
	}
	if mid.Format != gpucore.FormatRGBA16Float {
		t.Errorf("intermediate format = %v, want RGBA16Float", mid.Format)
	}
}

func TestWithLoggerPerInstance(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pp, _ := newTestPostProcess(t, WithLogger(l))
	quiet, _ := newTestPostProcess(t)

	if err := quiet.Check(16, NewComposite(testFormat)); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("instance without WithLogger wrote %q", buf.String())
	}
	if err := pp.Check(16, NewComposite(testFormat)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "postfx: chain checked") {
		t.Errorf("log = %q, want chain checked entry", buf.String())
	}
}
