// Command postfxplan prints the execution plan of a post-processing chain.
//
// It reads a YAML preset, runs the chain on a registered backend and prints
// the selected stages and the pool and pipeline statistics. The recorder
// backend also prints every render pass; the noop backend runs the chain
// through the gogpu/wgpu HAL translation instead. No GPU is needed.
//
// Usage:
//
//	postfxplan [-v] [-frames n] [-backend recorder|noop] preset.yaml
//	postfxplan < preset.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/backend"
	_ "github.com/gogpu/postfx/backend/native"
	_ "github.com/gogpu/postfx/backend/recorder"
	"github.com/gogpu/postfx/gpucore"
)

func main() {
	var (
		verbose = flag.Bool("v", false, "log debug output to stderr")
		frames  = flag.Int("frames", 0, "frames to run (overrides the preset)")
		name    = flag.String("backend", backend.BackendRecorder, "backend to run on")
	)
	flag.Parse()

	if *verbose {
		postfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("Failed to open preset: %v", err)
		}
		defer f.Close()
		in = f
	}

	preset, err := LoadPreset(in)
	if err != nil {
		log.Fatalf("Failed to load preset: %v", err)
	}
	if *frames > 0 {
		preset.Frames = *frames
	}
	if err := run(preset, *name, os.Stdout); err != nil {
		log.Fatalf("postfxplan: %v", err)
	}
}

// run executes the preset for its frame count on the named backend and
// writes the plan of each frame to w.
func run(p Preset, name string, w io.Writer) error {
	comp, err := p.composite()
	if err != nil {
		return err
	}

	b, err := backend.Open(name)
	if err != nil {
		return fmt.Errorf("backend %q: %w", name, err)
	}
	defer b.Close()
	dev := b.Device()

	pp, err := postfx.New(dev, postfx.WithGlitchSeed(p.Seed))
	if err != nil {
		return err
	}
	defer pp.Close()
	*pp.Effects() = p.Effects

	src, err := callerSurface(dev, "scene", p.Width, p.Height, comp.Format)
	if err != nil {
		return err
	}
	dst := postfx.Allocated(0, 0)
	if !p.Composite.Allocated {
		s, err := callerSurface(dev, "backbuffer", p.Width, p.Height, comp.Format)
		if err != nil {
			return err
		}
		dst = postfx.ToSurface(s)
	}

	for frame := 0; frame < p.Frames; frame++ {
		if err := pp.Check(p.DT, comp); err != nil {
			return err
		}
		enc, err := b.NewEncoder(fmt.Sprintf("frame-%d", frame))
		if err != nil {
			return err
		}
		out, err := pp.Draw(enc, src, dst)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if err := enc.Submit(); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		st := pp.Stats()

		fmt.Fprintf(w, "frame %d: %v\n", frame, pp.Flags())
		if wt, ok := enc.(io.WriterTo); ok {
			if _, err := wt.WriteTo(w); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "output: %v\n", out)
		fmt.Fprintf(w, "draws=%d instances=%d dropped=%d allocations=%d live=%d",
			st.Draws, st.Instances, st.DroppedStripes, st.Allocations, st.Live)
		if h, ok := enc.(interface{ Hazards() int }); ok {
			fmt.Fprintf(w, " hazards=%d", h.Hazards())
		}
		fmt.Fprintln(w)
		pp.Reset()
	}

	st := pp.Stats()
	fmt.Fprintf(w, "pipelines: materials=%d pipelines=%d hits=%d misses=%d (%.0f%% hit)\n",
		st.Pipelines.Materials, st.Pipelines.Pipelines, st.Pipelines.Hits, st.Pipelines.Misses,
		100*st.Pipelines.HitRate())
	fmt.Fprintf(w, "atlas: pages=%d slots=%d free=%d rects=%d bytes=%d utilization=%.2f\n",
		st.Atlas.Pages, st.Atlas.Slots, st.Atlas.Free, st.Atlas.Rects, st.Atlas.Bytes, st.Atlas.Utilization)
	return nil
}

func callerSurface(dev gpucore.Device, label string, w, h int, format gpucore.SurfaceFormat) (gpucore.SurfaceDesc, error) {
	tex, err := dev.CreateTexture(&gpucore.TextureDesc{
		Label:  label,
		Width:  w,
		Height: h,
		Format: format,
		Usage:  gpucore.TextureUsageTextureBinding | gpucore.TextureUsageRenderAttachment,
	})
	if err != nil {
		return gpucore.SurfaceDesc{}, err
	}
	view, err := dev.CreateTextureView(tex)
	if err != nil {
		return gpucore.SurfaceDesc{}, err
	}
	return gpucore.NewSurfaceDesc(tex, view, w, h, format), nil
}
