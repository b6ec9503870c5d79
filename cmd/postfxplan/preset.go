package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/effect"
	"github.com/gogpu/postfx/gpucore"
)

// Preset is a YAML description of one frame setup.
//
//	width: 1024
//	height: 768
//	format: BGRA8Unorm
//	composite:
//	  blend: Alpha
//	  alpha: 0.8
//	effects:
//	  blur_dual: {radius: 2, iteration: 3, intensity: 1}
type Preset struct {
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	Format    string     `yaml:"format"`
	Frames    int        `yaml:"frames"`
	DT        float32    `yaml:"dt"`
	Seed      uint64     `yaml:"seed"`
	Composite Composite  `yaml:"composite"`
	Effects   effect.Set `yaml:"effects"`
}

// Composite is the YAML form of postfx.Composite.
type Composite struct {
	Blend string   `yaml:"blend"`
	Alpha *float32 `yaml:"alpha"`
	// Destination allocates the output from the atlas instead of a
	// caller texture.
	Allocated bool `yaml:"allocated"`
}

func defaultPreset() Preset {
	return Preset{
		Width:  1280,
		Height: 720,
		Format: gpucore.FormatBGRA8Unorm.String(),
		Frames: 1,
		DT:     16,
		Seed:   1,
	}
}

// LoadPreset decodes a preset, filling unset fields with defaults.
func LoadPreset(r io.Reader) (Preset, error) {
	p := defaultPreset()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return Preset{}, fmt.Errorf("preset size %dx%d must be positive", p.Width, p.Height)
	}
	if p.Frames <= 0 {
		p.Frames = 1
	}
	return p, nil
}

// composite converts the preset to the final-stage composite.
func (p Preset) composite() (postfx.Composite, error) {
	format, err := parseFormat(p.Format)
	if err != nil {
		return postfx.Composite{}, err
	}
	comp := postfx.NewComposite(format)
	if p.Composite.Blend != "" {
		if comp.Blend, err = parseBlend(p.Composite.Blend); err != nil {
			return postfx.Composite{}, err
		}
	}
	if p.Composite.Alpha != nil {
		comp.Alpha = *p.Composite.Alpha
		comp.Transparent = comp.Alpha == 0
	}
	return comp, nil
}

func parseFormat(name string) (gpucore.SurfaceFormat, error) {
	for i := 1; i < gpucore.SurfaceFormatCount; i++ {
		f := gpucore.SurfaceFormat(i)
		if strings.EqualFold(f.String(), name) {
			return f, nil
		}
	}
	return gpucore.FormatUndefined, fmt.Errorf("unknown format %q", name)
}

func parseBlend(name string) (gpucore.BlendMode, error) {
	for i := 0; i < gpucore.BlendModeCount; i++ {
		m := gpucore.BlendMode(i)
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return gpucore.BlendNone, fmt.Errorf("unknown blend mode %q", name)
}
