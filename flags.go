package postfx

import (
	"strings"

	"github.com/gogpu/postfx/effect"
)

// Effects holds the optional parameter blocks of every effect. A nil block
// is disabled. The caller mutates it between frames; Check reads it.
type Effects = effect.Set

// Kind identifies one stage of the chain.
type Kind = effect.Kind

// Stage kinds in execution order.
const (
	ColorEffect   = effect.ColorEffect
	BlurDirect    = effect.BlurDirectKind
	BlurDual      = effect.BlurDualKind
	BlurRadial    = effect.BlurRadialKind
	BlurBokeh     = effect.BlurBokehKind
	BloomDual     = effect.BloomDualKind
	RadialWave    = effect.RadialWaveKind
	HorizonGlitch = effect.HorizonGlitchKind
	FilterSobel   = effect.FilterSobelKind
	CopyIntensity = effect.CopyIntensityKind
	FinalCopy     = effect.FinalCopy
)

// Flags is the ordered list of stages Check selected for the frame. Order
// is execution order.
type Flags []Kind

// Contains reports whether k is one of the stages.
func (f Flags) Contains(k Kind) bool {
	for _, x := range f {
		if x == k {
			return true
		}
	}
	return false
}

// Last returns the stage that writes the destination.
func (f Flags) Last() (Kind, bool) {
	if len(f) == 0 {
		return 0, false
	}
	return f[len(f)-1], true
}

// String returns the stages joined by " -> ", or "none".
func (f Flags) String() string {
	if len(f) == 0 {
		return "none"
	}
	names := make([]string, len(f))
	for i, k := range f {
		names[i] = k.String()
	}
	return strings.Join(names, " -> ")
}
