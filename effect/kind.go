package effect

// Kind identifies one stage of the chain. The numeric order of the
// constants is the execution order.
type Kind uint8

// Stage kinds in execution order.
const (
	// ColorEffect applies HSB, color balance, color scale, vignette and color
	// filter in one pass.
	ColorEffect Kind = iota
	BlurDirectKind
	BlurDualKind
	BlurRadialKind
	BlurBokehKind
	BloomDualKind
	RadialWaveKind
	HorizonGlitchKind
	FilterSobelKind
	CopyIntensityKind
	// FinalCopy copies the source with the composite's matrix and alpha when
	// no other stage runs.
	FinalCopy

	kindEnd
)

// KindCount is the number of stage kinds.
const KindCount = int(kindEnd)

var kindNames = [KindCount]string{
	ColorEffect:       "ColorEffect",
	BlurDirectKind:    "BlurDirect",
	BlurDualKind:      "BlurDual",
	BlurRadialKind:    "BlurRadial",
	BlurBokehKind:     "BlurBokeh",
	BloomDualKind:     "BloomDual",
	RadialWaveKind:    "RadialWave",
	HorizonGlitchKind: "HorizonGlitch",
	FilterSobelKind:   "FilterSobel",
	CopyIntensityKind: "CopyIntensity",
	FinalCopy:         "FinalCopy",
}

// String returns the kind's name.
func (k Kind) String() string {
	if int(k) >= KindCount {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Materials returns the materials a stage of kind k draws with. The last
// one writes the stage's output; the others render internal levels.
func (k Kind) Materials() (final string, internal []string) {
	switch k {
	case ColorEffect:
		return MaterialColor, nil
	case BlurDirectKind:
		return MaterialBlurDirect, nil
	case BlurDualKind:
		return MaterialBlurDualUp, []string{MaterialBlurDualDown, MaterialBlurDualUp}
	case BlurRadialKind:
		return MaterialBlurRadial, nil
	case BlurBokehKind:
		return MaterialBlurBokeh, nil
	case BloomDualKind:
		return MaterialBloomCombine, []string{MaterialBloomFilter, MaterialBlurDualDown, MaterialBlurDualUp}
	case RadialWaveKind:
		return MaterialRadialWave, nil
	case HorizonGlitchKind:
		return MaterialHorizonGlitch, nil
	case FilterSobelKind:
		return MaterialFilterSobel, nil
	case CopyIntensityKind:
		return MaterialCopyIntensity, nil
	default:
		return MaterialCopy, nil
	}
}
