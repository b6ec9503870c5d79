package gpucore

import "github.com/gogpu/gputypes"

// PrimitiveTopology describes how vertices form primitives.
type PrimitiveTopology uint8

// Primitive topologies.
const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList

	topologyEnd
)

// PrimitiveTopologyCount is the number of PrimitiveTopology values.
const PrimitiveTopologyCount = int(topologyEnd)

// GPU returns the gputypes topology.
func (t PrimitiveTopology) GPU() gputypes.PrimitiveTopology {
	switch t {
	case TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case TopologyLineList:
		return gputypes.PrimitiveTopologyLineList
	case TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case TopologyPointList:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// CompareFunction is a depth comparison.
type CompareFunction uint8

// Compare functions.
const (
	CompareAlways CompareFunction = iota
	CompareNever
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareNotEqual
	CompareGreater
	CompareGreaterEqual

	compareEnd
)

// CompareFunctionCount is the number of CompareFunction values.
const CompareFunctionCount = int(compareEnd)

var compareFunctions = [CompareFunctionCount]gputypes.CompareFunction{
	CompareAlways:       gputypes.CompareFunctionAlways,
	CompareNever:        gputypes.CompareFunctionNever,
	CompareLess:         gputypes.CompareFunctionLess,
	CompareLessEqual:    gputypes.CompareFunctionLessEqual,
	CompareEqual:        gputypes.CompareFunctionEqual,
	CompareNotEqual:     gputypes.CompareFunctionNotEqual,
	CompareGreater:      gputypes.CompareFunctionGreater,
	CompareGreaterEqual: gputypes.CompareFunctionGreaterEqual,
}

// GPU returns the gputypes compare function.
func (c CompareFunction) GPU() gputypes.CompareFunction {
	if int(c) >= CompareFunctionCount {
		return gputypes.CompareFunctionAlways
	}
	return compareFunctions[c]
}

// DepthFormat is the format of an optional depth attachment.
type DepthFormat uint8

// Depth formats.
const (
	// DepthNone disables the depth attachment.
	DepthNone DepthFormat = iota
	Depth24Plus
	Depth24PlusStencil8
	Depth32Float

	depthFormatEnd
)

// DepthFormatCount is the number of DepthFormat values.
const DepthFormatCount = int(depthFormatEnd)

// GPU returns the gputypes texture format, or TextureFormatUndefined for
// DepthNone.
func (f DepthFormat) GPU() gputypes.TextureFormat {
	switch f {
	case Depth24Plus:
		return gputypes.TextureFormatDepth24Plus
	case Depth24PlusStencil8:
		return gputypes.TextureFormatDepth24PlusStencil8
	case Depth32Float:
		return gputypes.TextureFormatDepth32Float
	default:
		return gputypes.TextureFormatUndefined
	}
}

// DepthState configures depth testing. The zero value disables it.
type DepthState struct {
	Format  DepthFormat
	Write   bool
	Compare CompareFunction
}

// Enabled reports whether a depth attachment is used.
func (d DepthState) Enabled() bool {
	return d.Format != DepthNone
}

// Canonical returns d with every field cleared when depth is disabled, so
// that all disabled states compare equal.
func (d DepthState) Canonical() DepthState {
	if !d.Enabled() {
		return DepthState{}
	}
	return d
}

// VertexFormat is the data type of one vertex attribute.
type VertexFormat uint8

// Vertex formats.
const (
	VertexFloat32 VertexFormat = iota
	VertexFloat32x2
	VertexFloat32x4
)

// GPU returns the gputypes vertex format.
func (f VertexFormat) GPU() gputypes.VertexFormat {
	switch f {
	case VertexFloat32x2:
		return gputypes.VertexFormatFloat32x2
	case VertexFloat32x4:
		return gputypes.VertexFormatFloat32x4
	default:
		return gputypes.VertexFormatFloat32
	}
}

// VertexAttribute describes one attribute in a vertex buffer.
type VertexAttribute struct {
	Format   VertexFormat
	Offset   uint64
	Location uint32
}

// VertexLayout describes one vertex buffer slot.
type VertexLayout struct {
	Stride     uint64
	Instance   bool
	Attributes []VertexAttribute
}

// GPU returns the gputypes layout.
func (l VertexLayout) GPU() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format.GPU(),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	step := gputypes.VertexStepModeVertex
	if l.Instance {
		step = gputypes.VertexStepModeInstance
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    step,
		Attributes:  attrs,
	}
}

// RenderPipelineDesc describes a render pipeline with a single color target
// and a single bind group whose layout is given by Bindings.
type RenderPipelineDesc struct {
	Label         string
	Module        ShaderModuleID
	VertexEntry   string
	FragmentEntry string
	Vertex        []VertexLayout
	Bindings      []BindingType

	Format    SurfaceFormat
	Blend     BlendState
	WriteMask ColorWriteMask
	Topology  PrimitiveTopology
	Depth     DepthState
}
