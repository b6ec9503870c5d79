package gpucore

import "fmt"

// SurfaceDesc describes a readable and renderable sub-rectangle of a texture.
//
// Atlas allocations share one backing texture between many surfaces, so X, Y,
// Width and Height select the valid region while FullWidth and FullHeight give
// the dimensions of the backing texture.
type SurfaceDesc struct {
	Texture TextureID
	View    TextureViewID

	X, Y          int
	Width, Height int

	FullWidth, FullHeight int

	Format SurfaceFormat
}

// NewSurfaceDesc describes the whole of a width x height texture.
func NewSurfaceDesc(tex TextureID, view TextureViewID, width, height int, format SurfaceFormat) SurfaceDesc {
	return SurfaceDesc{
		Texture:    tex,
		View:       view,
		Width:      width,
		Height:     height,
		FullWidth:  width,
		FullHeight: height,
		Format:     format,
	}
}

// Valid reports whether the region is non-empty and inside its texture.
func (s SurfaceDesc) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		s.X >= 0 && s.Y >= 0 &&
		s.X+s.Width <= s.FullWidth && s.Y+s.Height <= s.FullHeight
}

// UVRect returns the normalized offset and scale of the region within its
// texture as {offsetU, offsetV, scaleU, scaleV}.
func (s SurfaceDesc) UVRect() [4]float32 {
	if s.FullWidth <= 0 || s.FullHeight <= 0 {
		return [4]float32{0, 0, 1, 1}
	}
	fw := float32(s.FullWidth)
	fh := float32(s.FullHeight)
	return [4]float32{
		float32(s.X) / fw,
		float32(s.Y) / fh,
		float32(s.Width) / fw,
		float32(s.Height) / fh,
	}
}

// TexelSize returns the size of one texel in normalized texture coordinates.
func (s SurfaceDesc) TexelSize() [2]float32 {
	if s.FullWidth <= 0 || s.FullHeight <= 0 {
		return [2]float32{0, 0}
	}
	return [2]float32{1 / float32(s.FullWidth), 1 / float32(s.FullHeight)}
}

// String returns a short description for logs.
func (s SurfaceDesc) String() string {
	return fmt.Sprintf("Surface(tex=%d %d,%d %dx%d of %dx%d %s)",
		s.Texture, s.X, s.Y, s.Width, s.Height, s.FullWidth, s.FullHeight, s.Format)
}
