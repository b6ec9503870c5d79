package atlas

import "fmt"

// Region is a rectangle inside an atlas page.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// IsValid returns true if the region has valid dimensions.
func (r Region) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// Fits reports whether a width x height rectangle fits inside r.
func (r Region) Fits(width, height int) bool {
	return width <= r.Width && height <= r.Height
}

// Area returns Width*Height.
func (r Region) Area() int {
	return r.Width * r.Height
}

// Overlaps reports whether r and o share any texel.
func (r Region) Overlaps(o Region) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf is a horizontal band of the page.
type shelf struct {
	y      int // top edge
	height int // tallest item so far, padding included
	nextX  int // next free x
}

// rectAllocator packs rectangles into a fixed area using shelves.
//
// Each new rectangle goes on the first shelf with room for it, or on a new
// shelf below the last one. Space is never returned; the atlas recycles whole
// slots instead.
type rectAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	count    int
	usedArea int
}

func newRectAllocator(width, height, padding int) *rectAllocator {
	if padding < 0 {
		padding = 0
	}
	return &rectAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate returns an invalid region when the rectangle does not fit.
func (a *rectAllocator) allocate(width, height int) Region {
	if width <= 0 || height <= 0 {
		return Region{}
	}

	pw := width + a.padding
	ph := height + a.padding
	if width > a.width || height > a.height {
		return Region{}
	}

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.nextX+width > a.width {
			continue
		}
		// Shelves are created with their first item, so they never grow.
		if ph > s.height {
			continue
		}
		r := Region{X: s.nextX, Y: s.y, Width: width, Height: height}
		s.nextX += pw
		a.record(r)
		return r
	}

	y := 0
	if n := len(a.shelves); n > 0 {
		y = a.shelves[n-1].y + a.shelves[n-1].height
	}
	if y+height > a.height {
		return Region{}
	}
	a.shelves = append(a.shelves, shelf{y: y, height: ph, nextX: pw})
	r := Region{X: 0, Y: y, Width: width, Height: height}
	a.record(r)
	return r
}

func (a *rectAllocator) record(r Region) {
	a.count++
	a.usedArea += r.Area()
}

// utilization returns the fraction of area handed out (0.0 to 1.0).
func (a *rectAllocator) utilization() float64 {
	total := a.width * a.height
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}
