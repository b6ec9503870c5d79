// Package atlas packs short-lived render surfaces into shared GPU textures.
//
// An [Atlas] owns a set of pages. Each page is one texture usable both as a
// render attachment and as a sampled texture. Allocations are rectangular
// slots on a page; released slots go to a free list and are reused by later
// allocations of the same format that fit inside them.
//
// A texture cannot be sampled and rendered to within the same pass, even on
// disjoint regions, so the unit of exclusion is the page texture: Allocate
// never places a surface on a page whose texture is listed in exclude.
package atlas

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/postfx/gpucore"
)

// Atlas errors.
var (
	// ErrAtlasFull is returned when no page can hold the request and the
	// page limit has been reached.
	ErrAtlasFull = errors.New("atlas: surface atlas is full")

	// ErrAtlasClosed is returned when operating on a closed atlas.
	ErrAtlasClosed = errors.New("atlas: surface atlas is closed")

	// ErrInvalidSize is returned for empty or negative sizes.
	ErrInvalidSize = errors.New("atlas: invalid surface size")

	// ErrInvalidFormat is returned for an undefined surface format.
	ErrInvalidFormat = errors.New("atlas: invalid surface format")
)

// Default atlas settings.
const (
	// DefaultPageSize is the default page dimension (2048x2048).
	DefaultPageSize = 2048

	// MinPageSize is the minimum page dimension (256x256).
	MinPageSize = 256

	// DefaultShelfPadding is the padding between slots.
	DefaultShelfPadding = 1

	// DefaultMaxPages bounds the number of live pages across all formats.
	DefaultMaxPages = 16
)

// Config holds configuration for creating an Atlas.
type Config struct {
	// PageSize is the page width and height in pixels. Requests larger than
	// a page get a dedicated page of their own size. Defaults to
	// DefaultPageSize.
	PageSize int

	// Padding is the spacing between slots. Defaults to DefaultShelfPadding;
	// use a negative value for no padding.
	Padding int

	// MaxPages is the page limit. Defaults to DefaultMaxPages.
	MaxPages int

	// Label prefixes page texture labels.
	Label string
}

func (c Config) withDefaults() Config {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize < MinPageSize {
		c.PageSize = MinPageSize
	}
	switch {
	case c.Padding == 0:
		c.Padding = DefaultShelfPadding
	case c.Padding < 0:
		c.Padding = 0
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Label == "" {
		c.Label = "postfx-atlas"
	}
	return c
}

// SlotID identifies an allocation. The zero SlotID is never returned.
type SlotID uint32

// Allocation is the result of a successful Allocate.
type Allocation struct {
	Slot    SlotID
	Surface gpucore.SurfaceDesc
}

type page struct {
	index   int
	texture gpucore.TextureID
	view    gpucore.TextureViewID
	format  gpucore.SurfaceFormat
	width   int
	height  int
	rects   *rectAllocator
}

type slot struct {
	page     *page
	capacity Region
	live     bool
}

// Atlas is a paged surface allocator.
//
// Atlas is safe for concurrent use.
type Atlas struct {
	mu     sync.Mutex
	device gpucore.Device
	config Config

	pages []*page
	slots []slot // slots[id-1]
	free  []SlotID

	closed bool
}

// New creates an atlas that allocates pages from device on demand.
func New(device gpucore.Device, config Config) *Atlas {
	return &Atlas{
		device: device,
		config: config.withDefaults(),
	}
}

// Allocate returns a width x height surface of the given format that does not
// live on any texture in exclude.
func (a *Atlas) Allocate(width, height int, format gpucore.SurfaceFormat, exclude []gpucore.TextureID) (Allocation, error) {
	if width <= 0 || height <= 0 {
		return Allocation{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if !format.Valid() {
		return Allocation{}, fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return Allocation{}, ErrAtlasClosed
	}

	if id, ok := a.reuse(width, height, format, exclude); ok {
		return a.allocation(id, width, height), nil
	}

	for _, p := range a.pages {
		if p.format != format || excluded(p.texture, exclude) {
			continue
		}
		if r := p.rects.allocate(width, height); r.IsValid() {
			return a.allocation(a.newSlot(p, r), width, height), nil
		}
	}

	if len(a.pages) >= a.config.MaxPages {
		return Allocation{}, fmt.Errorf("%w: %dx%d %v with %d pages", ErrAtlasFull, width, height, format, len(a.pages))
	}

	p, err := a.newPage(width, height, format)
	if err != nil {
		return Allocation{}, err
	}
	r := p.rects.allocate(width, height)
	if !r.IsValid() {
		// newPage sizes the page to fit the request.
		return Allocation{}, fmt.Errorf("%w: %dx%d does not fit a fresh %dx%d page",
			ErrAtlasFull, width, height, p.width, p.height)
	}
	return a.allocation(a.newSlot(p, r), width, height), nil
}

// reuse takes the smallest free slot that fits. Must be called with a.mu held.
func (a *Atlas) reuse(width, height int, format gpucore.SurfaceFormat, exclude []gpucore.TextureID) (SlotID, bool) {
	best := -1
	bestArea := 0
	for i, id := range a.free {
		s := &a.slots[id-1]
		if s.page.format != format || !s.capacity.Fits(width, height) {
			continue
		}
		if excluded(s.page.texture, exclude) {
			continue
		}
		if area := s.capacity.Area(); best < 0 || area < bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return 0, false
	}
	id := a.free[best]
	a.free = append(a.free[:best], a.free[best+1:]...)
	a.slots[id-1].live = true
	return id, true
}

func (a *Atlas) newSlot(p *page, r Region) SlotID {
	a.slots = append(a.slots, slot{page: p, capacity: r, live: true})
	return SlotID(len(a.slots)) //nolint:gosec // slot count is bounded by page area
}

func (a *Atlas) allocation(id SlotID, width, height int) Allocation {
	s := &a.slots[id-1]
	return Allocation{
		Slot: id,
		Surface: gpucore.SurfaceDesc{
			Texture:    s.page.texture,
			View:       s.page.view,
			X:          s.capacity.X,
			Y:          s.capacity.Y,
			Width:      width,
			Height:     height,
			FullWidth:  s.page.width,
			FullHeight: s.page.height,
			Format:     s.page.format,
		},
	}
}

func (a *Atlas) newPage(width, height int, format gpucore.SurfaceFormat) (*page, error) {
	pw := max(a.config.PageSize, width)
	ph := max(a.config.PageSize, height)
	label := fmt.Sprintf("%s-page-%d", a.config.Label, len(a.pages))

	tex, err := a.device.CreateTexture(&gpucore.TextureDesc{
		Label:  label,
		Width:  pw,
		Height: ph,
		Format: format,
		Usage: gpucore.TextureUsageTextureBinding |
			gpucore.TextureUsageRenderAttachment |
			gpucore.TextureUsageCopySrc |
			gpucore.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create atlas page texture: %w", err)
	}
	view, err := a.device.CreateTextureView(tex)
	if err != nil {
		a.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create atlas page view: %w", err)
	}

	p := &page{
		index:   len(a.pages),
		texture: tex,
		view:    view,
		format:  format,
		width:   pw,
		height:  ph,
		rects:   newRectAllocator(pw, ph, a.config.Padding),
	}
	a.pages = append(a.pages, p)
	slogger().Debug("atlas: page created",
		"label", label, "width", pw, "height", ph, "format", format.String(),
		"srgb", format.IsSRGB(), "bytes", p.bytes(), "pages", len(a.pages))
	return p, nil
}

func (p *page) bytes() int64 {
	return int64(p.width) * int64(p.height) * int64(p.format.BytesPerPixel())
}

// Release returns a slot to the free list. Releasing an unknown or already
// free slot is a no-op.
func (a *Atlas) Release(id SlotID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || id == 0 || int(id) > len(a.slots) {
		return
	}
	s := &a.slots[id-1]
	if !s.live {
		return
	}
	s.live = false
	a.free = append(a.free, id)
}

// Backing returns the page texture that holds a live slot.
func (a *Atlas) Backing(id SlotID) (gpucore.TextureID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id == 0 || int(id) > len(a.slots) || !a.slots[id-1].live {
		return gpucore.InvalidID, false
	}
	return a.slots[id-1].page.texture, true
}

// Stats describes atlas occupancy.
type Stats struct {
	Pages       int
	Slots       int
	Live        int
	Free        int
	Rects       int     // rectangles packed into pages
	Bytes       int64   // texture memory held by pages
	Utilization float64 // mean packed fraction over all pages
}

// Stats returns current occupancy.
func (a *Atlas) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Stats{
		Pages: len(a.pages),
		Slots: len(a.slots),
		Free:  len(a.free),
	}
	st.Live = st.Slots - st.Free
	if len(a.pages) > 0 {
		for _, p := range a.pages {
			st.Utilization += p.rects.utilization()
			st.Rects += p.rects.count
			st.Bytes += p.bytes()
		}
		st.Utilization /= float64(len(a.pages))
	}
	return st
}

// Close destroys every page. Surfaces handed out earlier must not be used
// afterwards.
func (a *Atlas) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	for _, p := range a.pages {
		a.device.DestroyTextureView(p.view)
		a.device.DestroyTexture(p.texture)
	}
	a.pages = nil
	a.slots = nil
	a.free = nil
	a.closed = true
}

// IsClosed returns true if the atlas has been closed.
func (a *Atlas) IsClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func excluded(tex gpucore.TextureID, exclude []gpucore.TextureID) bool {
	for _, e := range exclude {
		if e == tex {
			return true
		}
	}
	return false
}
