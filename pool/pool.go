// Package pool manages the render targets of one post-processing frame.
//
// A [Pool] hands out IDs for surfaces. An ID refers to an entry in an arena,
// and the entry refers to the allocator slot that backs it. Releasing an ID
// frees its arena entry and its slot without moving any other live surface.
// IDs increase monotonically and are never reused, so a stale ID can always
// be told apart from a live one.
//
// Surfaces are either borrowed from the caller with [Pool.RecordExisting]
// and never returned to the allocator, or owned and obtained with
// [Pool.Allocate]. [Pool.Reset] releases everything at the frame boundary.
//
// A Pool is not safe for concurrent use; it belongs to one orchestrator.
package pool

import (
	"errors"
	"fmt"

	"github.com/gogpu/postfx/atlas"
	"github.com/gogpu/postfx/gpucore"
)

// ErrExhausted wraps allocator failures.
var ErrExhausted = errors.New("pool: render target allocation failed")

// ID identifies a pooled surface within a frame.
type ID uint64

// NoID is the zero ID. It is never returned by the pool and means "no
// exclusion" when passed to Allocate.
const NoID ID = 0

// Allocator is the shared surface allocator backing the pool.
// *atlas.Atlas implements it.
type Allocator interface {
	Allocate(width, height int, format gpucore.SurfaceFormat, exclude []gpucore.TextureID) (atlas.Allocation, error)
	Release(slot atlas.SlotID)
}

type entry struct {
	id      ID
	surface gpucore.SurfaceDesc
	owned   bool
	slot    atlas.SlotID
}

// Pool is an arena of frame-scoped surfaces.
type Pool struct {
	alloc Allocator

	nextID  ID
	index   map[ID]int // id -> arena index
	arena   []entry
	vacant  []int
	live    int // owned entries outstanding
	allocs  int // Allocate calls since Reset
	history []ID

	// released remembers the backing texture of IDs released this frame so
	// that they can still be excluded.
	released map[ID]gpucore.TextureID
}

// New creates a pool backed by alloc.
func New(alloc Allocator) *Pool {
	return &Pool{
		alloc:    alloc,
		index:    make(map[ID]int),
		released: make(map[ID]gpucore.TextureID),
	}
}

// RecordExisting registers a caller-owned surface and returns its ID. The
// surface is never released to the allocator.
func (p *Pool) RecordExisting(s gpucore.SurfaceDesc) ID {
	return p.insert(entry{surface: s})
}

// Allocate obtains a new owned surface. When exclude names an entry of this
// frame, live or released, the new surface is guaranteed not to share that
// entry's backing texture.
func (p *Pool) Allocate(exclude ID, width, height int, format gpucore.SurfaceFormat) (ID, error) {
	if exclude == NoID {
		return p.AllocateExcluding(nil, width, height, format)
	}
	return p.AllocateExcluding([]ID{exclude}, width, height, format)
}

// AllocateExcluding is like Allocate but avoids the backing textures of
// every ID in exclude. Multi-pass effects use it to keep a level apart from
// both its input and the final destination.
func (p *Pool) AllocateExcluding(exclude []ID, width, height int, format gpucore.SurfaceFormat) (ID, error) {
	var excl []gpucore.TextureID
	for _, x := range exclude {
		if tex, ok := p.backing(x); ok {
			excl = append(excl, tex)
		}
	}

	a, err := p.alloc.Allocate(width, height, format, excl)
	if err != nil {
		return NoID, fmt.Errorf("%w: %dx%d %v: %w", ErrExhausted, width, height, format, err)
	}
	for _, tex := range excl {
		if a.Surface.Texture == tex {
			// The allocator broke its contract; do not hand out an aliasing
			// surface.
			p.alloc.Release(a.Slot)
			return NoID, fmt.Errorf("%w: allocator returned the excluded texture %d", ErrExhausted, tex)
		}
	}

	p.allocs++
	p.live++
	return p.insert(entry{surface: a.Surface, owned: true, slot: a.Slot}), nil
}

func (p *Pool) backing(id ID) (gpucore.TextureID, bool) {
	if id == NoID {
		return 0, false
	}
	if i, ok := p.index[id]; ok {
		return p.arena[i].surface.Texture, true
	}
	tex, ok := p.released[id]
	return tex, ok
}

func (p *Pool) insert(e entry) ID {
	p.nextID++
	e.id = p.nextID

	var i int
	if n := len(p.vacant); n > 0 {
		i = p.vacant[n-1]
		p.vacant = p.vacant[:n-1]
		p.arena[i] = e
	} else {
		i = len(p.arena)
		p.arena = append(p.arena, e)
	}
	p.index[e.id] = i
	p.history = append(p.history, e.id)
	return e.id
}

// Release frees id. Releasing an unknown or already released ID is a no-op.
func (p *Pool) Release(id ID) {
	i, ok := p.index[id]
	if !ok {
		return
	}
	e := p.arena[i]
	if e.owned {
		p.alloc.Release(e.slot)
		p.live--
	}
	p.released[id] = e.surface.Texture
	delete(p.index, id)
	p.arena[i] = entry{}
	p.vacant = append(p.vacant, i)
}

// Get returns the surface for id, or false if it was released.
func (p *Pool) Get(id ID) (gpucore.SurfaceDesc, bool) {
	i, ok := p.index[id]
	if !ok {
		return gpucore.SurfaceDesc{}, false
	}
	return p.arena[i].surface, true
}

// MustGet returns the surface for id and panics if it was released. Reading a
// released surface means its slot may already back another surface.
func (p *Pool) MustGet(id ID) gpucore.SurfaceDesc {
	s, ok := p.Get(id)
	if !ok {
		panic(fmt.Sprintf("pool: surface %d used after release", id))
	}
	return s
}

// Owned reports whether id is live and owned by the pool.
func (p *Pool) Owned(id ID) bool {
	i, ok := p.index[id]
	return ok && p.arena[i].owned
}

// Reset releases every ID created since the last Reset.
func (p *Pool) Reset() {
	for _, id := range p.history {
		p.Release(id)
	}
	p.history = p.history[:0]
	p.allocs = 0
	clear(p.released)
}

// Live returns the number of owned surfaces not yet released.
func (p *Pool) Live() int {
	return p.live
}

// Allocations returns how many surfaces were allocated since the last Reset.
func (p *Pool) Allocations() int {
	return p.allocs
}
