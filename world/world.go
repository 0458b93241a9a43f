package world

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/collision"
	"github.com/gekko3d/kcc/logging"
)

const (
	// contactTolerance is how close conservative advancement must get to call it a contact.
	contactTolerance float32 = 1e-4
	maxAdvanceSteps          = 64
)

// World holds static colliders. Queries may run while no colliders are being added.
type World struct {
	mu   sync.RWMutex
	log  logging.Logger
	grid *Grid

	colliders []*Collider
}

func New(cellSize float32, log logging.Logger) *World {
	return &World{
		log:  logging.OrNop(log),
		grid: NewGrid(cellSize),
	}
}

func (w *World) Add(cs ...*Collider) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range cs {
		w.colliders = append(w.colliders, c)
		w.grid.Insert(c)
		w.log.Debugf("world: added %s %q", c.Shape, c.Name)
	}
}

func (w *World) Remove(id collision.ColliderID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, c := range w.colliders {
		if c.ID() == id {
			w.colliders = append(w.colliders[:i], w.colliders[i+1:]...)
			return w.grid.Remove(id)
		}
	}
	return false
}

func (w *World) Colliders() []*Collider {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Collider(nil), w.colliders...)
}

func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

// Sweep moves the capsule along dir and reports every collider it would touch within
// maxDistance, nearest first. Colliders already within radius at the start are reported
// with Distance 0.
func (w *World) Sweep(c collision.Capsule, radius float32, dir mgl32.Vec3, maxDistance float32, mask collision.Mask) []collision.Hit {
	if dir.LenSqr() == 0 || maxDistance < 0 {
		return nil
	}
	dir = dir.Normalize()

	w.mu.RLock()
	candidates := w.grid.Query(c.SweptBounds(radius+contactTolerance, dir, maxDistance))
	w.mu.RUnlock()

	var hits []collision.Hit
	for _, col := range candidates {
		if !mask.Has(col.Layer()) {
			continue
		}
		if h, ok := sweepOne(col, c, radius, dir, maxDistance); ok {
			hits = append(hits, h)
		}
	}
	collision.SortHits(hits)
	return hits
}

func (w *World) SweepFirst(c collision.Capsule, radius float32, dir mgl32.Vec3, maxDistance float32, mask collision.Mask) (collision.Hit, bool) {
	hits := w.Sweep(c, radius, dir, maxDistance, mask)
	for _, h := range hits {
		if !h.Started() {
			return h, true
		}
	}
	return collision.Hit{}, false
}

// Overlap returns every collider closer to the capsule segment than radius.
func (w *World) Overlap(c collision.Capsule, radius float32, mask collision.Mask) []collision.Collider {
	w.mu.RLock()
	candidates := w.grid.Query(c.Bounds(radius))
	w.mu.RUnlock()

	var out []collision.Collider
	for _, col := range candidates {
		if !mask.Has(col.Layer()) {
			continue
		}
		if d, _, _ := col.segmentDistance(c.A, c.B); d < radius {
			out = append(out, col)
		}
	}
	return out
}

// sweepOne advances the capsule toward col by the current separation until it touches.
func sweepOne(col *Collider, c collision.Capsule, radius float32, dir mgl32.Vec3, maxDistance float32) (collision.Hit, bool) {
	var t float32
	prevGap := math32.Inf(1)
	for step := 0; step < maxAdvanceSteps; step++ {
		moved := c.Translate(dir.Mul(t))
		d, onSeg, onShape := col.segmentDistance(moved.A, moved.B)
		gap := d - radius
		if gap <= contactTolerance {
			if t == 0 {
				return collision.Hit{Collider: col}, true
			}
			return contact(col, onSeg, onShape, t), true
		}
		// separation is convex in t: once it stops shrinking it never closes
		if gap >= prevGap {
			return collision.Hit{}, false
		}
		prevGap = gap
		t += gap
		if t > maxDistance {
			return collision.Hit{}, false
		}
	}
	// grazing approach that never closed in: report where the advance stopped
	moved := c.Translate(dir.Mul(t))
	_, onSeg, onShape := col.segmentDistance(moved.A, moved.B)
	return contact(col, onSeg, onShape, t), true
}

func contact(col *Collider, onSeg, onShape mgl32.Vec3, t float32) collision.Hit {
	normal := onSeg.Sub(onShape)
	if normal.LenSqr() > 0 {
		normal = normal.Normalize()
	}
	return collision.Hit{
		Point:    onShape,
		Normal:   normal,
		Distance: t,
		Collider: col,
	}
}
