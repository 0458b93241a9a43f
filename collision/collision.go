// Package collision defines the boundary between the controller and whatever spatial
// index the host provides. The controller never queries world geometry directly; every
// cast goes through an Adapter.
package collision

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type ColliderID = uuid.UUID

// Mask is a layer bitmask. A collider takes part in a query when its layer intersects the mask.
type Mask uint32

const (
	MaskNone Mask = 0
	MaskAll  Mask = ^Mask(0)
)

func (m Mask) Has(layer Mask) bool {
	return m&layer != 0
}

type Collider interface {
	ID() ColliderID
	Layer() Mask
}

// Hit is one contact reported by a sweep. A Distance of exactly 0 means the sweep started
// inside the struck collider and carries no usable point or normal.
type Hit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
	Collider Collider
}

// Started reports whether the hit is the "already overlapping at start" sentinel.
func (h Hit) Started() bool {
	return h.Distance == 0
}

// Capsule is a swept segment: the two hemisphere centers of a capsule.
type Capsule struct {
	A mgl32.Vec3
	B mgl32.Vec3
}

func (c Capsule) Translate(v mgl32.Vec3) Capsule {
	return Capsule{A: c.A.Add(v), B: c.B.Add(v)}
}

// Bounds returns the axis aligned box enclosing the capsule with the given radius.
func (c Capsule) Bounds(radius float32) cube.BBox {
	return cube.Box(
		math32.Min(c.A.X(), c.B.X())-radius,
		math32.Min(c.A.Y(), c.B.Y())-radius,
		math32.Min(c.A.Z(), c.B.Z())-radius,
		math32.Max(c.A.X(), c.B.X())+radius,
		math32.Max(c.A.Y(), c.B.Y())+radius,
		math32.Max(c.A.Z(), c.B.Z())+radius,
	)
}

// SweptBounds returns the box enclosing the capsule along the whole sweep.
func (c Capsule) SweptBounds(radius float32, dir mgl32.Vec3, distance float32) cube.BBox {
	start := c.Bounds(radius)
	end := c.Translate(dir.Mul(distance)).Bounds(radius)
	return cube.Box(
		math32.Min(start.Min().X(), end.Min().X()),
		math32.Min(start.Min().Y(), end.Min().Y()),
		math32.Min(start.Min().Z(), end.Min().Z()),
		math32.Max(start.Max().X(), end.Max().X()),
		math32.Max(start.Max().Y(), end.Max().Y()),
		math32.Max(start.Max().Z(), end.Max().Z()),
	)
}

// Adapter is the spatial query service the resolver and validator run against.
// Sweep results must be ordered by ascending distance.
type Adapter interface {
	Sweep(c Capsule, radius float32, dir mgl32.Vec3, maxDistance float32, mask Mask) []Hit
	SweepFirst(c Capsule, radius float32, dir mgl32.Vec3, maxDistance float32, mask Mask) (Hit, bool)
	Overlap(c Capsule, radius float32, mask Mask) []Collider
}

// SortHits orders hits by ascending distance, keeping the relative order of ties.
func SortHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
}

// IgnoreSet holds colliders excluded from a query, typically the actor's own child colliders.
type IgnoreSet map[ColliderID]struct{}

func NewIgnoreSet(ids ...ColliderID) IgnoreSet {
	s := make(IgnoreSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IgnoreSet) Add(id ColliderID) {
	s[id] = struct{}{}
}

// Ignores reports whether c belongs to the set. A nil collider is never ignored.
func (s IgnoreSet) Ignores(c Collider) bool {
	if c == nil || s == nil {
		return false
	}
	_, ok := s[c.ID()]
	return ok
}

// FilterHits drops hits whose collider is ignored. The input slice is reused.
func FilterHits(hits []Hit, ignore IgnoreSet) []Hit {
	if len(ignore) == 0 {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		if !ignore.Ignores(h.Collider) {
			out = append(out, h)
		}
	}
	return out
}
