// Package world is a static collision scene of boxes and spheres behind a spatial hash
// broadphase. It implements collision.Adapter with exact capsule sweeps and overlaps.
package world

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/kcc/collision"
)

type ColliderShape int

const (
	ShapeBox ColliderShape = iota
	ShapeSphere
)

func (s ColliderShape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	}
	return "unknown"
}

// Collider is a static convex solid.
type Collider struct {
	id    uuid.UUID
	layer collision.Mask

	Name        string
	Shape       ColliderShape
	Center      mgl32.Vec3
	Rotation    mgl32.Quat
	HalfExtents mgl32.Vec3 // box
	Radius      float32    // sphere
}

// NewBox builds an oriented box. Half extents below a millimeter are raised to it.
func NewBox(name string, center, halfExtents mgl32.Vec3, rotation mgl32.Quat, layer collision.Mask) *Collider {
	for i := range halfExtents {
		if halfExtents[i] < 0.001 {
			halfExtents[i] = 0.001
		}
	}
	if rotation.Len() == 0 {
		rotation = mgl32.QuatIdent()
	}
	return &Collider{
		id:          uuid.New(),
		layer:       layer,
		Name:        name,
		Shape:       ShapeBox,
		Center:      center,
		Rotation:    rotation.Normalize(),
		HalfExtents: halfExtents,
	}
}

func NewSphere(name string, center mgl32.Vec3, radius float32, layer collision.Mask) *Collider {
	return &Collider{
		id:       uuid.New(),
		layer:    layer,
		Name:     name,
		Shape:    ShapeSphere,
		Center:   center,
		Rotation: mgl32.QuatIdent(),
		Radius:   math32.Max(radius, 0.001),
	}
}

func (c *Collider) ID() collision.ColliderID { return c.id }
func (c *Collider) Layer() collision.Mask    { return c.layer }

// Bounds is the world space AABB of the collider.
func (c *Collider) Bounds() cube.BBox {
	var ext mgl32.Vec3
	switch c.Shape {
	case ShapeSphere:
		ext = mgl32.Vec3{c.Radius, c.Radius, c.Radius}
	default:
		m := c.Rotation.Mat4()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				ext[i] += math32.Abs(m.At(i, j)) * c.HalfExtents[j]
			}
		}
	}
	lo := c.Center.Sub(ext)
	hi := c.Center.Add(ext)
	return cube.Box(lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y(), hi.Z())
}

// ClosestPoint returns the point of the solid nearest to p. Points inside map to themselves.
func (c *Collider) ClosestPoint(p mgl32.Vec3) mgl32.Vec3 {
	switch c.Shape {
	case ShapeSphere:
		d := p.Sub(c.Center)
		if d.Len() <= c.Radius {
			return p
		}
		return c.Center.Add(d.Normalize().Mul(c.Radius))
	default:
		local := c.Rotation.Conjugate().Rotate(p.Sub(c.Center))
		for i := range local {
			local[i] = mgl32.Clamp(local[i], -c.HalfExtents[i], c.HalfExtents[i])
		}
		return c.Center.Add(c.Rotation.Rotate(local))
	}
}

// segmentDistance returns the distance from segment ab to the solid and the closest pair.
func (c *Collider) segmentDistance(a, b mgl32.Vec3) (float32, mgl32.Vec3, mgl32.Vec3) {
	if c.Shape == ShapeSphere {
		onSeg := closestOnSegment(a, b, c.Center)
		onShape := c.ClosestPoint(onSeg)
		return onSeg.Sub(onShape).Len(), onSeg, onShape
	}

	// distance to a convex solid is convex along the segment
	f := func(t float32) float32 {
		p := a.Add(b.Sub(a).Mul(t))
		return p.Sub(c.ClosestPoint(p)).LenSqr()
	}
	lo, hi := float32(0), float32(1)
	const invPhi = 0.618034
	x1 := hi - invPhi*(hi-lo)
	x2 := lo + invPhi*(hi-lo)
	f1, f2 := f(x1), f(x2)
	for i := 0; i < 40 && hi-lo > 1e-6; i++ {
		if f1 <= f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - invPhi*(hi-lo)
			f1 = f(x1)
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + invPhi*(hi-lo)
			f2 = f(x2)
		}
	}
	best := (lo + hi) / 2
	// the ends are candidates too when the minimum sits on them
	for _, t := range []float32{0, 1} {
		if f(t) < f(best) {
			best = t
		}
	}
	onSeg := a.Add(b.Sub(a).Mul(best))
	onShape := c.ClosestPoint(onSeg)
	return onSeg.Sub(onShape).Len(), onSeg, onShape
}

func closestOnSegment(a, b, p mgl32.Vec3) mgl32.Vec3 {
	ab := b.Sub(a)
	lenSq := ab.LenSqr()
	if lenSq == 0 {
		return a
	}
	t := mgl32.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Mul(t))
}
