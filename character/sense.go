package character

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/collision"
)

const (
	// ledgeProbeRadius is the radius of the sphere dropped onto a ledge top.
	ledgeProbeRadius float32 = 0.05
	// ledgeInset is how far past the wall face the ledge probe is dropped.
	ledgeInset float32 = 0.05
	// ceilingDot rejects surfaces facing down more steeply than this.
	ceilingDot float32 = -0.5
)

// WallProbe is a steep surface found by a horizontal sweep.
type WallProbe struct {
	Found  bool
	Hit    collision.Hit
	Normal mgl32.Vec3
	// Side is +1 for a wall on the actor's right, -1 on its left, 0 ahead or behind.
	Side int
	// At is the tick the probe ran on.
	At uint64
}

// LedgeProbe is a walkable top found above a wall.
type LedgeProbe struct {
	Found bool
	Wall  WallProbe
	// Top is the point on the ledge surface.
	Top mgl32.Vec3
	// Height is Top above the capsule's lowest point.
	Height float32
	At     uint64
}

func (a *Actor) sweep(c collision.Capsule, radius float32, dir mgl32.Vec3, distance float32) (collision.Hit, bool) {
	hits := collision.FilterHits(a.Resolver.Adapter().Sweep(c, radius, dir, distance, a.Resolver.Mask), a.Ignore)
	if len(hits) == 0 {
		return collision.Hit{}, false
	}
	return hits[0], true
}

// SenseWall sweeps the capsule along dir for reach and reports the first steep surface.
func (a *Actor) SenseWall(dir mgl32.Vec3, reach float32) WallProbe {
	up := a.Up()
	dir = dir.Sub(up.Mul(dir.Dot(up)))
	if dir.LenSqr() < 1e-10 || reach <= 0 {
		return WallProbe{At: a.Ticks}
	}
	dir = dir.Normalize()

	hits := collision.FilterHits(a.Resolver.Adapter().Sweep(a.Shape.Ends(), a.Shape.Radius(), dir, reach, a.Resolver.Mask), a.Ignore)
	for _, h := range hits {
		if h.Started() {
			continue
		}
		if a.Shape.ValidSlope(h.Normal) || h.Normal.Dot(up) < ceilingDot {
			return WallProbe{At: a.Ticks}
		}
		wp := WallProbe{Found: true, Hit: h, Normal: h.Normal, At: a.Ticks}
		right := a.Facing().Cross(up)
		switch side := h.Normal.Mul(-1).Dot(right); {
		case side > 0.5:
			wp.Side = 1
		case side < -0.5:
			wp.Side = -1
		}
		return wp
	}
	return WallProbe{At: a.Ticks}
}

// SenseLedge looks for a wall along dir within reach, then drops a small sphere just past its
// face from maxHeight above the actor's feet. A hit on a walkable surface is a ledge; a probe
// that starts inside geometry means the wall is taller than maxHeight.
func (a *Actor) SenseLedge(dir mgl32.Vec3, reach, maxHeight float32) LedgeProbe {
	wall := a.SenseWall(dir, reach)
	if !wall.Found || maxHeight <= 0 {
		return LedgeProbe{At: a.Ticks}
	}
	up := a.Up()
	lowest := a.Shape.LowestPoint()

	inward := wall.Normal.Mul(-1)
	inward = inward.Sub(up.Mul(inward.Dot(up)))
	if inward.LenSqr() < 1e-10 {
		return LedgeProbe{At: a.Ticks}
	}
	inward = inward.Normalize()

	x := wall.Hit.Point.Add(inward.Mul(ledgeProbeRadius + ledgeInset))
	start := x.Add(up.Mul(lowest.Sub(x).Dot(up) + maxHeight + ledgeProbeRadius))
	h, ok := a.sweep(collision.Capsule{A: start, B: start}, ledgeProbeRadius, up.Mul(-1), maxHeight)
	if !ok || h.Started() || !a.Shape.ValidSlope(h.Normal) {
		return LedgeProbe{At: a.Ticks}
	}
	height := h.Point.Sub(lowest).Dot(up)
	if height <= 0 {
		return LedgeProbe{At: a.Ticks}
	}
	return LedgeProbe{Found: true, Wall: wall, Top: h.Point, Height: height, At: a.Ticks}
}

// Clearance reports whether the actor's standing capsule fits with its lowest point resting at
// top.
func (a *Actor) Clearance(top mgl32.Vec3) bool {
	up := a.Up()
	offset := top.Sub(a.Shape.LowestPoint())
	ends := a.Shape.Ends().Translate(offset.Add(up.Mul(a.Shape.CollisionOffset() * 2)))
	for _, c := range a.Resolver.Adapter().Overlap(ends, a.Shape.Radius(), a.Resolver.Mask) {
		if !a.Ignore.Ignores(c) {
			return false
		}
	}
	return true
}
