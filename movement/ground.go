package movement

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/capsule"
	"github.com/gekko3d/kcc/collision"
)

// ProbeMargin is added to the collision offset to get the ground probe distance.
const ProbeMargin float32 = 0.02

type GroundState struct {
	OnGround bool
	Hit      collision.Hit
	// Landed is set on the probe that moved the actor from airborne to grounded.
	Landed bool
	// Realign asks the caller to turn the horizontal heading toward the displacement just
	// applied. Only set on a landing whose hit point lies below the capsule's lowest point.
	Realign bool
}

// Probe sweeps a short distance along gravity and classifies the result against prev.
func (r *Resolver) Probe(shape *capsule.Shape, prev GroundState, ignore collision.IgnoreSet) GroundState {
	down := shape.Up().Mul(-1)
	distance := shape.CollisionOffset() + ProbeMargin

	hits := collision.FilterHits(r.adapter.Sweep(shape.Ends(), shape.Radius(), down, distance, r.Mask), ignore)
	for _, h := range hits {
		if h.Started() || !shape.ValidSlope(h.Normal) {
			continue
		}
		gs := GroundState{OnGround: true, Hit: h}
		if !prev.OnGround {
			gs.Landed = true
			gs.Realign = h.Point.Sub(shape.LowestPoint()).Dot(shape.Up()) < 0
		}
		return gs
	}
	return GroundState{}
}

// RealignDirection returns the horizontal direction of applied, or false when it has none.
func RealignDirection(up, applied mgl32.Vec3) (mgl32.Vec3, bool) {
	flat := applied.Sub(up.Mul(applied.Dot(up)))
	if flat.LenSqr() < 1e-10 {
		return mgl32.Vec3{}, false
	}
	return flat.Normalize(), true
}
