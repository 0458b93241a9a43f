// Package capsule describes the actor's collision volume: a segment with hemispherical caps
// hung off an origin frame owned by the actor, and the analytic queries the resolver needs.
package capsule

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/collision"
	"github.com/gekko3d/kcc/logging"
)

const (
	// MinCollisionOffset is the smallest skin width a shape accepts.
	MinCollisionOffset float32 = 0.0001

	DefaultCollisionOffset float32 = 0.01
	DefaultSlopeAngle      float32 = 45

	// surfaceAxisEpsilon separates "facing a cap" from "facing the cylinder band" in
	// ClosestPointOnSurface.
	surfaceAxisEpsilon float32 = 0.001
)

// Frame is the origin the shape hangs off. The actor owns it; the shape only reads it.
type Frame interface {
	Position() mgl32.Vec3
	Rotation() mgl32.Quat
}

type Config struct {
	Radius          float32
	LowerHeight     float32
	UpperHeight     float32
	Orientation     mgl32.Vec3
	PositionOffset  mgl32.Vec3
	LocalOffset     bool
	CollisionOffset float32
	SlopeAngle      float32
}

// Snapshot is the value copy used to propose and roll back shape changes.
type Snapshot struct {
	Radius         float32
	UpperHeight    float32
	LowerHeight    float32
	Orientation    mgl32.Vec3
	PositionOffset mgl32.Vec3
}

type Shape struct {
	frame   Frame
	gravity mgl32.Vec3
	log     logging.Logger

	radius      float32
	lowerHeight float32
	upperHeight float32

	// configured orientation; zero means "derive from gravity"
	orientationCfg mgl32.Vec3
	positionOffset mgl32.Vec3
	localOffset    bool

	collisionOffset float32
	slopeAngle      float32

	// derived by rebuild
	orientation mgl32.Vec3
	up          mgl32.Vec3
	slopeCos    float32
}

func New(frame Frame, cfg Config, gravity mgl32.Vec3, log logging.Logger) *Shape {
	s := &Shape{
		frame:           frame,
		gravity:         gravity,
		log:             logging.OrNop(log),
		radius:          cfg.Radius,
		lowerHeight:     cfg.LowerHeight,
		upperHeight:     cfg.UpperHeight,
		orientationCfg:  cfg.Orientation,
		positionOffset:  cfg.PositionOffset,
		localOffset:     cfg.LocalOffset,
		collisionOffset: cfg.CollisionOffset,
		slopeAngle:      cfg.SlopeAngle,
	}
	s.rebuild()
	return s
}

// rebuild re-derives the query geometry after any field change.
func (s *Shape) rebuild() {
	if s.radius < 0 {
		s.log.Errorf("capsule: negative radius %f clamped to 0", s.radius)
		s.radius = 0
	}
	if s.radius == 0 {
		s.log.Errorf("capsule: radius is 0, shape is degenerate")
	}
	if s.collisionOffset < MinCollisionOffset {
		s.collisionOffset = MinCollisionOffset
	}
	s.slopeAngle = mgl32.Clamp(s.slopeAngle, 0, 90)
	s.slopeCos = math32.Cos(mgl32.DegToRad(s.slopeAngle))

	s.up = mgl32.Vec3{0, 1, 0}
	if s.gravity.LenSqr() > 0 {
		s.up = s.gravity.Mul(-1).Normalize()
	}

	if s.orientationCfg.LenSqr() > 0 {
		s.orientation = s.orientationCfg.Normalize()
	} else {
		s.orientation = s.up
	}
}

func (s *Shape) SetFrame(f Frame) { s.frame = f }

func (s *Shape) SetRadius(r float32) {
	s.radius = r
	s.rebuild()
}

func (s *Shape) SetLowerHeight(h float32) {
	s.lowerHeight = h
	s.rebuild()
}

func (s *Shape) SetUpperHeight(h float32) {
	s.upperHeight = h
	s.rebuild()
}

// SetOrientation sets the axis. The zero vector derives it from gravity.
func (s *Shape) SetOrientation(o mgl32.Vec3) {
	s.orientationCfg = o
	s.rebuild()
}

func (s *Shape) SetPositionOffset(offset mgl32.Vec3, local bool) {
	s.positionOffset = offset
	s.localOffset = local
	s.rebuild()
}

func (s *Shape) SetCollisionOffset(o float32) {
	s.collisionOffset = o
	s.rebuild()
}

func (s *Shape) SetSlopeAngle(deg float32) {
	s.slopeAngle = deg
	s.rebuild()
}

func (s *Shape) SetGravity(g mgl32.Vec3) {
	s.gravity = g
	s.rebuild()
}

func (s *Shape) Radius() float32            { return s.radius }
func (s *Shape) LowerHeight() float32       { return s.lowerHeight }
func (s *Shape) UpperHeight() float32       { return s.upperHeight }
func (s *Shape) Orientation() mgl32.Vec3    { return s.orientation }
func (s *Shape) PositionOffset() mgl32.Vec3 { return s.positionOffset }
func (s *Shape) LocalOffset() bool          { return s.localOffset }
func (s *Shape) CollisionOffset() float32   { return s.collisionOffset }
func (s *Shape) SlopeAngle() float32        { return s.slopeAngle }
func (s *Shape) Gravity() mgl32.Vec3        { return s.gravity }

// Up is the anti-gravity direction.
func (s *Shape) Up() mgl32.Vec3 { return s.up }

// SkinRadius is radius plus the collision offset.
func (s *Shape) SkinRadius() float32 { return s.radius + s.collisionOffset }

// Center is the frame origin displaced by the position offset.
func (s *Shape) Center() mgl32.Vec3 {
	var pos mgl32.Vec3
	rot := mgl32.QuatIdent()
	if s.frame != nil {
		pos = s.frame.Position()
		rot = s.frame.Rotation()
	}
	if s.localOffset {
		return pos.Add(rot.Rotate(s.positionOffset))
	}
	return pos.Add(s.positionOffset)
}

func (s *Shape) LowestPointOffset(offset float32) mgl32.Vec3 {
	return s.Center().Sub(s.orientation.Mul(s.lowerHeight + offset))
}

func (s *Shape) HighestPointOffset(offset float32) mgl32.Vec3 {
	return s.Center().Add(s.orientation.Mul(s.upperHeight + offset))
}

// LowerPoint is the center of the lower hemisphere.
func (s *Shape) LowerPoint() mgl32.Vec3 { return s.LowestPointOffset(-s.radius) }

// UpperPoint is the center of the upper hemisphere.
func (s *Shape) UpperPoint() mgl32.Vec3 { return s.HighestPointOffset(-s.radius) }

func (s *Shape) LowestPoint() mgl32.Vec3  { return s.LowestPointOffset(0) }
func (s *Shape) HighestPoint() mgl32.Vec3 { return s.HighestPointOffset(0) }

// Ends returns the hemisphere centers in the form the collision adapter consumes.
func (s *Shape) Ends() collision.Capsule {
	return collision.Capsule{A: s.LowerPoint(), B: s.UpperPoint()}
}

func (s *Shape) Bounds() cube.BBox {
	return s.Ends().Bounds(s.radius)
}

// DistanceToEdge returns the distance from the center to the surface along direction.
func (s *Shape) DistanceToEdge(direction mgl32.Vec3) float32 {
	if direction.LenSqr() == 0 {
		return s.radius
	}
	dir := direction.Normalize()
	dot := dir.Dot(s.orientation)
	switch {
	case dot > 0:
		return s.distanceToEdgeMath(dot, s.upperHeight-s.radius)
	case dot < 0:
		return s.distanceToEdgeMath(-dot, s.lowerHeight-s.radius)
	}
	// perpendicular to the axis: the widest point of the cylindrical band
	return s.radius
}

// distanceToEdgeMath resolves an exit against the cap whose center sits capOffset along the
// axis. dot is the cosine between the query direction and the axis toward that cap.
func (s *Shape) distanceToEdgeMath(dot, capOffset float32) float32 {
	if capOffset < 0 {
		capOffset = 0
	}
	r := s.radius

	// the ray tangent to the cap rim separates cap exits from side exits
	rim := math32.Hypot(capOffset, r)
	if rim == 0 {
		return 0
	}
	if dot >= capOffset/rim {
		projected := capOffset * dot
		perpSq := capOffset*capOffset - projected*projected
		if perpSq < 0 {
			perpSq = 0
		}
		remSq := r*r - perpSq
		if remSq < 0 {
			remSq = 0
		}
		return projected + math32.Sqrt(remSq)
	}

	opposite := math32.Sqrt(1 - dot*dot)
	scale := r / opposite
	return math32.Hypot(dot*scale, opposite*scale)
}

// ClosestPointOnSurface returns the point of the capsule surface nearest to a surface with
// the given normal passing through point.
func (s *Shape) ClosestPointOnSurface(point, normal mgl32.Vec3) mgl32.Vec3 {
	return s.ClosestAxisPoint(point, normal).Add(invert(normal).Mul(s.radius))
}

// ClosestAxisPoint is the point of the center segment that would touch a surface with the
// given normal first.
func (s *Shape) ClosestAxisPoint(point, normal mgl32.Vec3) mgl32.Vec3 {
	inv := invert(normal)
	dot := inv.Dot(s.orientation)
	switch {
	case dot > surfaceAxisEpsilon:
		return s.UpperPoint()
	case dot < -surfaceAxisEpsilon:
		return s.LowerPoint()
	}
	return s.projectOnAxis(point)
}

func (s *Shape) projectOnAxis(point mgl32.Vec3) mgl32.Vec3 {
	lower := s.LowerPoint()
	upper := s.UpperPoint()
	axis := upper.Sub(lower)
	lenSq := axis.LenSqr()
	if lenSq == 0 {
		return lower
	}
	t := mgl32.Clamp(point.Sub(lower).Dot(axis)/lenSq, 0, 1)
	return lower.Add(axis.Mul(t))
}

// ValidSlope reports whether a surface with this normal counts as ground.
func (s *Shape) ValidSlope(normal mgl32.Vec3) bool {
	if normal.LenSqr() == 0 {
		return false
	}
	return normal.Normalize().Dot(s.up) >= s.slopeCos
}

func (s *Shape) Snapshot() Snapshot {
	return Snapshot{
		Radius:         s.radius,
		UpperHeight:    s.upperHeight,
		LowerHeight:    s.lowerHeight,
		Orientation:    s.orientationCfg,
		PositionOffset: s.positionOffset,
	}
}

// Apply writes every snapshot field and re-derives the geometry once.
func (s *Shape) Apply(snap Snapshot) {
	s.radius = snap.Radius
	s.upperHeight = snap.UpperHeight
	s.lowerHeight = snap.LowerHeight
	s.orientationCfg = snap.Orientation
	s.positionOffset = snap.PositionOffset
	s.rebuild()
}

func invert(n mgl32.Vec3) mgl32.Vec3 {
	if n.LenSqr() == 0 {
		return n
	}
	return n.Normalize().Mul(-1)
}
