// Package locomotion holds the actor's velocity model: a horizontal component measured
// against a heading, an independent vertical speed along the anti-gravity axis, optional
// clamps, and smoothing helpers that steer the heading or speed toward a target.
package locomotion

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// alignedEpsilon is the angle, in radians, under which two headings count as aligned.
const alignedEpsilon float32 = 1e-4

type Vector struct {
	up      mgl32.Vec3
	heading mgl32.Vec3
	hoz     mgl32.Vec3
	vert    float32

	// normalized total vector, or the heading while at rest
	direction mgl32.Vec3

	maxHoz  float32
	maxVert float32
}

// New builds a vector at rest. up is the anti-gravity axis; heading is projected onto the
// plane orthogonal to it.
func New(up, heading mgl32.Vec3) *Vector {
	if up.LenSqr() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	v := &Vector{up: up.Normalize()}
	v.heading = v.flatten(heading)
	if v.heading.LenSqr() == 0 {
		v.heading = anyPerpendicular(v.up)
	}
	v.derive()
	return v
}

func (v *Vector) Up() mgl32.Vec3         { return v.up }
func (v *Vector) Heading() mgl32.Vec3    { return v.heading }
func (v *Vector) Horizontal() mgl32.Vec3 { return v.hoz }
func (v *Vector) VertSpeed() float32     { return v.vert }
func (v *Vector) MaxHoz() float32        { return v.maxHoz }
func (v *Vector) MaxVert() float32       { return v.maxVert }

// Direction is the normalized total vector; at rest it falls back to the heading.
func (v *Vector) Direction() mgl32.Vec3 { return v.direction }

// HozSpeed is the signed projection of the horizontal component onto the heading.
func (v *Vector) HozSpeed() float32 {
	return v.hoz.Dot(v.heading)
}

func (v *Vector) Total() mgl32.Vec3 {
	return v.hoz.Add(v.up.Mul(v.vert))
}

// Displacement is the motion requested for a tick of length dt.
func (v *Vector) Displacement(dt float32) mgl32.Vec3 {
	return v.Total().Mul(dt)
}

// SetClamps sets the horizontal and vertical limits. Zero disables a limit.
func (v *Vector) SetClamps(maxHoz, maxVert float32) {
	v.maxHoz = math32.Abs(maxHoz)
	v.maxVert = math32.Abs(maxVert)
	v.derive()
}

// SetHozSpeed rebuilds the horizontal component along the heading.
func (v *Vector) SetHozSpeed(speed float32) {
	v.hoz = v.heading.Mul(speed)
	v.derive()
}

// SetHeading turns the forward reference, keeping the sign and size of the horizontal speed.
// A heading parallel to the up axis is ignored.
func (v *Vector) SetHeading(dir mgl32.Vec3) {
	h := v.flatten(dir)
	if h.LenSqr() == 0 {
		return
	}
	speed := v.HozSpeed()
	v.heading = h
	v.hoz = h.Mul(speed)
	v.derive()
}

func (v *Vector) SetVertSpeed(speed float32) {
	v.vert = speed
	v.derive()
}

func (v *Vector) AddVertSpeed(delta float32) {
	v.SetVertSpeed(v.vert + delta)
}

// SetHorizontal replaces the horizontal component. The heading follows it when it is non-zero.
func (v *Vector) SetHorizontal(h mgl32.Vec3) {
	v.hoz = v.flattenRaw(h)
	if v.hoz.LenSqr() > 0 {
		v.heading = v.hoz.Normalize()
	}
	v.derive()
}

// SetTotal splits a full velocity into its horizontal and vertical parts.
func (v *Vector) SetTotal(t mgl32.Vec3) {
	v.vert = t.Dot(v.up)
	v.SetHorizontal(t.Sub(v.up.Mul(v.vert)))
}

func (v *Vector) Stop() {
	v.hoz = mgl32.Vec3{}
	v.vert = 0
	v.derive()
}

// RotateTowards turns the heading about the up axis toward target by at most maxDegrees,
// carrying the horizontal speed along. It reports whether the heading is now aligned.
func (v *Vector) RotateTowards(target mgl32.Vec3, maxDegrees float32) bool {
	want := v.flatten(target)
	if want.LenSqr() == 0 {
		return true
	}
	angle := v.signedAngle(v.heading, want)
	if math32.Abs(angle) <= alignedEpsilon {
		v.SetHeading(want)
		return true
	}
	step := mgl32.DegToRad(math32.Abs(maxDegrees))
	if math32.Abs(angle) <= step+alignedEpsilon {
		v.SetHeading(want)
		return true
	}
	if angle < 0 {
		step = -step
	}
	v.SetHeading(mgl32.QuatRotate(step, v.up).Rotate(v.heading))
	return false
}

// SmoothTowards is RotateTowards at an angular rate in degrees per second.
func (v *Vector) SmoothTowards(target mgl32.Vec3, degPerSec, dt float32) bool {
	return v.RotateTowards(target, degPerSec*dt)
}

// SmoothSpeed moves the horizontal speed toward target by at most accel*dt.
func (v *Vector) SmoothSpeed(target, accel, dt float32) {
	v.SetHozSpeed(moveTowards(v.HozSpeed(), target, math32.Abs(accel)*dt))
}

// SmoothVelocity moves the horizontal component toward target by at most accel*dt.
func (v *Vector) SmoothVelocity(target mgl32.Vec3, accel, dt float32) {
	want := v.flattenRaw(target)
	delta := want.Sub(v.hoz)
	maxStep := math32.Abs(accel) * dt
	if l := delta.Len(); l > maxStep && l > 0 {
		delta = delta.Mul(maxStep / l)
	}
	v.SetHorizontal(v.hoz.Add(delta))
}

func (v *Vector) derive() {
	if v.maxHoz > 0 {
		if l := v.hoz.Len(); l > v.maxHoz {
			v.hoz = v.hoz.Mul(v.maxHoz / l)
		}
	}
	if v.maxVert > 0 {
		v.vert = mgl32.Clamp(v.vert, -v.maxVert, v.maxVert)
	}
	total := v.Total()
	if total.LenSqr() > 0 {
		v.direction = total.Normalize()
	} else {
		v.direction = v.heading
	}
}

// flattenRaw removes the up component without normalizing.
func (v *Vector) flattenRaw(d mgl32.Vec3) mgl32.Vec3 {
	return d.Sub(v.up.Mul(d.Dot(v.up)))
}

func (v *Vector) flatten(d mgl32.Vec3) mgl32.Vec3 {
	f := v.flattenRaw(d)
	if f.LenSqr() < 1e-12 {
		return mgl32.Vec3{}
	}
	return f.Normalize()
}

func (v *Vector) signedAngle(from, to mgl32.Vec3) float32 {
	angle := math32.Acos(mgl32.Clamp(from.Dot(to), -1, 1))
	if from.Cross(to).Dot(v.up) < 0 {
		return -angle
	}
	return angle
}

func moveTowards(current, target, maxDelta float32) float32 {
	if math32.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

func anyPerpendicular(up mgl32.Vec3) mgl32.Vec3 {
	ref := mgl32.Vec3{0, 0, -1}
	if math32.Abs(up.Dot(ref)) > 0.99 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	return ref.Sub(up.Mul(ref.Dot(up))).Normalize()
}
