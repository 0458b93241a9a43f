package character

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Local axes of an unrotated pose.
var (
	localForward = mgl32.Vec3{0, 0, -1}
	localRight   = mgl32.Vec3{1, 0, 0}
	localUp      = mgl32.Vec3{0, 1, 0}
)

// Pose is the actor's transform. The capsule reads it as its frame and the resolver moves it.
type Pose struct {
	position mgl32.Vec3
	rotation mgl32.Quat
}

func NewPose(position mgl32.Vec3, rotation mgl32.Quat) *Pose {
	if rotation.Len() == 0 {
		rotation = mgl32.QuatIdent()
	}
	return &Pose{position: position, rotation: rotation.Normalize()}
}

func (p *Pose) Position() mgl32.Vec3 { return p.position }
func (p *Pose) Rotation() mgl32.Quat { return p.rotation }

func (p *Pose) Forward() mgl32.Vec3 { return p.rotation.Rotate(localForward) }
func (p *Pose) Right() mgl32.Vec3   { return p.rotation.Rotate(localRight) }
func (p *Pose) Up() mgl32.Vec3      { return p.rotation.Rotate(localUp) }

func (p *Pose) SetPosition(v mgl32.Vec3) { p.position = v }

func (p *Pose) SetRotation(q mgl32.Quat) {
	if q.Len() == 0 {
		return
	}
	p.rotation = q.Normalize()
}

func (p *Pose) Translate(d mgl32.Vec3) { p.position = p.position.Add(d) }

// Face turns the pose about up so that its forward axis points along the horizontal part of
// dir. A dir parallel to up leaves the pose unchanged.
func (p *Pose) Face(dir, up mgl32.Vec3) {
	p.rotation = YawToward(dir, up)
}

// YawToward returns the rotation about up that takes the local forward axis onto the
// horizontal part of dir.
func YawToward(dir, up mgl32.Vec3) mgl32.Quat {
	up = up.Normalize()
	flat := dir.Sub(up.Mul(dir.Dot(up)))
	ref := localForward.Sub(up.Mul(localForward.Dot(up)))
	if flat.LenSqr() < 1e-10 || ref.LenSqr() < 1e-10 {
		return mgl32.QuatIdent()
	}
	flat = flat.Normalize()
	ref = ref.Normalize()
	angle := math32.Acos(mgl32.Clamp(ref.Dot(flat), -1, 1))
	if ref.Cross(flat).Dot(up) < 0 {
		angle = -angle
	}
	return mgl32.QuatRotate(angle, up)
}
