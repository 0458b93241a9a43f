package kcc

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/kcc/character"
)

// FollowCamera orbits one character. Yaw and Pitch are in degrees; yaw 0 looks down -Z.
type FollowCamera struct {
	Target      uuid.UUID
	Yaw         float32
	Pitch       float32
	Sensitivity float32
	// Height lifts the follow point above the character's pose.
	Height float32
	// Distance is how far behind the follow point the eye sits. Zero is first person.
	Distance float32
	// Ease is how fast, per second, the camera catches up with a state's offset hint.
	Ease float32

	hint mgl32.Vec3

	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
}

// Forward is the look direction for the current yaw and pitch.
func (cam *FollowCamera) Forward() mgl32.Vec3 {
	yawRad := mgl32.DegToRad(cam.Yaw)
	pitchRad := mgl32.DegToRad(cam.Pitch)

	return mgl32.Vec3{
		math32.Sin(yawRad) * math32.Cos(pitchRad),
		math32.Sin(pitchRad),
		-math32.Cos(yawRad) * math32.Cos(pitchRad),
	}.Normalize()
}

// View is the yaw-only rotation movement input is read in.
func (cam *FollowCamera) View(up mgl32.Vec3) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(-cam.Yaw), up)
}

func (cam *FollowCamera) look(dx, dy float32) {
	if cam.Sensitivity == 0 {
		cam.Sensitivity = 0.1
	}
	cam.Yaw += dx * cam.Sensitivity
	cam.Pitch -= dy * cam.Sensitivity
	cam.Pitch = mgl32.Clamp(cam.Pitch, -89, 89)
}

func (cam *FollowCamera) follow(a *character.Actor, dt float32) {
	up := a.Up()
	target := a.Camera.Offset.Mul(mgl32.Clamp(a.Camera.Blend, 0, 1))
	if cam.Ease <= 0 {
		cam.hint = target
	} else {
		t := mgl32.Clamp(cam.Ease*dt, 0, 1)
		cam.hint = cam.hint.Add(target.Sub(cam.hint).Mul(t))
	}

	eye := a.Pose.Position().Add(up.Mul(cam.Height)).Add(cam.hint)
	forward := cam.Forward()

	cam.LookAt = eye.Add(forward)
	cam.Position = eye.Sub(forward.Mul(cam.Distance))
	if cam.Distance > 0 {
		cam.LookAt = eye
	}
	cam.Up = up
}

// CameraModule installs a FollowCamera. Before Update it applies the look axes of the Input
// resource and hands its Target the camera's yaw as the frame for movement input; after
// Update it follows the Target. Install after InputModule and CharacterModule.
type CameraModule struct {
	Sensitivity float32
	Height      float32
	Distance    float32
	Ease        float32
}

func (mod CameraModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&FollowCamera{
		Sensitivity: mod.Sensitivity,
		Height:      mod.Height,
		Distance:    mod.Distance,
		Ease:        mod.Ease,
		Up:          mgl32.Vec3{0, 1, 0},
	})
	app.UseSystem(
		System(cameraLookSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(cameraFollowSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func cameraLookSystem(cam *FollowCamera, input *Input, chars *Characters) {
	cam.look(input.Axis(AxisLookX), input.Axis(AxisLookY))
	if a, ok := chars.Get(cam.Target); ok {
		a.View = cam.View(a.Up())
	}
}

func cameraFollowSystem(cam *FollowCamera, chars *Characters, t *Time) {
	a, ok := chars.Get(cam.Target)
	if !ok {
		return
	}
	cam.follow(a, t.Seconds())
}
