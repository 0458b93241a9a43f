package kcc

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/kcc/character"
)

func TestFollowCamera_LookClampsPitch(t *testing.T) {
	cam := &FollowCamera{}
	cam.look(100, 0)
	assert.Equal(t, float32(0.1), cam.Sensitivity)
	assert.InDelta(t, 10, cam.Yaw, 1e-4)

	cam.look(0, -2000)
	assert.Equal(t, float32(89), cam.Pitch)
	cam.look(0, 4000)
	assert.Equal(t, float32(-89), cam.Pitch)
}

func TestFollowCamera_ForwardAndView(t *testing.T) {
	cam := &FollowCamera{}
	fwd := cam.Forward()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, fwd[:], 1e-5)

	cam.Yaw = 90
	fwd = cam.Forward()
	assert.InDeltaSlice(t, []float32{1, 0, 0}, fwd[:], 1e-5)

	moved := cam.View(mgl32.Vec3{0, 1, 0}).Rotate(mgl32.Vec3{0, 0, -1})
	assert.InDeltaSlice(t, []float32{1, 0, 0}, moved[:], 1e-5)
}

func TestCameraModule_TurnsMovementAndFollows(t *testing.T) {
	c := newCourse(t, nil, NewScript(
		Cue{At: 1, Axes: map[string]float32{AxisLookX: 900, character.AxisMoveY: 1}},
		Cue{At: 2, Axes: map[string]float32{AxisLookX: 0}},
	))
	id := c.app.Commands().Spawn("runner", mgl32.Vec3{0, 0.91, 0}, nil)
	c.cam.Target = id

	require.True(t, c.app.RunFor(30))
	a, ok := c.chars.Get(id)
	require.True(t, ok)

	assert.InDelta(t, 90, c.cam.Yaw, 1e-3)
	pos := a.Pose.Position()
	assert.Greater(t, pos.X(), float32(1))
	// The heading swings round from -z over the first few ticks.
	assert.InDelta(t, 0, pos.Z(), 0.25)

	eye := pos.Add(mgl32.Vec3{0, 1.6, 0})
	assert.InDeltaSlice(t, eye[:], c.cam.LookAt[:], 1e-4)
	behind := eye.Sub(mgl32.Vec3{3, 0, 0})
	assert.InDeltaSlice(t, behind[:], c.cam.Position[:], 1e-4)
}

func TestFollowCamera_EasesTowardHint(t *testing.T) {
	a := character.New("runner", nil, mgl32.Vec3{}, character.DefaultConfig(), nil)
	a.Camera = character.CameraHint{Offset: mgl32.Vec3{0, -1, 0}, Blend: 1}

	cam := &FollowCamera{Ease: 10}
	cam.follow(a, 0.05)
	assert.InDelta(t, -0.5, cam.hint.Y(), 1e-5)
	cam.follow(a, 0.05)
	assert.InDelta(t, -0.75, cam.hint.Y(), 1e-5)

	snap := &FollowCamera{}
	snap.follow(a, 0.05)
	assert.InDelta(t, -1, snap.hint.Y(), 1e-5)
	assert.InDeltaSlice(t, []float32{0, -1, 0}, snap.Position[:], 1e-5)
	assert.InDeltaSlice(t, []float32{0, -1, -1}, snap.LookAt[:], 1e-5)
}
