package character

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/kcc/fsm"
	"github.com/gekko3d/kcc/movement"
	"github.com/gekko3d/kcc/world"
)

const eps = 1e-3

type stick struct {
	axes    map[string]float32
	held    map[string]bool
	pressed map[string]bool
}

func (s stick) Axis(name string) float32 { return s.axes[name] }
func (s stick) Held(name string) bool    { return s.held[name] }
func (s stick) Pressed(name string) bool { return s.pressed[name] }

// Floor top at y=0; a standing actor rests with its origin at 0.91.
func floorWorld(extra ...*world.Collider) *world.World {
	w := world.New(2, nil)
	w.Add(world.NewBox("floor", mgl32.Vec3{0, -0.5, 0}, mgl32.Vec3{20, 0.5, 20}, mgl32.QuatIdent(), 1))
	w.Add(extra...)
	return w
}

func newActor(w *world.World, at mgl32.Vec3) *Actor {
	return New("test", w, at, DefaultConfig(), nil)
}

func TestNewAppliesDefaults(t *testing.T) {
	a := New("bare", floorWorld(), mgl32.Vec3{0, 0.91, 0}, Config{}, nil)

	assert.InDelta(t, 0.4, a.Shape.Radius(), eps)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, a.Up())
	assert.Equal(t, float32(12), a.Motion.MaxHoz())
	assert.Equal(t, movement.NotifyBatched, a.Resolver.Notify)
	assert.Equal(t, a.Shape.Snapshot(), a.Standing())
	assert.Empty(t, a.State())
	assert.NotEqual(t, New("other", floorWorld(), mgl32.Vec3{}, Config{}, nil).ID, a.ID)
}

func TestTickRunsMoveThenProbeThenMachine(t *testing.T) {
	a := newActor(floorWorld(), mgl32.Vec3{0, 0.91, 0})

	var sawGround []bool
	var sawPos []mgl32.Vec3
	m := fsm.NewMachine[*Actor](nil)
	require.NoError(t, m.Add(&fsm.State[*Actor]{
		Name: "watch",
		OnUpdate: func(a *Actor, _ *fsm.Instance) {
			sawGround = append(sawGround, a.OnGround())
			sawPos = append(sawPos, a.Pose.Position())
		},
	}))
	require.NoError(t, a.Use(m))
	assert.Equal(t, "watch", a.State())

	a.Motion.SetHorizontal(mgl32.Vec3{2, 0, 0})
	require.NoError(t, a.Tick(0.5))

	require.Len(t, sawGround, 1)
	assert.True(t, sawGround[0], "the machine sees this tick's ground probe")
	assert.InDelta(t, 1, sawPos[0].X(), eps, "and this tick's move")
	assert.Equal(t, float32(0.5), a.Dt)
	assert.Equal(t, uint64(1), a.Ticks)
	assert.InDelta(t, 1, a.LastMove.Applied.X(), eps)
}

func TestTickLandsAndRealigns(t *testing.T) {
	a := newActor(floorWorld(), mgl32.Vec3{0, 1.5, 0})
	a.Motion.SetTotal(mgl32.Vec3{1, -4, 0})

	require.NoError(t, a.Tick(0.25))

	assert.True(t, a.Ground.OnGround)
	assert.True(t, a.Ground.Landed)
	assert.True(t, a.Ground.Realign)
	assert.InDelta(t, 0.01, a.Shape.LowestPoint().Y(), eps)
	assert.InDelta(t, 1, a.Motion.Heading().X(), eps)

	require.NoError(t, a.Tick(0.25))
	assert.False(t, a.Ground.Landed, "landing is reported once")
}

func TestWallStopsActor(t *testing.T) {
	wall := world.NewBox("wall", mgl32.Vec3{3, 2, 0}, mgl32.Vec3{0.5, 2, 10}, mgl32.QuatIdent(), 1)
	a := newActor(floorWorld(wall), mgl32.Vec3{0, 0.91, 0})

	var contacts int
	a.Resolver.OnContact = func(movement.Contact) { contacts++ }
	a.Motion.SetHorizontal(mgl32.Vec3{8, 0, 0})
	require.NoError(t, a.Tick(1))

	assert.InDelta(t, 2.5-0.41, a.Pose.Position().X(), eps)
	assert.Equal(t, 1, contacts)
	require.Len(t, a.LastMove.Contacts, 1)
	assert.Equal(t, wall, a.LastMove.Contacts[0].Hit.Collider)
}

func TestMoveInputFollowsView(t *testing.T) {
	a := newActor(floorWorld(), mgl32.Vec3{0, 0.91, 0})
	a.Input = stick{axes: map[string]float32{AxisMoveY: 1}}

	got := a.MoveInput()
	assert.InDelta(t, -1, got.Z(), eps)

	a.View = mgl32.QuatRotate(mgl32.DegToRad(-90), mgl32.Vec3{0, 1, 0})
	got = a.MoveInput()
	assert.InDelta(t, 1, got.X(), eps)
	assert.InDelta(t, 0, got.Z(), eps)

	a.Input = stick{axes: map[string]float32{AxisMoveX: 1, AxisMoveY: 1}}
	a.View = mgl32.QuatIdent()
	assert.InDelta(t, 1, a.MoveInput().Len(), eps, "diagonals are clamped")

	a.Input = NoInput{}
	assert.Equal(t, mgl32.Vec3{}, a.MoveInput())
}

func TestFace(t *testing.T) {
	a := newActor(floorWorld(), mgl32.Vec3{0, 0.91, 0})

	a.Face(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 1, a.Pose.Forward().X(), eps)
	assert.InDelta(t, 0, a.Pose.Right().X(), eps)
	assert.InDelta(t, 1, a.Pose.Right().Z(), eps)

	a.Face(mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 1, a.Facing().X(), eps, "vertical targets are ignored")

	a.Face(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 1, a.Facing().Z(), eps)
	assert.InDelta(t, 1, a.Pose.Up().Y(), eps)
}

func TestSenseWallSides(t *testing.T) {
	right := world.NewBox("right", mgl32.Vec3{2, 2, 0}, mgl32.Vec3{0.5, 2, 10}, mgl32.QuatIdent(), 1)
	ahead := world.NewBox("ahead", mgl32.Vec3{0, 2, -3}, mgl32.Vec3{10, 2, 0.5}, mgl32.QuatIdent(), 1)
	a := newActor(floorWorld(right, ahead), mgl32.Vec3{0, 0.91, 0})

	wp := a.SenseWall(mgl32.Vec3{1, 0, 0}, 2)
	require.True(t, wp.Found)
	assert.Equal(t, 1, wp.Side)
	assert.InDelta(t, -1, wp.Normal.X(), eps)
	assert.InDelta(t, 1.1, wp.Hit.Distance, eps)

	wp = a.SenseWall(mgl32.Vec3{0, 0, -1}, 3)
	require.True(t, wp.Found)
	assert.Equal(t, 0, wp.Side)

	assert.False(t, a.SenseWall(mgl32.Vec3{-1, 0, 0}, 5).Found)
	assert.False(t, a.SenseWall(mgl32.Vec3{0, -1, 0}, 5).Found, "straight down has no horizontal part")

	a.Ignore.Add(right.ID())
	assert.False(t, a.SenseWall(mgl32.Vec3{1, 0, 0}, 2).Found)
}

func TestSenseLedge(t *testing.T) {
	block := world.NewBox("block", mgl32.Vec3{0, 0.5, -2}, mgl32.Vec3{2, 0.5, 0.5}, mgl32.QuatIdent(), 1)
	a := newActor(floorWorld(block), mgl32.Vec3{0, 0.91, 0})

	lp := a.SenseLedge(mgl32.Vec3{0, 0, -1}, 2, 1.5)
	require.True(t, lp.Found)
	assert.InDelta(t, 0.99, lp.Height, 0.01)
	assert.InDelta(t, 1, lp.Top.Y(), eps)
	assert.True(t, lp.Wall.Found)

	assert.False(t, a.SenseLedge(mgl32.Vec3{0, 0, -1}, 2, 0.5).Found, "taller than the probe")
	assert.False(t, a.SenseLedge(mgl32.Vec3{0, 0, -1}, 0.5, 1.5).Found, "out of reach")

	assert.True(t, a.Clearance(lp.Top))
}

func TestReshapeUnderCeiling(t *testing.T) {
	ceiling := world.NewBox("ceiling", mgl32.Vec3{0, 2.2, 0}, mgl32.Vec3{5, 0.2, 5}, mgl32.QuatIdent(), 1)
	a := newActor(floorWorld(ceiling), mgl32.Vec3{0, 0.91, 0})

	crouched := a.Standing()
	crouched.UpperHeight = 0.5
	ok, reason := a.Reshape(crouched)
	require.True(t, ok)
	assert.Equal(t, movement.FailNone, reason)
	assert.InDelta(t, 0.5, a.Shape.UpperHeight(), eps)

	tall := a.Standing()
	tall.UpperHeight = 1.5
	assert.False(t, a.CanReshape(tall))
	ok, reason = a.Reshape(tall)
	assert.False(t, ok)
	assert.Equal(t, movement.FailUpperHeight, reason)
	assert.InDelta(t, 0.5, a.Shape.UpperHeight(), eps, "rejected changes roll back")

	assert.True(t, a.CanReshape(a.Standing()))
}

func TestTeleport(t *testing.T) {
	a := newActor(floorWorld(), mgl32.Vec3{0, 0.91, 0})
	a.Motion.SetTotal(mgl32.Vec3{3, 1, 0})
	require.NoError(t, a.Tick(0.1))

	a.Teleport(mgl32.Vec3{5, 5, 5})
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, a.Pose.Position())
	assert.Equal(t, mgl32.Vec3{}, a.Motion.Total())
	assert.False(t, a.OnGround())
}
