package movement

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/kcc/capsule"
	"github.com/gekko3d/kcc/collision"
)

const eps = 1e-4

type testPose struct {
	pos mgl32.Vec3
}

func (p *testPose) Position() mgl32.Vec3   { return p.pos }
func (p *testPose) Rotation() mgl32.Quat   { return mgl32.QuatIdent() }
func (p *testPose) Translate(d mgl32.Vec3) { p.pos = p.pos.Add(d) }

type testCollider struct {
	id uuid.UUID
}

func newCollider() *testCollider                { return &testCollider{id: uuid.New()} }
func (c *testCollider) ID() collision.ColliderID { return c.id }
func (c *testCollider) Layer() collision.Mask    { return 1 }

// plane is a solid half space. Points with Normal·p < Offset are inside.
type plane struct {
	collider *testCollider
	Normal   mgl32.Vec3
	Offset   float32
}

func (p plane) signed(v mgl32.Vec3) float32 { return p.Normal.Dot(v) - p.Offset }

// planeWorld answers queries against a set of half spaces exactly.
type planeWorld struct {
	planes   []plane
	sweeps   int
	overlaps int
}

func (w *planeWorld) Sweep(c collision.Capsule, radius float32, dir mgl32.Vec3, maxDistance float32, _ collision.Mask) []collision.Hit {
	w.sweeps++
	var hits []collision.Hit
	for _, p := range w.planes {
		end := c.A
		if p.signed(c.B) < p.signed(c.A) {
			end = c.B
		}
		gap := p.signed(end) - radius
		if gap <= 0 {
			hits = append(hits, collision.Hit{Collider: p.collider})
			continue
		}
		approach := -p.Normal.Dot(dir)
		if approach <= 0 {
			continue
		}
		t := gap / approach
		if t > maxDistance {
			continue
		}
		hits = append(hits, collision.Hit{
			Point:    end.Add(dir.Mul(t)).Sub(p.Normal.Mul(radius)),
			Normal:   p.Normal,
			Distance: t,
			Collider: p.collider,
		})
	}
	collision.SortHits(hits)
	return hits
}

func (w *planeWorld) SweepFirst(c collision.Capsule, radius float32, dir mgl32.Vec3, maxDistance float32, mask collision.Mask) (collision.Hit, bool) {
	hits := w.Sweep(c, radius, dir, maxDistance, mask)
	if len(hits) == 0 {
		return collision.Hit{}, false
	}
	return hits[0], true
}

func (w *planeWorld) Overlap(c collision.Capsule, radius float32, _ collision.Mask) []collision.Collider {
	w.overlaps++
	var out []collision.Collider
	for _, p := range w.planes {
		if math32.Min(p.signed(c.A), p.signed(c.B)) < radius {
			out = append(out, p.collider)
		}
	}
	return out
}

// scriptedWorld returns the same hits for every sweep.
type scriptedWorld struct {
	hits []collision.Hit
}

func (w *scriptedWorld) Sweep(collision.Capsule, float32, mgl32.Vec3, float32, collision.Mask) []collision.Hit {
	return append([]collision.Hit(nil), w.hits...)
}

func (w *scriptedWorld) SweepFirst(c collision.Capsule, r float32, d mgl32.Vec3, m float32, mask collision.Mask) (collision.Hit, bool) {
	if len(w.hits) == 0 {
		return collision.Hit{}, false
	}
	return w.hits[0], true
}

func (w *scriptedWorld) Overlap(collision.Capsule, float32, collision.Mask) []collision.Collider {
	return nil
}

func newShape(pose *testPose) *capsule.Shape {
	return capsule.New(pose, capsule.Config{
		Radius:          0.5,
		LowerHeight:     1,
		UpperHeight:     1,
		CollisionOffset: 0.01,
		SlopeAngle:      45,
	}, mgl32.Vec3{0, -9.81, 0}, nil)
}

func vecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), eps, "x of %v", got)
	assert.InDelta(t, want.Y(), got.Y(), eps, "y of %v", got)
	assert.InDelta(t, want.Z(), got.Z(), eps, "z of %v", got)
}

func TestMoveWithoutObstruction(t *testing.T) {
	pose := &testPose{}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{}, nil)

	desired := mgl32.Vec3{1.5, 0.25, -3}
	res, err := r.Move(pose, shape, desired, nil)
	require.NoError(t, err)

	assert.Equal(t, desired, res.Applied)
	assert.Equal(t, desired, pose.pos)
	assert.Empty(t, res.Contacts)
	assert.Zero(t, res.Attempts)
}

func TestMoveStopsAtSkinDistanceFromWall(t *testing.T) {
	wall := plane{collider: newCollider(), Normal: mgl32.Vec3{-1, 0, 0}, Offset: -1}
	pose := &testPose{}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{planes: []plane{wall}}, nil)

	res, err := r.Move(pose, shape, mgl32.Vec3{2, 0, 0}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Contacts)

	assert.InDelta(t, shape.Radius()+shape.CollisionOffset(), 1-pose.pos.X(), eps)
	assert.Equal(t, wall.collider, res.Contacts[0].Hit.Collider)
	vecNear(t, mgl32.Vec3{0.5, -0.5, 0}, res.Contacts[0].Point)
}

func TestMoveSlidesAlongWall(t *testing.T) {
	wall := plane{collider: newCollider(), Normal: mgl32.Vec3{-1, 0, 0}, Offset: -1}
	pose := &testPose{}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{planes: []plane{wall}}, nil)

	_, err := r.Move(pose, shape, mgl32.Vec3{2, 0, 1}, nil)
	require.NoError(t, err)

	vecNear(t, mgl32.Vec3{0.49, 0, 1}, pose.pos)
}

func TestMoveIntoCorner(t *testing.T) {
	wallX := plane{collider: newCollider(), Normal: mgl32.Vec3{-1, 0, 0}, Offset: -1}
	wallZ := plane{collider: newCollider(), Normal: mgl32.Vec3{0, 0, -1}, Offset: -1}
	pose := &testPose{}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{planes: []plane{wallX, wallZ}}, nil)

	res, err := r.Move(pose, shape, mgl32.Vec3{2, 0, 2}, nil)
	require.NoError(t, err)

	vecNear(t, mgl32.Vec3{0.49, 0, 0.49}, pose.pos)
	assert.Len(t, res.Contacts, 2)
}

func TestMoveLandsOnFloor(t *testing.T) {
	floor := plane{collider: newCollider(), Normal: mgl32.Vec3{0, 1, 0}, Offset: 0}
	pose := &testPose{pos: mgl32.Vec3{0, 2, 0}}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{planes: []plane{floor}}, nil)

	_, err := r.Move(pose, shape, mgl32.Vec3{0.5, -3, 0}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.01, shape.LowestPoint().Y(), eps)
	assert.InDelta(t, 0.5, pose.pos.X(), eps)
}

func TestMoveIgnoresOwnColliders(t *testing.T) {
	wall := plane{collider: newCollider(), Normal: mgl32.Vec3{-1, 0, 0}, Offset: -1}
	pose := &testPose{}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{planes: []plane{wall}}, nil)

	res, err := r.Move(pose, shape, mgl32.Vec3{2, 0, 0}, collision.NewIgnoreSet(wall.collider.ID()))
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{2, 0, 0}, pose.pos)
	assert.Empty(t, res.Contacts)
}

func TestStartedHitsNeverBlock(t *testing.T) {
	w := &scriptedWorld{hits: []collision.Hit{{Collider: newCollider()}}}
	pose := &testPose{}
	shape := newShape(pose)
	r := NewResolver(w, nil)

	res, err := r.Move(pose, shape, mgl32.Vec3{0, 0, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, res.Applied)
}

func TestUnresolvableMoveLeavesPoseUntouched(t *testing.T) {
	left := newCollider()
	right := newCollider()
	start := mgl32.Vec3{3, 4, 5}
	// two walls closer than the radius on either side: every push re-enters the other one
	w := &scriptedWorld{hits: []collision.Hit{
		{Point: start.Add(mgl32.Vec3{0.2, 0, 0}), Normal: mgl32.Vec3{-1, 0, 0}, Distance: 0.05, Collider: right},
		{Point: start.Add(mgl32.Vec3{-0.2, 0, 0}), Normal: mgl32.Vec3{1, 0, 0}, Distance: 0.05, Collider: left},
	}}
	pose := &testPose{pos: start}
	shape := newShape(pose)
	r := NewResolver(w, nil)

	var notified int
	r.OnContact = func(Contact) { notified++ }

	res, err := r.Move(pose, shape, mgl32.Vec3{1, 0, 0}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvable))
	assert.Equal(t, start, pose.pos)
	assert.Equal(t, mgl32.Vec3{}, res.Applied)
	assert.Greater(t, res.Attempts, MaxResolveAttempts)
	assert.Zero(t, notified)
}

func TestNotifyModes(t *testing.T) {
	wall := plane{collider: newCollider(), Normal: mgl32.Vec3{-1, 0, 0}, Offset: -1}

	var unset NotifyMode
	assert.Equal(t, NotifyBatched, unset, "batched is the zero mode")

	for _, mode := range []NotifyMode{NotifyImmediate, NotifyBatched} {
		t.Run(mode.String(), func(t *testing.T) {
			pose := &testPose{}
			shape := newShape(pose)
			r := NewResolver(&planeWorld{planes: []plane{wall}}, nil)
			r.Notify = mode

			var seenAt []mgl32.Vec3
			r.OnContact = func(Contact) { seenAt = append(seenAt, pose.pos) }

			res, err := r.Move(pose, shape, mgl32.Vec3{2, 0, 0}, nil)
			require.NoError(t, err)
			require.Len(t, seenAt, len(res.Contacts))

			if mode == NotifyImmediate {
				assert.Equal(t, mgl32.Vec3{}, seenAt[0])
			} else {
				assert.Equal(t, pose.pos, seenAt[0])
			}
		})
	}
}

func TestProbeGround(t *testing.T) {
	floor := plane{collider: newCollider(), Normal: mgl32.Vec3{0, 1, 0}, Offset: 0}
	pose := &testPose{pos: mgl32.Vec3{0, 1.01, 0}}
	shape := newShape(pose)
	r := NewResolver(&planeWorld{planes: []plane{floor}}, nil)

	landed := r.Probe(shape, GroundState{}, nil)
	assert.True(t, landed.OnGround)
	assert.True(t, landed.Landed)
	assert.True(t, landed.Realign)
	assert.Equal(t, floor.collider, landed.Hit.Collider)

	still := r.Probe(shape, landed, nil)
	assert.True(t, still.OnGround)
	assert.False(t, still.Landed)
	assert.False(t, still.Realign)

	pose.pos = mgl32.Vec3{0, 2, 0}
	assert.False(t, r.Probe(shape, still, nil).OnGround)
}

func TestProbeRejectsSteepSurface(t *testing.T) {
	normal := mgl32.Vec3{math32.Sin(mgl32.DegToRad(60)), math32.Cos(mgl32.DegToRad(60)), 0}
	slope := plane{collider: newCollider(), Normal: normal, Offset: 0}
	pose := &testPose{}
	shape := newShape(pose)
	// rest the lower cap just above the slope
	lower := shape.LowerPoint()
	pose.pos = pose.pos.Add(normal.Mul(0.51 - slope.signed(lower)))

	r := NewResolver(&planeWorld{planes: []plane{slope}}, nil)
	assert.False(t, r.Probe(shape, GroundState{}, nil).OnGround)
}

func TestRealignDirection(t *testing.T) {
	dir, ok := RealignDirection(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{3, -2, 4})
	require.True(t, ok)
	vecNear(t, mgl32.Vec3{0.6, 0, 0.8}, dir)

	_, ok = RealignDirection(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, -1, 0})
	assert.False(t, ok)
}
