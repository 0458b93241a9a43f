// Package character ties a capsule, its motion and a state machine into one actor and runs
// them in a fixed per-tick order.
package character

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/kcc/capsule"
	"github.com/gekko3d/kcc/collision"
	"github.com/gekko3d/kcc/fsm"
	"github.com/gekko3d/kcc/locomotion"
	"github.com/gekko3d/kcc/logging"
	"github.com/gekko3d/kcc/movement"
)

// Config describes one actor. Zero values fall back to DefaultConfig's.
type Config struct {
	Shape   capsule.Config
	Gravity mgl32.Vec3
	MaxHoz  float32
	MaxVert float32
	Mask    collision.Mask
	Notify  movement.NotifyMode
}

func DefaultConfig() Config {
	return Config{
		Shape: capsule.Config{
			Radius:          0.4,
			LowerHeight:     0.9,
			UpperHeight:     0.9,
			CollisionOffset: capsule.DefaultCollisionOffset,
			SlopeAngle:      capsule.DefaultSlopeAngle,
		},
		Gravity: mgl32.Vec3{0, -9.81, 0},
		MaxHoz:  12,
		MaxVert: 30,
		Mask:    collision.MaskAll,
		Notify:  movement.NotifyBatched,
	}
}

// CameraHint is what the active state wants the follow camera to do this tick.
type CameraHint struct {
	// Offset is added to the camera's follow point.
	Offset mgl32.Vec3
	// Blend in [0, 1] scales Offset; the camera eases toward it.
	Blend float32
}

type Actor struct {
	ID   uuid.UUID
	Name string
	log  logging.Logger

	Pose      *Pose
	Shape     *capsule.Shape
	Motion    *locomotion.Vector
	Resolver  *movement.Resolver
	Validator *movement.Validator
	Ignore    collision.IgnoreSet

	Input  Input
	Camera CameraHint
	// View is the yaw frame movement input is read in. Identity means the pose's own frame.
	View mgl32.Quat

	Ground   movement.GroundState
	LastMove movement.Result
	Wall     WallProbe
	Ledge    LedgeProbe

	// OnSwap is handed to the runtime by Use.
	OnSwap fsm.SwapFunc[*Actor]

	// Dt is the step of the tick in progress.
	Dt    float32
	Ticks uint64

	standing capsule.Snapshot
	fsm      *fsm.Runtime[*Actor]
}

func New(name string, adapter collision.Adapter, position mgl32.Vec3, cfg Config, log logging.Logger) *Actor {
	log = logging.OrNop(log)
	def := DefaultConfig()
	if cfg.Shape.Radius == 0 {
		cfg.Shape = def.Shape
	}
	if cfg.Gravity.LenSqr() == 0 {
		cfg.Gravity = def.Gravity
	}
	if cfg.MaxHoz == 0 {
		cfg.MaxHoz = def.MaxHoz
	}
	if cfg.MaxVert == 0 {
		cfg.MaxVert = def.MaxVert
	}
	if cfg.Mask == 0 {
		cfg.Mask = def.Mask
	}

	a := &Actor{
		ID:     uuid.New(),
		Name:   name,
		log:    log,
		Pose:   NewPose(position, mgl32.QuatIdent()),
		Ignore: collision.NewIgnoreSet(),
		Input:  NoInput{},
		View:   mgl32.QuatIdent(),
	}
	a.Shape = capsule.New(a.Pose, cfg.Shape, cfg.Gravity, log)
	a.standing = a.Shape.Snapshot()

	a.Motion = locomotion.New(a.Shape.Up(), a.Pose.Forward())
	a.Motion.SetClamps(cfg.MaxHoz, cfg.MaxVert)

	a.Resolver = movement.NewResolver(adapter, log)
	a.Resolver.Mask = cfg.Mask
	a.Resolver.Notify = cfg.Notify

	a.Validator = movement.NewValidator(adapter, log)
	a.Validator.Mask = cfg.Mask
	a.Validator.Ignore = a.Ignore
	return a
}

func (a *Actor) Logger() logging.Logger { return a.log }

// Use attaches a state machine and enters its initial state. OnSwap, when set, observes
// this actor's swaps only.
func (a *Actor) Use(m *fsm.Machine[*Actor]) error {
	if err := m.Check(); err != nil {
		return fmt.Errorf("actor %s: %w", a.Name, err)
	}
	rt := m.NewRuntime()
	rt.OnSwap = a.OnSwap
	if err := rt.Start(a); err != nil {
		return fmt.Errorf("actor %s: %w", a.Name, err)
	}
	a.fsm = rt
	return nil
}

// FSM returns the attached runtime, or nil.
func (a *Actor) FSM() *fsm.Runtime[*Actor] { return a.fsm }

// State returns the current state name, or "" without a machine.
func (a *Actor) State() string {
	if a.fsm == nil {
		return ""
	}
	return a.fsm.Current()
}

// Tick moves the actor by its motion, probes the ground, then steps the state machine. An
// unresolvable move leaves the pose where it was and is returned after the rest of the tick
// has run.
func (a *Actor) Tick(dt float32) error {
	a.Dt = dt
	a.Ticks++

	desired := a.Motion.Displacement(dt)
	res, moveErr := a.Resolver.Move(a.Pose, a.Shape, desired, a.Ignore)
	a.LastMove = res
	if moveErr != nil {
		a.log.Warnf("actor %s: %v", a.Name, moveErr)
	}

	a.Ground = a.Resolver.Probe(a.Shape, a.Ground, a.Ignore)
	if a.Ground.Realign {
		if dir, ok := movement.RealignDirection(a.Shape.Up(), res.Applied); ok {
			a.Motion.SetHeading(dir)
		}
	}

	var fsmErr error
	if a.fsm != nil {
		fsmErr = a.fsm.Tick(a, dt)
	}
	return errors.Join(moveErr, fsmErr)
}

func (a *Actor) Up() mgl32.Vec3 { return a.Shape.Up() }

func (a *Actor) OnGround() bool { return a.Ground.OnGround }

// Facing is the pose's forward axis flattened onto the ground plane.
func (a *Actor) Facing() mgl32.Vec3 {
	up := a.Up()
	f := a.Pose.Forward()
	f = f.Sub(up.Mul(f.Dot(up)))
	if f.LenSqr() < 1e-10 {
		return a.Motion.Heading()
	}
	return f.Normalize()
}

// Face turns the pose toward the horizontal part of dir.
func (a *Actor) Face(dir mgl32.Vec3) {
	if dir.Sub(a.Up().Mul(dir.Dot(a.Up()))).LenSqr() < 1e-10 {
		return
	}
	a.Pose.Face(dir, a.Up())
}

// MoveInput is the movement stick in world space, read in the View frame. Its length is at
// most 1.
func (a *Actor) MoveInput() mgl32.Vec3 {
	x := a.Input.Axis(AxisMoveX)
	y := a.Input.Axis(AxisMoveY)
	if x == 0 && y == 0 {
		return mgl32.Vec3{}
	}
	up := a.Up()
	fwd := a.View.Rotate(localForward)
	fwd = fwd.Sub(up.Mul(fwd.Dot(up)))
	if fwd.LenSqr() < 1e-10 {
		fwd = a.Facing()
	}
	fwd = fwd.Normalize()
	right := fwd.Cross(up)

	v := fwd.Mul(y).Add(right.Mul(x))
	if l := v.Len(); l > 1 {
		v = v.Mul(1 / l)
	}
	return v
}

// Standing is the shape the actor was created with.
func (a *Actor) Standing() capsule.Snapshot { return a.standing }

// Reshape proposes a shape change and commits it when the validator accepts.
func (a *Actor) Reshape(snap capsule.Snapshot) (bool, movement.FailReason) {
	return a.Validator.Validate(a.Shape, snap, true)
}

// CanReshape checks a shape change without keeping it.
func (a *Actor) CanReshape(snap capsule.Snapshot) bool {
	ok, _ := a.Validator.Validate(a.Shape, snap, false)
	return ok
}

// Teleport places the actor without collision and clears its motion and ground state.
func (a *Actor) Teleport(position mgl32.Vec3) {
	a.Pose.SetPosition(position)
	a.Motion.Stop()
	a.Ground = movement.GroundState{}
	a.Wall = WallProbe{}
	a.Ledge = LedgeProbe{}
}
