package parkour

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/character"
	"github.com/gekko3d/kcc/fsm"
)

type pred = fsm.Predicate[*character.Actor]

const (
	// minLedge is the lowest rise worth stepping onto; anything lower the resolver slides over.
	minLedge float32 = 0.05
	// wallDot bounds how far a run-able wall may lean from vertical.
	wallDot float32 = 0.35
	// moveDeadzone is the squared stick length below which there is no move input.
	moveDeadzone float32 = 0.01
	// lateralDeadzone is the stick deflection that starts a shimmy.
	lateralDeadzone float32 = 0.1
	// restSpeed is the horizontal speed treated as standing still.
	restSpeed float32 = 0.05
)

func onGround(a *character.Actor, _ *fsm.Instance) bool { return a.OnGround() }

func pressed(action string) pred {
	return func(a *character.Actor, _ *fsm.Instance) bool { return a.Input.Pressed(action) }
}

func held(action string) pred {
	return func(a *character.Actor, _ *fsm.Instance) bool { return a.Input.Held(action) }
}

func hasMoveInput(a *character.Actor, _ *fsm.Instance) bool {
	return a.MoveInput().LenSqr() > moveDeadzone
}

func lateralInput(a *character.Actor, _ *fsm.Instance) bool {
	return math32.Abs(a.Input.Axis(character.AxisMoveX)) > lateralDeadzone
}

func stopped(a *character.Actor, inst *fsm.Instance) bool {
	return !hasMoveInput(a, inst) && a.Motion.Horizontal().Len() < restSpeed
}

func falling(a *character.Actor, _ *fsm.Instance) bool { return a.Motion.VertSpeed() <= 0 }

func canStand(a *character.Actor, _ *fsm.Instance) bool { return a.CanReshape(a.Standing()) }

func timerDone(name string) pred {
	return func(_ *character.Actor, inst *fsm.Instance) bool { return inst.Timer(name).Done() }
}

func valueSet(name string) pred {
	return func(_ *character.Actor, inst *fsm.Instance) bool { return inst.Value(name) != 0 }
}

func always(*character.Actor, *fsm.Instance) bool { return true }

// travel is the direction the actor is moving in, or facing when at rest.
func travel(a *character.Actor) mgl32.Vec3 {
	if a.Motion.Horizontal().Len() > restSpeed {
		return a.Motion.Horizontal().Normalize()
	}
	return a.Facing()
}

// inward points from the sensed wall into it, flattened.
func inward(a *character.Actor, normal mgl32.Vec3) mgl32.Vec3 {
	up := a.Up()
	in := normal.Mul(-1)
	in = in.Sub(up.Mul(in.Dot(up)))
	if in.LenSqr() < 1e-10 {
		return a.Facing()
	}
	return in.Normalize()
}

// alongWall is the wall tangent closest to dir.
func alongWall(a *character.Actor, normal, dir mgl32.Vec3) mgl32.Vec3 {
	t := a.Up().Cross(normal)
	if t.LenSqr() < 1e-10 {
		return dir
	}
	t = t.Normalize()
	if t.Dot(dir) < 0 {
		t = t.Mul(-1)
	}
	return t
}

func upright(a *character.Actor, normal mgl32.Vec3) bool {
	return math32.Abs(normal.Dot(a.Up())) < wallDot
}

// predicates close over the tuning. Sensing predicates store what they found on the actor so
// the state they lead to can use it.
type predicates struct {
	cfg *Config
}

func (p predicates) belowKill(a *character.Actor, _ *fsm.Instance) bool {
	return a.Shape.LowestPoint().Dot(a.Up()) < p.cfg.KillHeight
}

// ledgeAhead is the shared gate of the vault/step-up branch.
func (p predicates) ledgeAhead(a *character.Actor, _ *fsm.Instance) bool {
	if !a.OnGround() || a.Motion.Horizontal().Len() <= restSpeed {
		return false
	}
	lp := a.SenseLedge(travel(a), p.cfg.LedgeReach, p.cfg.VaultHeight)
	if !lp.Found || lp.Height < minLedge {
		return false
	}
	a.Ledge = lp
	return true
}

func (p predicates) vaultable(a *character.Actor, _ *fsm.Instance) bool {
	return a.Ledge.Height > p.cfg.StepHeight && a.Motion.HozSpeed() >= p.cfg.VaultMinSpeed
}

func (p predicates) steppable(a *character.Actor, _ *fsm.Instance) bool {
	return a.Ledge.Height <= p.cfg.StepHeight && a.Clearance(a.Ledge.Top)
}

func (p predicates) grabbable(a *character.Actor, _ *fsm.Instance) bool {
	if a.OnGround() {
		return false
	}
	lp := a.SenseLedge(a.Facing(), p.cfg.LedgeReach, p.cfg.LedgeGrabMax)
	if !lp.Found || lp.Height < p.cfg.LedgeGrabMin {
		return false
	}
	a.Ledge = lp
	return true
}

func (p predicates) wallRunnable(a *character.Actor, _ *fsm.Instance) bool {
	if a.OnGround() || a.Motion.Horizontal().Len() < p.cfg.WallRunMinSpeed {
		return false
	}
	dir := travel(a)
	right := dir.Cross(a.Up())
	for _, side := range []mgl32.Vec3{right, right.Mul(-1)} {
		wp := a.SenseWall(side, p.cfg.WallReach)
		if wp.Found && upright(a, wp.Normal) && math32.Abs(dir.Dot(wp.Normal)) < 0.7 {
			a.Wall = wp
			return true
		}
	}
	return false
}

func (p predicates) wallClimbable(a *character.Actor, _ *fsm.Instance) bool {
	if a.OnGround() || !a.Input.Held(character.ActionJump) {
		return false
	}
	wp := a.SenseWall(a.Facing(), p.cfg.WallReach)
	if !wp.Found || !upright(a, wp.Normal) {
		return false
	}
	if a.MoveInput().Dot(inward(a, wp.Normal)) < 0.5 {
		return false
	}
	a.Wall = wp
	return true
}

// wallHeld re-senses the wall stored on the actor and keeps it current.
func (p predicates) wallHeld(a *character.Actor, _ *fsm.Instance) bool {
	if !a.Wall.Found {
		return false
	}
	wp := a.SenseWall(inward(a, a.Wall.Normal), p.cfg.WallReach)
	if !wp.Found || !upright(a, wp.Normal) {
		return false
	}
	a.Wall = wp
	return true
}

// pushingIn is stick input toward the grabbed wall.
func (p predicates) pushingIn(a *character.Actor, _ *fsm.Instance) bool {
	return a.MoveInput().Dot(inward(a, a.Ledge.Wall.Normal)) > 0.7
}

func (p predicates) clearTop(a *character.Actor, _ *fsm.Instance) bool {
	return a.Ledge.Found && a.Clearance(a.Ledge.Top)
}
