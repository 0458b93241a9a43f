package parkour

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/character"
	"github.com/gekko3d/kcc/fsm"
	"github.com/gekko3d/kcc/logging"
)

// State names of the default graph.
const (
	Idle         = "Idle"
	GroundMove   = "GroundMove"
	Crouch       = "Crouch"
	Jump         = "Jump"
	Airborne     = "Airborne"
	WallRun      = "WallRun"
	WallClimb    = "WallClimb"
	LedgeGrab    = "LedgeGrab"
	LedgeMove    = "LedgeMove"
	ClamberLedge = "ClamberLedge"
	Vault        = "Vault"
	StepUp       = "StepUp"
	Respawn      = "Respawn"
)

// Timer and value keys kept in state instances.
const (
	graceTimer   = "grace"
	regrabTimer  = "regrab"
	runTimer     = "run"
	climbTimer   = "climb"
	clamberTimer = "clamber"
	vaultTimer   = "vault"
	stepTimer    = "step"

	riseValue   = "rise"
	fwdValue    = "forward"
	tuckedValue = "tucked"
	lostValue   = "lost"
)

// regrabDelay keeps a dropped actor from catching the ledge it just let go of.
const regrabDelay float32 = 0.3

type behaviors struct {
	predicates
	log logging.Logger
}

type state = fsm.State[*character.Actor]
type inst = fsm.Instance

func to(target string, when pred) fsm.Transition[*character.Actor] {
	return fsm.To(target, when)
}

// grounded keeps the actor pressed onto the ground and restores a standing shape.
func (b behaviors) grounded(a *character.Actor) {
	a.Motion.SetVertSpeed(-b.cfg.GroundStick)
	b.untuck(a)
}

// untuck returns a shrunken shape to standing once there is room. On the ground the actor is
// lifted by what its lower half grows so the feet stay where they are.
func (b behaviors) untuck(a *character.Actor) {
	cur, stand := a.Shape.Snapshot(), a.Standing()
	if cur == stand {
		return
	}
	if ok, _ := a.Reshape(stand); ok || !a.OnGround() {
		return
	}
	lift := stand.LowerHeight - cur.LowerHeight
	if lift <= 0 {
		return
	}
	res, err := a.Resolver.Move(a.Pose, a.Shape, a.Up().Mul(lift), a.Ignore)
	if err != nil {
		return
	}
	if ok, _ := a.Reshape(stand); !ok {
		a.Pose.Translate(res.Applied.Mul(-1))
	}
}

// steer turns the heading toward the stick and eases speed toward it.
func (b behaviors) steer(a *character.Actor, speed float32) {
	want := a.MoveInput()
	if want.LenSqr() > moveDeadzone {
		a.Motion.SmoothTowards(want, b.cfg.TurnRate, a.Dt)
		a.Face(a.Motion.Heading())
	}
	a.Motion.SmoothSpeed(want.Len()*speed, b.cfg.Acceleration, a.Dt)
}

// air applies gravity and limited air control that never brakes below walking speed.
func (b behaviors) air(a *character.Actor, gravityScale float32) {
	a.Motion.AddVertSpeed(-b.cfg.Gravity * gravityScale * a.Dt)
	want := a.MoveInput()
	if want.LenSqr() <= moveDeadzone {
		return
	}
	speed := math32.Max(a.Motion.Horizontal().Len(), b.cfg.WalkSpeed)
	a.Motion.SmoothVelocity(want.Mul(speed), b.cfg.AirAcceleration, a.Dt)
}

func (b behaviors) idle() *state {
	return &state{
		Name: Idle,
		Transitions: []fsm.Transition[*character.Actor]{
			to(Airborne, fsm.Not(onGround)),
			to(Jump, pressed(character.ActionJump)),
			to(Crouch, held(character.ActionCrouch)),
			to(GroundMove, hasMoveInput),
		},
		OnUpdate: func(a *character.Actor, _ *inst) {
			a.Motion.SmoothSpeed(0, b.cfg.Acceleration, a.Dt)
			b.grounded(a)
		},
	}
}

func (b behaviors) groundMove() *state {
	return &state{
		Name: GroundMove,
		Transitions: []fsm.Transition[*character.Actor]{
			to(Airborne, fsm.Not(onGround)),
			to(Jump, pressed(character.ActionJump)),
			to(Crouch, held(character.ActionCrouch)),
			fsm.IfElseIf(b.ledgeAhead, b.vaultable, Vault, b.steppable, StepUp).Named("ledge"),
			to(Idle, stopped),
		},
		OnUpdate: func(a *character.Actor, _ *inst) {
			speed := b.cfg.WalkSpeed
			if a.Input.Held(character.ActionSprint) {
				speed = b.cfg.SprintSpeed
			}
			b.steer(a, speed)
			b.grounded(a)
		},
	}
}

func (b behaviors) crouch() *state {
	standUp := fsm.All(fsm.Not(held(character.ActionCrouch)), canStand)
	return &state{
		Name: Crouch,
		Transitions: []fsm.Transition[*character.Actor]{
			to(Airborne, fsm.Not(onGround)),
			to(GroundMove, fsm.All(standUp, hasMoveInput)),
			to(Idle, standUp),
		},
		OnStart: func(a *character.Actor, _ *inst) {
			low := a.Standing()
			low.UpperHeight = b.cfg.CrouchHeight
			if ok, reason := a.Reshape(low); !ok {
				b.log.Debugf("parkour: %s cannot crouch: %s", a.Name, reason)
			}
		},
		OnUpdate: func(a *character.Actor, _ *inst) {
			b.steer(a, b.cfg.CrouchSpeed)
			a.Motion.SetVertSpeed(-b.cfg.GroundStick)
		},
		OnEnd: func(a *character.Actor, _ *inst) {
			if ok, reason := a.Reshape(a.Standing()); !ok {
				b.log.Debugf("parkour: %s stays crouched: %s", a.Name, reason)
			}
		},
	}
}

// Jump keeps its wall transitions ignored until the grace timer ends so the wall the actor
// jumped off is not caught again on the way up.
func (b behaviors) jump() *state {
	return &state{
		Name: Jump,
		Transitions: []fsm.Transition[*character.Actor]{
			to(WallRun, b.wallRunnable),
			to(WallClimb, b.wallClimbable),
			to(LedgeGrab, b.grabbable),
			to(Airborne, falling),
		},
		Ignore: []bool{true, true, false, false},
		OnStart: func(a *character.Actor, in *inst) {
			in.ResetIgnores()
			in.Timer(graceTimer).Start(b.cfg.JumpGrace)

			switch a.FSM().Previous() {
			case WallRun, WallClimb, LedgeGrab, LedgeMove:
				push := a.Wall.Normal
				if p := a.FSM().Previous(); p == LedgeGrab || p == LedgeMove {
					push = a.Ledge.Wall.Normal
				}
				a.Motion.SetHorizontal(a.Motion.Horizontal().Add(push.Mul(b.cfg.WallJumpPush)))
			}
			a.Motion.SetVertSpeed(b.cfg.JumpSpeed)
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			if t := in.Timer(graceTimer); t.Done() {
				in.EnableAll()
				t.Stop()
			}
			b.air(a, 1)
		},
	}
}

func (b behaviors) airborne() *state {
	return &state{
		Name: Airborne,
		Transitions: []fsm.Transition[*character.Actor]{
			to(LedgeGrab, b.grabbable),
			to(WallRun, b.wallRunnable),
			to(WallClimb, b.wallClimbable),
			fsm.IfElse(onGround, GroundMove, Airborne).Named("land"),
		},
		// a wall left by running out of time or grip is not caught again before landing
		OnStart: func(a *character.Actor, in *inst) {
			in.EnableAll()
			switch a.FSM().Previous() {
			case LedgeGrab, LedgeMove:
				in.Ignore(0)
				in.Timer(regrabTimer).Start(regrabDelay)
			case WallRun:
				in.Ignore(1)
			case WallClimb:
				in.Ignore(2)
			}
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			if t := in.Timer(regrabTimer); t.Done() {
				in.Enable(0)
				t.Stop()
			}
			b.air(a, 1)
			b.untuck(a)
		},
	}
}

func (b behaviors) wallRun() *state {
	return &state{
		Name: WallRun,
		Transitions: []fsm.Transition[*character.Actor]{
			to(Jump, pressed(character.ActionJump)),
			to(GroundMove, onGround),
			to(Airborne, fsm.Any(timerDone(runTimer), fsm.Not(b.wallHeld))),
		},
		OnStart: func(a *character.Actor, in *inst) {
			in.Timer(runTimer).Start(positive(b.log, WallRun, "wall_run_time", b.cfg.WallRunTime))
			a.Motion.SetVertSpeed(math32.Max(a.Motion.VertSpeed(), 0))
		},
		OnUpdate: func(a *character.Actor, _ *inst) {
			along := alongWall(a, a.Wall.Normal, travel(a))
			a.Motion.SetHorizontal(along.Mul(b.cfg.WallRunSpeed))
			a.Face(along)
			a.Motion.AddVertSpeed(-b.cfg.Gravity * b.cfg.WallRunGravityScale * a.Dt)
		},
	}
}

func (b behaviors) wallClimb() *state {
	return &state{
		Name: WallClimb,
		Transitions: []fsm.Transition[*character.Actor]{
			to(LedgeGrab, b.grabbable),
			to(Jump, pressed(character.ActionJump)),
			to(Airborne, fsm.Any(timerDone(climbTimer), fsm.Not(b.wallHeld))),
		},
		OnStart: func(a *character.Actor, in *inst) {
			in.Timer(climbTimer).Start(positive(b.log, WallClimb, "wall_climb_time", b.cfg.WallClimbTime))
			a.Face(inward(a, a.Wall.Normal))
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			t := in.Timer(climbTimer)
			var speed float32
			if t.Duration > 0 {
				speed = b.cfg.WallClimbSpeed * t.Remaining() / t.Duration
			}
			// lean into the wall so the next probe still finds it
			a.Motion.SetHorizontal(inward(a, a.Wall.Normal).Mul(restSpeed * 4))
			a.Motion.SetVertSpeed(speed)
		},
	}
}

func (b behaviors) ledgeGrab() *state {
	return &state{
		Name: LedgeGrab,
		Transitions: []fsm.Transition[*character.Actor]{
			to(ClamberLedge, fsm.All(fsm.Any(pressed(character.ActionJump), b.pushingIn), b.clearTop)),
			to(Airborne, pressed(character.ActionCrouch)),
			to(LedgeMove, lateralInput),
		},
		OnStart: func(a *character.Actor, _ *inst) {
			a.Motion.Stop()
			into := inward(a, a.Ledge.Wall.Normal)
			a.Face(into)
			if a.FSM().Previous() == LedgeMove {
				return
			}
			b.hang(a, into)
		},
		OnUpdate: func(a *character.Actor, _ *inst) {
			a.Motion.Stop()
		},
	}
}

// hang moves the actor against the wall with its top HangDepth below the ledge.
func (b behaviors) hang(a *character.Actor, into mgl32.Vec3) {
	up := a.Up()
	dy := a.Ledge.Top.Sub(a.Shape.HighestPoint()).Dot(up) - b.cfg.HangDepth
	reach := math32.Max(a.Ledge.Wall.Hit.Distance, 0)
	if _, err := a.Resolver.Move(a.Pose, a.Shape, up.Mul(dy).Add(into.Mul(reach)), a.Ignore); err != nil {
		b.log.Warnf("parkour: %s cannot reach hang: %v", a.Name, err)
	}
}

func (b behaviors) ledgeMove() *state {
	return &state{
		Name: LedgeMove,
		Transitions: []fsm.Transition[*character.Actor]{
			to(ClamberLedge, fsm.All(pressed(character.ActionJump), b.clearTop)),
			to(Airborne, fsm.Any(pressed(character.ActionCrouch), valueSet(lostValue))),
			to(LedgeGrab, fsm.Not(lateralInput)),
		},
		OnStart: func(_ *character.Actor, in *inst) {
			in.SetValue(lostValue, 0)
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			into := inward(a, a.Ledge.Wall.Normal)
			right := into.Cross(a.Up())
			a.Motion.SetHorizontal(right.Mul(a.Input.Axis(character.AxisMoveX) * b.cfg.LedgeMoveSpeed))
			a.Motion.SetVertSpeed(0)

			lp := a.SenseLedge(into, b.cfg.LedgeReach, b.cfg.LedgeGrabMax+b.cfg.HangDepth)
			if !lp.Found {
				in.SetValue(lostValue, 1)
				a.Motion.Stop()
				return
			}
			a.Ledge = lp
		},
	}
}

// finish leaves a timed move once its timer ends, for the ground when standing on it.
func finish(timer string) fsm.Transition[*character.Actor] {
	return fsm.IfElseIf(timerDone(timer), onGround, GroundMove, always, Airborne).Named("finish")
}

func (b behaviors) dip(a *character.Actor) {
	a.Camera = character.CameraHint{Offset: a.Up().Mul(-b.cfg.CameraDip), Blend: 1}
}

// ClamberLedge rises to the ledge top during the first half of its timer and moves over it
// during the second.
func (b behaviors) clamberLedge() *state {
	return &state{
		Name:        ClamberLedge,
		Transitions: []fsm.Transition[*character.Actor]{finish(clamberTimer)},
		OnStart: func(a *character.Actor, in *inst) {
			in.Timer(clamberTimer).Start(positive(b.log, ClamberLedge, "clamber_time", b.cfg.ClamberTime))
			rise := a.Ledge.Top.Sub(a.Shape.LowestPoint()).Dot(a.Up()) + 2*a.Shape.CollisionOffset() + minLedge
			in.SetValue(riseValue, math32.Max(rise, 0))
			in.SetValue(fwdValue, 2*a.Shape.Radius())
			a.Motion.Stop()
			b.dip(a)
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			t := in.Timer(clamberTimer)
			half := t.Duration / 2
			if half <= 0 {
				a.Motion.Stop()
				return
			}
			if t.Elapsed < half {
				a.Motion.SetHorizontal(mgl32.Vec3{})
				a.Motion.SetVertSpeed(in.Value(riseValue) / half)
				return
			}
			a.Motion.SetVertSpeed(0)
			a.Motion.SetHorizontal(inward(a, a.Ledge.Wall.Normal).Mul(in.Value(fwdValue) / half))
		},
		OnEnd: func(a *character.Actor, _ *inst) {
			a.Camera = character.CameraHint{}
		},
	}
}

// Vault tucks the lower half of the capsule, rises over the obstacle during the first half
// of its timer and carries forward across VaultDistance over the whole of it.
func (b behaviors) vault() *state {
	return &state{
		Name:        Vault,
		Transitions: []fsm.Transition[*character.Actor]{finish(vaultTimer)},
		OnStart: func(a *character.Actor, in *inst) {
			d := positive(b.log, Vault, "vault_time", b.cfg.VaultTime)
			dist := positive(b.log, Vault, "vault_distance", b.cfg.VaultDistance)
			in.Timer(vaultTimer).Start(d)

			tuck := a.Standing()
			tuck.LowerHeight = math32.Max(tuck.LowerHeight-b.cfg.VaultTuck, tuck.Radius)
			var tucked float32
			if ok, _ := a.Reshape(tuck); ok {
				tucked = a.Standing().LowerHeight - tuck.LowerHeight
			}
			in.SetValue(tuckedValue, tucked)
			in.SetValue(riseValue, math32.Max(a.Ledge.Height+2*a.Shape.CollisionOffset()+minLedge-tucked, 0))
			var speed float32
			if d > 0 {
				speed = dist / d
			}
			a.Motion.SetHorizontal(travel(a).Mul(speed))
			b.dip(a)
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			t := in.Timer(vaultTimer)
			half := t.Duration / 2
			if half > 0 && t.Elapsed < half {
				a.Motion.SetVertSpeed(in.Value(riseValue) / half)
				return
			}
			a.Motion.SetVertSpeed(0)
		},
		OnEnd: func(a *character.Actor, _ *inst) {
			a.Camera = character.CameraHint{}
			if ok, reason := a.Reshape(a.Standing()); !ok {
				b.log.Debugf("parkour: %s lands tucked: %s", a.Name, reason)
			}
		},
	}
}

func (b behaviors) stepUp() *state {
	return &state{
		Name:        StepUp,
		Transitions: []fsm.Transition[*character.Actor]{finish(stepTimer)},
		OnStart: func(a *character.Actor, in *inst) {
			in.Timer(stepTimer).Start(positive(b.log, StepUp, "step_time", b.cfg.StepTime))
			in.SetValue(riseValue, a.Ledge.Height+2*a.Shape.CollisionOffset())
		},
		OnUpdate: func(a *character.Actor, in *inst) {
			t := in.Timer(stepTimer)
			if t.Duration > 0 && t.Elapsed < t.Duration {
				a.Motion.SetVertSpeed(in.Value(riseValue) / t.Duration)
				return
			}
			a.Motion.SetVertSpeed(0)
		},
	}
}

func (b behaviors) respawn() *state {
	return &state{
		Name:        Respawn,
		Transitions: []fsm.Transition[*character.Actor]{fsm.IfElse(onGround, Idle, Airborne)},
		OnStart: func(a *character.Actor, _ *inst) {
			b.log.Infof("parkour: %s fell out of the world, respawning", a.Name)
			a.Teleport(b.cfg.Spawn)
			a.Camera = character.CameraHint{}
		},
	}
}
