// Package movement turns a desired displacement into a safe one by sliding the capsule along
// every surface it would penetrate, probes for ground after the move, and validates shape
// changes against the surrounding geometry.
package movement

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/kcc/capsule"
	"github.com/gekko3d/kcc/collision"
	"github.com/gekko3d/kcc/logging"
)

// MaxResolveAttempts bounds the amendments of a single move.
const MaxResolveAttempts = 99

// amendFloor is the smallest push worth a fresh pair of sweeps. Pushes below it are float32
// residue from a previous amendment that already left the capsule at the skin distance.
const amendFloor float32 = 1e-5

var ErrUnresolvable = errors.New("movement: displacement could not be resolved")

type NotifyMode int

const (
	// NotifyBatched fires OnContact for every contact after the move is applied.
	NotifyBatched NotifyMode = iota
	// NotifyImmediate fires OnContact as each contact is resolved.
	NotifyImmediate
)

func (m NotifyMode) String() string {
	switch m {
	case NotifyBatched:
		return "batched"
	case NotifyImmediate:
		return "immediate"
	}
	return fmt.Sprintf("NotifyMode(%d)", int(m))
}

// Contact is one resolved hit together with the push it caused.
type Contact struct {
	Hit collision.Hit
	// Point is the capsule surface point that touches the struck surface.
	Point     mgl32.Vec3
	Amendment mgl32.Vec3
}

type Result struct {
	Requested mgl32.Vec3
	Applied   mgl32.Vec3
	Contacts  []Contact
	Attempts  int
}

// Mover receives the resolved displacement.
type Mover interface {
	Translate(d mgl32.Vec3)
}

type Resolver struct {
	adapter collision.Adapter
	log     logging.Logger

	Mask      collision.Mask
	Notify    NotifyMode
	OnContact func(Contact)
	// Hub receives aborted moves. Nil disables reporting.
	Hub *sentry.Hub
}

func NewResolver(adapter collision.Adapter, log logging.Logger) *Resolver {
	return &Resolver{
		adapter: adapter,
		log:     logging.OrNop(log),
		Mask:    collision.MaskAll,
		Notify:  NotifyBatched,
	}
}

func (r *Resolver) Adapter() collision.Adapter { return r.adapter }

// sweptHit remembers which of the two sweeps produced a hit.
type sweptHit struct {
	collision.Hit
	beforeBoundary bool
}

// sweep casts the capsule along desired at the bare radius and again at the skin radius.
func (r *Resolver) sweep(shape *capsule.Shape, desired mgl32.Vec3, ignore collision.IgnoreSet) []sweptHit {
	length := desired.Len()
	if length == 0 {
		return nil
	}
	dir := desired.Mul(1 / length)
	ends := shape.Ends()

	inner := collision.FilterHits(r.adapter.Sweep(ends, shape.Radius(), dir, length, r.Mask), ignore)
	outer := collision.FilterHits(r.adapter.Sweep(ends, shape.SkinRadius(), dir, length, r.Mask), ignore)

	merged := make([]collision.Hit, 0, len(inner)+len(outer))
	merged = append(merged, inner...)
	merged = append(merged, outer...)
	boundary := len(inner)

	// tag before sorting so the origin survives reordering
	tagged := make([]sweptHit, len(merged))
	for i, h := range merged {
		tagged[i] = sweptHit{Hit: h, beforeBoundary: i < boundary}
	}
	sortSwept(tagged)
	return tagged
}

// Resolve computes the displacement the shape can travel without penetrating anything.
// The shape and its frame are left untouched.
func (r *Resolver) Resolve(shape *capsule.Shape, desired mgl32.Vec3, ignore collision.IgnoreSet) (Result, error) {
	res := Result{Requested: desired}
	skin := shape.SkinRadius()

	for {
		amended := false
		for _, h := range r.sweep(shape, desired, ignore) {
			if h.Started() {
				if h.beforeBoundary {
					r.log.Warnf("movement: capsule is already embedded in %s", describe(h.Collider))
				} else {
					r.log.Debugf("movement: capsule is too close to %s", describe(h.Collider))
				}
				continue
			}
			if h.Normal.LenSqr() == 0 {
				continue
			}
			n := h.Normal.Normalize()
			if n.Dot(desired) >= 0 {
				continue
			}

			axisPoint := shape.ClosestAxisPoint(h.Point, n)
			moved := -desired.Dot(n)
			gap := -h.Point.Sub(axisPoint).Dot(n)
			overshoot := moved - gap
			if overshoot <= -skin {
				continue
			}
			push := skin + overshoot
			if push < amendFloor {
				continue
			}

			res.Attempts++
			if res.Attempts > MaxResolveAttempts {
				return r.abort(res, desired)
			}

			amendment := n.Mul(push)
			desired = desired.Add(amendment)
			c := Contact{
				Hit:       h.Hit,
				Point:     shape.ClosestPointOnSurface(h.Point, n),
				Amendment: amendment,
			}
			res.Contacts = append(res.Contacts, c)
			if r.Notify == NotifyImmediate && r.OnContact != nil {
				r.OnContact(c)
			}
			amended = true
			break
		}
		if !amended {
			break
		}
	}

	res.Applied = desired
	return res, nil
}

// Move resolves desired and applies the result to pose. Nothing is applied on error.
func (r *Resolver) Move(pose Mover, shape *capsule.Shape, desired mgl32.Vec3, ignore collision.IgnoreSet) (Result, error) {
	res, err := r.Resolve(shape, desired, ignore)
	if err != nil {
		return res, err
	}
	if res.Applied.LenSqr() > 0 {
		pose.Translate(res.Applied)
	}
	if r.Notify == NotifyBatched && r.OnContact != nil {
		for _, c := range res.Contacts {
			r.OnContact(c)
		}
	}
	return res, nil
}

func (r *Resolver) abort(res Result, last mgl32.Vec3) (Result, error) {
	err := fmt.Errorf("%w: %d amendments exceeded, requested %v, last %v",
		ErrUnresolvable, MaxResolveAttempts, res.Requested, last)
	r.log.Errorf("%v", err)
	if r.Hub != nil {
		hub := r.Hub.Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("component", "movement")
			scope.SetExtra("contacts", len(res.Contacts))
		})
		hub.CaptureException(err)
	}
	res.Applied = mgl32.Vec3{}
	return res, err
}

func sortSwept(hits []sweptHit) {
	slices.SortStableFunc(hits, func(a, b sweptHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
}

func describe(c collision.Collider) string {
	if c == nil {
		return "unknown collider"
	}
	return "collider " + c.ID().String()
}
