package movement

import (
	"fmt"

	"github.com/gekko3d/kcc/capsule"
	"github.com/gekko3d/kcc/collision"
	"github.com/gekko3d/kcc/logging"
)

// FailReason names the shape field whose change was rejected.
type FailReason int

const (
	FailNone FailReason = iota
	FailRadius
	FailUpperHeight
	FailLowerHeight
	FailOrientation
	FailPositionOffset
)

func (f FailReason) String() string {
	switch f {
	case FailNone:
		return "None"
	case FailRadius:
		return "Radius"
	case FailUpperHeight:
		return "UpperHeight"
	case FailLowerHeight:
		return "LowerHeight"
	case FailOrientation:
		return "Orientation"
	case FailPositionOffset:
		return "PositionOffset"
	}
	return fmt.Sprintf("FailReason(%d)", int(f))
}

// Validator checks shape changes one field at a time against the surrounding geometry.
type Validator struct {
	adapter collision.Adapter
	log     logging.Logger

	Mask   collision.Mask
	Ignore collision.IgnoreSet
}

func NewValidator(adapter collision.Adapter, log logging.Logger) *Validator {
	return &Validator{
		adapter: adapter,
		log:     logging.OrNop(log),
		Mask:    collision.MaskAll,
	}
}

type fieldStep struct {
	reason  FailReason
	changed func(cur, next capsule.Snapshot) bool
	apply   func(snap *capsule.Snapshot, next capsule.Snapshot)
}

var fieldOrder = []fieldStep{
	{
		reason: FailRadius,
		// a shrinking radius cannot start a new overlap
		changed: func(cur, next capsule.Snapshot) bool { return next.Radius > cur.Radius },
		apply:   func(s *capsule.Snapshot, n capsule.Snapshot) { s.Radius = n.Radius },
	},
	{
		reason:  FailUpperHeight,
		changed: func(cur, next capsule.Snapshot) bool { return next.UpperHeight != cur.UpperHeight },
		apply:   func(s *capsule.Snapshot, n capsule.Snapshot) { s.UpperHeight = n.UpperHeight },
	},
	{
		reason:  FailLowerHeight,
		changed: func(cur, next capsule.Snapshot) bool { return next.LowerHeight != cur.LowerHeight },
		apply:   func(s *capsule.Snapshot, n capsule.Snapshot) { s.LowerHeight = n.LowerHeight },
	},
	{
		reason:  FailOrientation,
		changed: func(cur, next capsule.Snapshot) bool { return next.Orientation != cur.Orientation },
		apply:   func(s *capsule.Snapshot, n capsule.Snapshot) { s.Orientation = n.Orientation },
	},
	{
		reason:  FailPositionOffset,
		changed: func(cur, next capsule.Snapshot) bool { return next.PositionOffset != cur.PositionOffset },
		apply:   func(s *capsule.Snapshot, n capsule.Snapshot) { s.PositionOffset = n.PositionOffset },
	},
}

// Validate walks the proposed change field by field and stops at the first field whose new
// value overlaps a collider outside the ignore set. The shape ends in the proposed state only
// when every field passed and commit is set; otherwise it is restored in full.
func (v *Validator) Validate(shape *capsule.Shape, proposed capsule.Snapshot, commit bool) (bool, FailReason) {
	original := shape.Snapshot()
	working := original
	reason := FailNone

	for _, step := range fieldOrder {
		// a shrinking radius is still applied, just not checked
		if step.reason == FailRadius && proposed.Radius < working.Radius {
			step.apply(&working, proposed)
			shape.Apply(working)
			continue
		}
		if !step.changed(working, proposed) {
			continue
		}
		step.apply(&working, proposed)
		shape.Apply(working)
		if v.blocked(shape) {
			reason = step.reason
			break
		}
	}

	if reason == FailNone && commit {
		shape.Apply(proposed)
		return true, FailNone
	}
	shape.Apply(original)
	if reason != FailNone {
		v.log.Debugf("movement: shape change rejected at %s", reason)
	}
	return reason == FailNone, reason
}

func (v *Validator) blocked(shape *capsule.Shape) bool {
	for _, c := range v.adapter.Overlap(shape.Ends(), shape.Radius(), v.Mask) {
		if !v.Ignore.Ignores(c) {
			return true
		}
	}
	return false
}
