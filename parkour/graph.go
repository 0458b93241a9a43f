// Package parkour is the default locomotion graph: ground movement, jumping, wall running and
// climbing, ledge hanging and clambering, vaulting and stepping up.
package parkour

import (
	"fmt"

	"github.com/gekko3d/kcc/character"
	"github.com/gekko3d/kcc/fsm"
	"github.com/gekko3d/kcc/logging"
)

// NewMachine builds the default graph for cfg. Idle is the initial state. One machine can
// drive any number of actors.
func NewMachine(cfg Config, log logging.Logger) (*fsm.Machine[*character.Actor], error) {
	log = logging.OrNop(log)
	c := cfg
	b := behaviors{predicates: predicates{cfg: &c}, log: log}

	m := fsm.NewMachine[*character.Actor](log)
	if err := m.Add(
		b.idle(),
		b.groundMove(),
		b.crouch(),
		b.jump(),
		b.airborne(),
		b.wallRun(),
		b.wallClimb(),
		b.ledgeGrab(),
		b.ledgeMove(),
		b.clamberLedge(),
		b.vault(),
		b.stepUp(),
		b.respawn(),
	); err != nil {
		return nil, fmt.Errorf("parkour: %w", err)
	}
	m.Global = []fsm.Transition[*character.Actor]{
		to(Respawn, b.belowKill),
	}
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("parkour: %w", err)
	}
	return m, nil
}
