// Package fsm is a generic state machine with global and per-state transitions, per-actor
// ignore masks and conditional-branch transitions. C is the context passed to every hook and
// predicate, typically the actor being driven.
package fsm

import (
	"errors"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/gekko3d/kcc/logging"
)

var (
	ErrDuplicateState = errors.New("fsm: duplicate state")
	ErrUnknownState   = errors.New("fsm: unknown state")
	ErrIgnoreLength   = errors.New("fsm: ignore flags do not match transitions")
)

// Hook is a state behavior callback.
type Hook[C any] func(ctx C, inst *Instance)

// State is shared, read-only configuration. Ignore, when set, holds the default ignore flag
// for each entry of Transitions.
type State[C any] struct {
	Name        string
	Transitions []Transition[C]
	Ignore      []bool

	OnStart  Hook[C]
	OnUpdate Hook[C]
	OnEnd    Hook[C]
}

// SwapFunc observes state changes. from is empty on the first entry.
type SwapFunc[C any] func(ctx C, from, to string)

// Machine is the shared graph: the state registry in insertion order, the global
// transitions checked before any state's own, and the initial state.
type Machine[C any] struct {
	log     logging.Logger
	states  *orderedmap.OrderedMap[string, *State[C]]
	initial string

	Global []Transition[C]
	OnSwap SwapFunc[C]
}

func NewMachine[C any](log logging.Logger) *Machine[C] {
	return &Machine[C]{
		log:    logging.OrNop(log),
		states: orderedmap.NewOrderedMap[string, *State[C]](),
	}
}

// Add registers states. The first state ever added becomes the initial state.
func (m *Machine[C]) Add(states ...*State[C]) error {
	for _, s := range states {
		if _, ok := m.states.Get(s.Name); ok {
			return fmt.Errorf("%w: %q", ErrDuplicateState, s.Name)
		}
		if s.Ignore != nil && len(s.Ignore) != len(s.Transitions) {
			return fmt.Errorf("%w: state %q has %d flags for %d transitions",
				ErrIgnoreLength, s.Name, len(s.Ignore), len(s.Transitions))
		}
		m.states.Set(s.Name, s)
		if m.initial == "" {
			m.initial = s.Name
		}
	}
	return nil
}

func (m *Machine[C]) SetInitial(name string) error {
	if _, ok := m.states.Get(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	m.initial = name
	return nil
}

func (m *Machine[C]) Initial() string { return m.initial }

func (m *Machine[C]) State(name string) (*State[C], bool) {
	return m.states.Get(name)
}

// States lists state names in registration order.
func (m *Machine[C]) States() []string {
	return m.states.Keys()
}

// Check verifies that every transition target names a registered state.
func (m *Machine[C]) Check() error {
	var errs []error
	check := func(owner string, t Transition[C]) {
		for _, target := range []string{t.To, t.Else} {
			if target == "" {
				continue
			}
			if _, ok := m.states.Get(target); !ok {
				errs = append(errs, fmt.Errorf("%w: %q targeted from %s", ErrUnknownState, target, owner))
			}
		}
	}
	for _, t := range m.Global {
		check("global transitions", t)
	}
	for el := m.states.Front(); el != nil; el = el.Next() {
		for _, t := range el.Value.Transitions {
			check(fmt.Sprintf("state %q", el.Key), t)
		}
	}
	if m.initial == "" {
		errs = append(errs, fmt.Errorf("%w: no initial state", ErrUnknownState))
	}
	return errors.Join(errs...)
}

// NewRuntime returns fresh per-actor state for this machine.
func (m *Machine[C]) NewRuntime() *Runtime[C] {
	return &Runtime[C]{
		machine:   m,
		instances: make(map[string]*Instance),
	}
}
