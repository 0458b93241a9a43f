package fsm

import "fmt"

// Runtime is one actor's position in a Machine. It is not safe for concurrent use.
type Runtime[C any] struct {
	machine   *Machine[C]
	instances map[string]*Instance

	current  *State[C]
	previous *State[C]
	target   *State[C]

	// OnSwap observes this runtime's state changes, after the machine's observer.
	OnSwap SwapFunc[C]
}

func (r *Runtime[C]) Machine() *Machine[C] { return r.machine }

func (r *Runtime[C]) Current() string  { return nameOf(r.current) }
func (r *Runtime[C]) Previous() string { return nameOf(r.previous) }

// Target is the state selected by the last tick, empty when nothing fired.
func (r *Runtime[C]) Target() string { return nameOf(r.target) }

func (r *Runtime[C]) Started() bool { return r.current != nil }

// Instance returns the per-actor instance of the named state.
func (r *Runtime[C]) Instance(name string) *Instance {
	inst, ok := r.instances[name]
	if !ok {
		var defaults []bool
		if s, found := r.machine.State(name); found {
			defaults = s.Ignore
			if defaults == nil {
				defaults = make([]bool, len(s.Transitions))
			}
		}
		inst = newInstance(defaults)
		r.instances[name] = inst
	}
	return inst
}

// CurrentInstance is Instance(Current()).
func (r *Runtime[C]) CurrentInstance() *Instance {
	if r.current == nil {
		return nil
	}
	return r.Instance(r.current.Name)
}

// Start enters the initial state if the runtime has not started yet.
func (r *Runtime[C]) Start(ctx C) error {
	if r.current != nil {
		return nil
	}
	s, ok := r.machine.State(r.machine.initial)
	if !ok {
		return fmt.Errorf("%w: initial %q", ErrUnknownState, r.machine.initial)
	}
	r.enter(ctx, s)
	return nil
}

// Tick evaluates the global transitions and then the current state's, swaps to the first
// target that fired when it differs from the current state, and updates whichever state is
// current afterwards.
func (r *Runtime[C]) Tick(ctx C, dt float32) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	r.CurrentInstance().advance(dt)

	r.target = r.evaluate(ctx)
	if r.target != nil && r.target != r.current {
		r.swap(ctx, r.target)
	}

	inst := r.CurrentInstance()
	r.call(ctx, r.current, "update", r.current.OnUpdate, inst)
	inst.Ticks++
	return nil
}

// Force swaps to the named state outside of transition evaluation. No update runs.
func (r *Runtime[C]) Force(ctx C, name string) error {
	s, ok := r.machine.State(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	if r.current == nil {
		r.enter(ctx, s)
		return nil
	}
	if s != r.current {
		r.swap(ctx, s)
	}
	return nil
}

func (r *Runtime[C]) evaluate(ctx C) *State[C] {
	inst := r.CurrentInstance()
	for _, t := range r.machine.Global {
		if s := r.fire(ctx, t, inst); s != nil {
			return s
		}
	}
	for idx, t := range r.current.Transitions {
		if inst.Ignored(idx) {
			continue
		}
		if s := r.fire(ctx, t, inst); s != nil {
			return s
		}
	}
	return nil
}

// fire evaluates one transition. A panicking predicate counts as not firing.
func (r *Runtime[C]) fire(ctx C, t Transition[C], inst *Instance) (s *State[C]) {
	defer func() {
		if p := recover(); p != nil {
			r.machine.log.Errorf("fsm: transition %q in state %q panicked: %v", t.Name, r.Current(), p)
			s = nil
		}
	}()
	name, ok := t.Evaluate(ctx, inst)
	if !ok {
		return nil
	}
	target, found := r.machine.State(name)
	if !found {
		r.machine.log.Errorf("fsm: transition %q targets unknown state %q", t.Name, name)
		return nil
	}
	return target
}

func (r *Runtime[C]) swap(ctx C, to *State[C]) {
	from := r.current
	r.call(ctx, from, "end", from.OnEnd, r.Instance(from.Name))
	r.previous = from
	r.enter(ctx, to)
}

func (r *Runtime[C]) enter(ctx C, s *State[C]) {
	from := nameOf(r.current)
	r.current = s
	inst := r.Instance(s.Name)
	inst.enter()
	r.call(ctx, s, "start", s.OnStart, inst)
	r.machine.log.Debugf("fsm: %q -> %q", from, s.Name)
	if r.machine.OnSwap != nil {
		r.machine.OnSwap(ctx, from, s.Name)
	}
	if r.OnSwap != nil {
		r.OnSwap(ctx, from, s.Name)
	}
}

// call runs a hook. A panicking hook is logged and skipped.
func (r *Runtime[C]) call(ctx C, s *State[C], phase string, h Hook[C], inst *Instance) {
	if h == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.machine.log.Errorf("fsm: %s hook of state %q panicked: %v", phase, s.Name, p)
		}
	}()
	h(ctx, inst)
}

func nameOf[C any](s *State[C]) string {
	if s == nil {
		return ""
	}
	return s.Name
}
