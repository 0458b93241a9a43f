package fsm

// Predicate decides whether a transition fires. inst is the per-actor instance of the state
// being evaluated.
type Predicate[C any] func(ctx C, inst *Instance) bool

// Kind tags the evaluation rule of a Transition.
type Kind int

const (
	// KindPlain fires toward To when When holds.
	KindPlain Kind = iota
	// KindIfElse always fires: toward To when When holds, toward Else otherwise.
	KindIfElse
	// KindIfElseIf fires only when Gate holds and then When or ElseWhen select a target.
	KindIfElseIf
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindIfElse:
		return "if-else"
	case KindIfElseIf:
		return "if-else-if"
	}
	return "unknown"
}

// Transition points from the state that lists it to another state by name. Transitions are
// plain values shared by every actor running the machine.
type Transition[C any] struct {
	Name string
	Kind Kind

	Gate     Predicate[C]
	When     Predicate[C]
	ElseWhen Predicate[C]

	To   string
	Else string
}

// To builds a plain transition. A nil predicate always fires.
func To[C any](target string, when Predicate[C]) Transition[C] {
	return Transition[C]{Name: "to " + target, Kind: KindPlain, When: when, To: target}
}

// IfElse builds a transition that always selects one of two targets.
func IfElse[C any](cond Predicate[C], then, otherwise string) Transition[C] {
	return Transition[C]{
		Name: "if " + then + " else " + otherwise,
		Kind: KindIfElse,
		When: cond,
		To:   then,
		Else: otherwise,
	}
}

// IfElseIf builds a transition whose two branches share the gate. When the gate fails, or
// neither branch holds, nothing fires.
func IfElseIf[C any](gate, ifCond Predicate[C], ifTarget string, elseIfCond Predicate[C], elseIfTarget string) Transition[C] {
	return Transition[C]{
		Name:     "if " + ifTarget + " else if " + elseIfTarget,
		Kind:     KindIfElseIf,
		Gate:     gate,
		When:     ifCond,
		To:       ifTarget,
		ElseWhen: elseIfCond,
		Else:     elseIfTarget,
	}
}

// Named returns a copy with a display name used in logs.
func (t Transition[C]) Named(name string) Transition[C] {
	t.Name = name
	return t
}

// Evaluate reports the selected target, or false when the transition does not fire.
func (t Transition[C]) Evaluate(ctx C, inst *Instance) (string, bool) {
	switch t.Kind {
	case KindPlain:
		if holds(t.When, ctx, inst) {
			return t.To, true
		}
		return "", false
	case KindIfElse:
		if holds(t.When, ctx, inst) {
			return t.To, true
		}
		return t.Else, true
	case KindIfElseIf:
		if t.Gate != nil && !t.Gate(ctx, inst) {
			return "", false
		}
		if t.When != nil && t.When(ctx, inst) {
			return t.To, true
		}
		if t.ElseWhen != nil && t.ElseWhen(ctx, inst) {
			return t.Else, true
		}
		return "", false
	}
	return "", false
}

// holds treats a nil predicate as always true.
func holds[C any](p Predicate[C], ctx C, inst *Instance) bool {
	return p == nil || p(ctx, inst)
}

// Not negates a predicate.
func Not[C any](p Predicate[C]) Predicate[C] {
	return func(ctx C, inst *Instance) bool { return !holds(p, ctx, inst) }
}

// All holds when every predicate holds.
func All[C any](ps ...Predicate[C]) Predicate[C] {
	return func(ctx C, inst *Instance) bool {
		for _, p := range ps {
			if !holds(p, ctx, inst) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one predicate holds.
func Any[C any](ps ...Predicate[C]) Predicate[C] {
	return func(ctx C, inst *Instance) bool {
		for _, p := range ps {
			if p != nil && p(ctx, inst) {
				return true
			}
		}
		return false
	}
}
