package fsm

// Timer counts seconds up to a duration. The zero value is stopped.
type Timer struct {
	Duration float32
	Elapsed  float32
	running  bool
}

func (t *Timer) Start(duration float32) {
	t.Duration = duration
	t.Elapsed = 0
	t.running = true
}

func (t *Timer) Stop() { t.running = false }

func (t *Timer) Advance(dt float32) {
	if t.running {
		t.Elapsed += dt
	}
}

func (t *Timer) Running() bool { return t.running }

// Done reports whether a started timer has reached its duration.
func (t *Timer) Done() bool {
	return t.running && t.Elapsed >= t.Duration
}

func (t *Timer) Remaining() float32 {
	if r := t.Duration - t.Elapsed; r > 0 {
		return r
	}
	return 0
}

// Instance is the per-actor storage of one state: its runtime transition ignore flags,
// timers and scratch values. Shared State values never hold any of this.
type Instance struct {
	defaults []bool
	ignore   []bool
	prepared bool

	// Entries counts how many times the state has been entered.
	Entries int
	// Ticks counts updates since the last entry.
	Ticks int
	// Elapsed is the time since the last entry in seconds.
	Elapsed float32

	timers map[string]*Timer
	values map[string]float32
}

func newInstance(defaults []bool) *Instance {
	return &Instance{
		defaults: defaults,
		timers:   make(map[string]*Timer),
		values:   make(map[string]float32),
	}
}

// prepare copies the default ignore flags on first entry only.
func (i *Instance) prepare() {
	if i.prepared {
		return
	}
	i.ResetIgnores()
	i.prepared = true
}

// Ignored reports whether the local transition at idx is skipped.
func (i *Instance) Ignored(idx int) bool {
	return idx >= 0 && idx < len(i.ignore) && i.ignore[idx]
}

func (i *Instance) Ignore(idx int) {
	if idx >= 0 && idx < len(i.ignore) {
		i.ignore[idx] = true
	}
}

func (i *Instance) Enable(idx int) {
	if idx >= 0 && idx < len(i.ignore) {
		i.ignore[idx] = false
	}
}

// EnableAll re-enables every local transition.
func (i *Instance) EnableAll() {
	clear(i.ignore)
}

// ResetIgnores restores the state's default ignore flags.
func (i *Instance) ResetIgnores() {
	if len(i.ignore) != len(i.defaults) {
		i.ignore = make([]bool, len(i.defaults))
	}
	copy(i.ignore, i.defaults)
}

// Timer returns the named timer, creating a stopped one on first use.
func (i *Instance) Timer(name string) *Timer {
	t, ok := i.timers[name]
	if !ok {
		t = &Timer{}
		i.timers[name] = t
	}
	return t
}

func (i *Instance) Value(name string) float32 { return i.values[name] }

func (i *Instance) SetValue(name string, v float32) { i.values[name] = v }

func (i *Instance) advance(dt float32) {
	i.Elapsed += dt
	for _, t := range i.timers {
		t.Advance(dt)
	}
}

func (i *Instance) enter() {
	i.prepare()
	i.Entries++
	i.Ticks = 0
	i.Elapsed = 0
	for _, t := range i.timers {
		t.Stop()
	}
}
