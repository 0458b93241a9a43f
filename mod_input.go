package kcc

import (
	"slices"
)

// Look axes are read by the follow camera as degrees of mouse travel per tick.
const (
	AxisLookX = "look_x"
	AxisLookY = "look_y"
)

// Input is the per-tick action state. It satisfies character.Input, so actors spawned
// without their own input read it directly.
type Input struct {
	axes         map[string]float32
	pressed      map[string]bool
	justPressed  map[string]bool
	justReleased map[string]bool
}

func NewInput() *Input {
	return &Input{
		axes:         make(map[string]float32),
		pressed:      make(map[string]bool),
		justPressed:  make(map[string]bool),
		justReleased: make(map[string]bool),
	}
}

func (in *Input) Axis(name string) float32 { return in.axes[name] }

func (in *Input) Held(action string) bool { return in.pressed[action] }

// Pressed reports an action that went down this tick.
func (in *Input) Pressed(action string) bool { return in.justPressed[action] }

func (in *Input) Released(action string) bool { return in.justReleased[action] }

func (in *Input) SetAxis(name string, v float32) {
	if v == 0 {
		delete(in.axes, name)
		return
	}
	in.axes[name] = v
}

// Set records the current state of an action, raising the edge flags when it changes.
func (in *Input) Set(action string, down bool) {
	if down {
		if !in.pressed[action] {
			in.justPressed[action] = true
		}
		in.pressed[action] = true
	} else {
		if in.pressed[action] {
			in.justReleased[action] = true
		}
		delete(in.pressed, action)
	}
}

// Reset clears every action and axis.
func (in *Input) Reset() {
	clear(in.axes)
	clear(in.pressed)
	in.BeginFrame()
}

// BeginFrame clears the edge flags of the previous tick. InputModule calls it for the shared
// Input; owners of other inputs call it before polling.
func (in *Input) BeginFrame() {
	clear(in.justPressed)
	clear(in.justReleased)
}

// InputSource writes the device state for one tick.
type InputSource interface {
	Poll(tick uint64, in *Input)
}

// Cue is one change on a Script's timeline. Axes listed keep their value until a later cue
// changes them.
type Cue struct {
	At      uint64
	Axes    map[string]float32
	Press   []string
	Release []string
}

// Script replays cues by tick. It drives headless runs and tests.
type Script struct {
	cues []Cue
	next int
}

func NewScript(cues ...Cue) *Script {
	s := &Script{cues: slices.Clone(cues)}
	slices.SortStableFunc(s.cues, func(a, b Cue) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return s
}

func (s *Script) Poll(tick uint64, in *Input) {
	for s.next < len(s.cues) && s.cues[s.next].At <= tick {
		c := s.cues[s.next]
		for name, v := range c.Axes {
			in.SetAxis(name, v)
		}
		for _, action := range c.Release {
			in.Set(action, false)
		}
		for _, action := range c.Press {
			in.Set(action, true)
		}
		s.next++
	}
}

// Done reports that every cue has been applied.
func (s *Script) Done() bool { return s.next >= len(s.cues) }

// InputModule installs the shared Input and polls Sources into it before Update.
type InputModule struct {
	Sources []InputSource
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	input := NewInput()
	cmd.AddResources(input)
	sources := slices.Clone(mod.Sources)
	app.UseSystem(
		System(func(in *Input, t *Time) {
			in.BeginFrame()
			for _, src := range sources {
				src.Poll(t.Tick, in)
			}
		}).
			InStage(PreUpdate).
			RunAlways(),
	)
}
