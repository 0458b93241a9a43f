package kcc

import (
	"fmt"
	"slices"
)

type State int

type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	Finale     = Stage{Name: "Finale"}
)

func defaultStages() []Stage {
	return []Stage{Prelude, PreUpdate, Update, PostUpdate, Finale}
}

type statePhase int

const (
	enter   statePhase = 0
	execute statePhase = 1
	exit    statePhase = 2
)

func (p statePhase) String() string {
	switch p {
	case enter:
		return "enter"
	case execute:
		return "execute"
	case exit:
		return "exit"
	}
	return fmt.Sprintf("statePhase(%d)", int(p))
}

type stateScheduleBuilder struct {
	state  State
	phase  statePhase
	always bool
}

func OnEnter(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: enter}
}

func OnExecute(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: execute}
}

func OnExit(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: exit}
}

func Always() stateScheduleBuilder {
	return stateScheduleBuilder{always: true}
}

type systemScheduleBuilder struct {
	system        systemFn
	inStage       Stage
	runAlways     bool
	inState       State
	inStatePhase  statePhase
	stateProvided bool
}

// System schedules fn in Update for every state. Its parameters are resolved by type when
// it runs: *Commands or any installed resource pointer.
func System(fn systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{system: fn, inStage: Update}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

func (sched systemScheduleBuilder) InState(s stateScheduleBuilder) systemScheduleBuilder {
	sched.runAlways = s.always
	sched.inState = s.state
	sched.inStatePhase = s.phase
	sched.stateProvided = true
	return sched
}

func (sched systemScheduleBuilder) RunAlways() systemScheduleBuilder {
	sched.runAlways = true
	return sched
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageBefore, target: s}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageAfter, target: s}
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	idx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if idx == -1 {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}
	if slices.ContainsFunc(app.stages, func(s Stage) bool { return s.Name == stage.Name }) {
		panic(fmt.Sprintf("Stage %v already exists", stage.Name))
	}

	insertAt := idx
	if where.position == stageAfter {
		insertAt++
	}

	app.stages = slices.Insert(app.stages, insertAt, stage)
	app.initStage(stage)
	return app
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if system.runAlways || !system.stateProvided {
		if _, ok := app.systemsStateless[system.inStage.Name]; ok {
			app.systemsStateless[system.inStage.Name] = append(app.systemsStateless[system.inStage.Name], system.system)
			return app
		}
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}

	if !app.stateful {
		panic("Trying to use a stateful system in a stateless app.")
	}
	systemsInStage, ok := app.systems[system.inStage.Name]
	if !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
	}
	systemsInState, ok := systemsInStage[system.inState]
	if !ok {
		panic(fmt.Sprintf("State %v doesn't exist", system.inState))
	}
	systemsInState[system.inStatePhase] = append(systemsInState[system.inStatePhase], system.system)
	return app
}

func (app *App) initStage(stage Stage) {
	app.systemsStateless[stage.Name] = make([]systemFn, 0)

	if app.stateful {
		app.systems[stage.Name] = make(map[State]map[statePhase][]systemFn)
		for state := app.initialState; state <= app.finalState; state++ {
			app.systems[stage.Name][state] = map[statePhase][]systemFn{
				enter:   {},
				execute: {},
				exit:    {},
			}
		}
	}
}
