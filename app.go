// Package kcc runs character controllers inside a small staged app: modules install
// resources and systems, systems run stage by stage once per tick, and commands queued by a
// system take effect when its stage ends.
package kcc

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/kcc/character"
)

type systemFn any

type App struct {
	stateful           bool
	stateTransitioning bool
	started            bool
	quit               bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	ticks              uint64

	// Command buffering
	pendingSpawns   []pendingSpawn
	pendingDespawns []uuid.UUID
}

type pendingSpawn struct {
	id    uuid.UUID
	name  string
	at    mgl32.Vec3
	input character.Input
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) State() State { return app.state }

// Ticks is the number of completed Step calls.
func (app *App) Ticks() uint64 { return app.ticks }

// Run steps until the final state is reached or a system asks to quit.
func (app *App) Run() {
	for app.Step() {
	}
}

// RunFor steps at most n times and reports whether the app is still running.
func (app *App) RunFor(n int) bool {
	for i := 0; i < n; i++ {
		if !app.Step() {
			return false
		}
	}
	return !app.done()
}

// Step runs every stage once. It returns false once the app has finished.
func (app *App) Step() bool {
	if app.done() {
		return false
	}
	if !app.started {
		app.start()
	}

	app.callSystems(app.state, execute)
	app.ticks++

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}
		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			app.quit = true
		}
	}
	return !app.done()
}

func (app *App) done() bool { return app.quit }

func (app *App) start() {
	app.started = true
	if app.stateful {
		app.Logger().Infof("running in stateful mode")
		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		app.Logger().Infof("running in stateless mode")
	}
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		// Stateless systems run on execute only, before the state's own.
		if phase == execute {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		if app.stateful {
			if systemsInStage, ok := app.systems[stage.Name]; ok {
				if systemsInState, ok := systemsInStage[state]; ok {
					for _, system := range systemsInState[phase] {
						app.callSystem(system)
					}
				}
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("%s is not a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the installed *T.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

func (app *App) callSystem(system systemFn) {
	app.callSystemInternal(system)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}

// FlushCommands applies queued despawns, then queued spawns.
func (app *App) FlushCommands() {
	if len(app.pendingSpawns) == 0 && len(app.pendingDespawns) == 0 {
		return
	}

	chars, ok := Resource[Characters](app)
	if !ok {
		app.Logger().Errorf("dropping %d spawns and %d despawns: no character module installed",
			len(app.pendingSpawns), len(app.pendingDespawns))
		app.pendingSpawns = app.pendingSpawns[:0]
		app.pendingDespawns = app.pendingDespawns[:0]
		return
	}

	for _, id := range app.pendingDespawns {
		if !chars.remove(id) {
			app.Logger().Warnf("despawn %s: no such character", id)
		}
	}
	app.pendingDespawns = app.pendingDespawns[:0]

	for _, s := range app.pendingSpawns {
		input := s.input
		if input == nil {
			if in, ok := Resource[Input](app); ok {
				input = in
			}
		}
		if _, err := chars.spawn(s.id, s.name, s.at, input); err != nil {
			app.Logger().Errorf("spawn %s: %v", s.name, err)
		}
	}
	app.pendingSpawns = app.pendingSpawns[:0]
}
