package kcc

import (
	"reflect"
)

type Module interface {
	Install(app *App, cmd *Commands)
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: &App{
		resources:        make(map[reflect.Type]any),
		systems:          make(map[string]map[State]map[statePhase][]systemFn),
		systemsStateless: make(map[string][]systemFn),
		stateful:         false,
	}}
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.stateful = true
	b.app.initialState = initialState
	b.app.finalState = finalState

	return b
}

// UseModule queues modules. They install in the order given, so a module may look up the
// resources of the modules before it.
func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	commands := &Commands{app: app}

	for _, stage := range defaultStages() {
		app.stages = append(app.stages, stage)
		app.initStage(stage)
	}

	for _, module := range b.modules {
		module.Install(app, commands)
	}

	return app
}
