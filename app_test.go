package kcc

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func TestApp_changeState(t *testing.T) {
	app := NewAppBuilder().UseStates(1, 2).Build()
	app.state = 1

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState, "The nextState should be set correctly.")
	assert.True(t, app.stateTransitioning, "The stateTransitioning flag should be true.")

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state, "The app state should change correctly.")
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(&MockResource1{name: "again"})
	})

	resource2 := &MockResource2{name: "Resource2"}
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	got, ok := Resource[MockResource2](app)
	require.True(t, ok)
	assert.Same(t, resource2, got)

	require.Panics(t, func() { app.addResources(MockResource1{}) })
}

func TestApp_SystemsResolveResources(t *testing.T) {
	app := NewAppBuilder().Build()
	res := &MockResource1{}
	app.Commands().AddResources(res)

	var seen []string
	app.UseSystem(System(func(r *MockResource1, cmd *Commands) {
		r.name = "touched"
		seen = append(seen, "update")
	}))
	app.UseSystem(System(func(*MockResource1) { seen = append(seen, "pre") }).InStage(PreUpdate))
	app.UseSystem(System(func(*MockResource1) { seen = append(seen, "post") }).InStage(PostUpdate))

	require.True(t, app.Step())
	assert.Equal(t, []string{"pre", "update", "post"}, seen)
	assert.Equal(t, "touched", res.name)
	assert.Equal(t, uint64(1), app.Ticks())
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(*MockResource2) {}))

	defer func() {
		v := recover()
		require.NotNil(t, v)
		assert.Contains(t, v, "Unable to resolve System dependency.")
		assert.Contains(t, v, "Dependency: *kcc.MockResource2")
	}()
	app.Step()
}

func TestApp_UseStage(t *testing.T) {
	app := NewAppBuilder().Build()
	physics := Stage{Name: "Physics"}
	app.UseStage(physics, AfterStage(Update))

	var seen []string
	app.UseSystem(System(func() { seen = append(seen, "physics") }).InStage(physics))
	app.UseSystem(System(func() { seen = append(seen, "post") }).InStage(PostUpdate))
	app.UseSystem(System(func() { seen = append(seen, "update") }))
	app.Step()

	assert.Equal(t, []string{"update", "physics", "post"}, seen)
	assert.Panics(t, func() { app.UseStage(physics, BeforeStage(Update)) })
	assert.Panics(t, func() { app.UseStage(Stage{Name: "Late"}, AfterStage(Stage{Name: "Missing"})) })
	assert.Panics(t, func() { app.UseSystem(System(func() {}).InStage(Stage{Name: "Missing"})) })
}

const (
	stateLoading State = iota
	statePlaying
	stateDone
)

func TestApp_StatefulRun(t *testing.T) {
	app := NewAppBuilder().UseStates(stateLoading, stateDone).Build()

	var seen []string
	record := func(s string) func() { return func() { seen = append(seen, s) } }
	app.UseSystem(System(record("enter loading")).InState(OnEnter(stateLoading)))
	app.UseSystem(System(func(cmd *Commands) {
		seen = append(seen, "loading")
		cmd.ChangeState(statePlaying)
	}).InState(OnExecute(stateLoading)))
	app.UseSystem(System(record("exit loading")).InState(OnExit(stateLoading)))
	app.UseSystem(System(func(cmd *Commands) {
		seen = append(seen, "playing")
		cmd.ChangeState(stateDone)
	}).InState(OnExecute(statePlaying)))
	app.UseSystem(System(record("exit done")).InState(OnExit(stateDone)))
	app.UseSystem(System(record("always")).InState(Always()))

	app.Run()

	assert.Equal(t, []string{
		"enter loading",
		"always", "loading",
		"exit loading",
		"always", "playing",
		"exit done",
	}, seen)
	assert.Equal(t, stateDone, app.State())
	assert.False(t, app.Step())
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.PanicsWithValue(t, "Trying to use a stateful system in a stateless app.", func() {
		app.UseSystem(System(func() {}).InState(OnEnter(1)))
	})
}

func TestApp_Quit(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(cmd *Commands) {
		if app.Ticks() == 2 {
			cmd.Quit()
		}
	}))

	assert.False(t, app.RunFor(10))
	assert.Equal(t, uint64(3), app.Ticks())
}
