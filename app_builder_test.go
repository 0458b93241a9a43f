package kcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockModule struct {
	installed bool
	order     *[]string
	name      string
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.False(t, app.stateful)
	assert.Equal(t, State(0), app.initialState)
	assert.Equal(t, State(0), app.finalState)
	assert.Equal(t, defaultStages(), app.stages)
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(1, 10).Build()

	assert.True(t, app.stateful)
	assert.Equal(t, State(1), app.initialState)
	assert.Equal(t, State(10), app.finalState)
	require.Contains(t, app.systems, Update.Name)
	assert.Len(t, app.systems[Update.Name], 10)
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	builder.UseModule(&MockModule{})

	assert.Len(t, builder.modules, 1)
}

func TestAppBuilder_Build_WithMultipleModules(t *testing.T) {
	var order []string
	module1 := &MockModule{name: "first", order: &order}
	module2 := &MockModule{name: "second", order: &order}

	builder := NewAppBuilder()
	builder.UseModule(module1)
	builder.UseModule(module2)
	builder.Build()

	assert.Len(t, builder.modules, 2)
	assert.True(t, module1.installed, "Expected Install to be called on the module 1")
	assert.True(t, module2.installed, "Expected Install to be called on the module 2")
	assert.Equal(t, []string{"first", "second"}, order)
}
