package kcc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/kcc/movement"
	"github.com/gekko3d/kcc/parkour"
)

func TestLoadSettings_DefaultValues(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, "kcc", s.Log.Prefix)
	assert.Equal(t, float32(0.4), s.Actor.Radius)
	assert.Equal(t, "batched", s.Actor.Notify)
	assert.Equal(t, time.Second/60, s.Time.FixedStep)
	assert.Equal(t, parkour.DefaultConfig(), s.Parkour)
	assert.True(t, s.Metrics.Enabled)
	assert.Empty(t, s.Sentry.DSN)
}

func TestLoadSettings_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := `{
		"log": { "debug": true, "prefix": "course" },
		"actor": { "radius": 0.3, "gravity": [0, -20, 0], "notify": "immediate" },
		"parkour": { "walk_speed": 5, "jump_speed": 8.5, "spawn": [1, 2, 3] },
		"time": { "fixed_step": "20ms" },
		"world": { "cell_size": 8 },
		"metrics": { "enabled": false }
	}`
	path := filepath.Join(dir, "kcc.json")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.True(t, s.Log.Debug)
	assert.Equal(t, "course", s.Log.Prefix)
	assert.Equal(t, float32(0.3), s.Actor.Radius)
	assert.Equal(t, float32(0.9), s.Actor.LowerHeight)
	assert.Equal(t, mgl32.Vec3{0, -20, 0}, s.Actor.Gravity)
	assert.Equal(t, float32(5), s.Parkour.WalkSpeed)
	assert.Equal(t, float32(8.5), s.Parkour.JumpSpeed)
	assert.Equal(t, parkour.DefaultConfig().SprintSpeed, s.Parkour.SprintSpeed)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, s.Parkour.Spawn)
	assert.Equal(t, 20*time.Millisecond, s.Time.FixedStep)
	assert.Equal(t, float32(8), s.World.CellSize)
	assert.False(t, s.Metrics.Enabled)

	actor, err := s.Actor.Character()
	require.NoError(t, err)
	assert.Equal(t, movement.NotifyImmediate, actor.Notify)
	assert.Equal(t, float32(0.3), actor.Shape.Radius)

	modules, err := s.Modules(nil)
	require.NoError(t, err)
	for _, m := range modules {
		assert.NotEqual(t, MetricsModule{}, m)
	}
}

func TestLoadSettings_EnvironmentOverrides(t *testing.T) {
	t.Setenv("KCC_SENTRY_ENVIRONMENT", "ci")
	t.Setenv("KCC_TIME_FIXED_STEP", "10ms")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "ci", s.Sentry.Environment)
	assert.Equal(t, 10*time.Millisecond, s.Time.FixedStep)
}

func TestLoadSettings_Errors(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	dir := t.TempDir()
	path := filepath.Join(dir, "kcc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actor:\n  notify: sometimes\n"), 0644))
	_, err = LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown notify mode "sometimes"`)

	path = filepath.Join(dir, "kcc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[world]\ncell_size = -1\n"), 0644))
	_, err = LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "world.cell_size")
}
