package kcc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeModule_FixedStep(t *testing.T) {
	app := NewAppBuilder().UseModule(TimeModule{FixedStep: 20 * time.Millisecond}).Build()
	tm, ok := Resource[Time](app)
	require.True(t, ok)
	start := tm.Time

	app.RunFor(5)

	assert.Equal(t, uint64(5), tm.Tick)
	assert.Equal(t, 20*time.Millisecond, tm.Dt)
	assert.Equal(t, 100*time.Millisecond, tm.Elapsed)
	assert.Equal(t, start.Add(100*time.Millisecond), tm.Time)
	assert.InDelta(t, 0.02, tm.Seconds(), 1e-7)
}

func TestTimeModule_WallClock(t *testing.T) {
	app := NewAppBuilder().UseModule(TimeModule{}).Build()
	tm, _ := Resource[Time](app)

	app.Step()
	assert.GreaterOrEqual(t, tm.Dt, time.Duration(0))
	assert.Equal(t, tm.Dt, tm.Elapsed)
}
