package kcc

import (
	"time"
)

type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration
	Tick    uint64
	// Fixed is the step used instead of wall time when non-zero.
	Fixed time.Duration
}

// Seconds is Dt as the float32 step actors tick with.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}

// TimeModule advances Time once per tick, by FixedStep when set and by wall time otherwise.
// Headless runs want a fixed step so repeated runs are identical.
type TimeModule struct {
	FixedStep time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time:  time.Now(),
		Fixed: mod.FixedStep,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	if timeResource.Fixed > 0 {
		timeResource.Dt = timeResource.Fixed
		timeResource.Time = timeResource.Time.Add(timeResource.Fixed)
	} else {
		now := time.Now()
		timeResource.Dt = now.Sub(timeResource.Time)
		timeResource.Time = now
	}
	timeResource.Elapsed += timeResource.Dt
	timeResource.Tick++
}
