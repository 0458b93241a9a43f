// Command kcc-sandbox runs scripted runners through a small parkour course without a window
// and logs every state change.
package main

import (
	"fmt"
	"os"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/pflag"

	"github.com/gekko3d/kcc"
	"github.com/gekko3d/kcc/character"
	"github.com/gekko3d/kcc/world"
)

const groundLayer = 1

func box(name string, center, half mgl32.Vec3) *world.Collider {
	return world.NewBox(name, center, half, mgl32.QuatIdent(), groundLayer)
}

// courseColliders lays the obstacles out along -z from the origin.
func courseColliders() []*world.Collider {
	return []*world.Collider{
		box("floor", mgl32.Vec3{0, -0.5, -20}, mgl32.Vec3{30, 0.5, 40}),
		box("kerb", mgl32.Vec3{-4, 0.15, -6}, mgl32.Vec3{2, 0.15, 1}),
		box("low wall", mgl32.Vec3{0, 0.4, -8}, mgl32.Vec3{2, 0.4, 0.15}),
		box("ledge", mgl32.Vec3{4, 1.25, -9}, mgl32.Vec3{2, 1.25, 1}),
		box("run wall", mgl32.Vec3{9.6, 3, -14}, mgl32.Vec3{0.5, 3, 10}),
	}
}

type runner struct {
	name   string
	at     mgl32.Vec3
	input  *kcc.Input
	script *kcc.Script
}

func forward(v float32) map[string]float32 {
	return map[string]float32{character.AxisMoveY: v}
}

func runners() []runner {
	return []runner{
		{
			name:  "stepper",
			at:    mgl32.Vec3{-4, 0.91, 0},
			input: kcc.NewInput(),
			script: kcc.NewScript(
				kcc.Cue{At: 10, Axes: forward(1)},
				kcc.Cue{At: 200, Axes: forward(0)},
			),
		},
		{
			name:  "vaulter",
			at:    mgl32.Vec3{0, 0.91, 0},
			input: kcc.NewInput(),
			script: kcc.NewScript(
				kcc.Cue{At: 10, Axes: forward(1), Press: []string{character.ActionSprint}},
				kcc.Cue{At: 180, Axes: forward(0), Release: []string{character.ActionSprint}},
			),
		},
		{
			name:  "climber",
			at:    mgl32.Vec3{4, 0.91, -2},
			input: kcc.NewInput(),
			script: kcc.NewScript(
				kcc.Cue{At: 10, Axes: forward(1)},
				kcc.Cue{At: 70, Press: []string{character.ActionJump}},
				kcc.Cue{At: 90, Release: []string{character.ActionJump}},
				kcc.Cue{At: 150, Press: []string{character.ActionJump}},
				kcc.Cue{At: 152, Release: []string{character.ActionJump}},
				kcc.Cue{At: 240, Axes: forward(0)},
			),
		},
		{
			name:  "wallrunner",
			at:    mgl32.Vec3{8.2, 0.91, 0},
			input: kcc.NewInput(),
			script: kcc.NewScript(
				kcc.Cue{At: 10, Axes: forward(1), Press: []string{character.ActionSprint}},
				kcc.Cue{At: 60, Press: []string{character.ActionJump}},
				kcc.Cue{At: 62, Release: []string{character.ActionJump}},
				kcc.Cue{At: 220, Axes: forward(0), Release: []string{character.ActionSprint}},
			),
		},
	}
}

func main() {
	configPath := pflag.StringP("config", "c", "", "settings file (json, toml or yaml)")
	ticks := pflag.IntP("ticks", "n", 600, "ticks to simulate")
	pflag.Parse()

	settings, err := kcc.LoadSettings(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if os.Getenv("PPROF_ENABLED") != "" {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr("localhost:8080"))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	modules, err := settings.Modules(courseColliders())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app := kcc.NewAppBuilder().UseModule(modules...).Build()
	log := app.Logger()

	chars, _ := kcc.Resource[kcc.Characters](app)
	machine := chars.Machine()
	machine.OnSwap = func(a *character.Actor, from, to string) {
		if from != "" {
			log.Infof("tick %d: %s %s -> %s at %v", a.Ticks, a.Name, from, to, a.Pose.Position())
		}
	}

	cmd := app.Commands()
	rs := runners()
	for i, r := range rs {
		id := cmd.Spawn(r.name, r.at, r.input)
		if cam, ok := kcc.Resource[kcc.FollowCamera](app); ok && i == 0 {
			cam.Target = id
		}
	}
	app.UseSystem(
		kcc.System(func(t *kcc.Time) {
			for _, r := range rs {
				r.input.BeginFrame()
				r.script.Poll(t.Tick, r.input)
			}
		}).
			InStage(kcc.PreUpdate).
			RunAlways(),
	)

	app.RunFor(*ticks)

	chars.Each(func(a *character.Actor) bool {
		log.Infof("%s finished in %s at %v", a.Name, a.State(), a.Pose.Position())
		return true
	})
	if cam, ok := kcc.Resource[kcc.FollowCamera](app); ok {
		log.Infof("camera at %v looking at %v", cam.Position, cam.LookAt)
	}
	if reporter, ok := kcc.Resource[kcc.Reporter](app); ok {
		reporter.Flush()
	}
}
