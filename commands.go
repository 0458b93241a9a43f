package kcc

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/kcc/character"
)

type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

// Spawn queues a character at the given position. A nil input reads the shared Input
// resource. The character exists once the current stage ends.
func (cmd *Commands) Spawn(name string, at mgl32.Vec3, input character.Input) uuid.UUID {
	id := uuid.New()
	cmd.app.pendingSpawns = append(cmd.app.pendingSpawns, pendingSpawn{
		id:    id,
		name:  name,
		at:    at,
		input: input,
	})
	return id
}

func (cmd *Commands) Despawn(id uuid.UUID) {
	cmd.app.pendingDespawns = append(cmd.app.pendingDespawns, id)
}

// Quit stops the app after the current tick.
func (cmd *Commands) Quit() {
	cmd.app.quit = true
}
