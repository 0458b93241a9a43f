package kcc

import (
	"github.com/gekko3d/kcc/world"
)

const defaultCellSize float32 = 4

// WorldModule installs the static collision world characters move through.
type WorldModule struct {
	CellSize  float32
	Colliders []*world.Collider
}

func (mod WorldModule) Install(app *App, cmd *Commands) {
	cellSize := mod.CellSize
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	w := world.New(cellSize, app.Logger())
	w.Add(mod.Colliders...)
	cmd.AddResources(w)
	app.Logger().Debugf("world: %d colliders, cell size %.2f", w.Len(), cellSize)
}
