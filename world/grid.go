package world

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/zeebo/xxh3"

	"github.com/gekko3d/kcc/collision"
)

// Grid is a uniform spatial hash over collider bounds.
type Grid struct {
	cellSize float32
	// cell key to colliders overlapping it
	cells map[uint64][]*Collider
	// collider to the keys it was inserted under
	owned map[collision.ColliderID][]uint64
}

func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = 2
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[uint64][]*Collider),
		owned:    make(map[collision.ColliderID][]uint64),
	}
}

func (g *Grid) CellSize() float32 { return g.cellSize }

func (g *Grid) Clear() {
	clear(g.cells)
	clear(g.owned)
}

func (g *Grid) Insert(c *Collider) {
	if _, ok := g.owned[c.ID()]; ok {
		g.Remove(c.ID())
	}
	var keys []uint64
	g.forCells(c.Bounds(), func(key uint64) {
		g.cells[key] = append(g.cells[key], c)
		keys = append(keys, key)
	})
	g.owned[c.ID()] = keys
}

func (g *Grid) Remove(id collision.ColliderID) bool {
	keys, ok := g.owned[id]
	if !ok {
		return false
	}
	for _, key := range keys {
		list := g.cells[key]
		for i, c := range list {
			if c.ID() == id {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(g.cells, key)
		} else {
			g.cells[key] = list
		}
	}
	delete(g.owned, id)
	return true
}

// Query returns each collider whose cells intersect box once, in discovery order.
func (g *Grid) Query(box cube.BBox) []*Collider {
	seen := make(map[collision.ColliderID]struct{})
	var out []*Collider
	g.forCells(box, func(key uint64) {
		for _, c := range g.cells[key] {
			if _, ok := seen[c.ID()]; ok {
				continue
			}
			seen[c.ID()] = struct{}{}
			out = append(out, c)
		}
	})
	return out
}

func (g *Grid) Len() int { return len(g.owned) }

func (g *Grid) forCells(box cube.BBox, fn func(key uint64)) {
	minX, maxX := g.cellIndex(box.Min().X()), g.cellIndex(box.Max().X())
	minY, maxY := g.cellIndex(box.Min().Y()), g.cellIndex(box.Max().Y())
	minZ, maxZ := g.cellIndex(box.Min().Z()), g.cellIndex(box.Max().Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				fn(cellKey(x, y, z))
			}
		}
	}
}

func (g *Grid) cellIndex(pos float32) int32 {
	return int32(math32.Floor(pos / g.cellSize))
}

func cellKey(x, y, z int32) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(x))
	binary.LittleEndian.PutUint32(buf[4:], uint32(y))
	binary.LittleEndian.PutUint32(buf[8:], uint32(z))
	return xxh3.Hash(buf[:])
}
