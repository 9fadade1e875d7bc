package system

import (
	"math/rand"

	"github.com/milk9111/starmaze/grid"
)

// PickCells draws up to n distinct walkable cells that satisfy keep, in a
// seeded random order.
func PickCells(g *grid.Grid, rng *rand.Rand, n int, keep func(grid.Cell) bool) []grid.Cell {
	var pool []grid.Cell
	for _, c := range g.WalkableCells() {
		if keep == nil || keep(c) {
			pool = append(pool, c)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

// PickExitCell prefers a passage next to the outer wall that is more than
// minDistance from the player. It loosens the distance rule, then the edge
// rule, before giving up.
func PickExitCell(g *grid.Grid, rng *rand.Rand, player grid.Cell, minDistance int) (grid.Cell, bool) {
	onEdge := func(c grid.Cell) bool {
		return c.X == 1 || c.Y == 1 || c.X == g.Width()-2 || c.Y == g.Height()-2
	}
	far := func(c grid.Cell) bool {
		return grid.Heuristic(c, player) > minDistance
	}
	tries := []func(grid.Cell) bool{
		func(c grid.Cell) bool { return onEdge(c) && far(c) },
		func(c grid.Cell) bool { return onEdge(c) && c != player },
		func(c grid.Cell) bool { return c != player },
	}
	for _, keep := range tries {
		if picked := PickCells(g, rng, 1, keep); len(picked) == 1 {
			return picked[0], true
		}
	}
	return grid.Cell{}, false
}
