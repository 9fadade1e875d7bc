package main

import (
	"github.com/milk9111/starmaze/ecs/entity"
	"github.com/milk9111/starmaze/grid"
)

// bot walks the player to the nearest star by path length, then to the exit.
// It ignores the pursuer entirely, which makes runs a fair measure of how
// quickly a behavior closes the distance.
type bot struct {
	path grid.Path
	goal grid.Cell
}

// next returns the direction for this tick, zero when there is nowhere to go.
func (b *bot) next(r *entity.Run) grid.Cell {
	at := r.PlayerPosition().Cell
	goal, ok := b.pickGoal(r, at)
	if !ok {
		b.path = nil
		return grid.Cell{}
	}
	if goal != b.goal || len(b.path) == 0 || !adjacent(at, b.path[0]) {
		path, err := grid.FindPath(r.Grid, at, goal)
		if err != nil {
			b.path = nil
			return grid.Cell{}
		}
		b.path, b.goal = path, goal
	}
	if len(b.path) == 0 {
		return grid.Cell{}
	}
	step := b.path[0]
	return grid.Cell{X: step.X - at.X, Y: step.Y - at.Y}
}

// advance drops the first step once the player has taken it.
func (b *bot) advance(at grid.Cell) {
	if len(b.path) > 0 && b.path[0] == at {
		b.path = b.path[1:]
	}
}

func (b *bot) pickGoal(r *entity.Run, at grid.Cell) (grid.Cell, bool) {
	if exit, ok := r.Exit(); ok {
		return exit, true
	}
	best, bestLen := grid.Cell{}, -1
	for _, s := range r.Stars() {
		p, err := grid.FindPath(r.Grid, at, s)
		if err != nil {
			continue
		}
		if bestLen < 0 || len(p) < bestLen {
			best, bestLen = s, len(p)
		}
	}
	return best, bestLen >= 0
}

func adjacent(a, b grid.Cell) bool {
	return grid.Heuristic(a, b) == 1
}
