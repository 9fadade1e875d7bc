package component

import "github.com/milk9111/starmaze/grid"

// Maze is the singleton holding the level layout every system reads.
type Maze struct {
	Grid  *grid.Grid
	Start grid.Cell
	Seed  int64
	Name  string
}

var MazeComponent = NewComponent[Maze]("maze")
