package component

import "github.com/milk9111/starmaze/grid"

// Position is a cell on the maze grid. Prev is where the entity stood before
// its last step, kept for render interpolation. Heading is the last step
// taken, zero until the entity has moved.
type Position struct {
	Cell    grid.Cell
	Prev    grid.Cell
	Heading grid.Cell
	MovedAt int
}

// MoveTo records a step and updates the heading.
func (p *Position) MoveTo(c grid.Cell, tick int) {
	p.Prev = p.Cell
	p.Heading = grid.Cell{X: c.X - p.Cell.X, Y: c.Y - p.Cell.Y}
	p.Cell = c
	p.MovedAt = tick
}

var PositionComponent = NewComponent[Position]("position")
