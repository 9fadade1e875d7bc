package grid

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDimensions = errors.New("grid: invalid dimensions")

// Cell identifies a grid position by column (X) and row (Y).
type Cell struct {
	X int
	Y int
}

func (c Cell) Add(o Cell) Cell {
	return Cell{X: c.X + o.X, Y: c.Y + o.Y}
}

func (c Cell) Scale(n int) Cell {
	return Cell{X: c.X * n, Y: c.Y * n}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Orthogonal step offsets in the order Neighbors yields them.
var (
	Left  = Cell{X: -1, Y: 0}
	Right = Cell{X: 1, Y: 0}
	Up    = Cell{X: 0, Y: -1}
	Down  = Cell{X: 0, Y: 1}
)

var directions = [4]Cell{Left, Right, Up, Down}

// Grid is a fixed-size walkable/blocked table. It has no mutators once built,
// so a single Grid may be shared by any number of readers.
type Grid struct {
	width   int
	height  int
	blocked []bool
}

// New builds a width x height grid where every cell in blocked is a wall.
// Blocked cells outside the bounds are ignored.
func New(width, height int, blocked []Cell) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	g := &Grid{
		width:   width,
		height:  height,
		blocked: make([]bool, width*height),
	}
	for _, c := range blocked {
		if g.InBounds(c) {
			g.blocked[g.index(c)] = true
		}
	}
	return g, nil
}

// FromRows parses an ASCII layout: '#' is a wall, anything else is open.
// All rows must have the same length.
func FromRows(rows []string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidDimensions)
	}
	width := len(rows[0])
	blocked := make([]Cell, 0, width*len(rows)/2)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has length %d, want %d", ErrInvalidDimensions, y, len(row), width)
		}
		for x := 0; x < len(row); x++ {
			if row[x] == '#' {
				blocked = append(blocked, Cell{X: x, Y: y})
			}
		}
	}
	return New(width, len(rows), blocked)
}

// FromBools converts a row-major wall table (true = wall).
func FromBools(walls [][]bool) (*Grid, error) {
	if len(walls) == 0 || len(walls[0]) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidDimensions)
	}
	width := len(walls[0])
	blocked := make([]Cell, 0, width*len(walls)/2)
	for y, row := range walls {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has length %d, want %d", ErrInvalidDimensions, y, len(row), width)
		}
		for x, wall := range row {
			if wall {
				blocked = append(blocked, Cell{X: x, Y: y})
			}
		}
	}
	return New(width, len(walls), blocked)
}

func (g *Grid) Width() int {
	if g == nil {
		return 0
	}
	return g.width
}

func (g *Grid) Height() int {
	if g == nil {
		return 0
	}
	return g.height
}

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	if g == nil {
		return false
	}
	return c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height
}

// IsWalkable reports whether c is in bounds and not a wall.
func (g *Grid) IsWalkable(c Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	return !g.blocked[g.index(c)]
}

// Neighbors returns the walkable orthogonal neighbors of c in a fixed order:
// left, right, up, down.
func (g *Grid) Neighbors(c Cell) []Cell {
	return g.appendNeighbors(make([]Cell, 0, 4), c)
}

func (g *Grid) appendNeighbors(out []Cell, c Cell) []Cell {
	for _, d := range directions {
		n := c.Add(d)
		if g.IsWalkable(n) {
			out = append(out, n)
		}
	}
	return out
}

// WalkableCells lists every open cell in row-major order.
func (g *Grid) WalkableCells() []Cell {
	if g == nil {
		return nil
	}
	out := make([]Cell, 0, len(g.blocked))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if !g.blocked[y*g.width+x] {
				out = append(out, Cell{X: x, Y: y})
			}
		}
	}
	return out
}

// Rows renders the grid back into the FromRows layout.
func (g *Grid) Rows() []string {
	if g == nil {
		return nil
	}
	rows := make([]string, g.height)
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		sb.Reset()
		for x := 0; x < g.width; x++ {
			if g.blocked[y*g.width+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

func (g *Grid) index(c Cell) int {
	return c.Y*g.width + c.X
}

func (g *Grid) cellAt(idx int) Cell {
	return Cell{X: idx % g.width, Y: idx / g.width}
}
