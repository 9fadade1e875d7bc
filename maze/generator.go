package maze

import (
	"math/rand"
	"time"

	"github.com/milk9111/starmaze/grid"
)

const (
	Wall    = true
	Passage = false
)

type Config struct {
	Width, Height int

	// Openings is how many extra wall removals are attempted after carving.
	// Each removal joins at least two passages and adds a loop.
	// Negative disables the pass; 0 uses Width*Height/20.
	Openings int

	Seed int64 // 0 = time based
}

type Result struct {
	Walls [][]bool
	Grid  *grid.Grid
	Start grid.Cell
	Seed  int64
}

// Generate carves a maze with a recursive backtracker from (1,1) and then
// knocks out extra walls so pursuers have more than one route.
func Generate(cfg Config) (Result, error) {
	rows := ensureOdd(cfg.Height)
	cols := ensureOdd(cfg.Width)

	walls := make([][]bool, rows)
	for y := range walls {
		walls[y] = make([]bool, cols)
		for x := range walls[y] {
			walls[y][x] = Wall
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	start := grid.Cell{X: 1, Y: 1}
	carve(walls, start, rng)

	openings := cfg.Openings
	if openings == 0 {
		openings = cols * rows / 20
	}
	if openings > 0 {
		openLoops(walls, openings, rng)
	}
	walls[start.Y][start.X] = Passage

	g, err := grid.FromBools(walls)
	if err != nil {
		return Result{}, err
	}
	return Result{Walls: walls, Grid: g, Start: start, Seed: seed}, nil
}

func carve(walls [][]bool, start grid.Cell, rng *rand.Rand) {
	rows, cols := len(walls), len(walls[0])
	stack := []grid.Cell{start}
	walls[start.Y][start.X] = Passage

	jumps := []grid.Cell{{X: 0, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: -2}, {X: -2, Y: 0}}
	candidates := make([]grid.Cell, 0, 4)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		candidates = candidates[:0]
		for _, d := range jumps {
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if nx >= 1 && nx < cols-1 && ny >= 1 && ny < rows-1 && walls[ny][nx] == Wall {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		d := candidates[rng.Intn(len(candidates))]
		walls[cur.Y+d.Y/2][cur.X+d.X/2] = Passage
		next := grid.Cell{X: cur.X + d.X, Y: cur.Y + d.Y}
		walls[next.Y][next.X] = Passage
		stack = append(stack, next)
	}
}

func openLoops(walls [][]bool, attempts int, rng *rand.Rand) {
	rows, cols := len(walls), len(walls[0])
	if rows < 3 || cols < 3 {
		return
	}
	ortho := []grid.Cell{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}
	for i := 0; i < attempts; i++ {
		x := 1 + rng.Intn(cols-2)
		y := 1 + rng.Intn(rows-2)
		if walls[y][x] != Wall {
			continue
		}
		open := 0
		for _, d := range ortho {
			if walls[y+d.Y][x+d.X] == Passage {
				open++
			}
		}
		if open >= 2 {
			walls[y][x] = Passage
		}
	}
}

func ensureOdd(n int) int {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}
