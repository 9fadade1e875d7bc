package grid

import (
	"container/heap"
	"errors"
)

var (
	ErrPathNotFound = errors.New("pathing: path not found")
	ErrCorruptPath  = errors.New("pathing: corrupt predecessor chain")
)

// Path is the ordered list of cells from (excluding) the start cell to the
// goal cell (including).
type Path []Cell

// Stats describes the work done by a single search.
type Stats struct {
	Expanded int
	Pushed   int
}

// Heuristic is the Manhattan distance between a and b.
func Heuristic(a, b Cell) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindPath runs A* from start to goal over 4-connected unit-cost cells.
// start == goal yields an empty path. If goal cannot be reached the error is
// ErrPathNotFound.
func FindPath(g *Grid, start, goal Cell) (Path, error) {
	path, _, err := FindPathStats(g, start, goal)
	return path, err
}

// FindPathStats is FindPath that also reports how many nodes were touched.
func FindPathStats(g *Grid, start, goal Cell) (Path, Stats, error) {
	var stats Stats
	if !g.IsWalkable(start) || !g.IsWalkable(goal) {
		return nil, stats, ErrPathNotFound
	}
	if start == goal {
		return Path{}, stats, nil
	}

	size := g.width * g.height
	cameFrom := make([]int, size)
	gScore := make([]int, size)
	for i := range cameFrom {
		cameFrom[i] = -1
		gScore[i] = -1
	}
	closed := make([]bool, size)

	startIdx := g.index(start)
	goalIdx := g.index(goal)
	gScore[startIdx] = 0

	open := &openSet{}
	heap.Init(open)
	var seq uint64
	push := func(c Cell, cost int) {
		heap.Push(open, &openItem{cell: c, g: cost, f: cost + Heuristic(c, goal), seq: seq})
		seq++
		stats.Pushed++
	}
	push(start, 0)

	neighbors := make([]Cell, 0, 4)
	for open.Len() > 0 {
		current := heap.Pop(open).(*openItem)
		curIdx := g.index(current.cell)

		if curIdx == goalIdx {
			path, err := reconstructPath(g, cameFrom, startIdx, goalIdx)
			return path, stats, err
		}
		if closed[curIdx] {
			continue
		}
		closed[curIdx] = true
		stats.Expanded++

		neighbors = g.appendNeighbors(neighbors[:0], current.cell)
		for _, n := range neighbors {
			idx := g.index(n)
			if closed[idx] {
				continue
			}
			tentativeG := gScore[curIdx] + 1
			if gScore[idx] < 0 || tentativeG < gScore[idx] {
				cameFrom[idx] = curIdx
				gScore[idx] = tentativeG
				push(n, tentativeG)
			}
		}
	}

	return nil, stats, ErrPathNotFound
}

// reconstructPath walks predecessor links back from goal. A chain that does
// not reach start within len(cameFrom) steps is reported as ErrCorruptPath.
func reconstructPath(g *Grid, cameFrom []int, startIdx, goalIdx int) (Path, error) {
	path := make(Path, 0, 32)
	cur := goalIdx
	for steps := 0; cur != startIdx; steps++ {
		if cur < 0 || cur >= len(cameFrom) || steps > len(cameFrom) {
			return nil, ErrCorruptPath
		}
		path = append(path, g.cellAt(cur))
		cur = cameFrom[cur]
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

type openItem struct {
	cell  Cell
	g     int
	f     int
	seq   uint64
	index int
}

// openSet orders by f, then by insertion sequence so equal-f entries pop FIFO.
type openSet []*openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
