package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/pursuit"
)

const (
	boardMargin = 24
	hudHeight   = 32
)

// board maps grid cells to screen pixels for the current maze.
type board struct {
	cell    float64
	originX float64
	originY float64
}

func newBoard(g *grid.Grid) board {
	availW := float64(baseWidth - 2*boardMargin)
	availH := float64(baseHeight - 2*boardMargin - hudHeight)
	cell := availW / float64(g.Width())
	if h := availH / float64(g.Height()); h < cell {
		cell = h
	}
	return board{
		cell:    cell,
		originX: (baseWidth - cell*float64(g.Width())) / 2,
		originY: hudHeight + (baseHeight-hudHeight-cell*float64(g.Height()))/2,
	}
}

// center returns the pixel center of a fractional cell position.
func (b board) center(v cp.Vector) (float32, float32) {
	return float32(b.originX + (v.X+0.5)*b.cell), float32(b.originY + (v.Y+0.5)*b.cell)
}

func cellVec(c grid.Cell) cp.Vector {
	return cp.Vector{X: float64(c.X), Y: float64(c.Y)}
}

// interpolate slides from Prev to Cell over interval ticks so movement
// looks continuous between grid steps.
func interpolate(pos component.Position, tick, interval int) cp.Vector {
	if pos.Prev == pos.Cell || interval <= 1 {
		return cellVec(pos.Cell)
	}
	t := float64(tick-pos.MovedAt) / float64(interval)
	if t >= 1 {
		return cellVec(pos.Cell)
	}
	if t < 0 {
		t = 0
	}
	return cellVec(pos.Prev).Lerp(cellVec(pos.Cell), t)
}

func (g *Game) drawBoard(screen *ebiten.Image) {
	r := g.run
	b := g.board
	cell := float32(b.cell)

	vector.DrawFilledRect(screen, float32(b.originX), float32(b.originY), cell*float32(r.Grid.Width()), cell*float32(r.Grid.Height()), colornames.Black, false)
	for y := 0; y < r.Grid.Height(); y++ {
		for x := 0; x < r.Grid.Width(); x++ {
			if r.Grid.IsWalkable(grid.Cell{X: x, Y: y}) {
				continue
			}
			vector.DrawFilledRect(screen, float32(b.originX)+float32(x)*cell, float32(b.originY)+float32(y)*cell, cell, cell, colornames.Darkslategray, false)
		}
	}

	session := r.Session()
	if g.debug && session != nil {
		for _, c := range session.Path() {
			x, y := b.center(cellVec(c))
			vector.DrawFilledCircle(screen, x, y, cell*0.12, colornames.Dimgray, false)
		}
	}

	for _, c := range r.Stars() {
		x, y := b.center(cellVec(c))
		vector.DrawFilledCircle(screen, x, y, cell*0.28, colornames.Gold, true)
	}
	for _, c := range r.EventBoxes() {
		x, y := b.center(cellVec(c))
		vector.DrawFilledRect(screen, x-cell*0.3, y-cell*0.3, cell*0.6, cell*0.6, colornames.Purple, false)
		vector.StrokeRect(screen, x-cell*0.3, y-cell*0.3, cell*0.6, cell*0.6, 1, colornames.Violet, false)
	}
	if c, ok := r.Exit(); ok {
		x, y := b.center(cellVec(c))
		vector.DrawFilledRect(screen, x-cell*0.4, y-cell*0.4, cell*0.8, cell*0.8, colornames.Limegreen, false)
	}

	tick, hasted := 0, false
	if gs := r.State(); gs != nil {
		tick, hasted = gs.Tick, gs.HasteLeft > 0
	}

	playerInterval := 1
	if p, ok := ecs.Get(r.World, r.Player, component.PlayerComponent.Kind()); ok {
		playerInterval = p.MoveInterval
	}
	px, py := b.center(interpolate(r.PlayerPosition(), tick, playerInterval))
	if st := r.Stealth(); st.Active() {
		vector.StrokeCircle(screen, px, py, cell*0.38, 2, colornames.Lightskyblue, true)
	} else {
		vector.DrawFilledCircle(screen, px, py, cell*0.38, colornames.Deepskyblue, true)
	}

	if session == nil {
		return
	}
	var body color.Color = colornames.Crimson
	if session.Tier() == pursuit.TierAdvanced {
		body = colornames.Orangered
	}
	interval := session.Params().MoveInterval
	if hasted {
		interval = (interval + 1) / 2
		body = colornames.Magenta
	}
	ex, ey := b.center(interpolate(r.PursuerPosition(), tick, interval))
	vector.DrawFilledCircle(screen, ex, ey, cell*0.4, body, true)
	if session.Tier() == pursuit.TierAdvanced {
		vector.StrokeCircle(screen, ex, ey, cell*0.48, 2, colornames.Yellow, true)
	}
	if session.NoPath() {
		vector.StrokeCircle(screen, ex, ey, cell*0.3, 1, colornames.White, true)
	}
}
