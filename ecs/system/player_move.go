package system

import (
	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/grid"
)

// PlayerMoveSystem applies the requested direction at most once per
// Player.MoveInterval ticks. Moves into walls are dropped.
type PlayerMoveSystem struct{}

func NewPlayerMoveSystem() *PlayerMoveSystem { return &PlayerMoveSystem{} }

func (s *PlayerMoveSystem) Update(w *ecs.World) {
	gs, ok := playing(w)
	if !ok {
		return
	}
	g, ok := mazeGrid(w)
	if !ok {
		return
	}

	ecs.ForEach3(w, component.PlayerComponent.Kind(), component.PositionComponent.Kind(), component.InputComponent.Kind(),
		func(e ecs.Entity, p *component.Player, pos *component.Position, in *component.Input) {
			if p.Cooldown > 0 {
				p.Cooldown--
			}
			dir := in.Dir
			if !in.Held {
				in.Dir = grid.Cell{}
			}
			if dir == (grid.Cell{}) || p.Cooldown > 0 {
				return
			}
			next := pos.Cell.Add(dir)
			if !g.IsWalkable(next) {
				return
			}
			pos.MoveTo(next, gs.Tick)
			p.Cooldown = p.MoveInterval
		})
}
