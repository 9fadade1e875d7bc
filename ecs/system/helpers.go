package system

import (
	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/grid"
)

func gameState(w *ecs.World) (*component.GameState, bool) {
	e, ok := ecs.First(w, component.GameStateComponent.Kind())
	if !ok {
		return nil, false
	}
	return ecs.Get(w, e, component.GameStateComponent.Kind())
}

func mazeGrid(w *ecs.World) (*grid.Grid, bool) {
	e, ok := ecs.First(w, component.MazeComponent.Kind())
	if !ok {
		return nil, false
	}
	m, ok := ecs.Get(w, e, component.MazeComponent.Kind())
	if !ok || m.Grid == nil {
		return nil, false
	}
	return m.Grid, true
}

func playerPosition(w *ecs.World) (ecs.Entity, *component.Position, bool) {
	e, ok := ecs.First(w, component.PlayerComponent.Kind())
	if !ok {
		return 0, nil, false
	}
	pos, ok := ecs.Get(w, e, component.PositionComponent.Kind())
	if !ok {
		return 0, nil, false
	}
	return e, pos, true
}

// playing returns the game state when the run is still live.
func playing(w *ecs.World) (*component.GameState, bool) {
	gs, ok := gameState(w)
	if !ok || gs.Over() {
		return nil, false
	}
	return gs, true
}
