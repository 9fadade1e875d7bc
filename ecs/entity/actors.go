package entity

import (
	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/pursuit"
)

func NewMaze(w *ecs.World, m component.Maze) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.MazeComponent.Kind(), &m); err != nil {
		return 0, err
	}
	return e, nil
}

func NewGameState(w *ecs.World, gs component.GameState) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.GameStateComponent.Kind(), &gs); err != nil {
		return 0, err
	}
	return e, nil
}

func NewPlayer(w *ecs.World, at grid.Cell, moveInterval int, stealth component.Stealth) (ecs.Entity, error) {
	if moveInterval < 1 {
		moveInterval = 1
	}
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.PlayerComponent.Kind(), &component.Player{MoveInterval: moveInterval}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.PositionComponent.Kind(), &component.Position{Cell: at, Prev: at}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.StealthComponent.Kind(), &stealth); err != nil {
		return 0, err
	}
	return e, nil
}

func NewEventBox(w *ecs.World, at grid.Cell, hasteTicks int) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.EventBoxComponent.Kind(), &component.EventBox{HasteTicks: hasteTicks}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.PositionComponent.Kind(), &component.Position{Cell: at, Prev: at}); err != nil {
		return 0, err
	}
	return e, nil
}

func NewStar(w *ecs.World, at grid.Cell, index int) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.StarComponent.Kind(), &component.Star{Index: index}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.PositionComponent.Kind(), &component.Position{Cell: at, Prev: at}); err != nil {
		return 0, err
	}
	return e, nil
}

func NewPursuer(w *ecs.World, g *grid.Grid, at grid.Cell, specName string, opts ...pursuit.Option) (ecs.Entity, error) {
	session, err := pursuit.NewSession(g, opts...)
	if err != nil {
		return 0, err
	}
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.PursuerComponent.Kind(), &component.Pursuer{Session: session, Spec: specName}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.PositionComponent.Kind(), &component.Position{Cell: at, Prev: at}); err != nil {
		return 0, err
	}
	return e, nil
}
