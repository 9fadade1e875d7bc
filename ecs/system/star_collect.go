package system

import (
	"log"
	"math/rand"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
)

// StarCollectSystem removes stars the player stands on, counts them toward
// the progress signal, and opens the exit once every star is taken. A run
// without stars never opens an exit.
type StarCollectSystem struct {
	rng             *rand.Rand
	exitMinDistance int
}

func NewStarCollectSystem(rng *rand.Rand, exitMinDistance int) *StarCollectSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &StarCollectSystem{rng: rng, exitMinDistance: exitMinDistance}
}

func (s *StarCollectSystem) Update(w *ecs.World) {
	gs, ok := playing(w)
	if !ok {
		return
	}
	player, ppos, ok := playerPosition(w)
	if !ok {
		return
	}

	ecs.ForEach2(w, component.StarComponent.Kind(), component.PositionComponent.Kind(), func(e ecs.Entity, star *component.Star, pos *component.Position) {
		if pos.Cell != ppos.Cell {
			return
		}
		ecs.DestroyEntity(w, e)
		gs.Collected++
		w.Events().Push(ecs.Event{Kind: ecs.EventStarCollected, Entity: player, Data: gs.Collected})
	})

	if gs.ExitOpen || gs.StarsTotal == 0 || gs.Collected < gs.StarsTotal {
		return
	}
	g, ok := mazeGrid(w)
	if !ok {
		return
	}
	cell, ok := PickExitCell(g, s.rng, ppos.Cell, s.exitMinDistance)
	if !ok {
		log.Printf("game: no cell available for the exit")
		return
	}
	exit := ecs.CreateEntity(w)
	_ = ecs.Add(w, exit, component.ExitComponent.Kind(), &component.Exit{OpenedAt: gs.Tick})
	_ = ecs.Add(w, exit, component.PositionComponent.Kind(), &component.Position{Cell: cell, Prev: cell})
	gs.ExitOpen = true
	w.Events().Push(ecs.Event{Kind: ecs.EventExitOpened, Entity: exit, Data: cell})
}
