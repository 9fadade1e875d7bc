package system

import (
	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
)

// EventBoxSystem opens any box the player stands on and runs down the
// pursuer haste it grants. Opening a box while hasted restarts the timer.
type EventBoxSystem struct{}

func NewEventBoxSystem() *EventBoxSystem { return &EventBoxSystem{} }

func (s *EventBoxSystem) Update(w *ecs.World) {
	gs, ok := playing(w)
	if !ok {
		return
	}
	if gs.HasteLeft > 0 {
		gs.HasteLeft--
		if gs.HasteLeft == 0 {
			w.Events().Push(ecs.Event{Kind: ecs.EventHasteOver})
		}
	}

	player, ppos, ok := playerPosition(w)
	if !ok {
		return
	}
	ecs.ForEach2(w, component.EventBoxComponent.Kind(), component.PositionComponent.Kind(), func(e ecs.Entity, box *component.EventBox, pos *component.Position) {
		if pos.Cell != ppos.Cell {
			return
		}
		haste := box.HasteTicks
		ecs.DestroyEntity(w, e)
		if haste > gs.HasteLeft {
			gs.HasteLeft = haste
		}
		w.Events().Push(ecs.Event{Kind: ecs.EventBoxOpened, Entity: player, Data: haste})
	})
}
