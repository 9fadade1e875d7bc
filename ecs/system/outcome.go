package system

import (
	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
)

// OutcomeSystem ends the run on capture, escape, or timeout. Capture wins
// ties with escape.
type OutcomeSystem struct{}

func NewOutcomeSystem() *OutcomeSystem { return &OutcomeSystem{} }

func (s *OutcomeSystem) Update(w *ecs.World) {
	gs, ok := playing(w)
	if !ok {
		return
	}
	player, ppos, ok := playerPosition(w)
	if !ok {
		return
	}

	captured := ecs.Entity(0)
	ecs.ForEach2(w, component.PursuerComponent.Kind(), component.PositionComponent.Kind(), func(e ecs.Entity, _ *component.Pursuer, pos *component.Position) {
		if captured != 0 {
			return
		}
		if pos.Cell == ppos.Cell || swapped(pos, ppos, gs.Tick) {
			captured = e
		}
	})
	if captured != 0 {
		gs.Phase = component.PhaseLost
		gs.Reason = "captured"
		w.Events().Push(ecs.Event{Kind: ecs.EventCaptured, Entity: captured})
		return
	}

	if gs.ExitOpen {
		escaped := false
		ecs.ForEach2(w, component.ExitComponent.Kind(), component.PositionComponent.Kind(), func(_ ecs.Entity, _ *component.Exit, pos *component.Position) {
			if pos.Cell == ppos.Cell {
				escaped = true
			}
		})
		if escaped {
			gs.Phase = component.PhaseWon
			gs.Reason = "escaped"
			w.Events().Push(ecs.Event{Kind: ecs.EventEscaped, Entity: player})
			return
		}
	}

	if gs.TimeLimit > 0 && gs.Tick >= gs.TimeLimit {
		gs.Phase = component.PhaseLost
		gs.Reason = "time"
		w.Events().Push(ecs.Event{Kind: ecs.EventTimeUp})
	}
}

// swapped reports whether two entities stepped through each other this tick.
func swapped(a, b *component.Position, tick int) bool {
	return a.MovedAt == tick && b.MovedAt == tick && a.Prev == b.Cell && b.Prev == a.Cell
}
