package system

import (
	"log"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/pursuit"
)

// PursuitSystem feeds each pursuer's session with the player's cell, heading,
// star count and cloak state, then applies the step it returns.
type PursuitSystem struct{}

func NewPursuitSystem() *PursuitSystem { return &PursuitSystem{} }

func (s *PursuitSystem) Update(w *ecs.World) {
	gs, ok := playing(w)
	if !ok {
		return
	}
	player, ppos, ok := playerPosition(w)
	if !ok {
		return
	}
	stealth, _ := ecs.Get(w, player, component.StealthComponent.Kind())
	hidden := stealth.Active()
	hasted := gs.HasteLeft > 0

	ecs.ForEach2(w, component.PursuerComponent.Kind(), component.PositionComponent.Kind(), func(e ecs.Entity, p *component.Pursuer, pos *component.Position) {
		if p.Session == nil {
			return
		}
		prev := p.Last
		res := p.Session.Tick(pursuit.TickInput{
			Agent:    pos.Cell,
			Target:   ppos.Cell,
			Heading:  ppos.Heading,
			Progress: gs.Collected,
			Hidden:   hidden,
			Hasted:   hasted,
		})
		p.Last = res

		switch res.Status {
		case pursuit.StatusMoved:
			pos.MoveTo(res.Next, gs.Tick)
		case pursuit.StatusNoPath:
			if prev.Status != pursuit.StatusNoPath {
				w.Events().Push(ecs.Event{Kind: ecs.EventNoPath, Entity: e, Data: res.Goal})
			}
		case pursuit.StatusInvalid:
			log.Printf("ai: entity=%s %v", e, res.Err)
		}

		// A reloaded session can report an escalation the run already saw.
		if res.Tier > gs.Tier {
			gs.Tier = res.Tier
			if res.Escalated {
				w.Events().Push(ecs.Event{Kind: ecs.EventEscalated, Entity: e, Data: res.Tier})
			}
		}
	})
}
