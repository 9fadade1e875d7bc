package system

import (
	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
)

// StealthSystem counts down an active cloak and spends a charge when the
// player asks for one. A request while already cloaked is dropped.
type StealthSystem struct{}

func NewStealthSystem() *StealthSystem { return &StealthSystem{} }

func (s *StealthSystem) Update(w *ecs.World) {
	if _, ok := playing(w); !ok {
		return
	}
	ecs.ForEach2(w, component.StealthComponent.Kind(), component.InputComponent.Kind(), func(e ecs.Entity, st *component.Stealth, in *component.Input) {
		if st.Left > 0 {
			st.Left--
			if st.Left == 0 {
				w.Events().Push(ecs.Event{Kind: ecs.EventStealthOff, Entity: e})
			}
		}
		if !in.Cloak {
			return
		}
		in.Cloak = false
		if st.Charges <= 0 || st.Left > 0 || st.Duration <= 0 {
			return
		}
		st.Charges--
		st.Left = st.Duration
		w.Events().Push(ecs.Event{Kind: ecs.EventStealthOn, Entity: e, Data: st.Charges})
	})
}
