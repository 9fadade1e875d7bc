package system

import "github.com/milk9111/starmaze/ecs"

// ClockSystem advances the tick counter while the run is live.
type ClockSystem struct{}

func NewClockSystem() *ClockSystem { return &ClockSystem{} }

func (s *ClockSystem) Update(w *ecs.World) {
	gs, ok := playing(w)
	if !ok {
		return
	}
	gs.Tick++
}
