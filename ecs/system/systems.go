package system

import (
	"math/rand"

	"github.com/milk9111/starmaze/ecs"
)

// NewGameScheduler returns the systems of one run in update order.
func NewGameScheduler(rng *rand.Rand, exitMinDistance int) *ecs.Scheduler {
	return ecs.NewScheduler(
		NewClockSystem(),
		NewPlayerMoveSystem(),
		NewStealthSystem(),
		NewStarCollectSystem(rng, exitMinDistance),
		NewEventBoxSystem(),
		NewPursuitSystem(),
		NewOutcomeSystem(),
	)
}
