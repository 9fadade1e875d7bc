package component

import "github.com/milk9111/starmaze/grid"

type Player struct {
	MoveInterval int
	Cooldown     int
}

var PlayerComponent = NewComponent[Player]("player")

// Input is the direction the player asked for this tick. Frontends write it,
// PlayerMoveSystem consumes it.
type Input struct {
	Dir   grid.Cell
	Held  bool
	// Cloak asks StealthSystem to spend a stealth charge this tick.
	Cloak bool
}

var InputComponent = NewComponent[Input]("input")

// Stealth hides the player from pursuers for Duration ticks per charge.
type Stealth struct {
	Charges  int
	Duration int
	Left     int
}

func (s *Stealth) Active() bool {
	return s != nil && s.Left > 0
}

var StealthComponent = NewComponent[Stealth]("stealth")
