package component

import "github.com/milk9111/starmaze/pursuit"

// Pursuer wraps the replanning session that drives an enemy.
type Pursuer struct {
	Session *pursuit.Session
	Last    pursuit.TickResult
	Spec    string
}

var PursuerComponent = NewComponent[Pursuer]("pursuer")
