package component

import "github.com/milk9111/starmaze/pursuit"

type Phase int

const (
	PhasePlaying Phase = iota
	PhaseWon
	PhaseLost
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	}
	return "unknown"
}

// GameState is the singleton scoreboard for one run.
type GameState struct {
	Tick       int
	TimeLimit  int // ticks, 0 = unlimited
	StarsTotal int
	Collected  int
	Tier       pursuit.Tier
	Phase      Phase
	Reason     string
	ExitOpen   bool
	HasteLeft  int // ticks of pursuer haste still to run
}

// Over reports whether the run has ended.
func (g *GameState) Over() bool {
	return g.Phase != PhasePlaying
}

// Remaining returns the ticks left before the time limit, or -1 without one.
func (g *GameState) Remaining() int {
	if g.TimeLimit <= 0 {
		return -1
	}
	if r := g.TimeLimit - g.Tick; r > 0 {
		return r
	}
	return 0
}

var GameStateComponent = NewComponent[GameState]("game_state")
