package pursuit

import (
	"errors"
	"fmt"
	"log"

	"github.com/milk9111/starmaze/grid"
)

var ErrInvalidCoordinate = errors.New("pursuit: invalid coordinate")

var logf = log.Printf

type Status int

const (
	// StatusIdle means the agent already stands on its goal.
	StatusIdle Status = iota
	StatusMoved
	StatusWaiting
	StatusNoPath
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusMoved:
		return "moved"
	case StatusWaiting:
		return "waiting"
	case StatusNoPath:
		return "no_path"
	case StatusInvalid:
		return "invalid"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// TickInput is everything the session needs for one simulation tick.
// Heading is the target's most recent step and may be zero. A Hidden target
// is not seen: the pursuer falls back to where it last saw it. Hasted halves
// the tier's move interval for this tick.
type TickInput struct {
	Agent    grid.Cell
	Target   grid.Cell
	Heading  grid.Cell
	Progress int
	Hidden   bool
	Hasted   bool
}

type TickResult struct {
	Next      grid.Cell
	Goal      grid.Cell
	Status    Status
	Tier      Tier
	Replanned bool
	Escalated bool
	Err       error
}

func (r TickResult) Moved() bool { return r.Status == StatusMoved }

// Stats are running counters for one session.
type Stats struct {
	Ticks       int
	Moves       int
	Replans     int
	NoPathTicks int
	Expanded    int
	EscalatedAt int // tick of the basic to advanced switch, -1 if never
}

type Option func(*Session)

func WithBehavior(def *BehaviorDef) Option {
	return func(s *Session) { s.def = def }
}

// WithTargeter overrides the targeter used for a targeting mode.
func WithTargeter(mode TargetingMode, t Targeter) Option {
	return func(s *Session) { s.targeters[string(mode)] = t }
}

// WithSeed seeds the roaming goals picked while the target is hidden.
func WithSeed(seed int64) Option {
	return func(s *Session) { s.seed = seed }
}

// WithHistory continues from prev: the new session starts on prev's tier
// and keeps its counters, so swapping behaviors mid-run does not replay an
// escalation.
func WithHistory(prev *Session) Option {
	return func(s *Session) { s.prev = prev }
}

// WithObserver is called after every tick, e.g. to record a trace.
func WithObserver(fn func(TickInput, TickResult)) Option {
	return func(s *Session) { s.observer = fn }
}

// Session is the replanning controller for one pursuer. It caches the
// current path and decides each tick whether to reuse it, replan, wait, or
// step.
type Session struct {
	grid     *grid.Grid
	def      *BehaviorDef
	behavior *Behavior

	targeters map[string]Targeter
	scripts   map[string]Targeter
	observer  func(TickInput, TickResult)
	tracker   *Tracker
	seed      int64
	prev      *Session

	path    grid.Path
	cursor  int
	goal    grid.Cell
	hasPath bool
	noPath  bool

	expected    grid.Cell
	hasExpected bool
	wait        int

	stats Stats
}

func NewSession(g *grid.Grid, opts ...Option) (*Session, error) {
	if g == nil || g.Width() == 0 || g.Height() == 0 {
		return nil, fmt.Errorf("pursuit: session needs a non-empty grid")
	}
	s := &Session{
		grid: g,
		targeters: map[string]Targeter{
			string(TargetDirect):     Direct,
			string(TargetPredictive): Predictive,
		},
		scripts: map[string]Targeter{},
		stats:   Stats{EscalatedAt: -1},
		seed:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.def == nil {
		s.def = DefaultBehavior()
	}
	for _, name := range s.def.Scripts {
		st, err := NewScriptTargeter(name)
		if err != nil {
			return nil, err
		}
		s.scripts[name] = st
	}
	s.behavior = NewBehavior(s.def)
	s.tracker = NewTracker(s.seed)
	if prev := s.prev; prev != nil {
		s.behavior.Update(prev.behavior.Progress())
		s.stats = prev.stats
		if last, ok := prev.tracker.LastSeen(); ok {
			s.tracker.See(last)
		}
		s.prev = nil
	}
	return s, nil
}

// Tick advances the session by one simulation tick.
func (s *Session) Tick(in TickInput) TickResult {
	s.stats.Ticks++
	res := TickResult{Next: in.Agent}

	if s.behavior.Update(in.Progress) {
		res.Escalated = true
		if s.stats.EscalatedAt < 0 {
			s.stats.EscalatedAt = s.stats.Ticks
		}
	}
	params := s.behavior.Params()
	res.Tier = s.behavior.Tier()
	interval := params.MoveInterval
	if in.Hasted {
		interval = (interval + 1) / 2
	}
	if limit := interval - 1; s.wait > limit {
		s.wait = limit
	}

	if !s.grid.IsWalkable(in.Agent) || !s.grid.IsWalkable(in.Target) {
		res.Status = StatusInvalid
		res.Err = fmt.Errorf("%w: agent %s target %s", ErrInvalidCoordinate, in.Agent, in.Target)
		return s.finish(in, res)
	}

	goal := s.resolveGoal(in, params, res.Tier)
	res.Goal = goal

	if in.Agent == goal {
		return s.idle(in, res)
	}

	if s.needsReplan(in.Agent, goal, params) {
		res.Replanned = true
		found := s.replan(in.Agent, goal)
		if !found && !in.Hidden && goal != in.Target {
			// A predicted or scripted goal can be open floor the agent
			// cannot reach. The target itself may still be reachable.
			goal = in.Target
			res.Goal = goal
			if in.Agent == goal {
				return s.idle(in, res)
			}
			found = s.replan(in.Agent, goal)
		}
		if !found {
			if in.Hidden {
				s.tracker.Forget()
			}
			s.stats.NoPathTicks++
			s.expected, s.hasExpected = in.Agent, true
			res.Status = StatusNoPath
			return s.finish(in, res)
		}
	}

	if s.wait > 0 {
		s.wait--
		s.expected, s.hasExpected = in.Agent, true
		res.Status = StatusWaiting
		return s.finish(in, res)
	}

	next := s.path[s.cursor]
	if grid.Heuristic(in.Agent, next) != 1 || !s.grid.IsWalkable(next) {
		logf("pathing: cached step %s is not adjacent to %s, dropping path", next, in.Agent)
		s.clearPath()
		s.expected, s.hasExpected = in.Agent, true
		res.Status = StatusWaiting
		return s.finish(in, res)
	}
	s.cursor++
	s.wait = interval - 1
	s.expected, s.hasExpected = next, true
	s.stats.Moves++
	res.Next = next
	res.Status = StatusMoved
	return s.finish(in, res)
}

func (s *Session) idle(in TickInput, res TickResult) TickResult {
	s.clearPath()
	s.goal = res.Goal
	s.noPath = false
	s.expected, s.hasExpected = in.Agent, true
	res.Status = StatusIdle
	return s.finish(in, res)
}

func (s *Session) finish(in TickInput, res TickResult) TickResult {
	if s.observer != nil {
		s.observer(in, res)
	}
	return res
}

func (s *Session) resolveGoal(in TickInput, params Params, tier Tier) grid.Cell {
	if in.Hidden {
		return s.tracker.Goal(s.grid, in.Agent, params.Wander)
	}
	s.tracker.See(in.Target)

	t := s.targeters[string(params.Targeting)]
	if params.Targeting == TargetScript {
		if st, ok := s.targeters[params.Script]; ok {
			t = st
		} else {
			t = s.scripts[params.Script]
		}
	}
	if t == nil {
		return in.Target
	}
	goal, err := t.Goal(TargetInput{
		Grid:      s.grid,
		Agent:     in.Agent,
		Target:    in.Target,
		Heading:   in.Heading,
		Tier:      tier,
		Lookahead: params.Lookahead,
	})
	if err != nil {
		logf("ai: %s: targeting: %v", s.def.Name, err)
		return in.Target
	}
	if !s.grid.IsWalkable(goal) {
		return in.Target
	}
	return goal
}

func (s *Session) needsReplan(agent, goal grid.Cell, params Params) bool {
	switch {
	case !s.hasPath:
		return true
	case s.cursor >= len(s.path):
		return true
	case s.hasExpected && agent != s.expected:
		return true
	case grid.Heuristic(goal, s.goal) >= params.ReplanTolerance:
		return true
	}
	return false
}

func (s *Session) replan(agent, goal grid.Cell) bool {
	path, st, err := grid.FindPathStats(s.grid, agent, goal)
	s.stats.Replans++
	s.stats.Expanded += st.Expanded
	s.goal = goal
	if err != nil {
		if errors.Is(err, grid.ErrCorruptPath) {
			logf("pathing: %v (from %s to %s)", err, agent, goal)
		}
		s.clearPath()
		s.noPath = true
		return false
	}
	s.path = path
	s.cursor = 0
	s.hasPath = len(path) > 0
	s.noPath = false
	return s.hasPath
}

func (s *Session) clearPath() {
	s.path = nil
	s.cursor = 0
	s.hasPath = false
}

// NoPath reports whether the last search found the goal unreachable.
func (s *Session) NoPath() bool { return s.noPath }

func (s *Session) Tier() Tier { return s.behavior.Tier() }

func (s *Session) Params() Params { return s.behavior.Params() }

// Path returns the remaining cached steps, not including the agent's cell.
func (s *Session) Path() grid.Path {
	if !s.hasPath || s.cursor >= len(s.path) {
		return nil
	}
	out := make(grid.Path, len(s.path)-s.cursor)
	copy(out, s.path[s.cursor:])
	return out
}

func (s *Session) Stats() Stats { return s.stats }

func (s *Session) Behavior() *Behavior { return s.behavior }

// Reset drops the cached path and movement cadence but keeps the tier.
func (s *Session) Reset() {
	s.clearPath()
	s.noPath = false
	s.hasExpected = false
	s.wait = 0
}
