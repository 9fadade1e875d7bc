package pursuit

import (
	"errors"
	"strings"
	"testing"

	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/prefabs"
)

func mustGrid(t *testing.T, rows ...string) *grid.Grid {
	t.Helper()
	g, err := grid.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return g
}

func openGrid(t *testing.T, w, h int) *grid.Grid {
	t.Helper()
	rows := make([]string, h)
	for i := range rows {
		rows[i] = strings.Repeat(".", w)
	}
	return mustGrid(t, rows...)
}

// flatBehavior is a single-tier machine with the given cadence.
func flatBehavior(t *testing.T, interval, tolerance int) *BehaviorDef {
	t.Helper()
	def, err := CompileBehavior(prefabs.PursuitSpec{
		Name:    "test",
		Initial: "basic",
		States: map[string]prefabs.PursuitStateSpec{
			"basic": {OnEnter: []map[string]any{
				{"move_interval": interval},
				{"replan_tolerance": tolerance},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CompileBehavior: %v", err)
	}
	return def
}

func newSession(t *testing.T, g *grid.Grid, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(g, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSessionChasesTarget(t *testing.T) {
	g := openGrid(t, 5, 5)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 1)))

	agent := grid.Cell{X: 0, Y: 0}
	target := grid.Cell{X: 4, Y: 4}
	for i := 0; i < 8; i++ {
		res := s.Tick(TickInput{Agent: agent, Target: target})
		if res.Status != StatusMoved {
			t.Fatalf("tick %d: expected move, got %s", i, res.Status)
		}
		if grid.Heuristic(agent, res.Next) != 1 {
			t.Fatalf("tick %d: non-adjacent step %s -> %s", i, agent, res.Next)
		}
		agent = res.Next
	}
	if agent != target {
		t.Fatalf("expected to reach %s, ended at %s", target, agent)
	}
	res := s.Tick(TickInput{Agent: agent, Target: target})
	if res.Status != StatusIdle || res.Next != agent {
		t.Fatalf("expected idle on goal, got %+v", res)
	}
	if st := s.Stats(); st.Replans != 1 || st.Moves != 8 {
		t.Fatalf("expected 1 replan and 8 moves, got %+v", st)
	}
}

func TestSessionEnclosedGoalHoldsAgent(t *testing.T) {
	g := mustGrid(t,
		".....",
		".###.",
		".#.#.",
		".###.",
		".....",
	)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 1)))

	agent := grid.Cell{X: 0, Y: 0}
	for i := 0; i < 3; i++ {
		res := s.Tick(TickInput{Agent: agent, Target: grid.Cell{X: 2, Y: 2}})
		if res.Status != StatusNoPath {
			t.Fatalf("tick %d: expected no path, got %s", i, res.Status)
		}
		if res.Next != agent {
			t.Fatalf("tick %d: agent moved to %s", i, res.Next)
		}
		if !res.Replanned {
			t.Fatalf("tick %d: expected a fresh search while no path is cached", i)
		}
	}
	if !s.NoPath() || s.Path() != nil {
		t.Fatalf("expected no-path state with empty path, got %v", s.Path())
	}

	res := s.Tick(TickInput{Agent: agent, Target: grid.Cell{X: 4, Y: 4}})
	if res.Status != StatusMoved || s.NoPath() {
		t.Fatalf("expected recovery once the target is reachable, got %+v", res)
	}
}

func TestSessionInvalidCoordinates(t *testing.T) {
	g := mustGrid(t,
		"...",
		".#.",
		"...",
	)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 1)))

	cases := []struct {
		name   string
		agent  grid.Cell
		target grid.Cell
	}{
		{"agent off grid", grid.Cell{X: -1, Y: 0}, grid.Cell{X: 2, Y: 2}},
		{"target off grid", grid.Cell{X: 0, Y: 0}, grid.Cell{X: 3, Y: 0}},
		{"target in wall", grid.Cell{X: 0, Y: 0}, grid.Cell{X: 1, Y: 1}},
		{"agent in wall", grid.Cell{X: 1, Y: 1}, grid.Cell{X: 0, Y: 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := s.Tick(TickInput{Agent: c.agent, Target: c.target})
			if res.Status != StatusInvalid {
				t.Fatalf("expected invalid, got %s", res.Status)
			}
			if !errors.Is(res.Err, ErrInvalidCoordinate) {
				t.Fatalf("expected ErrInvalidCoordinate, got %v", res.Err)
			}
			if res.Next != c.agent {
				t.Fatalf("agent should stay put, got %s", res.Next)
			}
		})
	}
}

func TestSessionCadence(t *testing.T) {
	g := openGrid(t, 10, 1)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 3, 1)))

	agent := grid.Cell{X: 0, Y: 0}
	target := grid.Cell{X: 9, Y: 0}
	want := []Status{StatusMoved, StatusWaiting, StatusWaiting, StatusMoved, StatusWaiting, StatusWaiting, StatusMoved}
	for i, w := range want {
		res := s.Tick(TickInput{Agent: agent, Target: target})
		if res.Status != w {
			t.Fatalf("tick %d: expected %s, got %s", i, w, res.Status)
		}
		agent = res.Next
	}
	if agent != (grid.Cell{X: 3, Y: 0}) {
		t.Fatalf("expected three steps, agent at %s", agent)
	}
}

func TestSessionReplanTolerance(t *testing.T) {
	g := openGrid(t, 7, 1)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 2)))

	agent := grid.Cell{X: 0, Y: 0}
	res := s.Tick(TickInput{Agent: agent, Target: grid.Cell{X: 6, Y: 0}})
	if !res.Replanned {
		t.Fatalf("first tick must plan")
	}
	agent = res.Next

	res = s.Tick(TickInput{Agent: agent, Target: grid.Cell{X: 5, Y: 0}})
	if res.Replanned {
		t.Fatalf("drift of one cell is inside tolerance 2")
	}
	if res.Next != (grid.Cell{X: 2, Y: 0}) {
		t.Fatalf("expected to follow cached path, got %s", res.Next)
	}
	agent = res.Next

	res = s.Tick(TickInput{Agent: agent, Target: grid.Cell{X: 3, Y: 0}})
	if !res.Replanned {
		t.Fatalf("drift of three cells must replan")
	}
	if res.Next != (grid.Cell{X: 3, Y: 0}) {
		t.Fatalf("expected step onto target, got %s", res.Next)
	}
}

func TestSessionReplansWhenAgentDisplaced(t *testing.T) {
	g := openGrid(t, 5, 5)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 5)))

	target := grid.Cell{X: 4, Y: 0}
	res := s.Tick(TickInput{Agent: grid.Cell{X: 0, Y: 0}, Target: target})
	if res.Next != (grid.Cell{X: 1, Y: 0}) {
		t.Fatalf("unexpected first step %s", res.Next)
	}

	res = s.Tick(TickInput{Agent: grid.Cell{X: 0, Y: 3}, Target: target})
	if !res.Replanned {
		t.Fatalf("expected replan after displacement")
	}
	if grid.Heuristic(grid.Cell{X: 0, Y: 3}, res.Next) != 1 {
		t.Fatalf("step %s is not adjacent to displaced agent", res.Next)
	}
}

func TestSessionEscalatesWithProgress(t *testing.T) {
	g := openGrid(t, 9, 9)
	s := newSession(t, g)

	agent := grid.Cell{X: 0, Y: 0}
	target := grid.Cell{X: 2, Y: 4}
	heading := grid.Cell{X: 1, Y: 0}

	for stars := 0; stars < 3; stars++ {
		res := s.Tick(TickInput{Agent: agent, Target: target, Heading: heading, Progress: stars})
		if res.Tier != TierBasic || res.Escalated {
			t.Fatalf("unexpected escalation at %d stars", stars)
		}
		if res.Goal != target {
			t.Fatalf("basic tier should chase the target directly, got goal %s", res.Goal)
		}
		agent = res.Next
	}

	res := s.Tick(TickInput{Agent: agent, Target: target, Heading: heading, Progress: 3})
	if !res.Escalated || res.Tier != TierAdvanced {
		t.Fatalf("expected escalation at 3 stars, got %+v", res)
	}
	if want := (grid.Cell{X: 5, Y: 4}); res.Goal != want {
		t.Fatalf("expected predicted goal %s, got %s", want, res.Goal)
	}
	if s.Params().MoveInterval != 12 {
		t.Fatalf("expected advanced cadence, got %+v", s.Params())
	}
	if s.Stats().EscalatedAt != 4 {
		t.Fatalf("expected escalation on tick 4, got %d", s.Stats().EscalatedAt)
	}

	res = s.Tick(TickInput{Agent: res.Next, Target: target, Heading: heading, Progress: 2})
	if res.Tier != TierAdvanced {
		t.Fatalf("tier downgraded after progress dropped")
	}
}

func TestSessionObserverAndTargeterOverride(t *testing.T) {
	g := openGrid(t, 5, 5)
	corner := grid.Cell{X: 4, Y: 0}
	var seen []TickResult
	s := newSession(t, g,
		WithBehavior(flatBehavior(t, 1, 1)),
		WithTargeter(TargetDirect, TargeterFunc(func(in TargetInput) (grid.Cell, error) {
			return corner, nil
		})),
		WithObserver(func(in TickInput, res TickResult) { seen = append(seen, res) }),
	)

	res := s.Tick(TickInput{Agent: grid.Cell{X: 0, Y: 0}, Target: grid.Cell{X: 0, Y: 4}})
	if res.Goal != corner || res.Next != (grid.Cell{X: 1, Y: 0}) {
		t.Fatalf("override ignored: %+v", res)
	}
	if len(seen) != 1 || seen[0].Goal != corner {
		t.Fatalf("observer not called with result, got %v", seen)
	}
	if p := s.Path(); len(p) != 3 || p[len(p)-1] != corner {
		t.Fatalf("unexpected remaining path %v", p)
	}
}

func TestSessionWithScriptedBehavior(t *testing.T) {
	def, err := LoadBehavior("pursuit_ambush.yaml")
	if err != nil {
		t.Fatalf("LoadBehavior: %v", err)
	}
	g := mustGrid(t,
		"..........",
		"......#...",
		"..........",
	)
	s := newSession(t, g, WithBehavior(def))

	res := s.Tick(TickInput{
		Agent:    grid.Cell{X: 0, Y: 0},
		Target:   grid.Cell{X: 2, Y: 1},
		Heading:  grid.Cell{X: 1, Y: 0},
		Progress: 3,
	})
	if res.Tier != TierAdvanced {
		t.Fatalf("expected advanced tier, got %s", res.Tier)
	}
	if want := (grid.Cell{X: 5, Y: 1}); res.Goal != want {
		t.Fatalf("expected script to stop before the wall at %s, got %s", want, res.Goal)
	}
}

func TestNewSessionRejectsEmptyGrid(t *testing.T) {
	if _, err := NewSession(nil); err == nil {
		t.Fatalf("expected error for nil grid")
	}
}

func TestSessionResetKeepsTier(t *testing.T) {
	g := openGrid(t, 9, 1)
	s := newSession(t, g)

	agent := grid.Cell{X: 0, Y: 0}
	res := s.Tick(TickInput{Agent: agent, Target: grid.Cell{X: 8, Y: 0}, Progress: 3})
	if res.Status != StatusMoved || s.Path() == nil {
		t.Fatalf("expected a cached path after the first move, got %+v", res)
	}

	s.Reset()
	if s.Path() != nil || s.NoPath() {
		t.Fatalf("reset should drop the cached path")
	}
	if s.Tier() != TierAdvanced {
		t.Fatalf("reset should keep the tier, got %s", s.Tier())
	}

	res = s.Tick(TickInput{Agent: res.Next, Target: grid.Cell{X: 8, Y: 0}, Progress: 3})
	if res.Status != StatusMoved || !res.Replanned {
		t.Fatalf("expected an immediate replanned move after reset, got %+v", res)
	}
}

func TestSessionFallsBackWhenPredictedGoalIsWalledOff(t *testing.T) {
	g := mustGrid(t, ".....#..")
	s := newSession(t, g)

	agent := grid.Cell{X: 0, Y: 0}
	target := grid.Cell{X: 4, Y: 0}
	res := s.Tick(TickInput{Agent: agent, Target: target, Heading: grid.Cell{X: 1}, Progress: 3})
	if res.Tier != TierAdvanced {
		t.Fatalf("expected advanced tier, got %s", res.Tier)
	}
	if res.Status != StatusMoved || res.Next != (grid.Cell{X: 1, Y: 0}) {
		t.Fatalf("expected a step toward the reachable target, got %+v", res)
	}
	if res.Goal != target || s.NoPath() {
		t.Fatalf("expected goal %s without no-path, got %s nopath=%v", target, res.Goal, s.NoPath())
	}
}

func TestSessionHiddenTargetChasesLastSighting(t *testing.T) {
	g := openGrid(t, 7, 1)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 1)))

	agent := grid.Cell{X: 0, Y: 0}
	seen := grid.Cell{X: 3, Y: 0}
	res := s.Tick(TickInput{Agent: agent, Target: seen})
	agent = res.Next

	away := grid.Cell{X: 6, Y: 0}
	for agent != seen {
		res = s.Tick(TickInput{Agent: agent, Target: away, Hidden: true})
		if res.Status != StatusMoved || res.Goal != seen {
			t.Fatalf("expected to head for %s, got %+v", seen, res)
		}
		agent = res.Next
	}

	res = s.Tick(TickInput{Agent: agent, Target: away, Hidden: true})
	if res.Status != StatusIdle || res.Next != seen {
		t.Fatalf("without wander the pursuer should hold at the last sighting, got %+v", res)
	}

	res = s.Tick(TickInput{Agent: agent, Target: away})
	if res.Goal != away || res.Status != StatusMoved {
		t.Fatalf("expected the chase to resume once visible, got %+v", res)
	}
}

func wanderBehavior(t *testing.T) *BehaviorDef {
	t.Helper()
	def, err := CompileBehavior(prefabs.PursuitSpec{
		Name:    "roamer",
		Initial: "basic",
		States: map[string]prefabs.PursuitStateSpec{
			"basic": {OnEnter: []map[string]any{
				{"move_interval": 1},
				{"wander": true},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CompileBehavior: %v", err)
	}
	return def
}

func TestSessionHiddenTargetWanders(t *testing.T) {
	g := openGrid(t, 5, 5)
	target := grid.Cell{X: 4, Y: 4}

	roam := func(seed int64) []grid.Cell {
		s := newSession(t, g, WithBehavior(wanderBehavior(t)), WithSeed(seed))
		agent := grid.Cell{X: 0, Y: 0}
		var goals []grid.Cell
		for i := 0; i < 40; i++ {
			res := s.Tick(TickInput{Agent: agent, Target: target, Hidden: true})
			if res.Status != StatusMoved {
				t.Fatalf("tick %d: expected roaming move, got %+v", i, res)
			}
			if res.Goal == agent {
				t.Fatalf("tick %d: roam goal is the agent's own cell", i)
			}
			goals = append(goals, res.Goal)
			agent = res.Next
		}
		return goals
	}

	a := roam(9)
	distinct := map[grid.Cell]bool{}
	for _, c := range a {
		distinct[c] = true
	}
	if len(distinct) < 2 {
		t.Fatalf("expected several roam goals, got %v", distinct)
	}
	b := roam(9)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d: same seed roamed differently, %s vs %s", i, a[i], b[i])
		}
	}
}

func TestSessionHastedHalvesInterval(t *testing.T) {
	g := openGrid(t, 10, 1)
	s := newSession(t, g, WithBehavior(flatBehavior(t, 4, 1)))

	agent := grid.Cell{X: 0, Y: 0}
	target := grid.Cell{X: 9, Y: 0}
	want := []Status{StatusMoved, StatusWaiting, StatusMoved, StatusWaiting, StatusMoved}
	for i, w := range want {
		res := s.Tick(TickInput{Agent: agent, Target: target, Hasted: true})
		if res.Status != w {
			t.Fatalf("tick %d: expected %s, got %s", i, w, res.Status)
		}
		agent = res.Next
	}

	want = []Status{StatusWaiting, StatusMoved, StatusWaiting, StatusWaiting, StatusWaiting, StatusMoved}
	for i, w := range want {
		res := s.Tick(TickInput{Agent: agent, Target: target})
		if res.Status != w {
			t.Fatalf("normal tick %d: expected %s, got %s", i, w, res.Status)
		}
		agent = res.Next
	}
}

func TestSessionWithHistoryKeepsTier(t *testing.T) {
	g := openGrid(t, 5, 5)
	prev := newSession(t, g)
	res := prev.Tick(TickInput{Agent: grid.Cell{X: 0, Y: 0}, Target: grid.Cell{X: 4, Y: 4}, Progress: 4})
	if !res.Escalated {
		t.Fatalf("expected the first session to escalate")
	}

	s := newSession(t, g, WithBehavior(flatBehavior(t, 1, 1)), WithHistory(prev))
	if s.Tier() != TierBasic {
		t.Fatalf("a single-tier machine cannot rise, got %s", s.Tier())
	}

	s = newSession(t, g, WithHistory(prev))
	if s.Tier() != TierAdvanced {
		t.Fatalf("expected the tier to carry over, got %s", s.Tier())
	}
	res = s.Tick(TickInput{Agent: res.Next, Target: grid.Cell{X: 4, Y: 4}, Progress: 4})
	if res.Escalated {
		t.Fatalf("carried-over tier must not escalate again")
	}
	if st := s.Stats(); st.EscalatedAt != 1 || st.Ticks != 2 {
		t.Fatalf("expected counters to continue, got %+v", st)
	}
}
