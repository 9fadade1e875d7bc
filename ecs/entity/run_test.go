package entity

import (
	"testing"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/prefabs"
	"github.com/milk9111/starmaze/pursuit"
)

func gameSpec(t *testing.T) prefabs.GameSpec {
	t.Helper()
	spec, err := prefabs.LoadGameSpec("game.yaml")
	if err != nil {
		t.Fatalf("LoadGameSpec: %v", err)
	}
	return spec
}

func cellsOf[T any](r *Run, h component.ComponentHandle[T]) []grid.Cell {
	var out []grid.Cell
	ecs.ForEach2(r.World, h.Kind(), component.PositionComponent.Kind(), func(_ ecs.Entity, _ *T, p *component.Position) {
		out = append(out, p.Cell)
	})
	return out
}

func TestNewRunGeneratedPlacement(t *testing.T) {
	spec := gameSpec(t)
	r, err := NewRun(Options{Spec: spec, Seed: 42})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	start := r.PlayerPosition().Cell
	if start != (grid.Cell{X: 1, Y: 1}) {
		t.Fatalf("player should start at (1,1), got %s", start)
	}

	stars := cellsOf(r, component.StarComponent)
	if len(stars) != spec.Stars {
		t.Fatalf("expected %d stars, got %d", spec.Stars, len(stars))
	}
	seen := map[grid.Cell]bool{}
	for _, s := range stars {
		if seen[s] {
			t.Fatalf("duplicate star at %s", s)
		}
		seen[s] = true
		if grid.Heuristic(s, start) <= spec.StarMinDistance {
			t.Fatalf("star %s too close to start", s)
		}
		if _, err := grid.FindPath(r.Grid, start, s); err != nil {
			t.Fatalf("star %s unreachable: %v", s, err)
		}
	}

	p := r.PursuerPosition().Cell
	if d := grid.Heuristic(p, start); d < spec.PursuerMinDistance || d > spec.PursuerMaxDistance {
		t.Fatalf("pursuer %s at distance %d outside [%d,%d]", p, d, spec.PursuerMinDistance, spec.PursuerMaxDistance)
	}
	if seen[p] {
		t.Fatalf("pursuer placed on a star")
	}

	boxes := r.EventBoxes()
	if len(boxes) != spec.EventBoxes {
		t.Fatalf("expected %d event boxes, got %v", spec.EventBoxes, boxes)
	}
	for _, b := range boxes {
		if seen[b] || b == p || b == start {
			t.Fatalf("event box %s shares a cell", b)
		}
	}
	if st := r.Stealth(); st.Charges != spec.StealthCharges || st.Duration != spec.Ticks(spec.StealthSeconds) || st.Active() {
		t.Fatalf("unexpected stealth %+v", st)
	}

	gs := r.State()
	if gs.StarsTotal != spec.Stars || gs.TimeLimit != spec.TimeLimitTicks() {
		t.Fatalf("unexpected game state %+v", gs)
	}
	if r.Session() == nil || r.Session().Tier() != pursuit.TierBasic {
		t.Fatalf("expected a basic-tier session")
	}
}

func TestNewRunSameSeedSameWorld(t *testing.T) {
	spec := gameSpec(t)
	a, err := NewRun(Options{Spec: spec, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRun(Options{Spec: spec, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	ra, rb := a.Grid.Rows(), b.Grid.Rows()
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("row %d differs", i)
		}
	}
	sa, sb := cellsOf(a, component.StarComponent), cellsOf(b, component.StarComponent)
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("star %d differs: %s vs %s", i, sa[i], sb[i])
		}
	}
	if a.PursuerPosition().Cell != b.PursuerPosition().Cell {
		t.Fatalf("pursuer differs")
	}
}

func TestNewRunFromLevel(t *testing.T) {
	lvl, err := levels.Load("crossroads")
	if err != nil {
		t.Fatalf("levels.Load: %v", err)
	}
	spec := gameSpec(t)
	r, err := NewRun(Options{Spec: spec, Level: lvl, Seed: 1})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if r.PlayerPosition().Cell != lvl.PlayerCell() {
		t.Fatalf("player not at level start")
	}
	if want, _ := lvl.PursuerCell(); r.PursuerPosition().Cell != want {
		t.Fatalf("pursuer not at level placement")
	}
	if got := len(cellsOf(r, component.StarComponent)); got != 5 {
		t.Fatalf("expected 5 level stars, got %d", got)
	}
	if r.State().TimeLimit != 180*spec.TPS {
		t.Fatalf("expected level time limit, got %d", r.State().TimeLimit)
	}
}

func TestNewRunScriptedPursuer(t *testing.T) {
	spec := gameSpec(t)
	spec.Pursuer = "pursuit_ambush.yaml"
	r, err := NewRun(Options{Spec: spec, Seed: 3})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if r.Session().Behavior().Def().Name != "ambusher" {
		t.Fatalf("expected ambusher behavior, got %s", r.Session().Behavior().Def().Name)
	}

	spec.Pursuer = "missing.yaml"
	if _, err := NewRun(Options{Spec: spec, Seed: 3}); err == nil {
		t.Fatalf("expected error for missing pursuer spec")
	}
}

// walk steps the player along the shortest path to goal.
func walk(t *testing.T, r *Run, goal grid.Cell) []ecs.Event {
	t.Helper()
	path, err := grid.FindPath(r.Grid, r.PlayerPosition().Cell, goal)
	if err != nil {
		t.Fatalf("no path to %s: %v", goal, err)
	}
	var events []ecs.Event
	for _, next := range path {
		cur := r.PlayerPosition().Cell
		events = append(events, r.Step(grid.Cell{X: next.X - cur.X, Y: next.Y - cur.Y})...)
		if r.PlayerPosition().Cell != next {
			t.Fatalf("player did not reach %s, at %s (phase %s)", next, r.PlayerPosition().Cell, r.State().Phase)
		}
	}
	return events
}

func TestRunCollectAllStarsAndEscape(t *testing.T) {
	base, err := levels.Load("vault")
	if err != nil {
		t.Fatal(err)
	}
	sealed := [2]int{5, 5}
	lvl := *base
	lvl.Pursuer = &sealed

	spec := gameSpec(t)
	spec.PlayerMoveInterval = 1
	spec.ExitMinDistance = 4
	r, err := NewRun(Options{Spec: spec, Level: &lvl, Seed: 11})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	counts := map[ecs.EventKind]int{}
	for _, star := range lvl.StarCells() {
		for _, ev := range walk(t, r, star) {
			counts[ev.Kind]++
		}
	}
	if counts[ecs.EventStarCollected] != 5 || counts[ecs.EventExitOpened] != 1 {
		t.Fatalf("unexpected events %v", counts)
	}
	if counts[ecs.EventEscalated] != 1 || r.State().Tier != pursuit.TierAdvanced {
		t.Fatalf("expected one escalation, got %v tier %s", counts, r.State().Tier)
	}
	if counts[ecs.EventNoPath] == 0 {
		t.Fatalf("sealed pursuer should report no path")
	}
	if r.PursuerPosition().Cell != (grid.Cell{X: 5, Y: 5}) {
		t.Fatalf("sealed pursuer moved to %s", r.PursuerPosition().Cell)
	}

	exit := cellsOf(r, component.ExitComponent)
	if len(exit) != 1 {
		t.Fatalf("expected one exit, got %v", exit)
	}
	walk(t, r, exit[0])
	if gs := r.State(); gs.Phase != component.PhaseWon || gs.Reason != "escaped" {
		t.Fatalf("expected escape, got %s/%s", gs.Phase, gs.Reason)
	}
}

func TestReloadBehaviorKeepsTierFromStars(t *testing.T) {
	spec := gameSpec(t)
	r, err := NewRun(Options{Spec: spec, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	r.State().Collected = 4
	first := map[ecs.EventKind]int{}
	for _, ev := range r.Step(grid.Cell{}) {
		first[ev.Kind]++
	}
	if r.Session().Tier() != pursuit.TierAdvanced || first[ecs.EventEscalated] != 1 {
		t.Fatalf("expected one escalation after 4 stars, got %v", first)
	}
	escalatedAt := r.Session().Stats().EscalatedAt

	def, err := pursuit.LoadBehavior("pursuit_ambush.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ReloadBehavior(def); err != nil {
		t.Fatalf("ReloadBehavior: %v", err)
	}
	if r.Session().Tier() != pursuit.TierAdvanced {
		t.Fatalf("reloaded session should start on the advanced tier")
	}
	for _, ev := range r.Step(grid.Cell{}) {
		if ev.Kind == ecs.EventEscalated {
			t.Fatalf("reload replayed the escalation")
		}
	}
	if got := r.Session().Stats().EscalatedAt; got != escalatedAt {
		t.Fatalf("expected escalation tick %d to survive the reload, got %d", escalatedAt, got)
	}
	if r.Session().Behavior().Def().Name != "ambusher" {
		t.Fatalf("expected the ambusher behavior after reload")
	}
}

func TestRunCloakHidesPlayer(t *testing.T) {
	spec := gameSpec(t)
	spec.StealthCharges = 1
	r, err := NewRun(Options{Spec: spec, Seed: 13})
	if err != nil {
		t.Fatal(err)
	}
	r.Cloak()
	var on int
	for _, ev := range r.Advance() {
		if ev.Kind == ecs.EventStealthOn {
			on++
		}
	}
	st := r.Stealth()
	if on != 1 || !st.Active() || st.Charges != 0 {
		t.Fatalf("expected an active cloak, got %+v (events %d)", st, on)
	}
	p, _ := ecs.Get(r.World, r.Pursuer, component.PursuerComponent.Kind())
	if p.Last.Status == pursuit.StatusInvalid {
		t.Fatalf("hidden tick failed: %v", p.Last.Err)
	}
}

func TestRunSteerHeldKeepsDirection(t *testing.T) {
	r, err := NewRun(Options{Spec: gameSpec(t), Seed: 11})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(r.Stars()); got != r.State().StarsTotal {
		t.Fatalf("expected %d stars on the board, got %d", r.State().StarsTotal, got)
	}
	if _, ok := r.Exit(); ok {
		t.Fatalf("exit should stay closed until every star is collected")
	}

	start := r.PlayerPosition().Cell
	dir := grid.Right
	if !r.Grid.IsWalkable(start.Add(dir)) {
		dir = grid.Down
	}
	r.Steer(dir, true)
	r.Advance()
	if got := r.PlayerPosition().Cell; got != start.Add(dir) {
		t.Fatalf("expected held move to %s, got %s", start.Add(dir), got)
	}
	in, _ := ecs.Get(r.World, r.Player, component.InputComponent.Kind())
	if in.Dir != dir || !in.Held {
		t.Fatalf("held input should persist, got %+v", in)
	}

	r.Steer(grid.Cell{}, true)
	if in.Held {
		t.Fatalf("zero direction should never be held")
	}
}
