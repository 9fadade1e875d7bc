package entity

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/component"
	"github.com/milk9111/starmaze/ecs/system"
	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/maze"
	"github.com/milk9111/starmaze/prefabs"
	"github.com/milk9111/starmaze/pursuit"
)

type Options struct {
	Spec prefabs.GameSpec
	// Seed overrides Spec.Maze.Seed. Zero in both picks a time-based seed.
	Seed int64
	// Level replaces the generated maze with a hand-made one.
	Level *levels.Level
	// Behavior overrides the pursuer spec named by Spec.Pursuer.
	Behavior *pursuit.BehaviorDef
	Session  []pursuit.Option
}

// Run is one playable session: a populated world plus its scheduler.
type Run struct {
	World     *ecs.World
	Scheduler *ecs.Scheduler
	Seed      int64
	Grid      *grid.Grid
	Player    ecs.Entity
	Pursuer   ecs.Entity

	sessionOpts []pursuit.Option
}

func NewRun(opts Options) (*Run, error) {
	spec := opts.Spec
	seed := opts.Seed
	if seed == 0 {
		seed = spec.Maze.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m, err := buildMaze(opts.Level, spec.Maze, seed)
	if err != nil {
		return nil, err
	}
	g := m.Grid

	def := opts.Behavior
	switch {
	case def != nil:
	case spec.Pursuer == "":
		def = pursuit.DefaultBehavior()
	default:
		def, err = pursuit.LoadBehavior(spec.Pursuer)
		if err != nil {
			return nil, fmt.Errorf("pursuer %s: %w", spec.Pursuer, err)
		}
	}

	w := ecs.NewWorld()
	r := &Run{
		World:     w,
		Scheduler: system.NewGameScheduler(rng, spec.ExitMinDistance),
		Seed:      seed,
		Grid:      g,
	}

	if _, err := NewMaze(w, m); err != nil {
		return nil, err
	}

	start := m.Start
	stealth := component.Stealth{Charges: spec.StealthCharges, Duration: spec.Ticks(spec.StealthSeconds)}
	if r.Player, err = NewPlayer(w, start, spec.PlayerMoveInterval, stealth); err != nil {
		return nil, err
	}

	stars := starCells(g, rng, opts.Level, start, spec)
	taken := map[grid.Cell]bool{start: true}
	for i, c := range stars {
		if _, err := NewStar(w, c, i); err != nil {
			return nil, err
		}
		taken[c] = true
	}

	at, ok := pursuerCell(g, rng, opts.Level, start, spec, taken)
	if !ok {
		return nil, fmt.Errorf("no open cell for the pursuer")
	}
	r.sessionOpts = append([]pursuit.Option{pursuit.WithSeed(seed)}, opts.Session...)
	sessionOpts := append([]pursuit.Option{pursuit.WithBehavior(def)}, r.sessionOpts...)
	if r.Pursuer, err = NewPursuer(w, g, at, spec.Pursuer, sessionOpts...); err != nil {
		return nil, err
	}
	taken[at] = true

	if haste := spec.Ticks(spec.HasteSeconds); haste > 0 {
		boxes := system.PickCells(g, rng, spec.EventBoxes, func(c grid.Cell) bool { return !taken[c] })
		for _, c := range boxes {
			if _, err := NewEventBox(w, c, haste); err != nil {
				return nil, err
			}
		}
	}

	limit := spec.TimeLimitTicks()
	if opts.Level != nil && opts.Level.TimeLimitSeconds > 0 {
		limit = opts.Level.TimeLimitSeconds * spec.TPS
	}
	if _, err := NewGameState(w, component.GameState{
		TimeLimit:  limit,
		StarsTotal: len(stars),
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func buildMaze(lvl *levels.Level, spec prefabs.MazeSpec, seed int64) (component.Maze, error) {
	if lvl != nil {
		return component.Maze{Grid: lvl.Grid(), Start: lvl.PlayerCell(), Seed: seed, Name: lvl.Name}, nil
	}
	res, err := maze.Generate(maze.Config{
		Width:    spec.Width,
		Height:   spec.Height,
		Openings: spec.Openings,
		Seed:     seed,
	})
	if err != nil {
		return component.Maze{}, err
	}
	return component.Maze{Grid: res.Grid, Start: res.Start, Seed: res.Seed, Name: "generated"}, nil
}

func starCells(g *grid.Grid, rng *rand.Rand, lvl *levels.Level, start grid.Cell, spec prefabs.GameSpec) []grid.Cell {
	if lvl != nil && len(lvl.Stars) > 0 {
		return lvl.StarCells()
	}
	stars := system.PickCells(g, rng, spec.Stars, func(c grid.Cell) bool {
		return c != start && grid.Heuristic(c, start) > spec.StarMinDistance
	})
	if len(stars) < spec.Stars {
		log.Printf("game: only %d cells beyond star distance %d, placing anywhere", len(stars), spec.StarMinDistance)
		stars = system.PickCells(g, rng, spec.Stars, func(c grid.Cell) bool { return c != start })
	}
	return stars
}

func pursuerCell(g *grid.Grid, rng *rand.Rand, lvl *levels.Level, start grid.Cell, spec prefabs.GameSpec, taken map[grid.Cell]bool) (grid.Cell, bool) {
	if lvl != nil {
		if c, ok := lvl.PursuerCell(); ok {
			return c, true
		}
	}
	inBand := func(c grid.Cell) bool {
		d := grid.Heuristic(c, start)
		return !taken[c] && d >= spec.PursuerMinDistance && (spec.PursuerMaxDistance <= 0 || d <= spec.PursuerMaxDistance)
	}
	for _, keep := range []func(grid.Cell) bool{inBand, func(c grid.Cell) bool { return !taken[c] }} {
		if picked := system.PickCells(g, rng, 1, keep); len(picked) == 1 {
			return picked[0], true
		}
	}
	return grid.Cell{}, false
}

// Step sets the player's requested direction and advances one tick.
func (r *Run) Step(dir grid.Cell) []ecs.Event {
	r.Steer(dir, false)
	return r.Scheduler.Step(r.World)
}

// Steer sets the player's direction without advancing. A held direction keeps
// moving the player every MoveInterval ticks until steered again.
func (r *Run) Steer(dir grid.Cell, held bool) {
	if in, ok := ecs.Get(r.World, r.Player, component.InputComponent.Kind()); ok {
		in.Dir = dir
		in.Held = held && dir != (grid.Cell{})
	}
}

// Cloak asks for a stealth charge to be spent on the next tick.
func (r *Run) Cloak() {
	if in, ok := ecs.Get(r.World, r.Player, component.InputComponent.Kind()); ok {
		in.Cloak = true
	}
}

// Stealth returns the player's cloak state.
func (r *Run) Stealth() component.Stealth {
	if st, ok := ecs.Get(r.World, r.Player, component.StealthComponent.Kind()); ok {
		return *st
	}
	return component.Stealth{}
}

// EventBoxes returns the cells of the unopened event boxes.
func (r *Run) EventBoxes() []grid.Cell {
	var out []grid.Cell
	ecs.ForEach2(r.World, component.EventBoxComponent.Kind(), component.PositionComponent.Kind(), func(_ ecs.Entity, _ *component.EventBox, pos *component.Position) {
		out = append(out, pos.Cell)
	})
	return out
}

// Advance runs one tick with whatever input is already set.
func (r *Run) Advance() []ecs.Event {
	return r.Scheduler.Step(r.World)
}

// Stars returns the cells of the stars still on the board.
func (r *Run) Stars() []grid.Cell {
	var out []grid.Cell
	ecs.ForEach2(r.World, component.StarComponent.Kind(), component.PositionComponent.Kind(), func(_ ecs.Entity, _ *component.Star, pos *component.Position) {
		out = append(out, pos.Cell)
	})
	return out
}

// Exit returns the exit cell once it has opened.
func (r *Run) Exit() (grid.Cell, bool) {
	var at grid.Cell
	found := false
	ecs.ForEach2(r.World, component.ExitComponent.Kind(), component.PositionComponent.Kind(), func(_ ecs.Entity, _ *component.Exit, pos *component.Position) {
		at, found = pos.Cell, true
	})
	return at, found
}

func (r *Run) State() *component.GameState {
	e, ok := ecs.First(r.World, component.GameStateComponent.Kind())
	if !ok {
		return nil
	}
	gs, _ := ecs.Get(r.World, e, component.GameStateComponent.Kind())
	return gs
}

func (r *Run) Session() *pursuit.Session {
	p, ok := ecs.Get(r.World, r.Pursuer, component.PursuerComponent.Kind())
	if !ok {
		return nil
	}
	return p.Session
}

func (r *Run) PlayerPosition() component.Position {
	if pos, ok := ecs.Get(r.World, r.Player, component.PositionComponent.Kind()); ok {
		return *pos
	}
	return component.Position{}
}

func (r *Run) PursuerPosition() component.Position {
	if pos, ok := ecs.Get(r.World, r.Pursuer, component.PositionComponent.Kind()); ok {
		return *pos
	}
	return component.Position{}
}

// ReloadBehavior swaps in a freshly compiled pursuer behavior. The new
// session starts on the tier the old one reached and keeps its counters.
func (r *Run) ReloadBehavior(def *pursuit.BehaviorDef) error {
	p, ok := ecs.Get(r.World, r.Pursuer, component.PursuerComponent.Kind())
	if !ok {
		return fmt.Errorf("run has no pursuer")
	}
	opts := append([]pursuit.Option{pursuit.WithBehavior(def), pursuit.WithHistory(p.Session)}, r.sessionOpts...)
	session, err := pursuit.NewSession(r.Grid, opts...)
	if err != nil {
		return err
	}
	p.Session = session
	p.Last = pursuit.TickResult{}
	log.Printf("prefabs: reloaded pursuer behavior %s", def.Name)
	return nil
}
