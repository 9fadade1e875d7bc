package pursuit

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/prefabs"
)

// TargetInput is what a Targeter sees when choosing a goal cell.
type TargetInput struct {
	Grid      *grid.Grid
	Agent     grid.Cell
	Target    grid.Cell
	Heading   grid.Cell
	Tier      Tier
	Lookahead int
}

// Targeter picks the cell the pursuer should plan toward.
type Targeter interface {
	Goal(in TargetInput) (grid.Cell, error)
}

type TargeterFunc func(in TargetInput) (grid.Cell, error)

func (f TargeterFunc) Goal(in TargetInput) (grid.Cell, error) { return f(in) }

// Direct chases the target's current cell.
var Direct Targeter = TargeterFunc(func(in TargetInput) (grid.Cell, error) {
	return in.Target, nil
})

// Predictive aims Lookahead cells ahead of the target along its heading,
// falling back to the target itself when that cell is a wall or off the grid.
var Predictive Targeter = TargeterFunc(func(in TargetInput) (grid.Cell, error) {
	h := unitHeading(in.Heading)
	if in.Lookahead <= 0 || h == (grid.Cell{}) {
		return in.Target, nil
	}
	ahead := in.Target.Add(h.Scale(in.Lookahead))
	if !in.Grid.IsWalkable(ahead) {
		return in.Target, nil
	}
	return ahead, nil
})

// Tracker picks goals while the target is hidden. It remembers the last cell
// the target was seen on and, once that lead goes cold, can roam to random
// open cells.
type Tracker struct {
	rng     *rand.Rand
	last    grid.Cell
	seen    bool
	roam    grid.Cell
	roaming bool
}

func NewTracker(seed int64) *Tracker {
	return &Tracker{rng: rand.New(rand.NewSource(seed))}
}

// See records a sighting and cancels any roaming.
func (t *Tracker) See(c grid.Cell) {
	t.last, t.seen = c, true
	t.roaming = false
}

// LastSeen returns the cell of the most recent sighting still being followed.
func (t *Tracker) LastSeen() (grid.Cell, bool) {
	return t.last, t.seen
}

// Forget drops both the lead and the roam goal, e.g. when neither can be
// reached.
func (t *Tracker) Forget() {
	t.seen = false
	t.roaming = false
}

// Goal heads for the last sighting until the agent stands on it. After that
// the agent holds position, or roams when wander is set.
func (t *Tracker) Goal(g *grid.Grid, agent grid.Cell, wander bool) grid.Cell {
	if t.seen {
		if agent != t.last {
			return t.last
		}
		t.seen = false
	}
	if !wander {
		return agent
	}
	if t.roaming && agent != t.roam && g.IsWalkable(t.roam) {
		return t.roam
	}
	open := g.WalkableCells()
	if len(open) < 2 {
		t.roaming = false
		return agent
	}
	for {
		c := open[t.rng.Intn(len(open))]
		if c != agent {
			t.roam, t.roaming = c, true
			return c
		}
	}
}

func unitHeading(h grid.Cell) grid.Cell {
	return grid.Cell{X: sign(h.X), Y: sign(h.Y)}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

const targetDispatchScript = `
__result := target(__engine, __px, __py, __hx, __hy, __steps, __tier)
`

// ScriptTargeter runs a tengo script defining
//
//	target := func(engine, px, py, hx, hy, steps, tier) { return [x, y] }
//
// The engine map exposes is_walkable(x, y) and width/height.
type ScriptTargeter struct {
	name     string
	compiled *tengo.Compiled
}

func NewScriptTargeter(name string) (*ScriptTargeter, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("pursuit: load script %s: %w", name, err)
	}
	return CompileScriptTargeter(name, src)
}

func CompileScriptTargeter(name string, src []byte) (*ScriptTargeter, error) {
	full := string(src) + "\n" + targetDispatchScript
	script := tengo.NewScript([]byte(full))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__px", 0)
	_ = script.Add("__py", 0)
	_ = script.Add("__hx", 0)
	_ = script.Add("__hy", 0)
	_ = script.Add("__steps", 0)
	_ = script.Add("__tier", "")

	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("pursuit: compile script %s: %w", name, err)
	}
	return &ScriptTargeter{name: name, compiled: compiled}, nil
}

func (s *ScriptTargeter) Name() string { return s.name }

func (s *ScriptTargeter) Goal(in TargetInput) (grid.Cell, error) {
	if s == nil || s.compiled == nil {
		return in.Target, fmt.Errorf("pursuit: nil script targeter")
	}
	h := unitHeading(in.Heading)
	vars := []struct {
		name  string
		value any
	}{
		{"__engine", buildTargetEngine(in.Grid)},
		{"__px", in.Target.X},
		{"__py", in.Target.Y},
		{"__hx", h.X},
		{"__hy", h.Y},
		{"__steps", in.Lookahead},
		{"__tier", in.Tier.String()},
	}
	for _, v := range vars {
		if err := s.compiled.Set(v.name, v.value); err != nil {
			return in.Target, err
		}
	}
	if err := s.compiled.Run(); err != nil {
		return in.Target, fmt.Errorf("pursuit: script %s: %w", s.name, err)
	}

	out := s.compiled.Get("__result").Array()
	if len(out) != 2 {
		return in.Target, fmt.Errorf("pursuit: script %s: target must return [x, y]", s.name)
	}
	x, okX := anyAsInt(out[0])
	y, okY := anyAsInt(out[1])
	if !okX || !okY {
		return in.Target, fmt.Errorf("pursuit: script %s: non-integer cell %v", s.name, out)
	}
	return grid.Cell{X: x, Y: y}, nil
}

func buildTargetEngine(g *grid.Grid) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"width":  &tengo.Int{Value: int64(g.Width())},
		"height": &tengo.Int{Value: int64(g.Height())},
	}
	values["is_walkable"] = &tengo.UserFunction{Name: "is_walkable", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, okX := tengo.ToInt(args[0])
		y, okY := tengo.ToInt(args[1])
		if !okX || !okY {
			return tengo.FalseValue, nil
		}
		if g.IsWalkable(grid.Cell{X: x, Y: y}) {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}
	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		logf("ai: script: %s", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}
	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(o tengo.Object) string {
	if s, ok := tengo.ToString(o); ok {
		return s
	}
	return o.String()
}

func anyAsInt(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	}
	return 0, false
}
