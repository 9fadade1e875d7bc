package pursuit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/starmaze/prefabs"
)

// Tier is the pursuer's difficulty level. Tiers only ever go up.
type Tier int

const (
	TierBasic Tier = iota
	TierAdvanced
)

var tierNames = map[string]Tier{
	"basic":    TierBasic,
	"advanced": TierAdvanced,
}

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierAdvanced:
		return "advanced"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func ParseTier(s string) (Tier, bool) {
	t, ok := tierNames[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

type TargetingMode string

const (
	TargetDirect     TargetingMode = "direct"
	TargetPredictive TargetingMode = "predictive"
	TargetScript     TargetingMode = "script"
)

// Params are the knobs a tier sets when it is entered. Values not touched by
// a tier's actions carry over from the previous tier.
type Params struct {
	MoveInterval    int // ticks per step, 1 = every tick
	ReplanTolerance int // cells the goal may drift before the path is recomputed
	Targeting       TargetingMode
	Lookahead       int
	Script          string
	// Wander sends the pursuer roaming once it reaches the last place it saw
	// a hidden target. Without it the pursuer holds there.
	Wander bool
}

func defaultParams() Params {
	return Params{
		MoveInterval:    1,
		ReplanTolerance: 1,
		Targeting:       TargetDirect,
	}
}

type BehaviorContext struct {
	Name     string
	Progress int
	Params   *Params
}

type Action func(ctx *BehaviorContext)

type Condition func(ctx *BehaviorContext) bool

type StateDef struct {
	OnEnter []Action
	OnExit  []Action
}

type Guard struct {
	From  Tier
	To    Tier
	Check Condition
}

// BehaviorDef is a compiled tier machine. It is immutable and may back any
// number of Behaviors.
type BehaviorDef struct {
	Name    string
	Initial Tier
	States  map[Tier]StateDef
	Guards  []Guard
	Scripts []string
}

var actionRegistry = map[string]func(arg any) (Action, error){
	"move_interval": func(arg any) (Action, error) {
		n, ok := asInt(arg)
		if !ok || n < 1 {
			return nil, fmt.Errorf("move_interval must be a positive integer, got %v", arg)
		}
		return func(ctx *BehaviorContext) { ctx.Params.MoveInterval = n }, nil
	},
	"replan_tolerance": func(arg any) (Action, error) {
		n, ok := asInt(arg)
		if !ok || n < 1 {
			return nil, fmt.Errorf("replan_tolerance must be a positive integer, got %v", arg)
		}
		return func(ctx *BehaviorContext) { ctx.Params.ReplanTolerance = n }, nil
	},
	"lookahead": func(arg any) (Action, error) {
		n, ok := asInt(arg)
		if !ok || n < 0 {
			return nil, fmt.Errorf("lookahead must be a non-negative integer, got %v", arg)
		}
		return func(ctx *BehaviorContext) { ctx.Params.Lookahead = n }, nil
	},
	"targeting": func(arg any) (Action, error) {
		mode := TargetingMode(strings.TrimSpace(fmt.Sprint(arg)))
		if mode != TargetDirect && mode != TargetPredictive {
			return nil, fmt.Errorf("targeting must be %q or %q, got %v", TargetDirect, TargetPredictive, arg)
		}
		return func(ctx *BehaviorContext) {
			ctx.Params.Targeting = mode
			ctx.Params.Script = ""
		}, nil
	},
	"script": func(arg any) (Action, error) {
		name, ok := arg.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("script must name a tengo file, got %v", arg)
		}
		return func(ctx *BehaviorContext) {
			ctx.Params.Targeting = TargetScript
			ctx.Params.Script = name
		}, nil
	},
	"wander": func(arg any) (Action, error) {
		on, ok := arg.(bool)
		if !ok {
			return nil, fmt.Errorf("wander must be true or false, got %v", arg)
		}
		return func(ctx *BehaviorContext) { ctx.Params.Wander = on }, nil
	},
	"log": func(arg any) (Action, error) {
		msg := fmt.Sprint(arg)
		return func(ctx *BehaviorContext) {
			logf("ai: %s: %s (stars=%d)", ctx.Name, msg, ctx.Progress)
		}, nil
	},
}

var conditionRegistry = map[string]func(arg any) (Condition, error){
	"always": func(arg any) (Condition, error) {
		return func(ctx *BehaviorContext) bool { return true }, nil
	},
	"stars_at_least": func(arg any) (Condition, error) {
		n, ok := asInt(arg)
		if !ok || n < 0 {
			return nil, fmt.Errorf("stars_at_least needs a non-negative integer, got %v", arg)
		}
		return func(ctx *BehaviorContext) bool { return ctx.Progress >= n }, nil
	},
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	}
	return 0, false
}

// CompileBehavior validates a spec and turns it into a BehaviorDef. Only the
// basic and advanced states are known, the machine must start in basic, and
// no transition may leave advanced or lead to a lower tier.
func CompileBehavior(spec prefabs.PursuitSpec) (*BehaviorDef, error) {
	if spec.Initial == "" {
		return nil, fmt.Errorf("fsm: missing initial state")
	}
	initial, ok := ParseTier(spec.Initial)
	if !ok {
		return nil, fmt.Errorf("fsm: unknown initial state %q", spec.Initial)
	}
	if initial != TierBasic {
		return nil, fmt.Errorf("fsm: initial state must be %s, got %s", TierBasic, initial)
	}

	def := &BehaviorDef{
		Name:    spec.Name,
		Initial: initial,
		States:  map[Tier]StateDef{},
	}
	if def.Name == "" {
		def.Name = "pursuer"
	}

	scripts := map[string]bool{}
	build := func(state string, list []map[string]any) ([]Action, error) {
		if len(list) == 0 {
			return nil, nil
		}
		out := make([]Action, 0, len(list))
		for _, entry := range list {
			for _, k := range sortedKeys(entry) {
				makeAction, ok := actionRegistry[k]
				if !ok {
					return nil, fmt.Errorf("fsm: unknown action %q in state %s", k, state)
				}
				a, err := makeAction(entry[k])
				if err != nil {
					return nil, fmt.Errorf("fsm: state %s: %w", state, err)
				}
				if k == "script" {
					scripts[entry[k].(string)] = true
				}
				out = append(out, a)
			}
		}
		return out, nil
	}

	for name, s := range spec.States {
		tier, ok := ParseTier(name)
		if !ok {
			return nil, fmt.Errorf("fsm: unknown state %q", name)
		}
		onEnter, err := build(name, s.OnEnter)
		if err != nil {
			return nil, err
		}
		onExit, err := build(name, s.OnExit)
		if err != nil {
			return nil, err
		}
		def.States[tier] = StateDef{OnEnter: onEnter, OnExit: onExit}
	}
	if _, ok := def.States[initial]; !ok {
		def.States[initial] = StateDef{}
	}

	for _, from := range sortedKeys(spec.Transitions) {
		fromTier, ok := ParseTier(from)
		if !ok {
			return nil, fmt.Errorf("fsm: transitions from unknown state %q", from)
		}
		if fromTier == TierAdvanced {
			return nil, fmt.Errorf("fsm: %s is permanent and cannot have transitions", TierAdvanced)
		}
		for i, entry := range spec.Transitions[from] {
			for _, key := range sortedKeys(entry) {
				makeCond, ok := conditionRegistry[key]
				if !ok {
					return nil, fmt.Errorf("fsm: unknown condition %q in %s[%d]", key, from, i)
				}
				var to string
				var arg any
				switch v := entry[key].(type) {
				case string:
					to = v
				case map[string]any:
					to, _ = v["to"].(string)
					arg = v["arg"]
				}
				if to == "" {
					return nil, fmt.Errorf("fsm: missing to state for transition %s.%s", from, key)
				}
				toTier, ok := ParseTier(to)
				if !ok {
					return nil, fmt.Errorf("fsm: transition %s.%s targets unknown state %q", from, key, to)
				}
				if toTier <= fromTier {
					return nil, fmt.Errorf("fsm: transition %s -> %s would not raise the tier", fromTier, toTier)
				}
				if _, ok := def.States[toTier]; !ok {
					def.States[toTier] = StateDef{}
				}
				check, err := makeCond(arg)
				if err != nil {
					return nil, fmt.Errorf("fsm: %s.%s: %w", from, key, err)
				}
				def.Guards = append(def.Guards, Guard{From: fromTier, To: toTier, Check: check})
			}
		}
	}

	for name := range scripts {
		def.Scripts = append(def.Scripts, name)
	}
	sort.Strings(def.Scripts)
	return def, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultBehaviorSpec mirrors prefabs/pursuit.yaml.
func DefaultBehaviorSpec() prefabs.PursuitSpec {
	return prefabs.PursuitSpec{
		Name:    "pursuer",
		Initial: "basic",
		States: map[string]prefabs.PursuitStateSpec{
			"basic": {
				OnEnter: []map[string]any{
					{"move_interval": 18},
					{"replan_tolerance": 2},
					{"targeting": "direct"},
				},
			},
			"advanced": {
				OnEnter: []map[string]any{
					{"move_interval": 12},
					{"replan_tolerance": 1},
					{"targeting": "predictive"},
					{"lookahead": 3},
					{"wander": true},
				},
			},
		},
		Transitions: map[string][]map[string]any{
			"basic": {
				{"stars_at_least": map[string]any{"to": "advanced", "arg": 3}},
			},
		},
	}
}

func DefaultBehavior() *BehaviorDef {
	def, err := CompileBehavior(DefaultBehaviorSpec())
	if err != nil {
		panic("pursuit: default behavior: " + err.Error())
	}
	return def
}

func LoadBehavior(name string) (*BehaviorDef, error) {
	spec, err := prefabs.LoadPursuitSpec(name)
	if err != nil {
		return nil, err
	}
	return CompileBehavior(spec)
}

// Behavior is the runtime tier state of one pursuer.
type Behavior struct {
	def      *BehaviorDef
	tier     Tier
	progress int
	params   Params
}

func NewBehavior(def *BehaviorDef) *Behavior {
	if def == nil {
		def = DefaultBehavior()
	}
	b := &Behavior{
		def:    def,
		tier:   def.Initial,
		params: defaultParams(),
	}
	b.apply(def.States[b.tier].OnEnter)
	return b
}

// Update records the progress signal and fires any transitions it unlocks.
// A lower signal than previously seen is ignored. Reports whether the tier
// changed.
func (b *Behavior) Update(progress int) bool {
	if progress > b.progress {
		b.progress = progress
	}
	changed := false
	for {
		next, ok := b.nextTier()
		if !ok {
			return changed
		}
		b.apply(b.def.States[b.tier].OnExit)
		b.tier = next
		b.apply(b.def.States[b.tier].OnEnter)
		changed = true
	}
}

func (b *Behavior) nextTier() (Tier, bool) {
	ctx := b.context()
	for _, g := range b.def.Guards {
		if g.From != b.tier || g.Check == nil {
			continue
		}
		if g.Check(ctx) {
			return g.To, true
		}
	}
	return b.tier, false
}

func (b *Behavior) apply(actions []Action) {
	ctx := b.context()
	for _, a := range actions {
		if a != nil {
			a(ctx)
		}
	}
}

func (b *Behavior) context() *BehaviorContext {
	return &BehaviorContext{Name: b.def.Name, Progress: b.progress, Params: &b.params}
}

func (b *Behavior) Tier() Tier { return b.tier }

func (b *Behavior) Progress() int { return b.progress }

func (b *Behavior) Params() Params { return b.params }

func (b *Behavior) Def() *BehaviorDef { return b.def }
