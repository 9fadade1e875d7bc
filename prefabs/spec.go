package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// PursuitSpec describes a pursuer's tier machine. Each state lists the
// actions run on entry; transitions map a state to guarded moves, e.g.
//
//	transitions:
//	  basic:
//	    - stars_at_least: { to: advanced, arg: 3 }
type PursuitSpec struct {
	Name        string                      `yaml:"name"`
	Initial     string                      `yaml:"initial"`
	States      map[string]PursuitStateSpec `yaml:"states"`
	Transitions map[string][]map[string]any `yaml:"transitions"`
}

type PursuitStateSpec struct {
	OnEnter []map[string]any `yaml:"on_enter"`
	OnExit  []map[string]any `yaml:"on_exit"`
}

func LoadPursuitSpec(filename string) (PursuitSpec, error) {
	return LoadSpec[PursuitSpec](filename)
}

// GameSpec holds the session tuning shared by every frontend.
type GameSpec struct {
	TPS                int      `yaml:"tps"`
	TimeLimitSeconds   int      `yaml:"time_limit_seconds"`
	Stars              int      `yaml:"stars"`
	PlayerMoveInterval int      `yaml:"player_move_interval"`
	Maze               MazeSpec `yaml:"maze"`
	Pursuer            string   `yaml:"pursuer"`

	StarMinDistance    int `yaml:"star_min_distance"`
	PursuerMinDistance int `yaml:"pursuer_min_distance"`
	PursuerMaxDistance int `yaml:"pursuer_max_distance"`
	ExitMinDistance    int `yaml:"exit_min_distance"`

	StealthCharges int `yaml:"stealth_charges"`
	StealthSeconds int `yaml:"stealth_seconds"`
	EventBoxes     int `yaml:"event_boxes"`
	HasteSeconds   int `yaml:"haste_seconds"`
}

type MazeSpec struct {
	Width    int   `yaml:"width"`
	Height   int   `yaml:"height"`
	Openings int   `yaml:"openings"`
	Seed     int64 `yaml:"seed"`
}

// Ticks converts seconds into simulation ticks.
func (s GameSpec) Ticks(seconds int) int {
	if seconds <= 0 || s.TPS <= 0 {
		return 0
	}
	return seconds * s.TPS
}

// TimeLimitTicks converts the time limit into simulation ticks.
func (s GameSpec) TimeLimitTicks() int {
	return s.Ticks(s.TimeLimitSeconds)
}

func LoadGameSpec(filename string) (GameSpec, error) {
	spec, err := LoadSpec[GameSpec](filename)
	if err != nil {
		return spec, err
	}
	if spec.TPS <= 0 {
		spec.TPS = 60
	}
	if spec.Stars <= 0 {
		spec.Stars = 5
	}
	if spec.PlayerMoveInterval <= 0 {
		spec.PlayerMoveInterval = 1
	}
	if spec.Pursuer == "" {
		spec.Pursuer = "pursuit.yaml"
	}
	return spec, nil
}
