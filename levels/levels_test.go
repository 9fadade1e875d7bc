package levels

import (
	"strings"
	"testing"

	"github.com/milk9111/starmaze/grid"
)

func TestLoadEmbeddedLevels(t *testing.T) {
	names := List()
	if len(names) != 2 || names[0] != "crossroads" || names[1] != "vault" {
		t.Fatalf("unexpected level list %v", names)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			lvl, err := Load(name)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if lvl.Grid() == nil || lvl.Grid().Width() != len(lvl.Rows[0]) {
				t.Fatalf("grid not built from rows")
			}
			if len(lvl.StarCells()) != 5 {
				t.Fatalf("expected 5 stars, got %d", len(lvl.StarCells()))
			}
			for _, s := range lvl.StarCells() {
				if _, err := grid.FindPath(lvl.Grid(), lvl.PlayerCell(), s); err != nil {
					t.Fatalf("star %s unreachable: %v", s, err)
				}
			}
		})
	}
}

func TestVaultHasSealedCenter(t *testing.T) {
	lvl, err := Load("vault.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	center := grid.Cell{X: 5, Y: 5}
	if !lvl.Grid().IsWalkable(center) {
		t.Fatalf("center should be open")
	}
	if _, err := grid.FindPath(lvl.Grid(), lvl.PlayerCell(), center); err == nil {
		t.Fatalf("center should be unreachable")
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		json string
		want string
	}{
		{"not json", `{`, "unmarshal level"},
		{"missing rows", `{"name":"x","player":[0,0]}`, "invalid level"},
		{"bad row glyph", `{"name":"x","rows":["..x"],"player":[0,0]}`, "invalid level"},
		{"unknown field", `{"name":"x","rows":["..."],"player":[0,0],"boss":[1,0]}`, "invalid level"},
		{"short cell", `{"name":"x","rows":["..."],"player":[0]}`, "invalid level"},
		{"ragged rows", `{"name":"x","rows":["...",".."],"player":[0,0]}`, "level x"},
		{"player in wall", `{"name":"x","rows":[".#."],"player":[1,0]}`, "player at"},
		{"star off grid", `{"name":"x","rows":["..."],"player":[0,0],"stars":[[5,0]]}`, "star at"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.json))
			if err == nil {
				t.Fatalf("expected error containing %q", c.want)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected %q in error, got %v", c.want, err)
			}
		})
	}
}

func TestParseOptionalPursuer(t *testing.T) {
	lvl, err := Parse([]byte(`{"name":"tiny","rows":["...."],"player":[0,0]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := lvl.PursuerCell(); ok {
		t.Fatalf("expected no pursuer placement")
	}
	if lvl.PlayerCell() != (grid.Cell{}) {
		t.Fatalf("unexpected player cell %s", lvl.PlayerCell())
	}
}
