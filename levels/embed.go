package levels

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/milk9111/starmaze/grid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed *.json
var LevelsFS embed.FS

const schemaFile = "level.schema.json"

// Level is a hand-made maze with fixed placements. Cells are [x, y].
type Level struct {
	Name             string   `json:"name"`
	Rows             []string `json:"rows"`
	Player           [2]int   `json:"player"`
	Pursuer          *[2]int  `json:"pursuer,omitempty"`
	Stars            [][2]int `json:"stars,omitempty"`
	TimeLimitSeconds int      `json:"time_limit_seconds,omitempty"`

	grid *grid.Grid
}

func (l *Level) Grid() *grid.Grid { return l.grid }

func (l *Level) PlayerCell() grid.Cell { return toCell(l.Player) }

func (l *Level) PursuerCell() (grid.Cell, bool) {
	if l.Pursuer == nil {
		return grid.Cell{}, false
	}
	return toCell(*l.Pursuer), true
}

func (l *Level) StarCells() []grid.Cell {
	out := make([]grid.Cell, 0, len(l.Stars))
	for _, s := range l.Stars {
		out = append(out, toCell(s))
	}
	return out
}

func toCell(v [2]int) grid.Cell { return grid.Cell{X: v[0], Y: v[1]} }

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func levelSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := LevelsFS.ReadFile(schemaFile)
		if err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = jsonschema.CompileString(schemaFile, string(data))
	})
	return schema, schemaErr
}

// Load reads a level by name, from a file path on disk if one exists,
// otherwise from the embedded set.
func Load(name string) (*Level, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	data, err := os.ReadFile(name)
	if err != nil {
		data, err = fs.ReadFile(LevelsFS, filepath.Base(name))
	}
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return Parse(data)
}

// Parse validates raw level JSON against the schema and checks that every
// placement sits on an open cell.
func Parse(data []byte) (*Level, error) {
	s, err := levelSchema()
	if err != nil {
		return nil, fmt.Errorf("level schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid level: %w", err)
	}

	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	g, err := grid.FromRows(lvl.Rows)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", lvl.Name, err)
	}
	lvl.grid = g

	check := func(what string, c grid.Cell) error {
		if !g.IsWalkable(c) {
			return fmt.Errorf("level %s: %s at %s is not an open cell", lvl.Name, what, c)
		}
		return nil
	}
	if err := check("player", lvl.PlayerCell()); err != nil {
		return nil, err
	}
	if c, ok := lvl.PursuerCell(); ok {
		if err := check("pursuer", c); err != nil {
			return nil, err
		}
	}
	for _, c := range lvl.StarCells() {
		if err := check("star", c); err != nil {
			return nil, err
		}
	}
	return &lvl, nil
}

// List returns the embedded level names without extension.
func List() []string {
	entries, err := fs.ReadDir(LevelsFS, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if n == schemaFile || !strings.HasSuffix(n, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(n, ".json"))
	}
	sort.Strings(names)
	return names
}
