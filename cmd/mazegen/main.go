package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.design/x/clipboard"

	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/maze"
)

func main() {
	width := flag.Int("w", 25, "maze width (made odd)")
	height := flag.Int("h", 25, "maze height (made odd)")
	openings := flag.Int("openings", 0, "extra walls to knock out (0 = width*height/20)")
	seed := flag.Int64("seed", 0, "generator seed (0 = random)")
	asJSON := flag.Bool("json", false, "print a level file instead of ASCII rows")
	name := flag.String("name", "generated", "level name for -json")
	copyOut := flag.Bool("copy", false, "also copy the output to the clipboard")
	hold := flag.Duration("hold", 30*time.Second, "with -copy on X11, how long to keep serving the clipboard (0 = until replaced)")
	solve := flag.Bool("solve", false, "mark the shortest path from the start to the far corner")
	flag.Parse()

	res, err := maze.Generate(maze.Config{Width: *width, Height: *height, Openings: *openings, Seed: *seed})
	if err != nil {
		log.Fatal(err)
	}

	var sb strings.Builder
	if *asJSON {
		err = writeLevel(&sb, res, *name)
	} else {
		err = writeASCII(&sb, res, *solve)
	}
	if err != nil {
		log.Fatal(err)
	}
	out := sb.String()
	fmt.Print(out)
	fmt.Fprintf(os.Stderr, "seed %d\n", res.Seed)

	if *copyOut {
		if err := clipboard.Init(); err != nil {
			log.Fatalf("clipboard: %v", err)
		}
		changed := clipboard.Write(clipboard.FmtText, []byte(out))
		awaitClipboard(changed, runtime.GOOS, *hold, os.Stderr)
	}
}

// awaitClipboard keeps the process alive where the clipboard is served by
// its owner, as on X11, until another program replaces the contents or hold
// elapses. Elsewhere the system keeps a copy and it returns at once.
func awaitClipboard(changed <-chan struct{}, goos string, hold time.Duration, note io.Writer) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
	default:
		return
	}
	if hold <= 0 {
		fmt.Fprintln(note, "keeping clipboard until replaced, press Ctrl-C to stop")
		<-changed
		return
	}
	fmt.Fprintf(note, "keeping clipboard until replaced or for %s\n", hold)
	select {
	case <-changed:
	case <-time.After(hold):
	}
}

// writeASCII prints '#' for walls and '.' for floor, with S at the start and
// '+' along the solved path when requested.
func writeASCII(w io.Writer, res maze.Result, solve bool) error {
	rows := res.Grid.Rows()
	marks := map[grid.Cell]byte{res.Start: 'S'}
	if solve {
		goal := farCorner(res.Grid)
		path, err := grid.FindPath(res.Grid, res.Start, goal)
		if err != nil {
			return fmt.Errorf("solve %s -> %s: %w", res.Start, goal, err)
		}
		for _, c := range path {
			marks[c] = '+'
		}
		marks[goal] = 'E'
	}
	for y, row := range rows {
		line := []byte(row)
		for c, m := range marks {
			if c.Y == y {
				line[c.X] = m
			}
		}
		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return err
		}
	}
	return nil
}

// farCorner is the bottom-right cell inside the outer wall, open on every
// generated maze.
func farCorner(g *grid.Grid) grid.Cell {
	return grid.Cell{X: g.Width() - 2, Y: g.Height() - 2}
}

func writeLevel(w io.Writer, res maze.Result, name string) error {
	lvl := levels.Level{
		Name:   name,
		Rows:   res.Grid.Rows(),
		Player: [2]int{res.Start.X, res.Start.Y},
	}
	b, err := json.MarshalIndent(lvl, "", "  ")
	if err != nil {
		return err
	}
	if _, err := levels.Parse(b); err != nil {
		return fmt.Errorf("generated level does not validate: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
