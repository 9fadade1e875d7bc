package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/entity"
	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/prefabs"
	"github.com/milk9111/starmaze/pursuit"
)

const sampleRate = beep.SampleRate(44100)

type termGame struct {
	screen tcell.Screen
	run    *entity.Run
	spec   prefabs.GameSpec
	level  *levels.Level
	seed   int64

	pending   grid.Cell
	message   string
	audioInit bool
}

func newTermGame(spec prefabs.GameSpec, level *levels.Level, seed int64) (*termGame, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	g := &termGame{screen: screen, spec: spec, level: level, seed: seed}
	if err := g.restart(); err != nil {
		screen.Fini()
		return nil, err
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		// Non-fatal, the game runs silently
		log.Printf("audio: init failed: %v", err)
	} else {
		g.audioInit = true
	}
	return g, nil
}

func (g *termGame) restart() error {
	run, err := entity.NewRun(entity.Options{Spec: g.spec, Seed: g.seed, Level: g.level})
	if err != nil {
		return err
	}
	g.run = run
	g.pending = grid.Cell{}
	g.message = fmt.Sprintf("seed %d", run.Seed)
	return nil
}

func (g *termGame) beepTone(freq float64, d time.Duration) {
	if !g.audioInit {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

var keyDirs = map[tcell.Key]grid.Cell{
	tcell.KeyUp:    grid.Up,
	tcell.KeyDown:  grid.Down,
	tcell.KeyLeft:  grid.Left,
	tcell.KeyRight: grid.Right,
}

var runeDirs = map[rune]grid.Cell{
	'w': grid.Up, 'k': grid.Up,
	's': grid.Down, 'j': grid.Down,
	'a': grid.Left, 'h': grid.Left,
	'd': grid.Right, 'l': grid.Right,
}

// handleInput returns false when the player quits.
func (g *termGame) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if d, ok := keyDirs[ev.Key()]; ok {
			g.pending = d
			return true
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch r := ev.Rune(); r {
		case 'q':
			return false
		case 'r':
			if err := g.restart(); err != nil {
				g.message = err.Error()
			}
		case ' ':
			g.run.Cloak()
		default:
			if d, ok := runeDirs[r]; ok {
				g.pending = d
			}
		}
	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

// tick buffers the last pressed direction until the player actually steps,
// since a terminal never reports key releases.
func (g *termGame) tick() {
	if gs := g.run.State(); gs == nil || gs.Over() {
		return
	}
	before := g.run.PlayerPosition().Cell
	g.run.Steer(g.pending, g.pending != (grid.Cell{}))
	for _, evt := range g.run.Advance() {
		switch evt.Kind {
		case ecs.EventStarCollected:
			g.beepTone(880, 60*time.Millisecond)
		case ecs.EventExitOpened:
			g.message = "the exit is open"
			g.beepTone(660, 200*time.Millisecond)
		case ecs.EventEscalated:
			g.message = "the pursuer escalates"
			g.beepTone(220, 400*time.Millisecond)
		case ecs.EventCaptured:
			g.message = "caught! press r for a new maze"
			g.beepTone(110, 600*time.Millisecond)
		case ecs.EventEscaped:
			g.message = "escaped! press r for a new maze"
			g.beepTone(1040, 300*time.Millisecond)
		case ecs.EventTimeUp:
			g.message = "out of time, press r for a new maze"
		case ecs.EventStealthOn:
			g.message = fmt.Sprintf("cloaked, %d charges left", evt.Data)
			g.beepTone(660, 80*time.Millisecond)
		case ecs.EventStealthOff:
			g.message = "cloak faded"
		case ecs.EventBoxOpened:
			g.message = "mystery box: the pursuer speeds up"
			g.beepTone(330, 200*time.Millisecond)
		case ecs.EventHasteOver:
			g.message = "the pursuer slows down"
		}
	}
	if g.run.PlayerPosition().Cell != before {
		g.pending = grid.Cell{}
	}
}

func (g *termGame) put(x, y int, r rune, style tcell.Style) {
	g.screen.SetContent(x*2, y+1, r, nil, style)
	g.screen.SetContent(x*2+1, y+1, ' ', nil, style)
}

func (g *termGame) draw() {
	g.screen.Clear()
	wall := tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	floor := tcell.StyleDefault

	gr := g.run.Grid
	for y := 0; y < gr.Height(); y++ {
		for x := 0; x < gr.Width(); x++ {
			style := floor
			if !gr.IsWalkable(grid.Cell{X: x, Y: y}) {
				style = wall
			}
			g.put(x, y, ' ', style)
		}
	}
	for _, c := range g.run.Stars() {
		g.put(c.X, c.Y, '*', floor.Foreground(tcell.ColorGold).Bold(true))
	}
	for _, c := range g.run.EventBoxes() {
		g.put(c.X, c.Y, '?', floor.Foreground(tcell.ColorPurple).Bold(true))
	}
	if c, ok := g.run.Exit(); ok {
		g.put(c.X, c.Y, '#', floor.Foreground(tcell.ColorLimeGreen).Bold(true))
	}
	p := g.run.PlayerPosition().Cell
	if st := g.run.Stealth(); st.Active() {
		g.put(p.X, p.Y, '@', floor.Foreground(tcell.ColorDeepSkyBlue).Dim(true))
	} else {
		g.put(p.X, p.Y, '@', floor.Foreground(tcell.ColorDeepSkyBlue).Bold(true))
	}

	if s := g.run.Session(); s != nil {
		color := tcell.ColorRed
		if s.Tier() == pursuit.TierAdvanced {
			color = tcell.ColorOrangeRed
		}
		if gs := g.run.State(); gs != nil && gs.HasteLeft > 0 {
			color = tcell.ColorFuchsia
		}
		e := g.run.PursuerPosition().Cell
		g.put(e.X, e.Y, 'M', floor.Foreground(color).Bold(true))
	}

	status := ""
	if gs := g.run.State(); gs != nil {
		status = fmt.Sprintf("stars %d/%d  cloak %d  pursuer %s", gs.Collected, gs.StarsTotal, g.run.Stealth().Charges, gs.Tier)
		if rem := gs.Remaining(); rem >= 0 && g.spec.TPS > 0 {
			status += fmt.Sprintf("  time %ds", rem/g.spec.TPS)
		}
		status += "  " + g.message
	}
	for i, r := range status {
		g.screen.SetContent(i, 0, r, nil, tcell.StyleDefault.Reverse(true))
	}
	g.screen.Show()
}

func (g *termGame) loop() {
	tps := g.spec.TPS
	if tps <= 0 {
		tps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}
		case <-ticker.C:
			g.tick()
			g.draw()
		}
	}
}

func (g *termGame) cleanup() {
	if g.audioInit {
		speaker.Close()
	}
	g.screen.Fini()
}

func main() {
	levelName := flag.String("level", "", "level name in levels/; empty generates a maze")
	seed := flag.Int64("seed", 0, "maze and placement seed")
	gameSpec := flag.String("game", "game.yaml", "game settings prefab")
	pursuer := flag.String("pursuer", "", "pursuer behavior prefab")
	logPath := flag.String("log", "", "write diagnostics to this file (the screen is taken)")
	flag.Parse()

	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "starmaze-term: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	spec, err := prefabs.LoadGameSpec(*gameSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "starmaze-term: %v\n", err)
		os.Exit(1)
	}
	if *pursuer != "" {
		spec.Pursuer = *pursuer
	}
	var level *levels.Level
	if *levelName != "" {
		if level, err = levels.Load(*levelName); err != nil {
			fmt.Fprintf(os.Stderr, "starmaze-term: %v\n", err)
			os.Exit(1)
		}
	}

	game, err := newTermGame(spec, level, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer game.cleanup()

	game.loop()
}
