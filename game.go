package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/milk9111/starmaze/ecs"
	"github.com/milk9111/starmaze/ecs/entity"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/prefabs"
	"github.com/milk9111/starmaze/pursuit"
	"github.com/milk9111/starmaze/trace"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	messageTicks = 180
)

type Config struct {
	Level     string
	Seed      int64
	GameSpec  string
	Pursuer   string
	TracePath string
	Watch     bool
	Debug     bool
	Mute      bool
}

type Game struct {
	cfg   Config
	spec  prefabs.GameSpec
	level *levels.Level

	run   *entity.Run
	board board

	input   *Input
	sounds  *Sounds
	overlay *ebitenui.UI
	watcher *prefabs.Watcher
	trace   *trace.Writer

	paused           bool
	restartRequested bool
	debug            bool
	message          string
	messageLeft      int
}

func NewGame(cfg Config) (*Game, error) {
	spec, err := prefabs.LoadGameSpec(cfg.GameSpec)
	if err != nil {
		return nil, err
	}
	if cfg.Pursuer != "" {
		spec.Pursuer = cfg.Pursuer
	}

	g := &Game{
		cfg:    cfg,
		spec:   spec,
		input:  NewInput(),
		sounds: NewSounds(cfg.Mute),
		debug:  cfg.Debug,
	}

	if cfg.Level != "" {
		if g.level, err = levels.Load(cfg.Level); err != nil {
			return nil, err
		}
	}
	if cfg.TracePath != "" {
		if g.trace, err = trace.Create(cfg.TracePath); err != nil {
			return nil, err
		}
	}
	if cfg.Watch {
		w, err := prefabs.NewWatcher(250*time.Millisecond, prefabs.Dir, filepath.Join(prefabs.Dir, "scripts"))
		if err != nil {
			log.Printf("prefabs: hot reload disabled: %v", err)
		} else {
			g.watcher = w
		}
	}

	if err := g.restart(); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func (g *Game) restart() error {
	opts := entity.Options{Spec: g.spec, Seed: g.cfg.Seed, Level: g.level}
	if g.trace != nil {
		opts.Session = append(opts.Session, pursuit.WithObserver(g.trace.Observer()))
	}
	run, err := entity.NewRun(opts)
	if err != nil {
		return err
	}
	g.run = run
	g.board = newBoard(run.Grid)
	g.paused = false
	g.overlay = nil
	g.restartRequested = false
	ebiten.SetWindowTitle(fmt.Sprintf("starmaze - seed %d", run.Seed))
	return nil
}

// Close releases the watcher and flushes the trace.
func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
		g.watcher = nil
	}
	if g.trace != nil {
		if err := g.trace.Close(); err != nil {
			log.Printf("trace: close: %v", err)
		}
		g.trace = nil
	}
}

func (g *Game) setPaused(p bool) {
	g.paused = p
	if p {
		g.overlay = NewOverlayUI(g, "Paused", g.statusLine(), true)
	} else {
		g.overlay = nil
	}
}

func (g *Game) Update() error {
	g.pollReloads()
	g.input.Update()
	if g.messageLeft > 0 {
		g.messageLeft--
	}

	if g.input.DebugPressed {
		g.debug = !g.debug
	}
	if g.input.RestartPressed {
		g.restartRequested = true
	}
	if g.restartRequested {
		if err := g.restart(); err != nil {
			return err
		}
	}

	gs := g.run.State()
	if gs == nil {
		return fmt.Errorf("run has no game state")
	}
	if g.input.PausePressed && !gs.Over() {
		g.setPaused(!g.paused)
	}
	if g.paused || gs.Over() {
		if g.overlay != nil {
			g.overlay.Update()
		}
		return nil
	}

	g.run.Steer(g.input.Dir, g.input.Held)
	if g.input.CloakPressed {
		g.run.Cloak()
	}
	for _, evt := range g.run.Advance() {
		g.handleEvent(evt)
	}
	return nil
}

func (g *Game) handleEvent(evt ecs.Event) {
	gs := g.run.State()
	switch evt.Kind {
	case ecs.EventStarCollected:
		g.sounds.play(g.sounds.star)
	case ecs.EventExitOpened:
		g.sounds.play(g.sounds.exit)
		g.flash("The exit is open!")
	case ecs.EventEscalated:
		g.sounds.play(g.sounds.escalate)
		g.flash("The pursuer grows faster and smarter...")
	case ecs.EventStealthOn:
		g.sounds.play(g.sounds.cloak)
		g.flash(fmt.Sprintf("Cloaked! %d charges left", evt.Data))
	case ecs.EventStealthOff:
		g.flash("Cloak faded")
	case ecs.EventBoxOpened:
		g.sounds.play(g.sounds.escalate)
		g.flash("Mystery box: the pursuer speeds up!")
	case ecs.EventHasteOver:
		g.flash("The pursuer slows down")
	case ecs.EventNoPath:
		if g.debug {
			g.flash("pursuer: no path")
		}
	case ecs.EventCaptured:
		g.sounds.play(g.sounds.captured)
		g.overlay = NewOverlayUI(g, "Caught!", g.statusLine(), false)
	case ecs.EventEscaped:
		g.sounds.play(g.sounds.escaped)
		g.overlay = NewOverlayUI(g, "Escaped!", g.statusLine(), false)
	case ecs.EventTimeUp:
		g.sounds.play(g.sounds.captured)
		g.overlay = NewOverlayUI(g, "Out of time", g.statusLine(), false)
	}
	if gs != nil && gs.Over() && g.overlay == nil {
		g.overlay = NewOverlayUI(g, "Game over", g.statusLine(), false)
	}
}

func (g *Game) flash(msg string) {
	g.message = msg
	g.messageLeft = messageTicks
}

// pollReloads applies any prefab edits the watcher has seen since the last
// frame without blocking.
func (g *Game) pollReloads() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(change)
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("prefabs: watch: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) applyChange(change prefabs.Change) {
	name := filepath.Base(change.Path)
	if change.Kind == prefabs.ChangeSpec && name == filepath.Base(g.cfg.GameSpec) {
		spec, err := prefabs.LoadGameSpec(name)
		if err != nil {
			log.Printf("prefabs: reload %s: %v", name, err)
			return
		}
		if g.cfg.Pursuer != "" {
			spec.Pursuer = g.cfg.Pursuer
		}
		g.spec = spec
		g.flash("game settings reloaded, press R for a new maze")
		return
	}

	// Spec edits only matter for the pursuer in play. Script edits always
	// rebuild it since any of its tiers may run the script.
	pursuer := g.spec.Pursuer
	if pursuer == "" {
		pursuer = "pursuit.yaml"
	}
	if change.Kind == prefabs.ChangeSpec && name != pursuer {
		return
	}
	def, err := pursuit.LoadBehavior(pursuer)
	if err != nil {
		log.Printf("prefabs: reload %s: %v", pursuer, err)
		g.flash("reload failed: " + err.Error())
		return
	}
	if err := g.run.ReloadBehavior(def); err != nil {
		log.Printf("prefabs: reload %s: %v", pursuer, err)
		return
	}
	g.flash("pursuer reloaded from " + name)
}

func (g *Game) statusLine() string {
	gs := g.run.State()
	if gs == nil {
		return ""
	}
	line := fmt.Sprintf("Stars %d/%d", gs.Collected, gs.StarsTotal)
	if rem := gs.Remaining(); rem >= 0 && g.spec.TPS > 0 {
		line += fmt.Sprintf("    Time %ds", (rem+g.spec.TPS-1)/g.spec.TPS)
	}
	line += fmt.Sprintf("    Cloak %d", g.run.Stealth().Charges)
	line += "    Pursuer " + gs.Tier.String()
	if gs.Over() && gs.Reason != "" {
		line += "    (" + gs.Reason + ")"
	}
	return line
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawBoard(screen)

	hud := g.statusLine()
	if g.debug {
		if s := g.run.Session(); s != nil {
			st := s.Stats()
			hud += fmt.Sprintf("    replans %d  expanded %d  no-path %d  FPS %.0f", st.Replans, st.Expanded, st.NoPathTicks, ebiten.ActualFPS())
		}
	}
	if g.messageLeft > 0 {
		hud += "\n" + g.message
	}
	ebitenutil.DebugPrintAt(screen, hud, boardMargin, 8)

	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
