package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/milk9111/starmaze/ecs/entity"
	"github.com/milk9111/starmaze/ledger"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/prefabs"
	"github.com/milk9111/starmaze/pursuit"
	"github.com/milk9111/starmaze/trace"
)

type benchConfig struct {
	Runs     int
	Seed     int64
	Level    *levels.Level
	Spec     prefabs.GameSpec
	Pursuers []string
	MaxTicks int
	TraceDir string
}

func main() {
	runs := flag.Int("runs", 20, "runs per pursuer behavior")
	seed := flag.Int64("seed", 1, "first seed, incremented per run")
	levelName := flag.String("level", "", "level name in levels/; empty generates mazes")
	gameSpec := flag.String("game", "game.yaml", "game settings prefab")
	pursuers := flag.String("pursuers", "pursuit.yaml,pursuit_ambush.yaml", "comma separated pursuer prefabs to compare")
	dbPath := flag.String("db", "data/bench.sqlite", "sqlite ledger path")
	traceDir := flag.String("trace", "", "write one zstd JSONL trace per run into this directory")
	maxTicks := flag.Int("max-ticks", 100000, "stop a run after this many ticks")
	recent := flag.Int("recent", 0, "print the last N ledger rows and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l, err := ledger.Open(*dbPath)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}
	defer l.Close()

	if *recent > 0 {
		if err := printRecent(ctx, l, *recent); err != nil {
			log.Fatal(err)
		}
		return
	}

	spec, err := prefabs.LoadGameSpec(*gameSpec)
	if err != nil {
		log.Fatal(err)
	}
	cfg := benchConfig{
		Runs:     *runs,
		Seed:     *seed,
		Spec:     spec,
		MaxTicks: *maxTicks,
		TraceDir: *traceDir,
	}
	for _, p := range strings.Split(*pursuers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Pursuers = append(cfg.Pursuers, p)
		}
	}
	if *levelName != "" {
		if cfg.Level, err = levels.Load(*levelName); err != nil {
			log.Fatal(err)
		}
	}

	if err := bench(ctx, l, cfg); err != nil {
		log.Fatal(err)
	}
	if err := printTotals(ctx, l); err != nil {
		log.Fatal(err)
	}
}

func bench(ctx context.Context, l *ledger.Ledger, cfg benchConfig) error {
	for _, name := range cfg.Pursuers {
		def, err := pursuit.LoadBehavior(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for i := 0; i < cfg.Runs; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := cfg.Seed + int64(i)
			sum, err := playOnce(cfg, def, seed)
			if err != nil {
				return fmt.Errorf("%s seed %d: %w", name, seed, err)
			}
			if _, err := l.Record(ctx, sum); err != nil {
				return err
			}
			log.Printf("game: %s seed %d: %s (%s) after %d ticks, stars %d/%d, replans %d",
				def.Name, seed, sum.Outcome, sum.Reason, sum.Ticks, sum.Stars, sum.StarsTotal, sum.Replans)
		}
	}
	return nil
}

// playOnce runs one headless game with the bot as the player.
func playOnce(cfg benchConfig, def *pursuit.BehaviorDef, seed int64) (ledger.RunSummary, error) {
	opts := entity.Options{Spec: cfg.Spec, Seed: seed, Level: cfg.Level, Behavior: def}

	var tw *trace.Writer
	if cfg.TraceDir != "" {
		var err error
		tw, err = trace.Create(filepath.Join(cfg.TraceDir, fmt.Sprintf("%s-%d.jsonl.zst", def.Name, seed)))
		if err != nil {
			return ledger.RunSummary{}, err
		}
		defer tw.Close()
		opts.Session = append(opts.Session, pursuit.WithObserver(tw.Observer()))
	}

	r, err := entity.NewRun(opts)
	if err != nil {
		return ledger.RunSummary{}, err
	}

	var b bot
	for i := 0; i < cfg.MaxTicks; i++ {
		gs := r.State()
		if gs == nil || gs.Over() {
			break
		}
		dir := b.next(r)
		r.Step(dir)
		b.advance(r.PlayerPosition().Cell)
	}

	levelName := "generated"
	if cfg.Level != nil {
		levelName = cfg.Level.Name
	}
	gs := r.State()
	st := r.Session().Stats()
	sum := ledger.RunSummary{
		Seed:        r.Seed,
		Level:       levelName,
		Behavior:    def.Name,
		Ticks:       gs.Tick,
		Outcome:     gs.Phase.String(),
		Reason:      gs.Reason,
		Stars:       gs.Collected,
		StarsTotal:  gs.StarsTotal,
		Replans:     st.Replans,
		NoPathTicks: st.NoPathTicks,
		Expanded:    st.Expanded,
		EscalatedAt: st.EscalatedAt,
	}
	if !gs.Over() {
		sum.Reason = "max_ticks"
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func printTotals(ctx context.Context, l *ledger.Ledger) error {
	totals, err := l.Totals(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %5s %5s %9s %9s %10s %6s\n", "behavior", "runs", "wins", "avg_ticks", "avg_repl", "avg_expand", "escal")
	for _, t := range totals {
		fmt.Printf("%-12s %5d %5d %9.1f %9.1f %10.1f %6d\n", t.Behavior, t.Runs, t.Wins, t.AvgTicks, t.AvgReplans, t.AvgExpanded, t.Escalations)
	}
	return nil
}

func printRecent(ctx context.Context, l *ledger.Ledger, n int) error {
	rows, err := l.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("#%d %s seed=%d level=%s %s/%s ticks=%d stars=%d/%d replans=%d no_path=%d escalated_at=%d\n",
			r.ID, r.RecordedAt.Format("2006-01-02 15:04:05"), r.Seed, r.Level, r.Outcome, r.Reason,
			r.Ticks, r.Stars, r.StarsTotal, r.Replans, r.NoPathTicks, r.EscalatedAt)
	}
	return nil
}
