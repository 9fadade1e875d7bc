package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/starmaze/ledger"
	"github.com/milk9111/starmaze/levels"
	"github.com/milk9111/starmaze/prefabs"
	"github.com/milk9111/starmaze/pursuit"
	"github.com/milk9111/starmaze/trace"
)

func sealedVault(t *testing.T) *levels.Level {
	t.Helper()
	base, err := levels.Load("vault")
	if err != nil {
		t.Fatalf("levels.Load: %v", err)
	}
	lvl := *base
	sealed := [2]int{5, 5}
	lvl.Pursuer = &sealed
	return &lvl
}

func TestPlayOnceBotEscapesSealedVault(t *testing.T) {
	spec, err := prefabs.LoadGameSpec("game.yaml")
	if err != nil {
		t.Fatal(err)
	}
	traceDir := t.TempDir()
	cfg := benchConfig{Spec: spec, Level: sealedVault(t), MaxTicks: 20000, TraceDir: traceDir}

	sum, err := playOnce(cfg, pursuit.DefaultBehavior(), 3)
	if err != nil {
		t.Fatalf("playOnce: %v", err)
	}
	if sum.Outcome != "won" || sum.Reason != "escaped" {
		t.Fatalf("expected the bot to escape, got %s/%s", sum.Outcome, sum.Reason)
	}
	if sum.Stars != 5 || sum.StarsTotal != 5 || sum.Level != "vault" {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.EscalatedAt < 0 || sum.NoPathTicks == 0 {
		t.Fatalf("sealed pursuer should escalate and report no path, got %+v", sum)
	}

	path := filepath.Join(traceDir, "pursuer-3.jsonl.zst")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected trace file: %v", err)
	}
	entries := 0
	if err := trace.ReadFile(path, func(trace.Entry) error {
		entries++
		return nil
	}); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if entries != sum.Ticks {
		t.Fatalf("expected one trace entry per tick (%d), got %d", sum.Ticks, entries)
	}
}

func TestBenchRecordsEveryRun(t *testing.T) {
	spec, err := prefabs.LoadGameSpec("game.yaml")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	l, err := ledger.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	cfg := benchConfig{
		Runs:     2,
		Seed:     10,
		Spec:     spec,
		Level:    sealedVault(t),
		Pursuers: []string{"pursuit.yaml", "pursuit_ambush.yaml"},
		MaxTicks: 20000,
	}
	if err := bench(ctx, l, cfg); err != nil {
		t.Fatalf("bench: %v", err)
	}
	totals, err := l.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected totals for two behaviors, got %+v", totals)
	}
	for _, tot := range totals {
		if tot.Runs != 2 || tot.Wins != 2 {
			t.Fatalf("unexpected totals %+v", tot)
		}
	}

	cfg.Pursuers = []string{"missing.yaml"}
	if err := bench(ctx, l, cfg); err == nil {
		t.Fatalf("expected error for a missing pursuer")
	}
}
