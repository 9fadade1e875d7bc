package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	debug := flag.Bool("debug", false, "show the pursuer's path and search stats")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	levelName := flag.String("level", "", "level name in levels/ (basename, .json optional); empty generates a maze")
	seed := flag.Int64("seed", 0, "maze and placement seed (0 = game.yaml seed, else random)")
	gameSpec := flag.String("game", "game.yaml", "game settings prefab")
	pursuer := flag.String("pursuer", "", "pursuer behavior prefab, overrides game.yaml")
	tracePath := flag.String("trace", "", "write a zstd JSONL pursuit trace to this file")
	watch := flag.Bool("watch", true, "hot reload prefabs/ edits")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	game, err := NewGame(Config{
		Level:     *levelName,
		Seed:      *seed,
		GameSpec:  *gameSpec,
		Pursuer:   *pursuer,
		TracePath: *tracePath,
		Watch:     *watch,
		Debug:     *debug,
		Mute:      *mute,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	if game.spec.TPS > 0 {
		ebiten.SetTPS(game.spec.TPS)
	}

	if err := ebiten.RunGame(game); err != nil {
		game.Close()
		log.Fatal(err)
	}
}
