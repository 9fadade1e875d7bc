package main

import (
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/starmaze/grid"
)

// Input holds the keyboard and gamepad state for one frame.
type Input struct {
	// Dir is the most recently pressed direction still held, zero for none.
	Dir grid.Cell
	// Held is true while Dir's key is down.
	Held bool
	// PausePressed is true on the frame pause was pressed.
	PausePressed bool
	// RestartPressed is true on the frame restart was pressed.
	RestartPressed bool
	// DebugPressed toggles the path overlay.
	DebugPressed bool
	// CloakPressed spends a stealth charge.
	CloakPressed bool

	last grid.Cell
}

func NewInput() *Input {
	return &Input{}
}

var dirKeys = []struct {
	dir  grid.Cell
	keys []ebiten.Key
}{
	{grid.Up, []ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}},
	{grid.Down, []ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}},
	{grid.Left, []ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}},
	{grid.Right, []ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}},
}

// Update polls the keyboard and the first gamepad.
func (i *Input) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		os.Exit(0)
	}

	var pressed []grid.Cell
	for _, dk := range dirKeys {
		for _, k := range dk.keys {
			if inpututil.IsKeyJustPressed(k) {
				i.last = dk.dir
			}
			if ebiten.IsKeyPressed(k) {
				pressed = append(pressed, dk.dir)
				break
			}
		}
	}

	ids := ebiten.GamepadIDs()
	var gpStart, gpRestart, gpCloak bool
	if len(ids) > 0 {
		gid := ids[0]
		x := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickHorizontal)
		y := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickVertical)
		switch {
		case x < -0.5:
			pressed = append(pressed, grid.Left)
		case x > 0.5:
			pressed = append(pressed, grid.Right)
		case y < -0.5:
			pressed = append(pressed, grid.Up)
		case y > 0.5:
			pressed = append(pressed, grid.Down)
		}
		gpStart = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonCenterRight)
		gpRestart = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonCenterLeft)
		gpCloak = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonRightBottom)
	}

	// Prefer the newest key when several are down so diagonals feel right.
	i.Dir, i.Held = grid.Cell{}, false
	for _, d := range pressed {
		if d == i.last {
			i.Dir, i.Held = d, true
			break
		}
	}
	if !i.Held && len(pressed) > 0 {
		i.Dir, i.Held = pressed[0], true
	}

	i.PausePressed = inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) || gpStart
	i.RestartPressed = inpututil.IsKeyJustPressed(ebiten.KeyR) || gpRestart
	i.DebugPressed = inpututil.IsKeyJustPressed(ebiten.KeyF3)
	i.CloakPressed = inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyShiftLeft) || gpCloak
}
