package main

import (
	"encoding/binary"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const sampleRate = 44100

// Sounds holds the short synthesized cues the client plays on game events.
type Sounds struct {
	ctx *audio.Context

	star     *audio.Player
	escalate *audio.Player
	exit     *audio.Player
	captured *audio.Player
	escaped  *audio.Player
	cloak    *audio.Player
	muted    bool
}

func NewSounds(muted bool) *Sounds {
	ctx := audio.NewContext(sampleRate)
	return &Sounds{
		ctx:      ctx,
		star:     ctx.NewPlayerFromBytes(tone(880, 0.08)),
		escalate: ctx.NewPlayerFromBytes(sweep(220, 110, 0.6)),
		exit:     ctx.NewPlayerFromBytes(sweep(440, 880, 0.3)),
		captured: ctx.NewPlayerFromBytes(sweep(330, 80, 0.8)),
		escaped:  ctx.NewPlayerFromBytes(sweep(520, 1040, 0.5)),
		cloak:    ctx.NewPlayerFromBytes(sweep(660, 330, 0.2)),
		muted:    muted,
	}
}

func (s *Sounds) play(p *audio.Player) {
	if s == nil || s.muted || p == nil {
		return
	}
	if err := p.Rewind(); err != nil {
		log.Printf("audio: rewind: %v", err)
		return
	}
	p.Play()
}

func tone(freq, seconds float64) []byte {
	return sweep(freq, freq, seconds)
}

// sweep renders a linear frequency glide as 16-bit little-endian stereo PCM,
// the format audio.Context players expect.
func sweep(from, to, seconds float64) []byte {
	n := int(seconds * sampleRate)
	out := make([]byte, n*4)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		freq := from + (to-from)*t
		phase += 2 * math.Pi * freq / sampleRate
		// short fade in and out to avoid clicks
		env := math.Min(1, math.Min(t*20, (1-t)*10))
		v := int16(math.Sin(phase) * env * 0.25 * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(v))
	}
	return out
}
