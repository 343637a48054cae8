package sound

import (
	"context"
	"io"
	"log/slog"
	"os"

	"btcbeeper/pkg/tape"
)

// Player makes the per-trade click. Click must never block the caller.
type Player interface {
	Click(side tape.Side)
}

// bell is written once per click.
const bell = "\a"

// Clicker rings the terminal bell for each trade. The configured click
// assets are only checked, playing them is left to an audio backend.
type Clicker struct {
	out    io.Writer
	clicks chan tape.Side
	assets map[tape.Side]string
}

func NewClicker(out io.Writer, buyPath, sellPath string) *Clicker {
	c := &Clicker{
		out:    out,
		clicks: make(chan tape.Side, 64),
		assets: map[tape.Side]string{
			tape.SideBuy:  buyPath,
			tape.SideSell: sellPath,
		},
	}

	for side, path := range c.assets {
		if _, err := os.Stat(path); err != nil {
			slog.Warn("Clicker", "sound file not found", path, "side", side)
		}
	}

	return c
}

// Asset is the sound file for side, unknown sides share the buy click.
func (c *Clicker) Asset(side tape.Side) string {
	if side == tape.SideSell {
		return c.assets[tape.SideSell]
	}
	return c.assets[tape.SideBuy]
}

// Click queues a click, dropping it when the queue is full.
func (c *Clicker) Click(side tape.Side) {
	select {
	case c.clicks <- side:
	default:
	}
}

// Run drains queued clicks until ctx is done.
func (c *Clicker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case side := <-c.clicks:
			slog.Debug("Clicker", "side", side, "asset", c.Asset(side))
			if _, err := io.WriteString(c.out, bell); err != nil {
				slog.Debug("Clicker", "write", err)
			}
		}
	}
}
