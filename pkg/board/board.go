package board

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"btcbeeper/pkg/sound"
	"btcbeeper/pkg/tape"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// AnimationDuration is how long a price move stays marked.
	AnimationDuration = 500 * time.Millisecond
	// RefreshInterval is the default redraw period.
	RefreshInterval = 500 * time.Millisecond

	barWidth   = 28
	clearFrame = "\033[H\033[2J"
	// raw terminals do not return the carriage on \n
	lineBreak = "\r\n"
)

var bucketLabels = [tape.BucketCount]string{
	"< 0.0001",
	"0.0001–0.001",
	"0.001–0.01",
	"0.01–0.1",
	"0.1–1.0",
	"≥ 1.0",
}

type AudioSource interface {
	AudioEnabled() bool
}

type Params struct {
	Player sound.Player
	Audio  AudioSource
	// Now defaults to time.Now.
	Now func() time.Time
}

// Board is the plain-text dashboard. It listens to the processor for
// transient state (price moves, status, clicks) and renders snapshots.
type Board struct {
	p       Params
	printer *message.Printer

	mu       sync.Mutex
	status   string
	dir      tape.Direction
	dirUntil time.Time
	banner   *tape.BotAlert
	// rows is the last rendered trade table, newest first
	rows     []tape.Trade
	selected *tape.Trade
}

func New(p Params) *Board {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Board{
		p:       p,
		printer: message.NewPrinter(language.English),
	}
}

func (b *Board) OnTrade(t tape.Trade) {
	if b.p.Player == nil || b.p.Audio == nil || !b.p.Audio.AudioEnabled() {
		return
	}
	b.p.Player.Click(t.Side)
}

func (b *Board) OnDirection(d tape.Direction) {
	b.mu.Lock()
	b.dir = d
	b.dirUntil = b.p.Now().Add(AnimationDuration)
	b.mu.Unlock()
}

func (b *Board) OnStatus(msg string) {
	b.mu.Lock()
	b.status = msg
	b.mu.Unlock()
}

func (b *Board) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Select toggles the detail view for table row n of the last render.
// Selecting the expanded row again closes it.
func (b *Board) Select(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n < 0 || n >= len(b.rows) {
		return
	}
	t := b.rows[n]
	if b.selected != nil && *b.selected == t {
		b.selected = nil
		return
	}
	b.selected = &t
}

func (b *Board) Deselect() {
	b.mu.Lock()
	b.selected = nil
	b.mu.Unlock()
}

// Draw clears the terminal and writes the rendered snapshot.
func (b *Board) Draw(w io.Writer, snap tape.Snapshot) error {
	frame := clearFrame + strings.Join(b.Render(snap), lineBreak) + lineBreak
	_, err := io.WriteString(w, frame)
	return err
}

// Render formats snap as dashboard lines. A bot alert keeps showing until
// its Until even when later snapshots no longer detect it.
func (b *Board) Render(snap tape.Snapshot) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := snap.Taken
	lines := make([]string, 0, 40)

	lines = append(lines, b.priceLine(snap, now), "")
	lines = append(lines, b.statsLines(snap, now)...)
	if b.status != "" {
		lines = append(lines, b.status)
	}

	lines = append(lines, "", fmt.Sprintf("%-2s %-8s %-14s %s", "#", "Side", "Price", "Size (BTC)"))
	b.rows = b.rows[:0]
	for i := len(snap.Recent) - 1; i >= 0; i-- {
		t := snap.Recent[i]
		lines = append(lines, fmt.Sprintf("%-2d %-8s %-14s %.6f", len(b.rows), capitalize(string(t.Side)), fmt.Sprintf("$%.2f", t.Price), t.Size))
		if b.selected != nil && *b.selected == t {
			lines = append(lines, detailLines(t)...)
		}
		b.rows = append(b.rows, t)
	}

	lines = append(lines, "")
	lines = append(lines, heatmapLines(snap.Histogram)...)

	if snap.Bot != nil {
		b.banner = snap.Bot
	}
	if b.banner.Active(now) {
		lines = append(lines, "", b.printer.Sprintf("Possible bot: %d+ trades of %s BTC @ $%.2f",
			b.banner.Count, strconv.FormatFloat(b.banner.Size, 'f', -1, 64), b.banner.Price))
	} else {
		b.banner = nil
	}

	return lines
}

func (b *Board) priceLine(snap tape.Snapshot, now time.Time) string {
	line := b.printer.Sprintf("BTC/USD  $%.2f", snap.LastPrice)
	if now.Before(b.dirUntil) {
		switch b.dir {
		case tape.DirectionUp:
			line += " ▲"
		case tape.DirectionDown:
			line += " ▼"
		}
	}
	if snap.HasChange24h {
		line += fmt.Sprintf("  (24h %+.2f%%)", snap.Change24h)
	}
	return line
}

func (b *Board) statsLines(snap tape.Snapshot, now time.Time) []string {
	low := "Session Low:      N/A"
	if v, ok := snap.Low(); ok {
		low = b.printer.Sprintf("Session Low:      $%.2f", v)
	}

	audio := "OFF"
	if snap.AudioEnabled {
		audio = "ON"
	}

	lines := []string{
		"Uptime:           " + uptime(now.Sub(snap.SessionStart)),
		b.printer.Sprintf("Session High:     $%.2f", snap.SessionHigh),
		low,
		fmt.Sprintf("Total Trades: %d", snap.TotalTrades),
		b.printer.Sprintf("Volume Today: %.6f BTC ($%.2f USD)", snap.SessionVolume, snap.VolumeUSD),
		fmt.Sprintf("Trades/sec (TPS): %.2f", snap.TPS),
		fmt.Sprintf("Highest TPS: %.2f", snap.HighestTPS),
		fmt.Sprintf("Avg Trade Size: %.6f BTC", snap.AvgTradeSize),
		fmt.Sprintf("Min Trade Size: %s BTC (press '[' or ']' to adjust)", strconv.FormatFloat(snap.MinSize, 'f', -1, 64)),
	}
	if lt := snap.LargestTrade; lt != nil {
		lines = append(lines, fmt.Sprintf("Largest Trade: %s %.6f BTC @ $%.2f", capitalize(string(lt.Side)), lt.Size, lt.Price))
	}
	lines = append(lines,
		fmt.Sprintf("Audio: %s (press 'a' to toggle)", audio),
		"Details: press a row number, again or Esc to close",
		fmt.Sprintf("Errors:           %d parse, %d invalid", snap.ParseErrors, snap.InvalidTrades),
	)
	return lines
}

func detailLines(t tape.Trade) []string {
	return []string{
		"     Trade ID:  " + orNA(t.TradeID),
		"     Time:      " + orNA(t.Time),
		"     Maker ID:  " + orNA(t.MakerOrderID),
		"     Taker ID:  " + orNA(t.TakerOrderID),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func heatmapLines(counts [tape.BucketCount]int) []string {
	peak := 1
	for _, n := range counts {
		peak = max(peak, n)
	}

	lines := make([]string, 0, len(counts))
	for i, n := range counts {
		line := fmt.Sprintf("%14s  %4d", bucketLabels[i], n)
		if n > 0 {
			line += "  " + strings.Repeat("█", n*barWidth/peak)
		}
		lines = append(lines, line)
	}
	return lines
}

func uptime(d time.Duration) string {
	secs := max(int(d.Seconds()), 0)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
