package board

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"btcbeeper/pkg/tape"

	"github.com/stretchr/testify/require"
)

type clicks struct {
	sides []tape.Side
}

func (c *clicks) Click(side tape.Side) { c.sides = append(c.sides, side) }

type audio bool

func (a audio) AudioEnabled() bool { return bool(a) }

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sessionWithTrades() *tape.Session {
	s := tape.NewSession(tape.SessionParams{Start: start})
	s.Admit(tape.Trade{Price: 50000, Size: 0.5, Side: tape.SideBuy}, start)
	s.Admit(tape.Trade{Price: 50100.25, Size: 0.002, Side: tape.SideSell}, start)
	return s
}

func contains(t *testing.T, lines []string, want string) {
	t.Helper()
	for _, l := range lines {
		if strings.Contains(l, want) {
			return
		}
	}
	require.Failf(t, "line not found", "%q not in\n%s", want, strings.Join(lines, "\n"))
}

func TestRender_Empty(t *testing.T) {
	s := tape.NewSession(tape.SessionParams{Start: start})
	b := New(Params{})

	lines := b.Render(s.Snapshot(start.Add(65 * time.Second)))
	contains(t, lines, "Uptime:           00:01:05")
	contains(t, lines, "Session Low:      N/A")
	contains(t, lines, "Total Trades: 0")
	contains(t, lines, "Min Trade Size: 0.0001 BTC")
	contains(t, lines, "Audio: ON")
	contains(t, lines, "< 0.0001")
	contains(t, lines, "≥ 1.0")
}

func TestRender_Stats(t *testing.T) {
	s := sessionWithTrades()
	b := New(Params{})

	lines := b.Render(s.Snapshot(start))
	contains(t, lines, "BTC/USD  $50,100.25")
	contains(t, lines, "Session High:     $50,100.25")
	contains(t, lines, "Session Low:      $50,000.00")
	contains(t, lines, "Total Trades: 2")
	contains(t, lines, "Volume Today: 0.502000 BTC")
	contains(t, lines, "Largest Trade: Buy 0.500000 BTC @ $50000.00")
	contains(t, lines, "Errors:           0 parse, 0 invalid")
}

func TestRender_TableNewestFirst(t *testing.T) {
	s := sessionWithTrades()
	b := New(Params{})

	lines := b.Render(s.Snapshot(start))
	sell, buy := indexOf(lines, "0  Sell"), indexOf(lines, "1  Buy")
	require.NotEqual(t, -1, sell)
	require.NotEqual(t, -1, buy)
	require.Less(t, sell, buy, "newest trade is listed first")
	require.Contains(t, lines[sell], "$50100.25")
	require.Contains(t, lines[sell], "0.002000")
}

func indexOf(lines []string, prefix string) int {
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return i
		}
	}
	return -1
}

func TestRender_TradeDetail(t *testing.T) {
	s := tape.NewSession(tape.SessionParams{Start: start})
	s.Admit(tape.Trade{Price: 50000, Size: 0.5, Side: tape.SideBuy, TradeID: "11", MakerOrderID: "m-1",
		TakerOrderID: "t-1", Time: "2024-03-01T12:00:00Z"}, start)
	s.Admit(tape.Trade{Price: 50001, Size: 0.1, Side: tape.SideSell, TradeID: "12"}, start)
	b := New(Params{})

	lines := b.Render(s.Snapshot(start))
	require.Equal(t, -1, indexOf(lines, "     Trade ID:"), "nothing is expanded by default")

	b.Select(1)
	lines = b.Render(s.Snapshot(start))
	row := indexOf(lines, "1  Buy")
	require.NotEqual(t, -1, row)
	require.Equal(t, []string{
		"     Trade ID:  11",
		"     Time:      2024-03-01T12:00:00Z",
		"     Maker ID:  m-1",
		"     Taker ID:  t-1",
	}, lines[row+1:row+5])

	b.Select(0)
	lines = b.Render(s.Snapshot(start))
	row = indexOf(lines, "0  Sell")
	require.Equal(t, "     Trade ID:  12", lines[row+1], "selecting another row moves the detail")
	require.Equal(t, "     Maker ID:  N/A", lines[row+3])
	require.Equal(t, "1  Buy", lines[row+5][:6])

	b.Select(0)
	lines = b.Render(s.Snapshot(start))
	require.Equal(t, -1, indexOf(lines, "     Trade ID:"), "the same row again closes the detail")

	b.Select(1)
	b.Deselect()
	lines = b.Render(s.Snapshot(start))
	require.Equal(t, -1, indexOf(lines, "     Trade ID:"))

	b.Select(7)
	lines = b.Render(s.Snapshot(start))
	require.Equal(t, -1, indexOf(lines, "     Trade ID:"), "rows past the table are ignored")
}

func TestHeatmapLines(t *testing.T) {
	lines := heatmapLines([tape.BucketCount]int{0, 0, 1, 0, 2, 0})
	require.Len(t, lines, tape.BucketCount)
	require.Equal(t, barWidth, strings.Count(lines[4], "█"), "the largest bucket gets the full bar")
	require.Equal(t, barWidth/2, strings.Count(lines[2], "█"))
	require.NotContains(t, lines[0], "█")
}

func TestRender_BotBannerPersists(t *testing.T) {
	s := tape.NewSession(tape.SessionParams{Start: start})
	for range 5 {
		s.Admit(tape.Trade{Price: 50000, Size: 0.01, Side: tape.SideBuy}, start)
	}
	b := New(Params{})

	contains(t, b.Render(s.Snapshot(start)), "Possible bot: 5+ trades of 0.01 BTC @ $50,000.00")

	s.Admit(tape.Trade{Price: 50001, Size: 0.02, Side: tape.SideSell}, start)
	s.Admit(tape.Trade{Price: 50001, Size: 0.03, Side: tape.SideSell}, start)
	s.Admit(tape.Trade{Price: 50001, Size: 0.04, Side: tape.SideSell}, start)
	s.Admit(tape.Trade{Price: 50001, Size: 0.05, Side: tape.SideSell}, start)
	s.Admit(tape.Trade{Price: 50001, Size: 0.06, Side: tape.SideSell}, start)
	s.Admit(tape.Trade{Price: 50001, Size: 0.07, Side: tape.SideSell}, start)

	snap := s.Snapshot(start.Add(2 * time.Second))
	require.Nil(t, snap.Bot)
	contains(t, b.Render(snap), "Possible bot:")

	lines := b.Render(s.Snapshot(start.Add(tape.BotBannerTTL)))
	for _, l := range lines {
		require.NotContains(t, l, "Possible bot:", "banner is gone after its ttl")
	}
}

func TestBoard_DirectionMarker(t *testing.T) {
	now := start
	s := sessionWithTrades()
	b := New(Params{Now: func() time.Time { return now }})

	b.OnDirection(tape.DirectionUp)
	require.True(t, strings.HasSuffix(b.Render(s.Snapshot(now.Add(100*time.Millisecond)))[0], "▲"))
	require.False(t, strings.Contains(b.Render(s.Snapshot(now.Add(AnimationDuration)))[0], "▲"))

	b.OnDirection(tape.DirectionDown)
	require.True(t, strings.HasSuffix(b.Render(s.Snapshot(now))[0], "▼"))
}

func TestBoard_StatusLine(t *testing.T) {
	b := New(Params{})
	b.OnStatus("[Error]: Unknown error")
	require.Equal(t, "[Error]: Unknown error", b.Status())

	s := tape.NewSession(tape.SessionParams{Start: start})
	contains(t, b.Render(s.Snapshot(start)), "[Error]: Unknown error")
}

func TestBoard_ClicksOnlyWithAudio(t *testing.T) {
	c := &clicks{}
	b := New(Params{Player: c, Audio: audio(true)})
	b.OnTrade(tape.Trade{Side: tape.SideSell})
	require.Equal(t, []tape.Side{tape.SideSell}, c.sides)

	c = &clicks{}
	b = New(Params{Player: c, Audio: audio(false)})
	b.OnTrade(tape.Trade{Side: tape.SideBuy})
	require.Empty(t, c.sides)
}

func TestDraw(t *testing.T) {
	s := sessionWithTrades()
	var out bytes.Buffer

	require.NoError(t, New(Params{}).Draw(&out, s.Snapshot(start)))
	require.True(t, strings.HasPrefix(out.String(), clearFrame))
	require.Contains(t, out.String(), "\r\n")
}
