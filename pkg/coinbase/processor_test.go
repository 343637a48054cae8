package coinbase

import (
	"testing"
	"time"

	"btcbeeper/pkg/tape"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	trades     []tape.Trade
	directions []tape.Direction
	statuses   []string
}

func (r *recorder) OnTrade(t tape.Trade)         { r.trades = append(r.trades, t) }
func (r *recorder) OnDirection(d tape.Direction) { r.directions = append(r.directions, d) }
func (r *recorder) OnStatus(msg string)          { r.statuses = append(r.statuses, msg) }

var procNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProcessor() (*Processor, *tape.Session, *recorder) {
	session := tape.NewSession(tape.SessionParams{Start: procNow})
	rec := &recorder{}
	proc := NewProcessor(ProcessorParams{
		Session:  session,
		Listener: rec,
		Now:      func() time.Time { return procNow },
	})
	return proc, session, rec
}

func TestProcessor_BadFramesOnlyCount(t *testing.T) {
	proc, session, rec := newTestProcessor()
	for _, raw := range []string{"not json", "{", "[]"} {
		proc.Handle([]byte(raw))
	}

	st := session.Stats()
	require.Equal(t, uint64(3), st.ParseErrors)
	require.Zero(t, st.TotalTrades)
	require.Empty(t, rec.trades)
}

func TestProcessor_Trades(t *testing.T) {
	proc, session, rec := newTestProcessor()

	proc.Handle([]byte(matchFrame))
	proc.Handle([]byte(`{"type":"match","product_id":"BTC-USD","price":"50010","size":"0.5","side":"sell"}`))
	proc.Handle([]byte(`{"type":"match","product_id":"BTC-USD","price":"49990","size":"0.2","side":"buy"}`))

	st := session.Stats()
	require.Equal(t, uint64(3), st.TotalTrades)
	require.Equal(t, 49990.0, st.LastPrice)
	require.Len(t, rec.trades, 3)
	require.Equal(t, []tape.Direction{tape.DirectionUp, tape.DirectionDown}, rec.directions)
}

func TestProcessor_IgnoresOtherProducts(t *testing.T) {
	proc, session, rec := newTestProcessor()
	before := session.Stats()

	proc.Handle([]byte(`{"type":"match","product_id":"ETH-USD","price":"3000","size":"1","side":"buy"}`))
	proc.Handle([]byte(`{"type":"ticker","product_id":"ETH-USD","price":"3000"}`))

	require.Equal(t, before, session.Stats())
	require.Empty(t, rec.trades)
}

func TestProcessor_InvalidTrade(t *testing.T) {
	proc, session, rec := newTestProcessor()
	proc.Handle([]byte(`{"type":"match","product_id":"BTC-USD","price":null,"size":"1"}`))

	st := session.Stats()
	require.Equal(t, uint64(1), st.InvalidTrades)
	require.Zero(t, st.ParseErrors)
	require.Zero(t, st.TotalTrades)
	require.Empty(t, rec.trades)
}

func TestProcessor_FilteredTradeIsSilent(t *testing.T) {
	proc, session, rec := newTestProcessor()
	session.IncreaseFilter()

	proc.Handle([]byte(`{"type":"match","product_id":"BTC-USD","price":"50000","size":"0.0005","side":"buy"}`))
	require.Zero(t, session.Stats().TotalTrades)
	require.Empty(t, rec.trades)
}

func TestProcessor_Ticker(t *testing.T) {
	proc, session, _ := newTestProcessor()

	proc.Handle([]byte(`{"type":"ticker","product_id":"BTC-USD","price":"0"}`))
	require.Zero(t, session.Stats().LastPrice, "non-positive ticker prices are skipped")

	proc.Handle([]byte(`{"type":"ticker","product_id":"BTC-USD","price":"51000","open_24h":"50000"}`))
	st := session.Stats()
	require.Equal(t, 51000.0, st.LastPrice)
	require.InDelta(t, 2.0, st.Change24h, 1e-9)
	require.Zero(t, st.TotalTrades)
}

func TestProcessor_FeedError(t *testing.T) {
	proc, _, rec := newTestProcessor()
	proc.Handle([]byte(`{"type":"error","message":"bad channel"}`))
	proc.Handle([]byte(`{"type":"error"}`))

	require.Equal(t, []string{"[Error]: bad channel", "[Error]: Unknown error"}, rec.statuses)
}

func TestProcessor_OverflowingTradeIsInvalid(t *testing.T) {
	proc, session, rec := newTestProcessor()
	proc.Handle([]byte(`{"type":"match","product_id":"BTC-USD","price":"100","size":"1e400"}`))
	proc.Handle([]byte(`{"type":"match","product_id":"BTC-USD","price":1e400,"size":"0.5"}`))

	st := session.Stats()
	require.Equal(t, uint64(2), st.InvalidTrades)
	require.Zero(t, st.TotalTrades)
	require.Empty(t, rec.trades)

	require.NotPanics(t, func() { session.Snapshot(procNow) })
}
