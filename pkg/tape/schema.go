package tape

import (
	"math"
	"time"
)

type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideUnknown Side = "unknown"
)

// ParseSide maps the feed's side field, anything unrecognized is unknown.
func ParseSide(s string) Side {
	switch Side(s) {
	case SideBuy:
		return SideBuy
	case SideSell:
		return SideSell
	}
	return SideUnknown
}

// Trade is one admitted match from the feed. Time is kept as the feed sent it.
type Trade struct {
	Price        float64
	Size         float64
	Side         Side
	TradeID      string
	MakerOrderID string
	TakerOrderID string
	Time         string
}

// Notional is the trade's quote-currency value.
func (t Trade) Notional() float64 {
	return t.Price * t.Size
}

type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	}
	return "none"
}

// BotAlert reports a repeated rounded size in the recent window.
// Until is the moment the banner for it should stop being shown.
type BotAlert struct {
	Size  float64
	Price float64
	Count int
	Until time.Time
}

// Active reports whether the alert should still be displayed at now.
func (a *BotAlert) Active(now time.Time) bool {
	return a != nil && now.Before(a.Until)
}

type Stats struct {
	SessionID    string
	SessionStart time.Time

	TotalTrades   uint64
	SessionVolume float64
	VolumeUSD     float64
	AvgTradeSize  float64
	LastPrice     float64
	LargestTrade  *Trade

	SessionHigh float64
	SessionLow  float64

	TPS        float64
	HighestTPS float64

	// Change24h is the percent move against the ticker's 24h open.
	Change24h    float64
	HasChange24h bool

	ParseErrors   uint64
	InvalidTrades uint64
}

// Low returns the session low, false until a trade has been admitted.
func (s Stats) Low() (float64, bool) {
	if math.IsInf(s.SessionLow, 1) {
		return 0, false
	}
	return s.SessionLow, true
}

// Snapshot is a read-only copy of the session handed to presentation.
type Snapshot struct {
	Stats

	Taken        time.Time
	MinSize      float64
	FilterIndex  int
	AudioEnabled bool

	// Recent is oldest first.
	Recent    []Trade
	Histogram [BucketCount]int
	Bot       *BotAlert
}
