package tape

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// HistoryLimit caps the trade history, oldest trades go first.
	HistoryLimit = 1000
	// TableSize is how many filtered trades feed the trade table and the
	// bot detector.
	TableSize = 10
	// viewLookback bounds how far back the filtered view scans history.
	viewLookback = 100
)

type SessionParams struct {
	// HistoryLimit defaults to HistoryLimit.
	HistoryLimit int
	// TableSize defaults to TableSize.
	TableSize int
	// Start defaults to time.Now().
	Start time.Time
}

// Session owns all mutable state of one feed lifetime: statistics, trade
// history, the TPS window, the size filter and the audio flag.
type Session struct {
	p  SessionParams
	mu sync.RWMutex

	stats   Stats
	history []Trade
	tps     *TpsMeter
	filter  Filter
	audio   bool
}

func NewSession(p SessionParams) *Session {
	if p.HistoryLimit <= 0 {
		p.HistoryLimit = HistoryLimit
	}
	if p.TableSize <= 0 {
		p.TableSize = TableSize
	}
	if p.Start.IsZero() {
		p.Start = time.Now()
	}

	return &Session{
		p: p,
		stats: Stats{
			SessionID:    uuid.NewString(),
			SessionStart: p.Start,
			SessionLow:   math.Inf(1),
		},
		history: make([]Trade, 0, p.HistoryLimit),
		tps:     NewTpsMeter(TPSWindow),
		audio:   true,
	}
}

// Admit folds a validated trade into the session. Trades below the current
// filter are dropped without touching any state. The returned direction
// compares the trade's price with the previous last price.
func (s *Session) Admit(t Trade, now time.Time) (bool, Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filter.Admits(t.Size) {
		return false, DirectionNone
	}

	st := &s.stats
	prevPrice := st.LastPrice
	st.TotalTrades++
	st.LastPrice = t.Price
	st.SessionVolume += t.Size
	st.AvgTradeSize = st.SessionVolume / float64(st.TotalTrades)

	s.history = append(s.history, t)
	if len(s.history) > s.p.HistoryLimit {
		s.history = s.history[len(s.history)-s.p.HistoryLimit:]
	}

	s.tps.Mark(now)
	st.TPS = s.tps.Rate
	st.HighestTPS = s.tps.Highest

	if st.LargestTrade == nil || t.Size > st.LargestTrade.Size {
		largest := t
		st.LargestTrade = &largest
	}

	st.SessionHigh = max(st.SessionHigh, t.Price)
	st.SessionLow = min(st.SessionLow, t.Price)
	st.VolumeUSD += t.Notional()

	dir := DirectionNone
	if prevPrice != 0 {
		switch {
		case t.Price > prevPrice:
			dir = DirectionUp
		case t.Price < prevPrice:
			dir = DirectionDown
		}
	}

	return true, dir
}

// ApplyTicker sets the last price from a ticker update. open24h, when
// positive, also refreshes the 24h change.
func (s *Session) ApplyTicker(price, open24h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.LastPrice = price
	if open24h > 0 {
		s.stats.Change24h = (price - open24h) / open24h * 100
		s.stats.HasChange24h = true
	}
}

// Prime applies a startup price only while no trade or ticker has set one.
// It reports whether the price was taken.
func (s *Session) Prime(price, open24h float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats.LastPrice != 0 || price <= 0 {
		return false
	}
	s.stats.LastPrice = price
	if open24h > 0 {
		s.stats.Change24h = (price - open24h) / open24h * 100
		s.stats.HasChange24h = true
	}
	return true
}

func (s *Session) RecordParseError() {
	s.mu.Lock()
	s.stats.ParseErrors++
	s.mu.Unlock()
}

func (s *Session) RecordInvalidTrade() {
	s.mu.Lock()
	s.stats.InvalidTrades++
	s.mu.Unlock()
}

func (s *Session) IncreaseFilter() {
	s.mu.Lock()
	s.filter.Increase()
	s.mu.Unlock()
}

func (s *Session) DecreaseFilter() {
	s.mu.Lock()
	s.filter.Decrease()
	s.mu.Unlock()
}

// ToggleAudio flips the audio flag and returns the new value.
func (s *Session) ToggleAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = !s.audio
	return s.audio
}

func (s *Session) SetAudio(enabled bool) {
	s.mu.Lock()
	s.audio = enabled
	s.mu.Unlock()
}

func (s *Session) AudioEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audio
}

// Stats returns a copy of the current statistics.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyStats()
}

// Snapshot copies everything presentation needs at now.
func (s *Session) Snapshot(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := s.recent(s.p.TableSize)
	return Snapshot{
		Stats:        s.copyStats(),
		Taken:        now,
		MinSize:      s.filter.Current(),
		FilterIndex:  s.filter.Index(),
		AudioEnabled: s.audio,
		Recent:       recent,
		Histogram:    Classify(s.history),
		Bot:          DetectBot(recent, now),
	}
}

func (s *Session) recent(n int) []Trade {
	start := max(len(s.history)-viewLookback, 0)
	filtered := make([]Trade, 0, n)
	for _, t := range s.history[start:] {
		if s.filter.Admits(t.Size) {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	return filtered
}

func (s *Session) copyStats() Stats {
	st := s.stats
	if st.LargestTrade != nil {
		largest := *st.LargestTrade
		st.LargestTrade = &largest
	}
	return st
}
