package tape

import "time"

// TPSWindow is the trailing window trades-per-second is measured over.
const TPSWindow = 10 * time.Second

// TpsMeter keeps arrival times inside TPSWindow. An arrival exactly
// TPSWindow old is still counted.
type TpsMeter struct {
	window  time.Duration
	stamps  []time.Time
	Rate    float64
	Highest float64
}

func NewTpsMeter(window time.Duration) *TpsMeter {
	if window <= 0 {
		window = TPSWindow
	}
	return &TpsMeter{
		window: window,
	}
}

// Mark records an arrival at now and recomputes the rate.
func (m *TpsMeter) Mark(now time.Time) float64 {
	m.stamps = append(m.stamps, now)

	drop := 0
	for drop < len(m.stamps) && now.Sub(m.stamps[drop]) > m.window {
		drop++
	}
	m.stamps = m.stamps[drop:]

	m.Rate = float64(len(m.stamps)) / m.window.Seconds()
	m.Highest = max(m.Highest, m.Rate)

	return m.Rate
}
