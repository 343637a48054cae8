package coinbase

import (
	"log/slog"
	"time"

	"btcbeeper/pkg/tape"
)

type ProcessorParams struct {
	Session  *tape.Session
	Listener tape.Listener
	// ProductID defaults to ProductID.
	ProductID string
	// Now defaults to time.Now, tests pin it.
	Now func() time.Time
}

// Processor turns raw feed frames into session updates and listener events.
// It must be driven from a single goroutine in arrival order.
type Processor struct {
	p ProcessorParams
}

func NewProcessor(p ProcessorParams) *Processor {
	if p.Listener == nil {
		p.Listener = tape.NopListener{}
	}
	if p.ProductID == "" {
		p.ProductID = ProductID
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Processor{p: p}
}

// Handle processes one frame. Bad frames only bump a counter.
func (proc *Processor) Handle(raw []byte) {
	env, err := Decode(raw, proc.p.ProductID)
	if err != nil {
		proc.p.Session.RecordParseError()
		slog.Debug("Processor", "decode", err)
		return
	}

	switch e := env.(type) {
	case Match:
		proc.handleMatch(e)
	case Ticker:
		if e.Price > 0 {
			proc.p.Session.ApplyTicker(e.Price, e.Open24h)
		}
	case FeedError:
		slog.Warn("Processor", "feed error", e.Message)
		proc.p.Listener.OnStatus("[Error]: " + e.Message)
	case Ignored:
	}
}

func (proc *Processor) handleMatch(m Match) {
	trade, err := ParseTrade(m)
	if err != nil {
		proc.p.Session.RecordInvalidTrade()
		slog.Debug("Processor", "invalid trade", err)
		return
	}

	admitted, dir := proc.p.Session.Admit(trade, proc.p.Now())
	if !admitted {
		return
	}

	proc.p.Listener.OnTrade(trade)
	if dir != tape.DirectionNone {
		proc.p.Listener.OnDirection(dir)
	}
}
