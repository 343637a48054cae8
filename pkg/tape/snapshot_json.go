package tape

import (
	"math"
	"time"

	"github.com/mailru/easyjson/jwriter"
)

// MarshalEasyJSON writes the snapshot as one flat JSON object. The session
// low is null until a trade has been admitted.
func (s Snapshot) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"session_id":`)
	w.String(s.SessionID)
	w.RawString(`,"session_start":`)
	w.String(s.SessionStart.UTC().Format(time.RFC3339Nano))
	w.RawString(`,"taken":`)
	w.String(s.Taken.UTC().Format(time.RFC3339Nano))

	w.RawString(`,"total_trades":`)
	w.Uint64(s.TotalTrades)
	w.RawString(`,"session_volume":`)
	writeFinite(w, s.SessionVolume)
	w.RawString(`,"volume_usd":`)
	writeFinite(w, s.VolumeUSD)
	w.RawString(`,"avg_trade_size":`)
	writeFinite(w, s.AvgTradeSize)
	w.RawString(`,"last_price":`)
	writeFinite(w, s.LastPrice)
	w.RawString(`,"session_high":`)
	writeFinite(w, s.SessionHigh)
	w.RawString(`,"session_low":`)
	if low, ok := s.Low(); ok {
		writeFinite(w, low)
	} else {
		w.RawString("null")
	}
	w.RawString(`,"change_24h":`)
	if s.HasChange24h {
		writeFinite(w, s.Change24h)
	} else {
		w.RawString("null")
	}
	w.RawString(`,"tps":`)
	writeFinite(w, s.TPS)
	w.RawString(`,"highest_tps":`)
	writeFinite(w, s.HighestTPS)
	w.RawString(`,"parse_errors":`)
	w.Uint64(s.ParseErrors)
	w.RawString(`,"invalid_trades":`)
	w.Uint64(s.InvalidTrades)

	w.RawString(`,"largest_trade":`)
	if s.LargestTrade != nil {
		s.LargestTrade.MarshalEasyJSON(w)
	} else {
		w.RawString("null")
	}

	w.RawString(`,"min_size":`)
	writeFinite(w, s.MinSize)
	w.RawString(`,"filter_index":`)
	w.Int(s.FilterIndex)
	w.RawString(`,"audio_enabled":`)
	w.Bool(s.AudioEnabled)

	w.RawString(`,"recent":[`)
	for i, t := range s.Recent {
		if i > 0 {
			w.RawByte(',')
		}
		t.MarshalEasyJSON(w)
	}
	w.RawString(`],"histogram":[`)
	for i, n := range s.Histogram {
		if i > 0 {
			w.RawByte(',')
		}
		w.Int(n)
	}
	w.RawString(`],"bot":`)
	if s.Bot != nil {
		w.RawString(`{"size":`)
		writeFinite(w, s.Bot.Size)
		w.RawString(`,"price":`)
		writeFinite(w, s.Bot.Price)
		w.RawString(`,"count":`)
		w.Int(s.Bot.Count)
		w.RawString(`,"until":`)
		w.String(s.Bot.Until.UTC().Format(time.RFC3339Nano))
		w.RawByte('}')
	} else {
		w.RawString("null")
	}
	w.RawByte('}')
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	s.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (t Trade) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"price":`)
	writeFinite(w, t.Price)
	w.RawString(`,"size":`)
	writeFinite(w, t.Size)
	w.RawString(`,"side":`)
	w.String(string(t.Side))
	w.RawString(`,"trade_id":`)
	w.String(t.TradeID)
	w.RawString(`,"maker_order_id":`)
	w.String(t.MakerOrderID)
	w.RawString(`,"taker_order_id":`)
	w.String(t.TakerOrderID)
	w.RawString(`,"time":`)
	w.String(t.Time)
	w.RawByte('}')
}

func writeFinite(w *jwriter.Writer, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.RawString("null")
		return
	}
	w.Float64(v)
}
