package tape

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BotThreshold = 5
	BotBannerTTL = 5 * time.Second
	// BotSizePlaces is the rounding applied before sizes are compared.
	BotSizePlaces = 4
)

type sizeGroup struct {
	size  decimal.Decimal
	count int
	price float64
}

// DetectBot looks for a rounded size repeated at least BotThreshold times
// in window. The most repeated size wins, equal counts go to the smaller
// size. Returns nil when nothing qualifies.
func DetectBot(window []Trade, now time.Time) *BotAlert {
	groups := make(map[string]*sizeGroup, len(window))
	for _, t := range window {
		if math.IsInf(t.Size, 0) || math.IsNaN(t.Size) {
			continue
		}
		sz := decimal.NewFromFloat(t.Size).Round(BotSizePlaces)
		key := sz.String()
		g, ok := groups[key]
		if !ok {
			g = &sizeGroup{size: sz}
			groups[key] = g
		}
		g.count++
		g.price = t.Price
	}

	var best *sizeGroup
	for _, g := range groups {
		if g.count < BotThreshold {
			continue
		}
		if best == nil || g.count > best.count ||
			(g.count == best.count && g.size.LessThan(best.size)) {
			best = g
		}
	}
	if best == nil {
		return nil
	}

	return &BotAlert{
		Size:  best.size.InexactFloat64(),
		Price: best.price,
		Count: best.count,
		Until: now.Add(BotBannerTTL),
	}
}
