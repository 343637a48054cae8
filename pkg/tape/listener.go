package tape

// Listener receives events as the feed is processed. Implementations must
// return quickly, they run on the goroutine that owns the session.
type Listener interface {
	// OnTrade fires once per admitted trade, the side picks the click variant.
	OnTrade(t Trade)
	// OnDirection fires when an admitted trade moved the last price.
	OnDirection(d Direction)
	// OnStatus carries connection and feed error messages.
	OnStatus(msg string)
}

// NopListener discards every event.
type NopListener struct{}

func (NopListener) OnTrade(Trade)         {}
func (NopListener) OnDirection(Direction) {}
func (NopListener) OnStatus(string)       {}
