package coinbase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/mailru/easyjson"
)

const (
	DefaultFeedURL = "wss://ws-feed.exchange.coinbase.com"
	ProductID      = "BTC-USD"

	MaxReconnectAttempts = 5
	ReconnectDelay       = 5 * time.Second
)

// Channels subscribed on every connection.
var Channels = []string{"matches", "ticker", "heartbeat"}

var ErrReconnectBudget = errors.New("max reconnection attempts reached")

// Conn is the part of a websocket connection the feed uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WsDialer dials with a fasthttp websocket dialer.
type WsDialer struct {
	Dialer *websocket.Dialer
}

func (d WsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type StatusKind int

const (
	StatusConnected StatusKind = iota
	StatusRetrying
	StatusFailed
)

// Status describes a connection lifecycle event.
type Status struct {
	Kind        StatusKind
	URL         string
	Attempt     int
	MaxAttempts int
	Err         error
}

func (s Status) String() string {
	switch s.Kind {
	case StatusConnected:
		return "Connected to " + s.URL
	case StatusRetrying:
		return fmt.Sprintf("[Connection Error]: %v. Reconnecting... (%d/%d)", s.Err, s.Attempt, s.MaxAttempts)
	}
	return "[Connection Failed]: Max reconnection attempts reached."
}

type FeedParams struct {
	// URL defaults to DefaultFeedURL.
	URL string
	// ProductID defaults to ProductID.
	ProductID string
	// Channels defaults to Channels.
	Channels []string
	// MaxAttempts defaults to MaxReconnectAttempts.
	MaxAttempts int
	// RetryDelay defaults to ReconnectDelay.
	RetryDelay time.Duration
	// Dialer defaults to WsDialer with the default websocket dialer.
	Dialer Dialer
}

// Feed is a reconnecting subscription to the exchange websocket.
type Feed struct {
	p FeedParams
}

func NewFeed(p FeedParams) *Feed {
	if p.URL == "" {
		p.URL = DefaultFeedURL
	}
	if p.ProductID == "" {
		p.ProductID = ProductID
	}
	if len(p.Channels) == 0 {
		p.Channels = Channels
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = MaxReconnectAttempts
	}
	if p.RetryDelay <= 0 {
		p.RetryDelay = ReconnectDelay
	}
	if p.Dialer == nil {
		p.Dialer = WsDialer{}
	}
	return &Feed{p: p}
}

// Run connects, subscribes and hands every text frame to onMessage until
// ctx is done or MaxAttempts consecutive connections have failed. A
// connection that got as far as subscribing resets the count. Returns
// ctx.Err() on cancellation and ErrReconnectBudget once the budget is spent.
func (f *Feed) Run(ctx context.Context, onMessage func([]byte), onStatus func(Status)) error {
	sub, err := easyjson.Marshal(NewSubscribeRequest(f.p.ProductID, f.p.Channels))
	if err != nil {
		return fmt.Errorf("failed to encode subscribe request: %w", err)
	}

	attempts := 0
	for {
		err := f.stream(ctx, sub, func() {
			attempts = 0
			slog.Info("WsFeed", "connected", f.p.URL)
			onStatus(Status{Kind: StatusConnected, URL: f.p.URL, MaxAttempts: f.p.MaxAttempts})
		}, onMessage)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts++
		status := Status{
			Kind:        StatusRetrying,
			URL:         f.p.URL,
			Attempt:     attempts,
			MaxAttempts: f.p.MaxAttempts,
			Err:         err,
		}
		slog.Warn("WsFeed", "connection error", err, "attempt", attempts, "max", f.p.MaxAttempts)

		if attempts >= f.p.MaxAttempts {
			slog.Error("WsFeed", "giving up", ErrReconnectBudget)
			status.Kind = StatusFailed
			onStatus(status)
			return ErrReconnectBudget
		}
		onStatus(status)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.p.RetryDelay):
		}
	}
}

// stream runs one connection. It always returns a non-nil error, a feed
// that ends is a feed that failed.
func (f *Feed) stream(ctx context.Context, sub []byte, onConnected func(), onMessage func([]byte)) error {
	conn, err := f.p.Dialer.Dial(ctx, f.p.URL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.p.URL, err)
	}
	defer conn.Close()

	// unblocks ReadMessage on cancellation
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	onConnected()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		onMessage(message)
	}
}
