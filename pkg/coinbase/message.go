package coinbase

import (
	"errors"
	"fmt"
	"math"

	"btcbeeper/pkg/tape"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var (
	ErrParse        = errors.New("parse error")
	ErrInvalidTrade = errors.New("invalid trade")
)

type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

type InvalidTradeError struct {
	Field string
	Err   error
}

func (e *InvalidTradeError) Error() string {
	return fmt.Sprintf("invalid trade: %s: %v", e.Field, e.Err)
}

func (e *InvalidTradeError) Is(target error) bool {
	return target == ErrInvalidTrade
}

func (e *InvalidTradeError) Unwrap() error {
	return e.Err
}

var (
	errMissing    = errors.New("missing")
	errNotNumeric = errors.New("not numeric")
)

// Envelope is one decoded feed message: Match, Ticker, FeedError or Ignored.
type Envelope interface {
	envelope()
}

// Match is a trade report, validated lazily by ParseTrade.
type Match struct {
	Payload gjson.Result
}

// Ticker carries the last price. Open24h is zero when the feed omitted it.
type Ticker struct {
	Price   float64
	Open24h float64
}

// FeedError is an error the exchange reported about our session.
type FeedError struct {
	Message string
}

// Ignored covers heartbeats, subscription acks, other instruments and
// anything else the tape has no use for.
type Ignored struct {
	Type string
}

func (Match) envelope()     {}
func (Ticker) envelope()    {}
func (FeedError) envelope() {}
func (Ignored) envelope()   {}

// Decode classifies a raw frame. Only frames that are not a JSON object
// fail, everything else decodes to some envelope. Messages for a product
// other than productID come back as Ignored.
func Decode(raw []byte, productID string) (Envelope, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ParseError{Reason: "malformed json"}
	}

	msg := gjson.ParseBytes(raw)
	if !msg.IsObject() {
		return nil, &ParseError{Reason: "not a json object"}
	}

	pid := msg.Get("product_id")
	if pid.Exists() && pid.Type != gjson.Null && pid.String() != productID {
		return Ignored{Type: msg.Get("type").String()}, nil
	}

	typ := msg.Get("type").String()
	switch typ {
	case "match", "last_match":
		return Match{Payload: msg}, nil
	case "ticker":
		price, err := number(msg.Get("price"))
		if err != nil {
			return Ignored{Type: typ}, nil
		}
		open24h, _ := number(msg.Get("open_24h"))
		return Ticker{Price: price, Open24h: open24h}, nil
	case "error":
		message := msg.Get("message").String()
		if message == "" {
			message = "Unknown error"
		}
		return FeedError{Message: message}, nil
	}

	return Ignored{Type: typ}, nil
}

// ParseTrade validates a match and normalizes it into a trade. Price and
// size must be present and numeric, no range checks are applied.
func ParseTrade(m Match) (tape.Trade, error) {
	p := m.Payload

	price, err := number(p.Get("price"))
	if err != nil {
		return tape.Trade{}, &InvalidTradeError{Field: "price", Err: err}
	}
	size, err := number(p.Get("size"))
	if err != nil {
		return tape.Trade{}, &InvalidTradeError{Field: "size", Err: err}
	}

	return tape.Trade{
		Price:        price,
		Size:         size,
		Side:         tape.ParseSide(p.Get("side").String()),
		TradeID:      p.Get("trade_id").String(),
		MakerOrderID: p.Get("maker_order_id").String(),
		TakerOrderID: p.Get("taker_order_id").String(),
		Time:         p.Get("time").String(),
	}, nil
}

// number accepts finite JSON numbers and decimal strings, the feed quotes
// prices and sizes as strings.
func number(r gjson.Result) (float64, error) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		d, err := decimal.NewFromString(r.Str)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errNotNumeric, r.Str)
		}
		v = d.InexactFloat64()
	case gjson.Null:
		// also what gjson returns for an absent key
		return 0, errMissing
	default:
		return 0, fmt.Errorf("%w: %s", errNotNumeric, r.Raw)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s out of range", errNotNumeric, r.Raw)
	}
	return v, nil
}
