package coinbase

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

const (
	DefaultAPIURL = "https://api.exchange.coinbase.com"

	restTimeout = 10 * time.Second
)

// DayStats is the exchange's rolling 24h summary for a product.
type DayStats struct {
	Open float64
	Last float64
}

// FetchStats reads the 24h stats for productID. It is used once at start
// so the tape shows a price before the first ticker arrives.
func FetchStats(ctx context.Context, client *fasthttp.Client, baseURL, productID string) (DayStats, error) {
	if err := ctx.Err(); err != nil {
		return DayStats{}, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(baseURL + "/products/" + productID + "/stats")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent("btcbeeper")
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(restTimeout)
	}
	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return DayStats{}, fmt.Errorf("failed to fetch stats: %w", err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return DayStats{}, fmt.Errorf("stats returned status %d: %s", code, gjson.GetBytes(body, "message").String())
	}

	result := gjson.ParseBytes(body)
	last, err := number(result.Get("last"))
	if err != nil {
		return DayStats{}, fmt.Errorf("stats last: %w", err)
	}

	stats := DayStats{Last: last}
	// open is optional, without it no 24h change is shown
	stats.Open, _ = number(result.Get("open"))

	return stats, nil
}
