package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"btcbeeper/pkg/coinbase"
	"btcbeeper/pkg/config"
	"btcbeeper/pkg/tape"

	"github.com/valyala/fasthttp"
)

const primeTimeout = 10 * time.Second

// setupLogging points the default logger at path, the terminal belongs to
// the tape.
func setupLogging(path, level string) (func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})))
	return func() { f.Close() }, nil
}

func openSession(ctx context.Context) (*config.Config, *tape.Session, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, err
	}

	session := tape.NewSession(tape.SessionParams{})
	session.SetAudio(!opts.noAudio)
	slog.Info("Session", "id", session.Stats().SessionID, "feed", cfg.FeedURL)

	if !opts.noPrime {
		go prime(ctx, cfg.APIURL, session)
	}

	return cfg, session, nil
}

func prime(ctx context.Context, apiURL string, session *tape.Session) {
	ctx, cancel := context.WithTimeout(ctx, primeTimeout)
	defer cancel()

	stats, err := coinbase.FetchStats(ctx, &fasthttp.Client{}, apiURL, coinbase.ProductID)
	if err != nil {
		slog.Warn("Prime", "stats", err)
		return
	}
	if session.Prime(stats.Last, stats.Open) {
		slog.Info("Prime", "last", stats.Last, "open", stats.Open)
	}
}

// runFeed drives the processor from the feed until ctx is done or the
// reconnect budget is spent.
func runFeed(ctx context.Context, cfg *config.Config, session *tape.Session, listener tape.Listener) error {
	proc := coinbase.NewProcessor(coinbase.ProcessorParams{
		Session:  session,
		Listener: listener,
	})
	feed := coinbase.NewFeed(coinbase.FeedParams{URL: cfg.FeedURL})
	return feed.Run(ctx, proc.Handle, statusFor(listener.OnStatus))
}
