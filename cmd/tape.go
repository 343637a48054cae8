package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"btcbeeper/pkg/tape"

	"github.com/mailru/easyjson"
	"github.com/spf13/cobra"
)

var tapeCMD = &cobra.Command{
	Use:   "tape",
	Short: "Run headless and print one JSON snapshot per interval",
	Long: `Runs the same feed and statistics as the dashboard without a terminal UI.
Each interval one snapshot object is written to stdout as a JSON line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		closeLog, err := setupLogging(opts.logFile, opts.logLevel)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		opts.noAudio = true
		cfg, session, err := openSession(ctx)
		if err != nil {
			return err
		}

		feedErr := make(chan error, 1)
		go func() {
			feedErr <- runFeed(ctx, cfg, session, statusLog{})
		}()

		return printSnapshots(ctx, cmd.OutOrStdout(), session, opts.interval, feedErr)
	},
}

// statusLog sends feed status lines to the log.
type statusLog struct {
	tape.NopListener
}

func (statusLog) OnStatus(msg string) {
	slog.Info("Tape", "status", msg)
}

func printSnapshots(ctx context.Context, out io.Writer, session *tape.Session, every time.Duration, feedErr <-chan error) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-feedErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			writeSnapshot(out, session.Snapshot(time.Now()))
			return err
		case now := <-ticker.C:
			writeSnapshot(out, session.Snapshot(now))
		}
	}
}

func writeSnapshot(out io.Writer, snap tape.Snapshot) {
	line, err := easyjson.Marshal(snap)
	if err != nil {
		slog.Error("Tape", "marshal", err)
		return
	}
	fmt.Fprintf(out, "%s\n", line)
}
