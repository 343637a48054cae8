package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btcbeeper/pkg/board"
	"btcbeeper/pkg/coinbase"
	"btcbeeper/pkg/sound"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCMD = &cobra.Command{
	Use:   "btcbeeper",
	Short: "Live BTC-USD trade tape for the terminal",
	Long: `Streams BTC-USD trades from the Coinbase Exchange feed and shows
price, session statistics, a size heatmap and repeated-size bot alerts.
Keys: '[' and ']' change the minimum trade size, 'a' toggles audio, 'q' quits.`,
	SilenceUsage: true,
	RunE:         runBoard,
}

var opts struct {
	envFile  string
	logFile  string
	logLevel string
	noAudio  bool
	noPrime  bool
	interval time.Duration
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCMD.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCMD.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file")
	flags.StringVar(&opts.logFile, "log-file", "btcbeeper.log", "log output file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.BoolVar(&opts.noAudio, "no-audio", false, "start with audio off")
	flags.BoolVar(&opts.noPrime, "no-prime", false, "skip fetching the 24h stats at start")
	flags.DurationVar(&opts.interval, "interval", board.RefreshInterval, "refresh interval")

	rootCMD.AddCommand(tapeCMD)
}

func runBoard(cmd *cobra.Command, _ []string) error {
	closeLog, err := setupLogging(opts.logFile, opts.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	clicker := sound.NewClicker(out, cfg.BuySoundPath, cfg.SellSoundPath)
	b := board.New(board.Params{Player: clicker, Audio: session})
	go clicker.Run(ctx)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			slog.Warn("Board", "raw mode", err)
		} else {
			defer term.Restore(fd, state)
		}
	}
	go func() {
		if err := board.ReadKeys(os.Stdin, session, b, cancel); err != nil {
			slog.Warn("Board", "keys", err)
		}
	}()

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- runFeed(ctx, cfg, session, b)
	}()

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-feedErr:
			// the board stays up so the failure stays visible until quit
			feedErr = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Board", "feed stopped", err)
			}
		case now := <-ticker.C:
			if err := b.Draw(out, session.Snapshot(now)); err != nil {
				slog.Debug("Board", "draw", err)
			}
		}
	}
}

// statusFor adapts feed lifecycle events to a listener's status line.
func statusFor(onStatus func(string)) func(coinbase.Status) {
	return func(st coinbase.Status) {
		onStatus(st.String())
	}
}
