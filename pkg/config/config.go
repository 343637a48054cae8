package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"btcbeeper/pkg/coinbase"

	"github.com/joho/godotenv"
)

const DefaultSoundPath = "data/sounds/geiger_click7.wav"

type Config struct {
	// FeedURL is the exchange websocket endpoint (COINBASE_WS_URL).
	FeedURL string
	// APIURL is the REST base used to prime the price (COINBASE_API_URL).
	APIURL string
	// BuySoundPath is the click played on buys and unknown sides (BTCBEEPER_SOUND_PATH).
	BuySoundPath string
	// SellSoundPath is the click played on sells (BTCBEEPER_SELL_SOUND_PATH).
	SellSoundPath string
}

// Load reads envFile when it exists, then the environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		FeedURL:       getEnv("COINBASE_WS_URL", coinbase.DefaultFeedURL),
		APIURL:        strings.TrimRight(getEnv("COINBASE_API_URL", coinbase.DefaultAPIURL), "/"),
		BuySoundPath:  getEnv("BTCBEEPER_SOUND_PATH", DefaultSoundPath),
		SellSoundPath: getEnv("BTCBEEPER_SELL_SOUND_PATH", DefaultSoundPath),
	}

	if err := checkURL(cfg.FeedURL, "ws", "wss"); err != nil {
		return nil, fmt.Errorf("COINBASE_WS_URL: %w", err)
	}
	if err := checkURL(cfg.APIURL, "http", "https"); err != nil {
		return nil, fmt.Errorf("COINBASE_API_URL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q needs a %s url", raw, strings.Join(schemes, " or "))
}
