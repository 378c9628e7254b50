package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/lyricsync"
)

const HTTPTimeout = 10 * time.Second

type Config struct {
	MprisService string  `envconfig:"MPRIS_SERVICE" default:"org.mpris.MediaPlayer2.spotify"`
	LrclibURL    string  `envconfig:"LRCLIB_GET_URL" default:"https://lrclib.net/api/get"`
	SyncOffset   float64 `envconfig:"SYNC_OFFSET" default:"0"` // seconds
	HideHeader   bool    `envconfig:"HIDE_HEADER" default:"false"`

	RefreshInterval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"100ms"`
	PlayerPollInterval time.Duration `envconfig:"PLAYER_POLL_INTERVAL" default:"1s"`

	DisplayMode           lyricsync.Mode          `envconfig:"LYRIC_DISPLAY_MODE" default:"show_both"`
	PrimaryFontSize       int                     `envconfig:"PRIMARY_FONT_SIZE" default:"20"`
	SecondaryFontSize     int                     `envconfig:"SECONDARY_FONT_SIZE" default:"14"`
	ShowLyricOnPause      bool                    `envconfig:"SHOW_LYRIC_ON_PAUSE" default:"true"`
	ShowDefaultTextOnIdle bool                    `envconfig:"SHOW_DEFAULT_TEXT_ON_IDLE" default:"true"`
	Align                 lyricsync.Justification `envconfig:"LYRIC_ALIGN" default:"center"`
	FigletMinSize         int                     `envconfig:"FIGLET_MIN_SIZE" default:"24"`
	KittyGraphics         bool                    `envconfig:"KITTY_GRAPHICS" default:"false"`

	LengthToleration time.Duration `envconfig:"LENGTH_TOLERATION" default:"3s"`
	LrclibRateLimit  float64       `envconfig:"LRCLIB_RATE_LIMIT" default:"2"`

	CacheLyrics      bool   `envconfig:"CACHE_LYRICS" default:"true"`
	CachePath        string `envconfig:"CACHE_PATH" default:""`
	CacheTTLDays     int    `envconfig:"CACHE_TTL_DAYS" default:"30"`
	CacheCompression bool   `envconfig:"CACHE_COMPRESSION" default:"true"`

	TranslationDir string `envconfig:"TRANSLATION_DIR" default:""`
	StatusAddr     string `envconfig:"STATUS_ADDR" default:""`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE" default:""`
}

// Load reads an optional .env file from the working directory, then the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("failed to read .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MprisService == "" {
		return errors.New("MPRIS_SERVICE must not be empty")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	if c.PlayerPollInterval <= 0 {
		return fmt.Errorf("PLAYER_POLL_INTERVAL must be positive, got %s", c.PlayerPollInterval)
	}
	if c.PrimaryFontSize < 1 || c.SecondaryFontSize < 1 {
		return fmt.Errorf("font sizes must be at least 1, got %d/%d", c.PrimaryFontSize, c.SecondaryFontSize)
	}
	if c.CacheTTLDays < 0 {
		return fmt.Errorf("CACHE_TTL_DAYS must not be negative, got %d", c.CacheTTLDays)
	}
	if c.LrclibRateLimit < 0 {
		return fmt.Errorf("LRCLIB_RATE_LIMIT must not be negative, got %g", c.LrclibRateLimit)
	}
	return nil
}

func (c *Config) SyncOffsetDuration() time.Duration {
	return time.Duration(c.SyncOffset * float64(time.Second))
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLDays) * 24 * time.Hour
}

// Display is the initial engine display configuration.
func (c *Config) Display() lyricsync.DisplayConfig {
	return lyricsync.DisplayConfig{
		Mode:                  c.DisplayMode,
		PrimaryFontSize:       c.PrimaryFontSize,
		SecondaryFontSize:     c.SecondaryFontSize,
		ShowLyricOnPause:      c.ShowLyricOnPause,
		ShowDefaultTextOnIdle: c.ShowDefaultTextOnIdle,
		SyncOffset:            c.SyncOffsetDuration(),
	}
}
