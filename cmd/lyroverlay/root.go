package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/config"
	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/lyrics"
)

var (
	// global flags
	mprisService string
	syncOffset   float64
	hideHeader   bool
	lrclibURL    string
	noCache      bool
	displayMode  string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "lyroverlay",
	Short: "synchronized lyric overlay for mpris players",
	Long: `lyroverlay shows the current line of a song's lyrics, optionally paired with
a translation, in sync with any mpris-compatible music player.

when run without a subcommand, it starts the overlay.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	rootCmd.PersistentFlags().Float64VarP(&syncOffset, "sync-offset", "s", 0, "base sync offset in seconds")
	rootCmd.PersistentFlags().BoolVarP(&hideHeader, "hide-header", "H", false, "hide header section")
	rootCmd.PersistentFlags().StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api url")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the lyrics cache")
	rootCmd.PersistentFlags().StringVar(&displayMode, "mode", "", "display mode: show_both, show_both_rev, origin, prefer_translation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if mprisService != "" {
		cfg.MprisService = mprisService
	}
	if lrclibURL != "" {
		cfg.LrclibURL = lrclibURL
	}
	if flags.Changed("sync-offset") {
		cfg.SyncOffset = syncOffset
	}
	if flags.Changed("hide-header") {
		cfg.HideHeader = hideHeader
	}
	if noCache {
		cfg.CacheLyrics = false
	}
	if displayMode != "" {
		if err := cfg.DisplayMode.UnmarshalText([]byte(displayMode)); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

// setupCommand is the common prologue of the one-shot subcommands: config
// plus logging to stderr.
func setupCommand(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := logging.SetupStderr(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openCache(cfg *config.Config) (*cache.Store, error) {
	store, err := cache.Open(cache.Options{
		Path:        cfg.CachePath,
		TTL:         cfg.CacheTTL(),
		Compression: cfg.CacheCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open lyrics cache: %w", err)
	}
	return store, nil
}

// newLyricsClient builds the lrclib client, reading through store when it
// is non-nil.
func newLyricsClient(cfg *config.Config, store *cache.Store) (*lyrics.Client, error) {
	clientCfg := lyrics.ClientConfig{
		BaseURL:           cfg.LrclibURL,
		Timeout:           config.HTTPTimeout,
		RequestsPerSecond: cfg.LrclibRateLimit,
		LengthToleration:  cfg.LengthToleration,
	}
	if store != nil {
		clientCfg.Cache = store
	}
	return lyrics.NewClient(clientCfg)
}
