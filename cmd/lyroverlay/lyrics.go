package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/session"
	"karolbroda.com/lyroverlay/internal/track"
)

var (
	// flags shared by the lyrics subcommands
	lyricsAlbum    string
	lyricsDuration int
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "lyrics search and management",
	Long:  `search for lyrics, pre-fetch to cache, or preview lyrics in the terminal.`,
}

var lyricsSearchCmd = &cobra.Command{
	Use:   "search <artist> <title>",
	Short: "search for lyrics on lrclib",
	Long:  `search for lyrics on lrclib.net and display availability information. the cache is not consulted.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupCommand(cmd)
		if err != nil {
			return err
		}

		client, err := newLyricsClient(cfg, nil)
		if err != nil {
			return err
		}

		fmt.Printf("searching for: %s - %s\n\n", args[0], args[1])

		resp, err := client.Fetch(cmd.Context(), trackParams(args))
		if err != nil {
			return fmt.Errorf("lyrics not found: %w", err)
		}

		fmt.Printf("found lyrics:\n")
		fmt.Printf("  track:        %s\n", resp.TrackName)
		fmt.Printf("  artist:       %s\n", resp.ArtistName)
		if resp.AlbumName != "" {
			fmt.Printf("  album:        %s\n", resp.AlbumName)
		}
		if resp.Duration > 0 {
			fmt.Printf("  duration:     %.0fs\n", resp.Duration)
		}
		fmt.Printf("  instrumental: %v\n", resp.Instrumental)

		switch lyric := resp.Lyric().(type) {
		case lyrics.LineTimestamp:
			fmt.Printf("  synced lines: %d\n", lyric.Len())
		case lyrics.Unsynced:
			fmt.Printf("  synced lines: none\n")
			fmt.Printf("  plain lines:  %d\n", lyric.Len())
		default:
			fmt.Printf("  lines:        none\n")
		}

		fmt.Println("\nuse 'lyroverlay lyrics fetch' to save to cache")
		return nil
	},
}

var lyricsFetchCmd = &cobra.Command{
	Use:   "fetch <artist> <title>",
	Short: "pre-fetch and cache lyrics",
	Long:  `fetch lyrics from lrclib.net and save them to the local cache for instant loading.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		cfg, err := setupCommand(cmd)
		if err != nil {
			return err
		}

		store, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if cached, err := store.Get(artist, title); err == nil {
			fmt.Printf("'%s - %s' is already cached\n", artist, title)
			if cached.SyncOffset != 0 {
				fmt.Printf("sync offset: %.2fs\n", cached.SyncOffset)
			}
			return nil
		}

		client, err := newLyricsClient(cfg, store)
		if err != nil {
			return err
		}

		fmt.Printf("fetching: %s - %s\n", artist, title)

		resp, err := client.Fetch(cmd.Context(), trackParams(args))
		if err != nil {
			return fmt.Errorf("failed to fetch lyrics: %w", err)
		}

		fmt.Printf("cached successfully: %s - %s\n", resp.ArtistName, resp.TrackName)
		if lyrics.IsSynced(resp.Lyric()) {
			fmt.Println("synced lyrics available")
		} else {
			fmt.Println("only plain lyrics available (no timing)")
		}

		return nil
	},
}

var lyricsPreviewCmd = &cobra.Command{
	Use:   "preview <artist> <title>",
	Short: "preview lyrics in terminal",
	Long: `display lyrics with timestamps (if available). a translation file in
TRANSLATION_DIR is shown under each line it matches.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		cfg, err := setupCommand(cmd)
		if err != nil {
			return err
		}

		var store *cache.Store
		if cfg.CacheLyrics {
			store, err = openCache(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		client, err := newLyricsClient(cfg, store)
		if err != nil {
			return err
		}

		resolver := session.NewLyricsResolver(session.ResolverConfig{
			Fetcher:        client,
			TranslationDir: cfg.TranslationDir,
		})

		trk := &track.Info{
			Title:    title,
			Artist:   artist,
			Album:    lyricsAlbum,
			Duration: time.Duration(lyricsDuration) * time.Second,
		}

		result, err := resolver.Resolve(cmd.Context(), trk)
		if err != nil {
			if store != nil && errors.Is(err, lyrics.ErrNoLyrics) {
				printSuggestions(store, artist, title)
			}
			return fmt.Errorf("lyrics not found: %w", err)
		}

		fmt.Printf("\n%s - %s\n", artist, title)
		if lyricsAlbum != "" {
			fmt.Printf("%s\n", lyricsAlbum)
		}
		fmt.Println(strings.Repeat("─", 60))

		printPreview(result)

		if result.SyncOffset != 0 {
			fmt.Printf("\nsync offset: %.2fs\n", result.SyncOffset.Seconds())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)

	lyricsCmd.AddCommand(lyricsSearchCmd)
	lyricsCmd.AddCommand(lyricsFetchCmd)
	lyricsCmd.AddCommand(lyricsPreviewCmd)

	lyricsCmd.PersistentFlags().StringVar(&lyricsAlbum, "album", "", "album name to narrow the search")
	lyricsCmd.PersistentFlags().IntVar(&lyricsDuration, "duration", 0, "track length in seconds, checked against LENGTH_TOLERATION")
}

func trackParams(args []string) *lyrics.TrackParams {
	return &lyrics.TrackParams{
		Artist:       args[0],
		Title:        args[1],
		Album:        lyricsAlbum,
		DurationSecs: int64(lyricsDuration),
	}
}

func printPreview(result session.Result) {
	origin, synced := result.Origin.(lyrics.LineTimestamp)
	translation, _ := result.Translation.(lyrics.LineTimestamp)

	switch {
	case synced:
		fmt.Printf("\nsynced lyrics (%d lines):\n\n", origin.Len())
		for _, line := range origin {
			fmt.Printf("[%s] %s\n", lyrics.FormatTimestamp(line.Timestamp), line.Text)
			// translation lines are matched the way the overlay matches them
			if tr := lyrics.Locate(line.Timestamp, translation); tr != nil && strings.TrimSpace(tr.Text) != "" {
				fmt.Printf("%s  %s\n", strings.Repeat(" ", len(lyrics.FormatTimestamp(line.Timestamp))+2), tr.Text)
			}
		}

	case result.Origin != nil:
		plain, _ := result.Origin.(lyrics.Unsynced)
		fmt.Printf("\nplain lyrics (no timestamps):\n\n")
		fmt.Println(strings.Join(plain, "\n"))

	case translation != nil:
		fmt.Printf("\ntranslation only (%d lines):\n\n", translation.Len())
		for _, line := range translation {
			fmt.Printf("[%s] %s\n", lyrics.FormatTimestamp(line.Timestamp), line.Text)
		}

	default:
		fmt.Println("\n[instrumental]")
	}
}

func printSuggestions(store *cache.Store, artist, title string) {
	suggestions := findSimilarCachedSongs(store, artist, title)
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "similar songs in cache:\n")
	for _, s := range suggestions {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", s.ArtistName, s.TrackName)
	}
	fmt.Fprintln(os.Stderr)
}
