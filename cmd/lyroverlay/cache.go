package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/lyrics"
)

const maxSuggestions = 5

var (
	// flags for cache list
	cacheSortBy  string
	cacheConfirm bool
)

var errNotCached = errors.New("song not found in cache")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the lyrics cache",
	Long:  `manage cached lyrics data, including viewing statistics, listing entries, and clearing the cache.`,
}

// withCache opens the cache for the duration of fn.
func withCache(cmd *cobra.Command, fn func(store *cache.Store) error) error {
	cfg, err := setupCommand(cmd)
	if err != nil {
		return err
	}

	store, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	Long:  `display cache statistics including number of entries, total size, and cache location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(store *cache.Store) error {
			count, sizeBytes, err := store.Stats()
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			fmt.Println("cache statistics:")
			fmt.Printf("  location: %s\n", store.Path())
			fmt.Printf("  entries:  %d\n", count)
			fmt.Printf("  size:     %s\n", formatBytes(sizeBytes))
			return nil
		})
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all cached songs",
	Long:  `list all songs in the cache with their sync offsets and cache date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(store *cache.Store) error {
			entries, err := store.ListAll()
			if err != nil {
				return fmt.Errorf("failed to list cache: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("cache is empty")
				return nil
			}

			sortCacheEntries(entries, cacheSortBy)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ARTIST\tTITLE\tSYNC OFFSET\tCACHED")
			for _, entry := range entries {
				syncStr := "-"
				if entry.SyncOffset != 0 {
					syncStr = fmt.Sprintf("%.1fs", entry.SyncOffset)
				}
				cacheDate := time.Unix(entry.CreatedAt, 0).Format("2006-01-02")
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.ArtistName, entry.TrackName, syncStr, cacheDate)
			}
			w.Flush()

			fmt.Printf("\ntotal: %d songs\n", len(entries))
			return nil
		})
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <artist> <title>",
	Short: "show cached entry for specific song",
	Long:  `display detailed information about a cached song including lyrics and sync offset.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(store *cache.Store) error {
			entry, err := lookup(store, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("artist:       %s\n", entry.ArtistName)
			fmt.Printf("title:        %s\n", entry.TrackName)
			fmt.Printf("album:        %s\n", entry.AlbumName)
			fmt.Printf("duration:     %.1fs\n", entry.Duration)
			fmt.Printf("sync offset:  %.2fs\n", entry.SyncOffset)
			fmt.Printf("instrumental: %v\n", entry.Instrumental)
			fmt.Printf("cached:       %s\n", time.Unix(entry.CreatedAt, 0).Format("2006-01-02 15:04:05"))
			fmt.Printf("expires:      %s\n", time.Unix(entry.ExpiresAt, 0).Format("2006-01-02 15:04:05"))

			if lines := lyrics.ParseLRC(entry.SyncedLyrics); lines != nil {
				fmt.Printf("\nsynced lyrics: %d lines\n", lines.Len())
			} else if plain := lyrics.NewUnsynced(entry.PlainLyrics); plain != nil {
				fmt.Printf("\nplain lyrics: %d lines (no sync data)\n", plain.Len())
			} else {
				fmt.Println("\nno lyrics available")
			}
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "clear all cached entries",
	Long:  `remove all cached lyrics data. use --confirm to skip confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheConfirm {
			fmt.Print("are you sure you want to clear all cache? (y/n): ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(response)
			if response != "y" && response != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		return withCache(cmd, func(store *cache.Store) error {
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Println("cache cleared successfully")
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	Long:  `remove all expired cache entries to free up disk space.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(store *cache.Store) error {
			pruned, err := store.Prune()
			if err != nil {
				return fmt.Errorf("failed to prune cache: %w", err)
			}
			fmt.Printf("removed %d expired entries\n", pruned)
			return nil
		})
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <artist> <title>",
	Short: "remove specific song from cache",
	Long:  `remove a specific song from the cache by artist and title.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		return withCache(cmd, func(store *cache.Store) error {
			if _, err := lookup(store, artist, title); err != nil {
				return err
			}
			if err := store.Delete(artist, title); err != nil {
				return fmt.Errorf("failed to delete from cache: %w", err)
			}
			fmt.Printf("deleted '%s - %s' from cache\n", artist, title)
			return nil
		})
	},
}

var cacheOffsetCmd = &cobra.Command{
	Use:   "offset <artist> <title> <seconds>",
	Short: "set the saved sync offset for a song",
	Long:  `store a per-song sync offset, used instead of SYNC_OFFSET whenever the song plays.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		offset, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[2], err)
		}

		return withCache(cmd, func(store *cache.Store) error {
			if _, err := lookup(store, artist, title); err != nil {
				return err
			}
			if err := store.SetSyncOffset(artist, title, offset); err != nil {
				return fmt.Errorf("failed to save sync offset: %w", err)
			}
			fmt.Printf("sync offset for '%s - %s' set to %.2fs\n", artist, title, offset)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheOffsetCmd)

	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "date", "sort by: date, artist, title")
	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
}

// lookup fetches an entry and lists near matches on a miss.
func lookup(store *cache.Store, artist, title string) (*cache.LyricEntry, error) {
	entry, err := store.Get(artist, title)
	if err == nil {
		return entry, nil
	}

	printSuggestions(store, artist, title)
	return nil, fmt.Errorf("%w: %s - %s", errNotCached, artist, title)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func sortCacheEntries(entries []*cache.LyricEntry, sortBy string) {
	switch sortBy {
	case "artist":
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].ArtistName) < strings.ToLower(entries[j].ArtistName)
		})
	case "title":
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].TrackName) < strings.ToLower(entries[j].TrackName)
		})
	default:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].CreatedAt > entries[j].CreatedAt
		})
	}
}

// findSimilarCachedSongs prefers same-artist title matches and falls back to
// loose matches on both fields.
func findSimilarCachedSongs(store *cache.Store, artist, title string) []*cache.LyricEntry {
	entries, err := store.ListAll()
	if err != nil || len(entries) == 0 {
		return nil
	}
	return similarEntries(entries, artist, title)
}

func similarEntries(entries []*cache.LyricEntry, artist, title string) []*cache.LyricEntry {
	artistLower := strings.ToLower(artist)
	titleLower := strings.ToLower(title)

	looseMatch := func(a, b string) bool {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}

	var matches []*cache.LyricEntry
	for _, entry := range entries {
		if strings.ToLower(entry.ArtistName) == artistLower && looseMatch(strings.ToLower(entry.TrackName), titleLower) {
			matches = append(matches, entry)
		}
	}

	if len(matches) == 0 {
		for _, entry := range entries {
			if looseMatch(strings.ToLower(entry.ArtistName), artistLower) && looseMatch(strings.ToLower(entry.TrackName), titleLower) {
				matches = append(matches, entry)
			}
		}
	}

	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	return matches
}
