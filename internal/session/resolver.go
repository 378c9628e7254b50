package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/track"
)

type Fetcher interface {
	Fetch(ctx context.Context, params *lyrics.TrackParams) (*lyrics.LrclibResponse, error)
}

// OffsetStore persists per-song offsets in seconds, keyed like the lyric cache.
type OffsetStore interface {
	SetSyncOffset(artist, title string, offset float64) error
}

type ResolverConfig struct {
	Fetcher Fetcher
	Offsets OffsetStore
	// TranslationDir holds "<artist> - <title>.lrc" files.
	TranslationDir string
}

// LyricsResolver looks up origin lyrics through the lrclib client (which
// consults the cache first) and pairs them with a local translation file.
type LyricsResolver struct {
	fetcher        Fetcher
	offsets        OffsetStore
	translationDir string
	logger         *log.Entry
}

func NewLyricsResolver(cfg ResolverConfig) *LyricsResolver {
	return &LyricsResolver{
		fetcher:        cfg.Fetcher,
		offsets:        cfg.Offsets,
		translationDir: cfg.TranslationDir,
		logger:         log.WithField("component", "resolver"),
	}
}

func (r *LyricsResolver) Resolve(ctx context.Context, trk *track.Info) (Result, error) {
	if !trk.IsValid() {
		return Result{}, errors.New("track has no title or artist")
	}

	translation := r.loadTranslation(trk)

	params := &lyrics.TrackParams{
		Title:        trk.Title,
		Artist:       trk.Artist,
		Album:        trk.Album,
		DurationSecs: trk.DurationSecs(),
	}

	resp, err := r.fetcher.Fetch(ctx, params)
	if err != nil {
		// a translation on its own is still worth showing
		if translation != nil && ctx.Err() == nil {
			r.logger.WithError(err).WithField("track", trk.String()).Debug("origin lyrics unavailable, using translation")
			return Result{Translation: translation}, nil
		}
		return Result{}, err
	}

	return Result{
		Origin:      resp.Lyric(),
		Translation: translation,
		SyncOffset:  secondsToDuration(resp.SyncOffset),
	}, nil
}

func (r *LyricsResolver) SaveSyncOffset(trk *track.Info, offset time.Duration) error {
	if r.offsets == nil || !trk.IsValid() {
		return nil
	}
	err := r.offsets.SetSyncOffset(trk.Artist, trk.Title, offset.Seconds())
	if errors.Is(err, cache.ErrCacheMiss) || errors.Is(err, cache.ErrCacheExpired) {
		// offsets live on cache entries; without one there is nothing to update
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save sync offset for %s: %w", trk, err)
	}
	return nil
}

// TranslationPath returns where the translation file for trk would live.
func (r *LyricsResolver) TranslationPath(trk *track.Info) string {
	if r.translationDir == "" || !trk.IsValid() {
		return ""
	}
	name := sanitizeFileName(trk.Artist + " - " + trk.Title)
	return filepath.Join(r.translationDir, name+".lrc")
}

func (r *LyricsResolver) loadTranslation(trk *track.Info) lyrics.Lyric {
	path := r.TranslationPath(trk)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.WithError(err).WithField("path", path).Warn("failed to read translation")
		}
		return nil
	}

	if lines := lyrics.ParseLRC(string(data)); lines != nil {
		return lines
	}
	if plain := lyrics.NewUnsynced(string(data)); plain != nil {
		return plain
	}
	return nil
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "")

func sanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
