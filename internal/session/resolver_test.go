package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/track"
)

type fakeFetcher struct {
	resp   *lyrics.LrclibResponse
	err    error
	params *lyrics.TrackParams
}

func (f *fakeFetcher) Fetch(_ context.Context, params *lyrics.TrackParams) (*lyrics.LrclibResponse, error) {
	f.params = params
	return f.resp, f.err
}

func writeTranslation(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write translation: %v", err)
	}
}

func TestResolverSyncedWithTranslation(t *testing.T) {
	dir := t.TempDir()
	writeTranslation(t, dir, "Artist - Song.lrc", "[00:01.00]hola\n[00:03.00]mundo\n")

	fetcher := &fakeFetcher{resp: &lyrics.LrclibResponse{
		SyncedLyrics: "[00:01.00]hello\n[00:03.00]world\n",
		SyncOffset:   0.25,
	}}
	r := NewLyricsResolver(ResolverConfig{Fetcher: fetcher, TranslationDir: dir})

	trk := &track.Info{Title: "Song", Artist: "Artist", Album: "Album", Duration: 200500 * time.Millisecond}
	result, err := r.Resolve(context.Background(), trk)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	origin, ok := result.Origin.(lyrics.LineTimestamp)
	if !ok || len(origin) != 2 || origin[1].Text != "world" {
		t.Errorf("origin = %#v", result.Origin)
	}
	translation, ok := result.Translation.(lyrics.LineTimestamp)
	if !ok || len(translation) != 2 || translation[0].Text != "hola" {
		t.Errorf("translation = %#v", result.Translation)
	}
	if result.SyncOffset != 250*time.Millisecond {
		t.Errorf("sync offset = %v", result.SyncOffset)
	}

	if fetcher.params.DurationSecs != 200 || fetcher.params.Album != "Album" {
		t.Errorf("fetch params = %+v", fetcher.params)
	}
}

func TestResolverPlainAndInstrumental(t *testing.T) {
	r := NewLyricsResolver(ResolverConfig{Fetcher: &fakeFetcher{resp: &lyrics.LrclibResponse{PlainLyrics: "one\ntwo"}}})
	result, err := r.Resolve(context.Background(), &track.Info{Title: "Song", Artist: "Artist"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Origin.(lyrics.Unsynced); !ok {
		t.Errorf("expected unsynced origin, got %#v", result.Origin)
	}
	if result.Translation != nil {
		t.Errorf("expected no translation without a directory, got %#v", result.Translation)
	}

	r = NewLyricsResolver(ResolverConfig{Fetcher: &fakeFetcher{resp: &lyrics.LrclibResponse{Instrumental: true}}})
	result, err = r.Resolve(context.Background(), &track.Info{Title: "Song", Artist: "Artist"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Origin != nil {
		t.Errorf("expected no origin for instrumental, got %#v", result.Origin)
	}
}

func TestResolverTranslationOnly(t *testing.T) {
	dir := t.TempDir()
	writeTranslation(t, dir, "AC_DC - Song.lrc", "[00:01.00]hola\n")

	fetcher := &fakeFetcher{err: lyrics.ErrNoLyrics}
	r := NewLyricsResolver(ResolverConfig{Fetcher: fetcher, TranslationDir: dir})

	result, err := r.Resolve(context.Background(), &track.Info{Title: "Song", Artist: "AC/DC"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Origin != nil || result.Translation == nil {
		t.Errorf("unexpected result %#v", result)
	}

	for _, fetchErr := range []error{lyrics.ErrDurationMismatch, errors.New("unexpected status 500")} {
		fetcher.err = fetchErr
		result, err := r.Resolve(context.Background(), &track.Info{Title: "Song", Artist: "AC/DC"})
		if err != nil {
			t.Errorf("Resolve with %v: %v", fetchErr, err)
			continue
		}
		if result.Translation == nil {
			t.Errorf("translation dropped after %v", fetchErr)
		}
	}

	fetcher.err = errors.New("network down")
	if _, err := r.Resolve(context.Background(), &track.Info{Title: "Other", Artist: "AC/DC"}); err == nil {
		t.Error("expected fetch errors to propagate without a translation")
	}
}

type fakeOffsets struct {
	err   error
	saved float64
}

func (f *fakeOffsets) SetSyncOffset(_, _ string, offset float64) error {
	if f.err != nil {
		return f.err
	}
	f.saved = offset
	return nil
}

func TestResolverSaveSyncOffset(t *testing.T) {
	trk := &track.Info{Title: "Song", Artist: "Artist"}

	offsets := &fakeOffsets{}
	r := NewLyricsResolver(ResolverConfig{Offsets: offsets})
	if err := r.SaveSyncOffset(trk, 1500*time.Millisecond); err != nil {
		t.Fatalf("SaveSyncOffset: %v", err)
	}
	if offsets.saved != 1.5 {
		t.Errorf("saved = %v, want 1.5", offsets.saved)
	}

	// songs that were never cached have nowhere to keep an offset
	offsets.err = cache.ErrCacheMiss
	if err := r.SaveSyncOffset(trk, time.Second); err != nil {
		t.Errorf("expected cache miss to be ignored, got %v", err)
	}

	offsets.err = errors.New("disk full")
	if err := r.SaveSyncOffset(trk, time.Second); err == nil {
		t.Error("expected write failures to propagate")
	}
}

func TestResolverRejectsInvalidTrack(t *testing.T) {
	r := NewLyricsResolver(ResolverConfig{Fetcher: &fakeFetcher{}})
	if _, err := r.Resolve(context.Background(), &track.Info{Title: "Song"}); err == nil {
		t.Error("expected error for track without artist")
	}
}

func TestTranslationPath(t *testing.T) {
	r := NewLyricsResolver(ResolverConfig{TranslationDir: "/lyrics"})
	got := r.TranslationPath(&track.Info{Title: "A/B", Artist: " X "})
	if want := filepath.Join("/lyrics", "X  - A_B.lrc"); got != want {
		t.Errorf("TranslationPath = %q, want %q", got, want)
	}

	if got := NewLyricsResolver(ResolverConfig{}).TranslationPath(&track.Info{Title: "a", Artist: "b"}); got != "" {
		t.Errorf("expected empty path without directory, got %q", got)
	}
}
