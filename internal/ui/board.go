package ui

import (
	"image"
	"sync"

	"karolbroda.com/lyroverlay/internal/artwork"
	"karolbroda.com/lyroverlay/internal/lyricsync"
	"karolbroda.com/lyroverlay/internal/session"
	"karolbroda.com/lyroverlay/internal/track"
)

// Snapshot is everything the view needs for one frame.
type Snapshot struct {
	Markup  string
	Justify lyricsync.Justification
	// Version increases with every SetMarkup that changes the markup.
	Version uint64

	Track     *track.Info
	Image     image.Image
	Palette   *artwork.Palette
	Loading   bool
	LyricsErr error
}

// Board is the surface the lyric engine renders into. Writers never block on
// the terminal: the bubbletea program reads the latest state every frame.
type Board struct {
	align lyricsync.Justification

	mu   sync.RWMutex
	snap Snapshot

	// swapped in tests to avoid k-means on every artwork
	extractPalette func(image.Image) *artwork.Palette
}

// NewBoard creates a board that places centered lines at align.
func NewBoard(align lyricsync.Justification) *Board {
	return &Board{
		align: align,
		snap: Snapshot{
			Justify: align,
			Palette: artwork.DefaultPalette(),
		},
		extractPalette: artwork.ExtractPalette,
	}
}

// SetMarkup implements lyricsync.Surface. The engine asks for center
// placement by default; a configured alignment takes its place.
func (b *Board) SetMarkup(markup string, justify lyricsync.Justification) {
	if justify == lyricsync.JustifyCenter {
		justify = b.align
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if markup != b.snap.Markup {
		b.snap.Version++
	}
	b.snap.Markup = markup
	b.snap.Justify = justify
}

func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}

// TrackChanged drops the previous song's line; the engine leaves the surface
// alone until the new lyrics arrive.
func (b *Board) TrackChanged(trk *track.Info) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snap.Markup != "" {
		b.snap.Markup = ""
		b.snap.Version++
	}
	b.snap.Track = trk
	b.snap.Image = nil
	b.snap.Palette = artwork.DefaultPalette()
	b.snap.Loading = true
	b.snap.LyricsErr = nil
}

func (b *Board) LyricsResolved(trk *track.Info, _ session.Result, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isCurrent(trk) {
		return
	}
	b.snap.Loading = false
	b.snap.LyricsErr = err
}

func (b *Board) ArtworkLoaded(trk *track.Info, img image.Image) {
	if img == nil {
		return
	}
	palette := b.extractPalette(img)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isCurrent(trk) {
		return
	}
	b.snap.Image = img
	b.snap.Palette = palette
}

func (b *Board) TrackLost() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Track = nil
	b.snap.Image = nil
	b.snap.Palette = artwork.DefaultPalette()
	b.snap.Loading = false
	b.snap.LyricsErr = nil
}

func (b *Board) isCurrent(trk *track.Info) bool {
	return b.snap.Track != nil && b.snap.Track.IsSameTrack(trk)
}
