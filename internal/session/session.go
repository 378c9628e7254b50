// Package session connects the media player to the lyric engine: it turns
// player events into playback state, resolves lyrics for each new track and
// keeps the display fresh between scheduler ticks.
package session

import (
	"context"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/lyricsync"
	"karolbroda.com/lyroverlay/internal/player"
	"karolbroda.com/lyroverlay/internal/track"
)

const DefaultResyncInterval = time.Second

type Player interface {
	Events() <-chan player.EventData
	Poll() error
}

// Result is what a Resolver found for one track.
type Result struct {
	Origin      lyrics.Lyric
	Translation lyrics.Lyric
	// SyncOffset is the per-song correction saved for this track, if any.
	SyncOffset time.Duration
}

type Resolver interface {
	Resolve(ctx context.Context, trk *track.Info) (Result, error)
}

// OffsetSaver is implemented by resolvers that can persist a per-song offset.
type OffsetSaver interface {
	SaveSyncOffset(trk *track.Info, offset time.Duration) error
}

type ArtworkFetcher func(ctx context.Context, artworkURL string) (image.Image, error)

// Listener receives session progress. Calls come from the session goroutine
// and from artwork fetches, so implementations must not block.
type Listener interface {
	TrackChanged(trk *track.Info)
	LyricsResolved(trk *track.Info, result Result, err error)
	ArtworkLoaded(trk *track.Info, img image.Image)
	TrackLost()
}

type Config struct {
	Player   Player
	Engine   *lyricsync.Engine
	Surface  lyricsync.SurfaceRef
	Resolver Resolver
	Artwork  ArtworkFetcher
	Listener Listener
	// BaseSyncOffset applies to songs without a saved offset.
	BaseSyncOffset time.Duration
	ResyncInterval time.Duration
	Now            func() time.Time
}

type resolution struct {
	generation uint64
	track      *track.Info
	result     Result
	err        error
}

type Session struct {
	player     Player
	engine     *lyricsync.Engine
	surface    lyricsync.SurfaceRef
	resolver   Resolver
	artwork    ArtworkFetcher
	listener   Listener
	baseOffset time.Duration
	resync     time.Duration
	now        func() time.Time
	logger     *log.Entry

	results chan resolution

	// owned by the Run goroutine
	generation uint64
	cancel     context.CancelFunc

	mu    sync.RWMutex
	track *track.Info
}

func New(cfg Config) *Session {
	s := &Session{
		player:     cfg.Player,
		engine:     cfg.Engine,
		surface:    cfg.Surface,
		resolver:   cfg.Resolver,
		artwork:    cfg.Artwork,
		listener:   cfg.Listener,
		baseOffset: cfg.BaseSyncOffset,
		resync:     cfg.ResyncInterval,
		now:        cfg.Now,
		logger:     log.WithField("component", "session"),
		results:    make(chan resolution, 4),
	}

	if s.resync <= 0 {
		s.resync = DefaultResyncInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.listener == nil {
		s.listener = nopListener{}
	}

	return s
}

// CurrentTrack returns the track being followed, or nil when idle.
func (s *Session) CurrentTrack() *track.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.track == nil {
		return nil
	}
	trackCopy := *s.track
	return &trackCopy
}

// SaveSyncOffset persists the engine's current offset for the current track.
func (s *Session) SaveSyncOffset() error {
	saver, ok := s.resolver.(OffsetSaver)
	if !ok {
		return nil
	}
	trk := s.CurrentTrack()
	if trk == nil {
		return nil
	}
	return saver.SaveSyncOffset(trk, s.engine.Display().SyncOffset)
}

// Run processes player events until ctx is done or the event stream closes.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.resync)
	defer ticker.Stop()
	defer s.cancelPending()

	if surface, ok := s.surface.Upgrade(); ok {
		s.engine.ShowIdle(surface)
	}
	if err := s.player.Poll(); err != nil {
		s.logger.WithError(err).Debug("initial poll failed")
	}

	events := s.player.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)

		case res := <-s.results:
			s.applyResolution(res)

		case <-ticker.C:
			if err := s.player.Poll(); err != nil {
				s.logger.WithError(err).Debug("player poll failed")
			}
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, event player.EventData) {
	at := event.At
	if at.IsZero() {
		at = s.now()
	}

	s.logger.WithFields(log.Fields{
		"event":    event.Type,
		"position": event.Position,
		"playing":  event.Playing,
	}).Debug("player event")

	playback := s.engine.Playback()

	switch event.Type {
	case player.EventTrackChanged:
		s.startTrack(ctx, event.Track, event.Position, event.Playing, at)

	case player.EventSeeked:
		playback.Seek(at, event.Position)
		s.refresh()

	case player.EventPlaybackStateChanged:
		if event.Playing {
			playback.Resume(at)
		} else {
			playback.Pause(at)
		}
		s.refresh()

	case player.EventTrackLost:
		s.loseTrack()
	}
}

func (s *Session) startTrack(ctx context.Context, trk *track.Info, position time.Duration, playing bool, at time.Time) {
	if !trk.IsValid() {
		s.loseTrack()
		return
	}

	s.cancelPending()
	s.generation++
	generation := s.generation

	s.mu.Lock()
	s.track = trk
	s.mu.Unlock()

	s.engine.Lyrics().Clear()
	s.blank()
	s.engine.SetSyncOffset(s.baseOffset)
	s.engine.Playback().Start(at, position, playing)
	s.refresh()

	s.logger.WithFields(log.Fields{
		"track":    trk.String(),
		"position": position,
	}).Info("track changed")
	s.listener.TrackChanged(trk)

	resolveCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.resolver != nil {
		go s.resolve(resolveCtx, generation, trk)
	}
	if s.artwork != nil && trk.ArtworkURL != "" {
		go s.fetchArtwork(resolveCtx, trk)
	}
}

func (s *Session) resolve(ctx context.Context, generation uint64, trk *track.Info) {
	result, err := s.resolver.Resolve(ctx, trk)
	if ctx.Err() != nil {
		return
	}

	select {
	case s.results <- resolution{generation: generation, track: trk, result: result, err: err}:
	case <-ctx.Done():
	}
}

func (s *Session) fetchArtwork(ctx context.Context, trk *track.Info) {
	img, err := s.artwork(ctx, trk.ArtworkURL)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("url", trk.ArtworkURL).Debug("artwork fetch failed")
		return
	}
	s.listener.ArtworkLoaded(trk, img)
}

func (s *Session) applyResolution(res resolution) {
	if res.generation != s.generation {
		s.logger.WithField("track", res.track.String()).Debug("discarding stale lyrics")
		return
	}

	if res.err != nil {
		s.logger.WithError(res.err).WithField("track", res.track.String()).Warn("no lyrics for track")
		s.blank()
		s.listener.LyricsResolved(res.track, Result{}, res.err)
		return
	}

	s.engine.Lyrics().Replace(lyricsync.State{
		Origin:      res.result.Origin,
		Translation: res.result.Translation,
	})
	if res.result.SyncOffset != 0 {
		s.engine.SetSyncOffset(res.result.SyncOffset)
	}
	s.refresh()

	s.logger.WithFields(log.Fields{
		"track":       res.track.String(),
		"synced":      lyrics.IsSynced(res.result.Origin),
		"translation": res.result.Translation != nil,
	}).Info("lyrics loaded")
	s.listener.LyricsResolved(res.track, res.result, nil)
}

func (s *Session) loseTrack() {
	s.cancelPending()
	s.generation++

	s.mu.Lock()
	hadTrack := s.track != nil
	s.track = nil
	s.mu.Unlock()

	s.engine.Playback().Clear()
	s.engine.Lyrics().Clear()

	if surface, ok := s.surface.Upgrade(); ok {
		s.engine.ShowIdle(surface)
	}

	if hadTrack {
		s.logger.Info("track lost")
	}
	s.listener.TrackLost()
}

func (s *Session) refresh() {
	surface, ok := s.surface.Upgrade()
	if !ok {
		return
	}
	snapshot := s.engine.Playback().Snapshot()
	if !snapshot.MetainfoPresent {
		return
	}
	s.engine.Refresh(surface, snapshot.Paused)
}

// blank drops whatever the engine last showed, surface or not.
func (s *Session) blank() {
	surface, ok := s.surface.Upgrade()
	if !ok {
		surface = nil
	}
	s.engine.Clear(surface)
}

func (s *Session) cancelPending() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

type nopListener struct{}

func (nopListener) TrackChanged(*track.Info)                   {}
func (nopListener) LyricsResolved(*track.Info, Result, error) {}
func (nopListener) ArtworkLoaded(*track.Info, image.Image)     {}
func (nopListener) TrackLost()                                  {}
