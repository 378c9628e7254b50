package lyricsync

import (
	"sync"
	"time"
)

type PlaybackSnapshot struct {
	Paused          bool
	MetainfoPresent bool
}

// Playback tracks whether a track is known, whether it is paused and the
// anchor instant from which elapsed time is measured. It is written by the
// media session and read by the scheduler; every mutation happens under one
// lock so a reader never sees a new pause flag with a stale anchor.
type Playback struct {
	mu       sync.RWMutex
	metainfo bool
	paused   bool
	anchor   time.Time
	// position held while paused
	frozen time.Duration
}

func NewPlayback() *Playback {
	return &Playback{}
}

func (p *Playback) Snapshot() PlaybackSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PlaybackSnapshot{Paused: p.paused, MetainfoPresent: p.metainfo}
}

// Elapsed returns the playback position at now. It reports false when no
// anchor is set or the clock reads earlier than the anchor.
func (p *Playback) Elapsed(now time.Time) (time.Duration, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.anchor.IsZero() {
		return 0, false
	}
	if p.paused {
		return p.frozen, true
	}

	elapsed := now.Sub(p.anchor)
	if elapsed < 0 {
		return 0, false
	}
	return elapsed, true
}

// Start records a newly known track at position.
func (p *Playback) Start(now time.Time, position time.Duration, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metainfo = true
	p.paused = !playing
	p.anchorAt(now, position)
}

func (p *Playback) Pause(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return
	}
	if !p.anchor.IsZero() {
		if elapsed := now.Sub(p.anchor); elapsed > 0 {
			p.frozen = elapsed
		} else {
			p.frozen = 0
		}
	}
	p.paused = true
}

func (p *Playback) Resume(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused {
		return
	}
	p.paused = false
	if !p.anchor.IsZero() {
		p.anchor = now.Add(-p.frozen)
	}
}

// Seek re-anchors so that elapsed equals position at now.
func (p *Playback) Seek(now time.Time, position time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.anchorAt(now, position)
}

// Clear forgets the track: metadata becomes unknown and the anchor unset.
func (p *Playback) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metainfo = false
	p.paused = false
	p.anchor = time.Time{}
	p.frozen = 0
}

func (p *Playback) anchorAt(now time.Time, position time.Duration) {
	if position < 0 {
		position = 0
	}
	p.anchor = now.Add(-position)
	p.frozen = position
}
