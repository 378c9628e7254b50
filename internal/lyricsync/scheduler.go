package lyricsync

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const DefaultInterval = 100 * time.Millisecond

// Scheduler drives Engine.Refresh on a fixed interval for as long as its
// surface stays alive.
type Scheduler struct {
	id       string
	engine   *Engine
	ref      SurfaceRef
	interval time.Duration
	logger   *log.Entry

	done     chan struct{}
	doneOnce sync.Once
}

// Register starts a scheduler for ref. It runs until ref can no longer be
// upgraded; there is no other way to stop it.
func (e *Engine) Register(ref SurfaceRef, interval time.Duration) *Scheduler {
	s := e.newScheduler(ref, interval)
	s.logger.WithField("interval", s.interval).Info("lyric display registered")
	go s.run()
	return s
}

func (e *Engine) newScheduler(ref SurfaceRef, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	id := uuid.NewString()
	return &Scheduler{
		id:       id,
		engine:   e,
		ref:      ref,
		interval: interval,
		logger:   e.logger.WithField("scheduler", id),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) ID() string { return s.id }

// Done is closed once the scheduler has terminated.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for range ticker.C {
		if !s.Tick() {
			return
		}
	}
}

// Tick performs one scheduled evaluation and reports whether scheduling
// should continue.
func (s *Scheduler) Tick() bool {
	surface, ok := s.ref.Upgrade()
	if !ok {
		s.terminate()
		return false
	}

	snapshot := s.engine.playback.Snapshot()
	if !snapshot.MetainfoPresent {
		return true
	}

	s.logger.WithField("paused", snapshot.Paused).Trace("refresh lyric")
	s.engine.Refresh(surface, snapshot.Paused)

	return true
}

func (s *Scheduler) terminate() {
	s.doneOnce.Do(func() {
		s.logger.Info("surface gone, lyric display terminated")
		close(s.done)
	})
}
