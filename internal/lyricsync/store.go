package lyricsync

import (
	"sync"

	"karolbroda.com/lyroverlay/internal/lyrics"
)

// State is the lyric pair of the song currently loaded.
type State struct {
	Origin      lyrics.Lyric
	Translation lyrics.Lyric
}

// Store owns the current State. It is only ever replaced as a whole.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Replace(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Store) Clear() {
	s.Replace(State{})
}

// Snapshot returns the current pair. Track slices are shared, not copied;
// writers never mutate a track after handing it to Replace.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
