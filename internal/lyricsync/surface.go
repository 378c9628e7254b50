package lyricsync

import "sync"

// Surface is the label-like text sink the engine renders into.
type Surface interface {
	SetMarkup(markup string, justify Justification)
}

// SurfaceRef is a non-owning reference to a Surface. Upgrade fails once the
// surface is gone, which is the scheduler's only termination signal.
type SurfaceRef interface {
	Upgrade() (Surface, bool)
}

// Handle is a SurfaceRef backed by a liveness flag. The owner of the surface
// calls Release when tearing it down.
type Handle struct {
	mu      sync.RWMutex
	surface Surface
}

func NewHandle(surface Surface) *Handle {
	return &Handle{surface: surface}
}

func (h *Handle) Upgrade() (Surface, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.surface, h.surface != nil
}

func (h *Handle) Release() {
	h.mu.Lock()
	h.surface = nil
	h.mu.Unlock()
}

func (h *Handle) Alive() bool {
	_, ok := h.Upgrade()
	return ok
}
