// Package lyricsync is the lyric timeline synchronization engine: it finds the
// current origin and translation lines for the playback position, composes
// them according to the display mode and pushes markup to a surface on a
// fixed schedule.
package lyricsync

import (
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/lyrics"
)

const DefaultIdleText = "lyroverlay"

// Frame is the last composition pushed to the surface.
type Frame struct {
	Primary   string    `json:"primary"`
	Secondary string    `json:"secondary"`
	Markup    string    `json:"markup"`
	Mode      Mode      `json:"mode"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EngineConfig struct {
	Lyrics   *Store
	Playback *Playback
	Display  *Display
	// Now defaults to time.Now.
	Now      func() time.Time
	IdleText string
}

type Engine struct {
	lyrics   *Store
	playback *Playback
	display  *Display
	now      func() time.Time
	idleText string
	logger   *log.Entry

	// serializes whole evaluations so a tick that read the old lyrics cannot
	// write its line after a Clear
	evalMu sync.Mutex

	mu      sync.RWMutex
	current Frame
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		lyrics:   cfg.Lyrics,
		playback: cfg.Playback,
		display:  cfg.Display,
		now:      cfg.Now,
		idleText: cfg.IdleText,
		logger:   log.WithField("component", "lyricsync"),
	}

	if e.lyrics == nil {
		e.lyrics = NewStore()
	}
	if e.playback == nil {
		e.playback = NewPlayback()
	}
	if e.display == nil {
		e.display = NewDisplay(DefaultDisplayConfig())
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.idleText == "" {
		e.idleText = DefaultIdleText
	}

	return e
}

func (e *Engine) Lyrics() *Store       { return e.lyrics }
func (e *Engine) Playback() *Playback { return e.playback }

// Refresh re-evaluates the display once. It is what every scheduler tick runs
// and may also be called directly, e.g. right after a track change.
func (e *Engine) Refresh(surface Surface, paused bool) {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	cfg := e.display.Snapshot()

	if paused && !cfg.ShowLyricOnPause {
		e.present(surface, nil, nil, cfg)
		return
	}

	elapsed, ok := e.playback.Elapsed(e.now())
	if !ok {
		return
	}
	elapsed += cfg.SyncOffset

	state := e.lyrics.Snapshot()
	origin, originSynced := state.Origin.(lyrics.LineTimestamp)
	translation, translationSynced := state.Translation.(lyrics.LineTimestamp)

	// unsynced or absent on both sides: nothing to follow
	if !originSynced && !translationSynced {
		return
	}

	var originLine, translationLine *lyrics.Line
	if originSynced {
		originLine = lyrics.Locate(elapsed, origin)
	}
	if translationSynced {
		translationLine = lyrics.Locate(elapsed, translation)
	}

	primary, secondary := Compose(cfg.Mode, originLine, translationLine)
	e.present(surface, primary, secondary, cfg)
}

// Clear blanks the surface and the current frame. It is used when the lyrics
// on screen no longer belong to the playing track.
func (e *Engine) Clear(surface Surface) {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()
	e.present(surface, nil, nil, e.display.Snapshot())
}

// ShowIdle resets the surface for the no-track state.
func (e *Engine) ShowIdle(surface Surface) {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	cfg := e.display.Snapshot()
	if !cfg.ShowDefaultTextOnIdle {
		e.present(surface, nil, nil, cfg)
		return
	}
	e.present(surface, &lyrics.Line{Text: e.idleText}, nil, cfg)
}

func (e *Engine) present(surface Surface, primary, secondary *lyrics.Line, cfg DisplayConfig) {
	markup := Format(primary, secondary, cfg.PrimaryFontSize, cfg.SecondaryFontSize)

	frame := Frame{Markup: markup, Mode: cfg.Mode, UpdatedAt: e.now()}
	if primary != nil {
		frame.Primary = strings.TrimSpace(primary.Text)
	}
	if secondary != nil {
		frame.Secondary = strings.TrimSpace(secondary.Text)
	}

	e.mu.Lock()
	e.current = frame
	e.mu.Unlock()

	if surface == nil {
		return
	}
	surface.SetMarkup(markup, JustifyCenter)
}

// Current returns the last frame pushed to a surface.
func (e *Engine) Current() Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

func (e *Engine) Display() DisplayConfig {
	return e.display.Snapshot()
}

func (e *Engine) SetDisplayMode(mode Mode) {
	cfg := e.display.update(func(cfg *DisplayConfig) { cfg.Mode = mode })
	e.logger.WithField("mode", cfg.Mode).Info("display mode changed")
}

func (e *Engine) SetFontSizes(primary, secondary int) {
	e.updateFonts(func(cfg *DisplayConfig) {
		cfg.PrimaryFontSize = primary
		cfg.SecondaryFontSize = secondary
	})
}

// SetPrimaryFontSize changes only the primary size, leaving a concurrent
// change to the secondary size intact.
func (e *Engine) SetPrimaryFontSize(size int) DisplayConfig {
	return e.updateFonts(func(cfg *DisplayConfig) { cfg.PrimaryFontSize = size })
}

func (e *Engine) SetSecondaryFontSize(size int) DisplayConfig {
	return e.updateFonts(func(cfg *DisplayConfig) { cfg.SecondaryFontSize = size })
}

// ResizeFonts adds the deltas to the current sizes in one update.
func (e *Engine) ResizeFonts(primaryDelta, secondaryDelta int) DisplayConfig {
	return e.updateFonts(func(cfg *DisplayConfig) {
		cfg.PrimaryFontSize += primaryDelta
		cfg.SecondaryFontSize += secondaryDelta
	})
}

func (e *Engine) updateFonts(fn func(cfg *DisplayConfig)) DisplayConfig {
	cfg := e.display.update(fn)
	e.logger.WithFields(log.Fields{
		"primary":   cfg.PrimaryFontSize,
		"secondary": cfg.SecondaryFontSize,
	}).Debug("font sizes changed")
	return cfg
}

func (e *Engine) SetShowLyricOnPause(show bool) {
	e.display.update(func(cfg *DisplayConfig) { cfg.ShowLyricOnPause = show })
}

func (e *Engine) SetSyncOffset(offset time.Duration) {
	e.display.update(func(cfg *DisplayConfig) { cfg.SyncOffset = offset })
}

// AdjustSyncOffset shifts the offset by delta and returns the new value.
func (e *Engine) AdjustSyncOffset(delta time.Duration) time.Duration {
	cfg := e.display.update(func(cfg *DisplayConfig) { cfg.SyncOffset += delta })
	return cfg.SyncOffset
}
