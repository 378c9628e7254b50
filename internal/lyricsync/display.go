package lyricsync

import (
	"sync"
	"time"
)

const (
	DefaultPrimaryFontSize   = 20
	DefaultSecondaryFontSize = 14
	minFontSize              = 1
)

// DisplayConfig is read once per tick so one composition pass never mixes
// settings from two different updates.
type DisplayConfig struct {
	Mode                  Mode
	PrimaryFontSize       int
	SecondaryFontSize     int
	ShowLyricOnPause      bool
	ShowDefaultTextOnIdle bool
	// SyncOffset is added to the elapsed time before lookup.
	SyncOffset time.Duration
}

func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Mode:                  ModeShowBoth,
		PrimaryFontSize:       DefaultPrimaryFontSize,
		SecondaryFontSize:     DefaultSecondaryFontSize,
		ShowLyricOnPause:      true,
		ShowDefaultTextOnIdle: true,
	}
}

type Display struct {
	mu  sync.RWMutex
	cfg DisplayConfig
}

func NewDisplay(cfg DisplayConfig) *Display {
	return &Display{cfg: sanitize(cfg)}
}

func (d *Display) Snapshot() DisplayConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Display) update(fn func(cfg *DisplayConfig)) DisplayConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.cfg)
	d.cfg = sanitize(d.cfg)
	return d.cfg
}

func sanitize(cfg DisplayConfig) DisplayConfig {
	if _, ok := modeNames[cfg.Mode]; !ok {
		cfg.Mode = ModeShowBoth
	}
	if cfg.PrimaryFontSize < minFontSize {
		cfg.PrimaryFontSize = minFontSize
	}
	if cfg.SecondaryFontSize < minFontSize {
		cfg.SecondaryFontSize = minFontSize
	}
	return cfg
}
