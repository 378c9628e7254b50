// Package ui is the terminal overlay: a bubbletea program that shows whatever
// the lyric engine last rendered, plus track info and cover art.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/lyricsync"
	"karolbroda.com/lyroverlay/internal/terminal"
)

const (
	DefaultFrameInterval = 50 * time.Millisecond
	flashDuration        = 2 * time.Second
	transitionTicks      = 8
)

// Controller is the part of the lyric engine the overlay drives.
type Controller interface {
	Display() lyricsync.DisplayConfig
	SetDisplayMode(mode lyricsync.Mode)
	ResizeFonts(primaryDelta, secondaryDelta int) lyricsync.DisplayConfig
	SetShowLyricOnPause(show bool)
	SetSyncOffset(offset time.Duration)
	AdjustSyncOffset(delta time.Duration) time.Duration
	Playback() *lyricsync.Playback
}

type FrameMsg time.Time

type ModelConfig struct {
	Board      *Board
	Handle     *lyricsync.Handle
	Controller Controller
	// SaveOffset persists the current sync offset for the playing track.
	SaveOffset    func() error
	HideHeader    bool
	FigletMinSize int
	TermCaps      *terminal.Capabilities
	FrameInterval time.Duration
	Now           func() time.Time
}

type Model struct {
	board         *Board
	handle        *lyricsync.Handle
	ctrl          Controller
	saveOffset    func() error
	hideHeader    bool
	figletMinSize int
	termCaps      *terminal.Capabilities
	frameInterval time.Duration
	now           func() time.Time
	logger        *log.Entry

	snap      Snapshot
	anim      AnimState
	tickCount int
	width     int
	height    int
	quitting  bool

	flash      string
	flashUntil time.Time
}

func NewModel(cfg ModelConfig) Model {
	m := Model{
		board:         cfg.Board,
		handle:        cfg.Handle,
		ctrl:          cfg.Controller,
		saveOffset:    cfg.SaveOffset,
		hideHeader:    cfg.HideHeader,
		figletMinSize: cfg.FigletMinSize,
		termCaps:      cfg.TermCaps,
		frameInterval: cfg.FrameInterval,
		now:           cfg.Now,
		logger:        log.WithField("component", "ui"),
	}

	if m.frameInterval <= 0 {
		m.frameInterval = DefaultFrameInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.termCaps == nil {
		m.termCaps = terminal.DetectCapabilities(false)
	}
	m.anim.Reset()
	if m.board != nil {
		m.snap = m.board.Snapshot()
	}

	return m
}

func (m Model) Init() tea.Cmd {
	return m.frameCmd()
}

func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// Close releases the surface handle so the lyric scheduler stops.
func (m Model) Close() {
	if m.handle != nil {
		m.handle.Release()
	}
}

func (m Model) Snapshot() Snapshot   { return m.snap }
func (m Model) HideHeader() bool     { return m.hideHeader }
func (m Model) IsQuitting() bool     { return m.quitting }
func (m Model) Flash() string        { return m.flash }
func (m Model) AnimState() AnimState { return m.anim }
